package repository

import (
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"

	"github.com/brightpixel/agency-backend/internal/auth/domain"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestMergeFields_NewEntry(t *testing.T) {
	role := domain.RoleUser
	fields := mergeFields(domain.EntryUpdate{
		Email: strPtr("a@example.com"),
		Role:  &role,
	}, true)

	assert.Equal(t, firestore.ServerTimestamp, fields[fieldCreatedAt])
	assert.Equal(t, firestore.ServerTimestamp, fields[fieldUpdatedAt])
	assert.Equal(t, "a@example.com", fields[fieldEmail])
	assert.Equal(t, "user", fields[fieldRole])
	assert.NotContains(t, fields, fieldName)
	assert.NotContains(t, fields, fieldPromotedToAdminAt)
}

func TestMergeFields_ExistingEntryKeepsCreatedAt(t *testing.T) {
	fields := mergeFields(domain.EntryUpdate{Name: strPtr("Ada")}, false)

	assert.NotContains(t, fields, fieldCreatedAt)
	assert.Equal(t, "Ada", fields[fieldName])
	assert.Equal(t, firestore.ServerTimestamp, fields[fieldUpdatedAt])
}

func TestMergeFields_PromotionStampsServerTime(t *testing.T) {
	fields := mergeFields(domain.EntryUpdate{
		IsAdmin:  boolPtr(true),
		Metadata: map[string]interface{}{"promotedBy": "root"},
	}, false)

	assert.Equal(t, true, fields[fieldIsAdmin])
	assert.Equal(t, firestore.ServerTimestamp, fields[fieldPromotedToAdminAt])
	assert.Equal(t, map[string]interface{}{"promotedBy": "root"}, fields[fieldMetadata])
}

func TestMergeFields_DemotionDoesNotStamp(t *testing.T) {
	fields := mergeFields(domain.EntryUpdate{IsAdmin: boolPtr(false)}, false)
	assert.Equal(t, false, fields[fieldIsAdmin])
	assert.NotContains(t, fields, fieldPromotedToAdminAt)
}

func TestRestoreFields(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	fields := restoreFields(domain.DirectoryEntry{
		UID:       "u1",
		Email:     "a@example.com",
		Role:      domain.RoleAdmin,
		IsAdmin:   true,
		CreatedAt: &created,
	})

	assert.Equal(t, created, fields[fieldCreatedAt])
	assert.Equal(t, "admin", fields[fieldRole])
	assert.NotContains(t, fields, fieldLastLogin)
	assert.NotContains(t, fields, fieldMetadata)
}
