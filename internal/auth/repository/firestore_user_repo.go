package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/brightpixel/agency-backend/internal/auth/domain"
)

// Firestore document field names.
const (
	fieldEmail             = "email"
	fieldName              = "name"
	fieldRole              = "role"
	fieldIsAdmin           = "isAdmin"
	fieldCreatedAt         = "createdAt"
	fieldLastLogin         = "lastLogin"
	fieldUpdatedAt         = "updatedAt"
	fieldPromotedToAdminAt = "promotedToAdminAt"
	fieldMetadata          = "metadata"
)

type firestoreEntry struct {
	Email             string                 `firestore:"email"`
	Name              string                 `firestore:"name"`
	Role              string                 `firestore:"role"`
	IsAdmin           bool                   `firestore:"isAdmin"`
	CreatedAt         *time.Time             `firestore:"createdAt"`
	LastLogin         *time.Time             `firestore:"lastLogin"`
	UpdatedAt         *time.Time             `firestore:"updatedAt"`
	PromotedToAdminAt *time.Time             `firestore:"promotedToAdminAt"`
	Metadata          map[string]interface{} `firestore:"metadata"`
}

// FirestoreUserRepository keeps directory entries in one Firestore collection,
// one document per uid.
type FirestoreUserRepository struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreUserRepository(client *firestore.Client, collection string) *FirestoreUserRepository {
	return &FirestoreUserRepository{client: client, collection: collection}
}

func (r *FirestoreUserRepository) doc(uid string) *firestore.DocumentRef {
	return r.client.Collection(r.collection).Doc(uid)
}

// Upsert merges u into the document inside a transaction so createdAt is
// only written when the document does not exist yet.
func (r *FirestoreUserRepository) Upsert(ctx context.Context, uid string, u domain.EntryUpdate) error {
	ref := r.doc(uid)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		exists := true
		if _, err := tx.Get(ref); err != nil {
			if status.Code(err) != codes.NotFound {
				return err
			}
			exists = false
		}
		return tx.Set(ref, mergeFields(u, !exists), firestore.MergeAll)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert directory entry: %w", err)
	}
	return nil
}

func (r *FirestoreUserRepository) Get(ctx context.Context, uid string) (*domain.DirectoryEntry, error) {
	snap, err := r.doc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, domain.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get directory entry: %w", err)
	}
	return decodeSnapshot(snap)
}

func (r *FirestoreUserRepository) ListAll(ctx context.Context) ([]domain.DirectoryEntry, error) {
	snaps, err := r.client.Collection(r.collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list directory entries: %w", err)
	}

	out := make([]domain.DirectoryEntry, 0, len(snaps))
	for _, snap := range snaps {
		e, err := decodeSnapshot(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

func (r *FirestoreUserRepository) Delete(ctx context.Context, uid string) error {
	if _, err := r.doc(uid).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete directory entry: %w", err)
	}
	return nil
}

// Restore overwrites the document with a previously read snapshot.
func (r *FirestoreUserRepository) Restore(ctx context.Context, e domain.DirectoryEntry) error {
	if _, err := r.doc(e.UID).Set(ctx, restoreFields(e)); err != nil {
		return fmt.Errorf("failed to restore directory entry: %w", err)
	}
	return nil
}

func (r *FirestoreUserRepository) Ping(ctx context.Context) error {
	_, err := r.client.Collection(r.collection).Limit(1).Documents(ctx).GetAll()
	return err
}

// mergeFields builds the MergeAll payload for an update. Timestamps the server
// owns use firestore.ServerTimestamp; metadata keys merge one by one.
func mergeFields(u domain.EntryUpdate, isNew bool) map[string]interface{} {
	fields := map[string]interface{}{
		fieldUpdatedAt: firestore.ServerTimestamp,
	}
	if isNew {
		fields[fieldCreatedAt] = firestore.ServerTimestamp
	}
	if u.Email != nil {
		fields[fieldEmail] = *u.Email
	}
	if u.Name != nil {
		fields[fieldName] = *u.Name
	}
	if u.Role != nil {
		fields[fieldRole] = string(*u.Role)
	}
	if u.IsAdmin != nil {
		fields[fieldIsAdmin] = *u.IsAdmin
	}
	if u.Promotes() {
		fields[fieldPromotedToAdminAt] = firestore.ServerTimestamp
	}
	if u.LastLogin != nil {
		fields[fieldLastLogin] = *u.LastLogin
	}
	if len(u.Metadata) > 0 {
		meta := make(map[string]interface{}, len(u.Metadata))
		for k, v := range u.Metadata {
			meta[k] = v
		}
		fields[fieldMetadata] = meta
	}
	return fields
}

func restoreFields(e domain.DirectoryEntry) map[string]interface{} {
	fields := map[string]interface{}{
		fieldEmail:   e.Email,
		fieldName:    e.Name,
		fieldRole:    string(e.Role),
		fieldIsAdmin: e.IsAdmin,
	}
	for key, ts := range map[string]*time.Time{
		fieldCreatedAt:         e.CreatedAt,
		fieldLastLogin:         e.LastLogin,
		fieldUpdatedAt:         e.UpdatedAt,
		fieldPromotedToAdminAt: e.PromotedToAdminAt,
	} {
		if ts != nil {
			fields[key] = *ts
		}
	}
	if len(e.Metadata) > 0 {
		fields[fieldMetadata] = e.Metadata
	}
	return fields
}

func decodeSnapshot(snap *firestore.DocumentSnapshot) (*domain.DirectoryEntry, error) {
	var fe firestoreEntry
	if err := snap.DataTo(&fe); err != nil {
		return nil, fmt.Errorf("failed to decode directory entry %s: %w", snap.Ref.ID, err)
	}
	return &domain.DirectoryEntry{
		UID:               snap.Ref.ID,
		Email:             fe.Email,
		Name:              fe.Name,
		Role:              domain.Role(fe.Role),
		IsAdmin:           fe.IsAdmin,
		CreatedAt:         fe.CreatedAt,
		LastLogin:         fe.LastLogin,
		UpdatedAt:         fe.UpdatedAt,
		PromotedToAdminAt: fe.PromotedToAdminAt,
		Metadata:          fe.Metadata,
	}, nil
}
