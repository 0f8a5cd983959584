package repository

import (
	"context"

	"github.com/brightpixel/agency-backend/internal/auth/domain"
)

// DirectoryStore persists the application's mirrored user profiles keyed by
// provider uid. Upsert is a merge write: nil fields in the update are kept.
type DirectoryStore interface {
	Upsert(ctx context.Context, uid string, u domain.EntryUpdate) error
	Get(ctx context.Context, uid string) (*domain.DirectoryEntry, error)
	ListAll(ctx context.Context) ([]domain.DirectoryEntry, error)
	Delete(ctx context.Context, uid string) error
	Ping(ctx context.Context) error
}

// Restorer writes a full entry back, used to undo a delete.
type Restorer interface {
	Restore(ctx context.Context, e domain.DirectoryEntry) error
}
