package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/brightpixel/agency-backend/internal/auth/domain"
)

// PostgresUserRepository keeps directory entries in the directory_users table.
type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const upsertEntrySQL = `
	INSERT INTO directory_users (uid, email, name, role, is_admin, last_login, metadata, promoted_to_admin_at)
	VALUES ($1, coalesce($2, ''), coalesce($3, ''), coalesce($4, 'user'), coalesce($5::boolean, false), $6,
	        coalesce($7::jsonb, '{}'::jsonb), CASE WHEN $5::boolean THEN NOW() END)
	ON CONFLICT (uid) DO UPDATE
	SET email = coalesce($2, directory_users.email),
	    name = coalesce($3, directory_users.name),
	    role = coalesce($4, directory_users.role),
	    is_admin = coalesce($5::boolean, directory_users.is_admin),
	    last_login = coalesce($6, directory_users.last_login),
	    metadata = directory_users.metadata || coalesce($7::jsonb, '{}'::jsonb),
	    promoted_to_admin_at = CASE WHEN $5::boolean THEN NOW() ELSE directory_users.promoted_to_admin_at END,
	    updated_at = NOW()
`

const selectEntryColumns = `
	SELECT uid, email, name, role, is_admin, metadata, created_at, updated_at, last_login, promoted_to_admin_at
	FROM directory_users
`

// Upsert merges u into the row. created_at is only set by the insert branch.
func (r *PostgresUserRepository) Upsert(ctx context.Context, uid string, u domain.EntryUpdate) error {
	var role sql.NullString
	if u.Role != nil {
		role = sql.NullString{String: string(*u.Role), Valid: true}
	}
	var isAdmin sql.NullBool
	if u.IsAdmin != nil {
		isAdmin = sql.NullBool{Bool: *u.IsAdmin, Valid: true}
	}
	var lastLogin sql.NullTime
	if u.LastLogin != nil {
		lastLogin = sql.NullTime{Time: *u.LastLogin, Valid: true}
	}
	var metadata []byte
	if len(u.Metadata) > 0 {
		b, err := json.Marshal(u.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = b
	}

	_, err := r.db.ExecContext(ctx, upsertEntrySQL,
		uid,
		nullString(u.Email),
		nullString(u.Name),
		role,
		isAdmin,
		lastLogin,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert directory entry: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) Get(ctx context.Context, uid string) (*domain.DirectoryEntry, error) {
	row := r.db.QueryRowContext(ctx, selectEntryColumns+` WHERE uid = $1`, uid)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get directory entry: %w", err)
	}
	return entry, nil
}

func (r *PostgresUserRepository) ListAll(ctx context.Context) ([]domain.DirectoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, selectEntryColumns+` ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory entries: %w", err)
	}
	defer rows.Close()

	out := []domain.DirectoryEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory entry: %w", err)
		}
		out = append(out, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list directory entries: %w", err)
	}
	return out, nil
}

func (r *PostgresUserRepository) Delete(ctx context.Context, uid string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM directory_users WHERE uid = $1`, uid); err != nil {
		return fmt.Errorf("failed to delete directory entry: %w", err)
	}
	return nil
}

// Restore reinserts a snapshot with its original timestamps.
func (r *PostgresUserRepository) Restore(ctx context.Context, e domain.DirectoryEntry) error {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil || e.Metadata == nil {
		metadata = []byte("{}")
	}

	query := `
		INSERT INTO directory_users (uid, email, name, role, is_admin, metadata, created_at, updated_at, last_login, promoted_to_admin_at)
		VALUES ($1, $2, $3, $4, $5, $6, coalesce($7, NOW()), coalesce($8, NOW()), $9, $10)
		ON CONFLICT (uid) DO NOTHING
	`
	_, err = r.db.ExecContext(ctx, query,
		e.UID, e.Email, e.Name, string(e.Role), e.IsAdmin, metadata,
		e.CreatedAt, e.UpdatedAt, e.LastLogin, e.PromotedToAdminAt,
	)
	if err != nil {
		return fmt.Errorf("failed to restore directory entry: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.DirectoryEntry, error) {
	var (
		entry        domain.DirectoryEntry
		role         string
		metadataJSON []byte
		createdAt    sql.NullTime
		updatedAt    sql.NullTime
		lastLogin    sql.NullTime
		promotedAt   sql.NullTime
	)

	err := row.Scan(
		&entry.UID,
		&entry.Email,
		&entry.Name,
		&role,
		&entry.IsAdmin,
		&metadataJSON,
		&createdAt,
		&updatedAt,
		&lastLogin,
		&promotedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Role = domain.Role(role)
	entry.CreatedAt = timePtr(createdAt)
	entry.UpdatedAt = timePtr(updatedAt)
	entry.LastLogin = timePtr(lastLogin)
	entry.PromotedToAdminAt = timePtr(promotedAt)

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
			entry.Metadata = nil
		}
	}
	if len(entry.Metadata) == 0 {
		entry.Metadata = nil
	}

	return &entry, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
