package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brightpixel/agency-backend/internal/auth"
	"github.com/brightpixel/agency-backend/internal/auth/domain"
	"github.com/brightpixel/agency-backend/internal/auth/repository"
	"github.com/brightpixel/agency-backend/internal/metrics"
	"github.com/brightpixel/agency-backend/pkg/logger"
)

// AdminService coordinates the identity provider, which owns accounts and
// claims, with the directory, which owns profiles.
type AdminService struct {
	provider auth.Provider
	store    repository.DirectoryStore
	now      func() time.Time
}

func NewAdminService(provider auth.Provider, store repository.DirectoryStore) *AdminService {
	return &AdminService{
		provider: provider,
		store:    store,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddUser grants role to the account registered under req.Email, creating the
// account first when req.CreateAccount is set. The claim is written before
// the directory; a failed directory write restores the previous claim.
func (s *AdminService) AddUser(ctx context.Context, actor domain.Principal, req domain.AddUserRequest) (*domain.UserView, error) {
	role := domain.RoleUser
	if req.Role != "" {
		r, err := domain.ParseRole(req.Role)
		if err != nil {
			return nil, err
		}
		role = r
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)

	identity, err := s.provider.GetUserByEmail(ctx, email)
	created := false
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		if !req.CreateAccount {
			return nil, domain.ErrAccountNotRequested
		}
		identity, err = s.provider.CreateUser(ctx, domain.NewIdentity{Email: email, DisplayName: name})
		if err != nil {
			return nil, fmt.Errorf("create account: %w", err)
		}
		created = true
		logger.Ctx(ctx).Info().Str("uid", identity.UID).Str("actor", actor.UID).Msg("identity account created")
	case err != nil:
		return nil, fmt.Errorf("lookup account: %w", err)
	case name != "" && name != identity.DisplayName:
		updated, err := s.provider.UpdateUser(ctx, identity.UID, domain.IdentityUpdate{DisplayName: &name})
		if err != nil {
			return nil, fmt.Errorf("update display name: %w", err)
		}
		identity = updated
	}

	admin := role == domain.RoleAdmin
	previousAdmin := identity.IsAdmin()
	if err := s.provider.SetAdminClaim(ctx, identity.UID, admin); err != nil {
		return nil, fmt.Errorf("set admin claim: %w", err)
	}

	metadata := map[string]interface{}{
		"updatedBy": actor.Email,
		"source":    "admin-panel",
	}
	if _, err := s.store.Get(ctx, identity.UID); errors.Is(err, domain.ErrEntryNotFound) {
		metadata["createdBy"] = actor.Email
	}
	if admin {
		metadata["promotedBy"] = actor.Email
	}
	update := domain.EntryUpdate{
		Email:    &email,
		Role:     &role,
		IsAdmin:  &admin,
		Metadata: metadata,
	}
	if name != "" {
		update.Name = &name
	}

	if err := s.store.Upsert(ctx, identity.UID, update); err != nil {
		s.restoreClaim(ctx, identity.UID, previousAdmin)
		return nil, fmt.Errorf("%w: %v", domain.ErrDirectoryWriteFailed, err)
	}

	identity.Claims = auth.MergeAdminClaims(identity.Claims, admin)
	entry, err := s.store.Get(ctx, identity.UID)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("uid", identity.UID).Msg("directory read after write failed")
		entry = nil
	}

	logger.Ctx(ctx).Info().
		Str("uid", identity.UID).
		Str("role", string(role)).
		Bool("created", created).
		Str("actor", actor.UID).
		Msg("user added")

	view := mergeView(identity, entry)
	return &view, nil
}

// DeleteUser removes the directory entry and then the identity record. If the
// identity delete fails the directory snapshot is written back.
func (s *AdminService) DeleteUser(ctx context.Context, actor domain.Principal, uid string) error {
	uid = strings.TrimSpace(uid)
	if uid == actor.UID {
		return domain.ErrSelfDeletion
	}

	if _, err := s.provider.GetUser(ctx, uid); err != nil {
		return err
	}

	snapshot, err := s.store.Get(ctx, uid)
	switch {
	case errors.Is(err, domain.ErrEntryNotFound):
		snapshot = nil
	case err != nil:
		return fmt.Errorf("%w: %v", domain.ErrDirectoryWriteFailed, err)
	}

	if snapshot != nil {
		if err := s.store.Delete(ctx, uid); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrDirectoryWriteFailed, err)
		}
	}

	if err := s.provider.DeleteUser(ctx, uid); err != nil {
		if snapshot != nil {
			s.restoreEntry(ctx, *snapshot)
		}
		return fmt.Errorf("delete account: %w", err)
	}

	logger.Ctx(ctx).Info().Str("uid", uid).Str("actor", actor.UID).Msg("user deleted")
	return nil
}

// UpdateRole sets the admin claim and mirrors role and isAdmin into the
// directory. The role is validated before anything is written.
func (s *AdminService) UpdateRole(ctx context.Context, actor domain.Principal, uid, rawRole string) (*domain.UserView, error) {
	role, err := domain.ParseRole(rawRole)
	if err != nil {
		return nil, err
	}

	identity, err := s.provider.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	admin := role == domain.RoleAdmin
	previousAdmin := identity.IsAdmin()
	if err := s.provider.SetAdminClaim(ctx, uid, admin); err != nil {
		return nil, fmt.Errorf("set admin claim: %w", err)
	}

	metadata := map[string]interface{}{"updatedBy": actor.Email}
	if admin {
		metadata["promotedBy"] = actor.Email
	}
	update := domain.EntryUpdate{
		Role:     &role,
		IsAdmin:  &admin,
		Metadata: metadata,
	}
	if identity.Email != "" {
		update.Email = &identity.Email
	}

	if err := s.store.Upsert(ctx, uid, update); err != nil {
		s.restoreClaim(ctx, uid, previousAdmin)
		return nil, fmt.Errorf("%w: %v", domain.ErrDirectoryWriteFailed, err)
	}

	identity.Claims = auth.MergeAdminClaims(identity.Claims, admin)
	entry, err := s.store.Get(ctx, uid)
	if err != nil {
		entry = nil
	}

	logger.Ctx(ctx).Info().
		Str("uid", uid).
		Str("role", string(role)).
		Str("actor", actor.UID).
		Msg("role updated")

	view := mergeView(identity, entry)
	return &view, nil
}

// ListUsers returns the reconciled union of provider records and directory
// entries. A directory read failure degrades to provider-only rows.
func (s *AdminService) ListUsers(ctx context.Context) ([]domain.UserView, error) {
	identities, err := s.provider.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	entries, err := s.store.ListAll(ctx)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("directory unavailable, listing provider records only")
		entries = nil
	}

	return Reconcile(identities, entries), nil
}

// Stats aggregates provider records.
func (s *AdminService) Stats(ctx context.Context) (*domain.UserStats, error) {
	identities, err := s.provider.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	stats := ComputeStats(identities, s.now())
	return &stats, nil
}

// RecordLogin stamps lastLogin on an existing directory entry. Failures are
// logged and swallowed.
func (s *AdminService) RecordLogin(ctx context.Context, info domain.TokenInfo) {
	if _, err := s.store.Get(ctx, info.UID); err != nil {
		if !errors.Is(err, domain.ErrEntryNotFound) {
			logger.Ctx(ctx).Warn().Err(err).Str("uid", info.UID).Msg("record login: directory read failed")
		}
		return
	}

	now := s.now()
	update := domain.EntryUpdate{LastLogin: &now}
	if info.Email != "" {
		update.Email = &info.Email
	}
	if err := s.store.Upsert(ctx, info.UID, update); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("uid", info.UID).Msg("record login: directory write failed")
	}
}

// Drift compares the provider with the directory without changing either.
func (s *AdminService) Drift(ctx context.Context) (*domain.DriftReport, error) {
	identities, err := s.provider.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	entries, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list directory: %w", err)
	}

	report := ComputeDrift(identities, entries)
	metrics.SetDrift(len(report.ProviderOnly), len(report.DirectoryOnly), len(report.RoleMismatch))
	return &report, nil
}

func (s *AdminService) restoreClaim(ctx context.Context, uid string, admin bool) {
	if err := s.provider.SetAdminClaim(ctx, uid, admin); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("uid", uid).Bool("admin", admin).
			Msg("failed to restore admin claim after directory write failure")
		return
	}
	logger.Ctx(ctx).Warn().Str("uid", uid).Msg("admin claim restored after directory write failure")
}

func (s *AdminService) restoreEntry(ctx context.Context, e domain.DirectoryEntry) {
	restorer, ok := s.store.(repository.Restorer)
	if !ok {
		logger.Ctx(ctx).Error().Str("uid", e.UID).Msg("directory entry lost: store cannot restore")
		return
	}
	if err := restorer.Restore(ctx, e); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("uid", e.UID).Msg("failed to restore directory entry")
		return
	}
	logger.Ctx(ctx).Warn().Str("uid", e.UID).Msg("directory entry restored after account delete failure")
}
