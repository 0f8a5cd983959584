package service

import (
	"sort"

	"github.com/brightpixel/agency-backend/internal/auth/domain"
)

// Reconcile joins provider records and directory entries by uid. Identity
// fields come from the provider, profile fields from the directory. A
// provider record with no entry takes its role from the claim.
func Reconcile(identities []domain.Identity, entries []domain.DirectoryEntry) []domain.UserView {
	byUID := make(map[string]*domain.DirectoryEntry, len(entries))
	for i := range entries {
		byUID[entries[i].UID] = &entries[i]
	}

	out := make([]domain.UserView, 0, len(identities)+len(entries))
	seen := make(map[string]struct{}, len(identities))
	for i := range identities {
		id := &identities[i]
		if _, dup := seen[id.UID]; dup {
			continue
		}
		seen[id.UID] = struct{}{}
		out = append(out, mergeView(id, byUID[id.UID]))
	}

	for i := range entries {
		e := &entries[i]
		if _, ok := seen[e.UID]; ok {
			continue
		}
		seen[e.UID] = struct{}{}
		out = append(out, directoryView(e))
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreatedAt, out[j].CreatedAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return out[i].UID < out[j].UID
	})
	return out
}

func mergeView(id *domain.Identity, e *domain.DirectoryEntry) domain.UserView {
	v := domain.UserView{
		UID:           id.UID,
		Email:         id.Email,
		DisplayName:   id.DisplayName,
		EmailVerified: id.EmailVerified,
		Disabled:      id.Disabled,
		Providers:     id.Providers,
		CreatedAt:     id.CreatedAt,
		LastSignInAt:  id.LastSignInAt,
		Role:          id.ClaimRole(),
		IsAdmin:       id.IsAdmin(),
		Source:        domain.SourceProvider,
	}
	if e == nil {
		return v
	}

	v.Source = domain.SourceBoth
	v.Name = e.Name
	if e.Role != "" {
		v.Role = e.Role
	}
	v.IsAdmin = e.IsAdmin
	v.LastLogin = e.LastLogin
	v.UpdatedAt = e.UpdatedAt
	v.PromotedToAdminAt = e.PromotedToAdminAt
	v.Metadata = e.Metadata
	if v.Email == "" {
		v.Email = e.Email
	}
	if v.CreatedAt == nil {
		v.CreatedAt = e.CreatedAt
	}
	return v
}

func directoryView(e *domain.DirectoryEntry) domain.UserView {
	role := e.Role
	if role == "" {
		role = domain.RoleFor(e.IsAdmin)
	}
	return domain.UserView{
		UID:               e.UID,
		Email:             e.Email,
		Name:              e.Name,
		Role:              role,
		IsAdmin:           e.IsAdmin,
		CreatedAt:         e.CreatedAt,
		LastLogin:         e.LastLogin,
		UpdatedAt:         e.UpdatedAt,
		PromotedToAdminAt: e.PromotedToAdminAt,
		Metadata:          e.Metadata,
		Source:            domain.SourceDirectory,
	}
}

// ComputeDrift lists uids that exist on one side only and uids whose
// directory isAdmin disagrees with the provider claim.
func ComputeDrift(identities []domain.Identity, entries []domain.DirectoryEntry) domain.DriftReport {
	report := domain.DriftReport{
		ProviderOnly:  []string{},
		DirectoryOnly: []string{},
		RoleMismatch:  []string{},
	}

	byUID := make(map[string]domain.DirectoryEntry, len(entries))
	for _, e := range entries {
		byUID[e.UID] = e
	}

	known := make(map[string]struct{}, len(identities))
	for _, id := range identities {
		known[id.UID] = struct{}{}
		e, ok := byUID[id.UID]
		if !ok {
			report.ProviderOnly = append(report.ProviderOnly, id.UID)
			continue
		}
		if e.IsAdmin != id.IsAdmin() {
			report.RoleMismatch = append(report.RoleMismatch, id.UID)
		}
	}
	for _, e := range entries {
		if _, ok := known[e.UID]; !ok {
			report.DirectoryOnly = append(report.DirectoryOnly, e.UID)
		}
	}

	sort.Strings(report.ProviderOnly)
	sort.Strings(report.DirectoryOnly)
	sort.Strings(report.RoleMismatch)
	return report
}
