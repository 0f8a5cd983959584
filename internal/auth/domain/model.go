package domain

import (
	"time"
)

// Role is the coarse profile role stored in the directory and mirrored in the
// "role" custom claim.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Custom claim keys managed by this application.
const (
	ClaimAdmin = "admin"
	ClaimRole  = "role"
)

// ParseRole accepts only the enumerated roles.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", ErrInvalidRole
	}
}

func RoleFor(admin bool) Role {
	if admin {
		return RoleAdmin
	}
	return RoleUser
}

// Identity is the provider-owned user record.
type Identity struct {
	UID           string                 `json:"uid"`
	Email         string                 `json:"email"`
	DisplayName   string                 `json:"displayName,omitempty"`
	EmailVerified bool                   `json:"emailVerified"`
	Disabled      bool                   `json:"disabled"`
	Claims        map[string]interface{} `json:"customClaims,omitempty"`
	Providers     []string               `json:"providers,omitempty"`
	CreatedAt     *time.Time             `json:"createdAt,omitempty"`
	LastSignInAt  *time.Time             `json:"lastSignInAt,omitempty"`
}

// IsAdmin reports whether the provider's custom claim grants admin.
func (i Identity) IsAdmin() bool {
	return claimIsAdmin(i.Claims)
}

// ClaimRole returns the role claim, falling back to the admin flag.
func (i Identity) ClaimRole() Role {
	if r, ok := i.Claims[ClaimRole].(string); ok {
		if role, err := ParseRole(r); err == nil {
			return role
		}
	}
	return RoleFor(i.IsAdmin())
}

// NewIdentity holds the fields used when creating a provider account.
type NewIdentity struct {
	Email       string
	DisplayName string
}

// IdentityUpdate holds optional provider account changes.
type IdentityUpdate struct {
	DisplayName *string
}

// TokenKind distinguishes bearer ID tokens from session cookies.
type TokenKind int

const (
	TokenKindID TokenKind = iota
	TokenKindSessionCookie
)

// TokenInfo is the verified content of an ID token or session cookie.
type TokenInfo struct {
	UID           string
	Email         string
	EmailVerified bool
	AuthTime      time.Time
	Expiry        time.Time
	Claims        map[string]interface{}
}

func (t TokenInfo) IsAdmin() bool {
	return claimIsAdmin(t.Claims)
}

// Principal is the authenticated caller handed to downstream handler logic.
type Principal struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	Admin         bool      `json:"isAdmin"`
	Role          Role      `json:"role"`
	AuthTime      time.Time `json:"authTime"`
	ExpiresAt     time.Time `json:"expiresAt"`
	Bypass        bool      `json:"-"`
}

func PrincipalFromToken(t TokenInfo) Principal {
	return Principal{
		UID:           t.UID,
		Email:         t.Email,
		EmailVerified: t.EmailVerified,
		Admin:         t.IsAdmin(),
		Role:          RoleFor(t.IsAdmin()),
		AuthTime:      t.AuthTime,
		ExpiresAt:     t.Expiry,
	}
}

// DirectoryEntry is this application's mirrored profile document.
type DirectoryEntry struct {
	UID               string                 `json:"uid"`
	Email             string                 `json:"email"`
	Name              string                 `json:"name,omitempty"`
	Role              Role                   `json:"role"`
	IsAdmin           bool                   `json:"isAdmin"`
	CreatedAt         *time.Time             `json:"createdAt,omitempty"`
	LastLogin         *time.Time             `json:"lastLogin,omitempty"`
	UpdatedAt         *time.Time             `json:"updatedAt,omitempty"`
	PromotedToAdminAt *time.Time             `json:"promotedToAdminAt,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
}

// EntryUpdate is a partial directory write. Nil fields are preserved;
// Metadata keys are merged one by one.
type EntryUpdate struct {
	Email     *string
	Name      *string
	Role      *Role
	IsAdmin   *bool
	LastLogin *time.Time
	Metadata  map[string]interface{}
}

// Promotes reports whether the write sets isAdmin=true, which stamps
// promotedToAdminAt with server time.
func (u EntryUpdate) Promotes() bool {
	return u.IsAdmin != nil && *u.IsAdmin
}

// Apply merges the update into e. Used by backends that merge in process.
func (u EntryUpdate) Apply(e *DirectoryEntry, now time.Time) {
	if e.CreatedAt == nil {
		created := now
		e.CreatedAt = &created
	}
	if u.Email != nil {
		e.Email = *u.Email
	}
	if u.Name != nil {
		e.Name = *u.Name
	}
	if u.Role != nil {
		e.Role = *u.Role
	}
	if u.IsAdmin != nil {
		e.IsAdmin = *u.IsAdmin
	}
	if u.LastLogin != nil {
		last := *u.LastLogin
		e.LastLogin = &last
	}
	if u.Promotes() {
		promoted := now
		e.PromotedToAdminAt = &promoted
	}
	if len(u.Metadata) > 0 {
		if e.Metadata == nil {
			e.Metadata = make(map[string]interface{}, len(u.Metadata))
		}
		for k, v := range u.Metadata {
			e.Metadata[k] = v
		}
	}
	updated := now
	e.UpdatedAt = &updated
}

// UserView is one reconciled row of the admin user listing.
type UserView struct {
	UID               string                 `json:"uid"`
	Email             string                 `json:"email"`
	DisplayName       string                 `json:"displayName,omitempty"`
	Name              string                 `json:"name,omitempty"`
	Role              Role                   `json:"role"`
	IsAdmin           bool                   `json:"isAdmin"`
	EmailVerified     bool                   `json:"emailVerified"`
	Disabled          bool                   `json:"disabled"`
	Providers         []string               `json:"providers,omitempty"`
	CreatedAt         *time.Time             `json:"createdAt,omitempty"`
	LastSignInAt      *time.Time             `json:"lastSignInAt,omitempty"`
	LastLogin         *time.Time             `json:"lastLogin,omitempty"`
	UpdatedAt         *time.Time             `json:"updatedAt,omitempty"`
	PromotedToAdminAt *time.Time             `json:"promotedToAdminAt,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
	Source            string                 `json:"source"`
}

// Reconciliation sources.
const (
	SourceProvider  = "provider"
	SourceDirectory = "directory"
	SourceBoth      = "both"
)

// AddUserRequest is the input of the add/promote flow.
type AddUserRequest struct {
	Email         string
	Name          string
	Role          string
	CreateAccount bool
}

// MonthlyCount is one bucket of the signup histogram.
type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// UserStats aggregates provider records for the admin dashboard.
type UserStats struct {
	Total            int            `json:"total"`
	Active           int            `json:"active"`
	Inactive         int            `json:"inactive"`
	Admins           int            `json:"admins"`
	Verified         int            `json:"verified"`
	VerificationRate float64        `json:"verificationRate"`
	RecentlyActive   int            `json:"recentlyActive"`
	Providers        map[string]int `json:"providers"`
	MonthlySignups   []MonthlyCount `json:"monthlySignups"`
}

// DriftReport counts disagreements between the provider and the directory.
type DriftReport struct {
	ProviderOnly  []string `json:"providerOnly"`
	DirectoryOnly []string `json:"directoryOnly"`
	RoleMismatch  []string `json:"roleMismatch"`
}

func claimIsAdmin(claims map[string]interface{}) bool {
	v, ok := claims[ClaimAdmin].(bool)
	return ok && v
}
