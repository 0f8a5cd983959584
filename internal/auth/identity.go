package auth

import (
	"context"
	"fmt"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"

	"github.com/brightpixel/agency-backend/internal/auth/domain"
)

const listPageSize = 1000

// Provider is the identity provider surface the rest of the service uses.
// Every call goes to the network; nothing is cached or retried.
type Provider interface {
	VerifyToken(ctx context.Context, token string, kind domain.TokenKind) (*domain.TokenInfo, error)
	GetUser(ctx context.Context, uid string) (*domain.Identity, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.Identity, error)
	CreateUser(ctx context.Context, u domain.NewIdentity) (*domain.Identity, error)
	UpdateUser(ctx context.Context, uid string, u domain.IdentityUpdate) (*domain.Identity, error)
	DeleteUser(ctx context.Context, uid string) error
	SetAdminClaim(ctx context.Context, uid string, admin bool) error
	ListUsers(ctx context.Context) ([]domain.Identity, error)
	CreateSessionCookie(ctx context.Context, idToken string, ttl time.Duration) (string, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// FirebaseProvider adapts the Firebase Admin auth client.
type FirebaseProvider struct {
	client *fbauth.Client
}

func NewFirebaseProvider(client *fbauth.Client) *FirebaseProvider {
	return &FirebaseProvider{client: client}
}

// VerifyToken checks an ID token or session cookie. Every failure is reported
// as domain.ErrInvalidToken with the provider's reason wrapped in.
func (p *FirebaseProvider) VerifyToken(ctx context.Context, token string, kind domain.TokenKind) (*domain.TokenInfo, error) {
	var (
		decoded *fbauth.Token
		err     error
	)
	switch kind {
	case domain.TokenKindSessionCookie:
		decoded, err = p.client.VerifySessionCookie(ctx, token)
	default:
		decoded, err = p.client.VerifyIDToken(ctx, token)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	info := &domain.TokenInfo{
		UID:      decoded.UID,
		AuthTime: time.Unix(decoded.AuthTime, 0).UTC(),
		Expiry:   time.Unix(decoded.Expires, 0).UTC(),
		Claims:   decoded.Claims,
	}
	if email, ok := decoded.Claims["email"].(string); ok {
		info.Email = email
	}
	if verified, ok := decoded.Claims["email_verified"].(bool); ok {
		info.EmailVerified = verified
	}
	return info, nil
}

func (p *FirebaseProvider) GetUser(ctx context.Context, uid string) (*domain.Identity, error) {
	rec, err := p.client.GetUser(ctx, uid)
	if err != nil {
		return nil, mapUserError(err)
	}
	return toIdentity(rec), nil
}

// GetUserByEmail returns domain.ErrUserNotFound for unknown emails. That is an
// expected outcome and callers branch on it.
func (p *FirebaseProvider) GetUserByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	rec, err := p.client.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, mapUserError(err)
	}
	return toIdentity(rec), nil
}

func (p *FirebaseProvider) CreateUser(ctx context.Context, u domain.NewIdentity) (*domain.Identity, error) {
	params := (&fbauth.UserToCreate{}).
		Email(u.Email).
		EmailVerified(false).
		Disabled(false)
	if u.DisplayName != "" {
		params = params.DisplayName(u.DisplayName)
	}

	rec, err := p.client.CreateUser(ctx, params)
	if err != nil {
		return nil, mapUserError(err)
	}
	return toIdentity(rec), nil
}

func (p *FirebaseProvider) UpdateUser(ctx context.Context, uid string, u domain.IdentityUpdate) (*domain.Identity, error) {
	params := &fbauth.UserToUpdate{}
	if u.DisplayName != nil {
		params = params.DisplayName(*u.DisplayName)
	}

	rec, err := p.client.UpdateUser(ctx, uid, params)
	if err != nil {
		return nil, mapUserError(err)
	}
	return toIdentity(rec), nil
}

func (p *FirebaseProvider) DeleteUser(ctx context.Context, uid string) error {
	if err := p.client.DeleteUser(ctx, uid); err != nil {
		return mapUserError(err)
	}
	return nil
}

// SetAdminClaim writes the admin flag and the matching role claim, keeping any
// unrelated claims. Last write wins.
func (p *FirebaseProvider) SetAdminClaim(ctx context.Context, uid string, admin bool) error {
	rec, err := p.client.GetUser(ctx, uid)
	if err != nil {
		return mapUserError(err)
	}

	claims := MergeAdminClaims(rec.CustomClaims, admin)
	if err := p.client.SetCustomUserClaims(ctx, uid, claims); err != nil {
		return mapUserError(err)
	}
	return nil
}

// ListUsers walks the provider's page cursor and returns every record.
func (p *FirebaseProvider) ListUsers(ctx context.Context) ([]domain.Identity, error) {
	var out []domain.Identity

	pager := iterator.NewPager(p.client.Users(ctx, ""), listPageSize, "")
	for {
		var page []*fbauth.ExportedUserRecord
		next, err := pager.NextPage(&page)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		for _, rec := range page {
			out = append(out, *toIdentity(rec.UserRecord))
		}
		if next == "" {
			break
		}
	}

	return out, nil
}

func (p *FirebaseProvider) CreateSessionCookie(ctx context.Context, idToken string, ttl time.Duration) (string, error) {
	cookie, err := p.client.SessionCookie(ctx, idToken, ttl)
	if err != nil {
		if fbauth.IsIDTokenInvalid(err) || fbauth.IsIDTokenExpired(err) {
			return "", fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
		}
		return "", fmt.Errorf("create session cookie: %w", err)
	}
	return cookie, nil
}

func (p *FirebaseProvider) RevokeRefreshTokens(ctx context.Context, uid string) error {
	if err := p.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return mapUserError(err)
	}
	return nil
}

// MergeAdminClaims returns a copy of claims with the admin flag and role set.
func MergeAdminClaims(claims map[string]interface{}, admin bool) map[string]interface{} {
	out := make(map[string]interface{}, len(claims)+2)
	for k, v := range claims {
		out[k] = v
	}
	out[domain.ClaimAdmin] = admin
	out[domain.ClaimRole] = string(domain.RoleFor(admin))
	return out
}

func mapUserError(err error) error {
	switch {
	case err == nil:
		return nil
	case fbauth.IsUserNotFound(err):
		return fmt.Errorf("%w: %v", domain.ErrUserNotFound, err)
	case fbauth.IsEmailAlreadyExists(err):
		return fmt.Errorf("%w: %v", domain.ErrEmailAlreadyExists, err)
	default:
		return fmt.Errorf("identity provider: %w", err)
	}
}

func toIdentity(rec *fbauth.UserRecord) *domain.Identity {
	if rec == nil {
		return nil
	}

	id := &domain.Identity{
		EmailVerified: rec.EmailVerified,
		Disabled:      rec.Disabled,
		Claims:        rec.CustomClaims,
	}
	if rec.UserInfo != nil {
		id.UID = rec.UID
		id.Email = rec.Email
		id.DisplayName = rec.DisplayName
	}
	for _, info := range rec.ProviderUserInfo {
		if info != nil && info.ProviderID != "" {
			id.Providers = append(id.Providers, info.ProviderID)
		}
	}
	if rec.UserMetadata != nil {
		id.CreatedAt = millisToTime(rec.UserMetadata.CreationTimestamp)
		id.LastSignInAt = millisToTime(rec.UserMetadata.LastLogInTimestamp)
	}
	return id
}

func millisToTime(ms int64) *time.Time {
	if ms <= 0 {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}
