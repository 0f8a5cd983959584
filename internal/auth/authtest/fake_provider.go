// Package authtest provides an in-memory identity provider for tests.
package authtest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/brightpixel/agency-backend/internal/auth"
	"github.com/brightpixel/agency-backend/internal/auth/domain"
)

var _ auth.Provider = (*FakeProvider)(nil)

// FakeProvider keeps identities and tokens in memory. Errors can be injected
// per operation through the Fail* fields.
type FakeProvider struct {
	mu     sync.Mutex
	users  map[string]*domain.Identity
	tokens map[string]domain.TokenInfo
	seq    int

	FailCreate   error
	FailDelete   error
	FailSetClaim error
	FailList     error
	FailSession  error

	Revoked []string
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		users:  make(map[string]*domain.Identity),
		tokens: make(map[string]domain.TokenInfo),
	}
}

// AddUser seeds an identity. Admin sets the admin and role claims.
func (f *FakeProvider) AddUser(uid, email string, admin bool) *domain.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now().UTC()
	id := &domain.Identity{
		UID:       uid,
		Email:     email,
		Claims:    auth.MergeAdminClaims(nil, admin),
		Providers: []string{"password"},
		CreatedAt: &now,
	}
	f.users[uid] = id
	return id
}

// Put stores a fully specified identity.
func (f *FakeProvider) Put(id domain.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := id
	f.users[id.UID] = &cp
}

// IssueToken registers token as valid for uid. Claims are read from the
// identity at verification time so claim changes show up immediately.
func (f *FakeProvider) IssueToken(token, uid string, authTime time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = domain.TokenInfo{
		UID:      uid,
		AuthTime: authTime,
		Expiry:   authTime.Add(time.Hour),
	}
}

func (f *FakeProvider) VerifyToken(_ context.Context, token string, _ domain.TokenKind) (*domain.TokenInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	info, ok := f.tokens[strings.TrimPrefix(token, "session:")]
	if !ok {
		return nil, fmt.Errorf("%w: unknown token", domain.ErrInvalidToken)
	}
	id, ok := f.users[info.UID]
	if !ok {
		return nil, fmt.Errorf("%w: user deleted", domain.ErrInvalidToken)
	}
	info.Email = id.Email
	info.EmailVerified = id.EmailVerified
	info.Claims = copyClaims(id.Claims)
	return &info, nil
}

func (f *FakeProvider) GetUser(_ context.Context, uid string) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.users[uid]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *id
	cp.Claims = copyClaims(id.Claims)
	return &cp, nil
}

func (f *FakeProvider) GetUserByEmail(_ context.Context, email string) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.users {
		if strings.EqualFold(id.Email, email) {
			cp := *id
			cp.Claims = copyClaims(id.Claims)
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *FakeProvider) CreateUser(_ context.Context, u domain.NewIdentity) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailCreate != nil {
		return nil, f.FailCreate
	}
	for _, id := range f.users {
		if strings.EqualFold(id.Email, u.Email) {
			return nil, domain.ErrEmailAlreadyExists
		}
	}

	f.seq++
	now := time.Now().UTC()
	id := &domain.Identity{
		UID:         fmt.Sprintf("uid-%d", f.seq),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Providers:   []string{"password"},
		CreatedAt:   &now,
	}
	f.users[id.UID] = id
	cp := *id
	return &cp, nil
}

func (f *FakeProvider) UpdateUser(_ context.Context, uid string, u domain.IdentityUpdate) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.users[uid]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if u.DisplayName != nil {
		id.DisplayName = *u.DisplayName
	}
	cp := *id
	return &cp, nil
}

func (f *FakeProvider) DeleteUser(_ context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailDelete != nil {
		return f.FailDelete
	}
	if _, ok := f.users[uid]; !ok {
		return domain.ErrUserNotFound
	}
	delete(f.users, uid)
	return nil
}

func (f *FakeProvider) SetAdminClaim(_ context.Context, uid string, admin bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailSetClaim != nil {
		return f.FailSetClaim
	}
	id, ok := f.users[uid]
	if !ok {
		return domain.ErrUserNotFound
	}
	id.Claims = auth.MergeAdminClaims(id.Claims, admin)
	return nil
}

func (f *FakeProvider) ListUsers(context.Context) ([]domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailList != nil {
		return nil, f.FailList
	}
	out := make([]domain.Identity, 0, len(f.users))
	for _, id := range f.users {
		cp := *id
		cp.Claims = copyClaims(id.Claims)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}

// CreateSessionCookie returns "session:" + idToken for known tokens.
func (f *FakeProvider) CreateSessionCookie(_ context.Context, idToken string, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailSession != nil {
		return "", f.FailSession
	}
	if _, ok := f.tokens[idToken]; !ok {
		return "", domain.ErrInvalidToken
	}
	return "session:" + idToken, nil
}

func (f *FakeProvider) RevokeRefreshTokens(_ context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Revoked = append(f.Revoked, uid)
	return nil
}

// Exists reports whether uid is still registered.
func (f *FakeProvider) Exists(uid string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[uid]
	return ok
}

func copyClaims(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
