package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taller/internal/core/apperror"
	"taller/internal/core/id"
)

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memUsers struct {
	byEmail map[string]*User
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: make(map[string]*User)}
}

func (r *memUsers) Create(ctx context.Context, u *User) error {
	r.byEmail[u.Email] = u
	return nil
}

func (r *memUsers) GetByID(ctx context.Context, userID id.ID) (*User, error) {
	for _, u := range r.byEmail {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", userID.String())
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, apperror.NewNotFound("user", email)
	}
	return u, nil
}

func (r *memUsers) Update(ctx context.Context, u *User) error {
	r.byEmail[u.Email] = u
	return nil
}

func (r *memUsers) List(ctx context.Context, f UserFilter) ([]User, int64, error) {
	return nil, 0, nil
}

func (r *memUsers) Exists(ctx context.Context, email string) (bool, error) {
	_, ok := r.byEmail[email]
	return ok, nil
}

func newTestService() (*Service, *memUsers) {
	repo := newMemUsers()
	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	return NewService(repo, passthroughTx{}, jwtSvc, DefaultServiceConfig()), repo
}

func TestLogin_RoundTrip(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, "Ana@Taller.com", "secreto123", "Ana", []string{RoleOperator})
	require.NoError(t, err)
	assert.Equal(t, "ana@taller.com", created.Email, "email is normalized")

	pair, user, err := svc.Login(ctx, Credentials{Email: "ana@taller.com", Password: "secreto123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotNil(t, user.LastLoginAt)

	// The issued token round-trips into a user context with expanded permissions.
	uc, err := NewJWTService(DefaultJWTConfig("test-secret")).ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID.String(), uc.UserID)
	assert.Contains(t, uc.Permissions, PermOrdersWrite)
	assert.NotContains(t, uc.Permissions, PermLedgerWrite)
}

func TestLogin_WrongPasswordAndLockout(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "x@y.com", "secreto123", "", []string{RoleMechanic})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, _, err = svc.Login(ctx, Credentials{Email: "x@y.com", Password: "wrong"})
		require.Error(t, err)
	}

	u := repo.byEmail["x@y.com"]
	assert.True(t, u.IsLocked(), "fifth failure locks the account")

	// Even the right password is rejected while locked.
	_, _, err = svc.Login(ctx, Credentials{Email: "x@y.com", Password: "secreto123"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newTestService()

	_, _, err := svc.Login(context.Background(), Credentials{Email: "nobody@y.com", Password: "x"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestValidateToken_RejectsTamperedAndExpired(t *testing.T) {
	cfg := DefaultJWTConfig("test-secret")
	svc := NewJWTService(cfg)
	u := NewUser("a@b.com", "hash")
	u.Roles = []string{RoleAccountant}

	token, _, err := svc.GenerateAccessToken(u)
	require.NoError(t, err)

	_, err = NewJWTService(DefaultJWTConfig("other-secret")).ValidateToken(token)
	assert.Error(t, err, "wrong secret")

	expired := NewJWTService(JWTConfig{Secret: "test-secret", Issuer: "taller", AccessTokenTTL: -time.Minute})
	token, _, err = expired.GenerateAccessToken(u)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err, "expired token")
}

func TestPermissionsForRoles_Union(t *testing.T) {
	perms := PermissionsForRoles([]string{RoleMechanic, RoleAccountant})
	assert.Contains(t, perms, PermOrdersWrite)
	assert.Contains(t, perms, PermLedgerWrite)

	counts := map[string]int{}
	for _, p := range perms {
		counts[p]++
	}
	for p, n := range counts {
		assert.Equal(t, 1, n, "duplicate permission %s", p)
	}
}

func TestCreateUser_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "", "secreto123", "", nil)
	assert.Error(t, err)

	_, err = svc.CreateUser(ctx, "a@b.com", "short", "", nil)
	assert.Error(t, err)

	_, err = svc.CreateUser(ctx, "a@b.com", "secreto123", "", []string{"janitor"})
	assert.Error(t, err)

	_, err = svc.CreateUser(ctx, "a@b.com", "secreto123", "", []string{RoleOperator})
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, "a@b.com", "secreto123", "", []string{RoleOperator})
	assert.Error(t, err, "duplicate email")
}
