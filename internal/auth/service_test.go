package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/bakery-backend/internal/profiles"
	"github.com/angelmondragon/bakery-backend/internal/users"
	pkgAuth "github.com/angelmondragon/bakery-backend/pkg/auth"
	"github.com/angelmondragon/bakery-backend/pkg/auth/session"
	"github.com/angelmondragon/bakery-backend/pkg/config"
	"github.com/angelmondragon/bakery-backend/pkg/db"
	"github.com/angelmondragon/bakery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bakery-backend/pkg/errors"
	"github.com/angelmondragon/bakery-backend/pkg/ratelimit"
	"github.com/angelmondragon/bakery-backend/pkg/security"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "bakery",
	ExpirationMinutes: 30,
}

type stubSessionManager struct {
	mu       sync.Mutex
	sessions map[string]uuid.UUID
	revoked  []string
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{sessions: map[string]uuid.UUID{}}
}

func (s *stubSessionManager) Generate(ctx context.Context, userID uuid.UUID, accessID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[accessID] = userID
	return "refresh-" + accessID, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, userID uuid.UUID, oldAccessID, provided string) (string, string, error) {
	s.mu.Lock()
	owner, ok := s.sessions[oldAccessID]
	s.mu.Unlock()
	if !ok || owner != userID || provided != "refresh-"+oldAccessID {
		return "", "", session.ErrInvalidRefreshToken
	}
	newID := session.NewAccessID()
	token, _ := s.Generate(ctx, userID, newID)
	s.mu.Lock()
	delete(s.sessions, oldAccessID)
	s.mu.Unlock()
	return newID, token, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, accessID)
	s.revoked = append(s.revoked, accessID)
	return nil
}

type authFixture struct {
	svc      Service
	sessions *stubSessionManager
	profiles *profiles.Repository
	conn     *gorm.DB
}

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(`
CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	require.NoError(t, conn.Exec(`
CREATE TABLE profiles (
  id TEXT PRIMARY KEY,
  full_name TEXT NOT NULL DEFAULT '',
  phone TEXT,
  address TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'customer',
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return conn
}

func newAuthFixture(t *testing.T, loginMax int) authFixture {
	t.Helper()
	conn := setupAuthTestDB(t)
	limiter, err := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
	require.NoError(t, err)

	sessions := newStubSessionManager()
	profileRepo := profiles.NewRepository(conn)
	svc, err := NewService(ServiceParams{
		Tx:             db.Wrap(conn),
		UserRepo:       users.NewRepository(conn),
		ProfileRepo:    profileRepo,
		SessionManager: sessions,
		Limiter:        limiter,
		LoginPolicy:    ratelimit.Login(loginMax, 15*time.Minute),
		Location:       time.UTC,
		JWTConfig:      testJWT,
	})
	require.NoError(t, err)
	return authFixture{svc: svc, sessions: sessions, profiles: profileRepo, conn: conn}
}

func register(t *testing.T, f authFixture, email string) *LoginResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:    email,
		Password: "correct-horse",
		FullName: "נועה לוי",
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterCreatesCustomerAndSignsIn(t *testing.T) {
	f := newAuthFixture(t, 5)
	resp := register(t, f, "Noa@Example.com")

	assert.Equal(t, "noa@example.com", resp.User.Email)
	assert.Equal(t, enums.ProfileRoleCustomer, resp.Profile.Role)
	assert.NotEmpty(t, resp.RefreshToken)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "refresh-"+claims.ID, resp.RefreshToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t, 5)
	register(t, f, "noa@example.com")

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:    "NOA@example.com",
		Password: "another-pass",
		FullName: "נועה",
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t, 5)
	register(t, f, "noa@example.com")

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "noa@example.com", Password: "nope"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	assert.Equal(t, invalidCredentialsMessage, pkgerrors.As(err).Message())

	_, err = f.svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "nope"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLoginUpgradesOutdatedPasswordHash(t *testing.T) {
	f := newAuthFixture(t, 5)
	resp := register(t, f, "noa@example.com")
	ctx := context.Background()

	userRepo := users.NewRepository(f.conn)
	before, err := userRepo.FindByID(ctx, resp.User.ID)
	require.NoError(t, err)

	stronger := config.PasswordConfig{ArgonMemoryKB: 16, ArgonTime: 2}
	limiter, err := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Tx:             db.Wrap(f.conn),
		UserRepo:       userRepo,
		ProfileRepo:    f.profiles,
		SessionManager: f.sessions,
		Limiter:        limiter,
		LoginPolicy:    ratelimit.Login(5, 15*time.Minute),
		Location:       time.UTC,
		JWTConfig:      testJWT,
		PasswordConfig: stronger,
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "noa@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	after, err := userRepo.FindByID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, before.PasswordHash, after.PasswordHash)
	assert.False(t, security.NeedsRehash(after.PasswordHash, stronger))
	require.NotNil(t, after.LastLoginAt)

	_, err = svc.Login(ctx, LoginRequest{Email: "noa@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	again, err := userRepo.FindByID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, after.PasswordHash, again.PasswordHash)
}

func TestLoginRateLimitedPerEmail(t *testing.T) {
	f := newAuthFixture(t, 2)
	register(t, f, "noa@example.com")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Login(ctx, LoginRequest{Email: "noa@example.com", Password: "bad"})
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	}
	_, err := f.svc.Login(ctx, LoginRequest{Email: "NOA@example.com", Password: "correct-horse"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRateLimit), "got %v", err)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "other@example.com", Password: "bad"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestAdminLoginRequiresStoredAdminRole(t *testing.T) {
	f := newAuthFixture(t, 10)
	resp := register(t, f, "owner@example.com")
	ctx := context.Background()
	creds := LoginRequest{Email: "owner@example.com", Password: "correct-horse"}

	_, err := f.svc.AdminLogin(ctx, creds)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	assert.Equal(t, notAdminMessage, pkgerrors.As(err).Message())

	require.NoError(t, f.profiles.SetRole(ctx, resp.User.ID, enums.ProfileRoleAdmin))
	adminResp, err := f.svc.AdminLogin(ctx, creds)
	require.NoError(t, err)

	claims, err := pkgAuth.ParseAccessToken(testJWT, adminResp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, enums.ProfileRoleAdmin, claims.Role)
}

func TestRefreshRotatesSession(t *testing.T) {
	f := newAuthFixture(t, 5)
	resp := register(t, f, "noa@example.com")
	ctx := context.Background()

	pair, err := f.svc.Refresh(ctx, RefreshRequest{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, resp.AccessToken, pair.AccessToken)

	_, err = f.svc.Refresh(ctx, RefreshRequest{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = f.svc.Refresh(ctx, RefreshRequest{AccessToken: "garbage", RefreshToken: "x"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newAuthFixture(t, 5)
	resp := register(t, f, "noa@example.com")
	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), claims.ID))
	assert.Equal(t, []string{claims.ID}, f.sessions.revoked)

	err = f.svc.Logout(context.Background(), "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}
