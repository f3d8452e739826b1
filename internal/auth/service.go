package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/bakery-backend/internal/profiles"
	"github.com/angelmondragon/bakery-backend/internal/users"
	pkgAuth "github.com/angelmondragon/bakery-backend/pkg/auth"
	"github.com/angelmondragon/bakery-backend/pkg/auth/session"
	"github.com/angelmondragon/bakery-backend/pkg/config"
	"github.com/angelmondragon/bakery-backend/pkg/db/models"
	"github.com/angelmondragon/bakery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bakery-backend/pkg/errors"
	"github.com/angelmondragon/bakery-backend/pkg/ratelimit"
	"github.com/angelmondragon/bakery-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	invalidCredentialsMessage = "שגיאה בהתחברות. אנא בדוק את הפרטים ונסה שוב."
	notAdminMessage           = "אין לך הרשאות גישה למערכת הניהול"
	sessionExpiredMessage     = "פג תוקף ההתחברות. יש להתחבר מחדש"
	emailTakenMessage         = "כתובת האימייל כבר רשומה במערכת"
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	AdminLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time, rehashed string) error
}

type profileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

type sessionManager interface {
	Generate(ctx context.Context, userID uuid.UUID, accessID string) (string, error)
	Rotate(ctx context.Context, userID uuid.UUID, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type rateLimiter interface {
	Check(ctx context.Context, identifier string, policy ratelimit.Policy) (ratelimit.Result, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Tx             txRunner
	UserRepo       userRepository
	ProfileRepo    profileRepository
	SessionManager sessionManager
	Limiter        rateLimiter
	LoginPolicy    ratelimit.Policy
	Location       *time.Location
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Now            func() time.Time
}

type service struct {
	tx          txRunner
	users       userRepository
	profiles    profileRepository
	session     sessionManager
	limiter     rateLimiter
	loginPolicy ratelimit.Policy
	loc         *time.Location
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.ProfileRepo == nil {
		return nil, fmt.Errorf("profile repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Limiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		tx:          params.Tx,
		users:       params.UserRepo,
		profiles:    params.ProfileRepo,
		session:     params.SessionManager,
		limiter:     params.Limiter,
		loginPolicy: params.LoginPolicy,
		loc:         params.Location,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		now:         now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, profile, err := s.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user, profile)
}

// AdminLogin authenticates and then requires the stored profile role to be
// admin. The role is never taken from the request.
func (s *service) AdminLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, profile, err := s.authenticate(ctx, req)
	if err != nil {
		return nil, err
	}
	if !profile.Role.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, notAdminMessage)
	}
	return s.issue(ctx, user, profile)
}

func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, sessionExpiredMessage)
	}
	newAccessID, newRefresh, err := s.session.Rotate(ctx, claims.UserID, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, sessionExpiredMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	role := enums.ProfileRoleCustomer
	if profile, err := s.profiles.FindByID(ctx, claims.UserID); err == nil {
		role = profile.Role
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}

	access, err := s.mint(claims.UserID, role, newAccessID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, sessionExpiredMessage)
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) authenticate(ctx context.Context, req LoginRequest) (*models.User, *models.Profile, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	res, err := s.limiter.Check(ctx, email, s.loginPolicy)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit check")
	}
	if !res.Allowed {
		return nil, nil, ratelimit.DeniedError(res, s.loc)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	valid, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	profile, err := s.profiles.FindByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}

	// Hashes minted under older Argon2 costs are upgraded while the
	// plaintext is at hand.
	var rehashed string
	if security.NeedsRehash(user.PasswordHash, s.passwordCfg) {
		rehashed, err = security.HashPassword(req.Password, s.passwordCfg)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rehash password")
		}
	}

	now := s.now().UTC()
	if err := s.users.RecordLogin(ctx, user.ID, now, rehashed); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record login")
	}
	user.LastLoginAt = &now
	if rehashed != "" {
		user.PasswordHash = rehashed
	}
	return user, profile, nil
}

func (s *service) issue(ctx context.Context, user *models.User, profile *models.Profile) (*LoginResponse, error) {
	accessID := session.NewAccessID()
	access, err := s.mint(user.ID, profile.Role, accessID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.session.Generate(ctx, user.ID, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return &LoginResponse{
		TokenPair: TokenPair{AccessToken: access, RefreshToken: refresh},
		User:      users.FromModel(user),
		Profile:   profiles.FromModel(profile),
	}, nil
}

func (s *service) mint(userID uuid.UUID, role enums.ProfileRole, accessID string) (string, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   role,
		JTI:    accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}
