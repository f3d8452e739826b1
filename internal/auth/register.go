package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/bakery-backend/internal/profiles"
	"github.com/angelmondragon/bakery-backend/internal/users"
	"github.com/angelmondragon/bakery-backend/pkg/db"
	"github.com/angelmondragon/bakery-backend/pkg/db/models"
	"github.com/angelmondragon/bakery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bakery-backend/pkg/errors"
	"github.com/angelmondragon/bakery-backend/pkg/security"
	"gorm.io/gorm"
)

// Register creates the user and a customer profile in one transaction and
// signs the new account in.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "יש למלא את כל השדות הנדרשים").
			WithDetails(map[string]any{"missing": []string{"email"}})
	}
	fullName := strings.TrimSpace(req.FullName)

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "סיסמה לא תקינה")
	}

	var (
		user    *models.User
		profile *models.Profile
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		profileRepo := profiles.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, emailTakenMessage)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
		}

		created, err := userRepo.Create(ctx, users.CreateUserDTO{Email: email, PasswordHash: passwordHash})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, emailTakenMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}

		p := &models.Profile{ID: created.ID, FullName: fullName, Role: enums.ProfileRoleCustomer}
		if err := profileRepo.Create(ctx, p); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create profile")
		}
		user, profile = created, p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user, profile)
}
