package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/bakery-backend/pkg/db/models"
	"github.com/angelmondragon/bakery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bakery-backend/pkg/errors"
	"github.com/angelmondragon/bakery-backend/pkg/phone"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgProfileNotFound = "הפרופיל לא נמצא"
	msgUserNotFound    = "המשתמש לא נמצא"
	msgNameLength      = "השם חייב להכיל בין 2 ל-100 תווים"
	msgLoadFailed      = "שגיאה בטעינת הפרופיל"
	msgSaveFailed      = "שגיאה בשמירת הפרופיל"
)

// Service reads and edits customer profiles.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	Update(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error)
	RoleOf(ctx context.Context, userID uuid.UUID) (enums.ProfileRole, error)
	SetRole(ctx context.Context, email string, role enums.ProfileRole) error
}

type profileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	RoleOf(ctx context.Context, id uuid.UUID) (enums.ProfileRole, error)
	SetRole(ctx context.Context, id uuid.UUID, role enums.ProfileRole) error
}

type userLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type ServiceParams struct {
	Repo  profileRepository
	Users userLookup
}

type service struct {
	repo  profileRepository
	users userLookup
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("profile repository is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &service{repo: params.Repo, users: params.Users}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	profile, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapLookupErr(err, msgProfileNotFound)
	}
	return FromModel(profile), nil
}

func (s *service) Update(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error) {
	updates := map[string]any{}

	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgNameLength).
				WithDetails(map[string]any{"field": "full_name"})
		}
		updates["full_name"] = name
	}
	if input.Phone != nil {
		raw := strings.TrimSpace(*input.Phone)
		if raw == "" {
			updates["phone"] = nil
		} else {
			res := phone.Validate(raw)
			if !res.Valid {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, res.Error).
					WithDetails(map[string]any{"field": "phone"})
			}
			updates["phone"] = res.Normalized
		}
	}
	if input.Address != nil {
		updates["address"] = strings.TrimSpace(*input.Address)
	}
	if input.City != nil {
		city := strings.TrimSpace(*input.City)
		if city == "" {
			city = models.DefaultCity
		}
		updates["city"] = city
	}

	if err := s.repo.Update(ctx, userID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgProfileNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgSaveFailed)
	}
	return s.Get(ctx, userID)
}

func (s *service) RoleOf(ctx context.Context, userID uuid.UUID) (enums.ProfileRole, error) {
	role, err := s.repo.RoleOf(ctx, userID)
	if err != nil {
		return "", mapLookupErr(err, msgProfileNotFound)
	}
	return role, nil
}

func (s *service) SetRole(ctx context.Context, email string, role enums.ProfileRole) error {
	if !role.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", role)
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return mapLookupErr(err, msgUserNotFound)
	}
	if err := s.repo.SetRole(ctx, user.ID, role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgProfileNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgSaveFailed)
	}
	return nil
}

func mapLookupErr(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgLoadFailed)
}
