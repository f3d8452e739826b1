package profiles

import (
	"context"

	"github.com/angelmondragon/bakery-backend/internal/repo"
	"github.com/angelmondragon/bakery-backend/pkg/db/models"
	"github.com/angelmondragon/bakery-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists profiles. Roles are only ever read from here.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

func (r *Repository) Create(ctx context.Context, profile *models.Profile) error {
	if profile.City == "" {
		profile.City = models.DefaultCity
	}
	if profile.Role == "" {
		profile.Role = enums.ProfileRoleCustomer
	}
	return r.DB(ctx).Create(profile).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return repo.FindByID[models.Profile](ctx, r.Base, id)
}

// Update applies column updates and returns gorm.ErrRecordNotFound when no
// profile matched.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.UpdateByID(ctx, &models.Profile{}, id, updates)
}

func (r *Repository) RoleOf(ctx context.Context, id uuid.UUID) (enums.ProfileRole, error) {
	var profile models.Profile
	if err := r.DB(ctx).Select("role").First(&profile, "id = ?", id).Error; err != nil {
		return "", err
	}
	return profile.Role, nil
}

func (r *Repository) SetRole(ctx context.Context, id uuid.UUID, role enums.ProfileRole) error {
	return r.Update(ctx, id, map[string]any{"role": role})
}
