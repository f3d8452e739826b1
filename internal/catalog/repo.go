package catalog

import (
	"context"

	"github.com/angelmondragon/bakery-backend/internal/repo"
	"github.com/angelmondragon/bakery-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists catalog revisions. Rows are never updated except for
// the is_active flag.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Active(ctx context.Context) (*models.ProductCatalog, error)
	List(ctx context.Context) ([]models.ProductCatalog, error)
	MaxRevision(ctx context.Context) (int, error)
	DeactivateAll(ctx context.Context) error
	Create(ctx context.Context, rev *models.ProductCatalog) error
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// Active returns gorm.ErrRecordNotFound when no revision is active.
func (r *repository) Active(ctx context.Context) (*models.ProductCatalog, error) {
	var rev models.ProductCatalog
	err := r.DB(ctx).
		Where("is_active = ?", true).
		Order("revision DESC").
		First(&rev).Error
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *repository) List(ctx context.Context) ([]models.ProductCatalog, error) {
	var revs []models.ProductCatalog
	if err := r.DB(ctx).Order("revision DESC").Find(&revs).Error; err != nil {
		return nil, err
	}
	return revs, nil
}

func (r *repository) MaxRevision(ctx context.Context) (int, error) {
	var max int
	err := r.DB(ctx).
		Model(&models.ProductCatalog{}).
		Select("COALESCE(MAX(revision), 0)").
		Scan(&max).Error
	return max, err
}

func (r *repository) DeactivateAll(ctx context.Context) error {
	return r.DB(ctx).
		Model(&models.ProductCatalog{}).
		Where("is_active = ?", true).
		Update("is_active", false).Error
}

func (r *repository) Create(ctx context.Context, rev *models.ProductCatalog) error {
	if rev.ID == uuid.Nil {
		rev.ID = uuid.New()
	}
	return r.DB(ctx).Create(rev).Error
}
