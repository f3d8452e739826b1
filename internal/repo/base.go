// Package repo holds the gorm plumbing shared by the domain repositories.
package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is embedded by repositories that need a context-bound handle.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx. A nil ctx yields the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// UpdateByID applies updates to the row of model's table keyed by id and
// reports gorm.ErrRecordNotFound when nothing matched. An empty update set
// is a no-op.
func (b Base) UpdateByID(ctx context.Context, model any, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := b.DB(ctx).Model(model).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID loads a single T by primary key.
func FindByID[T any](ctx context.Context, b Base, id uuid.UUID) (*T, error) {
	var row T
	if err := b.DB(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
