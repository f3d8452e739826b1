package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bakery-backend/pkg/types"
)

// ProductCatalog is one immutable catalog revision.
type ProductCatalog struct {
	ID          uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Revision    int           `gorm:"column:revision;not null;uniqueIndex"`
	CatalogData types.Catalog `gorm:"column:catalog_data;type:jsonb;not null"`
	IsActive    bool          `gorm:"column:is_active;not null;default:false"`
	CreatedBy   *uuid.UUID    `gorm:"column:created_by;type:uuid"`
	CreatedAt   time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProductCatalog) TableName() string {
	return "product_catalog"
}
