package catalog

import (
	"time"

	"github.com/angelmondragon/bakery-backend/internal/catalog/editor"
	"github.com/angelmondragon/bakery-backend/pkg/db/models"
	"github.com/angelmondragon/bakery-backend/pkg/types"
	"github.com/google/uuid"
)

// CatalogDTO is the storefront view of the active catalog. Revision is 0
// when nothing has been saved yet.
type CatalogDTO struct {
	Revision   int           `json:"revision"`
	Categories types.Catalog `json:"categories"`
}

type RevisionDTO struct {
	ID         uuid.UUID     `json:"id"`
	Revision   int           `json:"revision"`
	IsActive   bool          `json:"is_active"`
	CreatedBy  *uuid.UUID    `json:"created_by,omitempty"`
	ItemCount  int           `json:"item_count"`
	Categories types.Catalog `json:"categories"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type SaveInput struct {
	ActorUserID uuid.UUID
	Categories  types.Catalog
}

// SaveRequest is the body of PUT /api/admin/catalog.
type SaveRequest struct {
	Categories types.Catalog `json:"categories" validate:"required"`
}

type EditInput struct {
	ActorUserID  uuid.UUID
	BaseRevision int
	Ops          []editor.Operation
}

// EditRequest is the body of PATCH /api/admin/catalog.
type EditRequest struct {
	BaseRevision int                `json:"base_revision"`
	Ops          []editor.Operation `json:"ops" validate:"required,min=1,dive"`
}

func fromModel(m *models.ProductCatalog) CatalogDTO {
	cats := m.CatalogData
	if cats == nil {
		cats = types.Catalog{}
	}
	return CatalogDTO{Revision: m.Revision, Categories: cats}
}

func revisionFromModel(m models.ProductCatalog) RevisionDTO {
	cats := m.CatalogData
	if cats == nil {
		cats = types.Catalog{}
	}
	return RevisionDTO{
		ID:         m.ID,
		Revision:   m.Revision,
		IsActive:   m.IsActive,
		CreatedBy:  m.CreatedBy,
		ItemCount:  cats.ItemCount(),
		Categories: cats,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
