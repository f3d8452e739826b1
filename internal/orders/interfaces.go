package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/bakery-backend/pkg/db/models"
	"github.com/angelmondragon/bakery-backend/pkg/enums"
	"github.com/angelmondragon/bakery-backend/pkg/pagination"
	"github.com/angelmondragon/bakery-backend/pkg/ratelimit"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the orders table. List
// methods return up to LimitWithBuffer rows so callers can detect a next
// page.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	HasPendingOrder(ctx context.Context, userID uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	CancelOwned(ctx context.Context, id, userID uuid.UUID, at time.Time) (int64, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, error)
	ListAdmin(ctx context.Context, filter AdminListFilter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error)
	SetArchived(ctx context.Context, id uuid.UUID, archived bool) (*models.Order, error)
	ListActive(ctx context.Context) ([]models.Order, error)
	CountArchived(ctx context.Context) (int64, error)
}

// HistoryCache keeps the first page of a customer's order history.
// Generation is read before loading a page and handed back to Set; a page
// stored under a generation that an Invalidate has since replaced is never
// served.
type HistoryCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*OrderPage, bool, error)
	Generation(ctx context.Context, userID uuid.UUID) (string, error)
	Set(ctx context.Context, userID uuid.UUID, generation string, page OrderPage) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

type rateLimiter interface {
	Check(ctx context.Context, identifier string, policy ratelimit.Policy) (ratelimit.Result, error)
}
