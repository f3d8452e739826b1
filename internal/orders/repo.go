package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/bakery-backend/internal/repo"
	"github.com/angelmondragon/bakery-backend/pkg/db/models"
	"github.com/angelmondragon/bakery-backend/pkg/enums"
	"github.com/angelmondragon/bakery-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.DB(ctx).Create(order).Error
}

func (r *repository) HasPendingOrder(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Order{}).
		Where("user_id = ? AND status = ?", userID, enums.OrderStatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return repo.FindByID[models.Order](ctx, r.Base, id)
}

// CancelOwned flips a cancellable order owned by userID to cancelled in a
// single statement. Zero rows means the order was not cancellable at write
// time.
func (r *repository) CancelOwned(ctx context.Context, id, userID uuid.UUID, at time.Time) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND user_id = ? AND status IN ?", id, userID, enums.CancellableOrderStatuses()).
		Updates(map[string]any{
			"status":     enums.OrderStatusCancelled,
			"updated_at": at,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	query := r.DB(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	query, err := applyCursor(query, params)
	if err != nil {
		return nil, err
	}
	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListAdmin(ctx context.Context, filter AdminListFilter) ([]models.Order, error) {
	archived := false
	if filter.Archived != nil {
		archived = *filter.Archived
	}
	query := r.DB(ctx).Model(&models.Order{}).Where("archived = ?", archived)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Slot != nil {
		query = query.Where("delivery_slot = ?", *filter.Slot)
	}
	query, err := applyCursor(query, filter.Params)
	if err != nil {
		return nil, err
	}
	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	return r.updateAndReload(ctx, id, map[string]any{"status": status})
}

func (r *repository) SetArchived(ctx context.Context, id uuid.UUID, archived bool) (*models.Order, error) {
	return r.updateAndReload(ctx, id, map[string]any{"archived": archived})
}

func (r *repository) ListActive(ctx context.Context) ([]models.Order, error) {
	var rows []models.Order
	err := r.DB(ctx).
		Where("archived = ?", false).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountArchived(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Order{}).Where("archived = ?", true).Count(&count).Error
	return count, err
}

func (r *repository) updateAndReload(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Order, error) {
	if err := r.UpdateByID(ctx, &models.Order{}, id, updates); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// applyCursor orders newest first and applies keyset pagination on
// (created_at, id).
func applyCursor(query *gorm.DB, params pagination.Params) (*gorm.DB, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if cursor != nil {
		query = query.Where(
			"((created_at < ?) OR (created_at = ? AND id < ?))",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	return query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)), nil
}
