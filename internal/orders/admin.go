package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/bakery-backend/pkg/db"
	"github.com/angelmondragon/bakery-backend/pkg/delivery"
	"github.com/angelmondragon/bakery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bakery-backend/pkg/errors"
	"github.com/angelmondragon/bakery-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgInvalidStatus    = "סטטוס לא תקין"
	msgStatusNotAllowed = "לא ניתן לעדכן הזמנה לסטטוס זה"
	msgUpdateFailed     = "שגיאה בעדכון ההזמנה"
	msgAdminListFailed  = "שגיאה בטעינת ההזמנות"
	msgStatsFailed      = "שגיאה בחישוב הנתונים"
	msgCustomerPending  = "ללקוח כבר קיימת הזמנה ממתינה"
)

// AdminService is the privileged order surface. Callers must have passed
// the admin role check before reaching it.
type AdminService interface {
	ListOrders(ctx context.Context, filter AdminListFilter) (*OrderPage, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*OrderDTO, error)
	SetArchived(ctx context.Context, orderID uuid.UUID, archived bool) (*OrderDTO, error)
	Stats(ctx context.Context) (*Stats, error)
}

type AdminServiceParams struct {
	Repo     Repository
	Calendar *delivery.Calculator
	Cache    HistoryCache
	Logger   *logger.Logger
}

type adminService struct {
	repo     Repository
	calendar *delivery.Calculator
	cache    HistoryCache
	logg     *logger.Logger
}

func NewAdminService(params AdminServiceParams) (AdminService, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Calendar == nil {
		return nil, fmt.Errorf("delivery calendar required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	cache := params.Cache
	if cache == nil {
		cache = NopHistoryCache{}
	}
	return &adminService{
		repo:     params.Repo,
		calendar: params.Calendar,
		cache:    cache,
		logg:     params.Logger,
	}, nil
}

func (s *adminService) ListOrders(ctx context.Context, filter AdminListFilter) (*OrderPage, error) {
	rows, err := s.repo.ListAdmin(ctx, filter)
	if err != nil {
		if errors.Is(err, ErrInvalidCursor) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgBadCursor)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgAdminListFailed)
	}
	page := pageFromModels(rows, filter.Params.Limit)
	return &page, nil
}

// UpdateStatus moves an order to any canonical status. Legacy statuses are
// readable but never assignable.
func (s *adminService) UpdateStatus(ctx context.Context, orderID uuid.UUID, raw string) (*OrderDTO, error) {
	ctx = s.logg.WithAction(ctx, "order.admin.status")

	status, err := enums.ParseOrderStatus(strings.TrimSpace(raw))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidStatus).
			WithDetails(map[string]any{"status": raw})
	}
	if !status.Assignable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, msgStatusNotAllowed).
			WithDetails(map[string]any{"status": status})
	}

	order, err := s.repo.UpdateStatus(ctx, orderID, status)
	if err != nil {
		// Only the one-pending-per-customer index can reject a status write.
		if status == enums.OrderStatusPending && db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicatePending, msgCustomerPending).
				WithDetails(map[string]any{"order_id": orderID.String()})
		}
		return nil, mapAdminWriteErr(err)
	}
	s.afterWrite(ctx, order.UserID)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"status":   status.String(),
	}), "order.admin.status_updated")

	dto := FromModel(order)
	return &dto, nil
}

func (s *adminService) SetArchived(ctx context.Context, orderID uuid.UUID, archived bool) (*OrderDTO, error) {
	ctx = s.logg.WithAction(ctx, "order.admin.archive")

	order, err := s.repo.SetArchived(ctx, orderID, archived)
	if err != nil {
		return nil, mapAdminWriteErr(err)
	}
	s.afterWrite(ctx, order.UserID)

	dto := FromModel(order)
	return &dto, nil
}

func (s *adminService) Stats(ctx context.Context) (*Stats, error) {
	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgStatsFailed)
	}
	archived, err := s.repo.CountArchived(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgStatsFailed)
	}
	stats := ComputeStats(active, archived, nextDelivery(s.calendar))
	return &stats, nil
}

func (s *adminService) afterWrite(ctx context.Context, ownerID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "order.history.cache_invalidate_failed")
	}
}

func mapAdminWriteErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgUpdateFailed)
}
