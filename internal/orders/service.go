package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/bakery-backend/pkg/db"
	"github.com/angelmondragon/bakery-backend/pkg/db/models"
	"github.com/angelmondragon/bakery-backend/pkg/delivery"
	"github.com/angelmondragon/bakery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bakery-backend/pkg/errors"
	"github.com/angelmondragon/bakery-backend/pkg/logger"
	"github.com/angelmondragon/bakery-backend/pkg/metrics"
	"github.com/angelmondragon/bakery-backend/pkg/pagination"
	"github.com/angelmondragon/bakery-backend/pkg/phone"
	"github.com/angelmondragon/bakery-backend/pkg/ratelimit"
	"github.com/angelmondragon/bakery-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	msgLoginRequired     = "יש להתחבר כדי לבצע הזמנה"
	msgMissingFields     = "יש למלא את כל השדות הנדרשים"
	msgNameLength        = "השם חייב להכיל בין 2 ל-100 תווים"
	msgInvalidDate       = "תאריך המשלוח אינו תקין"
	msgPastDate          = "לא ניתן לבחור תאריך משלוח שעבר"
	msgEmptyCart         = "העגלה ריקה"
	msgInvalidItem       = "פריט לא תקין בעגלה"
	msgTotalMismatch     = "הסכום הכולל אינו תואם לפריטים"
	msgDuplicatePending  = "יש לך כבר הזמנה ממתינה. אנא המתן לאישור ההזמנה הקיימת או בטל אותה לפני ביצוע הזמנה חדשה. לצפייה בהזמנות שלך לחץ על 'ההזמנות שלי'"
	msgPendingCheckError = "אירעה שגיאה בבדיקת הזמנות קיימות"
	msgSubmitFailed      = "שגיאה בשליחת ההזמנה. אנא נסה שוב"

	msgCancelLogin     = "יש להתחבר כדי לבטל הזמנה"
	msgOrderNotFound   = "ההזמנה לא נמצאה"
	msgCancelForbidden = "אין לך הרשאה לבטל הזמנה זו"
	msgCancelStatus    = "לא ניתן לבטל הזמנה בסטטוס זה"
	msgCancelFailed    = "שגיאה בביטול ההזמנה"

	msgHistoryLogin  = "יש להתחבר כדי לצפות בהזמנות"
	msgHistoryFailed = "שגיאה בטעינת ההזמנות"
	msgBadCursor     = "פרמטר עימוד לא תקין"

	pendingOrderIndex = "idx_orders_one_pending_per_user"
	loginRedirect     = "/login?returnTo=/"
	ordersURL         = "/orders"
)

var (
	// ErrInvalidCursor marks a malformed pagination cursor.
	ErrInvalidCursor = errors.New("invalid cursor")

	totalTolerance = decimal.RequireFromString("0.01")
)

// Service covers the customer-facing order operations.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	CancelOrder(ctx context.Context, input CancelOrderInput) (*CancelOrderResult, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderPage, error)
}

type ServiceParams struct {
	Repo        Repository
	Limiter     rateLimiter
	OrderPolicy ratelimit.Policy
	Calendar    *delivery.Calculator
	Cache       HistoryCache
	Metrics     *metrics.OrderMetrics
	Logger      *logger.Logger
	Now         func() time.Time
}

type service struct {
	repo     Repository
	limiter  rateLimiter
	policy   ratelimit.Policy
	calendar *delivery.Calculator
	cache    HistoryCache
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Limiter == nil {
		return nil, fmt.Errorf("rate limiter required")
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
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		limiter:  params.Limiter,
		policy:   params.OrderPolicy,
		calendar: params.Calendar,
		cache:    cache,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      now,
	}, nil
}

// CreateOrder validates and stores a delivery order for the caller. Checks
// run in a fixed order and the first failure is returned.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	ctx = s.logg.WithAction(ctx, "order.create")

	if input.ActorUserID == uuid.Nil {
		s.metrics.Submitted(metrics.ResultInvalid)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgLoginRequired).
			WithDetails(map[string]any{"redirect": loginRedirect})
	}
	ctx = s.logg.WithUserID(ctx, input.ActorUserID.String())

	res, err := s.limiter.Check(ctx, input.ActorUserID.String(), s.policy)
	if err != nil {
		s.metrics.Submitted(metrics.ResultFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgSubmitFailed)
	}
	if !res.Allowed {
		s.metrics.Submitted(metrics.ResultRateLimited)
		s.logg.Warn(ctx, "order.create.rate_limited")
		return nil, ratelimit.DeniedError(res, s.calendar.Location())
	}

	order, err := s.buildOrder(input)
	if err != nil {
		s.metrics.Submitted(metrics.ResultInvalid)
		s.logg.Info(s.logg.WithField(ctx, "reason", pkgerrors.As(err).Message()), "order.create.rejected")
		return nil, err
	}

	pending, err := s.repo.HasPendingOrder(ctx, input.ActorUserID)
	if err != nil {
		s.metrics.Submitted(metrics.ResultFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgPendingCheckError)
	}
	if pending {
		s.metrics.Submitted(metrics.ResultDuplicate)
		return nil, duplicatePendingError()
	}

	if err := s.repo.Create(ctx, order); err != nil {
		if db.IsUniqueViolation(err, pendingOrderIndex) {
			s.metrics.Submitted(metrics.ResultDuplicate)
			return nil, duplicatePendingError()
		}
		s.metrics.Submitted(metrics.ResultFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgSubmitFailed)
	}

	s.invalidate(ctx, input.ActorUserID)
	s.metrics.Submitted(metrics.ResultAccepted)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":      order.ID.String(),
		"delivery_date": order.DeliveryDate.Format(delivery.DateLayout),
		"total_price":   order.TotalPrice.StringFixed(2),
	}), "order.create.accepted")

	return &CreateOrderResult{Success: true, OrderID: order.ID}, nil
}

// buildOrder runs the field validations and assembles the row to insert.
func (s *service) buildOrder(input CreateOrderInput) (*models.Order, error) {
	name := strings.TrimSpace(input.CustomerName)
	rawPhone := strings.TrimSpace(input.Phone)
	rawDate := strings.TrimSpace(input.DeliveryDate)

	var missing []string
	if name == "" {
		missing = append(missing, "customer_name")
	}
	if rawPhone == "" {
		missing = append(missing, "phone")
	}
	if rawDate == "" {
		missing = append(missing, "delivery_date")
	}
	if len(missing) > 0 {
		return nil, validationError(msgMissingFields, map[string]any{"missing": missing})
	}

	ph := phone.Validate(rawPhone)
	if !ph.Valid {
		return nil, validationError(ph.Error, map[string]any{"field": "phone"})
	}

	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		return nil, validationError(msgNameLength, map[string]any{"field": "customer_name"})
	}

	date, err := s.calendar.Parse(rawDate)
	if err != nil {
		return nil, validationError(msgInvalidDate, map[string]any{"field": "delivery_date"})
	}
	if s.calendar.IsPast(date) {
		return nil, validationError(msgPastDate, map[string]any{"field": "delivery_date"})
	}

	if len(input.Items) == 0 {
		return nil, validationError(msgEmptyCart, nil)
	}
	lines := make([]types.LineItem, 0, len(input.Items))
	sum := decimal.Zero
	for i, item := range input.Items {
		itemName := strings.TrimSpace(item.Name)
		if itemName == "" || item.Quantity <= 0 || item.Price < 0 {
			return nil, validationError(msgInvalidItem, map[string]any{"index": i})
		}
		sum = sum.Add(decimal.NewFromInt(int64(item.Quantity)).Mul(decimal.NewFromFloat(item.Price)))
		lines = append(lines, types.LineItem{
			ProductID: item.ProductID,
			Name:      itemName,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}

	total := decimal.NewFromFloat(input.TotalPrice)
	if sum.Sub(total).Abs().GreaterThan(totalTolerance) {
		return nil, validationError(msgTotalMismatch, map[string]any{"expected": sum.StringFixed(2)})
	}

	city := strings.TrimSpace(input.City)
	if city == "" {
		city = models.DefaultCity
	}
	var notes *string
	if n := strings.TrimSpace(input.Notes); n != "" {
		notes = &n
	}
	var slot *enums.DeliverySlot
	if sl, ok := s.calendar.SlotForDate(date); ok {
		slot = &sl
	}

	return &models.Order{
		ID:           uuid.New(),
		UserID:       input.ActorUserID,
		CustomerName: name,
		Phone:        ph.Normalized,
		Address:      strings.TrimSpace(input.Address),
		City:         city,
		DeliveryDate: calendarDate(date),
		DeliverySlot: slot,
		Items:        types.NewLineItems(lines),
		TotalPrice:   total.Round(2),
		Status:       enums.OrderStatusPending,
		Archived:     false,
		Notes:        notes,
	}, nil
}

func (s *service) CancelOrder(ctx context.Context, input CancelOrderInput) (*CancelOrderResult, error) {
	ctx = s.logg.WithAction(ctx, "order.cancel")

	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgCancelLogin).
			WithDetails(map[string]any{"redirect": loginRedirect})
	}
	ctx = s.logg.WithUserID(ctx, input.ActorUserID.String())

	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.Cancelled("not_found")
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
		}
		s.metrics.Cancelled(metrics.ResultFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgCancelFailed)
	}
	if order.UserID != input.ActorUserID {
		s.metrics.Cancelled("forbidden")
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgCancelForbidden)
	}
	if !order.Status.Cancellable() {
		s.metrics.Cancelled("invalid_status")
		return nil, invalidStatusError(order.Status)
	}

	affected, err := s.repo.CancelOwned(ctx, order.ID, input.ActorUserID, s.now().UTC())
	if err != nil {
		s.metrics.Cancelled(metrics.ResultFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgCancelFailed)
	}
	if affected == 0 {
		s.metrics.Cancelled("invalid_status")
		return nil, invalidStatusError(order.Status)
	}

	s.invalidate(ctx, input.ActorUserID)
	s.metrics.Cancelled(metrics.ResultAccepted)
	s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID.String()), "order.cancel.accepted")
	return &CancelOrderResult{Success: true}, nil
}

// ListForUser returns the caller's orders newest first. The default-sized
// first page is served from the history cache when possible.
func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderPage, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgHistoryLogin).
			WithDetails(map[string]any{"redirect": "/login?returnTo=/orders"})
	}

	cacheable := params.IsFirst() && pagination.NormalizeLimit(params.Limit) == pagination.DefaultLimit
	var generation string
	if cacheable {
		page, ok, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "order.history.cache_read_failed")
		} else if ok {
			return page, nil
		}
		// Without a generation the loaded page cannot be told apart from a
		// stale one, so it is not stored.
		if generation, err = s.cache.Generation(ctx, userID); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "order.history.cache_read_failed")
			cacheable = false
		}
	}

	rows, err := s.repo.ListForUser(ctx, userID, params)
	if err != nil {
		if errors.Is(err, ErrInvalidCursor) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgBadCursor)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgHistoryFailed)
	}
	page := pageFromModels(rows, params.Limit)

	if cacheable {
		if err := s.cache.Set(ctx, userID, generation, page); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "order.history.cache_write_failed")
		}
	}
	return &page, nil
}

func (s *service) invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "order.history.cache_invalidate_failed")
	}
}

func validationError(msg string, details map[string]any) error {
	err := pkgerrors.New(pkgerrors.CodeValidation, msg)
	if details != nil {
		err = err.WithDetails(details)
	}
	return err
}

func duplicatePendingError() error {
	return pkgerrors.New(pkgerrors.CodeDuplicatePending, msgDuplicatePending).
		WithDetails(map[string]any{"orders_url": ordersURL})
}

func invalidStatusError(status enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, msgCancelStatus).
		WithDetails(map[string]any{"status": status, "status_label": status.Label()})
}

// calendarDate keeps the local calendar day of t at UTC midnight, the form
// stored in the date column.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
