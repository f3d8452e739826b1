package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bakery-backend/pkg/db/models"
	"github.com/angelmondragon/bakery-backend/pkg/delivery"
	"github.com/angelmondragon/bakery-backend/pkg/enums"
	"github.com/angelmondragon/bakery-backend/pkg/pagination"
	"github.com/angelmondragon/bakery-backend/pkg/phone"
	"github.com/angelmondragon/bakery-backend/pkg/types"
)

// LineItemInput is one cart line as submitted by the storefront.
type LineItemInput struct {
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// CreateOrderRequest is the request body of POST /api/v1/orders.
type CreateOrderRequest struct {
	CustomerName string          `json:"customer_name"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	City         string          `json:"city"`
	DeliveryDate string          `json:"delivery_date"`
	Items        []LineItemInput `json:"items"`
	TotalPrice   float64         `json:"total_price"`
	Notes        string          `json:"notes"`
	// UserID is accepted for compatibility with older storefront builds and
	// never read.
	UserID string `json:"user_id,omitempty"`
}

// CreateOrderInput adds the authenticated caller to the request body. The
// owner is always the caller, whatever the body says.
type CreateOrderInput struct {
	ActorUserID uuid.UUID
	CreateOrderRequest
}

type CreateOrderResult struct {
	Success bool      `json:"success"`
	OrderID uuid.UUID `json:"order_id"`
}

type CancelOrderInput struct {
	OrderID     uuid.UUID
	ActorUserID uuid.UUID
}

type CancelOrderResult struct {
	Success bool `json:"success"`
}

// AdminListFilter narrows the admin order listing. Archived defaults to
// non-archived orders when nil.
type AdminListFilter struct {
	Status   *enums.OrderStatus
	Slot     *enums.DeliverySlot
	Archived *bool
	Params   pagination.Params
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type SetArchivedRequest struct {
	Archived *bool `json:"archived" validate:"required"`
}

// OrderDTO is the read model shared by customer and admin listings. Items are
// always in the normalized line-item shape.
type OrderDTO struct {
	ID           uuid.UUID           `json:"id"`
	UserID       uuid.UUID           `json:"user_id"`
	CustomerName string              `json:"customer_name"`
	Phone        string              `json:"phone"`
	PhoneDisplay string              `json:"phone_display"`
	Address      string              `json:"address"`
	City         string              `json:"city"`
	DeliveryDate string              `json:"delivery_date"`
	DeliverySlot *enums.DeliverySlot `json:"delivery_slot,omitempty"`
	Items        []types.LineItem    `json:"items"`
	TotalPrice   float64             `json:"total_price"`
	Status       enums.OrderStatus   `json:"status"`
	StatusLabel  string              `json:"status_label"`
	Archived     bool                `json:"archived"`
	Notes        *string             `json:"notes,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

type OrderPage = pagination.Page[OrderDTO]

func FromModel(o *models.Order) OrderDTO {
	return OrderDTO{
		ID:           o.ID,
		UserID:       o.UserID,
		CustomerName: o.CustomerName,
		Phone:        o.Phone,
		PhoneDisplay: phone.FormatForDisplay(o.Phone),
		Address:      o.Address,
		City:         o.City,
		DeliveryDate: o.DeliveryDate.Format(delivery.DateLayout),
		DeliverySlot: o.DeliverySlot,
		Items:        o.Items.Normalize(),
		TotalPrice:   o.TotalPrice.InexactFloat64(),
		Status:       o.Status,
		StatusLabel:  o.Status.Label(),
		Archived:     o.Archived,
		Notes:        o.Notes,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func pageFromModels(rows []models.Order, limit int) OrderPage {
	page := pagination.Trim(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	items := make([]OrderDTO, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, FromModel(&page.Items[i]))
	}
	return OrderPage{Items: items, NextCursor: page.NextCursor}
}
