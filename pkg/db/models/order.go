package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bakery-backend/pkg/enums"
	"github.com/angelmondragon/bakery-backend/pkg/types"
)

// Order is a customer delivery order. DeliveryDate carries a calendar date
// at UTC midnight.
type Order struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	CustomerName string              `gorm:"column:customer_name;not null"`
	Phone        string              `gorm:"column:phone;not null"`
	Address      string              `gorm:"column:address;not null;default:''"`
	City         string              `gorm:"column:city;not null;default:''"`
	DeliveryDate time.Time           `gorm:"column:delivery_date;type:date;not null"`
	DeliverySlot *enums.DeliverySlot `gorm:"column:delivery_slot;type:text"`
	Items        types.StoredItems   `gorm:"column:items;type:jsonb;not null"`
	TotalPrice   decimal.Decimal     `gorm:"column:total_price;type:numeric(10,2);not null"`
	Status       enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Archived     bool                `gorm:"column:archived;not null;default:false"`
	Notes        *string             `gorm:"column:notes"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
