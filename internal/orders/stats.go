package orders

import (
	"time"

	"github.com/angelmondragon/bakery-backend/pkg/db/models"
	"github.com/angelmondragon/bakery-backend/pkg/delivery"
	"github.com/angelmondragon/bakery-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Stats feeds the admin dashboard. Everything except Archived is computed
// over non-archived orders.
type Stats struct {
	Total                     int                `json:"total"`
	Pending                   int                `json:"pending"`
	Confirmed                 int                `json:"confirmed"`
	Delivered                 int                `json:"delivered"`
	Archived                  int64              `json:"archived"`
	TuesdayOrders             int                `json:"tuesday_orders"`
	FridayOrders              int                `json:"friday_orders"`
	NextDeliverySlot          enums.DeliverySlot `json:"next_delivery_slot"`
	NextDeliveryDate          string             `json:"next_delivery_date"`
	NextDelivery              int                `json:"next_delivery"`
	NextDeliveryPending       int                `json:"next_delivery_pending"`
	NextDeliveryCancelled     int                `json:"next_delivery_cancelled"`
	TotalIncome               decimal.Decimal    `json:"total_income"`
	NextDeliveryIncome        decimal.Decimal    `json:"next_delivery_income"`
	NextDeliveryPendingIncome decimal.Decimal    `json:"next_delivery_pending_income"`
}

type upcoming struct {
	slot enums.DeliverySlot
	date time.Time
}

// nextDelivery picks the nearest delivery day strictly after today.
func nextDelivery(cal *delivery.Calculator) upcoming {
	var best upcoming
	for _, slot := range enums.DeliverySlots() {
		d := cal.NextOccurrence(slot.Weekday())
		if best.date.IsZero() || d.Before(best.date) {
			best = upcoming{slot: slot, date: d}
		}
	}
	return best
}

// ComputeStats aggregates active orders. Income excludes cancelled orders;
// next-delivery figures cover orders whose delivery date is next.date.
func ComputeStats(active []models.Order, archivedCount int64, next upcoming) Stats {
	nextDay := calendarDate(next.date)
	stats := Stats{
		Archived:                  archivedCount,
		NextDeliverySlot:          next.slot,
		NextDeliveryDate:          nextDay.Format(delivery.DateLayout),
		TotalIncome:               decimal.Zero,
		NextDeliveryIncome:        decimal.Zero,
		NextDeliveryPendingIncome: decimal.Zero,
	}

	for _, o := range active {
		stats.Total++
		switch o.Status {
		case enums.OrderStatusPending:
			stats.Pending++
		case enums.OrderStatusConfirmed:
			stats.Confirmed++
		case enums.OrderStatusDelivered:
			stats.Delivered++
		}
		if o.DeliverySlot != nil {
			switch *o.DeliverySlot {
			case enums.DeliverySlotTuesday:
				stats.TuesdayOrders++
			case enums.DeliverySlotFriday:
				stats.FridayOrders++
			}
		}
		if o.Status != enums.OrderStatusCancelled {
			stats.TotalIncome = stats.TotalIncome.Add(o.TotalPrice)
		}

		if !calendarDate(o.DeliveryDate).Equal(nextDay) {
			continue
		}
		stats.NextDelivery++
		switch o.Status {
		case enums.OrderStatusPending:
			stats.NextDeliveryPending++
			stats.NextDeliveryPendingIncome = stats.NextDeliveryPendingIncome.Add(o.TotalPrice)
		case enums.OrderStatusCancelled:
			stats.NextDeliveryCancelled++
		}
		if o.Status != enums.OrderStatusCancelled {
			stats.NextDeliveryIncome = stats.NextDeliveryIncome.Add(o.TotalPrice)
		}
	}
	return stats
}
