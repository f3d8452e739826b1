package enums

import "fmt"

// OrderStatus is the lifecycle status of a customer order. The string values
// are shared with existing clients and stored rows and must not change.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"

	// Legacy values still present on old rows. Display only.
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusArchived  OrderStatus = "archived"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusCompleted,
	OrderStatusArchived,
}

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPending:   "ממתין",
	OrderStatusConfirmed: "אושר",
	OrderStatusPreparing: "בהכנה",
	OrderStatusReady:     "מוכן למשלוח",
	OrderStatusDelivered: "נמסר",
	OrderStatusCancelled: "בוטל",
	OrderStatusCompleted: "הושלם",
	OrderStatusArchived:  "בארכיון",
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus, legacy included.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsLegacy reports whether the status only survives on historical rows.
func (s OrderStatus) IsLegacy() bool {
	return s == OrderStatusCompleted || s == OrderStatusArchived
}

// Assignable reports whether an admin may move an order into this status.
func (s OrderStatus) Assignable() bool {
	return s.IsValid() && !s.IsLegacy()
}

// Cancellable reports whether the owning customer may still cancel.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// Label returns the storefront display label.
func (s OrderStatus) Label() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// CancellableOrderStatuses lists statuses from which a customer may cancel.
func CancellableOrderStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusPending, OrderStatusConfirmed}
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
