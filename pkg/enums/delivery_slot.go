package enums

import (
	"fmt"
	"time"
)

// DeliverySlot names one of the weekly delivery runs.
type DeliverySlot string

const (
	DeliverySlotTuesday DeliverySlot = "tuesday"
	DeliverySlotFriday  DeliverySlot = "friday"
)

var validDeliverySlots = []DeliverySlot{
	DeliverySlotTuesday,
	DeliverySlotFriday,
}

// String implements fmt.Stringer.
func (d DeliverySlot) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliverySlot.
func (d DeliverySlot) IsValid() bool {
	for _, candidate := range validDeliverySlots {
		if candidate == d {
			return true
		}
	}
	return false
}

// Weekday is the day the bakery delivers for this slot.
func (d DeliverySlot) Weekday() time.Weekday {
	if d == DeliverySlotFriday {
		return time.Friday
	}
	return time.Tuesday
}

// Cutoff is the last weekday on which orders are accepted for this slot.
func (d DeliverySlot) Cutoff() time.Weekday {
	if d == DeliverySlotFriday {
		return time.Wednesday
	}
	return time.Sunday
}

// DeliverySlots returns the offered slots in display order.
func DeliverySlots() []DeliverySlot {
	out := make([]DeliverySlot, len(validDeliverySlots))
	copy(out, validDeliverySlots)
	return out
}

// DeliverySlotForWeekday maps a delivery weekday back to its slot.
func DeliverySlotForWeekday(day time.Weekday) (DeliverySlot, bool) {
	for _, candidate := range validDeliverySlots {
		if candidate.Weekday() == day {
			return candidate, true
		}
	}
	return "", false
}

// ParseDeliverySlot converts raw input into a DeliverySlot.
func ParseDeliverySlot(value string) (DeliverySlot, error) {
	for _, candidate := range validDeliverySlots {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery slot %q", value)
}
