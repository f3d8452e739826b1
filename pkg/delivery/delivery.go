// Package delivery computes the weekly delivery windows offered to
// customers. Every call reads the clock again; results are never cached.
package delivery

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/bakery-backend/pkg/enums"
)

const (
	DateLayout = "2006-01-02"

	// deliveryLag is the number of days between the order cutoff and the
	// delivery itself.
	deliveryLag = 2
)

var ErrInvalidDate = errors.New("invalid delivery date")

var weekdayNames = map[time.Weekday]string{
	time.Sunday:    "יום ראשון",
	time.Monday:    "יום שני",
	time.Tuesday:   "יום שלישי",
	time.Wednesday: "יום רביעי",
	time.Thursday:  "יום חמישי",
	time.Friday:    "יום שישי",
	time.Saturday:  "שבת",
}

// Window is the next cutoff/delivery pair for a slot.
type Window struct {
	CutoffDate   time.Time `json:"cutoff_date"`
	DeliveryDate time.Time `json:"delivery_date"`
	// DaysLeft counts whole days from today until the cutoff. Zero means the
	// cutoff is today.
	DaysLeft int `json:"days_left"`
}

// Option is a delivery slot as presented in the storefront.
type Option struct {
	Slot          enums.DeliverySlot `json:"slot"`
	Label         string             `json:"label"`
	DeadlineLabel string             `json:"deadline_label"`
	DeliveryDate  string             `json:"delivery_date"`
	CutoffDate    string             `json:"cutoff_date"`
	DaysLeft      int                `json:"days_left"`
	Disabled      bool               `json:"disabled"`
}

type Calculator struct {
	loc *time.Location
	now func() time.Time
}

// NewCalculator builds a calculator for loc. A nil clock uses time.Now.
func NewCalculator(loc *time.Location, now func() time.Time) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Calculator{loc: loc, now: now}
}

// Location returns the calculator's timezone.
func (c *Calculator) Location() *time.Location {
	return c.loc
}

// Today returns local midnight of the current day.
func (c *Calculator) Today() time.Time {
	return midnight(c.now().In(c.loc))
}

// Next returns the closest cutoff on or after today for the given cutoff
// weekday, and the delivery date two days later. The delivery date always
// follows from the cutoff, so target only names the run.
func (c *Calculator) Next(target, cutoff time.Weekday) Window {
	today := c.Today()
	days := int(cutoff) - int(today.Weekday())
	if days < 0 {
		days += 7
	}
	cutoffDate := today.AddDate(0, 0, days)
	return Window{
		CutoffDate:   cutoffDate,
		DeliveryDate: cutoffDate.AddDate(0, 0, deliveryLag),
		DaysLeft:     daysBetween(today, cutoffDate),
	}
}

// NextForSlot is Next for one of the offered slots.
func (c *Calculator) NextForSlot(slot enums.DeliverySlot) Window {
	return c.Next(slot.Weekday(), slot.Cutoff())
}

// Options lists the offered delivery slots with their next dates.
func (c *Calculator) Options() []Option {
	slots := enums.DeliverySlots()
	out := make([]Option, 0, len(slots))
	for _, slot := range slots {
		w := c.NextForSlot(slot)
		out = append(out, Option{
			Slot:          slot,
			Label:         weekdayNames[slot.Weekday()],
			DeadlineLabel: fmt.Sprintf("הזמנה עד %s (%s)", weekdayNames[slot.Cutoff()], w.CutoffDate.Format("02/01")),
			DeliveryDate:  w.DeliveryDate.Format(DateLayout),
			CutoffDate:    w.CutoffDate.Format(DateLayout),
			DaysLeft:      w.DaysLeft,
			Disabled:      w.DaysLeft < 0,
		})
	}
	return out
}

// NextOccurrence returns the next date strictly after today falling on
// target.
func (c *Calculator) NextOccurrence(target time.Weekday) time.Time {
	today := c.Today()
	days := int(target) - int(today.Weekday())
	if days <= 0 {
		days += 7
	}
	return today.AddDate(0, 0, days)
}

// IsPast reports whether date falls on a day strictly before today.
func (c *Calculator) IsPast(date time.Time) bool {
	return midnight(date.In(c.loc)).Before(c.Today())
}

// Parse reads a delivery date sent by a client. Slot names resolve to the
// slot's next delivery date; otherwise YYYY-MM-DD or RFC 3339 is accepted.
func (c *Calculator) Parse(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, ErrInvalidDate
	}
	if slot, err := enums.ParseDeliverySlot(strings.ToLower(value)); err == nil {
		return c.NextForSlot(slot).DeliveryDate, nil
	}
	if t, err := time.ParseInLocation(DateLayout, value, c.loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return midnight(t.In(c.loc)), nil
	}
	return time.Time{}, ErrInvalidDate
}

// SlotForDate maps a delivery date to the slot delivering on that weekday.
func (c *Calculator) SlotForDate(date time.Time) (enums.DeliverySlot, bool) {
	return enums.DeliverySlotForWeekday(date.In(c.loc).Weekday())
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days, ignoring DST shifts.
func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
