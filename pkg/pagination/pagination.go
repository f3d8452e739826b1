// Package pagination implements keyset pagination over (created_at, id),
// newest first. Cursors are opaque URL-safe tokens.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// ErrMalformedCursor is wrapped by every ParseCursor failure.
var ErrMalformedCursor = errors.New("malformed cursor")

// Params are the limit and cursor a caller asked for.
type Params struct {
	Limit  int
	Cursor string
}

// IsFirst reports whether the params address the first page.
func (p Params) IsFirst() bool {
	return strings.TrimSpace(p.Cursor) == ""
}

// Cursor is the sort key of the last row on a page.
type Cursor struct {
	CreatedAt time.Time `json:"at"`
	ID        uuid.UUID `json:"id"`
}

// Page is one slice of a listing plus the cursor of the next slice, if any.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// NormalizeLimit maps non-positive limits to DefaultLimit and caps at MaxLimit.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer is the row count to fetch: one past the page so Trim can
// tell whether another page exists.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeCursor renders c as base64url JSON.
func EncodeCursor(c Cursor) string {
	c.CreatedAt = c.CreatedAt.UTC()
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// ParseCursor decodes a cursor from EncodeCursor. A blank value means "first
// page" and yields nil without error.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCursor, err)
	}
	if c.CreatedAt.IsZero() || c.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing sort key", ErrMalformedCursor)
	}
	return &c, nil
}

// Trim cuts rows fetched with LimitWithBuffer down to the requested limit and
// returns the cursor for the following page, if any.
func Trim[T any](rows []T, limit int, cursorOf func(T) Cursor) Page[T] {
	limit = NormalizeLimit(limit)
	if rows == nil {
		rows = []T{}
	}
	if len(rows) <= limit {
		return Page[T]{Items: rows}
	}
	rows = rows[:limit]
	return Page[T]{
		Items:      rows,
		NextCursor: EncodeCursor(cursorOf(rows[len(rows)-1])),
	}
}
