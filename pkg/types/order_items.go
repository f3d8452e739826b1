package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ItemsKind tags which historical shape an order's items were stored in.
type ItemsKind string

const (
	// ItemsKindMapping is the early {"<display name>": quantity} object.
	ItemsKindMapping ItemsKind = "mapping"
	// ItemsKindLineItems is the array of priced line items written today.
	ItemsKindLineItems ItemsKind = "lineItems"
)

// LineItem is the single in-memory shape of an order line.
type LineItem struct {
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// Subtotal returns quantity times unit price.
func (l LineItem) Subtotal() float64 {
	return float64(l.Quantity) * l.UnitPrice
}

// storedLineItem accepts the legacy breadId/price keys next to the current
// ones.
type storedLineItem struct {
	ProductID *int     `json:"productId"`
	BreadID   *int     `json:"breadId"`
	Name      string   `json:"name"`
	Quantity  int      `json:"quantity"`
	UnitPrice *float64 `json:"unitPrice"`
	Price     *float64 `json:"price"`
}

func (s storedLineItem) normalize() LineItem {
	item := LineItem{Name: s.Name, Quantity: s.Quantity}
	switch {
	case s.ProductID != nil:
		item.ProductID = *s.ProductID
	case s.BreadID != nil:
		item.ProductID = *s.BreadID
	}
	switch {
	case s.UnitPrice != nil:
		item.UnitPrice = *s.UnitPrice
	case s.Price != nil:
		item.UnitPrice = *s.Price
	}
	return item
}

// StoredItems is the items column as persisted. It must not travel past the
// repository: call Normalize right after reading.
type StoredItems struct {
	Kind      ItemsKind
	Mapping   map[string]int
	LineItems []LineItem
}

// NewLineItems wraps items in the current storage shape.
func NewLineItems(items []LineItem) StoredItems {
	return StoredItems{Kind: ItemsKindLineItems, LineItems: items}
}

// Normalize converts either shape into line items. Mapping entries carry no
// price or product reference and are ordered by name.
func (s StoredItems) Normalize() []LineItem {
	switch s.Kind {
	case ItemsKindMapping:
		names := make([]string, 0, len(s.Mapping))
		for name := range s.Mapping {
			names = append(names, name)
		}
		sort.Strings(names)
		out := make([]LineItem, 0, len(names))
		for _, name := range names {
			out = append(out, LineItem{Name: name, Quantity: s.Mapping[name]})
		}
		return out
	case ItemsKindLineItems:
		out := make([]LineItem, len(s.LineItems))
		copy(out, s.LineItems)
		return out
	default:
		return []LineItem{}
	}
}

// MarshalJSON writes the shape the value was read in.
func (s StoredItems) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case ItemsKindMapping:
		if s.Mapping == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(s.Mapping)
	default:
		if s.LineItems == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(s.LineItems)
	}
}

// UnmarshalJSON detects the shape from the first JSON token.
func (s *StoredItems) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = StoredItems{Kind: ItemsKindLineItems, LineItems: []LineItem{}}
		return nil
	}
	switch trimmed[0] {
	case '{':
		var mapping map[string]int
		if err := json.Unmarshal(trimmed, &mapping); err != nil {
			return fmt.Errorf("order items mapping: %w", err)
		}
		*s = StoredItems{Kind: ItemsKindMapping, Mapping: mapping}
		return nil
	case '[':
		var raw []storedLineItem
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return fmt.Errorf("order items array: %w", err)
		}
		items := make([]LineItem, 0, len(raw))
		for _, r := range raw {
			items = append(items, r.normalize())
		}
		*s = StoredItems{Kind: ItemsKindLineItems, LineItems: items}
		return nil
	default:
		return errors.New("order items: expected object or array")
	}
}

// Value implements driver.Valuer.
func (s StoredItems) Value() (driver.Value, error) {
	payload, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

// Scan implements sql.Scanner.
func (s *StoredItems) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = StoredItems{Kind: ItemsKindLineItems, LineItems: []LineItem{}}
		return nil
	case []byte:
		return s.UnmarshalJSON(v)
	case string:
		return s.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("order items: unsupported scan type %T", value)
	}
}
