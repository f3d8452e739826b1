package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// CatalogItem is a named product. IDs are unique across the whole catalog.
type CatalogItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CatalogCategory groups items sold at one price.
type CatalogCategory struct {
	Title string        `json:"title"`
	Price float64       `json:"price"`
	Items []CatalogItem `json:"items"`
}

// UnmarshalJSON also accepts the older "breads" key for items.
func (c *CatalogCategory) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title  string        `json:"title"`
		Price  float64       `json:"price"`
		Items  []CatalogItem `json:"items"`
		Breads []CatalogItem `json:"breads"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Title = raw.Title
	c.Price = raw.Price
	c.Items = raw.Items
	if c.Items == nil && raw.Breads != nil {
		c.Items = raw.Breads
	}
	return nil
}

// Catalog is the ordered category list stored as one JSON document per
// revision.
type Catalog []CatalogCategory

// Clone deep copies the catalog.
func (c Catalog) Clone() Catalog {
	if c == nil {
		return nil
	}
	out := make(Catalog, len(c))
	for i, cat := range c {
		items := make([]CatalogItem, len(cat.Items))
		copy(items, cat.Items)
		out[i] = CatalogCategory{Title: cat.Title, Price: cat.Price, Items: items}
	}
	return out
}

// MaxItemID returns the highest item id in the catalog, or 0.
func (c Catalog) MaxItemID() int {
	max := 0
	for _, cat := range c {
		for _, item := range cat.Items {
			if item.ID > max {
				max = item.ID
			}
		}
	}
	return max
}

// ItemCount returns the number of items across all categories.
func (c Catalog) ItemCount() int {
	n := 0
	for _, cat := range c {
		n += len(cat.Items)
	}
	return n
}

// Value implements driver.Valuer.
func (c Catalog) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

// Scan implements sql.Scanner.
func (c *Catalog) Scan(value interface{}) error {
	var payload []byte
	switch v := value.(type) {
	case nil:
		*c = Catalog{}
		return nil
	case []byte:
		payload = v
	case string:
		payload = []byte(v)
	default:
		return fmt.Errorf("catalog: unsupported scan type %T", value)
	}
	var out Catalog
	if err := json.Unmarshal(payload, &out); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if out == nil {
		out = Catalog{}
	}
	*c = out
	return nil
}
