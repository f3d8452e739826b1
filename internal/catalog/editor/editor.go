// Package editor holds the admin catalog editing session: a working copy of
// the catalog that is mutated in place and saved as a whole.
package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/bakery-backend/pkg/types"
)

const (
	NewCategoryTitle = "קטגוריה חדשה"
	NewItemName      = "מוצר חדש"
)

var (
	ErrNotEditing    = errors.New("catalog editor is not in edit mode")
	ErrLastCategory  = errors.New("cannot remove the last category")
	ErrLastItem      = errors.New("cannot remove the last item of a category")
	ErrOutOfRange    = errors.New("catalog index out of range")
	ErrNegativePrice = errors.New("price must not be negative")
)

type Mode int

const (
	ModeViewing Mode = iota
	ModeEditing
)

func (m Mode) String() string {
	if m == ModeEditing {
		return "editing"
	}
	return "viewing"
}

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func (d Direction) valid() bool {
	return d == Up || d == Down
}

// Saver persists a full catalog replacement.
type Saver interface {
	SaveCatalog(ctx context.Context, catalog types.Catalog) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, catalog types.Catalog) error

func (f SaverFunc) SaveCatalog(ctx context.Context, catalog types.Catalog) error {
	return f(ctx, catalog)
}

// Session is not safe for concurrent use.
type Session struct {
	mode     Mode
	baseline types.Catalog
	working  types.Catalog
}

// NewSession starts in viewing mode over a copy of baseline.
func NewSession(baseline types.Catalog) *Session {
	b := baseline.Clone()
	if b == nil {
		b = types.Catalog{}
	}
	return &Session{mode: ModeViewing, baseline: b}
}

func (s *Session) Mode() Mode {
	return s.mode
}

// Catalog returns a copy of what the session currently shows: the working
// copy while editing, the baseline otherwise.
func (s *Session) Catalog() types.Catalog {
	if s.mode == ModeEditing {
		return s.working.Clone()
	}
	return s.baseline.Clone()
}

func (s *Session) Baseline() types.Catalog {
	return s.baseline.Clone()
}

// BeginEdit copies the baseline into a fresh working copy. Calling it while
// already editing keeps the current working copy.
func (s *Session) BeginEdit() {
	if s.mode == ModeEditing {
		return
	}
	s.working = s.baseline.Clone()
	s.mode = ModeEditing
}

// Dirty reports whether the working copy differs from the baseline.
func (s *Session) Dirty() bool {
	if s.mode != ModeEditing {
		return false
	}
	return !equal(s.working, s.baseline)
}

// Discard leaves edit mode and drops the working copy. When there are
// unsaved changes confirm is asked first; a false answer keeps editing.
func (s *Session) Discard(confirm func() bool) bool {
	if s.mode != ModeEditing {
		return true
	}
	if s.Dirty() && (confirm == nil || !confirm()) {
		return false
	}
	s.working = nil
	s.mode = ModeViewing
	return true
}

// Commit saves the working copy. On failure the session stays in edit mode
// with the working copy untouched.
func (s *Session) Commit(ctx context.Context, saver Saver) error {
	if s.mode != ModeEditing {
		return ErrNotEditing
	}
	snapshot := s.working.Clone()
	if err := saver.SaveCatalog(ctx, snapshot); err != nil {
		return err
	}
	s.baseline = snapshot
	s.working = nil
	s.mode = ModeViewing
	return nil
}

// AddCategory prepends a placeholder category with one new item.
func (s *Session) AddCategory() error {
	if err := s.editing(); err != nil {
		return err
	}
	cat := types.CatalogCategory{
		Title: NewCategoryTitle,
		Price: 0,
		Items: []types.CatalogItem{{ID: s.working.MaxItemID() + 1, Name: NewItemName}},
	}
	s.working = append(types.Catalog{cat}, s.working...)
	return nil
}

func (s *Session) RemoveCategory(i int) error {
	if err := s.category(i); err != nil {
		return err
	}
	if len(s.working) == 1 {
		return ErrLastCategory
	}
	s.working = append(s.working[:i], s.working[i+1:]...)
	return nil
}

// MoveCategory swaps category i with its neighbour. Moving past either end
// is a no-op.
func (s *Session) MoveCategory(i int, dir Direction) error {
	if err := s.category(i); err != nil {
		return err
	}
	j, ok := neighbour(i, len(s.working), dir)
	if !ok {
		return nil
	}
	s.working[i], s.working[j] = s.working[j], s.working[i]
	return nil
}

func (s *Session) UpdateCategory(i int, title string, price float64) error {
	if err := s.category(i); err != nil {
		return err
	}
	if price < 0 {
		return ErrNegativePrice
	}
	s.working[i].Title = title
	s.working[i].Price = price
	return nil
}

// AddItem prepends a placeholder item whose id is one above the highest id
// in the whole catalog.
func (s *Session) AddItem(ci int) error {
	if err := s.category(ci); err != nil {
		return err
	}
	item := types.CatalogItem{ID: s.working.MaxItemID() + 1, Name: NewItemName}
	s.working[ci].Items = append([]types.CatalogItem{item}, s.working[ci].Items...)
	return nil
}

func (s *Session) RemoveItem(ci, ii int) error {
	if err := s.item(ci, ii); err != nil {
		return err
	}
	items := s.working[ci].Items
	if len(items) == 1 {
		return ErrLastItem
	}
	s.working[ci].Items = append(items[:ii], items[ii+1:]...)
	return nil
}

func (s *Session) MoveItem(ci, ii int, dir Direction) error {
	if err := s.item(ci, ii); err != nil {
		return err
	}
	items := s.working[ci].Items
	j, ok := neighbour(ii, len(items), dir)
	if !ok {
		return nil
	}
	items[ii], items[j] = items[j], items[ii]
	return nil
}

func (s *Session) RenameItem(ci, ii int, name string) error {
	if err := s.item(ci, ii); err != nil {
		return err
	}
	s.working[ci].Items[ii].Name = name
	return nil
}

func (s *Session) editing() error {
	if s.mode != ModeEditing {
		return ErrNotEditing
	}
	return nil
}

func (s *Session) category(i int) error {
	if err := s.editing(); err != nil {
		return err
	}
	if i < 0 || i >= len(s.working) {
		return fmt.Errorf("%w: category %d", ErrOutOfRange, i)
	}
	return nil
}

func (s *Session) item(ci, ii int) error {
	if err := s.category(ci); err != nil {
		return err
	}
	if ii < 0 || ii >= len(s.working[ci].Items) {
		return fmt.Errorf("%w: item %d in category %d", ErrOutOfRange, ii, ci)
	}
	return nil
}

func neighbour(i, n int, dir Direction) (int, bool) {
	switch dir {
	case Up:
		if i == 0 {
			return 0, false
		}
		return i - 1, true
	case Down:
		if i == n-1 {
			return 0, false
		}
		return i + 1, true
	}
	return 0, false
}

func equal(a, b types.Catalog) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Title != b[i].Title || a[i].Price != b[i].Price || len(a[i].Items) != len(b[i].Items) {
			return false
		}
		for j := range a[i].Items {
			if a[i].Items[j] != b[i].Items[j] {
				return false
			}
		}
	}
	return true
}
