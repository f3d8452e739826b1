package editor

import (
	"errors"
	"fmt"
	"strings"
)

type OpKind string

const (
	OpAddCategory    OpKind = "add_category"
	OpRemoveCategory OpKind = "remove_category"
	OpMoveCategory   OpKind = "move_category"
	OpUpdateCategory OpKind = "update_category"
	OpAddItem        OpKind = "add_item"
	OpRemoveItem     OpKind = "remove_item"
	OpMoveItem       OpKind = "move_item"
	OpRenameItem     OpKind = "rename_item"
)

var ErrUnknownOp = errors.New("unknown catalog operation")

// Operation is one serialized editor action. Title and Price are optional
// on update_category; a nil field keeps the current value.
type Operation struct {
	Op        OpKind    `json:"op" validate:"required"`
	Category  int       `json:"category"`
	Item      int       `json:"item"`
	Direction Direction `json:"direction,omitempty"`
	Title     *string   `json:"title,omitempty"`
	Price     *float64  `json:"price,omitempty"`
	Name      string    `json:"name,omitempty"`
}

// Apply runs the operation against an editing session.
func (o Operation) Apply(s *Session) error {
	switch o.Op {
	case OpAddCategory:
		return s.AddCategory()
	case OpRemoveCategory:
		return s.RemoveCategory(o.Category)
	case OpMoveCategory:
		if !o.Direction.valid() {
			return fmt.Errorf("invalid direction %q", o.Direction)
		}
		return s.MoveCategory(o.Category, o.Direction)
	case OpUpdateCategory:
		if err := s.category(o.Category); err != nil {
			return err
		}
		current := s.working[o.Category]
		title, price := current.Title, current.Price
		if o.Title != nil {
			title = strings.TrimSpace(*o.Title)
		}
		if o.Price != nil {
			price = *o.Price
		}
		return s.UpdateCategory(o.Category, title, price)
	case OpAddItem:
		return s.AddItem(o.Category)
	case OpRemoveItem:
		return s.RemoveItem(o.Category, o.Item)
	case OpMoveItem:
		if !o.Direction.valid() {
			return fmt.Errorf("invalid direction %q", o.Direction)
		}
		return s.MoveItem(o.Category, o.Item, o.Direction)
	case OpRenameItem:
		return s.RenameItem(o.Category, o.Item, strings.TrimSpace(o.Name))
	default:
		return fmt.Errorf("%w %q", ErrUnknownOp, o.Op)
	}
}

// ApplyAll applies ops in order and stops at the first failure, reporting
// its position.
func ApplyAll(s *Session, ops []Operation) error {
	for i, op := range ops {
		if err := op.Apply(s); err != nil {
			return &OpError{Index: i, Op: op.Op, Err: err}
		}
	}
	return nil
}

type OpError struct {
	Index int
	Op    OpKind
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("operation %d (%s): %v", e.Index, e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
