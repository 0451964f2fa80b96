// Package cart holds the in-progress sale for one session. A cart is a pure
// value: it never touches storage and its total is always derived from its
// lines, never stored independently.
package cart

import (
	"errors"
	"strings"

	"seaside/backend/internal/domain"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidName     = errors.New("name must not be empty")
)

// Cart lines are matched by the exact (name, unit price) pair. The same
// product at two different prices occupies two lines.
type Cart struct {
	lines    []domain.CartLine
	customer string
}

func New() *Cart {
	return &Cart{customer: domain.WalkInCustomer}
}

// FromState rebuilds a cart from its serialized form.
func FromState(state domain.CartState) *Cart {
	c := &Cart{
		lines:    make([]domain.CartLine, len(state.Lines)),
		customer: state.CustomerName,
	}
	copy(c.lines, state.Lines)
	if strings.TrimSpace(c.customer) == "" {
		c.customer = domain.WalkInCustomer
	}
	for i := range c.lines {
		c.lines[i].SubtotalCents = int64(c.lines[i].Quantity) * c.lines[i].UnitPriceCents
	}
	return c
}

// State returns the serializable snapshot of the cart.
func (c *Cart) State() domain.CartState {
	lines := make([]domain.CartLine, len(c.lines))
	copy(lines, c.lines)
	return domain.CartState{
		Lines:        lines,
		CustomerName: c.customer,
		TotalCents:   c.TotalCents(),
	}
}

// AddItem merges into an existing line on an exact (name, price) match,
// otherwise appends a new line.
func (c *Cart) AddItem(name string, unitPriceCents int64, quantity int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if unitPriceCents < 0 {
		return ErrInvalidPrice
	}

	for i := range c.lines {
		if c.lines[i].Name == name && c.lines[i].UnitPriceCents == unitPriceCents {
			c.lines[i].Quantity += quantity
			c.lines[i].SubtotalCents = int64(c.lines[i].Quantity) * unitPriceCents
			return nil
		}
	}

	c.lines = append(c.lines, domain.CartLine{
		Name:           name,
		UnitPriceCents: unitPriceCents,
		Quantity:       quantity,
		SubtotalCents:  int64(quantity) * unitPriceCents,
	})
	return nil
}

// AddCustomItem adds a line with a caller-supplied price. It shares AddItem's
// merge semantics, so a custom line priced identically to a catalog line of
// the same name merges with it.
func (c *Cart) AddCustomItem(name string, unitPriceCents int64, quantity int) error {
	return c.AddItem(name, unitPriceCents, quantity)
}

// RemoveLine deletes the line matching (name, price) exactly. Returns whether
// a line was removed; a miss leaves the cart unchanged.
func (c *Cart) RemoveLine(name string, unitPriceCents int64) bool {
	for i := range c.lines {
		if c.lines[i].Name == name && c.lines[i].UnitPriceCents == unitPriceCents {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return true
		}
	}
	return false
}

// AdjustQuantity changes a line's quantity by delta. A resulting quantity of
// zero or less removes the line. Returns whether a matching line was found.
func (c *Cart) AdjustQuantity(name string, unitPriceCents int64, delta int) bool {
	for i := range c.lines {
		if c.lines[i].Name == name && c.lines[i].UnitPriceCents == unitPriceCents {
			c.lines[i].Quantity += delta
			if c.lines[i].Quantity <= 0 {
				c.lines = append(c.lines[:i], c.lines[i+1:]...)
				return true
			}
			c.lines[i].SubtotalCents = int64(c.lines[i].Quantity) * unitPriceCents
			return true
		}
	}
	return false
}

// SetCustomer records the customer name for the eventual sale. Blank input
// normalizes to the walk-in sentinel.
func (c *Cart) SetCustomer(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = domain.WalkInCustomer
	}
	c.customer = name
}

func (c *Cart) Customer() string {
	return c.customer
}

func (c *Cart) Clear() {
	c.lines = nil
	c.customer = domain.WalkInCustomer
}

func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

func (c *Cart) Lines() []domain.CartLine {
	lines := make([]domain.CartLine, len(c.lines))
	copy(lines, c.lines)
	return lines
}

// TotalCents folds over every line. The total is never cached.
func (c *Cart) TotalCents() int64 {
	var total int64
	for _, line := range c.lines {
		total += line.SubtotalCents
	}
	return total
}
