// Package cart holds the shopping cart as a plain value and the pure reducer
// that applies customer actions to it. Persistence lives at the edges.
package cart

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Line is one (product, variant) entry of the cart with the prices seen when it was added.
type Line struct {
	ProductID    int              `json:"productId"`
	VariantID    *int             `json:"variantId,omitempty"`
	Title        string           `json:"title"`
	VariantName  *string          `json:"variantName,omitempty"`
	BasePrice    decimal.Decimal  `json:"basePrice"`
	VariantPrice *decimal.Decimal `json:"variantPrice,omitempty"`
	ImageURL     string           `json:"imageUrl,omitempty"`
	Quantity     int              `json:"quantity"`
}

// UnitPrice is the variant price when present, otherwise the base price.
func (l Line) UnitPrice() decimal.Decimal {
	if l.VariantPrice != nil {
		return *l.VariantPrice
	}
	return l.BasePrice
}

// Key identifies the line within a cart.
func (l Line) Key() Key {
	k := Key{ProductID: l.ProductID}
	if l.VariantID != nil {
		k.VariantID = *l.VariantID
		k.HasVariant = true
	}
	return k
}

// Key is the (product, variant) identity of a cart line.
type Key struct {
	ProductID  int
	VariantID  int
	HasVariant bool
}

// State is the whole cart. The zero value is an empty cart.
type State struct {
	Items []Line `json:"items"`
}

// ActionType enumerates the reducer operations.
type ActionType string

const (
	ActionAdd            ActionType = "add"
	ActionRemove         ActionType = "remove"
	ActionUpdateQuantity ActionType = "update_quantity"
	ActionClear          ActionType = "clear"
)

// Action is a single customer intent. Line carries the target (and for add, the payload).
type Action struct {
	Type     ActionType `json:"type" binding:"required"`
	Line     Line       `json:"line"`
	Quantity int        `json:"quantity"`
}

// Validate rejects actions the reducer cannot apply.
func (a Action) Validate() error {
	switch a.Type {
	case ActionAdd:
		if a.Line.ProductID <= 0 {
			return fmt.Errorf("productId is required")
		}
		if a.Line.Quantity <= 0 {
			return fmt.Errorf("quantity must be positive")
		}
	case ActionRemove, ActionUpdateQuantity:
		if a.Line.ProductID <= 0 {
			return fmt.Errorf("productId is required")
		}
	case ActionClear:
	default:
		return fmt.Errorf("unknown cart action %q", a.Type)
	}
	return nil
}

// Reduce returns the state after applying a. The input state is never modified.
//
// Adding an existing (product, variant) pair increments its quantity. Updating a
// quantity to zero or below removes the line.
func Reduce(s State, a Action) State {
	items := make([]Line, len(s.Items))
	copy(items, s.Items)
	key := a.Line.Key()

	switch a.Type {
	case ActionAdd:
		if a.Line.Quantity <= 0 {
			return State{Items: items}
		}
		for i := range items {
			if items[i].Key() == key {
				items[i].Quantity += a.Line.Quantity
				return State{Items: items}
			}
		}
		return State{Items: append(items, a.Line)}

	case ActionRemove:
		return State{Items: without(items, key)}

	case ActionUpdateQuantity:
		if a.Quantity <= 0 {
			return State{Items: without(items, key)}
		}
		for i := range items {
			if items[i].Key() == key {
				items[i].Quantity = a.Quantity
			}
		}
		return State{Items: items}

	case ActionClear:
		return State{Items: []Line{}}
	}
	return State{Items: items}
}

func without(items []Line, key Key) []Line {
	out := items[:0]
	for _, it := range items {
		if it.Key() != key {
			out = append(out, it)
		}
	}
	return out
}

// Subtotal sums unit price times quantity over all lines.
func (s State) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Items {
		total = total.Add(l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// Count returns the number of units in the cart.
func (s State) Count() int {
	n := 0
	for _, l := range s.Items {
		n += l.Quantity
	}
	return n
}
