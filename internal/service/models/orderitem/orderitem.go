package orderitem

import (
	"errors"
	"fmt"
)

var (
	ErrMissingMenuItem  = errors.New("menu item id is required")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrInvalidUnitPrice = errors.New("unit price must not be negative")
)

// OrderItem is one line of an order. Name and PriceCents are snapshots of the
// menu item taken when the line was added.
type OrderItem struct {
	OrderID    string `json:"-"`
	MenuItemID string `json:"menuItemId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"priceCents"`
}

// Validate checks the line on its own, without looking at the catalog.
func (i OrderItem) Validate() error {
	if i.MenuItemID == "" {
		return ErrMissingMenuItem
	}
	if i.Quantity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, i.Quantity)
	}
	if i.PriceCents < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidUnitPrice, i.PriceCents)
	}

	return nil
}

// LineTotal returns price times quantity.
func (i OrderItem) LineTotal() int64 {
	return i.PriceCents * int64(i.Quantity)
}

// Merge folds item into items. A line with the same menu item gets its
// quantity increased; otherwise item is appended.
func Merge(items []OrderItem, item OrderItem) []OrderItem {
	for idx := range items {
		if items[idx].MenuItemID == item.MenuItemID {
			items[idx].Quantity += item.Quantity

			return items
		}
	}

	return append(items, item)
}

// MergeAll collapses duplicate menu items, keeping first-seen order.
func MergeAll(items []OrderItem) []OrderItem {
	out := make([]OrderItem, 0, len(items))
	for _, item := range items {
		out = Merge(out, item)
	}

	return out
}

// Total sums the line totals.
func Total(items []OrderItem) int64 {
	var total int64
	for _, item := range items {
		total += item.LineTotal()
	}

	return total
}

// Clone returns a copy that does not share the backing array.
func Clone(items []OrderItem) []OrderItem {
	if items == nil {
		return nil
	}
	out := make([]OrderItem, len(items))
	copy(out, items)

	return out
}
