package menuitem

import (
	"errors"
	"fmt"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/currency"
)

var (
	ErrMenuItemNotFound = errors.New("menu item not found")
	ErrInvalidCategory  = errors.New("invalid menu category")
	ErrInvalidMenuItem  = errors.New("invalid menu item")
)

// Category groups items on the menu.
type Category string

const (
	CategoryStarter Category = "starter"
	CategoryMain    Category = "main"
	CategoryDessert Category = "dessert"
	CategoryDrink   Category = "drink"
)

func (c Category) String() string {
	return string(c)
}

// ParseCategory parses a category name.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryStarter, CategoryMain, CategoryDessert, CategoryDrink:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
}

// MenuItem is a catalog entry.
type MenuItem struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	PriceCents  int64             `json:"priceCents"`
	Currency    currency.Currency `json:"currency"`
	Category    Category          `json:"category"`
	ImageURL    string            `json:"imageUrl,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func (m MenuItem) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMenuItem)
	}
	if m.PriceCents < 0 {
		return fmt.Errorf("%w: negative price", ErrInvalidMenuItem)
	}
	if _, err := ParseCategory(string(m.Category)); err != nil {
		return err
	}

	return nil
}
