package table

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
)

// QRPrefix starts every table QR payload.
const QRPrefix = "table_"

var (
	ErrTableNotFound         = errors.New("table not found")
	ErrTableExists           = errors.New("table already exists")
	ErrTableUnavailable      = errors.New("table is unavailable")
	ErrTableAlreadyAvailable = errors.New("table is already available")
	ErrInvalidTableID        = errors.New("invalid table id")
	ErrInvalidQR             = errors.New("invalid table qr code")
)

type Status string

const (
	StatusAvailable   Status = "available"
	StatusUnavailable Status = "unavailable"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Value() (driver.Value, error) {
	return s.String(), nil
}

// Table is a restaurant table. OrderID is set iff the table is unavailable.
// OrderItems mirrors the bound order for display and is never authoritative.
type Table struct {
	ID         string                `json:"id"`
	Status     Status                `json:"status"`
	OrderID    string                `json:"orderId,omitempty"`
	OrderItems []orderitem.OrderItem `json:"orderItems"`
	UpdatedAt  time.Time             `json:"updatedAt"`
}

// New returns an available table.
func New(id string, now time.Time) (Table, error) {
	if err := ValidateID(id); err != nil {
		return Table{}, err
	}

	return Table{
		ID:         id,
		Status:     StatusAvailable,
		OrderItems: []orderitem.OrderItem{},
		UpdatedAt:  now,
	}, nil
}

// Available reports whether the table can take a new order.
func (t *Table) Available() bool {
	return t.Status == StatusAvailable && t.OrderID == ""
}

// BoundTo reports whether the table currently holds orderID.
func (t *Table) BoundTo(orderID string) bool {
	return orderID != "" && t.OrderID == orderID
}

// Bind attaches an order to an available table.
func (t *Table) Bind(orderID string, items []orderitem.OrderItem, now time.Time) error {
	if !t.Available() {
		return fmt.Errorf("%w: %s is bound to order %s", ErrTableUnavailable, t.ID, t.OrderID)
	}
	t.Status = StatusUnavailable
	t.OrderID = orderID
	t.OrderItems = orderitem.Clone(items)
	t.UpdatedAt = now

	return nil
}

// Release frees the table unconditionally.
func (t *Table) Release(now time.Time) {
	t.Status = StatusAvailable
	t.OrderID = ""
	t.OrderItems = []orderitem.OrderItem{}
	t.UpdatedAt = now
}

// Clone returns a deep copy.
func (t Table) Clone() Table {
	t.OrderItems = orderitem.Clone(t.OrderItems)

	return t
}

// ValidateID accepts the numeric part used in QR payloads and other
// short printable identifiers.
func ValidateID(id string) error {
	if id == "" || len(id) > 32 || strings.ContainsAny(id, " \t\r\n/") {
		return fmt.Errorf("%w: %q", ErrInvalidTableID, id)
	}

	return nil
}

// ParseQR extracts the table id from a scanned payload such as "table_7".
func ParseQR(payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	id, ok := strings.CutPrefix(payload, QRPrefix)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidQR, payload)
	}
	if err := ValidateID(id); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidQR, err)
	}

	return id, nil
}
