package order

import "database/sql/driver"

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCancelled Status = "cancelled"
)

var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusPreparing: true,
		StatusCancelled: true,
	},
	StatusPreparing: {
		StatusReady:     true,
		StatusCancelled: true,
	},
	StatusReady:     {},
	StatusCancelled: {},
}

func (s Status) String() string {
	return string(s)
}

func (s Status) Value() (driver.Value, error) {
	return s.String(), nil
}

// AcceptsItems reports whether items may still be added.
func (s Status) AcceptsItems() bool {
	return s != StatusCancelled
}

// ParseStatus parses a status name.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := allowedTransitions[st]; !ok {
		return "", ErrInvalidStatus
	}

	return st, nil
}

// CanTransition reports whether from -> to is a forward move.
func CanTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}
