package currency

import (
	"database/sql/driver"
	"errors"
	"strings"
)

type Currency string

const (
	CurrencyMXN Currency = "MXN"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyRUB Currency = "RUB"
)

// Default is used when the configuration does not name a currency.
const Default = CurrencyMXN

var ErrInvalidCurrency = errors.New("invalid currency")

func (c Currency) String() string {
	return string(c)
}

func (c Currency) Value() (driver.Value, error) {
	return c.String(), nil
}

// ParseCurrency parses an ISO 4217 code. Lowercase input is accepted.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(strings.ToUpper(s)) {
	case CurrencyMXN:
		return CurrencyMXN, nil
	case CurrencyUSD:
		return CurrencyUSD, nil
	case CurrencyEUR:
		return CurrencyEUR, nil
	case CurrencyRUB:
		return CurrencyRUB, nil
	default:
		return "", ErrInvalidCurrency
	}
}
