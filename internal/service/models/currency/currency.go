package currency

import (
	"database/sql/driver"
	"errors"
	"strings"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyCAD Currency = "CAD"
)

// Default is used when an order does not name a currency.
const Default = CurrencyUSD

var ErrInvalidCurrency = errors.New("invalid currency")

func (c Currency) String() string {
	return string(c)
}

func (c Currency) Value() (driver.Value, error) {
	return c.String(), nil
}

func ParseCurrency(s string) (Currency, error) {
	switch strings.ToUpper(s) {
	case CurrencyUSD.String():
		return CurrencyUSD, nil
	case CurrencyCAD.String():
		return CurrencyCAD, nil
	default:
		return "", ErrInvalidCurrency
	}
}
