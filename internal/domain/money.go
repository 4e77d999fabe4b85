package domain

import "github.com/shopspring/decimal"

// Money is an amount tagged with its currency.
type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}
