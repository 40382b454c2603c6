package models

import (
	"github.com/shopspring/decimal"
)

// Money is a decimal amount in a given ISO currency. Callers construct it either
// directly from a decimal or from cents-style minor units (hundredths of the major
// unit, the convention used by the public API and the job queue).
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// MoneyFromMinorUnits builds a Money from cents-style minor units: 100 units of
// USD is $1.00, 100 units of JPY is ¥1 once normalized for transmission.
func MoneyFromMinorUnits(units int64, currency string) Money {
	return Money{
		Amount:   decimal.New(units, -2),
		Currency: currency,
	}
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}
