package utils

import (
	"fmt"

	"github.com/shopspring/decimal"

	"commercegate-payment-api/models"
)

// Currencies whose smallest transmissible unit is one whole unit. Amounts in
// these currencies are sent without a fractional part.
var currenciesWithoutFractions = map[string]bool{
	"BIF": true, "BYR": true, "CLP": true, "DJF": true, "GNF": true,
	"ISK": true, "JPY": true, "KMF": true, "KRW": true, "PYG": true,
	"RWF": true, "VND": true, "VUV": true, "XAF": true, "XOF": true,
	"XPF": true,
}

// CurrencyExponent returns the number of minor-unit digits the provider
// expects for a currency: 0 for zero-decimal currencies, 2 otherwise.
func CurrencyExponent(currency string) int {
	if currenciesWithoutFractions[currency] {
		return 0
	}
	return 2
}

// FormatAmount normalizes a Money into the wire amount string. Zero-decimal
// currencies are rounded to the nearest whole unit ("1", not "1.00"); for all
// others the amount must already fit in two decimal places or the value would
// be transmitted lossily and an error is returned.
func FormatAmount(m models.Money) (string, error) {
	exp := CurrencyExponent(m.Currency)
	if exp == 0 {
		return m.Amount.Round(0).StringFixed(0), nil
	}
	if !m.Amount.Equal(m.Amount.Round(int32(exp))) {
		return "", fmt.Errorf("amount %s has sub-minor-unit precision for currency %s", m.Amount.String(), m.Currency)
	}
	return m.Amount.StringFixed(int32(exp)), nil
}

// ParseAmount is the inverse of FormatAmount: it reads a wire amount string
// back into a Money in the given currency.
func ParseAmount(amount, currency string) (models.Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return models.Money{}, fmt.Errorf("unparseable amount %q: %v", amount, err)
	}
	return models.NewMoney(d, currency), nil
}

// MinorUnits converts a Money back to cents-style minor units.
func MinorUnits(m models.Money) int64 {
	return m.Amount.Shift(2).IntPart()
}
