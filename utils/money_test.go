package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"commercegate-payment-api/models"
)

func TestFormatAmountTwoDecimalCurrency(t *testing.T) {
	m := models.MoneyFromMinorUnits(100, "USD")
	out, err := FormatAmount(m)
	require.NoError(t, err)
	require.Equal(t, "1.00", out)

	m = models.MoneyFromMinorUnits(1550, "EUR")
	out, err = FormatAmount(m)
	require.NoError(t, err)
	require.Equal(t, "15.50", out)
}

func TestFormatAmountZeroDecimalCurrency(t *testing.T) {
	// 100 minor units of JPY is one whole yen on the wire.
	m := models.MoneyFromMinorUnits(100, "JPY")
	out, err := FormatAmount(m)
	require.NoError(t, err)
	require.Equal(t, "1", out)

	m = models.MoneyFromMinorUnits(1050, "KRW")
	out, err = FormatAmount(m)
	require.NoError(t, err)
	require.Equal(t, "11", out, "zero-decimal amounts round to the nearest whole unit")
}

func TestFormatAmountZero(t *testing.T) {
	out, err := FormatAmount(models.MoneyFromMinorUnits(0, "USD"))
	require.NoError(t, err)
	require.Equal(t, "0.00", out)
}

func TestFormatAmountRejectsSubMinorPrecision(t *testing.T) {
	m := models.NewMoney(decimal.RequireFromString("1.005"), "USD")
	_, err := FormatAmount(m)
	require.Error(t, err)
}

func TestParseAmountRoundTrip(t *testing.T) {
	m, err := ParseAmount("12.34", "USD")
	require.NoError(t, err)
	require.Equal(t, int64(1234), MinorUnits(m))
	require.Equal(t, "USD", m.Currency)

	_, err = ParseAmount("not-a-number", "USD")
	require.Error(t, err)
}

func TestCurrencyExponent(t *testing.T) {
	require.Equal(t, 0, CurrencyExponent("JPY"))
	require.Equal(t, 0, CurrencyExponent("XOF"))
	require.Equal(t, 2, CurrencyExponent("USD"))
	require.Equal(t, 2, CurrencyExponent("BRL"))
}
