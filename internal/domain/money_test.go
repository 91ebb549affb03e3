package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/rv-park/backend/internal/domain"
)

func usd(s string) domain.Money {
	m, err := domain.ParseMoney(s, "USD")
	if err != nil {
		panic(err)
	}
	return m
}

func TestMoneyOf_RoundsHalfUp(t *testing.T) {
	assert.Equal(t, "10.01", domain.MoneyOf(10.005).Amount().StringFixed(2))
	assert.Equal(t, "10.00", domain.MoneyOf(10.004).Amount().StringFixed(2))
	assert.Equal(t, "USD", domain.MoneyOf(1).Currency())
}

func TestMoney_AddSubtractRoundTrip(t *testing.T) {
	a := usd("123.45")
	b := usd("67.89")

	sum, err := a.Add(b)
	require.NoError(t, err)
	back, err := sum.Subtract(b)
	require.NoError(t, err)

	assert.True(t, back.Equal(a))
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	eur := domain.NewMoney(decimal.NewFromInt(5), "EUR")

	_, err := domain.MoneyOf(20.00).Subtract(eur)
	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)

	_, err = domain.MoneyOf(20.00).Add(eur)
	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)

	_, err = domain.MoneyOf(20.00).Compare(eur)
	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)

	assert.False(t, domain.MoneyOf(5).Equal(eur))
}

func TestMoney_MultiplyDivide(t *testing.T) {
	m := usd("10.00")

	assert.Equal(t, "33.33", m.Multiply(decimal.RequireFromString("3.333")).Amount().StringFixed(2))
	assert.Equal(t, "120.00", usd("40.00").MultiplyInt(3).Amount().StringFixed(2))

	third, err := m.Divide(decimal.NewFromInt(3))
	require.NoError(t, err)
	assert.Equal(t, "3.33", third.Amount().StringFixed(2))

	twoThirds, err := usd("20.00").Divide(decimal.NewFromInt(3))
	require.NoError(t, err)
	assert.Equal(t, "6.67", twoThirds.Amount().StringFixed(2))
}

func TestMoney_DivideByZero(t *testing.T) {
	_, err := usd("10.00").Divide(decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidOperand)
}

func TestMoney_Percentage(t *testing.T) {
	assert.Equal(t, "25.00", usd("100.00").Percentage(decimal.NewFromInt(25)).Amount().StringFixed(2))
	// 12.345% → 0.1235 at four decimals → 12.35 on 100.
	assert.Equal(t, "12.35", usd("100.00").Percentage(decimal.RequireFromString("12.345")).Amount().StringFixed(2))
}

func TestMoney_SignPredicates(t *testing.T) {
	over, err := usd("10.00").Subtract(usd("15.00"))
	require.NoError(t, err)

	assert.True(t, over.IsNegative())
	assert.False(t, over.IsPositive())
	assert.True(t, over.ClampZero().IsZero())
	assert.Equal(t, "5.00", over.Abs().Amount().StringFixed(2))
	assert.True(t, domain.Zero("USD").IsZero())
}

func TestMoney_Compare(t *testing.T) {
	cmp, err := usd("1.00").Compare(usd("2.00"))
	require.NoError(t, err)
	assert.Equal(t, -1, cmp)

	cmp, err = usd("2.00").Compare(usd("2"))
	require.NoError(t, err)
	assert.Equal(t, 0, cmp)
}

func TestMoney_Formatting(t *testing.T) {
	assert.Equal(t, "USD 12.50", usd("12.5").String())
	assert.Equal(t, "$12.50", usd("12.5").Display())
	assert.Equal(t, "-$3.00", usd("-3").Display())
	assert.Equal(t, "JPY 7.00", domain.NewMoney(decimal.NewFromInt(7), "jpy").Display())
}

func TestMoney_IsValidCurrency(t *testing.T) {
	assert.True(t, usd("1").IsValidCurrency())
	assert.False(t, domain.NewMoney(decimal.NewFromInt(1), "US").IsValidCurrency())
}

func TestMoney_JSON(t *testing.T) {
	b, err := json.Marshal(usd("40"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"40.00","currency":"USD"}`, string(b))

	var m domain.Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"7.255"}`), &m))
	assert.True(t, m.Equal(usd("7.26")))

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"seven"}`), &m))
}
