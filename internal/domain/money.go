package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// DefaultCurrency is used by MoneyOf and by rules that do not name a currency.
const DefaultCurrency = "USD"

// moneyScale is the number of decimal places every Money amount carries.
const moneyScale = 2

var hundred = decimal.NewFromInt(100)

// Money is an immutable currency amount with a fixed two-digit scale.
// Every constructor and arithmetic result is rounded half-up (away from zero)
// to two decimals, so 10.005 becomes 10.01.
//
// Binary operations require both operands to carry the same currency and
// fail with ErrCurrencyMismatch otherwise.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney builds a Money from an exact decimal amount.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{
		amount:   amount.Round(moneyScale),
		currency: strings.ToUpper(strings.TrimSpace(currency)),
	}
}

// MoneyOf builds a USD amount from a float literal. Intended for fixtures and
// rate tables, where the shortest decimal representation of f is what the
// author meant.
func MoneyOf(f float64) Money {
	return NewMoney(decimal.NewFromFloat(f), DefaultCurrency)
}

// ParseMoney parses a decimal string such as "40.00".
func ParseMoney(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("%w: invalid amount %q", ErrValidation, s)
	}
	return NewMoney(d, currency), nil
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return NewMoney(decimal.Zero, currency)
}

// Amount returns the rounded decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the upper-case ISO 4217 code.
func (m Money) Currency() string { return m.currency }

// Add returns m + other.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Add(other.amount), m.currency), nil
}

// Subtract returns m - other. The result may be negative.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Sub(other.amount), m.currency), nil
}

// Multiply scales m by factor, rounding the product to two decimals.
func (m Money) Multiply(factor decimal.Decimal) Money {
	return NewMoney(m.amount.Mul(factor), m.currency)
}

// MultiplyInt scales m by a whole-number factor such as a night count.
func (m Money) MultiplyInt(n int) Money {
	return m.Multiply(decimal.NewFromInt(int64(n)))
}

// Divide returns m / divisor rounded to two decimals.
func (m Money) Divide(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, fmt.Errorf("%w: division by zero", ErrInvalidOperand)
	}
	return Money{amount: m.amount.DivRound(divisor, moneyScale), currency: m.currency}, nil
}

// Percentage returns pct percent of m. The pct/100 factor is computed at
// four decimals before the multiplication is rounded to two.
func (m Money) Percentage(pct decimal.Decimal) Money {
	return m.Multiply(pct.DivRound(hundred, 4))
}

// IsZero reports whether the amount equals zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// IsNegative reports whether the amount is strictly below zero.
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Compare returns -1, 0 or +1 as m is less than, equal to, or greater than other.
func (m Money) Compare(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	return m.amount.Cmp(other.amount), nil
}

// Equal reports whether both currency and amount match. Unlike Compare it
// never fails; different currencies are simply unequal.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// Abs returns the absolute value of m.
func (m Money) Abs() Money {
	return Money{amount: m.amount.Abs(), currency: m.currency}
}

// ClampZero returns m, or zero when m is negative.
func (m Money) ClampZero() Money {
	if m.IsNegative() {
		return Zero(m.currency)
	}
	return m
}

// IsValidCurrency reports whether the currency is a recognised ISO 4217 code.
func (m Money) IsValidCurrency() bool {
	if len(m.currency) != 3 {
		return false
	}
	_, err := currency.ParseISO(m.currency)
	return err == nil
}

// String formats m as "USD 12.50".
func (m Money) String() string {
	return m.currency + " " + m.amount.StringFixed(moneyScale)
}

var currencySymbols = map[string]string{
	"USD": "$",
	"CAD": "CA$",
	"EUR": "€",
	"GBP": "£",
}

// Display formats m for humans, e.g. "$12.50". Unknown currencies fall back
// to the String form.
func (m Money) Display() string {
	sym, ok := currencySymbols[m.currency]
	if !ok {
		return m.String()
	}
	if m.IsNegative() {
		return "-" + sym + m.amount.Abs().StringFixed(moneyScale)
	}
	return sym + m.amount.StringFixed(moneyScale)
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return nil
}

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// MarshalJSON encodes m as {"amount":"12.50","currency":"USD"}. The amount is
// a string so no precision is lost in JavaScript clients.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.StringFixed(moneyScale), Currency: m.currency})
}

// UnmarshalJSON decodes the MarshalJSON form. A missing currency defaults to USD.
func (m *Money) UnmarshalJSON(b []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v.Currency == "" {
		v.Currency = DefaultCurrency
	}
	parsed, err := ParseMoney(v.Amount, v.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
