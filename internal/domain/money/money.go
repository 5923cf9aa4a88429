// Package money provides a fixed-point currency amount kept in integer minor units.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency tag
type Currency string

// CurrencyINR is the console's only currency; amounts are in paise
const CurrencyINR Currency = "INR"

// MinorDigits is the number of minor-unit digits carried by every amount
const MinorDigits = 2

// minorPerUnit is 10^MinorDigits
const minorPerUnit = 100

var (
	// ErrCurrencyMismatch is returned when arithmetic mixes two currencies
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrInvalidAmount is returned when a string cannot be parsed as an amount
	ErrInvalidAmount = errors.New("invalid amount")
)

// Money is an amount in integer minor units plus its currency.
// No floating-point value is ever stored.
type Money struct {
	Minor    int64
	Currency Currency
}

// New creates an amount from minor units
func New(minor int64, currency Currency) Money {
	return Money{Minor: minor, Currency: currency}
}

// Zero returns a zero amount in the given currency
func Zero(currency Currency) Money {
	return Money{Currency: currency}
}

// FromDecimal converts a major-unit decimal, rounding half away from zero to the minor unit
func FromDecimal(d decimal.Decimal, currency Currency) Money {
	minor := d.Shift(MinorDigits).Round(0).IntPart()
	return Money{Minor: minor, Currency: currency}
}

// Parse parses a user- or OCR-entered amount such as "1,234.50", "₹ 500" or "Rs. 20".
func Parse(s string, currency Currency) (Money, error) {
	cleaned := strings.TrimSpace(s)
	for _, mark := range []string{"₹", "Rs.", "Rs", "rs.", "rs", "INR", ",", " "} {
		cleaned = strings.ReplaceAll(cleaned, mark, "")
	}
	if cleaned == "" {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d, currency), nil
}

// MustParse is Parse for literals known to be valid
func MustParse(s string, currency Currency) Money {
	m, err := Parse(s, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Decimal returns the amount in major units
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Minor, -MinorDigits)
}

// String formats the amount with exactly two decimal places
func (m Money) String() string {
	return m.Decimal().StringFixed(MinorDigits)
}

// Add returns m + o. The currency of m is kept.
func (m Money) Add(o Money) Money {
	return Money{Minor: m.Minor + o.Minor, Currency: m.Currency}
}

// CheckCurrency returns ErrCurrencyMismatch unless o is in m's currency
func (m Money) CheckCurrency(o Money) error {
	if !m.SameCurrency(o) {
		return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.currencyOrDefault(), o.currencyOrDefault())
	}
	return nil
}

// Sub returns m - o
func (m Money) Sub(o Money) Money {
	return Money{Minor: m.Minor - o.Minor, Currency: m.Currency}
}

// Neg returns -m
func (m Money) Neg() Money {
	return Money{Minor: -m.Minor, Currency: m.Currency}
}

// Abs returns |m|
func (m Money) Abs() Money {
	if m.Minor < 0 {
		return m.Neg()
	}
	return m
}

// Cmp compares the minor units of m and o: -1, 0 or +1
func (m Money) Cmp(o Money) int {
	switch {
	case m.Minor < o.Minor:
		return -1
	case m.Minor > o.Minor:
		return 1
	default:
		return 0
	}
}

// SameCurrency reports whether both amounts carry the same currency tag.
// An empty tag is treated as the default currency.
func (m Money) SameCurrency(o Money) bool {
	return m.currencyOrDefault() == o.currencyOrDefault()
}

func (m Money) currencyOrDefault() Currency {
	if m.Currency == "" {
		return CurrencyINR
	}
	return m.Currency
}

// IsZero reports whether the amount is zero
func (m Money) IsZero() bool { return m.Minor == 0 }

// IsNegative reports whether the amount is below zero
func (m Money) IsNegative() bool { return m.Minor < 0 }

// IsPositive reports whether the amount is above zero
func (m Money) IsPositive() bool { return m.Minor > 0 }

// Units returns n whole currency units, e.g. Units(1, INR) is 100 paise
func Units(n int64, currency Currency) Money {
	return Money{Minor: n * minorPerUnit, Currency: currency}
}

// Split divides m into n shares. The remainder left after integer division is
// handed out one minor unit at a time to the first shares, so the shares always
// sum to m exactly and the result depends only on n.
func (m Money) Split(n int) []Money {
	if n <= 0 {
		return nil
	}

	quotient := m.Minor / int64(n)
	remainder := m.Minor % int64(n)

	step := int64(1)
	if remainder < 0 {
		step = -1
		remainder = -remainder
	}

	shares := make([]Money, n)
	for i := range shares {
		shares[i] = Money{Minor: quotient, Currency: m.Currency}
		if int64(i) < remainder {
			shares[i].Minor += step
		}
	}
	return shares
}

type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency,omitempty"`
}

// MarshalJSON encodes the amount as a major-unit decimal string
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}{Amount: m.String(), Currency: m.currencyOrDefault()})
}

// UnmarshalJSON accepts {"amount": "12.50"} or {"amount": 12.5}
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	currency := raw.Currency
	if currency == "" {
		currency = CurrencyINR
	}
	*m = FromDecimal(raw.Amount, currency)
	return nil
}
