package money

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is a fixed-point monetary value: an amount in minor units (cents,
// paise) plus an ISO 4217 currency code. Arithmetic is exact; formatting
// for display is left to callers.
type Money struct {
	Units    int64  `json:"units"`
	Currency string `json:"currency"`
}

// ErrCurrencyMismatch is returned when combining values of different currencies.
var ErrCurrencyMismatch = fmt.Errorf("currency mismatch")

// New creates a Money value from minor units.
func New(units int64, currency string) Money {
	return Money{Units: units, Currency: strings.ToUpper(strings.TrimSpace(currency))}
}

// Zero returns a zero value in the given currency.
func Zero(currency string) Money {
	return New(0, currency)
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Units == 0
}

// Add returns m + other. Both values must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("adding %s to %s: %w", other.Currency, m.Currency, ErrCurrencyMismatch)
	}
	return Money{Units: m.Units + other.Units, Currency: m.Currency}, nil
}

// Sub returns m - other. Both values must share a currency.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("subtracting %s from %s: %w", other.Currency, m.Currency, ErrCurrencyMismatch)
	}
	return Money{Units: m.Units - other.Units, Currency: m.Currency}, nil
}

// MulInt returns m scaled by a whole quantity.
func (m Money) MulInt(n int) Money {
	return Money{Units: m.Units * int64(n), Currency: m.Currency}
}

// Float returns the major-unit value as a float64. Display only; never
// feed the result back into arithmetic.
func (m Money) Float() float64 {
	return float64(m.Units) / 100.0
}

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.Units/100, abs(m.Units%100), m.Currency)
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// Parse converts whatever numeric representation an extractor yields into
// minor units. Accepted: float64 (major units), string decimals with dot or
// comma separators and optional currency symbols, json.Number, and integer
// types (already minor units are not assumed; integers are major units).
func Parse(v any, currency string) (Money, error) {
	switch val := v.(type) {
	case nil:
		return Money{}, fmt.Errorf("parsing amount: value is null")
	case float64:
		return fromMajor(val, currency), nil
	case float32:
		return fromMajor(float64(val), currency), nil
	case int:
		return New(int64(val)*100, currency), nil
	case int64:
		return New(val*100, currency), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return Money{}, fmt.Errorf("parsing amount %q: %w", val.String(), err)
		}
		return fromMajor(f, currency), nil
	case string:
		return parseString(val, currency)
	default:
		return Money{}, fmt.Errorf("parsing amount: unsupported type %T", v)
	}
}

// fromMajor converts a major-unit float to minor units with half-up rounding.
func fromMajor(f float64, currency string) Money {
	return New(int64(math.Round(f*100)), currency)
}

func parseString(s, currency string) (Money, error) {
	s = strings.TrimSpace(s)
	// Strip common currency symbols and thousands separators the extractor
	// tends to leave in ("₹1,234.56", "$12.99").
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		default:
			return -1
		}
	}, s)
	if s == "" {
		return Money{}, fmt.Errorf("parsing amount: empty value")
	}
	// A trailing comma group of two digits is a decimal comma; any other
	// comma is a thousands separator.
	if i := strings.LastIndex(s, ","); i != -1 && len(s)-i-1 == 2 && !strings.Contains(s[i:], ".") {
		s = s[:i] + "." + s[i+1:]
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Money{}, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return fromMajor(f, currency), nil
}
