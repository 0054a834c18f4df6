package money

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// Amount pairs a minor-unit value with its ISO 4217 currency code.
type Amount struct {
	Value    Money  `json:"value"`
	Currency string `json:"currency"`
}

// MaxAmount is the largest single amount the engine accepts as input. Sums of
// a few hundred such amounts, plus tax, still fit in a Money.
const MaxAmount Money = 1_000_000_000_000_000

// Round converts a floating intermediate into minor units, rounding half away
// from zero. Values outside the int64 range saturate instead of wrapping.
func Round(v float64) Money {
	r := math.Round(v)
	switch {
	case math.IsNaN(r):
		return 0
	case r >= math.MaxInt64:
		return math.MaxInt64
	case r <= math.MinInt64:
		return math.MinInt64
	}
	return Money(r)
}

// Add sums amounts, saturating at the int64 bounds.
func Add(values ...Money) Money {
	var sum Money
	for _, v := range values {
		switch {
		case v > 0 && sum > math.MaxInt64-v:
			sum = math.MaxInt64
		case v < 0 && sum < math.MinInt64-v:
			sum = math.MinInt64
		default:
			sum += v
		}
	}
	return sum
}

// Max returns the larger of a and b.
func Max(a, b Money) Money {
	if a > b {
		return a
	}
	return b
}

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}

// Clamp forces v into [lo, hi].
func Clamp(v, lo, hi Money) Money {
	return Max(lo, Min(v, hi))
}

// zero-decimal and three-decimal currencies; everything else uses two.
var exponents = map[string]int32{
	"BHD": 3, "JOD": 3, "KWD": 3, "OMR": 3, "TND": 3,
	"CLP": 0, "ISK": 0, "JPY": 0, "KRW": 0, "VND": 0, "XAF": 0, "XOF": 0,
	"IDR": 2, "INR": 2, "USD": 2, "EUR": 2, "GBP": 2,
}

// Exponent reports the number of minor-unit digits for the currency.
func Exponent(currency string) int32 {
	if exp, ok := exponents[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return exp
	}
	return 2
}

// Format renders the amount as a decimal string in major units, e.g. "12.34 USD".
func (a Amount) Format() string {
	exp := Exponent(a.Currency)
	d := decimal.New(a.Value, -exp)
	if a.Currency == "" {
		return d.StringFixed(exp)
	}
	return fmt.Sprintf("%s %s", d.StringFixed(exp), strings.ToUpper(a.Currency))
}

// FromDecimal parses a major-unit decimal string ("12.345") into minor units
// using the currency exponent, rounding half away from zero.
func FromDecimal(value, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", value, err)
	}
	return d.Shift(Exponent(currency)).Round(0).IntPart(), nil
}
