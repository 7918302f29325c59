package fiserv

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a gateway or locale-formatted amount string into a
// decimal. Argentine formatting uses "." as thousands separator and "," as
// decimal separator, so "1.234,56" and "1234.56" both parse to 1234.56.
// An empty string parses to zero.
func ParseAmount(input string) (decimal.Decimal, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmountFormat, input)
	}
	return d, nil
}

// FormatChargeTotal renders an amount as the whole-unit string the gateway
// requires in chargetotal. The gateway accepts no decimals.
func FormatChargeTotal(amount decimal.Decimal) string {
	return amount.Round(0).StringFixed(0)
}

// ToFloat converts a decimal to the float64 persisted on monetary fields,
// quantized to three places rounding half down.
func ToFloat(amount decimal.Decimal) float64 {
	f, _ := RoundHalfDown(amount, 3).Float64()
	return f
}

// RoundHalfDown rounds to the given number of places with ties going toward
// zero. 0.0005 at three places becomes 0.000, not 0.001.
func RoundHalfDown(d decimal.Decimal, places int32) decimal.Decimal {
	shifted := d.Abs().Shift(places)
	floor := shifted.Floor()
	frac := shifted.Sub(floor)
	half := decimal.New(5, -1)
	if frac.GreaterThan(half) {
		floor = floor.Add(decimal.New(1, 0))
	}
	result := floor.Shift(-places)
	if d.IsNegative() {
		return result.Neg()
	}
	return result
}
