package shared

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits every amount carries
const AmountScale = 4

// maxAmountExponent bounds parsing before shifting; 10^19 already exceeds int64
const maxAmountExponent = 19

var (
	ErrInvalidAmount        = errors.New("amount is not a decimal number")
	ErrNegativeAmount       = errors.New("amount must not be negative")
	ErrTooManyDecimalPlaces = errors.New("amount has more than four fractional digits")
	ErrAmountOutOfRange     = errors.New("amount is out of range")
	ErrAmountOverflow       = errors.New("amount arithmetic overflow")
)

// Amount is a fixed-precision decimal stored in ten-thousandths
type Amount int64

// ParseAmount parses a non-negative decimal with at most AmountScale fractional digits
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %q", ErrNegativeAmount, s)
	}
	if d.Exponent() < -AmountScale {
		return 0, fmt.Errorf("%w: %q", ErrTooManyDecimalPlaces, s)
	}
	if d.Exponent() > maxAmountExponent {
		return 0, fmt.Errorf("%w: %q", ErrAmountOutOfRange, s)
	}

	units := d.Shift(AmountScale).BigInt()
	if !units.IsInt64() {
		return 0, fmt.Errorf("%w: %q", ErrAmountOutOfRange, s)
	}
	return Amount(units.Int64()), nil
}

// MustParseAmount is ParseAmount for literals known to be valid
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns a+b or ErrAmountOverflow
func (a Amount) Add(b Amount) (Amount, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrAmountOverflow
	}
	return a + b, nil
}

// Sub returns a-b or ErrAmountOverflow
func (a Amount) Sub(b Amount) (Amount, error) {
	if (b > 0 && a < math.MinInt64+b) || (b < 0 && a > math.MaxInt64+b) {
		return 0, ErrAmountOverflow
	}
	return a - b, nil
}

func (a Amount) IsNegative() bool {
	return a < 0
}

// Units returns the raw ten-thousandths count
func (a Amount) Units() int64 {
	return int64(a)
}

// Decimal converts the amount to an exact shopspring decimal
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -AmountScale)
}

// String renders the amount with exactly four fractional digits
func (a Amount) String() string {
	return a.Decimal().StringFixed(AmountScale)
}

// MarshalJSON renders the amount as a fixed four-place decimal string
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}
