package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits carried by an Amount.
const Scale = 2

var ErrInvalidAmount = errors.New("invalid amount")

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// Amount is a monetary value in minor units (cents, fen).
// Amounts compare with plain integer equality.
type Amount int64

// Parse reads a decimal string such as "99.99" or "100".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// FromDecimal converts d to minor units. Values with more than Scale
// fractional digits are rejected rather than rounded.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	minor := d.Shift(Scale)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, Scale)
	}
	if minor.Abs().GreaterThan(maxMinor) {
		return 0, fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	return Amount(minor.IntPart()), nil
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

func (a Amount) Neg() Amount {
	return -a
}

func (a Amount) Mul(n int) Amount {
	return a * Amount(n)
}

func (a Amount) IsPositive() bool {
	return a > 0
}

// Grouped renders the amount with thousands separators, e.g. "1,234.50".
func (a Amount) Grouped() string {
	s := a.String()
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	lead := len(whole) % 3
	if lead > 0 {
		b.WriteString(whole[:lead])
	}
	for i := lead; i < len(whole); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(whole[i : i+3])
	}
	return sign + b.String() + "." + frac
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and numeric strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	v, err := Parse(strings.Trim(raw, `"`))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Sum adds up amounts.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, v := range amounts {
		total += v
	}
	return total
}
