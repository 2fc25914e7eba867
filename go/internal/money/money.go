package money

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalid is returned when a value cannot be represented as an Amount.
var ErrInvalid = errors.New("invalid money amount")

// Amount is a money value held as an integer number of hundredths (cents).
// Every budget, price and bid in the system uses this one representation.
type Amount int64

var (
	maxAmount = decimal.NewFromInt(math.MaxInt64)
	minAmount = decimal.NewFromInt(math.MinInt64)
)

// FromUnits builds an Amount from whole currency units. It is meant for
// constants and panics when units does not fit; input goes through FromDecimal.
func FromUnits(units int64) Amount {
	if units > math.MaxInt64/100 || units < math.MinInt64/100 {
		panic(fmt.Sprintf("money: %d units out of range", units))
	}
	return Amount(units * 100)
}

// FromDecimal converts d to an Amount. Values with sub-cent precision are rejected.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("%w: %s has more than two decimal places", ErrInvalid, d.String())
	}
	if cents.GreaterThan(maxAmount) || cents.LessThan(minAmount) {
		return 0, fmt.Errorf("%w: %s out of range", ErrInvalid, d.String())
	}
	return Amount(cents.IntPart()), nil
}

// Parse reads a decimal string such as "25000" or "199.50".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return FromDecimal(d)
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the amount as a decimal in currency units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

func (a Amount) IsPositive() bool {
	return a > 0
}

// String renders the amount without trailing zeros ("25000", "12.5").
func (a Amount) String() string {
	return a.Decimal().String()
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

// MarshalJSON emits a plain JSON number in currency units.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a numeric string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		data = data[1 : len(data)-1]
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Scan implements sql.Scanner for NUMERIC columns. Postgres drivers hand
// NUMERIC back as text, which is parsed exactly.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = 0
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case int64:
		parsed, err := FromDecimal(decimal.NewFromInt(v))
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case float64:
		parsed, err := FromDecimal(decimal.NewFromFloat(v).Round(2))
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalid, src)
	}
}

// Value implements driver.Valuer, writing a fixed two-place decimal string.
func (a Amount) Value() (driver.Value, error) {
	return a.Decimal().StringFixed(2), nil
}
