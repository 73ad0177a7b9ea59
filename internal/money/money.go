// Package money holds the fixed-point amount type used for ledger income and expenses.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fraction digits every stored amount carries.
const Scale = 2

var (
	ErrInvalidAmount = errors.New("invalid money amount")
	ErrTooManyPlaces = errors.New("amount has more than 2 fraction digits")
)

// Amount is a decimal quantity with two fraction digits, matching NUMERIC(12,2) columns.
type Amount struct {
	decimal.Decimal
}

// Zero is 0.00.
var Zero = Amount{decimal.Zero}

// New wraps d, rounding it to two fraction digits.
func New(d decimal.Decimal) Amount {
	return Amount{d.Round(Scale)}
}

// Parse reads a decimal string. It does not round: amounts with more than two
// fraction digits are rejected so callers never store a silently altered value.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	a := Amount{d}
	if !a.WellScaled() {
		return Zero, fmt.Errorf("%w: %q", ErrTooManyPlaces, s)
	}
	return a, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// WellScaled reports whether the amount fits in two fraction digits without rounding.
func (a Amount) WellScaled() bool {
	return a.Decimal.Equal(a.Decimal.Round(Scale))
}

func (a Amount) Add(b Amount) Amount { return Amount{a.Decimal.Add(b.Decimal)} }

func (a Amount) Sub(b Amount) Amount { return Amount{a.Decimal.Sub(b.Decimal)} }

func (a Amount) Cmp(b Amount) int { return a.Decimal.Cmp(b.Decimal) }

func (a Amount) Equal(b Amount) bool { return a.Decimal.Equal(b.Decimal) }

func (a Amount) LessThan(b Amount) bool { return a.Decimal.LessThan(b.Decimal) }

// String formats with exactly two fraction digits.
func (a Amount) String() string {
	return a.Decimal.StringFixed(Scale)
}

// MarshalJSON emits the amount as a quoted fixed-point string, e.g. "100.00".
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		return fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner; NULL scans as zero.
func (a *Amount) Scan(value any) error {
	if value == nil {
		*a = Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	a.Decimal = d
	return nil
}
