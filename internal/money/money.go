package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// maxIntegerDigits bounds the whole part of an amount. Balances are stored
// as NUMERIC(15,2), which leaves 13 digits before the decimal point.
const maxIntegerDigits = 13

// ErrMalformed indicates the input could not be parsed as a 2-decimal amount.
var ErrMalformed = errors.New("malformed amount")

var intDigitLimit = decimal.New(1, maxIntegerDigits)

// Amount is a fixed-point decimal with exactly two fractional digits. All
// wallet balances and transaction amounts flow through this type so that
// arithmetic stays exact; binary floating point never touches money.
type Amount struct {
	dec decimal.Decimal
}

// Zero is the zero amount.
func Zero() Amount {
	return Amount{dec: decimal.Zero}
}

// Parse converts a decimal string into an Amount. Inputs with more than two
// fractional digits or more than thirteen integer digits are rejected.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	if !d.Equal(d.Round(2)) {
		return Amount{}, fmt.Errorf("%w: %q has more than 2 decimal places", ErrMalformed, s)
	}
	if d.Abs().GreaterThanOrEqual(intDigitLimit) {
		return Amount{}, fmt.Errorf("%w: %q exceeds %d integer digits", ErrMalformed, s, maxIntegerDigits)
	}
	return Amount{dec: d}, nil
}

// MustParse parses s and panics on failure. Intended for tests and constants.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{dec: a.dec.Add(b.dec)}
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount {
	return Amount{dec: a.dec.Sub(b.dec)}
}

// Cmp compares a with b: -1 if a < b, 0 if equal, +1 if a > b.
func (a Amount) Cmp(b Amount) int {
	return a.dec.Cmp(b.dec)
}

// Equal reports whether two amounts are numerically equal.
func (a Amount) Equal(b Amount) bool {
	return a.dec.Equal(b.dec)
}

// LessThan reports a < b.
func (a Amount) LessThan(b Amount) bool {
	return a.dec.LessThan(b.dec)
}

// IsPositive reports a > 0.
func (a Amount) IsPositive() bool {
	return a.dec.IsPositive()
}

// IsNegative reports a < 0.
func (a Amount) IsNegative() bool {
	return a.dec.IsNegative()
}

// String renders the amount with exactly two decimal places.
func (a Amount) String() string {
	return a.dec.StringFixed(2)
}

// MarshalJSON renders the amount as a JSON string to avoid float coercion
// in clients.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts either a JSON string or a bare number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
