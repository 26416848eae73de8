// Package money represents monetary values as int64 minor currency
// units (cents). Floating point never touches an amount.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Amount is a quantity of money in minor units.
type Amount int64

var ErrMalformedAmount = errors.New("malformed decimal amount")

// ParseDecimal converts a two-decimal string such as "29.99" into an
// Amount (2999). A bare integer string is taken as whole currency
// units. No rounding: more than two fraction digits is an error.
func ParseDecimal(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMalformedAmount
	}
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	a := Amount(w*100 + f)
	if neg {
		a = -a
	}
	return a, nil
}

// MulQty multiplies a unit price by a line quantity.
func (a Amount) MulQty(qty int) Amount { return a * Amount(qty) }

// String renders the amount as a plain decimal, e.g. 5998 -> "59.98".
func (a Amount) String() string {
	v := int64(a)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON encodes the amount as a JSON number with two decimals so
// the wire format stays exact on both ends.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal
// string; both are parsed digit-wise, never through a float.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDecimal(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
