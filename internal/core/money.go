// Package core provides the domain model shared by the session, service and
// aggregation layers.
//
// This file holds the best-effort amount type. Backends have sent amounts as
// JSON numbers, numeric strings and occasionally garbage; an Amount never fails
// to decode, it just records whether the value was usable.
package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a decimal money value plus a validity flag. An invalid Amount has a
// zero Value.
type Amount struct {
	Value decimal.Decimal
	Valid bool
}

// NewAmount wraps a float as a valid amount.
func NewAmount(f float64) Amount {
	return Amount{Value: decimal.NewFromFloat(f), Valid: true}
}

// ParseAmount parses s the way parseFloat would: the longest leading numeric
// prefix wins ("12.5kg" -> 12.5), including an exponent. Anything without a
// digit is invalid.
//
// Examples:
//
//	ParseAmount("100")    -> 100, valid
//	ParseAmount(" 12,34") -> 12, valid
//	ParseAmount("1e3")    -> 1000, valid
//	ParseAmount("abc")    -> 0, invalid
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	end := 0
	digits := 0
	dot := false
scan:
	for i, r := range s {
		switch {
		case (r == '-' || r == '+') && i == 0:
		case r >= '0' && r <= '9':
			digits++
		case r == '.' && !dot:
			dot = true
		default:
			break scan
		}
		end = i + 1
	}
	if digits == 0 {
		return Amount{}
	}
	mantissa := strings.TrimSuffix(s[:end], ".")
	neg := strings.HasPrefix(mantissa, "-")
	mantissa = strings.TrimLeft(mantissa, "+-")
	if strings.HasPrefix(mantissa, ".") {
		mantissa = "0" + mantissa
	}
	if neg {
		mantissa = "-" + mantissa
	}
	v, err := decimal.NewFromString(mantissa + exponent(s[end:]))
	if err != nil {
		return Amount{}
	}
	return Amount{Value: v, Valid: true}
}

// exponent returns the leading [eE][+-]?digits of s, or "".
func exponent(s string) string {
	if len(s) < 2 || (s[0] != 'e' && s[0] != 'E') {
		return ""
	}
	i := 1
	if s[i] == '+' || s[i] == '-' {
		i++
	}
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == i {
		return ""
	}
	return s[:j]
}

// ParseAmountStrict accepts only a complete decimal number, as a form field
// would. Trailing text makes the amount invalid.
func ParseAmountStrict(s string) Amount {
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}
	}
	return Amount{Value: v, Valid: true}
}

// UnmarshalJSON accepts numbers, numeric strings and null. It never returns an
// error so a malformed amount cannot sink a whole transaction list.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*a = Amount{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		*a = ParseAmount(s)
		return nil
	}
	v, err := decimal.NewFromString(string(b))
	if err != nil {
		return nil
	}
	*a = Amount{Value: v, Valid: true}
	return nil
}

// MarshalJSON writes the amount as a JSON number, or null when invalid.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return []byte(a.Value.String()), nil
}

// Float64 returns the value for display and for wire payloads.
func (a Amount) Float64() float64 {
	f, _ := a.Value.Float64()
	return f
}

func (a Amount) String() string {
	if !a.Valid {
		return "NaN"
	}
	return a.Value.StringFixed(2)
}
