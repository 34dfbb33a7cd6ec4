package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value as delivered by the backend. Valid is false when
// the value was absent, null or not numeric.
type Amount struct {
	Value decimal.Decimal
	Valid bool
}

// NewAmount wraps a decimal as a valid Amount.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Value: d, Valid: true}
}

// Bounds on accepted amounts. Formatting expands the exponent, so a value
// like 1e99999999 would otherwise produce a hundred-megabyte string.
const (
	maxAmountText     = 64
	maxAmountDigits   = 40
	maxAmountExponent = 32
)

// ParseAmount parses user or server text. Non-numeric or out-of-range input
// yields an invalid Amount.
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxAmountText {
		return Amount{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}
	}
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return Amount{}
	}
	if d.NumDigits() > maxAmountDigits {
		return Amount{}
	}
	return NewAmount(d)
}

// OrZero returns the value, or zero for an invalid Amount.
func (a Amount) OrZero() decimal.Decimal {
	if !a.Valid {
		return decimal.Zero
	}
	return a.Value
}

// String returns the plain decimal text, or "" when invalid.
func (a Amount) String() string {
	if !a.Valid {
		return ""
	}
	return a.Value.String()
}

// UnmarshalJSON accepts numbers, numeric strings, null and Mongo's
// {"$numberDecimal": "..."} wrapper. Anything else decodes to an invalid
// Amount instead of failing the surrounding document.
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '{' {
		var wrapped struct {
			NumberDecimal string `json:"$numberDecimal"`
		}
		if err := json.Unmarshal(data, &wrapped); err == nil {
			*a = ParseAmount(wrapped.NumberDecimal)
		}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*a = ParseAmount(s)
		return nil
	}
	*a = ParseAmount(string(data))
	return nil
}

// MarshalJSON writes the amount as a JSON string, or null when invalid.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value.String())
}
