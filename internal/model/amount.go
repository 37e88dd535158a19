package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount holds a numeric field exactly as the client sent it.
// Both JSON numbers and numeric strings are accepted; parsing is deferred
// so that a malformed value surfaces as a field violation rather than a
// decode failure.
type Amount string

// UnmarshalJSON keeps the raw text of any JSON value.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	*a = Amount(data)
	return nil
}

// Decimal parses the amount.
func (a Amount) Decimal() (decimal.Decimal, error) {
	s := strings.TrimSpace(string(a))
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// AmountOf is a convenience for building inputs in code.
func AmountOf(s string) *Amount {
	a := Amount(s)
	return &a
}
