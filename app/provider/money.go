package provider

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders minor units the way the gateway expects them:
// no thousands separators and no trailing zeros (45000 -> "450").
func FormatAmount(cents int64) string {
	return decimal.New(cents, -2).String()
}

// ParseAmountCents accepts gateway amounts such as "450", "450.0" or
// "1,250.50" and returns minor units.
func ParseAmountCents(raw string) (int64, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return 0, errors.New("amount is empty")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, err
	}
	cents := amount.Shift(2)
	if !cents.IsInteger() {
		return 0, errors.New("amount has more than two decimal places")
	}
	return cents.IntPart(), nil
}
