package types

import (
	"strconv"
	"strings"
)

type PaymentStatus int32

const (
	PaymentStatusUnspecified PaymentStatus = 0
	PaymentStatusPending     PaymentStatus = 1
	PaymentStatusPaid        PaymentStatus = 10
	PaymentStatusFailed      PaymentStatus = 20
	PaymentStatusCanceled    PaymentStatus = 30
	PaymentStatusExpired     PaymentStatus = 40
	PaymentStatusRefunded    PaymentStatus = 50
)

var paymentStatusNames = map[PaymentStatus]string{
	PaymentStatusUnspecified: "UNSPECIFIED",
	PaymentStatusPending:     "PENDING",
	PaymentStatusPaid:        "PAID",
	PaymentStatusFailed:      "FAILED",
	PaymentStatusCanceled:    "CANCELED",
	PaymentStatusExpired:     "EXPIRED",
	PaymentStatusRefunded:    "REFUNDED",
}

func (s PaymentStatus) String() string {
	if name, ok := paymentStatusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

func (s PaymentStatus) Valid() bool {
	_, ok := paymentStatusNames[s]
	return ok && s != PaymentStatusUnspecified
}

// ParsePaymentStatus accepts either the numeric code or the status name.
func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if code, err := strconv.ParseInt(raw, 10, 32); err == nil {
		status := PaymentStatus(code)
		return status, status.Valid()
	}
	for status, name := range paymentStatusNames {
		if name == raw {
			return status, status != PaymentStatusUnspecified
		}
	}
	return PaymentStatusUnspecified, false
}

type ProviderType int32

const (
	ProviderTypeUnspecified ProviderType = 0
	ProviderTypeESewa       ProviderType = 1
)

func (p ProviderType) String() string {
	switch p {
	case ProviderTypeESewa:
		return "esewa"
	default:
		return "unspecified"
	}
}

func ParseProviderType(raw string) (ProviderType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "esewa", "1":
		return ProviderTypeESewa, true
	default:
		return ProviderTypeUnspecified, false
	}
}
