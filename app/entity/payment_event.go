package entity

import "time"

const (
	PaymentEventCreated       = "payment_created"
	PaymentEventStatusChanged = "status_changed"
	PaymentEventSettled       = "payment_settled"
	PaymentEventCanceled      = "payment_canceled"
	PaymentEventExpired       = "payment_expired"
	PaymentEventReconciled    = "payment_reconciled"
)

type PaymentEvent struct {
	ID uint64

	PaymentID uint64

	EventType string

	OldStatus *int32
	NewStatus int32

	ProviderRef *string
	PayloadJSON *string

	CreatedAt time.Time
}
