package entity

import "time"

const (
	GatewayCallbackProcessed int32 = 10
	GatewayCallbackIgnored   int32 = 15
	GatewayCallbackRejected  int32 = 20
)

// GatewayCallback is the audit record of one encoded result posted back after
// a gateway redirect, whatever the outcome of its verification.
type GatewayCallback struct {
	ID uint64

	PaymentID *uint64

	Provider        string
	TransactionUUID string
	EncodedData     string
	Status          int32
	Error           *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
