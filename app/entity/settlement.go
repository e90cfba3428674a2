package entity

import "time"

type Settlement struct {
	ID uint64

	PaymentID uint64
	SessionID uint64
	TableID   uint64
	StoreID   string

	AmountCents        int64
	SubtotalCents      int64
	TaxCents           int64
	ServiceChargeCents int64
	DiscountCents      int64

	ProviderRef *string

	CreatedAt time.Time
}
