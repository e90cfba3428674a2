package entity

import "time"

const (
	NotificationDeliveryNone    int32 = 0
	NotificationDeliveryPending int32 = 1
	NotificationDeliverySuccess int32 = 10
	NotificationDeliveryFailed  int32 = 20
)

type Payment struct {
	ID uint64

	StoreID   string
	RequestID string
	SessionID *uint64

	AmountCents int64
	Currency    string

	Status   int32
	Provider int32

	TransactionUUID string
	ProviderRef     *string

	StatusCallbackURL string

	Metadata map[string]string

	NotificationStatus   int32
	NotificationAttempts int32
	NotificationNextAt   *time.Time
	NotificationLastErr  *string

	SettledAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Payment) HasSession() bool {
	return p != nil && p.SessionID != nil && *p.SessionID > 0
}
