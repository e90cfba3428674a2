package entity

import "time"

const (
	TableStatusAvailable = "AVAILABLE"
	TableStatusOccupied  = "OCCUPIED"
)

// TableSession is the open tab of a table. Totals accumulate while orders are
// placed and are frozen into a Settlement when the session's payment settles.
type TableSession struct {
	ID      uint64
	StoreID string
	TableID uint64

	SubtotalCents      int64
	TaxCents           int64
	ServiceChargeCents int64
	DiscountCents      int64

	IsActive bool
	ClosedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DueCents is what the diner owes for the session.
func (s *TableSession) DueCents() int64 {
	return s.SubtotalCents + s.TaxCents + s.ServiceChargeCents - s.DiscountCents
}
