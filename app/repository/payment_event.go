package repository

import (
	"context"

	"github.com/Youndhen-tamang/kundcoffee-sub002/app/entity"
)

const insertPaymentEventQuery = `
		INSERT INTO payment_events (
			payment_id, event_type, old_status, new_status, provider_ref, payload_json, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

type PaymentEventRepository struct {
	db DBTX
}

func NewPaymentEventRepository(db DBTX) *PaymentEventRepository {
	return &PaymentEventRepository{db: db}
}

// Create is also called by the finalizer with its transaction as db.
func (r *PaymentEventRepository) Create(ctx context.Context, event *entity.PaymentEvent) error {
	result, err := r.db.ExecContext(ctx, insertPaymentEventQuery,
		event.PaymentID,
		event.EventType,
		nullableInt32Value(event.OldStatus),
		event.NewStatus,
		nullableStringValue(event.ProviderRef),
		nullableStringValue(event.PayloadJSON),
		event.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	event.ID = uint64(id)

	return nil
}
