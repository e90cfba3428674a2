package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Youndhen-tamang/kundcoffee-sub002/app/entity"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/types"
)

var (
	ErrSessionNotActive = errors.New("table session is not active")
	ErrTableNotFound    = errors.New("restaurant table not found")

	errAlreadySettled = errors.New("payment already settled")
)

type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// FinalizeInput is everything the settlement transaction writes. Session
// totals are copied into the settlement as they were when verified.
type FinalizeInput struct {
	Payment *entity.Payment
	Session *entity.TableSession

	ProviderRef *string
	PayloadJSON *string

	NotificationStatus int32
	NotificationNextAt *time.Time

	SettledAt time.Time
}

type SettlementRepository struct {
	db TxBeginner
}

func NewSettlementRepository(db TxBeginner) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// Finalize marks the payment PAID, closes its session, frees the table and
// records the settlement in a single transaction. It returns false with a nil
// error when the payment was already PAID, in which case nothing is written.
func (r *SettlementRepository) Finalize(ctx context.Context, input *FinalizeInput) (bool, error) {
	if input == nil || input.Payment == nil || input.Session == nil {
		return false, errors.New("finalize input is incomplete")
	}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		return finalizeInTx(ctx, tx, input)
	})
	if errors.Is(err, errAlreadySettled) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func finalizeInTx(ctx context.Context, tx *sql.Tx, input *FinalizeInput) error {
	payment := input.Payment
	session := input.Session
	paid := int32(types.PaymentStatusPaid)
	now := input.SettledAt

	result, err := tx.ExecContext(ctx, `
		UPDATE payments SET
			status = ?,
			provider_ref = COALESCE(?, provider_ref),
			notification_status = ?,
			notification_attempts = 0,
			notification_next_at = ?,
			notification_last_error = NULL,
			settled_at = ?,
			updated_at = ?
		WHERE id = ? AND status <> ?
	`,
		paid,
		nullableStringValue(input.ProviderRef),
		input.NotificationStatus,
		nullableTimeValue(input.NotificationNextAt),
		now,
		now,
		payment.ID,
		paid,
	)
	if err != nil {
		return fmt.Errorf("mark payment paid: %w", err)
	}
	if affected, err := result.RowsAffected(); err != nil {
		return err
	} else if affected == 0 {
		return errAlreadySettled
	}

	result, err = tx.ExecContext(ctx, `
		UPDATE table_sessions SET is_active = 0, closed_at = ?, updated_at = ?
		WHERE id = ? AND store_id = ? AND is_active = 1
	`, now, now, session.ID, payment.StoreID)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if affected, err := result.RowsAffected(); err != nil {
		return err
	} else if affected == 0 {
		return ErrSessionNotActive
	}

	var tableID uint64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM restaurant_tables WHERE id = ? AND store_id = ? FOR UPDATE
	`, session.TableID, payment.StoreID).Scan(&tableID)
	if err == sql.ErrNoRows {
		return ErrTableNotFound
	}
	if err != nil {
		return fmt.Errorf("lock table: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE restaurant_tables SET status = ?, updated_at = ? WHERE id = ?
	`, entity.TableStatusAvailable, now, tableID); err != nil {
		return fmt.Errorf("release table: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO settlements (
			payment_id, session_id, table_id, store_id,
			amount_cents, subtotal_cents, tax_cents, service_charge_cents, discount_cents,
			provider_ref, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		payment.ID,
		session.ID,
		tableID,
		payment.StoreID,
		payment.AmountCents,
		session.SubtotalCents,
		session.TaxCents,
		session.ServiceChargeCents,
		session.DiscountCents,
		nullableStringValue(input.ProviderRef),
		now,
	); err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}

	oldStatus := payment.Status
	event := &entity.PaymentEvent{
		PaymentID:   payment.ID,
		EventType:   entity.PaymentEventSettled,
		OldStatus:   &oldStatus,
		NewStatus:   paid,
		ProviderRef: input.ProviderRef,
		PayloadJSON: input.PayloadJSON,
		CreatedAt:   now,
	}
	if err := NewPaymentEventRepository(tx).Create(ctx, event); err != nil {
		return fmt.Errorf("insert payment event: %w", err)
	}

	return nil
}
