package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Youndhen-tamang/kundcoffee-sub002/app/entity"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/types"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentAlreadyExists = errors.New("payment already exists")
	ErrPaymentStale         = errors.New("payment was modified concurrently")
)

const paymentColumns = `id, store_id, request_id, session_id,
			amount_cents, currency, status, provider,
			transaction_uuid, provider_ref, status_callback_url, metadata_json,
			notification_status, notification_attempts, notification_next_at, notification_last_error,
			settled_at, created_at, updated_at`

type PaymentFilter struct {
	StoreID   string
	SessionID uint64
	HasStatus bool
	Status    int32
	Provider  int32
	Limit     int32
	Offset    int32
}

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	metadataJSON, err := serializeMetadata(payment.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO payments (
			store_id, request_id, session_id,
			amount_cents, currency, status, provider,
			transaction_uuid, provider_ref, status_callback_url, metadata_json,
			notification_status, notification_attempts, notification_next_at, notification_last_error,
			settled_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		payment.StoreID,
		payment.RequestID,
		nullableUint64Value(payment.SessionID),
		payment.AmountCents,
		payment.Currency,
		payment.Status,
		payment.Provider,
		payment.TransactionUUID,
		nullableStringValue(payment.ProviderRef),
		payment.StatusCallbackURL,
		metadataJSON,
		payment.NotificationStatus,
		payment.NotificationAttempts,
		nullableTimeValue(payment.NotificationNextAt),
		nullableStringValue(payment.NotificationLastErr),
		nullableTimeValue(payment.SettledAt),
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrPaymentAlreadyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	payment.ID = uint64(id)
	return nil
}

// Update persists everything except the settlement transition, which only
// the finalizer performs. The row is written only while it still has
// expectedStatus, the status the caller read; otherwise ErrPaymentStale is
// returned. A PAID row is never moved to another status here.
func (r *PaymentRepository) Update(ctx context.Context, payment *entity.Payment, expectedStatus int32) error {
	if expectedStatus == int32(types.PaymentStatusPaid) && payment.Status != expectedStatus {
		return ErrPaymentStale
	}

	metadataJSON, err := serializeMetadata(payment.Metadata)
	if err != nil {
		return err
	}

	query := `
		UPDATE payments SET
			status = ?,
			provider_ref = ?,
			status_callback_url = ?,
			metadata_json = ?,
			notification_status = ?,
			notification_attempts = ?,
			notification_next_at = ?,
			notification_last_error = ?,
			updated_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		payment.Status,
		nullableStringValue(payment.ProviderRef),
		payment.StatusCallbackURL,
		metadataJSON,
		payment.NotificationStatus,
		payment.NotificationAttempts,
		nullableTimeValue(payment.NotificationNextAt),
		nullableStringValue(payment.NotificationLastErr),
		payment.UpdatedAt,
		payment.ID,
		expectedStatus,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPaymentStale
	}

	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id uint64) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`
	return r.findOne(ctx, query, id)
}

func (r *PaymentRepository) FindByStoreRequestID(ctx context.Context, storeID, requestID string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE store_id = ? AND request_id = ? LIMIT 1`
	return r.findOne(ctx, query, storeID, requestID)
}

func (r *PaymentRepository) List(ctx context.Context, filter PaymentFilter) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments`

	conditions := make([]string, 0, 4)
	args := make([]interface{}, 0, 6)

	if strings.TrimSpace(filter.StoreID) != "" {
		conditions = append(conditions, "store_id = ?")
		args = append(args, filter.StoreID)
	}
	if filter.SessionID > 0 {
		conditions = append(conditions, "session_id = ?")
		args = append(args, filter.SessionID)
	}
	if filter.HasStatus {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Provider > 0 {
		conditions = append(conditions, "provider = ?")
		args = append(args, filter.Provider)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	return r.findMany(ctx, query, args...)
}

func (r *PaymentRepository) ListDueNotification(ctx context.Context, now time.Time, limit int32) ([]*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE notification_status = ?
		  AND notification_next_at IS NOT NULL
		  AND notification_next_at <= ?
		ORDER BY notification_next_at ASC
		LIMIT ?
	`
	return r.findMany(ctx, query, entity.NotificationDeliveryPending, now, limit)
}

func (r *PaymentRepository) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = ?
		  AND created_at <= ?
		ORDER BY created_at ASC
		LIMIT ?
	`
	return r.findMany(ctx, query, int32(types.PaymentStatusPending), cutoff, limit)
}

func (r *PaymentRepository) ListForReconcile(ctx context.Context, before time.Time, limit int32) ([]*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = ?
		  AND transaction_uuid <> ''
		  AND updated_at <= ?
		ORDER BY updated_at ASC
		LIMIT ?
	`
	return r.findMany(ctx, query, int32(types.PaymentStatusPending), before, limit)
}

func (r *PaymentRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.Payment, error) {
	payment := &entity.Payment{}
	if err := scanPayment(r.db.QueryRowContext(ctx, query, args...), payment); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *PaymentRepository) findMany(ctx context.Context, query string, args ...interface{}) ([]*entity.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]*entity.Payment, 0)
	for rows.Next() {
		item := &entity.Payment{}
		if err := scanPayment(rows, item); err != nil {
			return nil, err
		}
		payments = append(payments, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(scan rowScanner, payment *entity.Payment) error {
	var sessionID sql.NullInt64
	var providerRef sql.NullString
	var metadataJSON string
	var notificationNextAt sql.NullTime
	var notificationLastErr sql.NullString
	var settledAt sql.NullTime

	err := scan.Scan(
		&payment.ID,
		&payment.StoreID,
		&payment.RequestID,
		&sessionID,
		&payment.AmountCents,
		&payment.Currency,
		&payment.Status,
		&payment.Provider,
		&payment.TransactionUUID,
		&providerRef,
		&payment.StatusCallbackURL,
		&metadataJSON,
		&payment.NotificationStatus,
		&payment.NotificationAttempts,
		&notificationNextAt,
		&notificationLastErr,
		&settledAt,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return err
	}

	payment.SessionID = uint64PtrFromNull(sessionID)
	payment.ProviderRef = stringPtrFromNull(providerRef)
	payment.NotificationNextAt = timePtrFromNull(notificationNextAt)
	payment.NotificationLastErr = stringPtrFromNull(notificationLastErr)
	payment.SettledAt = timePtrFromNull(settledAt)

	metadata, err := parseMetadata(metadataJSON)
	if err != nil {
		return err
	}
	payment.Metadata = metadata

	return nil
}
