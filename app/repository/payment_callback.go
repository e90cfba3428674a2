package repository

import (
	"context"

	"github.com/Youndhen-tamang/kundcoffee-sub002/app/entity"
)

type GatewayCallbackRepository struct {
	db DBTX
}

func NewGatewayCallbackRepository(db DBTX) *GatewayCallbackRepository {
	return &GatewayCallbackRepository{db: db}
}

func (r *GatewayCallbackRepository) Create(ctx context.Context, callback *entity.GatewayCallback) error {
	query := `
		INSERT INTO payment_callbacks (
			payment_id, provider, transaction_uuid, encoded_data, status, error, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		nullableUint64Value(callback.PaymentID),
		callback.Provider,
		callback.TransactionUUID,
		callback.EncodedData,
		callback.Status,
		nullableStringValue(callback.Error),
		callback.CreatedAt,
		callback.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	callback.ID = uint64(id)

	return nil
}
