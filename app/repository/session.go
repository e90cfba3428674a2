package repository

import (
	"context"
	"database/sql"

	"github.com/Youndhen-tamang/kundcoffee-sub002/app/entity"
)

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) FindByID(ctx context.Context, id uint64) (*entity.TableSession, error) {
	query := `
		SELECT id, store_id, table_id,
			subtotal_cents, tax_cents, service_charge_cents, discount_cents,
			is_active, closed_at, created_at, updated_at
		FROM table_sessions
		WHERE id = ?
	`

	session := &entity.TableSession{}
	var closedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.StoreID,
		&session.TableID,
		&session.SubtotalCents,
		&session.TaxCents,
		&session.ServiceChargeCents,
		&session.DiscountCents,
		&session.IsActive,
		&closedAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	session.ClosedAt = timePtrFromNull(closedAt)
	return session, nil
}
