package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/entity"
	mysqlDriver "github.com/go-sql-driver/mysql"
)

var paymentColumnNames = []string{
	"id", "store_id", "request_id", "session_id",
	"amount_cents", "currency", "status", "provider",
	"transaction_uuid", "provider_ref", "status_callback_url", "metadata_json",
	"notification_status", "notification_attempts", "notification_next_at", "notification_last_error",
	"settled_at", "created_at", "updated_at",
}

func newPaymentRepoMock(t *testing.T) (*PaymentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPaymentRepository(db), mock
}

func TestPaymentCreateDuplicate(t *testing.T) {
	repo, mock := newPaymentRepoMock(t)
	mock.ExpectExec(`INSERT INTO payments`).WillReturnError(&mysqlDriver.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.Create(context.Background(), &entity.Payment{StoreID: "store-1", RequestID: "req-1"})
	if !errors.Is(err, ErrPaymentAlreadyExists) {
		t.Fatalf("expected ErrPaymentAlreadyExists, got %v", err)
	}
}

func TestPaymentCreateAssignsID(t *testing.T) {
	repo, mock := newPaymentRepoMock(t)
	mock.ExpectExec(`INSERT INTO payments`).WillReturnResult(sqlmock.NewResult(42, 1))

	payment := &entity.Payment{StoreID: "store-1", RequestID: "req-1", Metadata: map[string]string{"table": "T4"}}
	if err := repo.Create(context.Background(), payment); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.ID != 42 {
		t.Fatalf("expected id 42, got %d", payment.ID)
	}
}

func TestPaymentFindByIDScansRow(t *testing.T) {
	repo, mock := newPaymentRepoMock(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(paymentColumnNames).AddRow(
		7, "store-1", "req-1", 3,
		45000, "NPR", 1, 1,
		"TXN-001", nil, "", `{"table":"T4"}`,
		0, 0, nil, nil,
		nil, now, now,
	)
	mock.ExpectQuery(`FROM payments WHERE id = \?`).WithArgs(7).WillReturnRows(rows)

	payment, err := repo.FindByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment == nil || payment.ID != 7 || payment.TransactionUUID != "TXN-001" {
		t.Fatalf("unexpected payment: %+v", payment)
	}
	if !payment.HasSession() || *payment.SessionID != 3 {
		t.Fatalf("expected session 3, got %v", payment.SessionID)
	}
	if payment.ProviderRef != nil || payment.SettledAt != nil {
		t.Fatal("expected null columns to stay nil")
	}
	if payment.Metadata["table"] != "T4" {
		t.Fatalf("unexpected metadata: %v", payment.Metadata)
	}
}

func TestPaymentFindByIDNotFound(t *testing.T) {
	repo, mock := newPaymentRepoMock(t)
	mock.ExpectQuery(`FROM payments WHERE id = \?`).WillReturnRows(sqlmock.NewRows(paymentColumnNames))

	payment, err := repo.FindByID(context.Background(), 99)
	if err != nil || payment != nil {
		t.Fatalf("expected nil payment and nil error, got %v %v", payment, err)
	}
}

func TestPaymentUpdateStale(t *testing.T) {
	repo, mock := newPaymentRepoMock(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE payments SET .* WHERE id = \? AND status = \?`).
		WithArgs(40, nil, "", "{}", 0, 0, nil, nil, now, 7, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &entity.Payment{ID: 7, Status: 40, UpdatedAt: now}, 1)
	if !errors.Is(err, ErrPaymentStale) {
		t.Fatalf("expected ErrPaymentStale, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPaymentUpdateGuardsExpectedStatus(t *testing.T) {
	repo, mock := newPaymentRepoMock(t)
	mock.ExpectExec(`UPDATE payments SET .* WHERE id = \? AND status = \?`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 7, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Update(context.Background(), &entity.Payment{ID: 7, Status: 30}, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPaymentUpdateNeverMovesPaid(t *testing.T) {
	repo, mock := newPaymentRepoMock(t)

	err := repo.Update(context.Background(), &entity.Payment{ID: 7, Status: 50}, 10)
	if !errors.Is(err, ErrPaymentStale) {
		t.Fatalf("expected ErrPaymentStale, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected no query, got %v", err)
	}
}

func TestPaymentListBuildsFilters(t *testing.T) {
	repo, mock := newPaymentRepoMock(t)
	mock.ExpectQuery(`FROM payments WHERE store_id = \? AND session_id = \? AND status = \? ORDER BY id DESC LIMIT \? OFFSET \?`).
		WithArgs("store-1", 3, 10, 20, 0).
		WillReturnRows(sqlmock.NewRows(paymentColumnNames))

	items, err := repo.List(context.Background(), PaymentFilter{
		StoreID:   "store-1",
		SessionID: 3,
		HasStatus: true,
		Status:    10,
		Limit:     20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
