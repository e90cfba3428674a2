package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Youndhen-tamang/kundcoffee-sub002/app/entity"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/notifier"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/provider"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/types"
)

type serviceProvider struct {
	statusFn func(query *provider.StatusQuery) (*provider.StatusResult, error)
	queries  []string
}

func (p *serviceProvider) Code() int32 {
	return int32(types.ProviderTypeESewa)
}

func (p *serviceProvider) CreatePayment(_ context.Context, _ *provider.CreateInput) (*provider.CreateOutput, error) {
	return &provider.CreateOutput{TransactionUUID: "TXN-NEW", InitialStatus: int32(types.PaymentStatusPending)}, nil
}

func (p *serviceProvider) GatewayConfig(_ context.Context, _ *provider.GatewayConfigInput) (*provider.GatewayConfig, error) {
	return &provider.GatewayConfig{}, nil
}

func (p *serviceProvider) VerifyAndParseCallback(_ context.Context, _ string) (*provider.CallbackEvent, error) {
	return nil, provider.ErrInvalidCallback
}

func (p *serviceProvider) GetPaymentStatus(_ context.Context, query *provider.StatusQuery) (*provider.StatusResult, error) {
	p.queries = append(p.queries, query.TransactionUUID)
	return p.statusFn(query)
}

func stalePayment(id uint64, transactionUUID string) *entity.Payment {
	created := time.Now().UTC().Add(-2 * time.Hour)
	return &entity.Payment{
		ID:              id,
		StoreID:         "store-1",
		RequestID:       transactionUUID,
		SessionID:       sessionPtr(3),
		AmountCents:     45000,
		Currency:        "NPR",
		Status:          int32(types.PaymentStatusPending),
		TransactionUUID: transactionUUID,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func TestRunReconcileBatchSettlesCompletedPayments(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession(3, "store-1")
	env.seedPayment(stalePayment(1, "TXN-001"))
	ref := "000AWEO"
	env.provider = &serviceProvider{statusFn: func(query *provider.StatusQuery) (*provider.StatusResult, error) {
		if query.AmountCents != 45000 {
			t.Fatalf("unexpected amount in status query: %d", query.AmountCents)
		}
		return &provider.StatusResult{GatewayStatus: provider.ESewaStatusComplete, NewStatus: int32(types.PaymentStatusPaid), ProviderRef: &ref}, nil
	}}

	if err := env.service().RunReconcileBatch(context.Background()); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	if env.store.payments[1].Status != int32(types.PaymentStatusPaid) {
		t.Fatalf("expected PAID, got %d", env.store.payments[1].Status)
	}
	if env.store.sessions[3].IsActive || len(env.store.settlements) != 1 {
		t.Fatal("expected reconcile to settle the session")
	}
}

func TestRunReconcileBatchCancelsAndSkips(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(stalePayment(1, "TXN-001"))
	env.seedPayment(stalePayment(2, "TXN-002"))
	fake := &serviceProvider{statusFn: func(query *provider.StatusQuery) (*provider.StatusResult, error) {
		if query.TransactionUUID == "TXN-001" {
			return &provider.StatusResult{GatewayStatus: provider.ESewaStatusCanceled, NewStatus: int32(types.PaymentStatusCanceled)}, nil
		}
		return &provider.StatusResult{GatewayStatus: provider.ESewaStatusPending}, nil
	}}
	env.provider = fake

	if err := env.service().RunReconcileBatch(context.Background()); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	if len(fake.queries) != 2 {
		t.Fatalf("expected two status queries, got %d", len(fake.queries))
	}
	if env.store.payments[1].Status != int32(types.PaymentStatusCanceled) {
		t.Fatalf("expected CANCELED, got %d", env.store.payments[1].Status)
	}
	if env.store.payments[1].NotificationStatus != entity.NotificationDeliveryPending {
		t.Fatal("expected canceled payment to be queued for notification")
	}
	if env.store.payments[2].Status != int32(types.PaymentStatusPending) {
		t.Fatalf("expected pending payment to stay pending, got %d", env.store.payments[2].Status)
	}
	if env.finalizer.calls != 0 {
		t.Fatal("finalizer must not run for canceled payments")
	}
}

func TestRunReconcileBatchReturnsFirstError(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(stalePayment(1, "TXN-001"))
	env.seedPayment(stalePayment(2, "TXN-002"))
	fake := &serviceProvider{statusFn: func(*provider.StatusQuery) (*provider.StatusResult, error) {
		return nil, errors.New("gateway unavailable")
	}}
	env.provider = fake

	err := env.service().RunReconcileBatch(context.Background())
	if err == nil {
		t.Fatal("expected reconcile error")
	}
	if len(fake.queries) != 2 {
		t.Fatalf("expected the batch to continue after a failure, got %d queries", len(fake.queries))
	}
}

func TestRunExpirePendingBatch(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(stalePayment(1, "TXN-001"))
	paid := stalePayment(2, "TXN-002")
	paid.Status = int32(types.PaymentStatusPaid)
	env.seedPayment(paid)
	env.seedPayment(&entity.Payment{ID: 3, StoreID: "store-1", Status: int32(types.PaymentStatusPending), TransactionUUID: "TXN-003"})

	if err := env.service().RunExpirePendingBatch(context.Background()); err != nil {
		t.Fatalf("expire failed: %v", err)
	}

	if env.store.payments[1].Status != int32(types.PaymentStatusExpired) {
		t.Fatalf("expected EXPIRED, got %d", env.store.payments[1].Status)
	}
	if env.store.payments[2].Status != int32(types.PaymentStatusPaid) {
		t.Fatal("paid payment must not expire")
	}
	if env.store.payments[3].Status != int32(types.PaymentStatusPending) {
		t.Fatal("fresh payment must not expire")
	}
	if len(env.events.events) != 1 || env.events.events[0].EventType != entity.PaymentEventExpired {
		t.Fatalf("expected one expired event, got %d", len(env.events.events))
	}
}

// cancelingPaymentRepo cancels every listed payment after handing out the
// PENDING snapshot, the way a concurrent CancelPayment would.
type cancelingPaymentRepo struct {
	*servicePaymentRepo
}

func (r *cancelingPaymentRepo) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Payment, error) {
	items, err := r.servicePaymentRepo.ListExpiredPending(ctx, cutoff, limit)
	r.mu.Lock()
	for _, item := range items {
		r.payments[item.ID].Status = int32(types.PaymentStatusCanceled)
	}
	r.mu.Unlock()
	return items, err
}

func TestRunExpirePendingBatchKeepsConcurrentCancel(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(stalePayment(1, "TXN-001"))
	svc := NewPaymentService(
		&cancelingPaymentRepo{servicePaymentRepo: env.payments},
		env.events,
		env.callbacks,
		&serviceSessionRepo{store: env.store},
		env.finalizer,
		provider.NewRegistry(env.provider),
		env.notifier,
		env.paymentCfg,
	)

	if err := svc.RunExpirePendingBatch(context.Background()); err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if env.store.payments[1].Status != int32(types.PaymentStatusCanceled) {
		t.Fatalf("expected CANCELED to survive, got %d", env.store.payments[1].Status)
	}
	if len(env.events.events) != 0 {
		t.Fatalf("expected no expired event, got %d", len(env.events.events))
	}
}

func duePayment(id uint64) *entity.Payment {
	now := time.Now().UTC().Add(-time.Minute)
	return &entity.Payment{
		ID:                 id,
		StoreID:            "store-1",
		Status:             int32(types.PaymentStatusPaid),
		StatusCallbackURL:  "https://pos.example.com/hooks/payments",
		NotificationStatus: entity.NotificationDeliveryPending,
		NotificationNextAt: &now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func TestRunDispatchNotificationsBatchSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(duePayment(1))

	if err := env.service().RunDispatchNotificationsBatch(context.Background()); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	if len(env.notifier.notified) != 1 || env.notifier.notified[0] != 1 {
		t.Fatalf("unexpected notifications: %v", env.notifier.notified)
	}
	payment := env.store.payments[1]
	if payment.NotificationStatus != entity.NotificationDeliverySuccess || payment.NotificationNextAt != nil {
		t.Fatalf("unexpected notification state: %+v", payment)
	}
}

func TestRunDispatchNotificationsBatchRetriesThenFails(t *testing.T) {
	env := newTestEnv(t)
	env.paymentCfg.NotificationMaxAttempts = 2
	env.seedPayment(duePayment(1))
	env.notifier.err = errors.New("connection refused")
	svc := env.service()

	if err := svc.RunDispatchNotificationsBatch(context.Background()); err == nil {
		t.Fatal("expected dispatch error")
	}
	payment := env.store.payments[1]
	if payment.NotificationStatus != entity.NotificationDeliveryPending || payment.NotificationAttempts != 1 {
		t.Fatalf("expected a scheduled retry, got %+v", payment)
	}
	if payment.NotificationNextAt == nil || !payment.NotificationNextAt.After(time.Now().UTC()) {
		t.Fatal("expected the retry to be scheduled in the future")
	}
	if payment.NotificationLastErr == nil || *payment.NotificationLastErr != "connection refused" {
		t.Fatalf("unexpected last error: %v", payment.NotificationLastErr)
	}

	past := time.Now().UTC().Add(-time.Second)
	env.store.payments[1].NotificationNextAt = &past
	if err := svc.RunDispatchNotificationsBatch(context.Background()); err == nil {
		t.Fatal("expected dispatch error")
	}
	payment = env.store.payments[1]
	if payment.NotificationStatus != entity.NotificationDeliveryFailed || payment.NotificationNextAt != nil {
		t.Fatalf("expected delivery to be abandoned, got %+v", payment)
	}
}

func TestRunDispatchNotificationsBatchWithoutDestination(t *testing.T) {
	env := newTestEnv(t)
	env.seedPayment(duePayment(1))
	env.notifier.err = notifier.ErrNoDestination

	if err := env.service().RunDispatchNotificationsBatch(context.Background()); err != nil {
		t.Fatalf("expected no error for a payment without destination, got %v", err)
	}
	payment := env.store.payments[1]
	if payment.NotificationStatus != entity.NotificationDeliveryFailed || payment.NotificationAttempts != 0 {
		t.Fatalf("unexpected notification state: %+v", payment)
	}
}
