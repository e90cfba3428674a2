package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Youndhen-tamang/kundcoffee-sub002/app/entity"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/notifier"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/provider"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/repository"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/types"
)

// RunReconcileBatch asks the gateway about pending payments that never got a
// callback. Completed ones are settled exactly like a verified callback.
func (s *PaymentService) RunReconcileBatch(ctx context.Context) error {
	now := time.Now().UTC()
	before := now.Add(-s.paymentsCfg.ReconcileStaleAfter)
	items, err := s.paymentRepo.ListForReconcile(ctx, before, s.batchSize())
	if err != nil {
		return err
	}

	var firstErr error
	for _, payment := range items {
		if payment == nil || payment.TransactionUUID == "" {
			continue
		}
		if err := s.reconcilePayment(ctx, payment, now); err != nil {
			firstErr = keepFirstErr(firstErr, fmt.Errorf("payment %d: %w", payment.ID, err))
		}
	}

	return firstErr
}

func (s *PaymentService) reconcilePayment(ctx context.Context, payment *entity.Payment, now time.Time) error {
	providerClient, err := s.providerReg.Get(payment.Provider)
	if err != nil {
		return err
	}

	result, err := providerClient.GetPaymentStatus(ctx, &provider.StatusQuery{
		TransactionUUID: payment.TransactionUUID,
		AmountCents:     payment.AmountCents,
	})
	if err != nil {
		return err
	}
	if result.NewStatus == 0 || result.NewStatus == payment.Status {
		return nil
	}

	if result.NewStatus == int32(types.PaymentStatusPaid) {
		payload := fmt.Sprintf(`{"source":"reconcile","status":%q}`, result.GatewayStatus)
		_, err := s.settle(ctx, payment, result.ProviderRef, &payload)
		return err
	}

	oldStatus := payment.Status
	payment.Status = result.NewStatus
	if result.ProviderRef != nil {
		payment.ProviderRef = result.ProviderRef
	}
	if terminalStatus(payment.Status) {
		s.markForNotification(payment, now)
	}
	payment.UpdatedAt = now

	if err := s.paymentRepo.Update(ctx, payment, oldStatus); err != nil {
		if errors.Is(err, repository.ErrPaymentStale) {
			return nil
		}
		return err
	}
	s.invalidateStatus(ctx, payment)

	_ = s.eventRepo.Create(ctx, &entity.PaymentEvent{
		PaymentID:   payment.ID,
		EventType:   entity.PaymentEventReconciled,
		OldStatus:   &oldStatus,
		NewStatus:   payment.Status,
		ProviderRef: result.ProviderRef,
		CreatedAt:   now,
	})

	return nil
}

func (s *PaymentService) RunDispatchNotificationsBatch(ctx context.Context) error {
	now := time.Now().UTC()
	items, err := s.paymentRepo.ListDueNotification(ctx, now, s.batchSize())
	if err != nil {
		return err
	}

	var firstErr error
	for _, payment := range items {
		if payment == nil {
			continue
		}
		if err := s.dispatchNotification(ctx, payment, now); err != nil {
			firstErr = keepFirstErr(firstErr, err)
		}
	}

	return firstErr
}

func (s *PaymentService) RunExpirePendingBatch(ctx context.Context) error {
	now := time.Now().UTC()
	cutoff := now.Add(-s.paymentsCfg.PendingTimeout)
	items, err := s.paymentRepo.ListExpiredPending(ctx, cutoff, s.batchSize())
	if err != nil {
		return err
	}

	var firstErr error
	for _, payment := range items {
		if payment == nil || payment.Status != int32(types.PaymentStatusPending) {
			continue
		}

		oldStatus := payment.Status
		payment.Status = int32(types.PaymentStatusExpired)
		s.markForNotification(payment, now)
		payment.UpdatedAt = now

		if err := s.paymentRepo.Update(ctx, payment, oldStatus); err != nil {
			if errors.Is(err, repository.ErrPaymentStale) {
				continue
			}
			firstErr = keepFirstErr(firstErr, err)
			continue
		}
		s.invalidateStatus(ctx, payment)

		_ = s.eventRepo.Create(ctx, &entity.PaymentEvent{
			PaymentID: payment.ID,
			EventType: entity.PaymentEventExpired,
			OldStatus: &oldStatus,
			NewStatus: payment.Status,
			CreatedAt: now,
		})
	}

	return firstErr
}

func (s *PaymentService) dispatchNotification(ctx context.Context, payment *entity.Payment, now time.Time) error {
	if s.notifier == nil {
		return s.abandonNotification(ctx, payment, now, notifier.ErrNoDestination.Error())
	}

	err := s.notifier.Notify(ctx, payment)
	if errors.Is(err, notifier.ErrNoDestination) {
		return s.abandonNotification(ctx, payment, now, err.Error())
	}
	if err != nil {
		return s.recordDispatchFailure(ctx, payment, now, err)
	}

	payment.NotificationStatus = entity.NotificationDeliverySuccess
	payment.NotificationNextAt = nil
	payment.NotificationLastErr = nil
	payment.UpdatedAt = now

	if err := s.paymentRepo.Update(ctx, payment, payment.Status); err != nil {
		return err
	}

	_ = s.eventRepo.Create(ctx, &entity.PaymentEvent{
		PaymentID: payment.ID,
		EventType: "notification_dispatched",
		NewStatus: payment.Status,
		CreatedAt: now,
	})

	return nil
}

func (s *PaymentService) abandonNotification(ctx context.Context, payment *entity.Payment, now time.Time, reason string) error {
	payment.NotificationStatus = entity.NotificationDeliveryFailed
	payment.NotificationNextAt = nil
	payment.NotificationLastErr = &reason
	payment.UpdatedAt = now
	return s.paymentRepo.Update(ctx, payment, payment.Status)
}

func (s *PaymentService) recordDispatchFailure(ctx context.Context, payment *entity.Payment, now time.Time, dispatchErr error) error {
	payment.NotificationAttempts++
	trimmed := truncate(dispatchErr.Error(), 1024)
	payment.NotificationLastErr = &trimmed

	maxAttempts := s.paymentsCfg.NotificationMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	if payment.NotificationAttempts >= maxAttempts {
		payment.NotificationStatus = entity.NotificationDeliveryFailed
		payment.NotificationNextAt = nil
	} else {
		retryInterval := s.paymentsCfg.NotificationRetryInterval
		if retryInterval <= 0 {
			retryInterval = 5 * time.Minute
		}
		next := now.Add(retryInterval * time.Duration(payment.NotificationAttempts))
		payment.NotificationStatus = entity.NotificationDeliveryPending
		payment.NotificationNextAt = &next
	}
	payment.UpdatedAt = now

	if err := s.paymentRepo.Update(ctx, payment, payment.Status); err != nil {
		return err
	}

	_ = s.eventRepo.Create(ctx, &entity.PaymentEvent{
		PaymentID: payment.ID,
		EventType: "notification_dispatch_failed",
		NewStatus: payment.Status,
		CreatedAt: now,
	})

	return dispatchErr
}

func keepFirstErr(current error, candidate error) error {
	if current != nil {
		return current
	}
	return candidate
}
