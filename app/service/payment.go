package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Youndhen-tamang/kundcoffee-sub002/app/entity"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/factory"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/provider"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/repository"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/types"
	"github.com/Youndhen-tamang/kundcoffee-sub002/config"
	"github.com/sirupsen/logrus"
)

const (
	defaultListLimit = int32(100)
	defaultBatchSize = int32(100)
)

type createPaymentRequest interface {
	GetStoreId() string
	GetRequestId() string
	GetSessionId() uint64
	GetStatusCallbackUrl() string
	GetMetadata() map[string]string
}

type getPaymentRequest interface {
	GetStoreId() string
	GetId() uint64
}

type listPaymentsRequest interface {
	GetStoreId() string
	GetSessionId() uint64
	GetHasStatus() bool
	GetStatus() types.PaymentStatus
	GetProvider() types.ProviderType
	GetLimit() int32
	GetOffset() int32
}

type cancelPaymentRequest interface {
	GetStoreId() string
	GetId() uint64
	GetReason() string
}

type paymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	Update(ctx context.Context, payment *entity.Payment, expectedStatus int32) error
	FindByID(ctx context.Context, id uint64) (*entity.Payment, error)
	FindByStoreRequestID(ctx context.Context, storeID, requestID string) (*entity.Payment, error)
	List(ctx context.Context, filter repository.PaymentFilter) ([]*entity.Payment, error)
	ListDueNotification(ctx context.Context, now time.Time, limit int32) ([]*entity.Payment, error)
	ListExpiredPending(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Payment, error)
	ListForReconcile(ctx context.Context, before time.Time, limit int32) ([]*entity.Payment, error)
}

type paymentEventRepository interface {
	Create(ctx context.Context, event *entity.PaymentEvent) error
}

type gatewayCallbackRepository interface {
	Create(ctx context.Context, callback *entity.GatewayCallback) error
}

type sessionRepository interface {
	FindByID(ctx context.Context, id uint64) (*entity.TableSession, error)
}

type settlementFinalizer interface {
	Finalize(ctx context.Context, input *repository.FinalizeInput) (bool, error)
}

type statusNotifier interface {
	Notify(ctx context.Context, payment *entity.Payment) error
}

type statusCache interface {
	Get(ctx context.Context, storeID string, paymentID uint64) (int32, bool, error)
	Set(ctx context.Context, storeID string, paymentID uint64, status int32) error
	Invalidate(ctx context.Context, storeID string, paymentID uint64) error
}

type PaymentService struct {
	paymentRepo  paymentRepository
	eventRepo    paymentEventRepository
	callbackRepo gatewayCallbackRepository
	sessionRepo  sessionRepository
	finalizer    settlementFinalizer
	providerReg  *provider.Registry
	notifier     statusNotifier
	cache        statusCache
	paymentsCfg  config.PaymentsConfig
	logger       logrus.FieldLogger
}

func NewPaymentService(
	paymentRepo paymentRepository,
	eventRepo paymentEventRepository,
	callbackRepo gatewayCallbackRepository,
	sessionRepo sessionRepository,
	finalizer settlementFinalizer,
	providerReg *provider.Registry,
	notifier statusNotifier,
	paymentsCfg config.PaymentsConfig,
) *PaymentService {
	return &PaymentService{
		paymentRepo:  paymentRepo,
		eventRepo:    eventRepo,
		callbackRepo: callbackRepo,
		sessionRepo:  sessionRepo,
		finalizer:    finalizer,
		providerReg:  providerReg,
		notifier:     notifier,
		paymentsCfg:  paymentsCfg,
		logger:       factory.NewModuleLogger("payment-service"),
	}
}

// WithStatusCache enables the read-through cache used by GetPaymentStatus.
func (s *PaymentService) WithStatusCache(cache statusCache) *PaymentService {
	s.cache = cache
	return s
}

func (s *PaymentService) CreatePayment(ctx context.Context, req createPaymentRequest) (*entity.Payment, error) {
	storeID := strings.TrimSpace(req.GetStoreId())
	requestID := strings.TrimSpace(req.GetRequestId())
	if storeID == "" || requestID == "" || req.GetSessionId() == 0 {
		return nil, ErrInvalidRequest
	}

	existing, err := s.paymentRepo.FindByStoreRequestID(ctx, storeID, requestID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, req.GetSessionId())
	if err != nil {
		return nil, err
	}
	if session == nil || session.StoreID != storeID {
		return nil, ErrSessionNotFound
	}
	if !session.IsActive {
		return nil, ErrSessionNotActive
	}

	amountCents := session.DueCents()
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	providerCode := int32(types.ProviderTypeESewa)
	providerClient, err := s.providerReg.Get(providerCode)
	if err != nil {
		if errors.Is(err, provider.ErrProviderNotSupported) {
			return nil, ErrProviderUnsupported
		}
		return nil, err
	}

	currency := s.currency()
	sessionID := session.ID
	providerOutput, err := providerClient.CreatePayment(ctx, &provider.CreateInput{
		StoreID:     storeID,
		RequestID:   requestID,
		SessionID:   &sessionID,
		AmountCents: amountCents,
		Currency:    currency,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	payment := &entity.Payment{
		StoreID:            storeID,
		RequestID:          requestID,
		SessionID:          &sessionID,
		AmountCents:        amountCents,
		Currency:           currency,
		Status:             providerOutput.InitialStatus,
		Provider:           providerCode,
		TransactionUUID:    providerOutput.TransactionUUID,
		StatusCallbackURL:  strings.TrimSpace(req.GetStatusCallbackUrl()),
		Metadata:           cloneMetadata(req.GetMetadata()),
		NotificationStatus: entity.NotificationDeliveryNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrPaymentAlreadyExists) {
			return nil, ErrPaymentAlreadyExists
		}
		return nil, err
	}

	_ = s.eventRepo.Create(ctx, &entity.PaymentEvent{
		PaymentID: payment.ID,
		EventType: entity.PaymentEventCreated,
		NewStatus: payment.Status,
		CreatedAt: now,
	})

	return payment, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, req getPaymentRequest) (*entity.Payment, error) {
	return s.findOwnedPayment(ctx, req.GetStoreId(), req.GetId())
}

func (s *PaymentService) ListPayments(ctx context.Context, req listPaymentsRequest) ([]*entity.Payment, error) {
	storeID := strings.TrimSpace(req.GetStoreId())
	if storeID == "" {
		return nil, ErrInvalidRequest
	}

	limit := req.GetLimit()
	if limit <= 0 {
		limit = defaultListLimit
	}

	filter := repository.PaymentFilter{
		StoreID:   storeID,
		SessionID: req.GetSessionId(),
		HasStatus: req.GetHasStatus(),
		Status:    int32(req.GetStatus()),
		Provider:  int32(req.GetProvider()),
		Limit:     limit,
		Offset:    req.GetOffset(),
	}

	return s.paymentRepo.List(ctx, filter)
}

func (s *PaymentService) CancelPayment(ctx context.Context, req cancelPaymentRequest) (*entity.Payment, error) {
	payment, err := s.findOwnedPayment(ctx, req.GetStoreId(), req.GetId())
	if err != nil {
		return nil, err
	}

	switch payment.Status {
	case int32(types.PaymentStatusPending):
	case int32(types.PaymentStatusPaid):
		return nil, fmt.Errorf("%w: paid payments cannot be canceled", ErrInvalidStatus)
	default:
		return nil, fmt.Errorf("%w: payment is already %s", ErrInvalidStatus, types.PaymentStatus(payment.Status))
	}

	now := time.Now().UTC()
	oldStatus := payment.Status
	payment.Status = int32(types.PaymentStatusCanceled)
	s.markForNotification(payment, now)
	if reason := strings.TrimSpace(req.GetReason()); reason != "" {
		payment.Metadata = cloneMetadata(payment.Metadata)
		payment.Metadata["cancel_reason"] = reason
	}
	payment.UpdatedAt = now

	if err := s.paymentRepo.Update(ctx, payment, oldStatus); err != nil {
		if errors.Is(err, repository.ErrPaymentStale) {
			return nil, fmt.Errorf("%w: payment changed while canceling", ErrInvalidStatus)
		}
		return nil, err
	}
	s.invalidateStatus(ctx, payment)

	_ = s.eventRepo.Create(ctx, &entity.PaymentEvent{
		PaymentID: payment.ID,
		EventType: entity.PaymentEventCanceled,
		OldStatus: &oldStatus,
		NewStatus: payment.Status,
		CreatedAt: now,
	})

	return payment, nil
}

// GetPaymentStatus answers the front end's polling while the diner is on the
// gateway page.
func (s *PaymentService) GetPaymentStatus(ctx context.Context, req getPaymentRequest) (types.PaymentStatus, error) {
	storeID := strings.TrimSpace(req.GetStoreId())
	if s.cache != nil && storeID != "" {
		status, ok, err := s.cache.Get(ctx, storeID, req.GetId())
		if err != nil {
			s.logger.WithError(err).WithField("payment_id", req.GetId()).Warn("Status cache read failed")
		} else if ok {
			return types.PaymentStatus(status), nil
		}
	}

	payment, err := s.findOwnedPayment(ctx, storeID, req.GetId())
	if err != nil {
		return types.PaymentStatusUnspecified, err
	}

	// Only PAID is cached. Every other status can still change after this
	// read, and a Set racing an invalidation would pin the stale value.
	if s.cache != nil && payment.Status == int32(types.PaymentStatusPaid) {
		if err := s.cache.Set(ctx, payment.StoreID, payment.ID, payment.Status); err != nil {
			s.logger.WithError(err).WithField("payment_id", payment.ID).Warn("Status cache write failed")
		}
	}

	return types.PaymentStatus(payment.Status), nil
}

// GetGatewayConfig signs the form the front end submits to the gateway.
func (s *PaymentService) GetGatewayConfig(ctx context.Context, req getPaymentRequest) (*provider.GatewayConfig, error) {
	payment, err := s.findOwnedPayment(ctx, req.GetStoreId(), req.GetId())
	if err != nil {
		return nil, err
	}

	switch payment.Status {
	case int32(types.PaymentStatusPending):
	case int32(types.PaymentStatusPaid):
		return nil, ErrAlreadyPaid
	default:
		return nil, fmt.Errorf("%w: payment is %s", ErrInvalidStatus, types.PaymentStatus(payment.Status))
	}

	providerClient, err := s.providerReg.Get(payment.Provider)
	if err != nil {
		if errors.Is(err, provider.ErrProviderNotSupported) {
			return nil, ErrProviderUnsupported
		}
		return nil, err
	}

	return providerClient.GatewayConfig(ctx, &provider.GatewayConfigInput{
		AmountCents:     payment.AmountCents,
		TransactionUUID: payment.TransactionUUID,
	})
}

// findOwnedPayment hides payments of other stores behind ErrPaymentNotFound.
func (s *PaymentService) findOwnedPayment(ctx context.Context, storeID string, id uint64) (*entity.Payment, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" || id == 0 {
		return nil, ErrInvalidRequest
	}

	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment == nil || payment.StoreID != storeID {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

func (s *PaymentService) markForNotification(payment *entity.Payment, now time.Time) {
	payment.NotificationStatus = entity.NotificationDeliveryPending
	payment.NotificationAttempts = 0
	payment.NotificationNextAt = &now
	payment.NotificationLastErr = nil
}

func (s *PaymentService) invalidateStatus(ctx context.Context, payment *entity.Payment) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, payment.StoreID, payment.ID); err != nil {
		s.logger.WithError(err).WithField("payment_id", payment.ID).Warn("Status cache invalidation failed")
	}
}

func (s *PaymentService) currency() string {
	if c := strings.ToUpper(strings.TrimSpace(s.paymentsCfg.Currency)); c != "" {
		return c
	}
	return "NPR"
}

func (s *PaymentService) batchSize() int32 {
	if s.paymentsCfg.JobBatchSize > 0 {
		return s.paymentsCfg.JobBatchSize
	}
	return defaultBatchSize
}

func terminalStatus(status int32) bool {
	switch status {
	case int32(types.PaymentStatusPaid),
		int32(types.PaymentStatusFailed),
		int32(types.PaymentStatusCanceled),
		int32(types.PaymentStatusExpired),
		int32(types.PaymentStatusRefunded):
		return true
	default:
		return false
	}
}

func cloneMetadata(src map[string]string) map[string]string {
	if len(src) == 0 {
		return map[string]string{}
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
