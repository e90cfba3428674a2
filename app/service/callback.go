package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Youndhen-tamang/kundcoffee-sub002/app/entity"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/provider"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/repository"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/types"
)

type CallbackState string

const (
	CallbackStateInitiated        CallbackState = "INITIATED"
	CallbackStateCallbackReceived CallbackState = "CALLBACK_RECEIVED"
	CallbackStateVerified         CallbackState = "VERIFIED"
	CallbackStateRejected         CallbackState = "REJECTED"
	CallbackStateSettled          CallbackState = "SETTLED"
	CallbackStateIgnored          CallbackState = "IGNORED"
)

func (s CallbackState) Terminal() bool {
	return s == CallbackStateRejected || s == CallbackStateSettled || s == CallbackStateIgnored
}

// CallbackFacts is what is known about a callback when its state advances.
// FinalizeApplied is only meaningful once the callback is VERIFIED.
type CallbackFacts struct {
	SignatureValid  bool
	GatewayComplete bool
	MatchesPayment  bool
	AlreadyPaid     bool
	HasSession      bool
	FinalizeApplied bool
}

// NextCallbackState is the whole callback lifecycle. A signature is checked
// before anything else, so an invalid callback for a paid payment is still
// rejected rather than ignored.
func NextCallbackState(state CallbackState, facts CallbackFacts) CallbackState {
	switch state {
	case CallbackStateInitiated:
		return CallbackStateCallbackReceived
	case CallbackStateCallbackReceived:
		switch {
		case !facts.SignatureValid, !facts.GatewayComplete, !facts.MatchesPayment:
			return CallbackStateRejected
		case facts.AlreadyPaid:
			return CallbackStateIgnored
		case !facts.HasSession:
			return CallbackStateRejected
		default:
			return CallbackStateVerified
		}
	case CallbackStateVerified:
		if facts.FinalizeApplied {
			return CallbackStateSettled
		}
		return CallbackStateIgnored
	default:
		return state
	}
}

type handleGatewayCallbackRequest interface {
	GetStoreId() string
	GetPaymentId() string
	GetEncodedData() string
}

type CallbackOutcome struct {
	State   CallbackState
	Payment *entity.Payment
	Message string
}

// HandleGatewayCallback verifies the encoded result the gateway returned for
// a payment and, when it proves a completed payment, settles the payment's
// table session. Replays of an already settled payment succeed without
// writing anything but the audit record.
func (s *PaymentService) HandleGatewayCallback(ctx context.Context, req handleGatewayCallbackRequest) (*CallbackOutcome, error) {
	encoded := strings.TrimSpace(req.GetEncodedData())
	paymentID, err := strconv.ParseUint(strings.TrimSpace(req.GetPaymentId()), 10, 64)
	if err != nil || paymentID == 0 || encoded == "" {
		return nil, ErrInvalidRequest
	}

	payment, err := s.findOwnedPayment(ctx, req.GetStoreId(), paymentID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			s.recordCallback(ctx, nil, "", encoded, entity.GatewayCallbackRejected, "payment not found")
		}
		return nil, err
	}

	state := NextCallbackState(CallbackStateInitiated, CallbackFacts{})

	providerClient, err := s.providerReg.Get(payment.Provider)
	if err != nil {
		if errors.Is(err, provider.ErrProviderNotSupported) {
			return nil, ErrProviderUnsupported
		}
		return nil, err
	}

	facts := CallbackFacts{
		AlreadyPaid: payment.Status == int32(types.PaymentStatusPaid),
		HasSession:  payment.HasSession(),
	}

	event, verifyErr := providerClient.VerifyAndParseCallback(ctx, encoded)
	rejectReason := "signature verification failed"
	if verifyErr == nil && event != nil {
		facts.SignatureValid = true
		facts.GatewayComplete = event.GatewayStatus == provider.ESewaStatusComplete
		facts.MatchesPayment = callbackMatchesPayment(event, payment)

		switch {
		case !facts.GatewayComplete:
			rejectReason = fmt.Sprintf("gateway status is %s", event.GatewayStatus)
		case !facts.MatchesPayment:
			rejectReason = "callback does not match payment"
		default:
			rejectReason = ErrNoSessionAssociated.Error()
		}
	}

	state = NextCallbackState(state, facts)
	switch state {
	case CallbackStateRejected:
		s.recordCallback(ctx, &payment.ID, payment.TransactionUUID, encoded, entity.GatewayCallbackRejected, rejectReason)
		if facts.SignatureValid && facts.GatewayComplete && facts.MatchesPayment && !facts.HasSession {
			return nil, ErrNoSessionAssociated
		}
		return nil, fmt.Errorf("%w: %s", ErrCallbackRejected, rejectReason)
	case CallbackStateIgnored:
		s.recordCallback(ctx, &payment.ID, payment.TransactionUUID, encoded, entity.GatewayCallbackIgnored, "payment already paid")
		return &CallbackOutcome{State: state, Payment: payment, Message: "payment already processed"}, nil
	}

	settled, err := s.settle(ctx, payment, event.ProviderRef, &event.PayloadJSON)
	if err != nil {
		s.recordCallback(ctx, &payment.ID, payment.TransactionUUID, encoded, entity.GatewayCallbackRejected, "settlement failed: "+err.Error())
		return nil, err
	}

	state = NextCallbackState(state, CallbackFacts{FinalizeApplied: settled})
	if state == CallbackStateIgnored {
		s.recordCallback(ctx, &payment.ID, payment.TransactionUUID, encoded, entity.GatewayCallbackIgnored, "payment settled concurrently")
		return &CallbackOutcome{State: state, Payment: payment, Message: "payment already processed"}, nil
	}

	s.recordCallback(ctx, &payment.ID, payment.TransactionUUID, encoded, entity.GatewayCallbackProcessed, "")
	return &CallbackOutcome{State: state, Payment: payment, Message: "payment verified"}, nil
}

// settle runs the finalizer for a payment with a session and, on success,
// reflects the committed state on the in-memory payment.
func (s *PaymentService) settle(ctx context.Context, payment *entity.Payment, providerRef *string, payloadJSON *string) (bool, error) {
	if !payment.HasSession() {
		return false, ErrNoSessionAssociated
	}

	session, err := s.sessionRepo.FindByID(ctx, *payment.SessionID)
	if err != nil {
		return false, err
	}
	if session == nil {
		return false, fmt.Errorf("%w: session %d", ErrSessionNotFound, *payment.SessionID)
	}

	now := time.Now().UTC()
	settled, err := s.finalizer.Finalize(ctx, &repository.FinalizeInput{
		Payment:            payment,
		Session:            session,
		ProviderRef:        providerRef,
		PayloadJSON:        payloadJSON,
		NotificationStatus: entity.NotificationDeliveryPending,
		NotificationNextAt: &now,
		SettledAt:          now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotActive) {
			return false, fmt.Errorf("%w: session %d", ErrSessionNotActive, session.ID)
		}
		return false, err
	}
	if !settled {
		return false, nil
	}

	payment.Status = int32(types.PaymentStatusPaid)
	if providerRef != nil {
		payment.ProviderRef = providerRef
	}
	s.markForNotification(payment, now)
	payment.SettledAt = &now
	payment.UpdatedAt = now
	s.invalidateStatus(ctx, payment)

	return true, nil
}

// callbackMatchesPayment guards against a validly signed result of one
// payment being replayed against another.
func callbackMatchesPayment(event *provider.CallbackEvent, payment *entity.Payment) bool {
	if strings.TrimSpace(event.TransactionUUID) != payment.TransactionUUID {
		return false
	}
	amount, err := provider.ParseAmountCents(event.TotalAmount)
	if err != nil {
		return false
	}
	return amount == payment.AmountCents
}

func (s *PaymentService) recordCallback(
	ctx context.Context,
	paymentID *uint64,
	transactionUUID string,
	encoded string,
	status int32,
	reason string,
) {
	now := time.Now().UTC()
	var errMsg *string
	if reason = strings.TrimSpace(reason); reason != "" {
		trimmed := truncate(reason, 1024)
		errMsg = &trimmed
	}

	if err := s.callbackRepo.Create(ctx, &entity.GatewayCallback{
		PaymentID:       paymentID,
		Provider:        types.ProviderTypeESewa.String(),
		TransactionUUID: transactionUUID,
		EncodedData:     encoded,
		Status:          status,
		Error:           errMsg,
		CreatedAt:       now,
		UpdatedAt:       now,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to record gateway callback")
	}
}

// truncate cuts value to at most max bytes without splitting a rune.
func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}
