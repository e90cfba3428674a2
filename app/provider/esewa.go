package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Youndhen-tamang/kundcoffee-sub002/app/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ESewaStatusComplete      = "COMPLETE"
	ESewaStatusPending       = "PENDING"
	ESewaStatusFullRefund    = "FULL_REFUND"
	ESewaStatusPartialRefund = "PARTIAL_REFUND"
	ESewaStatusAmbiguous     = "AMBIGUOUS"
	ESewaStatusNotFound      = "NOT_FOUND"
	ESewaStatusCanceled      = "CANCELED"
)

type ESewaConfig struct {
	SecretKey   string
	ProductCode string
	FormURL     string
	StatusURL   string
	SuccessURL  string
	FailureURL  string
	HTTPTimeout time.Duration
}

type ESewaProvider struct {
	cfg    ESewaConfig
	codec  *SignatureCodec
	client *http.Client
}

func NewESewaProvider(cfg ESewaConfig) (*ESewaProvider, error) {
	codec, err := NewSignatureCodec(cfg.SecretKey, cfg.ProductCode, cfg.FormURL)
	if err != nil {
		return nil, err
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ESewaProvider{
		cfg:    cfg,
		codec:  codec,
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (p *ESewaProvider) Code() int32 {
	return int32(types.ProviderTypeESewa)
}

func (p *ESewaProvider) CreatePayment(_ context.Context, input *CreateInput) (*CreateOutput, error) {
	if input.AmountCents <= 0 {
		return nil, errors.New("amount must be greater than zero")
	}
	if !strings.EqualFold(strings.TrimSpace(input.Currency), "NPR") {
		return nil, fmt.Errorf("esewa does not support currency %s", input.Currency)
	}

	return &CreateOutput{
		TransactionUUID: uuid.NewString(),
		InitialStatus:   int32(types.PaymentStatusPending),
	}, nil
}

func (p *ESewaProvider) GatewayConfig(_ context.Context, input *GatewayConfigInput) (*GatewayConfig, error) {
	signed, err := p.codec.Generate(decimal.New(input.AmountCents, -2), input.TransactionUUID)
	if err != nil {
		return nil, err
	}

	return &GatewayConfig{
		Signature:             signed.Signature,
		ProductCode:           signed.ProductCode,
		SignedFieldNames:      signed.SignedFieldNames,
		Amount:                signed.TotalAmount,
		TaxAmount:             "0",
		TotalAmount:           signed.TotalAmount,
		ProductServiceCharge:  "0",
		ProductDeliveryCharge: "0",
		TransactionUUID:       signed.TransactionUUID,
		SuccessURL:            p.cfg.SuccessURL,
		FailureURL:            p.cfg.FailureURL,
		GatewayURL:            signed.GatewayURL,
	}, nil
}

func (p *ESewaProvider) VerifyAndParseCallback(_ context.Context, encoded string) (*CallbackEvent, error) {
	payload := p.codec.Verify(encoded)
	if payload == nil {
		return nil, ErrInvalidCallback
	}
	if payload.ProductCode() != p.codec.ProductCode() {
		return nil, ErrInvalidCallback
	}

	fields, err := json.Marshal(payload.fields)
	if err != nil {
		return nil, err
	}

	event := &CallbackEvent{
		TransactionUUID: payload.TransactionUUID(),
		TotalAmount:     payload.TotalAmount(),
		GatewayStatus:   strings.ToUpper(strings.TrimSpace(payload.Status())),
		PayloadJSON:     string(fields),
	}
	event.NewStatus = mapESewaStatus(event.GatewayStatus)
	if code := strings.TrimSpace(payload.TransactionCode()); code != "" {
		event.ProviderRef = &code
	}

	return event, nil
}

// GetPaymentStatus asks the gateway's transaction status API about a payment
// that never produced a callback.
func (p *ESewaProvider) GetPaymentStatus(ctx context.Context, query *StatusQuery) (*StatusResult, error) {
	if strings.TrimSpace(query.TransactionUUID) == "" {
		return &StatusResult{}, nil
	}
	if strings.TrimSpace(p.cfg.StatusURL) == "" {
		return nil, errors.New("esewa status url is not configured")
	}

	values := url.Values{}
	values.Set("product_code", p.codec.ProductCode())
	values.Set("total_amount", FormatAmount(query.AmountCents))
	values.Set("transaction_uuid", query.TransactionUUID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.StatusURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("esewa status check failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var payload struct {
		Status string  `json:"status"`
		RefID  *string `json:"ref_id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	result := &StatusResult{
		GatewayStatus: strings.ToUpper(strings.TrimSpace(payload.Status)),
	}
	result.NewStatus = mapESewaStatus(result.GatewayStatus)
	if payload.RefID != nil {
		if ref := strings.TrimSpace(*payload.RefID); ref != "" {
			result.ProviderRef = &ref
		}
	}
	return result, nil
}

// mapESewaStatus returns 0 for gateway states that must not move the payment.
func mapESewaStatus(status string) int32 {
	switch status {
	case ESewaStatusComplete:
		return int32(types.PaymentStatusPaid)
	case ESewaStatusCanceled:
		return int32(types.PaymentStatusCanceled)
	case ESewaStatusFullRefund:
		return int32(types.PaymentStatusRefunded)
	default:
		return 0
	}
}
