package provider

import (
	"context"
	"errors"
)

// ErrInvalidCallback covers every reason a gateway callback cannot be
// trusted. Decode failures and signature mismatches are deliberately
// indistinguishable to callers.
var ErrInvalidCallback = errors.New("invalid gateway callback")

type CreateInput struct {
	StoreID     string
	RequestID   string
	SessionID   *uint64
	AmountCents int64
	Currency    string
}

type CreateOutput struct {
	TransactionUUID string
	InitialStatus   int32
}

type GatewayConfigInput struct {
	AmountCents     int64
	TransactionUUID string
}

type GatewayConfig struct {
	Signature             string
	ProductCode           string
	SignedFieldNames      string
	Amount                string
	TaxAmount             string
	TotalAmount           string
	ProductServiceCharge  string
	ProductDeliveryCharge string
	TransactionUUID       string
	SuccessURL            string
	FailureURL            string
	GatewayURL            string
}

type CallbackEvent struct {
	TransactionUUID string
	TotalAmount     string
	ProviderRef     *string
	GatewayStatus   string
	NewStatus       int32
	PayloadJSON     string
}

type StatusQuery struct {
	TransactionUUID string
	AmountCents     int64
}

type StatusResult struct {
	GatewayStatus string
	NewStatus     int32
	ProviderRef   *string
}

type Provider interface {
	Code() int32
	CreatePayment(ctx context.Context, input *CreateInput) (*CreateOutput, error)
	GatewayConfig(ctx context.Context, input *GatewayConfigInput) (*GatewayConfig, error)
	VerifyAndParseCallback(ctx context.Context, encoded string) (*CallbackEvent, error)
	GetPaymentStatus(ctx context.Context, query *StatusQuery) (*StatusResult, error)
}
