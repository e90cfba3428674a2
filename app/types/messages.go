package types

type HealthResponse struct {
	Status string `json:"status"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreatePaymentRequest struct {
	StoreId           string            `json:"store_id" validate:"required,max=64"`
	RequestId         string            `json:"request_id" validate:"required,max=128"`
	SessionId         uint64            `json:"session_id" validate:"required,gt=0"`
	StatusCallbackUrl string            `json:"status_callback_url,omitempty" validate:"omitempty,url"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

func (r *CreatePaymentRequest) GetStoreId() string {
	if r == nil {
		return ""
	}
	return r.StoreId
}

func (r *CreatePaymentRequest) GetRequestId() string {
	if r == nil {
		return ""
	}
	return r.RequestId
}

func (r *CreatePaymentRequest) GetSessionId() uint64 {
	if r == nil {
		return 0
	}
	return r.SessionId
}

func (r *CreatePaymentRequest) GetStatusCallbackUrl() string {
	if r == nil {
		return ""
	}
	return r.StatusCallbackUrl
}

func (r *CreatePaymentRequest) GetMetadata() map[string]string {
	if r == nil {
		return nil
	}
	return r.Metadata
}

// GetPaymentRequest addresses one payment of a store. It is shared by the
// read, status polling and gateway configuration operations.
type GetPaymentRequest struct {
	StoreId string `json:"store_id" validate:"required,max=64"`
	Id      uint64 `json:"id" validate:"required,gt=0"`
}

func (r *GetPaymentRequest) GetStoreId() string {
	if r == nil {
		return ""
	}
	return r.StoreId
}

func (r *GetPaymentRequest) GetId() uint64 {
	if r == nil {
		return 0
	}
	return r.Id
}

type ListPaymentsRequest struct {
	StoreId   string        `json:"store_id" validate:"required,max=64"`
	SessionId uint64        `json:"session_id,omitempty"`
	HasStatus bool          `json:"has_status,omitempty"`
	Status    PaymentStatus `json:"status,omitempty"`
	Provider  ProviderType  `json:"provider,omitempty"`
	Limit     int32         `json:"limit,omitempty"`
	Offset    int32         `json:"offset,omitempty"`
}

func (r *ListPaymentsRequest) GetStoreId() string { return r.StoreId }
func (r *ListPaymentsRequest) GetSessionId() uint64 { return r.SessionId }
func (r *ListPaymentsRequest) GetHasStatus() bool { return r.HasStatus }
func (r *ListPaymentsRequest) GetStatus() PaymentStatus { return r.Status }
func (r *ListPaymentsRequest) GetProvider() ProviderType { return r.Provider }
func (r *ListPaymentsRequest) GetLimit() int32 { return r.Limit }
func (r *ListPaymentsRequest) GetOffset() int32 { return r.Offset }

type CancelPaymentRequest struct {
	StoreId string `json:"store_id" validate:"required,max=64"`
	Id      uint64 `json:"id" validate:"required,gt=0"`
	Reason  string `json:"reason,omitempty" validate:"max=255"`
}

func (r *CancelPaymentRequest) GetStoreId() string { return r.StoreId }
func (r *CancelPaymentRequest) GetId() uint64 { return r.Id }
func (r *CancelPaymentRequest) GetReason() string { return r.Reason }

// HandleGatewayCallbackRequest carries the opaque result the gateway appended
// to its redirect, relayed by the front end together with the payment id.
type HandleGatewayCallbackRequest struct {
	RequestId   string `json:"request_id,omitempty"`
	StoreId     string `json:"store_id" validate:"required,max=64"`
	PaymentId   string `json:"paymentId" validate:"required,numeric,max=20"`
	EncodedData string `json:"encodedData" validate:"required"`
}

func (r *HandleGatewayCallbackRequest) GetRequestId() string { return r.RequestId }
func (r *HandleGatewayCallbackRequest) GetStoreId() string { return r.StoreId }
func (r *HandleGatewayCallbackRequest) GetPaymentId() string { return r.PaymentId }
func (r *HandleGatewayCallbackRequest) GetEncodedData() string { return r.EncodedData }

type Payment struct {
	Id                uint64            `json:"id"`
	StoreId           string            `json:"store_id"`
	RequestId         string            `json:"request_id"`
	SessionId         uint64            `json:"session_id,omitempty"`
	Amount            string            `json:"amount"`
	AmountCents       int64             `json:"amount_cents"`
	Currency          string            `json:"currency"`
	Status            string            `json:"status"`
	StatusCode        int32             `json:"status_code"`
	Provider          string            `json:"provider"`
	TransactionUuid   string            `json:"transaction_uuid"`
	ProviderRef       string            `json:"provider_ref,omitempty"`
	StatusCallbackUrl string            `json:"status_callback_url,omitempty"`
	Metadata          map[string]string `json:"metadata"`
	SettledAt         string            `json:"settled_at,omitempty"`
	CreatedAt         string            `json:"created_at"`
	UpdatedAt         string            `json:"updated_at"`
}

func (p *Payment) GetId() uint64 {
	if p == nil {
		return 0
	}
	return p.Id
}

func (p *Payment) GetStatus() string {
	if p == nil {
		return ""
	}
	return p.Status
}

type PaymentEnvelopeResponse struct {
	Payment *Payment `json:"payment"`
}

func (r *PaymentEnvelopeResponse) GetPayment() *Payment {
	if r == nil {
		return nil
	}
	return r.Payment
}

type ListPaymentsResponse struct {
	Payments []*Payment `json:"payments"`
}

type PaymentStatusResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// GatewayConfigResponse is everything the front end needs to render the
// auto-submitting gateway form.
type GatewayConfigResponse struct {
	Success               bool   `json:"success"`
	Message               string `json:"message,omitempty"`
	Signature             string `json:"signature,omitempty"`
	ProductCode           string `json:"product_code,omitempty"`
	SignedFieldNames      string `json:"signed_field_names,omitempty"`
	Amount                string `json:"amount,omitempty"`
	TaxAmount             string `json:"tax_amount,omitempty"`
	TotalAmount           string `json:"total_amount,omitempty"`
	ProductServiceCharge  string `json:"product_service_charge,omitempty"`
	ProductDeliveryCharge string `json:"product_delivery_charge,omitempty"`
	TransactionUuid       string `json:"transaction_uuid,omitempty"`
	SuccessUrl            string `json:"success_url,omitempty"`
	FailureUrl            string `json:"failure_url,omitempty"`
	GatewayUrl            string `json:"gatewayUrl,omitempty"`
}

type CallbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
