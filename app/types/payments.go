package types

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const HeaderStoreID = "X-Store-ID"

func storeIDFromContext(ctx echo.Context) string {
	return strings.TrimSpace(ctx.Request().Header.Get(HeaderStoreID))
}

func NewCreatePaymentRequestFromContext(ctx echo.Context) (*CreatePaymentRequest, error) {
	var body CreatePaymentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.StoreId = storeIDFromContext(ctx)
	body.RequestId = strings.TrimSpace(body.RequestId)
	if body.RequestId == "" {
		body.RequestId = strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
	}
	body.StatusCallbackUrl = strings.TrimSpace(body.StatusCallbackUrl)

	return &body, nil
}

func (r *CreatePaymentRequest) Validate() error {
	return validateStruct(r)
}

func NewGetPaymentRequestFromContext(ctx echo.Context) (*GetPaymentRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}
	return &GetPaymentRequest{StoreId: storeIDFromContext(ctx), Id: id}, nil
}

func (r *GetPaymentRequest) Validate() error {
	return validateStruct(r)
}

func NewListPaymentsRequestFromContext(ctx echo.Context) (*ListPaymentsRequest, error) {
	req := &ListPaymentsRequest{
		StoreId: storeIDFromContext(ctx),
		Limit:   100,
		Offset:  0,
	}

	if sessionRaw := strings.TrimSpace(ctx.QueryParam("session_id")); sessionRaw != "" {
		sessionID, err := strconv.ParseUint(sessionRaw, 10, 64)
		if err != nil {
			return nil, err
		}
		req.SessionId = sessionID
	}

	if statusRaw := strings.TrimSpace(ctx.QueryParam("status")); statusRaw != "" {
		status, ok := ParsePaymentStatus(statusRaw)
		if !ok {
			return nil, errors.New("invalid status")
		}
		req.HasStatus = true
		req.Status = status
	}

	if providerRaw := strings.TrimSpace(ctx.QueryParam("provider")); providerRaw != "" {
		provider, ok := ParseProviderType(providerRaw)
		if !ok {
			return nil, errors.New("invalid provider")
		}
		req.Provider = provider
	}

	if limitRaw := strings.TrimSpace(ctx.QueryParam("limit")); limitRaw != "" {
		limit, err := strconv.ParseInt(limitRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Limit = int32(limit)
	}

	if offsetRaw := strings.TrimSpace(ctx.QueryParam("offset")); offsetRaw != "" {
		offset, err := strconv.ParseInt(offsetRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Offset = int32(offset)
	}

	return req, nil
}

func (r *ListPaymentsRequest) Validate() error {
	if r.Limit == 0 {
		r.Limit = 100
	}
	if err := validateStruct(r); err != nil {
		return err
	}
	if r.GetLimit() <= 0 || r.GetLimit() > 500 {
		return errors.New("limit must be between 1 and 500")
	}
	if r.GetOffset() < 0 {
		return errors.New("offset must be >= 0")
	}
	if r.GetHasStatus() && !r.GetStatus().Valid() {
		return errors.New("invalid status")
	}
	if r.GetProvider() != ProviderTypeUnspecified && r.GetProvider() != ProviderTypeESewa {
		return errors.New("invalid provider")
	}
	return nil
}

func NewCancelPaymentRequestFromContext(ctx echo.Context) (*CancelPaymentRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}

	var body CancelPaymentRequest
	if err = ctx.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	body.StoreId = storeIDFromContext(ctx)
	body.Id = id
	body.Reason = strings.TrimSpace(body.Reason)

	return &body, nil
}

func (r *CancelPaymentRequest) Validate() error {
	return validateStruct(r)
}

func NewHandleGatewayCallbackRequestFromContext(ctx echo.Context) (*HandleGatewayCallbackRequest, error) {
	var body HandleGatewayCallbackRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.RequestId = strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
	body.StoreId = storeIDFromContext(ctx)
	body.PaymentId = strings.TrimSpace(body.PaymentId)
	body.EncodedData = strings.TrimSpace(body.EncodedData)

	return &body, nil
}

func (r *HandleGatewayCallbackRequest) Validate() error {
	return validateStruct(r)
}

// PaymentID parses the relayed payment id. Validate must have passed.
func (r *HandleGatewayCallbackRequest) PaymentID() (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(r.PaymentId), 10, 64)
}
