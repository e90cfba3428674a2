package controller

import (
	"errors"
	"net/http"

	"github.com/Youndhen-tamang/kundcoffee-sub002/app/factory"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/mapper"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/service"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/types"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const msgInternalError = "internal server error"

type PaymentController struct {
	paymentService *service.PaymentService
	logger         logrus.FieldLogger
}

func NewPaymentController(paymentService *service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		logger:         factory.NewModuleLogger("payments-controller"),
	}
}

func (c *PaymentController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *PaymentController) CreatePayment(ctx echo.Context) error {
	req, err := types.NewCreatePaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.paymentService.CreatePayment(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest),
			errors.Is(err, service.ErrInvalidAmount),
			errors.Is(err, service.ErrProviderUnsupported):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrSessionNotFound):
			return c.writeError(ctx, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrSessionNotActive), errors.Is(err, service.ErrPaymentAlreadyExists):
			return c.writeError(ctx, http.StatusConflict, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Create payment failed")
			return c.writeError(ctx, http.StatusInternalServerError, msgInternalError)
		}
	}

	return ctx.JSON(http.StatusCreated, &types.PaymentEnvelopeResponse{Payment: mapper.PaymentToProto(item)})
}

func (c *PaymentController) GetPayment(ctx echo.Context) error {
	req, err := types.NewGetPaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.paymentService.GetPayment(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "payment not found")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Get payment failed")
		return c.writeError(ctx, http.StatusInternalServerError, msgInternalError)
	}

	return ctx.JSON(http.StatusOK, &types.PaymentEnvelopeResponse{Payment: mapper.PaymentToProto(item)})
}

func (c *PaymentController) ListPayments(ctx echo.Context) error {
	req, err := types.NewListPaymentsRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	items, err := c.paymentService.ListPayments(ctx.Request().Context(), req)
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("List payments failed")
		return c.writeError(ctx, http.StatusInternalServerError, msgInternalError)
	}

	return ctx.JSON(http.StatusOK, &types.ListPaymentsResponse{Payments: mapper.PaymentsToProto(items)})
}

func (c *PaymentController) CancelPayment(ctx echo.Context) error {
	req, err := types.NewCancelPaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.paymentService.CancelPayment(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			return c.writeError(ctx, http.StatusNotFound, "payment not found")
		case errors.Is(err, service.ErrInvalidStatus), errors.Is(err, service.ErrInvalidRequest):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Cancel payment failed")
			return c.writeError(ctx, http.StatusInternalServerError, msgInternalError)
		}
	}

	return ctx.JSON(http.StatusOK, &types.PaymentEnvelopeResponse{Payment: mapper.PaymentToProto(item)})
}

// GetPaymentStatus serves the front end's polling loop. Every answer carries
// the success flag.
func (c *PaymentController) GetPaymentStatus(ctx echo.Context) error {
	req, err := types.NewGetPaymentRequestFromContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, &types.PaymentStatusResponse{Message: "invalid payment id"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, &types.PaymentStatusResponse{Message: err.Error()})
	}

	status, err := c.paymentService.GetPaymentStatus(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			return ctx.JSON(http.StatusNotFound, &types.PaymentStatusResponse{Message: "payment not found"})
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Get payment status failed")
		return ctx.JSON(http.StatusInternalServerError, &types.PaymentStatusResponse{Message: msgInternalError})
	}

	return ctx.JSON(http.StatusOK, &types.PaymentStatusResponse{Success: true, Status: status.String()})
}

func (c *PaymentController) GetGatewayConfig(ctx echo.Context) error {
	req, err := types.NewGetPaymentRequestFromContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, &types.GatewayConfigResponse{Message: "invalid payment id"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, &types.GatewayConfigResponse{Message: err.Error()})
	}

	cfg, err := c.paymentService.GetGatewayConfig(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			return ctx.JSON(http.StatusNotFound, &types.GatewayConfigResponse{Message: "payment not found"})
		case errors.Is(err, service.ErrAlreadyPaid):
			return ctx.JSON(http.StatusConflict, &types.GatewayConfigResponse{Message: err.Error()})
		case errors.Is(err, service.ErrInvalidStatus), errors.Is(err, service.ErrProviderUnsupported):
			return ctx.JSON(http.StatusBadRequest, &types.GatewayConfigResponse{Message: err.Error()})
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Get gateway config failed")
			return ctx.JSON(http.StatusInternalServerError, &types.GatewayConfigResponse{Message: msgInternalError})
		}
	}

	return ctx.JSON(http.StatusOK, mapper.GatewayConfigToProto(cfg))
}

// HandleGatewayCallback never tells the caller which verification check
// failed: tampered and malformed results share one message.
func (c *PaymentController) HandleGatewayCallback(ctx echo.Context) error {
	req, err := types.NewHandleGatewayCallbackRequestFromContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, &types.CallbackResponse{Message: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, &types.CallbackResponse{Message: err.Error()})
	}

	logger := factory.LoggerWithContext(c.logger, ctx).WithField("payment_id", req.GetPaymentId())
	outcome, err := c.paymentService.HandleGatewayCallback(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSessionAssociated):
			logger.Warn("Verified callback for payment without session")
			return ctx.JSON(http.StatusBadRequest, &types.CallbackResponse{Message: service.ErrNoSessionAssociated.Error()})
		case errors.Is(err, service.ErrCallbackRejected):
			logger.WithError(err).Warn("Gateway callback rejected")
			return ctx.JSON(http.StatusBadRequest, &types.CallbackResponse{Message: "payment verification failed"})
		case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrProviderUnsupported):
			return ctx.JSON(http.StatusBadRequest, &types.CallbackResponse{Message: err.Error()})
		case errors.Is(err, service.ErrPaymentNotFound):
			return ctx.JSON(http.StatusNotFound, &types.CallbackResponse{Message: "payment not found"})
		case errors.Is(err, service.ErrSessionNotActive), errors.Is(err, service.ErrSessionNotFound):
			logger.WithError(err).Error("Verified callback could not settle session")
			return ctx.JSON(http.StatusConflict, &types.CallbackResponse{Message: "table session is not active"})
		default:
			logger.WithError(err).Error("Handle gateway callback failed")
			return ctx.JSON(http.StatusInternalServerError, &types.CallbackResponse{Message: msgInternalError})
		}
	}

	logger.WithField("state", outcome.State).Info("Gateway callback handled")
	return ctx.JSON(http.StatusOK, &types.CallbackResponse{Success: true, Message: outcome.Message})
}

func (c *PaymentController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
