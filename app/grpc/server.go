package grpc

import (
	"context"
	"errors"

	"github.com/Youndhen-tamang/kundcoffee-sub002/app/mapper"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/service"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const msgInternalError = "internal server error"

type Server struct {
	types.UnimplementedPaymentsServiceServer
	paymentService *service.PaymentService
}

func NewServer(paymentService *service.PaymentService) *Server {
	return &Server{paymentService: paymentService}
}

func (s *Server) Health(_ context.Context, _ *emptypb.Empty) (*types.HealthResponse, error) {
	return &types.HealthResponse{Status: "ok"}, nil
}

func (s *Server) CreatePayment(ctx context.Context, req *types.CreatePaymentRequest) (*types.PaymentEnvelopeResponse, error) {
	l := loggerWithContext(ctx)
	if err := req.Validate(); err != nil {
		l.WithError(err).Debug("Create payment validation failed")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	item, err := s.paymentService.CreatePayment(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest),
			errors.Is(err, service.ErrInvalidAmount),
			errors.Is(err, service.ErrProviderUnsupported):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, service.ErrSessionNotFound):
			return nil, status.Error(codes.NotFound, err.Error())
		case errors.Is(err, service.ErrSessionNotActive):
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		case errors.Is(err, service.ErrPaymentAlreadyExists):
			return nil, status.Error(codes.AlreadyExists, err.Error())
		default:
			l.WithError(err).Error("Create payment failed")
			return nil, status.Error(codes.Internal, msgInternalError)
		}
	}

	return &types.PaymentEnvelopeResponse{Payment: mapper.PaymentToProto(item)}, nil
}

func (s *Server) GetPayment(ctx context.Context, req *types.GetPaymentRequest) (*types.PaymentEnvelopeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	item, err := s.paymentService.GetPayment(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			return nil, status.Error(codes.NotFound, "payment not found")
		}
		loggerWithContext(ctx).WithError(err).Error("Get payment failed")
		return nil, status.Error(codes.Internal, msgInternalError)
	}

	return &types.PaymentEnvelopeResponse{Payment: mapper.PaymentToProto(item)}, nil
}

func (s *Server) ListPayments(ctx context.Context, req *types.ListPaymentsRequest) (*types.ListPaymentsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	items, err := s.paymentService.ListPayments(ctx, req)
	if err != nil {
		loggerWithContext(ctx).WithError(err).Error("List payments failed")
		return nil, status.Error(codes.Internal, msgInternalError)
	}

	return &types.ListPaymentsResponse{Payments: mapper.PaymentsToProto(items)}, nil
}

func (s *Server) CancelPayment(ctx context.Context, req *types.CancelPaymentRequest) (*types.PaymentEnvelopeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	item, err := s.paymentService.CancelPayment(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			return nil, status.Error(codes.NotFound, "payment not found")
		case errors.Is(err, service.ErrInvalidStatus):
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		default:
			loggerWithContext(ctx).WithError(err).Error("Cancel payment failed")
			return nil, status.Error(codes.Internal, msgInternalError)
		}
	}

	return &types.PaymentEnvelopeResponse{Payment: mapper.PaymentToProto(item)}, nil
}

func (s *Server) GetPaymentStatus(ctx context.Context, req *types.GetPaymentRequest) (*types.PaymentStatusResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	paymentStatus, err := s.paymentService.GetPaymentStatus(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			return nil, status.Error(codes.NotFound, "payment not found")
		}
		loggerWithContext(ctx).WithError(err).Error("Get payment status failed")
		return nil, status.Error(codes.Internal, msgInternalError)
	}

	return &types.PaymentStatusResponse{Success: true, Status: paymentStatus.String()}, nil
}

func (s *Server) GetGatewayConfig(ctx context.Context, req *types.GetPaymentRequest) (*types.GatewayConfigResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	cfg, err := s.paymentService.GetGatewayConfig(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			return nil, status.Error(codes.NotFound, "payment not found")
		case errors.Is(err, service.ErrAlreadyPaid), errors.Is(err, service.ErrInvalidStatus):
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		case errors.Is(err, service.ErrProviderUnsupported):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		default:
			loggerWithContext(ctx).WithError(err).Error("Get gateway config failed")
			return nil, status.Error(codes.Internal, msgInternalError)
		}
	}

	return mapper.GatewayConfigToProto(cfg), nil
}

func (s *Server) HandleGatewayCallback(ctx context.Context, req *types.HandleGatewayCallbackRequest) (*types.CallbackResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	l := loggerWithContext(ctx).WithField("payment_id", req.GetPaymentId())
	outcome, err := s.paymentService.HandleGatewayCallback(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSessionAssociated):
			return nil, status.Error(codes.InvalidArgument, service.ErrNoSessionAssociated.Error())
		case errors.Is(err, service.ErrCallbackRejected):
			l.WithError(err).Warn("Gateway callback rejected")
			return nil, status.Error(codes.InvalidArgument, "payment verification failed")
		case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrProviderUnsupported):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, service.ErrPaymentNotFound):
			return nil, status.Error(codes.NotFound, "payment not found")
		case errors.Is(err, service.ErrSessionNotActive), errors.Is(err, service.ErrSessionNotFound):
			l.WithError(err).Error("Verified callback could not settle session")
			return nil, status.Error(codes.FailedPrecondition, "table session is not active")
		default:
			l.WithError(err).Error("Handle gateway callback failed")
			return nil, status.Error(codes.Internal, msgInternalError)
		}
	}

	return &types.CallbackResponse{Success: true, Message: outcome.Message}, nil
}
