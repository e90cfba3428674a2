package types

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const PaymentsServiceName = "pos.payments.PaymentsService"

const (
	PaymentsServiceHealthMethod                = "/" + PaymentsServiceName + "/Health"
	PaymentsServiceCreatePaymentMethod         = "/" + PaymentsServiceName + "/CreatePayment"
	PaymentsServiceGetPaymentMethod            = "/" + PaymentsServiceName + "/GetPayment"
	PaymentsServiceListPaymentsMethod          = "/" + PaymentsServiceName + "/ListPayments"
	PaymentsServiceCancelPaymentMethod         = "/" + PaymentsServiceName + "/CancelPayment"
	PaymentsServiceGetPaymentStatusMethod      = "/" + PaymentsServiceName + "/GetPaymentStatus"
	PaymentsServiceGetGatewayConfigMethod      = "/" + PaymentsServiceName + "/GetGatewayConfig"
	PaymentsServiceHandleGatewayCallbackMethod = "/" + PaymentsServiceName + "/HandleGatewayCallback"
)

type PaymentsServiceServer interface {
	Health(context.Context, *emptypb.Empty) (*HealthResponse, error)
	CreatePayment(context.Context, *CreatePaymentRequest) (*PaymentEnvelopeResponse, error)
	GetPayment(context.Context, *GetPaymentRequest) (*PaymentEnvelopeResponse, error)
	ListPayments(context.Context, *ListPaymentsRequest) (*ListPaymentsResponse, error)
	CancelPayment(context.Context, *CancelPaymentRequest) (*PaymentEnvelopeResponse, error)
	GetPaymentStatus(context.Context, *GetPaymentRequest) (*PaymentStatusResponse, error)
	GetGatewayConfig(context.Context, *GetPaymentRequest) (*GatewayConfigResponse, error)
	HandleGatewayCallback(context.Context, *HandleGatewayCallbackRequest) (*CallbackResponse, error)
}

// UnimplementedPaymentsServiceServer can be embedded to stay forward compatible.
type UnimplementedPaymentsServiceServer struct{}

func (UnimplementedPaymentsServiceServer) Health(context.Context, *emptypb.Empty) (*HealthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Health not implemented")
}

func (UnimplementedPaymentsServiceServer) CreatePayment(context.Context, *CreatePaymentRequest) (*PaymentEnvelopeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreatePayment not implemented")
}

func (UnimplementedPaymentsServiceServer) GetPayment(context.Context, *GetPaymentRequest) (*PaymentEnvelopeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPayment not implemented")
}

func (UnimplementedPaymentsServiceServer) ListPayments(context.Context, *ListPaymentsRequest) (*ListPaymentsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListPayments not implemented")
}

func (UnimplementedPaymentsServiceServer) CancelPayment(context.Context, *CancelPaymentRequest) (*PaymentEnvelopeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelPayment not implemented")
}

func (UnimplementedPaymentsServiceServer) GetPaymentStatus(context.Context, *GetPaymentRequest) (*PaymentStatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPaymentStatus not implemented")
}

func (UnimplementedPaymentsServiceServer) GetGatewayConfig(context.Context, *GetPaymentRequest) (*GatewayConfigResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetGatewayConfig not implemented")
}

func (UnimplementedPaymentsServiceServer) HandleGatewayCallback(context.Context, *HandleGatewayCallbackRequest) (*CallbackResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method HandleGatewayCallback not implemented")
}

func unaryHandler[Req any, Resp any](
	fullMethod string,
	call func(srv PaymentsServiceServer, ctx context.Context, req *Req) (*Resp, error),
) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PaymentsServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(PaymentsServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var PaymentsServiceDesc = grpc.ServiceDesc{
	ServiceName: PaymentsServiceName,
	HandlerType: (*PaymentsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Health", Handler: unaryHandler(PaymentsServiceHealthMethod, PaymentsServiceServer.Health)},
		{MethodName: "CreatePayment", Handler: unaryHandler(PaymentsServiceCreatePaymentMethod, PaymentsServiceServer.CreatePayment)},
		{MethodName: "GetPayment", Handler: unaryHandler(PaymentsServiceGetPaymentMethod, PaymentsServiceServer.GetPayment)},
		{MethodName: "ListPayments", Handler: unaryHandler(PaymentsServiceListPaymentsMethod, PaymentsServiceServer.ListPayments)},
		{MethodName: "CancelPayment", Handler: unaryHandler(PaymentsServiceCancelPaymentMethod, PaymentsServiceServer.CancelPayment)},
		{MethodName: "GetPaymentStatus", Handler: unaryHandler(PaymentsServiceGetPaymentStatusMethod, PaymentsServiceServer.GetPaymentStatus)},
		{MethodName: "GetGatewayConfig", Handler: unaryHandler(PaymentsServiceGetGatewayConfigMethod, PaymentsServiceServer.GetGatewayConfig)},
		{MethodName: "HandleGatewayCallback", Handler: unaryHandler(PaymentsServiceHandleGatewayCallbackMethod, PaymentsServiceServer.HandleGatewayCallback)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pos/payments/payments.proto",
}

func RegisterPaymentsServiceServer(s grpc.ServiceRegistrar, srv PaymentsServiceServer) {
	s.RegisterService(&PaymentsServiceDesc, srv)
}

type PaymentsServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewPaymentsServiceClient(cc grpc.ClientConnInterface) *PaymentsServiceClient {
	return &PaymentsServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in interface{}, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PaymentsServiceClient) Health(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*HealthResponse, error) {
	return invoke[HealthResponse](ctx, c.cc, PaymentsServiceHealthMethod, in, opts)
}

func (c *PaymentsServiceClient) CreatePayment(ctx context.Context, in *CreatePaymentRequest, opts ...grpc.CallOption) (*PaymentEnvelopeResponse, error) {
	return invoke[PaymentEnvelopeResponse](ctx, c.cc, PaymentsServiceCreatePaymentMethod, in, opts)
}

func (c *PaymentsServiceClient) GetPayment(ctx context.Context, in *GetPaymentRequest, opts ...grpc.CallOption) (*PaymentEnvelopeResponse, error) {
	return invoke[PaymentEnvelopeResponse](ctx, c.cc, PaymentsServiceGetPaymentMethod, in, opts)
}

func (c *PaymentsServiceClient) ListPayments(ctx context.Context, in *ListPaymentsRequest, opts ...grpc.CallOption) (*ListPaymentsResponse, error) {
	return invoke[ListPaymentsResponse](ctx, c.cc, PaymentsServiceListPaymentsMethod, in, opts)
}

func (c *PaymentsServiceClient) CancelPayment(ctx context.Context, in *CancelPaymentRequest, opts ...grpc.CallOption) (*PaymentEnvelopeResponse, error) {
	return invoke[PaymentEnvelopeResponse](ctx, c.cc, PaymentsServiceCancelPaymentMethod, in, opts)
}

func (c *PaymentsServiceClient) GetPaymentStatus(ctx context.Context, in *GetPaymentRequest, opts ...grpc.CallOption) (*PaymentStatusResponse, error) {
	return invoke[PaymentStatusResponse](ctx, c.cc, PaymentsServiceGetPaymentStatusMethod, in, opts)
}

func (c *PaymentsServiceClient) GetGatewayConfig(ctx context.Context, in *GetPaymentRequest, opts ...grpc.CallOption) (*GatewayConfigResponse, error) {
	return invoke[GatewayConfigResponse](ctx, c.cc, PaymentsServiceGetGatewayConfigMethod, in, opts)
}

func (c *PaymentsServiceClient) HandleGatewayCallback(ctx context.Context, in *HandleGatewayCallbackRequest, opts ...grpc.CallOption) (*CallbackResponse, error) {
	return invoke[CallbackResponse](ctx, c.cc, PaymentsServiceHandleGatewayCallbackMethod, in, opts)
}
