package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	OrderService_ServiceName                 = "storefront.v1.OrderService"
	OrderService_GetOrder_FullMethodName     = "/storefront.v1.OrderService/GetOrder"
	OrderService_UpdateStatus_FullMethodName = "/storefront.v1.OrderService/UpdateStatus"
	OrderService_SaveAuditLog_FullMethodName = "/storefront.v1.OrderService/SaveAuditLog"
)

// OrderServiceClient is the client API for OrderService.
type OrderServiceClient interface {
	GetOrder(ctx context.Context, in *GetOrderRequest, opts ...grpc.CallOption) (*GetOrderResponse, error)
	UpdateStatus(ctx context.Context, in *UpdateStatusRequest, opts ...grpc.CallOption) (*UpdateStatusResponse, error)
	SaveAuditLog(ctx context.Context, in *SaveAuditLogRequest, opts ...grpc.CallOption) (*SaveAuditLogResponse, error)
}

type orderServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewOrderServiceClient(cc grpc.ClientConnInterface) OrderServiceClient {
	return &orderServiceClient{cc}
}

func (c *orderServiceClient) GetOrder(
	ctx context.Context,
	in *GetOrderRequest,
	opts ...grpc.CallOption,
) (*GetOrderResponse, error) {
	out := new(GetOrderResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, OrderService_GetOrder_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *orderServiceClient) UpdateStatus(
	ctx context.Context,
	in *UpdateStatusRequest,
	opts ...grpc.CallOption,
) (*UpdateStatusResponse, error) {
	out := new(UpdateStatusResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, OrderService_UpdateStatus_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *orderServiceClient) SaveAuditLog(
	ctx context.Context,
	in *SaveAuditLogRequest,
	opts ...grpc.CallOption,
) (*SaveAuditLogResponse, error) {
	out := new(SaveAuditLogResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, OrderService_SaveAuditLog_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// OrderServiceServer is the server API for OrderService.
type OrderServiceServer interface {
	GetOrder(context.Context, *GetOrderRequest) (*GetOrderResponse, error)
	UpdateStatus(context.Context, *UpdateStatusRequest) (*UpdateStatusResponse, error)
	SaveAuditLog(context.Context, *SaveAuditLogRequest) (*SaveAuditLogResponse, error)
}

// UnimplementedOrderServiceServer can be embedded to have forward compatible implementations.
type UnimplementedOrderServiceServer struct{}

func (UnimplementedOrderServiceServer) GetOrder(context.Context, *GetOrderRequest) (*GetOrderResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetOrder not implemented")
}

func (UnimplementedOrderServiceServer) UpdateStatus(
	context.Context,
	*UpdateStatusRequest,
) (*UpdateStatusResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method UpdateStatus not implemented")
}

func (UnimplementedOrderServiceServer) SaveAuditLog(
	context.Context,
	*SaveAuditLogRequest,
) (*SaveAuditLogResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SaveAuditLog not implemented")
}

func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&OrderService_ServiceDesc, srv)
}

func _OrderService_GetOrder_Handler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(GetOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServiceServer).GetOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: OrderService_GetOrder_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderServiceServer).GetOrder(ctx, req.(*GetOrderRequest))
	}

	return interceptor(ctx, in, info, handler)
}

func _OrderService_UpdateStatus_Handler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(UpdateStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServiceServer).UpdateStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: OrderService_UpdateStatus_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderServiceServer).UpdateStatus(ctx, req.(*UpdateStatusRequest))
	}

	return interceptor(ctx, in, info, handler)
}

func _OrderService_SaveAuditLog_Handler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(SaveAuditLogRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServiceServer).SaveAuditLog(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: OrderService_SaveAuditLog_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderServiceServer).SaveAuditLog(ctx, req.(*SaveAuditLogRequest))
	}

	return interceptor(ctx, in, info, handler)
}

// OrderService_ServiceDesc is the grpc.ServiceDesc for OrderService.
var OrderService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: OrderService_ServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetOrder",
			Handler:    _OrderService_GetOrder_Handler,
		},
		{
			MethodName: "UpdateStatus",
			Handler:    _OrderService_UpdateStatus_Handler,
		},
		{
			MethodName: "SaveAuditLog",
			Handler:    _OrderService_SaveAuditLog_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/v1/order_service",
}
