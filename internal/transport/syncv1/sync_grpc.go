package syncv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	SyncService_PullProducts_FullMethodName   = "/omnipos.sync.v1.SyncService/PullProducts"
	SyncService_PushOrders_FullMethodName     = "/omnipos.sync.v1.SyncService/PushOrders"
	SyncService_UpsertProducts_FullMethodName = "/omnipos.sync.v1.SyncService/UpsertProducts"
)

// SyncServiceClient is the client API for SyncService.
type SyncServiceClient interface {
	PullProducts(ctx context.Context, in *PullProductsRequest, opts ...grpc.CallOption) (*PullProductsResponse, error)
	PushOrders(ctx context.Context, in *PushOrdersRequest, opts ...grpc.CallOption) (*PushOrdersResponse, error)
	UpsertProducts(ctx context.Context, in *UpsertProductsRequest, opts ...grpc.CallOption) (*UpsertProductsResponse, error)
}

type syncServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSyncServiceClient(cc grpc.ClientConnInterface) SyncServiceClient {
	return &syncServiceClient{cc}
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *syncServiceClient) PullProducts(ctx context.Context, in *PullProductsRequest, opts ...grpc.CallOption) (*PullProductsResponse, error) {
	out := new(PullProductsResponse)
	err := c.cc.Invoke(ctx, SyncService_PullProducts_FullMethodName, in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *syncServiceClient) PushOrders(ctx context.Context, in *PushOrdersRequest, opts ...grpc.CallOption) (*PushOrdersResponse, error) {
	out := new(PushOrdersResponse)
	err := c.cc.Invoke(ctx, SyncService_PushOrders_FullMethodName, in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *syncServiceClient) UpsertProducts(ctx context.Context, in *UpsertProductsRequest, opts ...grpc.CallOption) (*UpsertProductsResponse, error) {
	out := new(UpsertProductsResponse)
	err := c.cc.Invoke(ctx, SyncService_UpsertProducts_FullMethodName, in, out, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SyncServiceServer is the server API for SyncService.
type SyncServiceServer interface {
	PullProducts(context.Context, *PullProductsRequest) (*PullProductsResponse, error)
	PushOrders(context.Context, *PushOrdersRequest) (*PushOrdersResponse, error)
	UpsertProducts(context.Context, *UpsertProductsRequest) (*UpsertProductsResponse, error)
}

// UnimplementedSyncServiceServer can be embedded for forward compatibility.
type UnimplementedSyncServiceServer struct{}

func (UnimplementedSyncServiceServer) PullProducts(context.Context, *PullProductsRequest) (*PullProductsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method PullProducts not implemented")
}

func (UnimplementedSyncServiceServer) PushOrders(context.Context, *PushOrdersRequest) (*PushOrdersResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method PushOrders not implemented")
}

func (UnimplementedSyncServiceServer) UpsertProducts(context.Context, *UpsertProductsRequest) (*UpsertProductsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpsertProducts not implemented")
}

func RegisterSyncServiceServer(s grpc.ServiceRegistrar, srv SyncServiceServer) {
	s.RegisterService(&SyncService_ServiceDesc, srv)
}

func _SyncService_PullProducts_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PullProductsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SyncServiceServer).PullProducts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SyncService_PullProducts_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SyncServiceServer).PullProducts(ctx, req.(*PullProductsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SyncService_PushOrders_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PushOrdersRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SyncServiceServer).PushOrders(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SyncService_PushOrders_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SyncServiceServer).PushOrders(ctx, req.(*PushOrdersRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SyncService_UpsertProducts_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UpsertProductsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SyncServiceServer).UpsertProducts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SyncService_UpsertProducts_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SyncServiceServer).UpsertProducts(ctx, req.(*UpsertProductsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// SyncService_ServiceDesc is the grpc.ServiceDesc for SyncService.
var SyncService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "omnipos.sync.v1.SyncService",
	HandlerType: (*SyncServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "PullProducts",
			Handler:    _SyncService_PullProducts_Handler,
		},
		{
			MethodName: "PushOrders",
			Handler:    _SyncService_PushOrders_Handler,
		},
		{
			MethodName: "UpsertProducts",
			Handler:    _SyncService_UpsertProducts_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/sync/v1/sync.proto",
}
