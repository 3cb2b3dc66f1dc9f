package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "logbook.v1.LogService"

const (
	methodCreate       = "/" + ServiceName + "/Create"
	methodListActive   = "/" + ServiceName + "/ListActive"
	methodListArchived = "/" + ServiceName + "/ListArchived"
	methodDelete       = "/" + ServiceName + "/Delete"
	methodArchive      = "/" + ServiceName + "/Archive"
)

// LogServiceServer is the server API for the log service. Messages are
// protobuf well-known types, so no generated code is required.
type LogServiceServer interface {
	Create(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListActive(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	ListArchived(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	Delete(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Archive(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// RegisterLogServiceServer registers srv on s
func RegisterLogServiceServer(s grpc.ServiceRegistrar, srv LogServiceServer) {
	s.RegisterService(&LogServiceDesc, srv)
}

// unary builds a method handler for a request type Req.
func unary[Req any, Resp any](fullMethod string, call func(LogServiceServer, context.Context, *Req) (Resp, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LogServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(LogServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// LogServiceDesc describes the log service for grpc.Server
var LogServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Create", Handler: unary(methodCreate, LogServiceServer.Create)},
		{MethodName: "ListActive", Handler: unary(methodListActive, LogServiceServer.ListActive)},
		{MethodName: "ListArchived", Handler: unary(methodListArchived, LogServiceServer.ListArchived)},
		{MethodName: "Delete", Handler: unary(methodDelete, LogServiceServer.Delete)},
		{MethodName: "Archive", Handler: unary(methodArchive, LogServiceServer.Archive)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "logbook/v1/log_service",
}

// LogServiceClient calls the log service over a client connection
type LogServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLogServiceClient creates a client on cc
func NewLogServiceClient(cc grpc.ClientConnInterface) *LogServiceClient {
	return &LogServiceClient{cc: cc}
}

func (c *LogServiceClient) Create(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodCreate, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LogServiceClient) ListActive(ctx context.Context, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, methodListActive, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LogServiceClient) ListArchived(ctx context.Context, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, methodListArchived, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LogServiceClient) Delete(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodDelete, wrapperspb.String(id), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LogServiceClient) Archive(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodArchive, wrapperspb.String(id), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
