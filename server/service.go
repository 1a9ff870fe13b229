package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "nesproject.Console"

// ConsoleServer is the remote-control surface. Messages are protobuf
// well-known types, so the service needs no generated code.
type ConsoleServer interface {
	GetFrame(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
	ReadMemory(context.Context, *wrapperspb.UInt32Value) (*wrapperspb.UInt32Value, error)
	ReadMemoryBlock(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
	GetCPUState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Reset(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Pause(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Resume(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Step(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SaveState(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	LoadState(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	StreamInput(grpc.ClientStreamingServer[wrapperspb.UInt32Value, emptypb.Empty]) error
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unary builds the method descriptor for one request/response RPC.
func unary[Req, Resp proto.Message](name string, newReq func() Req, call func(ConsoleServer, context.Context, Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(ConsoleServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(Req))
			})
		},
	}
}

func newEmpty() *emptypb.Empty           { return &emptypb.Empty{} }
func newUInt32() *wrapperspb.UInt32Value { return &wrapperspb.UInt32Value{} }
func newString() *wrapperspb.StringValue { return &wrapperspb.StringValue{} }
func newStruct() *structpb.Struct        { return &structpb.Struct{} }

// ServiceDesc describes ConsoleServer to grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConsoleServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetFrame", newEmpty, ConsoleServer.GetFrame),
		unary("ReadMemory", newUInt32, ConsoleServer.ReadMemory),
		unary("ReadMemoryBlock", newStruct, ConsoleServer.ReadMemoryBlock),
		unary("GetCPUState", newEmpty, ConsoleServer.GetCPUState),
		unary("Reset", newEmpty, ConsoleServer.Reset),
		unary("Pause", newEmpty, ConsoleServer.Pause),
		unary("Resume", newEmpty, ConsoleServer.Resume),
		unary("Step", newEmpty, ConsoleServer.Step),
		unary("SaveState", newString, ConsoleServer.SaveState),
		unary("LoadState", newString, ConsoleServer.LoadState),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamInput",
			ClientStreams: true,
			Handler: func(srv any, stream grpc.ServerStream) error {
				return srv.(ConsoleServer).StreamInput(&grpc.GenericServerStream[wrapperspb.UInt32Value, emptypb.Empty]{ServerStream: stream})
			},
		},
	},
	Metadata: "server/console.proto",
}

// RegisterConsoleServer registers srv on s.
func RegisterConsoleServer(s grpc.ServiceRegistrar, srv ConsoleServer) {
	s.RegisterService(&ServiceDesc, srv)
}
