package promised

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// The service is described by hand: requests and responses are well-known
// protobuf types carrying the same JSON documents as the HTTP API.
const (
	serviceName = "promise.v1.PromiseService"

	methodEvaluate         = "/" + serviceName + "/Evaluate"
	methodGetScenario      = "/" + serviceName + "/GetScenario"
	methodUpdateScenario   = "/" + serviceName + "/UpdateScenario"
	methodApplyActions     = "/" + serviceName + "/ApplyActions"
	methodWatchEvaluations = "/" + serviceName + "/WatchEvaluations"
)

// PromiseServiceServer is the server API for promise.v1.PromiseService
type PromiseServiceServer interface {
	// Evaluate scores a scenario without changing the session.
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// GetScenario returns the session's current scenario.
	GetScenario(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// UpdateScenario replaces the session's scenario.
	UpdateScenario(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ApplyActions applies the currently recommended actions.
	ApplyActions(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// WatchEvaluations streams the current evaluation and every later one.
	WatchEvaluations(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

// RegisterPromiseServiceServer registers srv with s
func RegisterPromiseServiceServer(s grpc.ServiceRegistrar, srv PromiseServiceServer) {
	s.RegisterService(&PromiseServiceDesc, srv)
}

// PromiseServiceDesc is the grpc.ServiceDesc for promise.v1.PromiseService
var PromiseServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*PromiseServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: evaluateHandler},
		{MethodName: "GetScenario", Handler: getScenarioHandler},
		{MethodName: "UpdateScenario", Handler: updateScenarioHandler},
		{MethodName: "ApplyActions", Handler: applyActionsHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchEvaluations", Handler: watchEvaluationsHandler, ServerStreams: true},
	},
	Metadata: "promise/v1/promise.proto",
}

func evaluateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PromiseServiceServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodEvaluate}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PromiseServiceServer).Evaluate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getScenarioHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PromiseServiceServer).GetScenario(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetScenario}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PromiseServiceServer).GetScenario(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func updateScenarioHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PromiseServiceServer).UpdateScenario(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodUpdateScenario}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PromiseServiceServer).UpdateScenario(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func applyActionsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PromiseServiceServer).ApplyActions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodApplyActions}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PromiseServiceServer).ApplyActions(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func watchEvaluationsHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(PromiseServiceServer).WatchEvaluations(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}
