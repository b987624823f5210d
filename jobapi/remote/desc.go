package remote

import (
	"context"

	"google.golang.org/grpc"
)

// serviceDesc is the hand-built equivalent of what protoc-gen-go-grpc would
// emit for judgeservice.proto. grpc.Server.RegisterService accepts this
// directly; nothing about unary RPC dispatch requires generated code, only
// agreement between Client and Server on method names and the wire codec.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: methodReserveExecution, Handler: reserveExecutionHandler},
		{MethodName: methodReleaseReservation, Handler: releaseReservationHandler},
		{MethodName: methodPlaceFile, Handler: placeFileHandler},
		{MethodName: methodCloneOutcome, Handler: cloneOutcomeHandler},
		{MethodName: methodReleaseOutcome, Handler: releaseOutcomeHandler},
		{MethodName: methodExecute, Handler: executeHandler},
	},
	Streams:  nil,
	Metadata: "judgeservice.proto",
}

func reserveExecutionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(ReserveExecutionRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(*Server)
	if interceptor == nil {
		return s.reserveExecution(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: s, FullMethod: fullMethod(methodReserveExecution)}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.reserveExecution(ctx, req.(*ReserveExecutionRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func releaseReservationHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(ReleaseReservationRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(*Server)
	if interceptor == nil {
		return s.releaseReservation(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: s, FullMethod: fullMethod(methodReleaseReservation)}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.releaseReservation(ctx, req.(*ReleaseReservationRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func placeFileHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(PlaceFileRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(*Server)
	if interceptor == nil {
		return s.placeFile(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: s, FullMethod: fullMethod(methodPlaceFile)}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.placeFile(ctx, req.(*PlaceFileRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func cloneOutcomeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(CloneOutcomeRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(*Server)
	if interceptor == nil {
		return s.cloneOutcome(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: s, FullMethod: fullMethod(methodCloneOutcome)}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.cloneOutcome(ctx, req.(*CloneOutcomeRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func releaseOutcomeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(ReleaseOutcomeRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(*Server)
	if interceptor == nil {
		return s.releaseOutcome(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: s, FullMethod: fullMethod(methodReleaseOutcome)}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.releaseOutcome(ctx, req.(*ReleaseOutcomeRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func executeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(ExecuteRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	s := srv.(*Server)
	if interceptor == nil {
		return s.execute(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: s, FullMethod: fullMethod(methodExecute)}
	handler := func(ctx context.Context, req any) (any, error) {
		return s.execute(ctx, req.(*ExecuteRequest))
	}
	return interceptor(ctx, req, info, handler)
}
