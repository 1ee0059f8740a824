package ipc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	commandServiceName = "tabstrip.v1.Commands"
	postMethodName     = "Post"
	postMethod         = "/" + commandServiceName + "/" + postMethodName
)

// commandServer accepts one command line per call and answers with its
// canonical form.
type commandServer interface {
	Post(ctx context.Context, line *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

var commandServiceDesc = grpc.ServiceDesc{
	ServiceName: commandServiceName,
	HandlerType: (*commandServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: postMethodName,
			Handler:    postHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tabstrip/commands",
}

func postHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(commandServer).Post(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: postMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(commandServer).Post(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}
