package auth

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const TerminalIDHeader = "x-terminal-id"

type terminalIDKey struct{}

func WithTerminalID(ctx context.Context, terminalID string) context.Context {
	return context.WithValue(ctx, terminalIDKey{}, terminalID)
}

// GetTerminalID returns the calling terminal, from the context value set by
// ContextInterceptor or straight from incoming metadata.
func GetTerminalID(ctx context.Context) string {
	if val, ok := ctx.Value(terminalIDKey{}).(string); ok {
		return val
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get(TerminalIDHeader); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}

// ContextInterceptor lifts the terminal id out of metadata into the context.
func ContextInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if id := GetTerminalID(ctx); id != "" {
			ctx = WithTerminalID(ctx, id)
		}
		return handler(ctx, req)
	}
}

// TerminalIDInterceptor stamps every outgoing call with the terminal id.
func TerminalIDInterceptor(terminalID string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if terminalID != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, TerminalIDHeader, terminalID)
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
