package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func TestGetTerminalIDFromMetadata(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(TerminalIDHeader, "till-7"))
	assert.Equal(t, "till-7", GetTerminalID(ctx))
	assert.Equal(t, "", GetTerminalID(context.Background()))
}

func TestContextInterceptorPromotesMetadata(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(TerminalIDHeader, "till-1"))

	var seen string
	_, err := ContextInterceptor()(ctx, nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, req any) (any, error) {
		seen, _ = ctx.Value(terminalIDKey{}).(string)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "till-1", seen)
}

func TestTerminalIDInterceptorAppendsMetadata(t *testing.T) {
	var got []string
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		got = md.Get(TerminalIDHeader)
		return nil
	}
	require.NoError(t, TerminalIDInterceptor("till-2")(context.Background(), "/x", nil, nil, nil, invoker))
	assert.Equal(t, []string{"till-2"}, got)
}
