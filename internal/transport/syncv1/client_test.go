package syncv1

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/auth"
	"github.com/fekuna/omnipos-pos-terminal/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeServer struct {
	UnimplementedSyncServiceServer
	products   []model.Product
	gotSince   time.Time
	gotLimit   int32
	terminalID string
	pushed     []model.Order
	pushErr    error
}

func (s *fakeServer) PullProducts(_ context.Context, req *PullProductsRequest) (*PullProductsResponse, error) {
	s.gotSince = req.Since
	s.gotLimit = req.Limit
	resp := &PullProductsResponse{Products: s.products, Checkpoint: req.Since}
	if len(s.products) > 0 {
		resp.Checkpoint = s.products[len(s.products)-1].UpdatedAt
	}
	return resp, nil
}

func (s *fakeServer) PushOrders(ctx context.Context, req *PushOrdersRequest) (*PushOrdersResponse, error) {
	if s.pushErr != nil {
		return nil, s.pushErr
	}
	s.terminalID = auth.GetTerminalID(ctx)
	s.pushed = append(s.pushed, req.Orders...)
	return &PushOrdersResponse{Accepted: int32(len(req.Orders))}, nil
}

func startServer(t *testing.T, srv SyncServiceServer) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(auth.ContextInterceptor()))
	RegisterSyncServiceServer(s, srv)
	go s.Serve(lis)
	t.Cleanup(s.Stop)

	c, err := Dial("passthrough:///bufnet", "till-7",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientPullProducts(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	srv := &fakeServer{products: []model.Product{{
		ID:        "p1",
		Name:      "Milk",
		Barcode:   "8901030875766",
		Price:     decimal.RequireFromString("25.50"),
		UpdatedAt: at,
	}}}
	c := startServer(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	page, err := c.PullProducts(ctx, time.Unix(0, 0), 50)
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Milk", page.Products[0].Name)
	assert.True(t, page.Products[0].Price.Equal(decimal.RequireFromString("25.5")))
	assert.True(t, page.Checkpoint.Equal(at))
	assert.True(t, srv.gotSince.Equal(time.Unix(0, 0)))
	assert.Equal(t, int32(50), srv.gotLimit)
}

func TestClientPushOrdersCarriesTerminalID(t *testing.T) {
	srv := &fakeServer{}
	c := startServer(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := c.PushOrders(ctx, []model.Order{{ID: "o1"}, {ID: "o2"}})
	require.NoError(t, err)
	assert.Equal(t, "till-7", srv.terminalID)
	assert.Len(t, srv.pushed, 2)

	srv.pushErr = status.Error(codes.InvalidArgument, "order o3: order must have at least one item")
	err = c.PushOrders(ctx, []model.Order{{ID: "o3"}})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestClientUnimplemented(t *testing.T) {
	c := startServer(t, &fakeServer{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.UpsertProducts(ctx, nil)
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}
