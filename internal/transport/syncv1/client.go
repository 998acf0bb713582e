package syncv1

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/auth"
	"github.com/fekuna/omnipos-pos-terminal/internal/model"
	"github.com/fekuna/omnipos-pos-terminal/internal/replication"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client is the terminal side of the sync API. It serves as both the
// replication CatalogSource and OrderSink.
type Client struct {
	conn *grpc.ClientConn
	rpc  SyncServiceClient
}

// Dial connects lazily; the first RPC establishes the connection, so an
// offline backend does not stop the terminal from starting.
func Dial(addr, terminalID string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(auth.TerminalIDInterceptor(terminalID)),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial sync backend %s: %w", addr, err)
	}
	return &Client{conn: conn, rpc: NewSyncServiceClient(conn)}, nil
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{rpc: NewSyncServiceClient(cc)}
}

func (c *Client) PullProducts(ctx context.Context, since time.Time, limit int) (*replication.CatalogPage, error) {
	resp, err := c.rpc.PullProducts(ctx, &PullProductsRequest{Since: since.UTC(), Limit: int32(limit)})
	if err != nil {
		return nil, err
	}
	return &replication.CatalogPage{Products: resp.Products, Checkpoint: resp.Checkpoint}, nil
}

func (c *Client) PushOrders(ctx context.Context, orders []model.Order) error {
	resp, err := c.rpc.PushOrders(ctx, &PushOrdersRequest{Orders: orders})
	if err != nil {
		return err
	}
	if int(resp.Accepted) != len(orders) {
		return fmt.Errorf("backend accepted %d of %d orders", resp.Accepted, len(orders))
	}
	return nil
}

func (c *Client) UpsertProducts(ctx context.Context, products []model.Product) (int, error) {
	resp, err := c.rpc.UpsertProducts(ctx, &UpsertProductsRequest{Products: products})
	if err != nil {
		return 0, err
	}
	return int(resp.Upserted), nil
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
