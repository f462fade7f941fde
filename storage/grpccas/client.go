package grpccas

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/stratumlabs/strata/digest"
	"github.com/stratumlabs/strata/storage"
)

// Client implements storage.CAS over a CAS gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client CASClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewCASClient(cc), Timeout: 0}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Put(ctx context.Context, data []byte) (digest.Hash, error) {
	if c == nil || c.client == nil {
		return digest.Hash{}, storage.ErrNotFound
	}
	expected := digest.Sum(data)

	rpcCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	reply, err := c.client.Put(rpcCtx, wrapperspb.Bytes(data))
	if err != nil {
		return digest.Hash{}, mapRPC(err)
	}
	h, err := digest.Parse(reply.GetValue())
	if err != nil {
		return digest.Hash{}, storage.ErrHashMismatch
	}
	if h != expected {
		return digest.Hash{}, storage.ErrHashMismatch
	}
	return h, nil
}

func (c *Client) Get(ctx context.Context, h digest.Hash) ([]byte, error) {
	if h.IsZero() {
		return nil, storage.ErrHashMismatch
	}
	rpcCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	reply, err := c.client.Get(rpcCtx, wrapperspb.String(h.String()))
	if err != nil {
		return nil, mapRPC(err)
	}
	b := reply.GetValue()
	if digest.Sum(b) != h {
		return nil, storage.ErrHashMismatch
	}
	return b, nil
}

func (c *Client) Has(ctx context.Context, h digest.Hash) bool {
	if h.IsZero() {
		return false
	}
	rpcCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	reply, err := c.client.Has(rpcCtx, wrapperspb.String(h.String()))
	if err != nil {
		return false
	}
	return reply.GetValue()
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}
