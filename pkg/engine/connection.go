package engine

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrConnectionClosed is returned by Connection.Client after Close.
var ErrConnectionClosed = errors.New("engine connection closed")

// Dialer opens a new Client.
type Dialer func(ctx context.Context) (Client, error)

// Connection owns a lazily dialed Client. The first successful dial is cached and
// shared; a failed dial is retried on the next call. Only one dial is in flight at a
// time and callers waiting on it give up when their own ctx is done.
type Connection struct {
	mu      sync.Mutex
	dial    Dialer
	client  Client
	closed  bool
	dialing singleflight.Group
}

func NewConnection(dial Dialer) *Connection {
	return &Connection{dial: dial}
}

// Client returns the shared client, dialing it if needed.
func (c *Connection) Client(ctx context.Context) (Client, error) {
	client, err := c.current()
	if client != nil || err != nil {
		return client, err
	}

	result := c.dialing.DoChan("dial", func() (any, error) {
		return c.connect(context.WithoutCancel(ctx))
	})

	select {
	case res := <-result:
		if res.Err != nil {
			return nil, res.Err
		}

		return res.Val.(Client), nil
	case <-ctx.Done():
		return nil, &Error{Op: "connect", Kind: KindUnavailable, Err: ctx.Err()}
	}
}

func (c *Connection) current() (Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, &Error{Op: "connect", Kind: KindUnavailable, Err: ErrConnectionClosed}
	}

	return c.client, nil
}

func (c *Connection) connect(ctx context.Context) (Client, error) {
	if client, err := c.current(); client != nil || err != nil {
		return client, err
	}

	client, err := c.dial(ctx)
	if err != nil {
		return nil, &Error{Op: "connect", Kind: KindUnavailable, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		client.Close()

		return nil, &Error{Op: "connect", Kind: KindUnavailable, Err: ErrConnectionClosed}
	}

	c.client = client

	return client, nil
}

// Connected reports whether a client has been dialed and not closed.
func (c *Connection) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.client != nil && !c.closed
}

// CheckHealth dials if necessary and asks the engine whether it is serving.
func (c *Connection) CheckHealth(ctx context.Context) error {
	client, err := c.Client(ctx)
	if err != nil {
		return err
	}

	return client.CheckHealth(ctx)
}

// Close releases the client. It is safe to call more than once.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		c.client.Close()
		c.client = nil
	}

	c.closed = true
}
