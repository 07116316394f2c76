package redis

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/pior/redis/internal/coarsetime"
	"github.com/pior/redis/resp"
)

// readBufferSize is the size of the read loop's chunk buffer. Replies larger
// than this simply span multiple reads; the decoder reassembles them.
const readBufferSize = 64 * 1024

// Connection is a single pipelined connection to a redis server.
//
// All commands share one transport: writes are serialized by the pipeline,
// and a background read loop feeds replies back in arrival order. Multiple
// goroutines may issue commands concurrently; replies cannot be
// misattributed because the server answers in submission order.
//
// A connection that experienced a transport or protocol error is dead and
// must be discarded; it never recovers. Retry policy belongs to the caller
// (or the pooled Client), not here: after a partial pipeline failure some
// commands may have already taken effect server-side, so blind resubmission
// is not safe to automate.
type Connection struct {
	netConn  net.Conn
	pipeline *Pipeline

	mu       sync.Mutex
	lastUsed time.Time
	closed   bool

	readDone chan struct{}
}

// NewConnection wraps an established transport and starts its read loop.
func NewConnection(netConn net.Conn) *Connection {
	c := &Connection{
		netConn:  netConn,
		pipeline: NewPipeline(netConn),
		lastUsed: coarsetime.Now(),
		readDone: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Dial connects to addr ("host:port") and returns a ready connection.
func Dial(ctx context.Context, addr string) (*Connection, error) {
	var d net.Dialer
	netConn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &ConnectionError{Op: "dial", Err: err}
	}
	return NewConnection(netConn), nil
}

// readLoop pumps transport bytes into the pipeline until the connection
// dies. It is the only reader of netConn.
func (c *Connection) readLoop() {
	defer close(c.readDone)

	buf := make([]byte, readBufferSize)
	for {
		n, err := c.netConn.Read(buf)
		if n > 0 {
			if ferr := c.pipeline.Feed(buf[:n]); ferr != nil {
				// Protocol violation: the pipeline already failed all
				// pending commands, just drop the transport.
				c.netConn.Close()
				return
			}
		}
		if err != nil {
			// No-op when the close was local: the pipeline is already in
			// its terminal state with ErrClosed.
			c.pipeline.CloseWithError(&ConnectionError{Op: "read", Err: err})
			c.netConn.Close()
			return
		}
	}
}

// Send enqueues commands on the shared pipeline without waiting for their
// replies. Commands are written back to back in one transport write, so a
// batch pays a single round trip.
func (c *Connection) Send(cmds ...*Command) error {
	err := c.pipeline.EnqueueCommand(cmds...)
	if err == nil {
		c.touch()
	}
	return err
}

// Do issues a command and waits for its reply.
//
// ctx bounds the wait only. An expired ctx abandons this caller's interest
// in the reply; the command itself stays queued and is still consumed by
// the next reply, keeping positional correlation intact for everyone else.
func (c *Connection) Do(ctx context.Context, args ...string) (resp.Value, error) {
	cmd := NewCommand(args...)
	if err := c.Send(cmd); err != nil {
		return resp.Value{}, err
	}
	if err := cmd.Wait(ctx); err != nil {
		return resp.Value{}, err
	}
	return cmd.Result()
}

// Ping issues PING and verifies the PONG reply. Used by pool health checks.
func (c *Connection) Ping(ctx context.Context) error {
	v, err := c.Do(ctx, "PING")
	if err != nil {
		return err
	}
	if v.Type != resp.TypeSimpleString || v.Str() != "PONG" {
		return &ConnectionError{Op: "ping", Err: errors.New("unexpected reply " + v.String())}
	}
	return nil
}

// InFlight returns the number of commands awaiting a reply.
func (c *Connection) InFlight() int {
	return c.pipeline.Pending()
}

// LastUsed returns when a command was last sent on the connection.
func (c *Connection) LastUsed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

// IsClosed reports whether the connection is dead.
func (c *Connection) IsClosed() bool {
	return c.pipeline.Closed()
}

// RemoteAddr returns the server address of the underlying transport.
func (c *Connection) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// Close tears down the transport. Pending commands fail with ErrClosed, in
// enqueue order. Safe to call multiple times.
func (c *Connection) Close() error {
	c.mu.Lock()
	alreadyClosed := c.closed
	c.closed = true
	c.mu.Unlock()
	if alreadyClosed {
		return nil
	}

	c.pipeline.Close()
	err := c.netConn.Close()
	<-c.readDone
	return err
}

func (c *Connection) touch() {
	c.mu.Lock()
	c.lastUsed = coarsetime.Now()
	c.mu.Unlock()
}
