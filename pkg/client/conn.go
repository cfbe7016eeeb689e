package client

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/lithammer/shortuuid/v4"

	"github.com/kvwire/kvwire/pkg/common"
	"github.com/kvwire/kvwire/pkg/respio"
)

var (
	logger                  = common.InitLogger().WithName("client")
	defaultDialRetryBackoff = backoff.WithMaxElapsedTime(30 * time.Second)
)

// Conn owns one duplex byte stream to the server. Bytes read from the
// stream feed the decoder; the engine writes commands and awaits decoded
// replies. Submit is the sole command entry point; the catalog in
// commands.go layers on top of it.
type Conn struct {
	Id     string
	conn   net.Conn
	dec    *respio.Decoder
	eng    *engine
	opts   *Options
	stats  *CommandStats
	closed atomic.Bool
}

// New wraps an already-connected duplex byte stream.
func New(conn net.Conn, opts ...Option) *Conn {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	var stats *CommandStats
	if options.StatsEnabled {
		stats = newCommandStats()
	}
	dec := respio.NewDecoder()
	c := &Conn{
		Id:    shortuuid.New(),
		conn:  conn,
		dec:   dec,
		eng:   newEngine(respio.NewWriter(conn), dec, stats),
		opts:  options,
		stats: stats,
	}
	go c.readLoop()
	return c
}

// Dial establishes the byte stream and wraps it.
func Dial(ctx context.Context, addr string, opts ...Option) (*Conn, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	dialer := &net.Dialer{Timeout: options.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		logger.Error(err, "Failed to dial server", "Addr", addr)
		return nil, err
	}
	return New(conn, opts...), nil
}

// DialWithRetry retries the initial dial with exponential backoff until
// the server accepts or the backoff gives up. Only the first dial is
// retried; an established connection is never redialed.
func DialWithRetry(ctx context.Context, addr string, opts ...Option) (*Conn, error) {
	return backoff.Retry(ctx, func() (*Conn, error) {
		return Dial(ctx, addr, opts...)
	}, defaultDialRetryBackoff)
}

// readLoop feeds arriving chunks to the decoder. Each read gets a fresh
// buffer because the decoder holds chunks until consumed.
func (c *Conn) readLoop() {
	for {
		buf := make([]byte, c.opts.ReadBufferSize)
		n, err := c.conn.Read(buf)
		if n > 0 {
			c.dec.Feed(buf[:n])
		}
		if err != nil {
			transportErr := &TransportError{Op: "read", Err: err}
			if !c.closed.Load() && common.IsConnUnavailable(err) {
				logger.Info("Connection closed by peer", "connId", c.Id, "error", err)
			}
			c.dec.Fail(transportErr)
			c.eng.shutdown(transportErr)
			return
		}
	}
}

// Submit enqueues one command. The returned Pending resolves with the
// decoded reply, a ServerError, or a transport error.
func (c *Conn) Submit(cmd *Command) (*Pending, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	return c.eng.submit(cmd)
}

// Do submits and waits.
func (c *Conn) Do(ctx context.Context, cmd *Command) (*respio.Reply, error) {
	p, err := c.Submit(cmd)
	if err != nil {
		return nil, err
	}
	return p.Wait(ctx)
}

// Close aborts: it stops accepting submissions, fails every queued and
// in-flight command with ErrClosed, and closes the byte stream. It does
// not drain the queue first.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return ErrClosed
	}
	c.eng.shutdown(ErrClosed)
	c.dec.Fail(ErrClosed)
	closeErr := c.conn.Close()
	logger.Info("Connection closed", "connId", c.Id, "error", closeErr)
	return closeErr
}

// Stats returns the per-command counters, or nil when not enabled.
func (c *Conn) Stats() *CommandStats {
	return c.stats
}

func (c *Conn) RemoteAddr() net.Addr {
	if c.conn != nil {
		return c.conn.RemoteAddr()
	}
	return nil
}
