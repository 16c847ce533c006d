// Package pooler runs the accept loop that takes frontend connections
// off the listening socket and, through Router, assigns each one an
// upstream server.
package pooler

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sbgrid/pgpool/internal/client"
	"github.com/sbgrid/pgpool/internal/route"
	"github.com/sbgrid/pgpool/internal/router"
)

// Options configures the pooler's listening socket and accepted-connection
// tuning.
type Options struct {
	Host    string
	Port    int
	Backlog int
	NoDelay bool

	// KeepAlive is the idle-seconds interval for TCP keepalive on
	// accepted connections; 0 disables it.
	KeepAlive int
	ReadAhead int
}

// IdentifyFunc extracts the (database, user) identity a frontend
// connection is requesting. Parsing the PostgreSQL startup packet itself
// is out of scope here, so Pooler takes this as a pluggable hook rather
// than hardcoding a wire-protocol parser, the same shape as
// router.DialFunc on the upstream side.
type IdentifyFunc func(conn net.Conn) (route.ID, error)

// Pooler owns the listening socket and hands accepted connections to a
// Router.
type Pooler struct {
	opts     Options
	router   *router.Router
	log      *zap.Logger
	identify IdentifyFunc
	seq      uint64
}

// New constructs a Pooler bound to router for server assignment and
// identify for extracting each client's requested route.
func New(opts Options, rt *router.Router, identify IdentifyFunc, log *zap.Logger) *Pooler {
	return &Pooler{opts: opts, router: rt, identify: identify, log: log}
}

// Run listens and accepts connections until ctx is cancelled or Listen
// fails.
func (p *Pooler) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", p.opts.Host, p.opts.Port)

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("pooler: listen %s: %w", addr, err)
	}
	defer ln.Close()

	p.log.Info("")
	p.log.Info("listening", zap.String("address", addr))
	p.log.Info("")

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			p.log.Warn("pooler: transient accept error", zap.Error(err))
			continue
		}

		p.configure(conn)
		seq := atomic.AddUint64(&p.seq, 1)
		c := client.New(conn, seq)
		go p.serve(ctx, c)
	}
}

// configure applies nodelay, keepalive, and a read buffer hint to an
// accepted connection. Failures here are logged, not fatal: a client that
// can't get TCP_NODELAY still works, just slower.
func (p *Pooler) configure(conn net.Conn) {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	if err := tc.SetNoDelay(p.opts.NoDelay); err != nil {
		p.log.Debug("pooler: SetNoDelay failed", zap.Error(err))
	}
	if p.opts.KeepAlive > 0 {
		if err := tc.SetKeepAlive(true); err != nil {
			p.log.Debug("pooler: SetKeepAlive failed", zap.Error(err))
		}
		if err := tc.SetKeepAlivePeriod(time.Duration(p.opts.KeepAlive) * time.Second); err != nil {
			p.log.Debug("pooler: SetKeepAlivePeriod failed", zap.Error(err))
		}
	}
	if p.opts.ReadAhead > 0 {
		if err := tc.SetReadBuffer(p.opts.ReadAhead); err != nil {
			p.log.Debug("pooler: SetReadBuffer failed", zap.Error(err))
		}
	}
}

// serve resolves the client's route identity and attaches it to a
// server. Relaying bytes between the two connections afterward is out of
// scope; pgpool's job ends at handing out an assigned, Active server.
func (p *Pooler) serve(ctx context.Context, c *client.Client) {
	defer c.Conn().Close()

	id, err := p.identify(c.Conn())
	if err != nil {
		p.log.Warn("pooler: failed to read startup identity", zap.Uint64("client_seq", c.Seq), zap.Error(err))
		return
	}

	conn, r, srv, err := p.router.Attach(ctx, id, c)
	if err != nil {
		p.log.Info("pooler: attach failed",
			zap.Uint64("client_seq", c.Seq),
			zap.String("database", id.Database),
			zap.String("user", id.User),
			zap.Error(err))
		return
	}
	_ = conn

	p.log.Debug("pooler: client attached",
		zap.Uint64("client_seq", c.Seq),
		zap.String("database", id.Database),
		zap.String("user", id.User))

	<-ctx.Done()
	p.router.Detach(r, srv, c, false)
}
