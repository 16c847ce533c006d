package client

import (
	"net"

	"github.com/google/uuid"
)

// Client represents one accepted frontend connection waiting for or bound
// to a Server. Seq is a monotonically increasing counter assigned by the
// Pooler at accept time; unlike Server's id it is not a UUID, since
// ordering clients by accept time requires a totally ordered identifier,
// something a UUID cannot give.
type Client struct {
	id   uuid.UUID
	Seq  uint64
	conn net.Conn

	// granted carries the Server assigned to this Client once Router
	// dequeues it from a route's pending bucket. It has a buffer of one,
	// so the Router goroutine's single send never blocks, even when the
	// waiting goroutine has not yet reached Wait.
	granted chan grant

	index int
}

type grant struct {
	conn net.Conn
	srv  any
	err  error
}

// New wraps an accepted frontend connection as a Client awaiting
// attachment, stamped with seq, the Pooler's next sequence number.
func New(conn net.Conn, seq uint64) *Client {
	return &Client{
		id:      uuid.New(),
		Seq:     seq,
		conn:    conn,
		granted: make(chan grant, 1),
	}
}

// ID returns the Client's stable identifier.
func (c *Client) ID() uuid.UUID { return c.id }

// Conn returns the accepted frontend connection.
func (c *Client) Conn() net.Conn { return c.conn }

// Grant delivers an assigned upstream connection to whatever goroutine is
// waiting in Wait, along with the opaque server handle (a *server.Server
// in practice; kept as `any` here to avoid an import cycle with
// internal/server) the caller needs to later call Router.Detach. It must
// be called at most once per Client.
func (c *Client) Grant(conn net.Conn, srv any) { c.granted <- grant{conn: conn, srv: srv} }

// Fail wakes a waiting Client with an error instead of an assigned
// connection. Router.Attach does not use it: it returns ErrPoolFull and
// ErrNoRoute to its caller directly.
func (c *Client) Fail(err error) { c.granted <- grant{err: err} }

// Wait blocks until Grant or Fail is called for this Client.
func (c *Client) Wait() (net.Conn, any, error) {
	g := <-c.granted
	return g.conn, g.srv, g.err
}
