package server

import (
	"net"
	"time"

	"github.com/google/uuid"
)

// Server represents one upstream PostgreSQL backend connection held by a
// route's pool. It carries no knowledge of its own bucket membership; the
// owning ServerPool is solely responsible for moving a Server between
// buckets as its State changes.
type Server struct {
	id      uuid.UUID
	conn    net.Conn
	state   State
	idle    int // idle_time, ticks spent in Idle since the last reset
	created time.Time

	// index is maintained by ServerPool to locate the Server within its
	// bucket slice on removal; callers outside this package must never
	// read or set it.
	index int
}

// NewServer wraps an established upstream connection as a fresh Server in
// the Connect state. The caller transitions it to Active or Idle once the
// startup handshake (out of scope here) completes.
func NewServer(conn net.Conn) *Server {
	return &Server{
		id:      uuid.New(),
		conn:    conn,
		state:   Connect,
		created: time.Now(),
	}
}

// ID returns the Server's stable identifier, used in logs to correlate a
// given upstream connection across state transitions.
func (s *Server) ID() uuid.UUID { return s.id }

// Conn returns the underlying upstream connection.
func (s *Server) Conn() net.Conn { return s.conn }

// State returns the Server's current bucket membership.
func (s *Server) State() State { return s.state }

// IdleTicks returns the number of maintenance ticks this Server has spent
// continuously in the Idle state.
func (s *Server) IdleTicks() int { return s.idle }

// ResetIdle clears the idle tick counter; called whenever a Server leaves
// the Idle state for any reason.
func (s *Server) ResetIdle() { s.idle = 0 }

// Age increments the idle tick counter. Periodic calls this once per tick
// for every Server found in the Idle bucket, before comparing against a
// route's TTL — matching the off-by-one semantics of the reference
// implementation, where a server is only reaped on the tick *after* it
// first reaches the TTL, not the tick it reaches it on.
func (s *Server) Age() { s.idle++ }

// Close closes the upstream connection. It does not alter State or touch
// any ServerPool bucket; the caller must have already removed the Server
// from its pool.
func (s *Server) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
