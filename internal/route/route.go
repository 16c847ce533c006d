package route

import (
	"sync"
	"time"

	"github.com/sbgrid/pgpool/internal/client"
	"github.com/sbgrid/pgpool/internal/server"
)

// Policy holds the per-route tuning alongside the global defaults: an
// idle TTL and a pool size, plus PendingLimit, which decides what happens
// when a client attaches to a route with no idle server and no room to
// dial a new one. PendingLimit is the maximum number of clients a route
// will hold in its Pending bucket before attach fails synchronously with
// ErrPoolFull instead of blocking. The zero value means no queueing at
// all: every attach that finds no idle server and no room to dial fails
// immediately. A positive value gives real FIFO-blocking admission up to
// that depth for routes configured to queue.
type Policy struct {
	// TTLSeconds is how many consecutive idle ticks an Idle server may
	// accumulate before Periodic marks it Expire. Zero disables aging
	// for this route.
	TTLSeconds int

	// PoolSize caps the number of servers a route may hold across all of
	// its server buckets at once. Zero means unbounded.
	PoolSize int

	// PendingLimit caps the Pending client bucket depth; see above.
	PendingLimit int

	// Static marks a route that was declared in configuration rather
	// than created on first connection, exempting it from RoutePool's
	// empty-route GC.
	Static bool
}

// TTL returns the configured idle TTL as a Duration, or 0 if aging is
// disabled for this route.
func (p Policy) TTL() time.Duration {
	if p.TTLSeconds <= 0 {
		return 0
	}
	return time.Duration(p.TTLSeconds) * time.Second
}

// Route pairs a (database, user) identity with its own server and client
// pools and the policy governing both. RoutePool owns the set of Routes;
// Route itself holds no reference back to its RoutePool.
type Route struct {
	ID      ID
	Policy  Policy
	Servers *server.Pool
	Clients *client.Pool

	// mu serializes the compound "do we have an idle server, do we dial,
	// or do we queue" decision Router.Attach makes for this route, and
	// Periodic's aging and reaping pass over it. It is exported only
	// through Lock/Unlock, since Router and Periodic are its callers —
	// the bucket mutexes inside Servers/Clients protect their own slices
	// but cannot make that decision atomic on their own.
	mu sync.Mutex
}

// New creates an empty Route for the given identity and policy.
func New(id ID, policy Policy) *Route {
	return &Route{
		ID:      id,
		Policy:  policy,
		Servers: server.New(),
		Clients: client.NewPool(),
	}
}

// Lock and Unlock serialize attach/detach decisions and Periodic's
// maintenance pass against this route, so two goroutines never race on
// the same route's idle-reuse/dial/queue choice or its bucket moves.
func (r *Route) Lock()   { r.mu.Lock() }
func (r *Route) Unlock() { r.mu.Unlock() }

// Empty reports whether the route currently holds no servers and no
// clients in any bucket — the condition RoutePool's GC checks before
// reaping a dynamic route.
func (r *Route) Empty() bool {
	return r.Servers.Len() == 0 && r.Clients.PendingCount() == 0 && r.Clients.ActiveCount() == 0
}
