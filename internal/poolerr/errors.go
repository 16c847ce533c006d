// Package poolerr defines the sentinel errors attach() and the rest of
// the pooler core return: plain errors rather than a custom error-code
// hierarchy.
package poolerr

import "errors"

var (
	// ErrNoRoute is returned when a client presents a (database, user)
	// pair that matches no static route and dynamic route creation is
	// disabled for the pooler.
	ErrNoRoute = errors.New("pgpool: no matching route")

	// ErrPoolFull is returned when a route has no idle server, cannot
	// dial a new one (pool_size reached) and either has no room left in
	// its pending bucket or queueing is disabled for the route
	// (Policy.PendingLimit == 0).
	ErrPoolFull = errors.New("pgpool: route pool is full")

	// ErrConnectFailed wraps a failure dialing a new upstream server.
	ErrConnectFailed = errors.New("pgpool: failed to connect to upstream server")

	// ErrShuttingDown is returned by attach when the pooler is in the
	// process of shutting down and is no longer accepting new clients.
	ErrShuttingDown = errors.New("pgpool: pooler is shutting down")
)
