package router

import (
	"context"
	"net"
)

// DialFunc opens a new upstream connection for a route identity. It is
// supplied by the caller (cmd/pgpool) rather than hardcoded here, keeping
// the TLS handshake and startup-packet exchange out of this package.
type DialFunc func(ctx context.Context, database, user string) (net.Conn, error)
