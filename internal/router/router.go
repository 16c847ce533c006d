// Package router is the single serialization point between clients
// asking for a server and the route pools handing them out. Each Route
// carries its own decision lock (route.Route.Lock), so Router itself
// holds no global mutex — concurrent attach/detach calls against
// different routes proceed independently, while calls against the same
// route serialize against each other.
package router

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/sbgrid/pgpool/internal/admission"
	"github.com/sbgrid/pgpool/internal/client"
	"github.com/sbgrid/pgpool/internal/poolerr"
	"github.com/sbgrid/pgpool/internal/route"
	"github.com/sbgrid/pgpool/internal/server"
)

// Router owns the route pool and the dial function used to grow a route's
// server pool on demand.
type Router struct {
	routes        *route.Pool
	dial          DialFunc
	log           *zap.Logger
	defaultPolicy route.Policy
	allowDynamic  bool
	useAdmission  bool
}

// New constructs a Router. defaultPolicy is applied to dynamically
// created routes; allowDynamic mirrors config.Config.AllowDynamicRoutes.
// useAdmission gates every Attach through internal/admission's sentinel
// flow rules in addition to the route's own pool_size bookkeeping.
func New(routes *route.Pool, dial DialFunc, log *zap.Logger, defaultPolicy route.Policy, allowDynamic, useAdmission bool) *Router {
	return &Router{
		routes:        routes,
		dial:          dial,
		log:           log,
		defaultPolicy: defaultPolicy,
		allowDynamic:  allowDynamic,
		useAdmission:  useAdmission,
	}
}

func resourceName(id route.ID) string {
	return fmt.Sprintf("route:%s:%s", id.Database, id.User)
}

// Attach resolves id to a Route and assigns c a server, returning the
// upstream connection and the Route/Server pair for Detach to use later.
// It tries three outcomes in order: reuse an idle server, dial a new one
// if the route has room, or queue/reject per the route's PendingLimit.
// Once ctx is cancelled it returns poolerr.ErrShuttingDown at once.
func (rt *Router) Attach(ctx context.Context, id route.ID, c *client.Client) (net.Conn, *route.Route, *server.Server, error) {
	if ctx.Err() != nil {
		return nil, nil, nil, poolerr.ErrShuttingDown
	}

	rt.log.Debug("attach: resolving route", zap.String("database", id.Database), zap.String("user", id.User))

	rtRoute, err := rt.resolve(id)
	if err != nil {
		return nil, nil, nil, err
	}

	if rt.useAdmission {
		if admission.LoadRoutePoolSize(resourceName(id), rtRoute.Policy.PoolSize) != nil {
			rt.log.Warn("attach: failed to install flow rule, continuing without admission gate",
				zap.String("database", id.Database), zap.String("user", id.User))
		}
	}

	var conn net.Conn
	var srv *server.Server
	var queued bool

	attempt := func() error {
		conn, srv, queued, err = rt.attachLocked(ctx, rtRoute, c)
		return err
	}

	if rt.useAdmission {
		err = admission.Gate(resourceName(id), attempt)
	} else {
		err = attempt()
	}
	if err != nil {
		return nil, nil, nil, err
	}

	if queued {
		var handle any
		conn, handle, err = c.Wait()
		if err != nil {
			return nil, nil, nil, err
		}
		srv, _ = handle.(*server.Server)
	}
	return conn, rtRoute, srv, nil
}

func (rt *Router) resolve(id route.ID) (*route.Route, error) {
	if r := rt.routes.Match(id); r != nil {
		return r, nil
	}
	if !rt.allowDynamic {
		return nil, poolerr.ErrNoRoute
	}
	r, _ := rt.routes.GetOrCreate(id, rt.defaultPolicy)
	return r, nil
}

// attachLocked runs the idle-reuse / dial / queue decision under the
// route's lock. The third return value reports whether c was queued in
// the route's pending bucket; the caller must then block on c.Wait()
// outside this call.
func (rt *Router) attachLocked(ctx context.Context, r *route.Route, c *client.Client) (net.Conn, *server.Server, bool, error) {
	r.Lock()

	if idle := r.Servers.Front(server.Idle); idle != nil {
		r.Servers.Move(idle, server.Active)
		r.Clients.Activate(c)
		r.Unlock()
		rt.log.Debug("attach: reused idle server", zap.String("server", idle.ID().String()))
		return idle.Conn(), idle, false, nil
	}

	unbounded := r.Policy.PoolSize <= 0
	if unbounded || r.Servers.Len() < r.Policy.PoolSize {
		r.Unlock()
		conn, err := rt.dial(ctx, r.ID.Database, r.ID.User)
		if err != nil {
			return nil, nil, false, fmt.Errorf("%w: %v", poolerr.ErrConnectFailed, err)
		}
		srv := server.NewServer(conn)
		r.Lock()
		r.Servers.Add(srv)
		r.Servers.Move(srv, server.Active)
		r.Clients.Activate(c)
		r.Unlock()
		rt.log.Debug("attach: dialed new server", zap.String("server", srv.ID().String()))
		return conn, srv, false, nil
	}

	if r.Policy.PendingLimit > 0 && r.Clients.PendingCount() < r.Policy.PendingLimit {
		r.Clients.Enqueue(c)
		r.Unlock()
		rt.log.Debug("attach: queued client in pending bucket", zap.Int("pending", r.Clients.PendingCount()))
		return nil, nil, true, nil
	}

	r.Unlock()
	return nil, nil, false, poolerr.ErrPoolFull
}

// Detach returns a server to its route after client c disconnects, and
// removes c from the route's Active bucket so RoutePool.GC can later
// consider the route empty. When closeServer is true the server is torn
// down and removed from the pool instead of going back to Idle — used
// when the upstream connection was found broken. Otherwise, if the route
// has clients waiting in its pending bucket, the server is handed
// directly to the head of that queue (FIFO); if not, the server goes to
// Idle to await reuse or aging by Periodic.
func (rt *Router) Detach(r *route.Route, s *server.Server, c *client.Client, closeServer bool) {
	r.Lock()
	defer r.Unlock()

	r.Clients.Release(c)

	if closeServer {
		r.Servers.Remove(s)
		_ = s.Close()
		rt.log.Debug("detach: closed server", zap.String("server", s.ID().String()))
		return
	}

	if waiting := r.Clients.Dequeue(); waiting != nil {
		r.Clients.Activate(waiting)
		waiting.Grant(s.Conn(), s)
		rt.log.Debug("detach: handed server directly to pending client",
			zap.String("server", s.ID().String()))
		return
	}

	r.Servers.Move(s, server.Idle)
}
