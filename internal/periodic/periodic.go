// Package periodic runs the maintenance task that, once per tick, ages
// idle servers and reaps expired ones, and emits statistics on a
// configured cadence of ticks.
package periodic

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-module/carbon"
	"go.uber.org/zap"

	"github.com/sbgrid/pgpool/internal/route"
	"github.com/sbgrid/pgpool/internal/server"
)

// TerminateMessage is the minimal PostgreSQL wire message used to close
// an expired upstream connection: 'X' followed by an int32 length of 4.
// The rest of the wire protocol is out of scope here; this is the one
// frame Periodic itself must be able to write.
var TerminateMessage = []byte{'X', 0x00, 0x00, 0x00, 0x04}

// Task runs the periodic maintenance tick against a route pool.
type Task struct {
	routes   *route.Pool
	log      *zap.Logger
	interval time.Duration

	// statsPeriod is the number of ticks between statistics emissions;
	// zero disables statistics entirely. statsTick counts ticks since the
	// last emission and resets to zero each time statistics are logged.
	statsPeriod int
	statsTick   int
}

// New constructs a Task. interval matches config.Config.PeriodicIntervalMS
// (one second by default); statsPeriod is the number of ticks between
// statistics emissions (0 disables), which cmd/pgpool derives from the
// seconds in config.Config.LogStatistics.
func New(routes *route.Pool, log *zap.Logger, interval time.Duration, statsPeriod int) *Task {
	return &Task{routes: routes, log: log, interval: interval, statsPeriod: statsPeriod}
}

// Run blocks ticking until ctx is cancelled. It is meant to be run on its
// own goroutine; a tick always completes its full traversal before the
// next one begins.
func (t *Task) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

// tick performs one maintenance pass, in order: age every idle server one
// tick (moving any that cross TTL into Expire), then reap every server
// now in Expire, including ones that just crossed TTL in this same
// tick's age step. Each route's pass holds that route's lock, so it never
// interleaves with Router's attach/detach on the same route. It then
// sweeps empty dynamic routes and, on the configured cadence, logs
// statistics.
func (t *Task) tick() {
	t.routes.ForEach(func(r *route.Route) {
		r.Lock()
		defer r.Unlock()

		r.Servers.ForEach(server.Idle, func(s *server.Server) {
			t.age(r, s)
		})

		r.Servers.ForEach(server.Expire, func(s *server.Server) {
			t.reap(r, s)
		})
	})

	removed := t.routes.GC()

	t.tickStats(removed)
}

// tickStats emits one statistics line per non-empty route every
// statsPeriod ticks, incrementing statsTick each tick and resetting it
// once an emission fires. removed is the route-GC count from this tick,
// logged once alongside the per-route lines.
func (t *Task) tickStats(removed int) {
	if t.statsPeriod <= 0 {
		return
	}
	t.statsTick++
	if t.statsTick < t.statsPeriod {
		return
	}
	t.statsTick = 0

	at := carbon.Now().ToDateTimeString()
	t.routes.ForEach(func(r *route.Route) {
		if r.Empty() {
			return
		}
		t.log.Info(fmt.Sprintf("[%s, %s] clients %d, pool_active %d, pool_idle %d",
			r.ID.Database, r.ID.User,
			r.Clients.ActiveCount()+r.Clients.PendingCount(),
			r.Servers.Count(server.Active),
			r.Servers.Count(server.Idle)),
			zap.String("at", at),
			zap.String("database", r.ID.Database),
			zap.String("user", r.ID.User),
		)
	})
	if removed > 0 {
		t.log.Debug("periodic: routes garbage collected", zap.Int("routes_gced", removed))
	}
}

// age increments a server's idle tick counter and moves it to Expire if
// it has now spent more consecutive ticks idle than the route's TTL
// allows. The comparison happens after the increment, so a server
// expires on the tick after it first reaches the TTL, not the tick it
// reaches it on.
func (t *Task) age(r *route.Route, s *server.Server) {
	if r.Policy.TTLSeconds <= 0 {
		return
	}
	s.Age()
	if s.IdleTicks() <= r.Policy.TTLSeconds {
		return
	}
	r.Servers.Move(s, server.Expire)
	t.log.Debug("periodic: server aged past TTL",
		zap.String("server", s.ID().String()),
		zap.String("database", r.ID.Database),
		zap.String("user", r.ID.User),
	)
}

// reap sends the upstream a Terminate message and removes it from the
// route's server pool. A failure to write Terminate is logged and the
// server is removed anyway: one bad connection should not abort the
// whole tick.
func (t *Task) reap(r *route.Route, s *server.Server) {
	if _, err := s.Conn().Write(TerminateMessage); err != nil {
		t.log.Warn("periodic: failed to send Terminate to expired server",
			zap.String("server", s.ID().String()), zap.Error(err))
	}
	r.Servers.Remove(s)
	_ = s.Close()
	t.log.Debug("periodic: reaped expired server",
		zap.String("server", s.ID().String()),
		zap.String("database", r.ID.Database),
		zap.String("user", r.ID.User),
	)
}
