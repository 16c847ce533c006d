package periodic

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/sbgrid/pgpool/internal/log"
	"github.com/sbgrid/pgpool/internal/route"
	"github.com/sbgrid/pgpool/internal/server"
)

func newTestRoute(ttl int) *route.Route {
	return route.New(route.ID{Database: "app", User: "app"}, route.Policy{TTLSeconds: ttl})
}

func newIdleServer(r *route.Route) *server.Server {
	c1, c2 := net.Pipe()
	go func() { _, _ = io.Copy(io.Discard, c2) }()
	s := server.NewServer(c1)
	r.Servers.Add(s)
	r.Servers.Move(s, server.Idle)
	return s
}

func TestTickAgesIdleServerButDoesNotReapSameTick(t *testing.T) {
	routes := route.NewPool()
	r := newTestRoute(1)
	routes.AddStatic(r)
	s := newIdleServer(r)

	task := New(routes, log.Nop(), time.Second, 0)
	task.tick()

	if s.State() != server.Idle {
		t.Fatalf("State() after one tick at TTL=1 = %v, want Idle (off-by-one: expires next tick)", s.State())
	}
	if s.IdleTicks() != 1 {
		t.Fatalf("IdleTicks() = %d, want 1", s.IdleTicks())
	}
}

// TestTickReapsInTheSameTickItExpires exercises the age-then-reap
// ordering within a single tick: a server that crosses its TTL during
// this tick's aging pass must be fully reaped before tick() returns, not
// left sitting in Expire until the next tick.
func TestTickReapsInTheSameTickItExpires(t *testing.T) {
	routes := route.NewPool()
	r := newTestRoute(1)
	routes.AddStatic(r)
	s := newIdleServer(r)

	task := New(routes, log.Nop(), time.Second, 0)

	task.tick()
	if s.State() != server.Idle {
		t.Fatalf("after tick 1, State() = %v, want Idle", s.State())
	}

	task.tick()
	if r.Servers.Count(server.Idle) != 0 || r.Servers.Count(server.Expire) != 0 {
		t.Fatalf("after tick 2, server should be aged past TTL and reaped in the same tick, got idle=%d expire=%d",
			r.Servers.Count(server.Idle), r.Servers.Count(server.Expire))
	}
}

func TestTickDoesNotAgeWhenTTLDisabled(t *testing.T) {
	routes := route.NewPool()
	r := newTestRoute(0)
	routes.AddStatic(r)
	s := newIdleServer(r)

	task := New(routes, log.Nop(), time.Second, 0)
	for i := 0; i < 5; i++ {
		task.tick()
	}

	if s.State() != server.Idle {
		t.Fatalf("State() with TTL disabled after 5 ticks = %v, want Idle", s.State())
	}
	if s.IdleTicks() != 0 {
		t.Fatalf("IdleTicks() with TTL disabled = %d, want 0", s.IdleTicks())
	}
}

func TestTickGCsEmptyDynamicRoute(t *testing.T) {
	routes := route.NewPool()
	_, _ = routes.GetOrCreate(route.ID{Database: "scratch", User: "scratch"}, route.Policy{})

	task := New(routes, log.Nop(), time.Second, 0)
	task.tick()

	if routes.Len() != 0 {
		t.Fatalf("Len() after tick = %d, want 0 (empty dynamic route should be GCed)", routes.Len())
	}
}

// TestTickStatsFiresOnConfiguredCadence checks that the stats tick
// counter only resets once statsPeriod ticks have elapsed.
func TestTickStatsFiresOnConfiguredCadence(t *testing.T) {
	routes := route.NewPool()
	r := newTestRoute(0)
	routes.AddStatic(r)
	newIdleServer(r)

	task := New(routes, log.Nop(), time.Second, 3)

	for i := 0; i < 2; i++ {
		task.tick()
		if task.statsTick == 0 {
			t.Fatalf("tick %d: statsTick reset before reaching statsPeriod", i+1)
		}
	}

	task.tick()
	if task.statsTick != 0 {
		t.Fatalf("after statsPeriod ticks, statsTick = %d, want 0 (reset after emission)", task.statsTick)
	}
}

func TestTickStatsDisabledByZeroPeriod(t *testing.T) {
	routes := route.NewPool()
	r := newTestRoute(0)
	routes.AddStatic(r)
	newIdleServer(r)

	task := New(routes, log.Nop(), time.Second, 0)
	for i := 0; i < 5; i++ {
		task.tick()
	}

	if task.statsTick != 0 {
		t.Fatalf("statsTick = %d with statsPeriod=0, want 0 (never incremented)", task.statsTick)
	}
}
