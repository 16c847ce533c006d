package server

import (
	"net"
	"testing"
)

func newTestServer() *Server {
	c1, c2 := net.Pipe()
	_ = c2
	return NewServer(c1)
}

func TestPoolAddMove(t *testing.T) {
	p := New()
	s := newTestServer()
	p.Add(s)

	if got := p.Count(Connect); got != 1 {
		t.Fatalf("Count(Connect) = %d, want 1", got)
	}
	if s.State() != Connect {
		t.Fatalf("State() = %v, want Connect", s.State())
	}

	p.Move(s, Idle)
	if got := p.Count(Connect); got != 0 {
		t.Fatalf("Count(Connect) after move = %d, want 0", got)
	}
	if got := p.Count(Idle); got != 1 {
		t.Fatalf("Count(Idle) = %d, want 1", got)
	}
	if s.State() != Idle {
		t.Fatalf("State() = %v, want Idle", s.State())
	}
}

func TestPoolMoveResetsIdleTicks(t *testing.T) {
	p := New()
	s := newTestServer()
	p.Add(s)
	p.Move(s, Idle)

	s.Age()
	s.Age()
	if s.IdleTicks() != 2 {
		t.Fatalf("IdleTicks() = %d, want 2", s.IdleTicks())
	}

	p.Move(s, Active)
	p.Move(s, Idle)
	if s.IdleTicks() != 0 {
		t.Fatalf("IdleTicks() after re-entering Idle = %d, want 0", s.IdleTicks())
	}
}

func TestPoolRemoveKeepsOthersReachable(t *testing.T) {
	p := New()
	a, b, c := newTestServer(), newTestServer(), newTestServer()
	p.Add(a)
	p.Add(b)
	p.Add(c)

	p.Remove(a)
	if a.State() != Undef {
		t.Fatalf("removed server State() = %v, want Undef", a.State())
	}
	if got := p.Count(Connect); got != 2 {
		t.Fatalf("Count(Connect) after remove = %d, want 2", got)
	}

	seen := map[*Server]bool{}
	p.ForEach(Connect, func(s *Server) { seen[s] = true })
	if !seen[b] || !seen[c] {
		t.Fatalf("ForEach missed a surviving member after remove")
	}
}

// TestPoolRemoveFromHeadPreservesOrder removes the current Front of a
// bucket and checks that the next Front is the true next-oldest member,
// not whatever element removal happened to leave behind.
func TestPoolRemoveFromHeadPreservesOrder(t *testing.T) {
	p := New()
	a, b, c := newTestServer(), newTestServer(), newTestServer()
	p.Add(a)
	p.Move(a, Idle)
	p.Add(b)
	p.Move(b, Idle)
	p.Add(c)
	p.Move(c, Idle)

	if got := p.Front(Idle); got != a {
		t.Fatalf("Front(Idle) = %p, want %p (a)", got, a)
	}

	p.Move(a, Active)
	if got := p.Front(Idle); got != b {
		t.Fatalf("Front(Idle) after removing a = %p, want %p (b)", got, b)
	}

	p.Move(b, Active)
	if got := p.Front(Idle); got != c {
		t.Fatalf("Front(Idle) after removing b = %p, want %p (c)", got, c)
	}
}

func TestPoolForEachToleratesMutationDuringIteration(t *testing.T) {
	p := New()
	a, b, c := newTestServer(), newTestServer(), newTestServer()
	p.Add(a)
	p.Add(b)
	p.Add(c)

	var visited int
	p.ForEach(Connect, func(s *Server) {
		visited++
		p.Move(s, Expire)
	})

	if visited != 3 {
		t.Fatalf("visited = %d, want 3", visited)
	}
	if got := p.Count(Connect); got != 0 {
		t.Fatalf("Count(Connect) after draining = %d, want 0", got)
	}
	if got := p.Count(Expire); got != 3 {
		t.Fatalf("Count(Expire) after draining = %d, want 3", got)
	}
}

func TestPoolFrontFIFO(t *testing.T) {
	p := New()
	a, b := newTestServer(), newTestServer()
	p.Add(a)
	p.Move(a, Idle)
	p.Add(b)
	p.Move(b, Idle)

	if got := p.Front(Idle); got != a {
		t.Fatalf("Front(Idle) = %p, want %p (a)", got, a)
	}

	p.Move(a, Active)
	if got := p.Front(Idle); got != b {
		t.Fatalf("Front(Idle) after removing the head = %p, want %p (b)", got, b)
	}
}

func TestPoolLen(t *testing.T) {
	p := New()
	if p.Len() != 0 {
		t.Fatalf("Len() on empty pool = %d, want 0", p.Len())
	}
	a := newTestServer()
	p.Add(a)
	p.Move(a, Active)
	if p.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", p.Len())
	}
}
