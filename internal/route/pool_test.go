package route

import "testing"

func TestPoolGetOrCreate(t *testing.T) {
	p := NewPool()
	id := ID{Database: "app", User: "app"}

	r1, created := p.GetOrCreate(id, Policy{PoolSize: 5})
	if !created {
		t.Fatalf("first GetOrCreate: created = false, want true")
	}
	r2, created := p.GetOrCreate(id, Policy{PoolSize: 5})
	if created {
		t.Fatalf("second GetOrCreate: created = true, want false")
	}
	if r1 != r2 {
		t.Fatalf("GetOrCreate returned different routes for same id")
	}
}

func TestPoolMatch(t *testing.T) {
	p := NewPool()
	id := ID{Database: "app", User: "app"}
	if r := p.Match(id); r != nil {
		t.Fatalf("Match on empty pool = %v, want nil", r)
	}
	p.GetOrCreate(id, Policy{})
	if r := p.Match(id); r == nil {
		t.Fatalf("Match after create = nil, want route")
	}
}

func TestPoolGCRemovesEmptyDynamicRoutes(t *testing.T) {
	p := NewPool()
	dyn, _ := p.GetOrCreate(ID{Database: "a", User: "a"}, Policy{})
	_ = dyn

	static := newStaticRoute()
	p.AddStatic(static)

	removed := p.GC()
	if removed != 1 {
		t.Fatalf("GC() removed = %d, want 1", removed)
	}
	if p.Len() != 1 {
		t.Fatalf("Len() after GC = %d, want 1", p.Len())
	}
	if p.Match(static.ID) == nil {
		t.Fatalf("static route was removed by GC")
	}
}

func newStaticRoute() *Route {
	return New(ID{Database: "b", User: "b"}, Policy{Static: true})
}

func TestRouteEmpty(t *testing.T) {
	r := New(ID{Database: "a", User: "a"}, Policy{})
	if !r.Empty() {
		t.Fatalf("fresh route Empty() = false, want true")
	}
}
