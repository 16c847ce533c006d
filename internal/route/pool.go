package route

import "sync"

// Pool holds every Route the pooler currently knows about, both the
// static routes declared in configuration and the dynamic routes created
// on first connection for a (database, user) pair not otherwise
// configured. Lookup is a linear scan rather than a map: route counts are
// small (tens, not thousands), and a slice keeps GC of empty dynamic
// routes a simple filter pass instead of a second index to keep
// consistent.
type Pool struct {
	mu     sync.Mutex
	routes []*Route
}

// NewPool returns an empty route pool.
func NewPool() *Pool {
	return &Pool{}
}

// Match returns the Route for id if one already exists, or nil.
func (p *Pool) Match(id ID) *Route {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.routes {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// GetOrCreate returns the existing Route for id, or creates a new dynamic
// one using defaultPolicy if none exists yet. The second return value
// reports whether a new Route was created.
func (p *Pool) GetOrCreate(id ID, defaultPolicy Policy) (*Route, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.routes {
		if r.ID == id {
			return r, false
		}
	}
	r := New(id, defaultPolicy)
	p.routes = append(p.routes, r)
	return r, true
}

// AddStatic registers a Route created from configuration. It does not
// mark the route static itself: GC exempts a route only when its
// Policy.Static is set, which GetOrCreate does not set either, so callers
// constructing static routes must set Policy.Static themselves before
// calling AddStatic.
func (p *Pool) AddStatic(r *Route) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes = append(p.routes, r)
}

// ForEach invokes fn for every Route currently known. Like server.Pool's
// ForEach, it snapshots the route list first so fn may safely call GC
// concurrently without the iteration itself observing a torn slice.
func (p *Pool) ForEach(fn func(*Route)) {
	p.mu.Lock()
	snapshot := make([]*Route, len(p.routes))
	copy(snapshot, p.routes)
	p.mu.Unlock()

	for _, r := range snapshot {
		fn(r)
	}
}

// GC removes every dynamic (non-static) Route that is currently Empty.
// It returns the number of routes removed.
func (p *Pool) GC() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	kept := p.routes[:0]
	removed := 0
	for _, r := range p.routes {
		if !r.Policy.Static && r.Empty() {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	p.routes = kept
	return removed
}

// Len returns the number of routes currently tracked.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.routes)
}
