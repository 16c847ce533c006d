package server

import "sync"

// Pool holds every Server belonging to a single route, bucketed by State:
// Connect, Active, Idle, Expire and Close. Each bucket is kept as an
// ordered slice so FIFO selection (oldest idle server first) is a pop
// from the front, rather than scoring servers by a load counter.
//
// Undef is not a bucket: a Server in Undef belongs to no Pool and is not
// reachable from any of its slices.
type Pool struct {
	mu      sync.Mutex
	buckets map[State][]*Server
}

// New returns an empty server pool with all five buckets initialized.
func New() *Pool {
	p := &Pool{buckets: make(map[State][]*Server, len(states))}
	for _, st := range states {
		p.buckets[st] = nil
	}
	return p
}

// Add places a freshly created Server into the Connect bucket.
func (p *Pool) Add(s *Server) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s.state = Connect
	s.index = len(p.buckets[Connect])
	p.buckets[Connect] = append(p.buckets[Connect], s)
}

// Move transitions a Server already owned by this pool from its current
// bucket to dst, appending it at the tail of dst's slice. Moving into or
// out of Idle resets the idle tick counter per I3.
func (p *Pool) Move(s *Server, dst State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.remove(s)
	if dst == Idle || s.state == Idle {
		s.ResetIdle()
	}
	s.state = dst
	s.index = len(p.buckets[dst])
	p.buckets[dst] = append(p.buckets[dst], s)
}

// Remove detaches a Server from whichever bucket it occupies and marks it
// Undef. The caller owns closing the underlying connection afterward.
func (p *Pool) Remove(s *Server) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.remove(s)
	s.ResetIdle()
	s.state = Undef
	s.index = 0
}

// remove performs the unlocked order-preserving removal of s from its
// current bucket. Every element after s's position shifts down one slot
// and has its index corrected, so Front/ForEach continue to see the
// bucket's true relative order (oldest first) after a removal from any
// position, not just the tail. Callers must hold p.mu.
func (p *Pool) remove(s *Server) {
	bucket := p.buckets[s.state]
	if len(bucket) == 0 {
		return
	}
	i := s.index
	copy(bucket[i:], bucket[i+1:])
	for j := i; j < len(bucket)-1; j++ {
		bucket[j].index = j
	}
	p.buckets[s.state] = bucket[:len(bucket)-1]
}

// Count returns the number of servers currently in the given state.
func (p *Pool) Count(st State) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buckets[st])
}

// Front returns the first server in the given bucket without removing it,
// or nil if the bucket is empty. Router uses this for FIFO selection of an
// idle server on attach.
func (p *Pool) Front(st State) *Server {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.buckets[st]
	if len(b) == 0 {
		return nil
	}
	return b[0]
}

// ForEach invokes fn once for every Server currently in the given bucket.
// It snapshots the bucket's current members into a local slice before
// calling fn, so fn is free to Move or Remove the Server it was given —
// including moving it out of st — without skipping or re-visiting other
// members.
func (p *Pool) ForEach(st State, fn func(*Server)) {
	p.mu.Lock()
	snapshot := make([]*Server, len(p.buckets[st]))
	copy(snapshot, p.buckets[st])
	p.mu.Unlock()

	for _, s := range snapshot {
		fn(s)
	}
}

// Len returns the total number of servers held across all buckets.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, st := range states {
		total += len(p.buckets[st])
	}
	return total
}
