package client

import "sync"

// State distinguishes a Client awaiting a Server (Pending) from one
// already handed one (Active). Unlike server.State this is a two-bucket
// model: a client has no idle/expire concept, it is either waiting or
// served.
type State int

const (
	Pending State = iota
	Active
)

// Pool holds the Clients belonging to a single route, split into Pending
// and Active buckets. It uses the same bucketed-slice-under-one-mutex
// shape as server.Pool, kept as a separate type because a Client pool has
// no per-item aging and only two buckets rather than five.
type Pool struct {
	mu      sync.Mutex
	pending []*Client
	active  []*Client
}

// NewPool returns an empty client pool.
func NewPool() *Pool {
	return &Pool{}
}

// Enqueue appends c to the Pending bucket's tail, preserving FIFO wake
// order.
func (p *Pool) Enqueue(c *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c.index = len(p.pending)
	p.pending = append(p.pending, c)
}

// Dequeue removes and returns the head of the Pending bucket, or nil if
// empty.
func (p *Pool) Dequeue() *Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return nil
	}
	c := p.pending[0]
	p.pending = p.pending[1:]
	return c
}

// Activate moves c into the Active bucket. c must not already be tracked
// by this pool's Active bucket.
func (p *Pool) Activate(c *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c.index = len(p.active)
	p.active = append(p.active, c)
}

// Release removes c from the Active bucket, called on detach.
func (p *Pool) Release(c *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	last := len(p.active) - 1
	if last < 0 {
		return
	}
	if c.index > last {
		return
	}
	p.active[c.index] = p.active[last]
	p.active[c.index].index = c.index
	p.active = p.active[:last]
}

// PendingCount and ActiveCount report bucket sizes for the route's
// counters.
func (p *Pool) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Pool) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}
