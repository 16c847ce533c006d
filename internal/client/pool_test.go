package client

import "testing"

func TestPoolEnqueueDequeueFIFO(t *testing.T) {
	p := NewPool()
	a := New(nil, 1)
	b := New(nil, 2)
	p.Enqueue(a)
	p.Enqueue(b)

	if got := p.Dequeue(); got != a {
		t.Fatalf("Dequeue() = %v, want a", got)
	}
	if got := p.Dequeue(); got != b {
		t.Fatalf("Dequeue() = %v, want b", got)
	}
	if got := p.Dequeue(); got != nil {
		t.Fatalf("Dequeue() on empty = %v, want nil", got)
	}
}

func TestPoolActivateRelease(t *testing.T) {
	p := NewPool()
	a := New(nil, 1)
	p.Activate(a)
	if p.ActiveCount() != 1 {
		t.Fatalf("ActiveCount() = %d, want 1", p.ActiveCount())
	}
	p.Release(a)
	if p.ActiveCount() != 0 {
		t.Fatalf("ActiveCount() after release = %d, want 0", p.ActiveCount())
	}
}

func TestClientGrantWait(t *testing.T) {
	c := New(nil, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, srv, err := c.Wait()
		if err != nil {
			t.Errorf("Wait() err = %v, want nil", err)
		}
		if conn != nil {
			t.Errorf("Wait() conn = %v, want nil", conn)
		}
		if srv != "server-handle" {
			t.Errorf("Wait() srv = %v, want server-handle", srv)
		}
	}()
	c.Grant(nil, "server-handle")
	<-done
}
