package realtime

import (
	"errors"
	"sync"
	"testing"
)

type fakeConn struct {
	mu     sync.Mutex
	events []Event
	fail   bool
	closed bool
}

func (f *fakeConn) Send(evt Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("write failed")
	}
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeConn) received() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}

func TestRegisterAndUnregister(t *testing.T) {
	reg := NewRegistry()
	c1 := &fakeConn{}
	c2 := &fakeConn{}

	reg.Register("alice", c1)
	reg.Register("alice", c2)
	if got := len(reg.ConnectionsFor("alice")); got != 2 {
		t.Fatalf("expected 2 connections, got %d", got)
	}

	reg.Unregister("alice", c1)
	conns := reg.ConnectionsFor("alice")
	if len(conns) != 1 {
		t.Fatalf("expected 1 connection, got %d", len(conns))
	}
	if conns[0] != c2 {
		t.Fatal("remaining connection should be c2")
	}

	// Unregistering twice is a no-op both times.
	reg.Unregister("alice", c1)
	reg.Unregister("alice", c1)
	if got := len(reg.ConnectionsFor("alice")); got != 1 {
		t.Fatalf("idempotent unregister changed the set: %d", got)
	}

	reg.Unregister("alice", c2)
	if got := len(reg.ConnectionsFor("alice")); got != 0 {
		t.Fatalf("expected empty set, got %d", got)
	}
	if reg.Subjects() != 0 {
		t.Fatalf("expected no subjects, got %d", reg.Subjects())
	}
}

func TestConnectionsForUnknownSubject(t *testing.T) {
	reg := NewRegistry()
	if conns := reg.ConnectionsFor("ghost"); conns != nil {
		t.Fatalf("expected nil, got %v", conns)
	}
}

func TestConcurrentRegisterUnregister(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := &fakeConn{}
			for j := 0; j < 100; j++ {
				reg.Register("alice", c)
				reg.ConnectionsFor("alice")
				reg.Unregister("alice", c)
			}
		}()
	}
	wg.Wait()
	if got := len(reg.ConnectionsFor("alice")); got != 0 {
		t.Fatalf("expected empty registry, got %d connections", got)
	}
}
