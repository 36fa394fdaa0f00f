package realtime

import "sync"

// Conn is one live duplex channel owned by exactly one subject. Send must
// not block: implementations queue into a bounded buffer and report an error
// when the connection is unusable.
type Conn interface {
	Send(evt Event) error
	Close()
}

// Registry maps a subject to the set of live connections it currently owns.
// An identity may own zero, one or many concurrent connections
// (multi-device). All access goes through the mutex; no lock is ever held
// across a blocking write.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]map[Conn]struct{}
}

// NewRegistry initialises an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]map[Conn]struct{})}
}

// Register adds conn under subject.
func (r *Registry) Register(subject string, conn Conn) {
	if subject == "" || conn == nil {
		return
	}
	r.mu.Lock()
	set, ok := r.conns[subject]
	if !ok {
		set = make(map[Conn]struct{})
		r.conns[subject] = set
	}
	set[conn] = struct{}{}
	r.mu.Unlock()
	connectionsLive.Inc()
}

// Unregister removes conn from subject. Removing an already-removed
// connection is a no-op: connections close concurrently with delivery
// attempts.
func (r *Registry) Unregister(subject string, conn Conn) {
	if subject == "" || conn == nil {
		return
	}
	r.mu.Lock()
	set, ok := r.conns[subject]
	removed := false
	if ok {
		if _, present := set[conn]; present {
			delete(set, conn)
			removed = true
		}
		if len(set) == 0 {
			delete(r.conns, subject)
		}
	}
	r.mu.Unlock()
	if removed {
		connectionsLive.Dec()
	}
}

// ConnectionsFor returns a snapshot of the live connections owned by
// subject; possibly empty.
func (r *Registry) ConnectionsFor(subject string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.conns[subject]
	if !ok || len(set) == 0 {
		return nil
	}
	out := make([]Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// Subjects returns how many subjects currently own at least one connection.
func (r *Registry) Subjects() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
