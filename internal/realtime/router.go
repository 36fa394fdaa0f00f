package realtime

// Router delivers events to the live connections of a target subject.
// Delivery is fire-and-forget: failures are handled here by unregistering
// the dead connection and are never surfaced to the sender.
type Router struct {
	registry *Registry
}

// NewRouter constructs a Router over the given registry.
func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// SendToUser delivers evt to every live connection owned by subject. A
// failed send removes that connection only; delivery to the subject's other
// connections continues. With no live connections the event is silently
// dropped; there is no offline outbox. Two SendToUser calls for the same
// subject reach each connection in call order because every connection has a
// single writer draining its queue in FIFO order.
func (rt *Router) SendToUser(subject string, evt Event) {
	conns := rt.registry.ConnectionsFor(subject)
	if len(conns) == 0 {
		eventsDropped.WithLabelValues(evt.Kind()).Inc()
		return
	}
	for _, conn := range conns {
		if err := conn.Send(evt); err != nil {
			// The client vanished; detach it and keep going.
			rt.registry.Unregister(subject, conn)
			conn.Close()
			eventsFailed.WithLabelValues(evt.Kind()).Inc()
			continue
		}
		eventsDelivered.WithLabelValues(evt.Kind()).Inc()
	}
}
