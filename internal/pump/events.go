package pump

import (
	seriallink "github.com/allbin/go-seriallink"
)

// DefaultEventQueue is the event channel depth used by the transports.
const DefaultEventQueue = 64

// Events is the channel a transport hands to its link.
type Events struct {
	ch chan seriallink.TransportEvent
}

// NewEvents returns an event queue of the given depth.
func NewEvents(depth int) *Events {
	return &Events{ch: make(chan seriallink.TransportEvent, depth)}
}

// C returns the receive side of the queue. It is never closed.
func (e *Events) C() <-chan seriallink.TransportEvent {
	return e.ch
}

// Send queues ev, waiting for room until stop is closed. It reports whether
// the event was queued.
func (e *Events) Send(ev seriallink.TransportEvent, stop <-chan struct{}) bool {
	select {
	case e.ch <- ev:
		return true
	case <-stop:
		return false
	}
}

// TrySend queues ev if there is room and reports whether it did.
func (e *Events) TrySend(ev seriallink.TransportEvent) bool {
	select {
	case e.ch <- ev:
		return true
	default:
		return false
	}
}

// Drain discards every queued event.
func (e *Events) Drain() {
	for {
		select {
		case <-e.ch:
		default:
			return
		}
	}
}
