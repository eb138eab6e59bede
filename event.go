package seriallink

import "fmt"

// EventKind classifies notifications published by a Link.
type EventKind int

const (
	EventBeforeOpen EventKind = iota
	EventAfterOpen
	EventBeforeClose
	EventAfterClose
	EventBytesRead
	EventBytesWritten
	EventReadyChanged
	EventXON
	EventLineSignal
	EventDataAvailable
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventBeforeOpen:
		return "before-open"
	case EventAfterOpen:
		return "after-open"
	case EventBeforeClose:
		return "before-close"
	case EventAfterClose:
		return "after-close"
	case EventBytesRead:
		return "bytes-read"
	case EventBytesWritten:
		return "bytes-written"
	case EventReadyChanged:
		return "ready-changed"
	case EventXON:
		return "xon"
	case EventLineSignal:
		return "line-signal"
	case EventDataAvailable:
		return "data-available"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a notification from a Link. Only the fields relevant to Kind
// are set.
type Event struct {
	Kind   EventKind
	Count  int    // EventBytesRead, EventBytesWritten
	State  bool   // EventReadyChanged, EventXON (true = XON), EventLineSignal
	Signal Signal // EventLineSignal
	Err    error  // EventError
}

func (e Event) String() string {
	switch e.Kind {
	case EventBytesRead, EventBytesWritten:
		return fmt.Sprintf("%s(%d)", e.Kind, e.Count)
	case EventReadyChanged, EventXON:
		return fmt.Sprintf("%s(%t)", e.Kind, e.State)
	case EventLineSignal:
		return fmt.Sprintf("%s(%s=%t)", e.Kind, e.Signal, e.State)
	case EventError:
		return fmt.Sprintf("%s(%v)", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

type subscriber struct {
	id uint64
	fn func(Event)
}

// Subscribe registers fn for every event published by the link and returns
// a function that removes it. Subscribers run synchronously, in registration
// order, on the goroutine that triggered the event.
func (l *Link) Subscribe(fn func(Event)) (cancel func()) {
	l.nextSubID++
	id := l.nextSubID
	l.subscribers = append(l.subscribers, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range l.subscribers {
			if s.id == id {
				l.subscribers = append(l.subscribers[:i:i], l.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (l *Link) emit(e Event) {
	// Snapshot so subscribers may cancel themselves while being notified.
	subs := l.subscribers
	for _, s := range subs {
		s.fn(e)
	}
}
