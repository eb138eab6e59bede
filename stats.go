package seriallink

import "github.com/puzpuzpuz/xsync/v3"

// Stats contains counters for a link. Hosts may sample them from another
// goroutine while the link is running.
type Stats struct {
	// BytesRead counts payload bytes returned by Read, control bytes included.
	BytesRead *xsync.Counter
	// BytesWritten counts bytes accepted by the transport.
	BytesWritten *xsync.Counter
	// XONCount counts XON bytes seen under software flow control.
	XONCount *xsync.Counter
	// XOFFCount counts XOFF bytes seen under software flow control.
	XOFFCount *xsync.Counter
	// ReadyTransitions counts ready-changed notifications.
	ReadyTransitions *xsync.Counter
	// Errors counts failures recorded as the last error.
	Errors *xsync.Counter
}

func newStats() *Stats {
	return &Stats{
		BytesRead:        xsync.NewCounter(),
		BytesWritten:     xsync.NewCounter(),
		XONCount:         xsync.NewCounter(),
		XOFFCount:        xsync.NewCounter(),
		ReadyTransitions: xsync.NewCounter(),
		Errors:           xsync.NewCounter(),
	}
}
