package pump

import (
	"io"
	"time"

	seriallink "github.com/allbin/go-seriallink"
)

const readChunk = 256

// Lines lists the modem lines in the order their changes are reported.
var Lines = []seriallink.Signal{
	seriallink.SignalCTS,
	seriallink.SignalDSR,
	seriallink.SignalRI,
	seriallink.SignalDCD,
}

// Read copies src into buf until stop is closed or src fails. Every chunk
// is announced with a DataArrived event. src must return periodically
// (a read timeout) so stop is noticed.
func Read(stop <-chan struct{}, src io.Reader, buf *Buffer, events *Events) {
	chunk := make([]byte, readChunk)
	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := src.Read(chunk)
		if n > 0 {
			if buf.PutWait(chunk[:n]) != nil {
				return
			}
			events.Send(seriallink.TransportEvent{Kind: seriallink.TransportDataArrived}, stop)
		}
		if err != nil {
			select {
			case <-stop:
			default:
				events.Send(seriallink.TransportEvent{Kind: seriallink.TransportError, Err: err}, stop)
			}
			return
		}
	}
}

// SignalSampler returns the asserted modem lines.
type SignalSampler func() (seriallink.Signal, error)

// WatchSignals samples the modem lines every interval and reports each
// transition as a LineSignalChanged event. If the first sample fails the
// device has no modem lines and the watcher exits quietly.
func WatchSignals(stop <-chan struct{}, interval time.Duration, sample SignalSampler, events *Events) {
	last, err := sample()
	if err != nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			cur, err := sample()
			if err != nil {
				select {
				case <-stop:
				default:
					events.Send(seriallink.TransportEvent{Kind: seriallink.TransportError, Err: err}, stop)
				}
				return
			}
			for _, ev := range Changes(last, cur) {
				if !events.Send(ev, stop) {
					return
				}
			}
			last = cur
		}
	}
}

// Changes lists the line transitions between two samples.
func Changes(prev, cur seriallink.Signal) []seriallink.TransportEvent {
	var out []seriallink.TransportEvent
	for _, line := range Lines {
		if prev&line != cur&line {
			out = append(out, seriallink.TransportEvent{
				Kind:   seriallink.TransportLineSignalChanged,
				Signal: line,
				State:  cur&line != 0,
			})
		}
	}
	return out
}
