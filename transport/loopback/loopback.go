// Package loopback provides an in-memory seriallink.Transport.
//
// A port created with New echoes every write back into its own receive
// buffer, like a serial adapter with TX wired to RX. Pair returns two ports
// wired to each other as through a null-modem cable. Test hooks inject
// input, drive the modem lines and make operations fail.
package loopback

import (
	"fmt"
	"slices"
	"sync"

	seriallink "github.com/allbin/go-seriallink"
	"github.com/allbin/go-seriallink/internal/pump"
)

// Port is an in-memory transport.
type Port struct {
	*pump.Line

	mu       sync.Mutex
	open     bool
	mode     seriallink.OpenMode
	rx       *pump.Buffer
	backlog  []byte
	events   *pump.Events
	peer     *Port
	lines    seriallink.Signal
	sent     []byte
	limit    int
	openErr  error
	writeErr error
}

var _ seriallink.Transport = (*Port)(nil)

// Option configures a Port.
type Option func(*Port)

// WithBaudRates restricts the accepted baud rates.
func WithBaudRates(rates ...seriallink.BaudRate) Option {
	return func(p *Port) {
		p.Line = pump.NewLine(p.Settings(), func(s pump.Settings) error {
			if !slices.Contains(rates, s.BaudRate) {
				return fmt.Errorf("baud rate %d: %w", int(s.BaudRate), seriallink.ErrUnsupported)
			}
			return nil
		})
	}
}

// WithLines sets the initially asserted modem lines. The default is CTS|DSR.
func WithLines(lines seriallink.Signal) Option {
	return func(p *Port) {
		p.lines = lines
	}
}

// New returns a closed echo port.
func New(name string, opts ...Option) *Port {
	p := newPort(name, opts)
	p.peer = p
	return p
}

// Pair returns two closed ports wired to each other.
func Pair(nameA, nameB string, opts ...Option) (*Port, *Port) {
	a := newPort(nameA, opts)
	b := newPort(nameB, opts)
	a.peer, b.peer = b, a
	return a, b
}

func newPort(name string, opts []Option) *Port {
	p := &Port{
		Line:   pump.NewLine(pump.DefaultSettings(name), nil),
		rx:     pump.NewBuffer(seriallink.DefaultBufferSize),
		events: pump.NewEvents(pump.DefaultEventQueue),
		lines:  seriallink.SignalCTS | seriallink.SignalDSR,
	}
	p.rx.Close()
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Port) Open(mode seriallink.OpenMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open {
		return nil
	}
	if p.openErr != nil {
		return p.openErr
	}

	p.Attach(func(pump.Settings) error { return nil })
	p.rx.Reopen()
	p.backlog = nil
	p.mode = mode
	p.open = true
	return nil
}

func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return nil
	}
	p.open = false
	p.Attach(nil)
	p.rx.Close()
	p.backlog = nil
	p.events.Drain()
	return nil
}

func (p *Port) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Write delivers p to the peer, or to this port for an echo port. The write
// limit, if set, caps how much of p is accepted.
func (p *Port) Write(data []byte) (int, error) {
	p.mu.Lock()
	switch {
	case !p.open:
		p.mu.Unlock()
		return 0, seriallink.ErrPortClosed
	case p.mode == seriallink.ReadOnly:
		p.mu.Unlock()
		return 0, seriallink.ErrReadOnly
	case p.writeErr != nil:
		err := p.writeErr
		p.mu.Unlock()
		return 0, err
	}
	n := len(data)
	if p.limit > 0 {
		n = min(n, p.limit)
	}
	p.sent = append(p.sent, data[:n]...)
	peer := p.peer
	p.mu.Unlock()

	peer.Inject(data[:n])
	return n, nil
}

func (p *Port) ReadAvailable(max int) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return nil, seriallink.ErrPortClosed
	}
	if max < 0 {
		max = 0
	}
	out := p.rx.Take(max)
	p.refill()
	return out, nil
}

func (p *Port) ReadAll() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return nil, seriallink.ErrPortClosed
	}
	out := p.rx.Take(-1)
	p.refill()
	return out, nil
}

// refill moves held back input into the read buffer and raises DataArrived
// when any of it fits.
func (p *Port) refill() {
	if len(p.backlog) == 0 {
		return
	}
	n := p.rx.Put(p.backlog)
	p.backlog = p.backlog[n:]
	if n > 0 {
		p.events.TrySend(seriallink.TransportEvent{Kind: seriallink.TransportDataArrived})
	}
}

func (p *Port) SetReadBufferCapacity(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rx.SetCapacity(n)
	p.refill()
}

// Clear drops buffered input, including input held back by the capacity.
func (p *Port) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rx.Clear()
	p.backlog = nil
	return nil
}

func (p *Port) ReadySignal() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return false, seriallink.ErrPortClosed
	}
	return p.lines&seriallink.SignalCTS != 0, nil
}

func (p *Port) Events() <-chan seriallink.TransportEvent {
	return p.events.C()
}

// Inject queues data as if it had arrived on the wire and raises
// DataArrived. Input to a closed port is lost. Bytes beyond the read buffer
// capacity are held back until reads make room.
func (p *Port) Inject(data []byte) {
	if len(data) == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return
	}
	if len(p.backlog) == 0 {
		data = data[p.rx.Put(data):]
	}
	p.backlog = append(p.backlog, data...)
	p.events.TrySend(seriallink.TransportEvent{Kind: seriallink.TransportDataArrived})
}

// SetLine asserts or clears a modem line and raises LineSignalChanged when
// the port is open and the state changed.
func (p *Port) SetLine(line seriallink.Signal, state bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.lines
	if state {
		p.lines |= line
	} else {
		p.lines &^= line
	}
	if !p.open {
		return
	}
	for _, ev := range pump.Changes(prev, p.lines) {
		p.events.TrySend(ev)
	}
}

// SetReadySignal drives the CTS line.
func (p *Port) SetReadySignal(state bool) {
	p.SetLine(seriallink.SignalCTS, state)
}

// RaiseError reports err as an asynchronous transport error.
func (p *Port) RaiseError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open {
		p.events.TrySend(seriallink.TransportEvent{Kind: seriallink.TransportError, Err: err})
	}
}

// FailOpen makes every Open fail with err until called with nil.
func (p *Port) FailOpen(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.openErr = err
}

// FailWrite makes every Write fail with err until called with nil.
func (p *Port) FailWrite(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeErr = err
}

// SetWriteLimit caps the bytes accepted per Write. Zero removes the cap.
func (p *Port) SetWriteLimit(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.limit = n
}

// Sent returns everything accepted by Write so far.
func (p *Port) Sent() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.sent)
}

// Buffered returns the number of received bytes waiting to be read.
func (p *Port) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rx.Len() + len(p.backlog)
}
