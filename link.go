package seriallink

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// All requests every buffered byte from Read.
const All = -1

// Link is a flow-controlled serial link on top of a Transport.
//
// A Link is not safe for concurrent use. Method calls and HandleEvent must
// come from one goroutine; Run provides a loop that satisfies this.
type Link struct {
	transport Transport
	config    Config
	log       *slog.Logger

	ready   bool
	buf     []byte
	lastErr error
	stats   *Stats

	subscribers []subscriber
	nextSubID   uint64
}

// New creates a link over t and pushes the configured line settings to it.
// The link starts closed.
func New(t Transport, opts ...Option) (*Link, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			var linkErr *LinkError
			if errors.As(err, &linkErr) && linkErr.Port == "" {
				linkErr.Port = cmp.Or(config.PortName, t.PortName())
			}
			return nil, err
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	l := &Link{
		transport: t,
		config:    config,
		log:       logger,
		stats:     newStats(),
	}

	if config.PortName != "" {
		if err := l.SetPortName(config.PortName); err != nil {
			return nil, err
		}
	} else {
		l.config.PortName = t.PortName()
	}
	for _, apply := range []func() error{
		func() error { return l.SetBaudRate(config.BaudRate) },
		func() error { return l.SetDataBits(config.DataBits) },
		func() error { return l.SetStopBits(config.StopBits) },
		func() error { return l.SetParity(config.Parity) },
		func() error { return l.SetFlowControl(config.FlowControl) },
	} {
		if err := apply(); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// fail records err as the last error and returns it.
func (l *Link) fail(err *LinkError) error {
	err.Port = l.config.PortName
	l.lastErr = err
	l.stats.Errors.Inc()
	l.log.Error(err.Error(), "port", err.Port, "op", err.Op)
	return err
}

func (l *Link) notOpen(op string) error {
	return l.fail(&LinkError{Op: op, Kind: ErrNotOpen})
}

func (l *Link) rejected(op, value string, err error) error {
	return l.fail(&LinkError{Op: op, Value: value, Kind: ErrConfigurationRejected, Err: err})
}

// LastError returns the most recent failure, or nil if nothing has failed.
func (l *Link) LastError() error {
	return l.lastErr
}

// Config returns a copy of the current configuration.
func (l *Link) Config() Config {
	return l.config
}

// Stats returns the link counters.
func (l *Link) Stats() *Stats {
	return l.stats
}

// PortName returns the device name used by the transport.
func (l *Link) PortName() string {
	return l.config.PortName
}

// SetPortName changes the device name used on the next Open.
func (l *Link) SetPortName(name string) error {
	l.log.Debug("set port name", "port", l.config.PortName, "value", name)
	if err := l.transport.SetPortName(name); err != nil {
		return l.rejected("set port name", name, err)
	}
	l.config.PortName = name
	return nil
}

// SetBaudRate applies rate to the transport.
func (l *Link) SetBaudRate(rate BaudRate) error {
	l.log.Debug("set baud rate", "port", l.config.PortName, "value", rate)
	if rate <= 0 {
		return l.rejected("set baud rate", fmt.Sprint(int(rate)), nil)
	}
	if err := l.transport.SetBaudRate(rate); err != nil {
		return l.rejected("set baud rate", rate.String(), err)
	}
	l.config.BaudRate = rate
	return nil
}

// SetDataBits applies bits to the transport.
func (l *Link) SetDataBits(bits DataBits) error {
	l.log.Debug("set data bits", "port", l.config.PortName, "value", bits)
	if !bits.Valid() {
		return l.rejected("set data bits", fmt.Sprint(int(bits)), nil)
	}
	if err := l.transport.SetDataBits(bits); err != nil {
		return l.rejected("set data bits", bits.String(), err)
	}
	l.config.DataBits = bits
	return nil
}

// SetStopBits applies bits to the transport.
func (l *Link) SetStopBits(bits StopBits) error {
	l.log.Debug("set stop bits", "port", l.config.PortName, "value", bits)
	if !bits.Valid() {
		return l.rejected("set stop bits", bits.String(), nil)
	}
	if err := l.transport.SetStopBits(bits); err != nil {
		return l.rejected("set stop bits", bits.String(), err)
	}
	l.config.StopBits = bits
	return nil
}

// SetParity applies parity to the transport.
func (l *Link) SetParity(parity Parity) error {
	l.log.Debug("set parity", "port", l.config.PortName, "value", parity)
	if !parity.Valid() {
		return l.rejected("set parity", parity.String(), nil)
	}
	if err := l.transport.SetParity(parity); err != nil {
		return l.rejected("set parity", parity.String(), err)
	}
	l.config.Parity = parity
	return nil
}

// SetFlowControl applies fc to the transport. The ready state is not
// recomputed until the next open, signal change or read.
func (l *Link) SetFlowControl(fc FlowControl) error {
	l.log.Debug("set flow control", "port", l.config.PortName, "value", fc)
	if !fc.Valid() {
		return l.rejected("set flow control", fc.String(), nil)
	}
	if err := l.transport.SetFlowControl(fc); err != nil {
		return l.rejected("set flow control", fc.String(), err)
	}
	l.config.FlowControl = fc
	return nil
}

// SetReadBufferSize sets the transport read buffer capacity. It takes effect
// immediately when open and on every later Open.
func (l *Link) SetReadBufferSize(size int) error {
	l.log.Debug("set buffer size", "port", l.config.PortName, "value", size)
	if size <= 0 {
		return l.rejected("set buffer size", fmt.Sprint(size), nil)
	}
	l.config.ReadBufferSize = size
	if l.transport.IsOpen() {
		l.transport.SetReadBufferCapacity(size)
	}
	return nil
}

// SetXON sets the byte that resumes transmission under software flow control.
func (l *Link) SetXON(b byte) error {
	l.log.Debug("set XON symbol", "port", l.config.PortName, "value", fmt.Sprintf("%#02x", b))
	if b == l.config.XOFF {
		return l.rejected("set XON symbol", fmt.Sprintf("%#02x", b), nil)
	}
	l.config.XON = b
	return nil
}

// SetXOFF sets the byte that pauses transmission under software flow control.
func (l *Link) SetXOFF(b byte) error {
	l.log.Debug("set XOFF symbol", "port", l.config.PortName, "value", fmt.Sprintf("%#02x", b))
	if b == l.config.XON {
		return l.rejected("set XOFF symbol", fmt.Sprintf("%#02x", b), nil)
	}
	l.config.XOFF = b
	return nil
}

// SetAutoRead switches between auto-read and manual mode. The flag is read
// once per arrival event, so the change applies from the next event on.
func (l *Link) SetAutoRead(enabled bool) {
	l.log.Debug("set auto read", "port", l.config.PortName, "value", enabled)
	l.config.AutoRead = enabled
}

// IsOpen reports whether the transport is open.
func (l *Link) IsOpen() bool {
	return l.transport.IsOpen()
}

// Open opens the transport. Opening an open link is a no-op.
func (l *Link) Open(mode OpenMode) error {
	if l.transport.IsOpen() {
		return nil
	}

	l.emit(Event{Kind: EventBeforeOpen})

	if err := l.transport.Open(mode); err != nil {
		return l.fail(&LinkError{Op: "open port", Kind: ErrTransportFailure, Err: err})
	}

	l.buf = nil
	if err := l.transport.Clear(); err != nil {
		l.log.Warn("failed to clear transport buffers", "port", l.config.PortName, "error", err)
	}
	l.transport.SetReadBufferCapacity(l.config.ReadBufferSize)

	l.ready = true
	if l.config.FlowControl == FlowControlHardware {
		ready, err := l.transport.ReadySignal()
		if err != nil {
			l.log.Warn("failed to sample ready signal", "port", l.config.PortName, "error", err)
		}
		l.ready = ready && err == nil
	}

	l.log.Info("port is open",
		"port", l.config.PortName,
		"mode", mode,
		"settings", l.config.Summary(),
		"flow_control", l.config.FlowControl,
		"ready", l.ready)
	l.emit(Event{Kind: EventAfterOpen})
	return nil
}

// Close closes the transport. The link always ends up closed; a transport
// error is recorded and returned. Closing a closed link is a no-op.
func (l *Link) Close() error {
	if !l.transport.IsOpen() {
		return nil
	}

	l.emit(Event{Kind: EventBeforeClose})

	var result error
	if err := l.transport.Close(); err != nil {
		result = l.fail(&LinkError{Op: "close port", Kind: ErrTransportFailure, Err: err})
	}
	l.ready = false

	l.log.Info("port is closed", "port", l.config.PortName)
	l.emit(Event{Kind: EventAfterClose})
	return result
}

// IsReady reports whether the peer allows transmission. Under hardware flow
// control the ready line is resampled and a change is published as
// EventReadyChanged before IsReady returns.
func (l *Link) IsReady() bool {
	if !l.transport.IsOpen() {
		return false
	}
	if l.config.FlowControl == FlowControlHardware {
		ready, err := l.transport.ReadySignal()
		if err != nil {
			l.log.Warn("failed to sample ready signal", "port", l.config.PortName, "error", err)
			return l.ready
		}
		l.setReady(ready)
	}
	return l.ready
}

func (l *Link) setReady(ready bool) {
	if l.ready == ready {
		return
	}
	l.ready = ready
	l.stats.ReadyTransitions.Inc()
	l.log.Debug("ready changed", "port", l.config.PortName, "ready", ready)
	l.emit(Event{Kind: EventReadyChanged, State: ready})
}

// Write hands p to the transport and returns how many bytes it accepted.
// A partial write is not an error. Writing to a closed link returns 0 and
// records ErrNotOpen.
func (l *Link) Write(p []byte) (int, error) {
	if !l.transport.IsOpen() {
		return 0, l.notOpen("write")
	}

	n, err := l.transport.Write(p)
	if n > 0 {
		l.stats.BytesWritten.Add(int64(n))
		l.dump("out", p[:n])
		l.log.Debug("bytes written", "port", l.config.PortName, "count", n)
		l.emit(Event{Kind: EventBytesWritten, Count: n})
	}
	if err != nil {
		return n, l.fail(&LinkError{Op: "write", Kind: ErrTransportFailure, Err: err})
	}
	return n, nil
}

// Read replaces the read buffer with up to max bytes from the transport, or
// with everything buffered when max is negative, and returns a copy of it.
//
// Under software flow control every returned byte is checked against the
// XON and XOFF characters. Control bytes stay in the returned data; stripping
// them is left to the caller.
func (l *Link) Read(max int) ([]byte, error) {
	l.buf = nil

	if !l.transport.IsOpen() {
		return nil, l.notOpen("read")
	}

	var (
		data []byte
		err  error
	)
	if max < 0 {
		data, err = l.transport.ReadAll()
	} else {
		data, err = l.transport.ReadAvailable(max)
	}
	if err != nil {
		err = l.fail(&LinkError{Op: "read", Kind: ErrTransportFailure, Err: err})
	}
	if len(data) == 0 {
		return nil, err
	}

	l.buf = data
	l.stats.BytesRead.Add(int64(len(data)))
	l.dump("in", data)
	l.log.Debug("bytes read", "port", l.config.PortName, "count", len(data))
	l.emit(Event{Kind: EventBytesRead, Count: len(data)})

	if l.config.FlowControl == FlowControlSoftware {
		l.scanControlBytes(data)
	}

	return bytes.Clone(data), err
}

func (l *Link) scanControlBytes(data []byte) {
	for _, b := range data {
		switch b {
		case l.config.XON:
			l.stats.XONCount.Inc()
			l.log.Debug("XON symbol found", "port", l.config.PortName)
			l.emit(Event{Kind: EventXON, State: true})
			l.setReady(true)
		case l.config.XOFF:
			l.stats.XOFFCount.Inc()
			l.log.Debug("XOFF symbol found", "port", l.config.PortName)
			l.emit(Event{Kind: EventXON, State: false})
			l.setReady(false)
		}
	}
}

// ReadBuffer returns a copy of the bytes returned by the most recent Read.
func (l *Link) ReadBuffer() []byte {
	return bytes.Clone(l.buf)
}

func (l *Link) dump(direction string, data []byte) {
	if !l.log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	l.log.Debug("data", "port", l.config.PortName, "direction", direction, "hex", fmt.Sprintf("% x", data))
}

// HandleEvent reacts to a transport event. Events that arrive after the link
// was closed are dropped.
func (l *Link) HandleEvent(ev TransportEvent) {
	switch ev.Kind {
	case TransportDataArrived:
		if !l.transport.IsOpen() {
			return
		}
		if l.config.AutoRead {
			_, _ = l.Read(All)
			return
		}
		l.emit(Event{Kind: EventDataAvailable})

	case TransportLineSignalChanged:
		if !l.transport.IsOpen() {
			return
		}
		l.log.Debug("line signal changed", "port", l.config.PortName, "signal", ev.Signal, "state", ev.State)
		l.emit(Event{Kind: EventLineSignal, Signal: ev.Signal, State: ev.State})
		if l.config.FlowControl == FlowControlHardware && ev.Signal == SignalCTS {
			// The event may be stale once IsReady has resampled; follow the line.
			ready, err := l.transport.ReadySignal()
			if err != nil {
				ready = ev.State
			}
			l.setReady(ready)
		}

	case TransportError:
		if ev.Err == nil {
			return
		}
		err := l.fail(&LinkError{Op: "transfer data", Kind: ErrTransportFailure, Err: ev.Err})
		l.emit(Event{Kind: EventError, Err: err})
	}
}

// Run delivers transport events to the link until ctx is done. Functions
// received on calls run on the same goroutine between events, so a host can
// drive the link from elsewhere without sharing it. calls may be nil.
func (l *Link) Run(ctx context.Context, calls <-chan func(*Link)) error {
	events := l.transport.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			l.HandleEvent(ev)
		case fn, ok := <-calls:
			if !ok {
				calls = nil
				continue
			}
			fn(l)
		}
	}
}
