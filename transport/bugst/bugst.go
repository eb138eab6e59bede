// Package bugst is a portable seriallink.Transport built on go.bug.st/serial.
//
// The library has no hardware flow control setting, so the mode is only
// recorded; the link still derives readiness from the polled CTS line.
// Writes go straight to the device and may block until the driver accepts
// them, unlike the non-blocking contract of seriallink.Transport. The port
// lock is not held during a write, so the other methods stay responsive
// while one is pending.
package bugst

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"

	seriallink "github.com/allbin/go-seriallink"
	"github.com/allbin/go-seriallink/internal/pump"
)

const (
	readTimeout    = 100 * time.Millisecond
	signalInterval = 50 * time.Millisecond
)

// Port is a go.bug.st/serial backed transport.
type Port struct {
	*pump.Line

	mu     sync.Mutex
	dev    serial.Port
	mode   seriallink.OpenMode
	rx     *pump.Buffer
	events *pump.Events
	stop   chan struct{}
	wg     sync.WaitGroup
}

var _ seriallink.Transport = (*Port)(nil)

// New returns a closed port for the named device.
func New(name string) *Port {
	p := &Port{
		Line:   pump.NewLine(pump.DefaultSettings(name), check),
		rx:     pump.NewBuffer(seriallink.DefaultBufferSize),
		events: pump.NewEvents(pump.DefaultEventQueue),
	}
	p.rx.Close()
	return p
}

// Ports lists the serial devices known to the operating system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

func check(s pump.Settings) error {
	_, err := toMode(s)
	return err
}

// toMode converts link settings to a serial.Mode
func toMode(s pump.Settings) (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: int(s.BaudRate),
		DataBits: int(s.DataBits),
	}

	switch s.StopBits {
	case seriallink.StopBitsOne:
		mode.StopBits = serial.OneStopBit
	case seriallink.StopBitsOneAndHalf:
		mode.StopBits = serial.OnePointFiveStopBits
	case seriallink.StopBitsTwo:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("stop bits %s: %w", s.StopBits, seriallink.ErrUnsupported)
	}

	switch s.Parity {
	case seriallink.ParityNone:
		mode.Parity = serial.NoParity
	case seriallink.ParityEven:
		mode.Parity = serial.EvenParity
	case seriallink.ParityOdd:
		mode.Parity = serial.OddParity
	case seriallink.ParityMark:
		mode.Parity = serial.MarkParity
	case seriallink.ParitySpace:
		mode.Parity = serial.SpaceParity
	default:
		return nil, fmt.Errorf("parity %s: %w", s.Parity, seriallink.ErrUnsupported)
	}

	if s.FlowControl == seriallink.FlowControlHardware {
		mode.InitialStatusBits = &serial.ModemOutputBits{RTS: true, DTR: true}
	}

	return mode, nil
}

func (p *Port) Open(mode seriallink.OpenMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dev != nil {
		return nil
	}

	s := p.Settings()
	m, err := toMode(s)
	if err != nil {
		return err
	}

	dev, err := serial.Open(s.Name, m)
	if err != nil {
		return openError(s.Name, err)
	}
	if err := dev.SetReadTimeout(readTimeout); err != nil {
		dev.Close()
		return fmt.Errorf("open %s: %w", s.Name, err)
	}

	p.dev = dev
	p.mode = mode
	p.stop = make(chan struct{})
	p.rx.Reopen()
	p.Attach(func(next pump.Settings) error {
		m, err := toMode(next)
		if err != nil {
			return err
		}
		return dev.SetMode(m)
	})

	stop := p.stop
	p.wg.Add(2)
	go func() {
		defer p.wg.Done()
		pump.Read(stop, dev, p.rx, p.events)
	}()
	go func() {
		defer p.wg.Done()
		pump.WatchSignals(stop, signalInterval, func() (seriallink.Signal, error) {
			return modemLines(dev)
		}, p.events)
	}()

	return nil
}

func openError(name string, err error) error {
	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortNotFound, serial.InvalidSerialPort:
			return fmt.Errorf("open %s: %w: %w", name, seriallink.ErrDeviceNotFound, err)
		case serial.PermissionDenied:
			return fmt.Errorf("open %s: %w: %w", name, seriallink.ErrPermissionDenied, err)
		case serial.PortBusy:
			return fmt.Errorf("open %s: %w: %w", name, seriallink.ErrDeviceInUse, err)
		}
	}
	return fmt.Errorf("open %s: %w", name, err)
}

func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dev == nil {
		return nil
	}

	p.Attach(nil)
	close(p.stop)
	p.rx.Close()
	p.wg.Wait()

	err := p.dev.Close()
	p.dev = nil
	p.events.Drain()
	return err
}

func (p *Port) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dev != nil
}

// Write runs outside the port lock, so a write stalled in the driver does
// not hold up ReadySignal, Clear or IsOpen.
func (p *Port) Write(data []byte) (int, error) {
	p.mu.Lock()
	dev, mode := p.dev, p.mode
	p.mu.Unlock()

	if dev == nil {
		return 0, seriallink.ErrPortClosed
	}
	if mode == seriallink.ReadOnly {
		return 0, seriallink.ErrReadOnly
	}
	return dev.Write(data)
}

func (p *Port) ReadAvailable(max int) ([]byte, error) {
	if !p.IsOpen() {
		return nil, seriallink.ErrPortClosed
	}
	if max < 0 {
		max = 0
	}
	return p.rx.Take(max), nil
}

func (p *Port) ReadAll() ([]byte, error) {
	if !p.IsOpen() {
		return nil, seriallink.ErrPortClosed
	}
	return p.rx.Take(-1), nil
}

func (p *Port) SetReadBufferCapacity(n int) {
	p.rx.SetCapacity(n)
}

func (p *Port) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.rx.Clear()
	if p.dev == nil {
		return nil
	}
	return errors.Join(p.dev.ResetInputBuffer(), p.dev.ResetOutputBuffer())
}

// ReadySignal returns the state of the CTS line.
func (p *Port) ReadySignal() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dev == nil {
		return false, seriallink.ErrPortClosed
	}
	lines, err := modemLines(p.dev)
	if err != nil {
		return false, err
	}
	return lines&seriallink.SignalCTS != 0, nil
}

func (p *Port) Events() <-chan seriallink.TransportEvent {
	return p.events.C()
}

func modemLines(dev serial.Port) (seriallink.Signal, error) {
	bits, err := dev.GetModemStatusBits()
	if err != nil {
		return 0, err
	}
	return linesFromStatus(bits), nil
}

func linesFromStatus(bits *serial.ModemStatusBits) seriallink.Signal {
	var lines seriallink.Signal
	if bits.CTS {
		lines |= seriallink.SignalCTS
	}
	if bits.DSR {
		lines |= seriallink.SignalDSR
	}
	if bits.RI {
		lines |= seriallink.SignalRI
	}
	if bits.DCD {
		lines |= seriallink.SignalDCD
	}
	return lines
}
