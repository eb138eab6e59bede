package pump

import (
	"errors"
	"fmt"
	"sync"

	seriallink "github.com/allbin/go-seriallink"
)

// ErrPortOpen is returned when renaming a port that is open.
var ErrPortOpen = errors.New("cannot rename an open port")

// Settings are the line parameters of a transport.
type Settings struct {
	Name        string
	BaudRate    seriallink.BaudRate
	DataBits    seriallink.DataBits
	StopBits    seriallink.StopBits
	Parity      seriallink.Parity
	FlowControl seriallink.FlowControl
}

// DefaultSettings mirrors seriallink.DefaultConfig.
func DefaultSettings(name string) Settings {
	return Settings{
		Name:        name,
		BaudRate:    seriallink.DefaultBaudRate,
		DataBits:    seriallink.DefaultDataBits,
		StopBits:    seriallink.DefaultStopBits,
		Parity:      seriallink.DefaultParity,
		FlowControl: seriallink.DefaultFlowControl,
	}
}

// Validate rejects the Unknown variants and non-positive baud rates.
func (s Settings) Validate() error {
	switch {
	case s.BaudRate <= 0:
		return fmt.Errorf("baud rate %d: %w", int(s.BaudRate), seriallink.ErrUnsupported)
	case !s.DataBits.Valid():
		return fmt.Errorf("data bits %s: %w", s.DataBits, seriallink.ErrUnsupported)
	case !s.StopBits.Valid():
		return fmt.Errorf("stop bits %s: %w", s.StopBits, seriallink.ErrUnsupported)
	case !s.Parity.Valid():
		return fmt.Errorf("parity %s: %w", s.Parity, seriallink.ErrUnsupported)
	case !s.FlowControl.Valid():
		return fmt.Errorf("flow control %s: %w", s.FlowControl, seriallink.ErrUnsupported)
	}
	return nil
}

// Line implements the settings half of seriallink.Transport. A setter
// builds a candidate, validates it, runs the transport's Check, and while
// open hands it to Apply. Any failure leaves the previous value in place.
type Line struct {
	mu       sync.Mutex
	settings Settings
	check    func(Settings) error
	apply    func(Settings) error
}

// NewLine returns a Line starting from s. check may be nil.
func NewLine(s Settings, check func(Settings) error) *Line {
	return &Line{settings: s, check: check}
}

// Attach installs fn as the apply hook used while the port is open.
// Detach with nil on close.
func (l *Line) Attach(fn func(Settings) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.apply = fn
}

// Settings returns the current values.
func (l *Line) Settings() Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings
}

// Check validates s against the transport's capabilities.
func (l *Line) Check(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if l.check != nil {
		return l.check(s)
	}
	return nil
}

func (l *Line) update(change func(*Settings)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.settings
	change(&next)
	if err := l.Check(next); err != nil {
		return err
	}
	if l.apply != nil {
		if err := l.apply(next); err != nil {
			return err
		}
	}
	l.settings = next
	return nil
}

func (l *Line) PortName() string { return l.Settings().Name }

func (l *Line) SetPortName(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.apply != nil {
		return ErrPortOpen
	}
	l.settings.Name = name
	return nil
}

func (l *Line) BaudRate() seriallink.BaudRate { return l.Settings().BaudRate }

func (l *Line) SetBaudRate(rate seriallink.BaudRate) error {
	return l.update(func(s *Settings) { s.BaudRate = rate })
}

func (l *Line) DataBits() seriallink.DataBits { return l.Settings().DataBits }

func (l *Line) SetDataBits(bits seriallink.DataBits) error {
	return l.update(func(s *Settings) { s.DataBits = bits })
}

func (l *Line) StopBits() seriallink.StopBits { return l.Settings().StopBits }

func (l *Line) SetStopBits(bits seriallink.StopBits) error {
	return l.update(func(s *Settings) { s.StopBits = bits })
}

func (l *Line) Parity() seriallink.Parity { return l.Settings().Parity }

func (l *Line) SetParity(parity seriallink.Parity) error {
	return l.update(func(s *Settings) { s.Parity = parity })
}

func (l *Line) FlowControl() seriallink.FlowControl { return l.Settings().FlowControl }

func (l *Line) SetFlowControl(fc seriallink.FlowControl) error {
	return l.update(func(s *Settings) { s.FlowControl = fc })
}
