// Package termios is a seriallink.Transport for Linux character devices.
//
// The device is opened non-blocking and put in raw mode. A reader goroutine
// moves input into a bounded buffer and a poller reports modem line changes
// (CTS, DSR, RI, DCD). Under software flow control the kernel's IXON/IXOFF
// handling stays off so the link sees the control bytes itself.
package termios

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	seriallink "github.com/allbin/go-seriallink"
	"github.com/allbin/go-seriallink/internal/pump"
)

const (
	pollTimeout    = 100 // milliseconds
	signalInterval = 50 * time.Millisecond
)

// Port is a termios-backed transport.
type Port struct {
	*pump.Line

	mu     sync.Mutex
	fd     int
	open   bool
	mode   seriallink.OpenMode
	rx     *pump.Buffer
	events *pump.Events
	stop   chan struct{}
	wg     sync.WaitGroup
}

var _ seriallink.Transport = (*Port)(nil)

// New returns a closed port for the device at path.
func New(path string) *Port {
	p := &Port{
		Line:   pump.NewLine(pump.DefaultSettings(path), check),
		fd:     -1,
		rx:     pump.NewBuffer(seriallink.DefaultBufferSize),
		events: pump.NewEvents(pump.DefaultEventQueue),
	}
	p.rx.Close()
	return p
}

func check(s pump.Settings) error {
	if _, err := baudConstant(s.BaudRate); err != nil {
		return err
	}
	if s.StopBits == seriallink.StopBitsOneAndHalf {
		return fmt.Errorf("stop bits %s: %w", s.StopBits, seriallink.ErrUnsupported)
	}
	return nil
}

// Open opens and configures the device, then starts the reader and the
// signal poller.
func (p *Port) Open(mode seriallink.OpenMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open {
		return nil
	}

	s := p.Settings()
	flags := unix.O_RDWR | unix.O_NOCTTY | unix.O_NONBLOCK | unix.O_CLOEXEC
	if mode == seriallink.ReadOnly {
		flags = unix.O_RDONLY | unix.O_NOCTTY | unix.O_NONBLOCK | unix.O_CLOEXEC
	}

	fd, err := unix.Open(s.Name, flags, 0)
	if err != nil {
		return openError(s.Name, err)
	}
	if err := unix.IoctlSetInt(fd, unix.TIOCEXCL, 0); err != nil {
		unix.Close(fd)
		return openError(s.Name, err)
	}
	if err := configure(fd, s); err != nil {
		unix.Close(fd)
		return err
	}

	p.fd = fd
	p.mode = mode
	p.open = true
	p.stop = make(chan struct{})
	p.rx.Reopen()
	p.Attach(func(next pump.Settings) error { return configure(fd, next) })

	stop := p.stop
	p.wg.Add(2)
	go func() {
		defer p.wg.Done()
		pump.Read(stop, fdReader(fd), p.rx, p.events)
	}()
	go func() {
		defer p.wg.Done()
		pump.WatchSignals(stop, signalInterval, func() (seriallink.Signal, error) {
			return modemLines(fd)
		}, p.events)
	}()

	return nil
}

func openError(path string, err error) error {
	switch {
	case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENODEV), errors.Is(err, unix.ENXIO):
		return fmt.Errorf("open %s: %w: %w", path, seriallink.ErrDeviceNotFound, err)
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return fmt.Errorf("open %s: %w: %w", path, seriallink.ErrPermissionDenied, err)
	case errors.Is(err, unix.EBUSY):
		return fmt.Errorf("open %s: %w: %w", path, seriallink.ErrDeviceInUse, err)
	default:
		return fmt.Errorf("open %s: %w", path, err)
	}
}

// Close stops the background goroutines and closes the device. The port is
// closed afterwards even when the close call fails.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return nil
	}

	p.Attach(nil)
	close(p.stop)
	p.rx.Close()
	p.wg.Wait()

	err := unix.Close(p.fd)
	p.fd = -1
	p.open = false
	p.events.Drain()
	return err
}

func (p *Port) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Write hands data to the kernel without waiting. A full output queue
// yields a short count.
func (p *Port) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return 0, seriallink.ErrPortClosed
	}
	if p.mode == seriallink.ReadOnly {
		return 0, seriallink.ErrReadOnly
	}

	n, err := unix.Write(p.fd, data)
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
		return 0, nil
	}
	if n < 0 {
		n = 0
	}
	return n, err
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

// Clear discards buffered input and the kernel's pending input and output.
func (p *Port) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.rx.Clear()
	if !p.open {
		return nil
	}
	return unix.IoctlSetInt(p.fd, unix.TCFLSH, unix.TCIOFLUSH)
}

// ReadySignal returns the state of the CTS line.
func (p *Port) ReadySignal() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return false, seriallink.ErrPortClosed
	}
	lines, err := modemLines(p.fd)
	if err != nil {
		return false, err
	}
	return lines&seriallink.SignalCTS != 0, nil
}

func (p *Port) Events() <-chan seriallink.TransportEvent {
	return p.events.C()
}

// fdReader reads from a non-blocking descriptor, waiting at most
// pollTimeout for input.
type fdReader int

func (r fdReader) Read(b []byte) (int, error) {
	fds := []unix.PollFd{{Fd: int32(r), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, pollTimeout)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, nil
		}
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 && fds[0].Revents&unix.POLLIN == 0 {
		return 0, fmt.Errorf("device hung up: %w", seriallink.ErrPortClosed)
	}

	n, err = unix.Read(int(r), b)
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
		return 0, nil
	}
	if n < 0 {
		n = 0
	}
	return n, err
}
