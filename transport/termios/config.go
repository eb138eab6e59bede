package termios

import (
	"fmt"

	"golang.org/x/sys/unix"

	seriallink "github.com/allbin/go-seriallink"
	"github.com/allbin/go-seriallink/internal/pump"
)

// baudConstant converts a baud rate to the matching termios speed
func baudConstant(rate seriallink.BaudRate) (uint32, error) {
	switch rate {
	case 50:
		return unix.B50, nil
	case 75:
		return unix.B75, nil
	case 110:
		return unix.B110, nil
	case 134:
		return unix.B134, nil
	case 150:
		return unix.B150, nil
	case 200:
		return unix.B200, nil
	case 300:
		return unix.B300, nil
	case 600:
		return unix.B600, nil
	case 1200:
		return unix.B1200, nil
	case 1800:
		return unix.B1800, nil
	case 2400:
		return unix.B2400, nil
	case 4800:
		return unix.B4800, nil
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	case 230400:
		return unix.B230400, nil
	case 460800:
		return unix.B460800, nil
	case 500000:
		return unix.B500000, nil
	case 576000:
		return unix.B576000, nil
	case 921600:
		return unix.B921600, nil
	case 1000000:
		return unix.B1000000, nil
	case 1152000:
		return unix.B1152000, nil
	case 1500000:
		return unix.B1500000, nil
	case 2000000:
		return unix.B2000000, nil
	case 2500000:
		return unix.B2500000, nil
	case 3000000:
		return unix.B3000000, nil
	case 3500000:
		return unix.B3500000, nil
	case 4000000:
		return unix.B4000000, nil
	default:
		return 0, fmt.Errorf("baud rate %d: %w", int(rate), seriallink.ErrUnsupported)
	}
}

// controlFlags builds the c_cflag word for s, speed included
func controlFlags(s pump.Settings) (uint32, error) {
	speed, err := baudConstant(s.BaudRate)
	if err != nil {
		return 0, err
	}

	cflag := unix.CREAD | unix.CLOCAL | speed

	switch s.DataBits {
	case seriallink.DataBits5:
		cflag |= unix.CS5
	case seriallink.DataBits6:
		cflag |= unix.CS6
	case seriallink.DataBits7:
		cflag |= unix.CS7
	case seriallink.DataBits8:
		cflag |= unix.CS8
	default:
		return 0, fmt.Errorf("data bits %s: %w", s.DataBits, seriallink.ErrUnsupported)
	}

	switch s.StopBits {
	case seriallink.StopBitsOne:
	case seriallink.StopBitsTwo:
		cflag |= unix.CSTOPB
	default:
		return 0, fmt.Errorf("stop bits %s: %w", s.StopBits, seriallink.ErrUnsupported)
	}

	switch s.Parity {
	case seriallink.ParityNone:
	case seriallink.ParityEven:
		cflag |= unix.PARENB
	case seriallink.ParityOdd:
		cflag |= unix.PARENB | unix.PARODD
	case seriallink.ParityMark:
		cflag |= unix.PARENB | unix.PARODD | unix.CMSPAR
	case seriallink.ParitySpace:
		cflag |= unix.PARENB | unix.CMSPAR
	default:
		return 0, fmt.Errorf("parity %s: %w", s.Parity, seriallink.ErrUnsupported)
	}

	if s.FlowControl == seriallink.FlowControlHardware {
		cflag |= unix.CRTSCTS
	}

	return cflag, nil
}

// configure puts fd in raw mode with the line settings of s
func configure(fd int, s pump.Settings) error {
	cflag, err := controlFlags(s)
	if err != nil {
		return err
	}

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("failed to get termios: %w", err)
	}

	speed := cflag & unix.CBAUD
	termios.Cflag = cflag
	termios.Iflag = 0 // no input processing, XON/XOFF reach the reader
	termios.Oflag = 0
	termios.Lflag = 0
	termios.Ispeed = speed
	termios.Ospeed = speed
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("failed to set termios: %w", err)
	}

	if s.FlowControl == seriallink.FlowControlHardware {
		// Some adapters have no manual RTS control; CRTSCTS still applies.
		_ = unix.IoctlSetPointerInt(fd, unix.TIOCMBIS, unix.TIOCM_RTS|unix.TIOCM_DTR)
	}

	return nil
}

// linesFromTIOCM converts TIOCMGET bits to the modem lines a link reports
func linesFromTIOCM(status int) seriallink.Signal {
	var lines seriallink.Signal
	if status&unix.TIOCM_CTS != 0 {
		lines |= seriallink.SignalCTS
	}
	if status&unix.TIOCM_DSR != 0 {
		lines |= seriallink.SignalDSR
	}
	if status&unix.TIOCM_RI != 0 {
		lines |= seriallink.SignalRI
	}
	if status&unix.TIOCM_CAR != 0 {
		lines |= seriallink.SignalDCD
	}
	return lines
}

func modemLines(fd int) (seriallink.Signal, error) {
	status, err := unix.IoctlGetInt(fd, unix.TIOCMGET)
	if err != nil {
		return 0, err
	}
	return linesFromTIOCM(status), nil
}
