package seriallink

import (
	"fmt"
	"log/slog"
)

// Defaults applied by DefaultConfig
const (
	DefaultBaudRate       = Baud9600
	DefaultDataBits       = DataBits8
	DefaultStopBits       = StopBitsOne
	DefaultParity         = ParityNone
	DefaultFlowControl    = FlowControlNone
	DefaultXON       byte = 0x11
	DefaultXOFF      byte = 0x13
	DefaultBufferSize     = 1024
)

// Config holds the configuration for a link
type Config struct {
	PortName    string
	BaudRate    BaudRate
	DataBits    DataBits
	StopBits    StopBits
	Parity      Parity
	FlowControl FlowControl

	XON            byte // resumes transmission under software flow control
	XOFF           byte // pauses transmission under software flow control
	ReadBufferSize int  // transport-side read buffer capacity, applied on open
	AutoRead       bool // read eagerly when the transport reports arrived data

	Logger *slog.Logger
}

// Option is a functional option for configuring a link
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaudRate:       DefaultBaudRate,
		DataBits:       DefaultDataBits,
		StopBits:       DefaultStopBits,
		Parity:         DefaultParity,
		FlowControl:    DefaultFlowControl,
		XON:            DefaultXON,
		XOFF:           DefaultXOFF,
		ReadBufferSize: DefaultBufferSize,
		AutoRead:       true,
	}
}

// Summary renders the line settings in the familiar "9600 8N1" form.
func (c Config) Summary() string {
	return fmt.Sprintf("%s %s%s%s", c.BaudRate, c.DataBits, c.Parity.Letter(), c.StopBits)
}

func invalidOption(op, value string) error {
	return &LinkError{Op: op, Value: value, Kind: ErrConfigurationRejected}
}

// WithPortName sets the device name handed to the transport
func WithPortName(name string) Option {
	return func(c *Config) error {
		c.PortName = name
		return nil
	}
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate BaudRate) Option {
	return func(c *Config) error {
		if rate <= 0 {
			return invalidOption("set baud rate", fmt.Sprint(int(rate)))
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits (5, 6, 7, or 8)
func WithDataBits(bits DataBits) Option {
	return func(c *Config) error {
		if !bits.Valid() {
			return invalidOption("set data bits", fmt.Sprint(int(bits)))
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits
func WithStopBits(bits StopBits) Option {
	return func(c *Config) error {
		if !bits.Valid() {
			return invalidOption("set stop bits", bits.String())
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		if !parity.Valid() {
			return invalidOption("set parity", parity.String())
		}
		c.Parity = parity
		return nil
	}
}

// WithFlowControl sets the flow control mode
func WithFlowControl(fc FlowControl) Option {
	return func(c *Config) error {
		if !fc.Valid() {
			return invalidOption("set flow control", fc.String())
		}
		c.FlowControl = fc
		return nil
	}
}

// WithControlBytes overrides the XON and XOFF characters
func WithControlBytes(xon, xoff byte) Option {
	return func(c *Config) error {
		if xon == xoff {
			return invalidOption("set XON/XOFF symbols", fmt.Sprintf("%#02x/%#02x", xon, xoff))
		}
		c.XON = xon
		c.XOFF = xoff
		return nil
	}
}

// WithReadBufferSize sets the transport read buffer capacity in bytes
func WithReadBufferSize(size int) Option {
	return func(c *Config) error {
		if size <= 0 {
			return invalidOption("set buffer size", fmt.Sprint(size))
		}
		c.ReadBufferSize = size
		return nil
	}
}

// WithAutoRead selects between auto-read and manual read mode
func WithAutoRead(enabled bool) Option {
	return func(c *Config) error {
		c.AutoRead = enabled
		return nil
	}
}

// WithLogger sets the logger used for link diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}
