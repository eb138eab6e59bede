// Package config resolves link settings for the command line tools from
// flags, SERIALLINK_* environment variables and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	seriallink "github.com/allbin/go-seriallink"
)

// EnvPrefix prefixes every environment variable, e.g. SERIALLINK_BAUD.
const EnvPrefix = "SERIALLINK"

// Configuration keys. Flags carry the same names.
const (
	KeyTransport   = "transport"
	KeyBaud        = "baud"
	KeyDataBits    = "data-bits"
	KeyStopBits    = "stop-bits"
	KeyParity      = "parity"
	KeyFlowControl = "flow-control"
	KeyXON         = "xon"
	KeyXOFF        = "xoff"
	KeyBufferSize  = "buffer-size"
	KeyManualRead  = "manual-read"
	KeyLogLevel    = "log-level"
	KeyLogFormat   = "log-format"
)

// Transport names.
const (
	TransportTermios  = "termios"
	TransportBugst    = "bugst"
	TransportLoopback = "loopback"
)

// Settings is the resolved configuration.
type Settings struct {
	Transport   string
	BaudRate    seriallink.BaudRate
	DataBits    seriallink.DataBits
	StopBits    seriallink.StopBits
	Parity      seriallink.Parity
	FlowControl seriallink.FlowControl
	XON         byte
	XOFF        byte
	BufferSize  int
	ManualRead  bool
	LogLevel    string
	LogFormat   string
}

// RegisterFlags adds the link flags to flags and binds them to v.
func RegisterFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	flags.String(KeyTransport, TransportTermios, "transport: termios, bugst or loopback")
	flags.String(KeyBaud, seriallink.DefaultBaudRate.String(), "baud rate")
	flags.String(KeyDataBits, seriallink.DefaultDataBits.String(), "data bits (5-8)")
	flags.String(KeyStopBits, seriallink.DefaultStopBits.String(), "stop bits (1, 1.5, 2)")
	flags.String(KeyParity, seriallink.DefaultParity.String(), "parity (none, even, odd, space, mark)")
	flags.String(KeyFlowControl, seriallink.DefaultFlowControl.String(), "flow control (none, hardware, software)")
	flags.String(KeyXON, formatByte(seriallink.DefaultXON), "XON byte for software flow control")
	flags.String(KeyXOFF, formatByte(seriallink.DefaultXOFF), "XOFF byte for software flow control")
	flags.Int(KeyBufferSize, seriallink.DefaultBufferSize, "transport read buffer size in bytes")
	flags.Bool(KeyManualRead, false, "wait for an explicit read instead of reading on arrival")
	flags.String(KeyLogLevel, "info", "log level (debug, info, warn, error)")
	flags.String(KeyLogFormat, "auto", "log format (auto, console, json)")

	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		errs = append(errs, v.BindPFlag(f.Name, f))
	})
	return errors.Join(errs...)
}

// Init wires v to the environment and reads file, or .seriallink.yaml in
// the home directory when file is empty. A missing default file is not an
// error.
func Init(v *viper.Viper, file string) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", file, err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	v.SetConfigFile(filepath.Join(home, ".seriallink.yaml"))
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Resolve reads the settings out of v. Line settings go through the
// seriallink parsers, so malformed values fall back to the defaults.
func Resolve(v *viper.Viper) (Settings, error) {
	s := Settings{
		Transport:   strings.ToLower(v.GetString(KeyTransport)),
		BaudRate:    seriallink.ParseBaudRate(v.GetString(KeyBaud)),
		DataBits:    seriallink.ParseDataBits(v.GetString(KeyDataBits)),
		StopBits:    seriallink.ParseStopBits(v.GetString(KeyStopBits)),
		Parity:      seriallink.ParseParity(v.GetString(KeyParity)),
		FlowControl: seriallink.ParseFlowControl(v.GetString(KeyFlowControl)),
		BufferSize:  v.GetInt(KeyBufferSize),
		ManualRead:  v.GetBool(KeyManualRead),
		LogLevel:    v.GetString(KeyLogLevel),
		LogFormat:   v.GetString(KeyLogFormat),
	}
	if s.Transport == "" {
		s.Transport = TransportTermios
	}

	switch s.Transport {
	case TransportTermios, TransportBugst, TransportLoopback:
	default:
		return Settings{}, fmt.Errorf("unknown transport %q", s.Transport)
	}

	var err error
	if s.XON, err = ParseByte(v.GetString(KeyXON)); err != nil {
		return Settings{}, fmt.Errorf("invalid %s: %w", KeyXON, err)
	}
	if s.XOFF, err = ParseByte(v.GetString(KeyXOFF)); err != nil {
		return Settings{}, fmt.Errorf("invalid %s: %w", KeyXOFF, err)
	}
	if s.BufferSize <= 0 {
		s.BufferSize = seriallink.DefaultBufferSize
	}

	return s, nil
}

// Options converts s into link options for the named port.
func (s Settings) Options(port string, logger *slog.Logger) []seriallink.Option {
	return []seriallink.Option{
		seriallink.WithPortName(port),
		seriallink.WithBaudRate(s.BaudRate),
		seriallink.WithDataBits(s.DataBits),
		seriallink.WithStopBits(s.StopBits),
		seriallink.WithParity(s.Parity),
		seriallink.WithFlowControl(s.FlowControl),
		seriallink.WithControlBytes(s.XON, s.XOFF),
		seriallink.WithReadBufferSize(s.BufferSize),
		seriallink.WithAutoRead(!s.ManualRead),
		seriallink.WithLogger(logger),
	}
}

// ParseByte accepts decimal, 0x hex, 0o octal and single characters.
func ParseByte(s string) (byte, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 0, 8); err == nil {
		return byte(n), nil
	}
	if len(s) == 1 {
		return s[0], nil
	}
	return 0, fmt.Errorf("%q is not a byte", s)
}

func formatByte(b byte) string {
	return fmt.Sprintf("%#02x", b)
}
