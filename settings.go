package seriallink

import (
	"strconv"
	"strings"
)

// BaudRate is a line speed in bits per second. BaudRateUnknown marks a value
// the transport could not report or refused.
type BaudRate int

const (
	BaudRateUnknown BaudRate = 0
	Baud1200        BaudRate = 1200
	Baud2400        BaudRate = 2400
	Baud4800        BaudRate = 4800
	Baud9600        BaudRate = 9600
	Baud19200       BaudRate = 19200
	Baud38400       BaudRate = 38400
	Baud57600       BaudRate = 57600
	Baud115200      BaudRate = 115200
)

// standardBaudRates lists every discrete rate a link accepts, ascending.
var standardBaudRates = []BaudRate{
	50, 75, 110, 134, 150, 200, 300, 600,
	1200, 1800, 2400, 4800, 9600, 19200, 38400, 57600,
	115200, 230400, 460800, 500000, 576000, 921600,
	1000000, 1152000, 1500000, 2000000, 2500000, 3000000, 3500000, 4000000,
}

// BaudRates returns the accepted baud rates in ascending order.
func BaudRates() []BaudRate {
	rates := make([]BaudRate, len(standardBaudRates))
	copy(rates, standardBaudRates)
	return rates
}

// IsStandard reports whether b is one of the accepted discrete rates.
func (b BaudRate) IsStandard() bool {
	for _, r := range standardBaudRates {
		if r == b {
			return true
		}
	}
	return false
}

func (b BaudRate) String() string {
	if b <= 0 {
		return "Unknown"
	}
	return strconv.Itoa(int(b))
}

// CanonicalBaudRate returns the accepted rate closest to n. Ties resolve to
// the lower rate; non-positive input resolves to the default rate.
func CanonicalBaudRate(n int) BaudRate {
	if n <= 0 {
		return DefaultBaudRate
	}
	best := standardBaudRates[0]
	bestDiff := absDiff(n, int(best))
	for _, r := range standardBaudRates[1:] {
		if d := absDiff(n, int(r)); d < bestDiff {
			best, bestDiff = r, d
		}
	}
	return best
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// ParseBaudRate parses a decimal baud rate. Unparsable or non-positive input
// yields DefaultBaudRate.
func ParseBaudRate(s string) BaudRate {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return DefaultBaudRate
	}
	return CanonicalBaudRate(n)
}

// DataBits is the number of data bits per character.
type DataBits int

const (
	DataBitsUnknown DataBits = 0
	DataBits5       DataBits = 5
	DataBits6       DataBits = 6
	DataBits7       DataBits = 7
	DataBits8       DataBits = 8
)

// DataBitsValues returns the accepted data bit counts.
func DataBitsValues() []DataBits {
	return []DataBits{DataBits5, DataBits6, DataBits7, DataBits8}
}

// Valid reports whether d is in [5, 8].
func (d DataBits) Valid() bool {
	return d >= DataBits5 && d <= DataBits8
}

func (d DataBits) String() string {
	if !d.Valid() {
		return "Unknown"
	}
	return strconv.Itoa(int(d))
}

// ParseDataBits parses a data bit count. Anything outside [5, 8] yields 8.
func ParseDataBits(s string) DataBits {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !DataBits(n).Valid() {
		return DataBits8
	}
	return DataBits(n)
}

// StopBits is the stop bit setting.
type StopBits int

const (
	StopBitsOne StopBits = iota
	StopBitsOneAndHalf
	StopBitsTwo
	StopBitsUnknown
)

// StopBitsValues returns the accepted stop bit settings.
func StopBitsValues() []StopBits {
	return []StopBits{StopBitsOne, StopBitsOneAndHalf, StopBitsTwo}
}

// Valid reports whether s is a known stop bit setting.
func (s StopBits) Valid() bool {
	return s >= StopBitsOne && s < StopBitsUnknown
}

func (s StopBits) String() string {
	switch s {
	case StopBitsOne:
		return "1"
	case StopBitsOneAndHalf:
		return "1.5"
	case StopBitsTwo:
		return "2"
	default:
		return "Unknown"
	}
}

// ParseStopBits parses "1", "1.5" (or "1,5") and "2", also accepting the
// spelled-out names. Anything else yields one stop bit.
func ParseStopBits(s string) StopBits {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "2" || strings.Contains(v, "two"):
		return StopBitsTwo
	case v == "1.5" || v == "1,5" || strings.Contains(v, "oneandhalf"):
		return StopBitsOneAndHalf
	default:
		return StopBitsOne
	}
}

// Parity is the parity mode.
type Parity int

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
	ParitySpace
	ParityMark
	ParityUnknown
)

// ParityValues returns the accepted parity modes.
func ParityValues() []Parity {
	return []Parity{ParityNone, ParityEven, ParityOdd, ParitySpace, ParityMark}
}

// Valid reports whether p is a known parity mode.
func (p Parity) Valid() bool {
	return p >= ParityNone && p < ParityUnknown
}

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "None"
	case ParityEven:
		return "Even"
	case ParityOdd:
		return "Odd"
	case ParitySpace:
		return "Space"
	case ParityMark:
		return "Mark"
	default:
		return "Unknown"
	}
}

// Letter returns the single-letter form used in "8N1" style summaries.
func (p Parity) Letter() string {
	switch p {
	case ParityEven:
		return "E"
	case ParityOdd:
		return "O"
	case ParitySpace:
		return "S"
	case ParityMark:
		return "M"
	default:
		return "N"
	}
}

// ParseParity matches parity names case-insensitively, including the
// single-letter forms. Anything unrecognized yields ParityNone.
func ParseParity(s string) Parity {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "e":
		return ParityEven
	case "o":
		return ParityOdd
	case "s":
		return ParitySpace
	case "m":
		return ParityMark
	}
	switch {
	case strings.Contains(v, "even"):
		return ParityEven
	case strings.Contains(v, "odd"):
		return ParityOdd
	case strings.Contains(v, "space"):
		return ParitySpace
	case strings.Contains(v, "mark"):
		return ParityMark
	default:
		return ParityNone
	}
}

// FlowControl represents the flow control mode
type FlowControl int

const (
	FlowControlNone FlowControl = iota
	FlowControlHardware
	FlowControlSoftware
	FlowControlUnknown
)

// FlowControlValues returns the accepted flow control modes.
func FlowControlValues() []FlowControl {
	return []FlowControl{FlowControlNone, FlowControlHardware, FlowControlSoftware}
}

// Valid reports whether fc is a known flow control mode.
func (fc FlowControl) Valid() bool {
	return fc >= FlowControlNone && fc < FlowControlUnknown
}

func (fc FlowControl) String() string {
	switch fc {
	case FlowControlNone:
		return "None"
	case FlowControlHardware:
		return "Hardware"
	case FlowControlSoftware:
		return "Software"
	default:
		return "Unknown"
	}
}

// ParseFlowControl accepts "hardware", "rtscts" and "cts" for hardware flow
// control and "software" or "xonxoff" for software flow control. Anything
// else yields FlowControlNone.
func ParseFlowControl(s string) FlowControl {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(v, "hardware"), v == "rtscts", v == "rts/cts", v == "cts":
		return FlowControlHardware
	case strings.Contains(v, "software"), strings.Contains(v, "xon"):
		return FlowControlSoftware
	default:
		return FlowControlNone
	}
}
