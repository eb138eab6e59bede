package seriallink

// OpenMode selects the access mode requested from a transport.
type OpenMode int

const (
	ReadWrite OpenMode = iota
	ReadOnly
)

func (m OpenMode) String() string {
	if m == ReadOnly {
		return "read-only"
	}
	return "read-write"
}

// Signal identifies a modem line.
type Signal int

const (
	SignalCTS Signal = 1 << iota // Clear To Send, the hardware ready line
	SignalDSR                    // Data Set Ready
	SignalRI                     // Ring Indicator
	SignalDCD                    // Data Carrier Detect
)

func (s Signal) String() string {
	switch s {
	case SignalCTS:
		return "CTS"
	case SignalDSR:
		return "DSR"
	case SignalRI:
		return "RI"
	case SignalDCD:
		return "DCD"
	default:
		return "Unknown"
	}
}

// TransportEventKind classifies events raised by a Transport.
type TransportEventKind int

const (
	TransportDataArrived TransportEventKind = iota
	TransportLineSignalChanged
	TransportError
)

// TransportEvent is delivered on Transport.Events.
type TransportEvent struct {
	Kind   TransportEventKind
	Signal Signal // TransportLineSignalChanged only
	State  bool   // new line state, TransportLineSignalChanged only
	Err    error  // TransportError only
}

// Transport is the platform serial I/O provider driven by a Link.
//
// Reads and writes never block waiting for the device: ReadAvailable and
// ReadAll return whatever is buffered, Write returns how much was accepted.
// Setters keep the previous value and return an error when the value is
// refused. Setters are accepted while closed and applied on Open.
//
// Events must be safe to receive from at any time; transports deliver events
// only while open and never close the channel.
type Transport interface {
	Open(mode OpenMode) error
	Close() error
	IsOpen() bool

	Write(p []byte) (int, error)
	ReadAvailable(max int) ([]byte, error)
	ReadAll() ([]byte, error)
	SetReadBufferCapacity(n int)
	Clear() error

	// ReadySignal samples the hardware ready line (CTS).
	ReadySignal() (bool, error)

	PortName() string
	SetPortName(name string) error
	BaudRate() BaudRate
	SetBaudRate(rate BaudRate) error
	DataBits() DataBits
	SetDataBits(bits DataBits) error
	StopBits() StopBits
	SetStopBits(bits StopBits) error
	Parity() Parity
	SetParity(parity Parity) error
	FlowControl() FlowControl
	SetFlowControl(fc FlowControl) error

	Events() <-chan TransportEvent
}
