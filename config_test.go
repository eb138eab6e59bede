package seriallink

import (
	"errors"
	"log/slog"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.BaudRate != 9600 {
		t.Errorf("Expected BaudRate 9600, got %d", config.BaudRate)
	}

	if config.DataBits != 8 {
		t.Errorf("Expected DataBits 8, got %d", config.DataBits)
	}

	if config.StopBits != StopBitsOne {
		t.Errorf("Expected StopBits 1, got %v", config.StopBits)
	}

	if config.Parity != ParityNone {
		t.Errorf("Expected Parity None, got %v", config.Parity)
	}

	if config.FlowControl != FlowControlNone {
		t.Errorf("Expected FlowControl None, got %v", config.FlowControl)
	}

	if config.XON != 0x11 || config.XOFF != 0x13 {
		t.Errorf("Expected XON/XOFF 0x11/0x13, got %#x/%#x", config.XON, config.XOFF)
	}

	if config.ReadBufferSize != 1024 {
		t.Errorf("Expected ReadBufferSize 1024, got %d", config.ReadBufferSize)
	}

	if !config.AutoRead {
		t.Error("Expected AutoRead enabled by default")
	}

	if got := config.Summary(); got != "9600 8N1" {
		t.Errorf("Expected summary 9600 8N1, got %s", got)
	}
}

func TestFunctionalOptions(t *testing.T) {
	config := DefaultConfig()
	logger := slog.Default()

	opts := []Option{
		WithPortName("/dev/ttyUSB0"),
		WithBaudRate(Baud115200),
		WithDataBits(DataBits7),
		WithStopBits(StopBitsTwo),
		WithParity(ParityEven),
		WithFlowControl(FlowControlSoftware),
		WithControlBytes(0x01, 0x02),
		WithReadBufferSize(4096),
		WithAutoRead(false),
		WithLogger(logger),
	}
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			t.Fatalf("option failed: %v", err)
		}
	}

	if config.PortName != "/dev/ttyUSB0" {
		t.Errorf("Expected PortName /dev/ttyUSB0, got %s", config.PortName)
	}
	if got := config.Summary(); got != "115200 7E2" {
		t.Errorf("Expected summary 115200 7E2, got %s", got)
	}
	if config.FlowControl != FlowControlSoftware {
		t.Errorf("Expected FlowControl Software, got %v", config.FlowControl)
	}
	if config.XON != 0x01 || config.XOFF != 0x02 {
		t.Errorf("Expected XON/XOFF 0x01/0x02, got %#x/%#x", config.XON, config.XOFF)
	}
	if config.ReadBufferSize != 4096 {
		t.Errorf("Expected ReadBufferSize 4096, got %d", config.ReadBufferSize)
	}
	if config.AutoRead {
		t.Error("Expected AutoRead disabled")
	}
	if config.Logger != logger {
		t.Error("Expected logger to be set")
	}
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
		want string
	}{
		{"Zero baud rate", WithBaudRate(0), "failed to set baud rate: 0"},
		{"Negative baud rate", WithBaudRate(-9600), "failed to set baud rate: -9600"},
		{"Four data bits", WithDataBits(4), "failed to set data bits: 4"},
		{"Nine data bits", WithDataBits(9), "failed to set data bits: 9"},
		{"Unknown stop bits", WithStopBits(StopBitsUnknown), "failed to set stop bits: Unknown"},
		{"Unknown parity", WithParity(ParityUnknown), "failed to set parity: Unknown"},
		{"Unknown flow control", WithFlowControl(FlowControlUnknown), "failed to set flow control: Unknown"},
		{"Equal control bytes", WithControlBytes(0x11, 0x11), "failed to set XON/XOFF symbols: 0x11/0x11"},
		{"Zero buffer size", WithReadBufferSize(0), "failed to set buffer size: 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			before := config
			err := tt.opt(&config)
			if !errors.Is(err, ErrConfigurationRejected) {
				t.Errorf("Expected ErrConfigurationRejected, got %v", err)
			}
			if err != nil && err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.want)
			}
			if config != before {
				t.Error("Rejected option modified the config")
			}
		})
	}
}
