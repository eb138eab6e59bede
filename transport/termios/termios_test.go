package termios

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"

	seriallink "github.com/allbin/go-seriallink"
	"github.com/allbin/go-seriallink/internal/pump"
)

// TestLinesFromTIOCM tests the modem status conversion
func TestLinesFromTIOCM(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected seriallink.Signal
	}{
		{"None", 0, 0},
		{"CTS only", unix.TIOCM_CTS, seriallink.SignalCTS},
		{"DSR only", unix.TIOCM_DSR, seriallink.SignalDSR},
		{"RI only", unix.TIOCM_RI, seriallink.SignalRI},
		{"DCD only", unix.TIOCM_CAR, seriallink.SignalDCD},
		{"Outputs ignored", unix.TIOCM_RTS | unix.TIOCM_DTR, 0},
		{
			name:     "All inputs",
			status:   unix.TIOCM_CTS | unix.TIOCM_DSR | unix.TIOCM_RI | unix.TIOCM_CAR,
			expected: seriallink.SignalCTS | seriallink.SignalDSR | seriallink.SignalRI | seriallink.SignalDCD,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := linesFromTIOCM(tt.status)
			if result != tt.expected {
				t.Errorf("linesFromTIOCM(%#x) = %v, want %v", tt.status, result, tt.expected)
			}
		})
	}
}

func TestBaudConstant(t *testing.T) {
	for _, rate := range seriallink.BaudRates() {
		if _, err := baudConstant(rate); err != nil {
			t.Errorf("baudConstant(%d) failed: %v", rate, err)
		}
	}

	for _, rate := range []seriallink.BaudRate{0, -1, 9601, 250000} {
		_, err := baudConstant(rate)
		if !errors.Is(err, seriallink.ErrUnsupported) {
			t.Errorf("baudConstant(%d) error = %v, want %v", rate, err, seriallink.ErrUnsupported)
		}
	}
}

func TestControlFlags(t *testing.T) {
	base := pump.DefaultSettings("/dev/ttyS0")

	tests := []struct {
		name    string
		modify  func(*pump.Settings)
		set     uint32
		clear   uint32
		wantErr bool
	}{
		{
			name:  "Default 9600 8N1",
			set:   unix.B9600 | unix.CS8 | unix.CREAD | unix.CLOCAL,
			clear: unix.PARENB | unix.CSTOPB | unix.CRTSCTS,
		},
		{
			name:   "7E2",
			modify: func(s *pump.Settings) { s.DataBits = seriallink.DataBits7; s.Parity = seriallink.ParityEven; s.StopBits = seriallink.StopBitsTwo },
			set:    unix.CS7 | unix.PARENB | unix.CSTOPB,
			clear:  unix.PARODD,
		},
		{
			name:   "Odd parity",
			modify: func(s *pump.Settings) { s.Parity = seriallink.ParityOdd },
			set:    unix.PARENB | unix.PARODD,
			clear:  unix.CMSPAR,
		},
		{
			name:   "Mark parity",
			modify: func(s *pump.Settings) { s.Parity = seriallink.ParityMark },
			set:    unix.PARENB | unix.PARODD | unix.CMSPAR,
		},
		{
			name:   "Space parity",
			modify: func(s *pump.Settings) { s.Parity = seriallink.ParitySpace },
			set:    unix.PARENB | unix.CMSPAR,
			clear:  unix.PARODD,
		},
		{
			name:   "Hardware flow control",
			modify: func(s *pump.Settings) { s.FlowControl = seriallink.FlowControlHardware },
			set:    unix.CRTSCTS,
		},
		{
			name:   "Software flow control stays out of the driver",
			modify: func(s *pump.Settings) { s.FlowControl = seriallink.FlowControlSoftware },
			clear:  unix.CRTSCTS,
		},
		{
			name:    "One and a half stop bits",
			modify:  func(s *pump.Settings) { s.StopBits = seriallink.StopBitsOneAndHalf },
			wantErr: true,
		},
		{
			name:    "Unknown parity",
			modify:  func(s *pump.Settings) { s.Parity = seriallink.ParityUnknown },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			if tt.modify != nil {
				tt.modify(&s)
			}
			cflag, err := controlFlags(s)
			if (err != nil) != tt.wantErr {
				t.Fatalf("controlFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if cflag&tt.set != tt.set {
				t.Errorf("cflag %#x missing bits %#x", cflag, tt.set&^cflag)
			}
			if cflag&tt.clear != 0 {
				t.Errorf("cflag %#x has unexpected bits %#x", cflag, cflag&tt.clear)
			}
		})
	}
}

func TestCheckRejectsUnsupportedSettings(t *testing.T) {
	p := New("/dev/ttyS0")

	if err := p.SetStopBits(seriallink.StopBitsOneAndHalf); !errors.Is(err, seriallink.ErrUnsupported) {
		t.Errorf("SetStopBits(1.5) error = %v, want %v", err, seriallink.ErrUnsupported)
	}
	if p.StopBits() != seriallink.StopBitsOne {
		t.Errorf("StopBits = %v after rejected change, want 1", p.StopBits())
	}

	if err := p.SetBaudRate(12345); err == nil {
		t.Error("SetBaudRate(12345) succeeded, want error")
	}
	if p.BaudRate() != seriallink.DefaultBaudRate {
		t.Errorf("BaudRate = %v after rejected change, want %v", p.BaudRate(), seriallink.DefaultBaudRate)
	}

	if err := p.SetBaudRate(seriallink.Baud115200); err != nil {
		t.Errorf("SetBaudRate(115200) failed: %v", err)
	}
}

func TestOpenNonexistentDevice(t *testing.T) {
	p := New("/dev/ttyNONEXISTENT99")

	err := p.Open(seriallink.ReadWrite)
	if !errors.Is(err, seriallink.ErrDeviceNotFound) {
		t.Errorf("Open() error = %v, want %v", err, seriallink.ErrDeviceNotFound)
	}
	if p.IsOpen() {
		t.Error("port reports open after failed Open")
	}
}

// TestClosedPort tests that I/O on a closed port reports ErrPortClosed
func TestClosedPort(t *testing.T) {
	p := New("/dev/ttyS0")

	if _, err := p.Write([]byte("x")); err != seriallink.ErrPortClosed {
		t.Errorf("Write() error = %v, want %v", err, seriallink.ErrPortClosed)
	}
	if _, err := p.ReadAll(); err != seriallink.ErrPortClosed {
		t.Errorf("ReadAll() error = %v, want %v", err, seriallink.ErrPortClosed)
	}
	if _, err := p.ReadySignal(); err != seriallink.ErrPortClosed {
		t.Errorf("ReadySignal() error = %v, want %v", err, seriallink.ErrPortClosed)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() on closed port error = %v", err)
	}
}

func TestScanPorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"ttyUSB1", "ttyUSB0", "ttyS0", "ttyACM0", "tty1", "console", "ptmx", "ttyAMA0", "random"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	ports, err := scanPorts(dir, func(string) bool { return true })
	if err != nil {
		t.Fatalf("scanPorts failed: %v", err)
	}

	want := []string{"ttyACM0", "ttyAMA0", "ttyS0", "ttyUSB0", "ttyUSB1"}
	if len(ports) != len(want) {
		t.Fatalf("scanPorts returned %v, want %d ports", ports, len(want))
	}
	for i, name := range want {
		if ports[i] != filepath.Join(dir, name) {
			t.Errorf("ports[%d] = %s, want %s", i, ports[i], filepath.Join(dir, name))
		}
	}
}

func TestIsCharacterDevice(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"/dev/null", true},
		{"/dev/zero", true},
		{"/tmp", false},
		{"/nonexistent", false},
	}

	for _, test := range tests {
		result := isCharacterDevice(test.path)
		if result != test.expected {
			t.Errorf("isCharacterDevice(%s) = %v, expected %v", test.path, result, test.expected)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name        string
		kind        PortKind
		description string
	}{
		{"ttyUSB0", KindUSB, "USB Serial Port"},
		{"ttyACM0", KindUSB, "USB CDC/ACM Device"},
		{"ttyS0", KindStandard, "Standard Serial Port"},
		{"ttyAMA0", KindEmbedded, "ARM Serial Port"},
		{"ttymxc0", KindEmbedded, "i.MX Serial Port"},
		{"ttyO0", KindEmbedded, "OMAP Serial Port"},
		{"ttySAC0", KindEmbedded, "Samsung Serial Port"},
		{"ttyTHS0", KindEmbedded, "Tegra Serial Port"},
		{"unknown", KindStandard, "Serial Port"},
	}

	for _, test := range tests {
		info := describe("/dev/"+test.name, t.TempDir())
		if info.Kind != test.kind || info.Description != test.description {
			t.Errorf("describe(%s) = %v %q, expected %v %q", test.name, info.Kind, info.Description, test.kind, test.description)
		}
	}
}

func TestDescribeReadsUSBAttributes(t *testing.T) {
	sys := t.TempDir()

	// /sys/class/tty/ttyUSB0/device -> .../1-1/1-1:1.0/ttyUSB0
	usb := filepath.Join(sys, "devices", "1-1")
	iface := filepath.Join(usb, "1-1:1.0", "ttyUSB0")
	if err := os.MkdirAll(iface, 0o755); err != nil {
		t.Fatal(err)
	}
	attrs := map[string]string{
		"idVendor":  "0403\n",
		"idProduct": "6001\n",
		"serial":    "A50285BI\n",
		"product":   "FT232R USB UART\n",
	}
	for name, value := range attrs {
		if err := os.WriteFile(filepath.Join(usb, name), []byte(value), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	class := filepath.Join(sys, "class")
	if err := os.MkdirAll(filepath.Join(class, "ttyUSB0"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(iface, filepath.Join(class, "ttyUSB0", "device")); err != nil {
		t.Fatal(err)
	}

	info := describe("/dev/ttyUSB0", class)
	if info.VendorID != "0403" || info.ProductID != "6001" {
		t.Errorf("VID:PID = %s:%s, want 0403:6001", info.VendorID, info.ProductID)
	}
	if info.SerialNumber != "A50285BI" {
		t.Errorf("SerialNumber = %q, want A50285BI", info.SerialNumber)
	}
	if info.Product != "FT232R USB UART" {
		t.Errorf("Product = %q, want FT232R USB UART", info.Product)
	}
}

func TestGetPortInfoNotFound(t *testing.T) {
	if _, err := GetPortInfo("/dev/ttyNONEXISTENT99"); err != seriallink.ErrDeviceNotFound {
		t.Errorf("GetPortInfo() error = %v, want %v", err, seriallink.ErrDeviceNotFound)
	}
}
