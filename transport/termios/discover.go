package termios

import (
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	seriallink "github.com/allbin/go-seriallink"
)

// PortKind groups serial devices by the hardware behind them.
type PortKind int

const (
	KindUSB PortKind = iota
	KindStandard
	KindEmbedded
)

func (k PortKind) String() string {
	switch k {
	case KindUSB:
		return "usb"
	case KindStandard:
		return "standard"
	case KindEmbedded:
		return "embedded"
	default:
		return "unknown"
	}
}

type deviceClass struct {
	pattern     *regexp.Regexp
	kind        PortKind
	description string
}

var deviceClasses = []deviceClass{
	{regexp.MustCompile(`^ttyUSB\d+$`), KindUSB, "USB Serial Port"},
	{regexp.MustCompile(`^ttyACM\d+$`), KindUSB, "USB CDC/ACM Device"},
	{regexp.MustCompile(`^ttyAMA\d+$`), KindEmbedded, "ARM Serial Port"},
	{regexp.MustCompile(`^ttymxc\d+$`), KindEmbedded, "i.MX Serial Port"},
	{regexp.MustCompile(`^ttySAC\d+$`), KindEmbedded, "Samsung Serial Port"},
	{regexp.MustCompile(`^ttyTHS\d+$`), KindEmbedded, "Tegra Serial Port"},
	{regexp.MustCompile(`^ttyO\d+$`), KindEmbedded, "OMAP Serial Port"},
	{regexp.MustCompile(`^ttyS\d+$`), KindStandard, "Standard Serial Port"},
}

func classify(name string) (deviceClass, bool) {
	for _, c := range deviceClasses {
		if c.pattern.MatchString(name) {
			return c, true
		}
	}
	return deviceClass{}, false
}

// PortInfo describes a serial device.
type PortInfo struct {
	Name         string
	Path         string
	Kind         PortKind
	Description  string
	VendorID     string
	ProductID    string
	SerialNumber string
	Product      string
}

const (
	devDir   = "/dev"
	sysClass = "/sys/class/tty"
)

// ListPorts returns the serial character devices under /dev, sorted.
// Virtual terminals and pseudo-terminals are not serial ports and never match.
func ListPorts() ([]string, error) {
	return scanPorts(devDir, isCharacterDevice)
}

func scanPorts(dir string, keep func(path string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var ports []string
	for _, entry := range entries {
		if _, ok := classify(entry.Name()); !ok {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if keep(path) {
			ports = append(ports, path)
		}
	}
	slices.Sort(ports)
	return ports, nil
}

func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// GetPortInfo describes the device at path. USB adapters are enriched with
// the vendor, product and serial attributes found in sysfs.
func GetPortInfo(path string) (*PortInfo, error) {
	if !isCharacterDevice(path) {
		return nil, seriallink.ErrDeviceNotFound
	}
	return describe(path, sysClass), nil
}

func describe(path, sysRoot string) *PortInfo {
	name := filepath.Base(path)
	info := &PortInfo{
		Name:        name,
		Path:        path,
		Kind:        KindStandard,
		Description: "Serial Port",
	}
	if c, ok := classify(name); ok {
		info.Kind = c.kind
		info.Description = c.description
	}
	if info.Kind == KindUSB {
		readUSBAttributes(info, filepath.Join(sysRoot, name, "device"))
	}
	return info
}

// readUSBAttributes walks up from the tty's device node until it reaches
// the USB device that carries idVendor.
func readUSBAttributes(info *PortInfo, dev string) {
	dir, err := filepath.EvalSymlinks(dev)
	if err != nil {
		return
	}
	for range 4 {
		if vendor, ok := readAttr(dir, "idVendor"); ok {
			info.VendorID = vendor
			info.ProductID, _ = readAttr(dir, "idProduct")
			info.SerialNumber, _ = readAttr(dir, "serial")
			info.Product, _ = readAttr(dir, "product")
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func readAttr(dir, name string) (string, bool) {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(b)), true
}
