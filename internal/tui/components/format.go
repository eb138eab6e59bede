package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-seriallink/internal/tui/colors"
)

// EntryKind classifies a line in the event log.
type EntryKind int

const (
	EntryRX EntryKind = iota
	EntryTX
	EntryEvent
	EntryError
)

// Entry is one line in the event log. Data is set for EntryRX and EntryTX,
// Text for the others.
type Entry struct {
	Time time.Time
	Kind EntryKind
	Data []byte
	Text string
}

type DisplayMode struct {
	ShowHex   bool
	ShowASCII bool
}

// Formatter renders entries according to a DisplayMode.
type Formatter struct {
	mode DisplayMode
}

func NewFormatter(showHex, showASCII bool) *Formatter {
	return &Formatter{mode: DisplayMode{ShowHex: showHex, ShowASCII: showASCII}}
}

func (f *Formatter) Mode() DisplayMode {
	return f.mode
}

func (f *Formatter) ToggleHex() {
	f.mode.ShowHex = !f.mode.ShowHex
}

func (f *Formatter) ToggleASCII() {
	f.mode.ShowASCII = !f.mode.ShowASCII
}

var (
	timeStyle  = lipgloss.NewStyle().Foreground(colors.Subtext0)
	rxStyle    = lipgloss.NewStyle().Foreground(colors.Inbound).Bold(true)
	txStyle    = lipgloss.NewStyle().Foreground(colors.Outbound).Bold(true)
	eventStyle = lipgloss.NewStyle().Foreground(colors.Notice)
	errStyle   = lipgloss.NewStyle().Foreground(colors.Red).Bold(true)
)

// Format renders e as a single line.
func (f *Formatter) Format(e Entry) string {
	ts := timeStyle.Render("[" + e.Time.Format("15:04:05.000") + "]")

	switch e.Kind {
	case EntryRX:
		return fmt.Sprintf("%s %s %s", ts, rxStyle.Render("↙ RX"), f.payload(e.Data))
	case EntryTX:
		return fmt.Sprintf("%s %s %s", ts, txStyle.Render("↗ TX"), f.payload(e.Data))
	case EntryError:
		return fmt.Sprintf("%s %s %s", ts, errStyle.Render("✗   "), e.Text)
	default:
		return fmt.Sprintf("%s %s %s", ts, eventStyle.Render("•   "), eventStyle.Render(e.Text))
	}
}

func (f *Formatter) payload(data []byte) string {
	var parts []string
	if f.mode.ShowHex {
		parts = append(parts, "HEX: "+Hex(data))
	}
	if f.mode.ShowASCII {
		parts = append(parts, "ASCII: "+Printable(data))
	}
	if len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("BYTES: %d", len(data)))
	}
	return strings.Join(parts, "  ")
}
