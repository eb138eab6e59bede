package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-seriallink/internal/tui/colors"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 1)

	MutedStyle = lipgloss.NewStyle().Foreground(colors.Overlay0)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red)

	InfoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Green)
)

// LinkState is what the status bar shows for a link.
type LinkState int

const (
	LinkClosed LinkState = iota
	LinkReady
	LinkBlocked
	LinkFailed
)

// StateOf derives the display state. A failure only shows while the link
// is closed; an open link reports its flow state.
func StateOf(open, ready bool, err error) LinkState {
	switch {
	case open && ready:
		return LinkReady
	case open:
		return LinkBlocked
	case err != nil:
		return LinkFailed
	default:
		return LinkClosed
	}
}

func (s LinkState) String() string {
	switch s {
	case LinkReady:
		return "READY"
	case LinkBlocked:
		return "BLOCKED"
	case LinkFailed:
		return "FAILED"
	default:
		return "CLOSED"
	}
}

// Indicator is the single glyph drawn next to the port name.
func (s LinkState) Indicator() string {
	switch s {
	case LinkReady:
		return "●"
	case LinkBlocked:
		return "◐"
	case LinkFailed:
		return "✗"
	default:
		return "○"
	}
}

func (s LinkState) Style() lipgloss.Style {
	switch s {
	case LinkReady:
		return lipgloss.NewStyle().Foreground(colors.Ready).Bold(true)
	case LinkBlocked:
		return lipgloss.NewStyle().Foreground(colors.Blocked).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(colors.Closed).Bold(true)
	}
}
