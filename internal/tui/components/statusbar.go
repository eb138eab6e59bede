package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	seriallink "github.com/allbin/go-seriallink"
	"github.com/allbin/go-seriallink/internal/tui/colors"
	"github.com/allbin/go-seriallink/internal/tui/styles"
)

// LinkStatus is the snapshot rendered by the status bar.
type LinkStatus struct {
	Port         string
	State        styles.LinkState
	Config       seriallink.Config
	BytesRead    int64
	BytesWritten int64
	Insert       bool
	SendingMode  SendingMode
}

// StatusSnapshot collects a LinkStatus from link.
func StatusSnapshot(link *seriallink.Link) LinkStatus {
	stats := link.Stats()
	return LinkStatus{
		Port:         link.PortName(),
		State:        styles.StateOf(link.IsOpen(), link.IsReady(), link.LastError()),
		Config:       link.Config(),
		BytesRead:    stats.BytesRead.Value(),
		BytesWritten: stats.BytesWritten.Value(),
	}
}

type StatusBar struct {
	width int
}

func NewStatusBar() *StatusBar {
	return &StatusBar{}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

// Describe is the line settings part of the bar, e.g. "9600 8N1 software auto".
func Describe(c seriallink.Config) string {
	read := "auto"
	if !c.AutoRead {
		read = "manual"
	}
	parts := []string{c.Summary(), strings.ToLower(c.FlowControl.String()), read}
	if c.FlowControl == seriallink.FlowControlSoftware {
		parts = append(parts, fmt.Sprintf("xon=%#02x xoff=%#02x", c.XON, c.XOFF))
	}
	return strings.Join(parts, " ")
}

func (sb *StatusBar) View(s LinkStatus) string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	modeText, modeColor := "NORMAL", colors.Blue
	if s.Insert {
		modeText, modeColor = "INSERT", colors.Green
	}
	mode := lipgloss.NewStyle().
		Foreground(colors.Base).
		Background(modeColor).
		Bold(true).
		Padding(0, 1).
		Render(modeText)

	port := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(s.Port)

	state := s.State.Style().Render(s.State.Indicator() + " " + s.State.String())

	divider := lipgloss.NewStyle().
		Foreground(colors.Surface2).
		Padding(0, 1).
		Render("│")

	left := []string{mode, port, state}
	if s.Insert {
		left = append(left, lipgloss.NewStyle().
			Foreground(colors.Peach).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("[%s] Tab to toggle", s.SendingMode)))
	}
	left = append(left, divider)
	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, left...)

	details := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1).
		Render("⚡ " + Describe(s.Config))
	counters := lipgloss.NewStyle().
		Foreground(colors.Subtext1).
		Padding(0, 1).
		Render(fmt.Sprintf("rx %d tx %d", s.BytesRead, s.BytesWritten))
	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, details, divider, counters)

	spacer := width - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if spacer < 1 {
		spacer = 1
	}

	return lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(width).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, strings.Repeat(" ", spacer), rightSide))
}
