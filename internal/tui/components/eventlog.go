package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/allbin/go-seriallink/internal/tui/styles"
)

// MaxLogEntries bounds the event log; the oldest entries are dropped.
const MaxLogEntries = 1000

// EventLog is a scrolling view of link traffic and events. It follows the
// newest entry until the user scrolls up.
type EventLog struct {
	viewport  viewport.Model
	formatter *Formatter
	entries   []Entry
	ready     bool
	follow    bool
}

func NewEventLog() *EventLog {
	return &EventLog{
		formatter: NewFormatter(true, true),
		follow:    true,
	}
}

func (l *EventLog) SetSize(width, height int) {
	if height < 1 {
		height = 1
	}
	if !l.ready {
		l.viewport = viewport.New(width, height)
		l.viewport.MouseWheelEnabled = true
		l.ready = true
	} else {
		l.viewport.Width = width
		l.viewport.Height = height
	}
	l.refresh()
}

func (l *EventLog) Add(e Entry) {
	l.entries = append(l.entries, e)
	if len(l.entries) > MaxLogEntries {
		l.entries = l.entries[len(l.entries)-MaxLogEntries:]
	}
	l.refresh()
}

// Entries returns the retained entries, oldest first.
func (l *EventLog) Entries() []Entry {
	return l.entries
}

func (l *EventLog) Clear() {
	l.entries = nil
	l.refresh()
}

func (l *EventLog) ToggleHex() {
	l.formatter.ToggleHex()
	l.refresh()
}

func (l *EventLog) ToggleASCII() {
	l.formatter.ToggleASCII()
	l.refresh()
}

func (l *EventLog) Mode() DisplayMode {
	return l.formatter.Mode()
}

func (l *EventLog) Update(msg tea.Msg) (*EventLog, tea.Cmd) {
	if !l.ready {
		return l, nil
	}
	var cmd tea.Cmd
	l.viewport, cmd = l.viewport.Update(msg)
	l.follow = l.viewport.AtBottom()
	return l, cmd
}

func (l *EventLog) View() string {
	if !l.ready {
		return "Initializing..."
	}
	return l.viewport.View()
}

func (l *EventLog) refresh() {
	if !l.ready {
		return
	}
	if len(l.entries) == 0 {
		l.viewport.SetContent(styles.MutedStyle.Render("Waiting for data..."))
		return
	}

	lines := make([]string, len(l.entries))
	for i, e := range l.entries {
		lines[i] = l.formatter.Format(e)
	}
	l.viewport.SetContent(strings.Join(lines, "\n"))
	if l.follow {
		l.viewport.GotoBottom()
	}
}
