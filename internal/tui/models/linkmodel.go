package models

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	seriallink "github.com/allbin/go-seriallink"
	"github.com/allbin/go-seriallink/internal/tui/components"
	"github.com/allbin/go-seriallink/internal/tui/keys"
	"github.com/allbin/go-seriallink/internal/tui/styles"
)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	if m == InputModeInsert {
		return "INSERT"
	}
	return "NORMAL"
}

type openMsg struct{}

type transportMsg seriallink.TransportEvent

// LinkModel is the connect view. Every link call happens inside Update, so
// the link stays on the program goroutine. Transport events reach the link
// through a command that waits on the event channel.
type LinkModel struct {
	link   *seriallink.Link
	events <-chan seriallink.TransportEvent
	mode   seriallink.OpenMode
	now    func() time.Time

	log       *components.EventLog
	input     *components.Input
	statusBar *components.StatusBar
	help      help.Model
	keys      keys.LinkKeys

	inputMode   InputMode
	status      components.LinkStatus
	lastSent    []byte
	unsubscribe func()
}

// NewLinkModel builds the view for link. events must be the channel of the
// transport behind link. newline appends "\n" to ASCII messages.
func NewLinkModel(link *seriallink.Link, events <-chan seriallink.TransportEvent, mode seriallink.OpenMode, newline bool) *LinkModel {
	m := &LinkModel{
		link:      link,
		events:    events,
		mode:      mode,
		now:       time.Now,
		log:       components.NewEventLog(),
		input:     components.NewInput(newline),
		statusBar: components.NewStatusBar(),
		help:      help.New(),
		keys:      keys.NewLinkKeys(),
	}
	m.unsubscribe = link.Subscribe(m.record)
	m.refreshStatus()
	return m
}

func (m *LinkModel) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return openMsg{} },
		m.waitForEvent(),
	)
}

func (m *LinkModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return transportMsg(<-m.events)
	}
}

// record turns link events into log entries.
func (m *LinkModel) record(ev seriallink.Event) {
	entry := components.Entry{Time: m.now(), Kind: components.EntryEvent}

	switch ev.Kind {
	case seriallink.EventBytesRead:
		entry.Kind = components.EntryRX
		entry.Data = m.link.ReadBuffer()
	case seriallink.EventBytesWritten:
		entry.Kind = components.EntryTX
		entry.Data = m.lastSent[:min(ev.Count, len(m.lastSent))]
	case seriallink.EventError:
		entry.Kind = components.EntryError
		entry.Text = ev.Err.Error()
	case seriallink.EventReadyChanged:
		entry.Text = "peer is busy"
		if ev.State {
			entry.Text = "peer is ready"
		}
	case seriallink.EventXON:
		entry.Text = "XOFF received"
		if ev.State {
			entry.Text = "XON received"
		}
	case seriallink.EventLineSignal:
		entry.Text = fmt.Sprintf("%s %s", ev.Signal, onOff(ev.State))
	case seriallink.EventDataAvailable:
		entry.Text = "data available, press r to read"
	case seriallink.EventAfterOpen:
		entry.Text = fmt.Sprintf("opened %s (%s)", m.link.PortName(), m.mode)
	case seriallink.EventAfterClose:
		entry.Text = "closed " + m.link.PortName()
	default:
		return
	}

	m.log.Add(entry)
}

func onOff(state bool) string {
	if state {
		return "on"
	}
	return "off"
}

func (m *LinkModel) notice(text string) {
	m.log.Add(components.Entry{Time: m.now(), Kind: components.EntryEvent, Text: text})
}

func (m *LinkModel) failure(err error) {
	m.log.Add(components.Entry{Time: m.now(), Kind: components.EntryError, Text: err.Error()})
}

func (m *LinkModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case openMsg:
		if err := m.link.Open(m.mode); err != nil {
			m.failure(err)
		}

	case transportMsg:
		m.link.HandleEvent(seriallink.TransportEvent(msg))
		cmds = append(cmds, m.waitForEvent())

	case tea.KeyMsg:
		// ctrl+c quits from either mode, q only from normal mode
		if msg.Type == tea.KeyCtrlC || (m.inputMode == InputModeNormal && key.Matches(msg, m.keys.Quit)) {
			m.shutdown()
			return m, tea.Quit
		}
		if m.inputMode == InputModeInsert {
			cmds = append(cmds, m.insertKey(msg))
		} else {
			cmds = append(cmds, m.normalKey(msg))
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.log, cmd = m.log.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.refreshStatus()
	return m, tea.Batch(cmds...)
}

func (m *LinkModel) normalKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.InsertMode):
		m.inputMode = InputModeInsert
		return m.input.Focus()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Clear):
		m.log.Clear()
	case key.Matches(msg, m.keys.ToggleHex):
		m.log.ToggleHex()
	case key.Matches(msg, m.keys.ToggleASCII):
		m.log.ToggleASCII()
	case key.Matches(msg, m.keys.ToggleSendMode):
		m.input.ToggleSendingMode()
	case key.Matches(msg, m.keys.Read):
		m.read()
	case key.Matches(msg, m.keys.AutoRead):
		auto := !m.link.Config().AutoRead
		m.link.SetAutoRead(auto)
		if auto {
			m.notice("auto read on")
		} else {
			m.notice("auto read off")
		}
	case key.Matches(msg, m.keys.Reopen):
		m.toggleOpen()
	default:
		var cmd tea.Cmd
		m.log, cmd = m.log.Update(msg)
		return cmd
	}
	return nil
}

func (m *LinkModel) insertKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.inputMode = InputModeNormal
		m.input.Blur()
	case key.Matches(msg, m.keys.Enter):
		m.send()
	case key.Matches(msg, m.keys.Up):
		m.input.HistoryUp()
	case key.Matches(msg, m.keys.Down):
		m.input.HistoryDown()
	case key.Matches(msg, m.keys.ToggleSendMode):
		m.input.ToggleSendingMode()
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd
	}
	return nil
}

// send writes the input to the link. The message stays in the input when
// the peer is not ready or only part of it was accepted.
func (m *LinkModel) send() {
	value := m.input.Value()
	if value == "" {
		return
	}
	payload, err := m.input.Payload()
	if err != nil {
		m.failure(fmt.Errorf("invalid input: %w", err))
		return
	}
	if m.link.IsOpen() && !m.link.IsReady() {
		m.notice("peer is not ready, message kept")
		return
	}

	m.lastSent = payload
	n, err := m.link.Write(payload)
	if err != nil {
		m.failure(err)
		return
	}
	if n < len(payload) {
		m.notice(fmt.Sprintf("sent %d of %d bytes", n, len(payload)))
		return
	}

	m.input.Remember(value)
	m.input.SetValue("")
}

func (m *LinkModel) read() {
	data, err := m.link.Read(seriallink.All)
	switch {
	case err != nil:
		m.failure(err)
	case len(data) == 0:
		m.notice("nothing buffered")
	}
}

func (m *LinkModel) toggleOpen() {
	var err error
	if m.link.IsOpen() {
		err = m.link.Close()
	} else {
		err = m.link.Open(m.mode)
	}
	if err != nil {
		m.failure(err)
	}
}

func (m *LinkModel) shutdown() {
	m.unsubscribe()
	if err := m.link.Close(); err != nil {
		m.failure(err)
	}
}

func (m *LinkModel) resize(width, height int) {
	const (
		border    = 1
		inputArea = 3
		statusBar = 1
		helpLine  = 1
	)
	m.log.SetSize(width, height-border-inputArea-statusBar-helpLine)
	m.input.SetWidth(width)
	m.statusBar.SetWidth(width)
	m.help.Width = width
}

func (m *LinkModel) refreshStatus() {
	m.status = components.StatusSnapshot(m.link)
	m.status.Insert = m.inputMode == InputModeInsert
	m.status.SendingMode = m.input.Mode()
}

// Log exposes the event log for inspection.
func (m *LinkModel) Log() *components.EventLog {
	return m.log
}

func (m *LinkModel) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		styles.ContentBorderStyle.Render(m.log.View()),
		m.input.View(m.inputMode == InputModeInsert),
		m.statusBar.View(m.status),
		m.help.View(m.keys),
	)
}
