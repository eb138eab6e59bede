package models

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	seriallink "github.com/allbin/go-seriallink"
	"github.com/allbin/go-seriallink/internal/tui/components"
	"github.com/allbin/go-seriallink/transport/loopback"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newModel(t *testing.T, port *loopback.Port, opts ...seriallink.Option) (*LinkModel, *seriallink.Link) {
	t.Helper()
	link, err := seriallink.New(port, opts...)
	require.NoError(t, err)

	m := NewLinkModel(link, port.Events(), seriallink.ReadWrite, false)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m.Update(openMsg{})
	require.True(t, link.IsOpen())
	return m, link
}

// pump feeds queued transport events to the model.
func pump(m *LinkModel, port *loopback.Port) {
	for {
		select {
		case ev := <-port.Events():
			m.Update(transportMsg(ev))
		default:
			return
		}
	}
}

func kinds(m *LinkModel) []components.EntryKind {
	var out []components.EntryKind
	for _, e := range m.Log().Entries() {
		out = append(out, e.Kind)
	}
	return out
}

func last(m *LinkModel) components.Entry {
	entries := m.Log().Entries()
	return entries[len(entries)-1]
}

func TestSendAndEcho(t *testing.T) {
	port := loopback.New("loop0")
	m, _ := newModel(t, port)

	m.Update(runes("i"))
	assert.Equal(t, InputModeInsert, m.inputMode)
	m.input.SetValue("ping")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []byte("ping"), port.Sent())
	assert.Empty(t, m.input.Value())

	pump(m, port)
	assert.Contains(t, kinds(m), components.EntryTX)
	rx := last(m)
	assert.Equal(t, components.EntryRX, rx.Kind)
	assert.Equal(t, []byte("ping"), rx.Data)
	assert.Equal(t, int64(4), m.status.BytesRead)
	assert.Contains(t, m.View(), "READY")
}

func TestInvalidHexIsNotSent(t *testing.T) {
	port := loopback.New("loop0")
	m, _ := newModel(t, port)

	m.Update(runes("i"))
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.input.SetValue("abc")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, port.Sent())
	assert.Equal(t, components.EntryError, last(m).Kind)
	assert.Equal(t, "abc", m.input.Value())
}

func TestBlockedPeerKeepsMessage(t *testing.T) {
	port := loopback.New("loop0", loopback.WithLines(seriallink.SignalDSR))
	m, link := newModel(t, port, seriallink.WithFlowControl(seriallink.FlowControlHardware))
	assert.False(t, link.IsReady())

	m.Update(runes("i"))
	m.input.SetValue("wait")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, port.Sent())
	assert.Equal(t, "wait", m.input.Value())

	port.SetReadySignal(true)
	pump(m, port)
	assert.Equal(t, "peer is ready", last(m).Text)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []byte("wait"), port.Sent())
}

func TestManualRead(t *testing.T) {
	port := loopback.New("loop0")
	m, link := newModel(t, port)

	m.Update(runes("m"))
	assert.False(t, link.Config().AutoRead)

	port.Inject([]byte("data"))
	pump(m, port)
	assert.Equal(t, "data available, press r to read", last(m).Text)

	m.Update(runes("r"))
	assert.Equal(t, []byte("data"), last(m).Data)

	m.Update(runes("r"))
	assert.Equal(t, "nothing buffered", last(m).Text)
}

func TestReopenAndQuit(t *testing.T) {
	port := loopback.New("loop0")
	m, link := newModel(t, port)

	m.Update(runes("o"))
	assert.False(t, link.IsOpen())
	assert.Equal(t, "closed loop0", last(m).Text)
	assert.Contains(t, m.View(), "CLOSED")

	m.Update(runes("o"))
	assert.True(t, link.IsOpen())

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.False(t, link.IsOpen())
}

func TestOpenFailureIsLogged(t *testing.T) {
	port := loopback.New("loop0")
	port.FailOpen(seriallink.ErrDeviceNotFound)
	link, err := seriallink.New(port)
	require.NoError(t, err)

	m := NewLinkModel(link, port.Events(), seriallink.ReadWrite, false)
	m.Update(openMsg{})

	assert.False(t, link.IsOpen())
	assert.Equal(t, components.EntryError, last(m).Kind)
	assert.Contains(t, m.View(), "FAILED")
}
