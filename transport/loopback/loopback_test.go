package loopback

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	seriallink "github.com/allbin/go-seriallink"
)

func drain(p *Port) []seriallink.TransportEvent {
	var out []seriallink.TransportEvent
	for {
		select {
		case ev := <-p.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestEcho(t *testing.T) {
	p := New("loop0")
	require.NoError(t, p.Open(seriallink.ReadWrite))

	n, err := p.Write([]byte("ping"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	assert.Equal(t, []seriallink.TransportEvent{{Kind: seriallink.TransportDataArrived}}, drain(p))
	data, err := p.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []byte("ping"), data)
}

func TestPair(t *testing.T) {
	a, b := Pair("a", "b")
	require.NoError(t, a.Open(seriallink.ReadWrite))
	require.NoError(t, b.Open(seriallink.ReadWrite))

	_, err := a.Write([]byte("to b"))
	require.NoError(t, err)

	assert.Zero(t, a.Buffered())
	assert.Equal(t, 4, b.Buffered())
	assert.Empty(t, drain(a))
	assert.Len(t, drain(b), 1)
}

func TestClosedPort(t *testing.T) {
	p := New("loop0")

	_, err := p.Write([]byte("x"))
	assert.ErrorIs(t, err, seriallink.ErrPortClosed)
	_, err = p.ReadAll()
	assert.ErrorIs(t, err, seriallink.ErrPortClosed)
	_, err = p.ReadySignal()
	assert.ErrorIs(t, err, seriallink.ErrPortClosed)

	p.Inject([]byte("lost"))
	p.SetReadySignal(false)
	p.RaiseError(errors.New("ignored"))
	assert.Empty(t, drain(p))
	assert.Zero(t, p.Buffered())
}

func TestCloseDiscardsQueuedEvents(t *testing.T) {
	p := New("loop0")
	require.NoError(t, p.Open(seriallink.ReadWrite))
	p.Inject([]byte("x"))

	require.NoError(t, p.Close())

	assert.Empty(t, drain(p))
	assert.False(t, p.IsOpen())
}

func TestReadOnly(t *testing.T) {
	p := New("loop0")
	require.NoError(t, p.Open(seriallink.ReadOnly))

	_, err := p.Write([]byte("x"))
	assert.ErrorIs(t, err, seriallink.ErrReadOnly)
}

func TestCapacityHoldsBackInput(t *testing.T) {
	p := New("loop0")
	require.NoError(t, p.Open(seriallink.ReadWrite))
	p.SetReadBufferCapacity(3)

	p.Inject([]byte("abcde"))
	p.Inject([]byte("f"))
	drain(p)

	data, err := p.ReadAvailable(10)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)
	assert.Equal(t, []seriallink.TransportEvent{{Kind: seriallink.TransportDataArrived}}, drain(p),
		"input moved out of the backlog is announced")

	data, err = p.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []byte("def"), data)

	p.Inject([]byte("gh"))
	require.NoError(t, p.Clear())
	assert.Zero(t, p.Buffered())
}

func TestLines(t *testing.T) {
	p := New("loop0", WithLines(seriallink.SignalDSR))
	require.NoError(t, p.Open(seriallink.ReadWrite))

	ready, err := p.ReadySignal()
	require.NoError(t, err)
	assert.False(t, ready)

	p.SetReadySignal(true)
	p.SetReadySignal(true)
	p.SetLine(seriallink.SignalDSR, false)

	assert.Equal(t, []seriallink.TransportEvent{
		{Kind: seriallink.TransportLineSignalChanged, Signal: seriallink.SignalCTS, State: true},
		{Kind: seriallink.TransportLineSignalChanged, Signal: seriallink.SignalDSR, State: false},
	}, drain(p))

	ready, err = p.ReadySignal()
	require.NoError(t, err)
	assert.True(t, ready)
}

func TestFailureHooks(t *testing.T) {
	p := New("loop0")
	boom := errors.New("boom")

	p.FailOpen(boom)
	assert.ErrorIs(t, p.Open(seriallink.ReadWrite), boom)
	p.FailOpen(nil)
	require.NoError(t, p.Open(seriallink.ReadWrite))

	p.FailWrite(boom)
	_, err := p.Write([]byte("x"))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, p.Sent())

	p.FailWrite(nil)
	p.SetWriteLimit(1)
	n, err := p.Write([]byte("xyz"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []byte("x"), p.Sent())

	p.RaiseError(boom)
	events := drain(p)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, seriallink.TransportError, last.Kind)
	assert.ErrorIs(t, last.Err, boom)
}

func TestWithBaudRates(t *testing.T) {
	p := New("loop0", WithBaudRates(seriallink.Baud9600, seriallink.Baud19200))

	assert.NoError(t, p.SetBaudRate(seriallink.Baud19200))
	assert.ErrorIs(t, p.SetBaudRate(seriallink.Baud38400), seriallink.ErrUnsupported)
	assert.Equal(t, seriallink.Baud19200, p.BaudRate())
	assert.Equal(t, "loop0", p.PortName())
}
