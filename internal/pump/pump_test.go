package pump

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	seriallink "github.com/allbin/go-seriallink"
)

func TestBufferPutRespectsCapacity(t *testing.T) {
	b := NewBuffer(4)

	assert.Equal(t, 4, b.Put([]byte("abcdef")))
	assert.Equal(t, 0, b.Put([]byte("g")))
	assert.Equal(t, []byte("ab"), b.Take(2))
	assert.Equal(t, 2, b.Put([]byte("gh")))
	assert.Equal(t, []byte("cdgh"), b.Take(-1))
	assert.Nil(t, b.Take(-1))
}

func TestBufferUnbounded(t *testing.T) {
	b := NewBuffer(0)
	data := bytes.Repeat([]byte{0x55}, 10000)

	assert.Equal(t, len(data), b.Put(data))
	assert.Equal(t, len(data), b.Len())
}

func TestBufferPutWaitBlocksUntilTake(t *testing.T) {
	b := NewBuffer(2)
	done := make(chan error, 1)

	go func() {
		done <- b.PutWait([]byte("abcd"))
	}()

	var got []byte
	deadline := time.After(2 * time.Second)
	for len(got) < 4 {
		select {
		case <-deadline:
			t.Fatalf("only received %q", got)
		default:
		}
		got = append(got, b.Take(-1)...)
		time.Sleep(time.Millisecond)
	}

	assert.NoError(t, <-done)
	assert.Equal(t, []byte("abcd"), got)
}

func TestBufferCloseReleasesWriters(t *testing.T) {
	b := NewBuffer(1)
	require.Equal(t, 1, b.Put([]byte("x")))

	done := make(chan error, 1)
	go func() {
		done <- b.PutWait([]byte("y"))
	}()

	b.Close()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("PutWait did not return after Close")
	}

	assert.Zero(t, b.Put([]byte("z")))
	b.Reopen()
	assert.Zero(t, b.Len())
	assert.Equal(t, 1, b.Put([]byte("z")))
}

func TestBufferClearAndCapacity(t *testing.T) {
	b := NewBuffer(8)
	b.Put([]byte("abcdef"))
	b.SetCapacity(2)

	assert.Equal(t, 2, b.Capacity())
	assert.Zero(t, b.Put([]byte("g")))
	b.Clear()
	assert.Zero(t, b.Len())
	assert.Equal(t, 2, b.Put([]byte("ghi")))
}

func TestChanges(t *testing.T) {
	tests := []struct {
		name string
		prev seriallink.Signal
		cur  seriallink.Signal
		want []seriallink.TransportEvent
	}{
		{
			name: "No change",
			prev: seriallink.SignalCTS | seriallink.SignalDSR,
			cur:  seriallink.SignalCTS | seriallink.SignalDSR,
		},
		{
			name: "CTS raised",
			cur:  seriallink.SignalCTS,
			want: []seriallink.TransportEvent{
				{Kind: seriallink.TransportLineSignalChanged, Signal: seriallink.SignalCTS, State: true},
			},
		},
		{
			name: "Signal went low",
			prev: seriallink.SignalDCD,
			want: []seriallink.TransportEvent{
				{Kind: seriallink.TransportLineSignalChanged, Signal: seriallink.SignalDCD, State: false},
			},
		},
		{
			name: "Multiple signals in line order",
			prev: seriallink.SignalRI,
			cur:  seriallink.SignalDSR | seriallink.SignalCTS,
			want: []seriallink.TransportEvent{
				{Kind: seriallink.TransportLineSignalChanged, Signal: seriallink.SignalCTS, State: true},
				{Kind: seriallink.TransportLineSignalChanged, Signal: seriallink.SignalDSR, State: true},
				{Kind: seriallink.TransportLineSignalChanged, Signal: seriallink.SignalRI, State: false},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Changes(tt.prev, tt.cur))
		})
	}
}

// scriptedReader returns its chunks one per Read, then idles or fails.
type scriptedReader struct {
	mu     sync.Mutex
	chunks [][]byte
	err    error
}

func (r *scriptedReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}

func nextEvent(t *testing.T, events *Events) seriallink.TransportEvent {
	t.Helper()
	select {
	case ev := <-events.C():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
		return seriallink.TransportEvent{}
	}
}

func TestRead(t *testing.T) {
	src := &scriptedReader{chunks: [][]byte{[]byte("he"), []byte("llo")}, err: io.ErrUnexpectedEOF}
	buf := NewBuffer(0)
	events := NewEvents(DefaultEventQueue)
	stop := make(chan struct{})
	defer close(stop)

	done := make(chan struct{})
	go func() {
		Read(stop, src, buf, events)
		close(done)
	}()

	assert.Equal(t, seriallink.TransportDataArrived, nextEvent(t, events).Kind)
	assert.Equal(t, seriallink.TransportDataArrived, nextEvent(t, events).Kind)
	ev := nextEvent(t, events)
	assert.Equal(t, seriallink.TransportError, ev.Kind)
	assert.ErrorIs(t, ev.Err, io.ErrUnexpectedEOF)

	<-done
	assert.Equal(t, []byte("hello"), buf.Take(-1))
}

func TestReadStops(t *testing.T) {
	src := &scriptedReader{}
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		Read(stop, src, NewBuffer(0), NewEvents(1))
		close(done)
	}()

	close(stop)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not stop")
	}
}

func TestWatchSignals(t *testing.T) {
	var mu sync.Mutex
	lines := seriallink.SignalCTS
	sample := func() (seriallink.Signal, error) {
		mu.Lock()
		defer mu.Unlock()
		return lines, nil
	}

	events := NewEvents(DefaultEventQueue)
	stop := make(chan struct{})
	defer close(stop)
	go WatchSignals(stop, time.Millisecond, sample, events)

	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	lines = seriallink.SignalDCD
	mu.Unlock()

	assert.Equal(t, seriallink.TransportEvent{Kind: seriallink.TransportLineSignalChanged, Signal: seriallink.SignalCTS, State: false}, nextEvent(t, events))
	assert.Equal(t, seriallink.TransportEvent{Kind: seriallink.TransportLineSignalChanged, Signal: seriallink.SignalDCD, State: true}, nextEvent(t, events))
}

func TestWatchSignalsWithoutModemLines(t *testing.T) {
	events := NewEvents(1)
	done := make(chan struct{})
	go func() {
		WatchSignals(make(chan struct{}), time.Millisecond, func() (seriallink.Signal, error) {
			return 0, errors.New("inappropriate ioctl for device")
		}, events)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not exit")
	}
	select {
	case ev := <-events.C():
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestLine(t *testing.T) {
	var applied []Settings
	l := NewLine(DefaultSettings("tty0"), func(s Settings) error {
		if s.StopBits == seriallink.StopBitsOneAndHalf {
			return seriallink.ErrUnsupported
		}
		return nil
	})

	require.NoError(t, l.SetParity(seriallink.ParityMark))
	assert.ErrorIs(t, l.SetStopBits(seriallink.StopBitsOneAndHalf), seriallink.ErrUnsupported)
	assert.ErrorIs(t, l.SetFlowControl(seriallink.FlowControlUnknown), seriallink.ErrUnsupported)
	assert.Equal(t, seriallink.StopBitsOne, l.StopBits())
	assert.Equal(t, seriallink.FlowControlNone, l.FlowControl())

	l.Attach(func(s Settings) error {
		applied = append(applied, s)
		if s.BaudRate == seriallink.Baud1200 {
			return errors.New("driver refused")
		}
		return nil
	})
	require.NoError(t, l.SetBaudRate(seriallink.Baud115200))
	assert.Error(t, l.SetBaudRate(seriallink.Baud1200))
	assert.Equal(t, seriallink.Baud115200, l.BaudRate())
	assert.Len(t, applied, 2)

	assert.ErrorIs(t, l.SetPortName("tty1"), ErrPortOpen)
	l.Attach(nil)
	require.NoError(t, l.SetPortName("tty1"))
	assert.Equal(t, "tty1", l.PortName())
}
