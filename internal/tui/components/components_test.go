package components

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	seriallink "github.com/allbin/go-seriallink"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    []byte
		wantErr bool
	}{
		{"48656C6C6F", []byte("Hello"), false},
		{"48 65 6c 6c 6f", []byte("Hello"), false},
		{"0x11 0x13", []byte{0x11, 0x13}, false},
		{"11,13", []byte{0x11, 0x13}, false},
		{"", nil, true},
		{"123", nil, true},
		{"zz", nil, true},
	}

	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		assert.Equal(t, tt.wantErr, err != nil, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestPrintableAndHex(t *testing.T) {
	data := []byte{'O', 'K', '\r', '\n', 0x11}
	assert.Equal(t, "OK...", Printable(data))
	assert.Equal(t, "4F 4B 0D 0A 11", Hex(data))
}

func TestFormatterModes(t *testing.T) {
	f := NewFormatter(true, true)
	e := Entry{Time: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), Kind: EntryRX, Data: []byte("hi")}

	line := f.Format(e)
	assert.Contains(t, line, "03:04:05.000")
	assert.Contains(t, line, "HEX: 68 69")
	assert.Contains(t, line, "ASCII: hi")

	f.ToggleHex()
	f.ToggleASCII()
	assert.Equal(t, DisplayMode{}, f.Mode())
	assert.Contains(t, f.Format(e), "BYTES: 2")

	assert.Contains(t, f.Format(Entry{Kind: EntryError, Text: "port: port is not open"}), "port is not open")
}

func TestInputPayload(t *testing.T) {
	in := NewInput(true)
	in.SetValue("AT")

	payload, err := in.Payload()
	require.NoError(t, err)
	assert.Equal(t, []byte("AT\n"), payload)

	in.ToggleSendingMode()
	assert.Equal(t, SendingModeHex, in.Mode())
	in.SetValue("41 54")
	payload, err = in.Payload()
	require.NoError(t, err)
	assert.Equal(t, []byte("AT"), payload, "hex payloads get no newline")

	in.SetValue("4")
	_, err = in.Payload()
	assert.Error(t, err)
}

func TestInputHistory(t *testing.T) {
	in := NewInput(false)
	in.Remember("first")
	in.Remember("second")
	in.Remember("second")
	in.Remember("  ")

	in.SetValue("draft")
	in.HistoryUp()
	assert.Equal(t, "second", in.Value())
	in.HistoryUp()
	in.HistoryUp()
	assert.Equal(t, "first", in.Value())
	in.HistoryDown()
	assert.Equal(t, "second", in.Value())
	in.HistoryDown()
	assert.Equal(t, "draft", in.Value())
}

func TestEventLogIsBounded(t *testing.T) {
	log := NewEventLog()
	log.SetSize(80, 10)

	for i := 0; i < MaxLogEntries+5; i++ {
		log.Add(Entry{Kind: EntryEvent, Text: "tick"})
	}
	assert.Len(t, log.Entries(), MaxLogEntries)
	assert.NotEmpty(t, log.View())

	log.Clear()
	assert.Empty(t, log.Entries())
	assert.Contains(t, log.View(), "Waiting for data")
}

func TestDescribe(t *testing.T) {
	c := seriallink.DefaultConfig()
	assert.Equal(t, "9600 8N1 none auto", Describe(c))

	c.FlowControl = seriallink.FlowControlSoftware
	c.AutoRead = false
	assert.Equal(t, "9600 8N1 software manual xon=0x11 xoff=0x13", Describe(c))
}
