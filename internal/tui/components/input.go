package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-seriallink/internal/tui/colors"
	"github.com/allbin/go-seriallink/internal/tui/styles"
)

type SendingMode int

const (
	SendingModeASCII SendingMode = iota
	SendingModeHex
)

func (s SendingMode) String() string {
	if s == SendingModeHex {
		return "HEX"
	}
	return "ASCII"
}

const (
	asciiPlaceholder = "Type message and press Enter to send..."
	hexPlaceholder   = "Enter hex (e.g. 48656C6C6F or 48 65 6C 6C 6F)..."
	maxHistory       = 100
)

type Input struct {
	textInput    textinput.Model
	sendingMode  SendingMode
	newline      bool
	history      []string
	historyIndex int
	draft        string
	width        int
}

// NewInput returns an ASCII input. newline appends "\n" to ASCII payloads.
func NewInput(newline bool) *Input {
	ti := textinput.New()
	ti.Placeholder = asciiPlaceholder
	ti.CharLimit = 512
	ti.Prompt = ""

	return &Input{
		textInput:    ti,
		newline:      newline,
		historyIndex: -1,
	}
}

func (i *Input) SetWidth(width int) {
	i.width = width
	// border, padding, prompt and a space
	usable := width - 6
	if usable < 20 {
		usable = 20
	}
	i.textInput.Width = usable
}

func (i *Input) Focus() tea.Cmd {
	return i.textInput.Focus()
}

func (i *Input) Blur() {
	i.textInput.Blur()
}

func (i *Input) Value() string {
	return i.textInput.Value()
}

func (i *Input) SetValue(value string) {
	i.textInput.SetValue(value)
}

func (i *Input) Mode() SendingMode {
	return i.sendingMode
}

func (i *Input) ToggleSendingMode() {
	if i.sendingMode == SendingModeASCII {
		i.sendingMode = SendingModeHex
		i.textInput.Placeholder = hexPlaceholder
		return
	}
	i.sendingMode = SendingModeASCII
	i.textInput.Placeholder = asciiPlaceholder
}

// Payload converts the current value to the bytes to send.
func (i *Input) Payload() ([]byte, error) {
	value := i.textInput.Value()
	if i.sendingMode == SendingModeHex {
		return ParseHex(value)
	}
	if i.newline {
		value += "\n"
	}
	return []byte(value), nil
}

func (i *Input) Update(msg tea.Msg) (*Input, tea.Cmd) {
	var cmd tea.Cmd
	i.textInput, cmd = i.textInput.Update(msg)
	return i, cmd
}

func (i *Input) View(insert bool) string {
	symbol, color := ">", colors.Green
	if i.sendingMode == SendingModeHex {
		symbol, color = "#", colors.Yellow
	}
	prompt := lipgloss.NewStyle().Foreground(color).Bold(true).Render(symbol)

	content := styles.MutedStyle.Render("Press 'i' to enter insert mode")
	if insert {
		content = i.textInput.View()
	}

	width := i.width - 4
	if width < 10 {
		width = 10
	}
	style := styles.InputStyle.Width(width)
	if insert {
		style = style.BorderForeground(colors.Green)
	}
	return style.Render(lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", content))
}

// Remember adds value to the history unless it repeats the last entry.
func (i *Input) Remember(value string) {
	value = strings.TrimSpace(value)
	i.historyIndex = -1
	i.draft = ""
	if value == "" {
		return
	}
	if n := len(i.history); n > 0 && i.history[n-1] == value {
		return
	}
	i.history = append(i.history, value)
	if len(i.history) > maxHistory {
		i.history = i.history[1:]
	}
}

func (i *Input) HistoryUp() {
	if len(i.history) == 0 {
		return
	}
	if i.historyIndex == -1 {
		i.draft = i.textInput.Value()
		i.historyIndex = len(i.history) - 1
	} else if i.historyIndex > 0 {
		i.historyIndex--
	}
	i.textInput.SetValue(i.history[i.historyIndex])
}

func (i *Input) HistoryDown() {
	if i.historyIndex == -1 {
		return
	}
	if i.historyIndex < len(i.history)-1 {
		i.historyIndex++
		i.textInput.SetValue(i.history[i.historyIndex])
		return
	}
	i.historyIndex = -1
	i.textInput.SetValue(i.draft)
	i.draft = ""
}
