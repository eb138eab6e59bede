package keys

import "github.com/charmbracelet/bubbles/key"

// LinkKeys are the bindings of the connect view. Normal mode drives the
// link; insert mode edits the outgoing message.
type LinkKeys struct {
	Quit       key.Binding
	Help       key.Binding
	InsertMode key.Binding
	Escape     key.Binding

	Enter          key.Binding
	ToggleSendMode key.Binding
	Up             key.Binding
	Down           key.Binding

	Clear       key.Binding
	ToggleHex   key.Binding
	ToggleASCII key.Binding
	Read        key.Binding
	AutoRead    key.Binding
	Reopen      key.Binding
}

func NewLinkKeys() LinkKeys {
	return LinkKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		InsertMode: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "insert mode"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "normal mode"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send message"),
		),
		ToggleSendMode: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "ascii/hex"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "history back"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "history forward"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear log"),
		),
		ToggleHex: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "toggle hex"),
		),
		ToggleASCII: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle ascii"),
		),
		Read: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "read buffered data"),
		),
		AutoRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "auto/manual read"),
		),
		Reopen: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open/close port"),
		),
	}
}

func (k LinkKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.InsertMode, k.Read, k.Reopen, k.Quit}
}

func (k LinkKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.InsertMode, k.Escape, k.Enter, k.ToggleSendMode},
		{k.Up, k.Down, k.Clear, k.ToggleHex, k.ToggleASCII},
		{k.Read, k.AutoRead, k.Reopen},
		{k.Help, k.Quit},
	}
}
