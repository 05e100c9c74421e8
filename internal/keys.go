package gudgeontop

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	Help       key.Binding
	NextPage   key.Binding
	PrevPage   key.Binding
	GotoPage   key.Binding
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	Refresh    key.Binding
	NextGroup  key.Binding
	NextWindow key.Binding
	PrevWindow key.Binding
	Scope      key.Binding
	Search     key.Binding
	Clear      key.Binding
	NextRows   key.Binding
	PrevRows   key.Binding
	PageSize   key.Binding
	Auto       key.Binding
	Drill      key.Binding
	Cancel     key.Binding
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextPage, k.Left, k.NextTab, k.NextGroup, k.NextWindow, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextPage, k.PrevPage, k.GotoPage, k.Quit, k.Help},
		{k.Up, k.Down, k.Left, k.Right, k.NextTab, k.PrevTab},
		{k.NextGroup, k.NextWindow, k.PrevWindow, k.Scope, k.Refresh},
		{k.Search, k.Clear, k.NextRows, k.PrevRows, k.PageSize, k.Auto, k.Drill},
	}
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next page"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev page"),
	),
	GotoPage: key.NewBinding(
		key.WithKeys("1", "2", "3", "4"),
		key.WithHelp("1-4", "go to page"),
	),
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("↓/j", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("hjkl", "move"),
	),
	Right: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("→/l", "right"),
	),
	NextTab: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("[]", "switch tab"),
	),
	PrevTab: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "prev tab"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	NextGroup: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "metric group"),
	),
	NextWindow: key.NewBinding(
		key.WithKeys("w"),
		key.WithHelp("w", "window"),
	),
	PrevWindow: key.NewBinding(
		key.WithKeys("W"),
		key.WithHelp("W", "prev window"),
	),
	Scope: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "lifetime/session"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear search"),
	),
	NextRows: key.NewBinding(
		key.WithKeys("n", "pgdown"),
		key.WithHelp("n", "next rows"),
	),
	PrevRows: key.NewBinding(
		key.WithKeys("p", "pgup"),
		key.WithHelp("p", "prev rows"),
	),
	PageSize: key.NewBinding(
		key.WithKeys("z"),
		key.WithHelp("z", "page size"),
	),
	Auto: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "auto refresh"),
	),
	Drill: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "show in query log"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
}
