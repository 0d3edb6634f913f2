package cli

import "github.com/charmbracelet/bubbles/key"

// exploreKeys are the explorer's key bindings.
type exploreKeys struct {
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Reset   key.Binding
	Focus   key.Binding
	Pan     [4]key.Binding // up, down, left, right
	Next    key.Binding
	Clear   key.Binding
	Auto    key.Binding
	More    key.Binding
	Fewer   key.Binding
	Theme   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultExploreKeys() exploreKeys {
	return exploreKeys{
		ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		Reset:   key.NewBinding(key.WithKeys("r", "0"), key.WithHelp("r", "reset")),
		Focus:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "focus")),
		Pan: [4]key.Binding{
			key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "pan up")),
			key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "pan down")),
			key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "pan left")),
			key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "pan right")),
		},
		Next:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next group")),
		Clear: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear selection")),
		Auto:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "auto groups")),
		More:  key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "more groups")),
		Fewer: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "fewer groups")),
		Theme: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k exploreKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.ZoomIn, k.ZoomOut, k.Focus, k.Next, k.Auto, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k exploreKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ZoomIn, k.ZoomOut, k.Reset, k.Focus},
		{k.Pan[0], k.Pan[1], k.Pan[2], k.Pan[3]},
		{k.Next, k.Clear, k.Auto, k.More, k.Fewer},
		{k.Theme, k.Help, k.Quit},
	}
}
