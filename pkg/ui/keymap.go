package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextSource key.Binding
	PrevSource key.Binding
	Next       key.Binding
	Prior      key.Binding
	First      key.Binding
	Last       key.Binding
	Reload     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// ShortHelp and FullHelp let the help bubble render the bindings.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prior, k.NextSource, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prior, k.First, k.Last},
		{k.NextSource, k.PrevSource, k.Reload},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	NextSource: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next relation"),
	),
	PrevSource: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous relation"),
	),
	Next: key.NewBinding(
		key.WithKeys("n", "down", "j"),
		key.WithHelp("↓/n", "next row"),
	),
	Prior: key.NewBinding(
		key.WithKeys("p", "up", "k"),
		key.WithHelp("↑/p", "prior row"),
	),
	First: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "before first"),
	),
	Last: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "after last"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "q"),
		key.WithHelp("q", "quit"),
	),
}
