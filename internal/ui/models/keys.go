package models

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the bindings of the keep selector
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	All       key.Binding
	None      key.Binding
	Accept    key.Binding
	KeepFirst key.Binding
	Skip      key.Binding
	Quit      key.Binding
	Help      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "space", "x"),
			key.WithHelp("space", "toggle keep"),
		),
		All: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "keep all"),
		),
		None: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "clear"),
		),
		Accept: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "accept"),
		),
		KeepFirst: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "keep first"),
		),
		Skip: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "skip group"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Accept, k.KeepFirst, k.Skip, k.Quit, k.Help}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle},
		{k.All, k.None, k.Accept},
		{k.KeepFirst, k.Skip, k.Quit, k.Help},
	}
}
