package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the viewer's keyboard shortcuts. View state is only
// changed with the mouse.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
}

var DefaultKeyMap = KeyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "q"),
		key.WithHelp("q", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
}

// mouseHelp documents the mouse gestures in the help line
var mouseHelp = []key.Binding{
	key.NewBinding(key.WithKeys("wheel"), key.WithHelp("wheel", "zoom")),
	key.NewBinding(key.WithKeys("drag"), key.WithHelp("drag", "pan")),
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return append(append([]key.Binding{}, mouseHelp...), k.Quit, k.Help)
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{mouseHelp, {k.Quit, k.Help}}
}
