package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the review keyboard shortcuts.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Match   key.Binding
	NoMatch key.Binding
	Remove  key.Binding
	Note    key.Binding
	Submit  key.Binding
	Cancel  key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next"),
		),
		Match: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "confirm match"),
		),
		NoMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "confirm not-match"),
		),
		Remove: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "supersede"),
		),
		Note: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "add note"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "save note"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
