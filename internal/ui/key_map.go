package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	sync    key.Binding
	yes     key.Binding
	no      key.Binding
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		sync:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "sync")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:      key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "back to songs")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// forView returns the bindings shown in the help line of view.
func (k keyMap) forView(view ViewState) []key.Binding {
	switch view {
	case SongListView:
		return []key.Binding{k.up, k.down, k.sync, k.quit}
	case ConfirmView:
		return []key.Binding{k.yes, k.no}
	case ResultView:
		return []key.Binding{k.restart, k.quit}
	default:
		return []key.Binding{k.quit}
	}
}
