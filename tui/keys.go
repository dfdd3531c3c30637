package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	send    key.Binding
	refresh key.Binding
	quit    key.Binding
}

var keys = keyMap{
	send:    key.NewBinding(key.WithKeys("g", "enter"), key.WithHelp("g/enter", "gm")),
	refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}
