package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists the table controls. Bindings are enabled and disabled as the
// round moves, so the help line only offers what can be done right now.
type keyMap struct {
	Hit     key.Binding
	Stand   key.Binding
	Double  key.Binding
	Deal    key.Binding
	BetDown key.Binding
	BetUp   key.Binding
	Quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Hit:     key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hit")),
		Stand:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stand")),
		Double:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "double")),
		Deal:    key.NewBinding(key.WithKeys("n", "enter"), key.WithHelp("n/enter", "deal")),
		BetDown: key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "lower bet")),
		BetUp:   key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "raise bet")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Hit, k.Stand, k.Double, k.Deal, k.BetDown, k.BetUp, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Hit, k.Stand, k.Double}, {k.Deal, k.BetDown, k.BetUp}, {k.Quit}}
}
