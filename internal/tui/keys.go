package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Start   key.Binding
	End     key.Binding
	Pick    key.Binding
	Auto    key.Binding
	Offers  key.Binding
	Borrow  key.Binding
	Repay   key.Binding
	Attack  key.Binding
	Defend  key.Binding
	Special key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Start:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start day")),
		End:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "end day")),
		Pick:    key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "action / choice")),
		Auto:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "auto skills")),
		Offers:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "loan offers")),
		Borrow:  key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "take best offer")),
		Repay:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "repay 1000")),
		Attack:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "attack")),
		Defend:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "defend")),
		Special: key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "special")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Pick, k.End, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Pick, k.End},
		{k.Auto, k.Offers, k.Borrow, k.Repay},
		{k.Attack, k.Defend, k.Special},
		{k.Help, k.Quit},
	}
}
