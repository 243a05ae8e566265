package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Toggle      key.Binding
	Fold        key.Binding
	Expand      key.Binding
	Collapse    key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	Add         key.Binding
	AddChild    key.Binding
	Delete      key.Binding
	Import      key.Binding
	Pick        key.Binding
	Cancel      key.Binding
	MoveUp      key.Binding
	MoveDown    key.Binding
	Refresh     key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Toggle:      key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "done/undone")),
		Fold:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "fold")),
		Expand:      key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l", "expand")),
		Collapse:    key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h", "collapse")),
		ExpandAll:   key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "expand all")),
		CollapseAll: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "collapse all")),
		Add:         key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		AddChild:    key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "add sub-item")),
		Delete:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Import:      key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "import lines")),
		Pick:        key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "pick up/drop")),
		Cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		MoveUp:      key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "move up")),
		MoveDown:    key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "move down")),
		Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Add, k.Delete, k.Pick, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Fold, k.Expand, k.Collapse},
		{k.ExpandAll, k.CollapseAll, k.Refresh},
		{k.Toggle, k.Add, k.AddChild, k.Delete, k.Import},
		{k.Pick, k.Cancel, k.MoveUp, k.MoveDown},
		{k.Help, k.Quit},
	}
}
