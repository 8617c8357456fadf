package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Home      key.Binding
	Notes     key.Binding
	Bookmarks key.Binding
	Tasks     key.Binding
	Up        key.Binding
	Down      key.Binding
	Search    key.Binding
	Filter    key.Binding
	New       key.Binding
	Edit      key.Binding
	Delete    key.Binding
	Pin       key.Binding
	Toggle    key.Binding
	PrevPage  key.Binding
	NextPage  key.Binding
	FirstPage key.Binding
	LastPage  key.Binding
	Refresh   key.Binding
	Theme     key.Binding
	Logout    key.Binding
	Quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Home:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1-4", "screens")),
		Notes:     key.NewBinding(key.WithKeys("2")),
		Bookmarks: key.NewBinding(key.WithKeys("3")),
		Tasks:     key.NewBinding(key.WithKeys("4")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Filter:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		New:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Edit:      key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Pin:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pin")),
		Toggle:    key.NewBinding(key.WithKeys("x", " "), key.WithHelp("x", "done")),
		PrevPage:  key.NewBinding(key.WithKeys("["), key.WithHelp("[/]", "page")),
		NextPage:  key.NewBinding(key.WithKeys("]")),
		FirstPage: key.NewBinding(key.WithKeys("g"), key.WithHelp("g/G", "first/last")),
		LastPage:  key.NewBinding(key.WithKeys("G")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Theme:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		Logout:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// helpFor returns the footer bindings for s.
func (k keyMap) helpFor(s screen) []key.Binding {
	common := []key.Binding{k.Home, k.Theme, k.Logout, k.Quit}
	list := []key.Binding{k.Search, k.Filter, k.New, k.Edit, k.Delete}
	paging := []key.Binding{k.PrevPage, k.FirstPage}
	switch s {
	case screenNotes:
		return concat(list, []key.Binding{k.Pin}, paging, common)
	case screenBookmarks:
		return concat(list, paging, common)
	case screenTasks:
		return concat(list, []key.Binding{k.Toggle}, paging, common)
	case screenHome:
		return concat([]key.Binding{k.Refresh}, common)
	}
	return nil
}

func concat(groups ...[]key.Binding) []key.Binding {
	var out []key.Binding
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
