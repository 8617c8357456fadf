package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const labelWidth = 12

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldSecret
	fieldArea
	fieldChoice
	fieldBool
)

type field struct {
	key     string
	label   string
	kind    fieldKind
	input   textinput.Model
	area    textarea.Model
	choices []string
	choice  int
	on      bool
}

func newInput(value, placeholder string) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.CharLimit = 2000
	in.Width = 40
	in.Cursor.SetMode(cursor.CursorStatic)
	in.SetValue(value)
	return in
}

func textField(key, label, value, placeholder string) *field {
	return &field{key: key, label: label, kind: fieldText, input: newInput(value, placeholder)}
}

// areaField is a multi-line field; enter inserts a newline.
func areaField(key, label, value string) *field {
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 20000
	ta.SetWidth(48)
	ta.SetHeight(6)
	ta.Cursor.SetMode(cursor.CursorStatic)
	ta.SetValue(value)
	ta.Blur()
	return &field{key: key, label: label, kind: fieldArea, area: ta}
}

func secretField(key, label string) *field {
	in := newInput("", "")
	in.EchoMode = textinput.EchoPassword
	in.EchoCharacter = '•'
	return &field{key: key, label: label, kind: fieldSecret, input: in}
}

func choiceField(key, label string, choices []string, value string) *field {
	f := &field{key: key, label: label, kind: fieldChoice, choices: choices}
	for i, c := range choices {
		if c == value {
			f.choice = i
		}
	}
	return f
}

func boolField(key, label string, on bool) *field {
	return &field{key: key, label: label, kind: fieldBool, on: on}
}

func (f *field) editable() bool {
	return f.kind == fieldText || f.kind == fieldSecret || f.kind == fieldArea
}

func (f *field) focus() tea.Cmd {
	if f.kind == fieldArea {
		return f.area.Focus()
	}
	return f.input.Focus()
}

func (f *field) blur() {
	if f.kind == fieldArea {
		f.area.Blur()
		return
	}
	f.input.Blur()
}

// form is a modal made of labelled fields. Enter on the last field or
// ctrl+s submits; esc cancels.
type form struct {
	title  string
	fields []*field
	focus  int
	err    string
	busy   bool
}

func newForm(title string, fields ...*field) *form {
	f := &form{title: title, fields: fields}
	f.setFocus(0)
	return f
}

func (f *form) field(key string) *field {
	for _, fl := range f.fields {
		if fl.key == key {
			return fl
		}
	}
	return nil
}

// value returns a text field's contents or a choice field's selection.
func (f *form) value(key string) string {
	fl := f.field(key)
	if fl == nil {
		return ""
	}
	switch fl.kind {
	case fieldChoice:
		return fl.choices[fl.choice]
	case fieldBool:
		if fl.on {
			return "yes"
		}
		return "no"
	case fieldArea:
		return fl.area.Value()
	}
	return fl.input.Value()
}

func (f *form) checked(key string) bool {
	fl := f.field(key)
	return fl != nil && fl.on
}

func (f *form) setFocus(i int) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	i = (i + len(f.fields)) % len(f.fields)
	f.focus = i
	var cmd tea.Cmd
	for j, fl := range f.fields {
		if !fl.editable() {
			continue
		}
		if j == i {
			cmd = fl.focus()
		} else {
			fl.blur()
		}
	}
	return cmd
}

// update handles a key and reports whether the form was submitted or
// cancelled.
func (f *form) update(msg tea.KeyMsg) (submit, cancel bool, cmd tea.Cmd) {
	if f.busy {
		return false, msg.String() == "esc", nil
	}
	inArea := f.fields[f.focus].kind == fieldArea
	switch msg.String() {
	case "esc":
		return false, true, nil
	case "ctrl+s":
		return true, false, nil
	case "tab":
		return false, false, f.setFocus(f.focus + 1)
	case "shift+tab":
		return false, false, f.setFocus(f.focus - 1)
	case "down":
		if !inArea {
			return false, false, f.setFocus(f.focus + 1)
		}
	case "up":
		if !inArea {
			return false, false, f.setFocus(f.focus - 1)
		}
	case "enter":
		if inArea {
			break
		}
		if f.focus == len(f.fields)-1 {
			return true, false, nil
		}
		return false, false, f.setFocus(f.focus + 1)
	}

	fl := f.fields[f.focus]
	switch fl.kind {
	case fieldChoice:
		switch msg.String() {
		case "left", "h":
			fl.choice = (fl.choice + len(fl.choices) - 1) % len(fl.choices)
		case "right", "l", " ":
			fl.choice = (fl.choice + 1) % len(fl.choices)
		}
	case fieldBool:
		switch msg.String() {
		case " ", "left", "right", "h", "l", "y", "n":
			fl.on = !fl.on
		}
	case fieldArea:
		f.err = ""
		fl.area, cmd = fl.area.Update(msg)
	default:
		f.err = ""
		fl.input, cmd = fl.input.Update(msg)
	}
	return false, false, cmd
}

func (f *form) view(st styles, width int) string {
	var b strings.Builder
	b.WriteString(st.modalTitle.Render(f.title))
	b.WriteString("\n")
	for i, fl := range f.fields {
		label := st.label
		if i == f.focus {
			label = st.labelFocus
		}
		var val string
		switch fl.kind {
		case fieldChoice:
			parts := make([]string, len(fl.choices))
			for j, c := range fl.choices {
				if j == fl.choice {
					parts[j] = st.buttonFocus.Render(c)
				} else {
					parts[j] = st.button.Render(c)
				}
			}
			val = lipgloss.JoinHorizontal(lipgloss.Top, parts...)
		case fieldBool:
			box := "[ ]"
			if fl.on {
				box = "[x]"
			}
			val = box
		case fieldArea:
			val = fl.area.View()
		default:
			val = fl.input.View()
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label.Render(fl.label), val))
		b.WriteString("\n")
	}
	if f.err != "" {
		b.WriteString("\n" + st.err.Render(f.err) + "\n")
	}
	hint := "tab: next   enter: save   ctrl+s: save   esc: cancel"
	if f.busy {
		hint = "saving…"
	}
	b.WriteString("\n" + st.muted.Render(hint))
	return st.modal.Width(modalWidth(width)).Render(b.String())
}

func modalWidth(width int) int {
	w := width - 8
	if w > 72 {
		w = 72
	}
	if w < 30 {
		w = 30
	}
	return w
}

// confirmModal asks a yes/no question. onYes runs when confirmed.
type confirmModal struct {
	prompt string
	yes    bool
	onYes  func() tea.Cmd
}

// update reports whether the modal is finished and the command to run.
func (c *confirmModal) update(msg tea.KeyMsg) (done bool, cmd tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		return true, c.onYes()
	case "n", "N", "esc", "q":
		return true, nil
	case "tab", "left", "right", "h", "l":
		c.yes = !c.yes
	case "enter":
		if c.yes {
			return true, c.onYes()
		}
		return true, nil
	}
	return false, nil
}

func (c *confirmModal) view(st styles, width int) string {
	yes, no := st.button.Render("Delete"), st.button.Render("Cancel")
	if c.yes {
		yes = st.buttonFocus.Render("Delete")
	} else {
		no = st.buttonFocus.Render("Cancel")
	}
	body := strings.Join([]string{
		st.modalTitle.Render(c.prompt),
		lipgloss.JoinHorizontal(lipgloss.Top, yes, " ", no),
		"",
		st.muted.Render("y: delete   n/esc: cancel   tab: focus"),
	}, "\n")
	return st.modal.Width(modalWidth(width)).Render(body)
}
