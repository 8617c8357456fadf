package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"stash/internal/service"
	"stash/internal/store"
)

var tabs = []screen{screenHome, screenNotes, screenBookmarks, screenTasks}

// previewLines caps the markdown preview under the notes list.
const previewLines = 12

func (m *Model) View() string {
	if m.modal != nil {
		return m.overlay(m.modal.view(m.st, m.width))
	}
	if m.confirm != nil {
		return m.overlay(m.confirm.view(m.st, m.width))
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	switch m.screen {
	case screenLogin:
		b.WriteString(m.authView())
	case screenHome:
		b.WriteString(m.homeView())
	case screenNotes:
		b.WriteString(m.notesView())
	case screenBookmarks:
		b.WriteString(m.bookmarksView())
	case screenTasks:
		b.WriteString(m.tasksView())
	}
	b.WriteString("\n")
	b.WriteString(m.statusView())
	if m.screen != screenLogin {
		b.WriteString("\n")
		b.WriteString(m.help.ShortHelpView(m.keys.helpFor(m.screen)))
	}
	return b.String()
}

func (m *Model) overlay(box string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) headerView() string {
	title := m.st.header.Render("stash")
	if m.screen == screenLogin {
		return title
	}
	parts := []string{title, " "}
	for i, s := range tabs {
		label := fmt.Sprintf("%d %s", i+1, s)
		if s == m.screen {
			parts = append(parts, m.st.tabActive.Render(label))
		} else {
			parts = append(parts, m.st.tab.Render(label))
		}
	}
	left := lipgloss.JoinHorizontal(lipgloss.Top, parts...)

	user := ""
	if sess, ok := m.app.Session.Current(); ok {
		user = sess.User.Username + " · "
	}
	right := m.st.muted.Render(user + string(m.st.mode))
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) authView() string {
	hint := "ctrl+r: create an account"
	if m.registering {
		hint = "ctrl+r: back to log in"
	}
	return m.auth.view(m.st, m.width) + "\n" + m.st.muted.Render(hint+"   ctrl+c: quit")
}

func (m *Model) homeView() string {
	stats, loaded, err := m.home.Stats()
	if !loaded {
		if err != nil {
			return m.st.err.Render("Could not load totals: " + errText(err))
		}
		return m.st.muted.Render("Loading…")
	}
	rows := []struct {
		label string
		n     int64
	}{
		{"Notes", stats.Notes},
		{"Bookmarks", stats.Bookmarks},
		{"Tasks", stats.Tasks},
		{"Pending", stats.PendingTasks},
	}
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(m.st.label.Render(r.label))
		b.WriteString(m.st.accent.Render(fmt.Sprint(r.n)))
		b.WriteString("\n")
	}
	if err != nil {
		b.WriteString(m.st.warn.Render("Totals may be stale: " + errText(err)))
		b.WriteString("\n")
	}
	return b.String()
}

// searchLine shows the search box while typing and the active query
// otherwise.
func (m *Model) searchLine(filters string) string {
	if m.searching {
		return m.search.View()
	}
	var parts []string
	if q := m.current().Search(); q != "" {
		parts = append(parts, "search: "+q)
	}
	if filters != "" {
		parts = append(parts, filters)
	}
	if len(parts) == 0 {
		return m.st.muted.Render("/ to search")
	}
	return m.st.muted.Render(strings.Join(parts, "   "))
}

func (m *Model) rowView(i int, text string) string {
	w := m.width - 2
	if w < 10 {
		w = 10
	}
	text = ansi.Truncate(text, w, "…")
	if i == m.cursor[m.screen] {
		return m.st.rowSelected.Render("> " + text)
	}
	return m.st.row.Render("  " + text)
}

func listFooter[T any](m *Model, st store.State[T], empty string) string {
	var b strings.Builder
	if len(st.Page.Content) == 0 && !st.Loading && st.Err == nil {
		b.WriteString(m.st.muted.Render(empty))
		b.WriteString("\n")
	}
	pages := st.Page.TotalPages
	if pages < 1 {
		pages = 1
	}
	footer := fmt.Sprintf("page %d/%d · %d total", st.Page.Number+1, pages, st.Page.TotalElements)
	if st.Loading {
		footer += " · loading…"
	}
	b.WriteString("\n" + m.st.muted.Render(footer))
	if st.Err != nil {
		b.WriteString("\n" + m.st.err.Render(errText(st.Err)))
	}
	return b.String()
}

func withTags(text string, tags []string) string {
	if len(tags) == 0 {
		return text
	}
	return text + "  #" + strings.Join(tags, " #")
}

func (m *Model) notesView() string {
	st := m.notes.State()
	filter := ""
	if p := m.notes.PinnedFilter(); p != nil {
		filter = "filter: unpinned"
		if *p {
			filter = "filter: pinned"
		}
	}
	var b strings.Builder
	b.WriteString(m.searchLine(filter) + "\n\n")
	for i, n := range st.Page.Content {
		mark := "  "
		if n.Pinned {
			mark = "* "
		}
		title := n.Title
		if title == "" {
			title = "(untitled)"
		}
		b.WriteString(m.rowView(i, withTags(mark+title, n.Tags)) + "\n")
	}
	b.WriteString(listFooter(m, st, "No notes yet. Press n to create one."))
	if n, ok := m.selectedNote(); ok && n.Content != "" {
		preview := renderMarkdown(n.Content, m.width-4, m.st.mode)
		lines := strings.Split(preview, "\n")
		if len(lines) > previewLines {
			lines = append(lines[:previewLines], "…")
		}
		b.WriteString("\n\n" + strings.Join(lines, "\n"))
	}
	return b.String()
}

func (m *Model) bookmarksView() string {
	st := m.bookmarks.State()
	filter := ""
	if c := m.bookmarks.Category(); c != "" {
		filter = "category: " + c
	}
	var b strings.Builder
	b.WriteString(m.searchLine(filter) + "\n\n")
	for i, bm := range st.Page.Content {
		title := bm.Title
		if title == "" {
			title = bm.URL
		}
		text := title
		if bm.Category != "" {
			text += " [" + bm.Category + "]"
		}
		text += "  " + m.st.muted.Render(bm.URL)
		b.WriteString(m.rowView(i, withTags(text, bm.Tags)) + "\n")
	}
	b.WriteString(listFooter(m, st, "No bookmarks yet. Press n to add one."))
	return b.String()
}

func (m *Model) tasksView() string {
	st := m.tasks.State()
	filter := ""
	if f := taskFilters[m.taskFilter]; f.label != "all" {
		filter = "filter: " + f.label
	}
	now := m.now()
	var b strings.Builder
	b.WriteString(m.searchLine(filter) + "\n\n")
	for i, t := range st.Page.Content {
		b.WriteString(m.rowView(i, m.taskText(t, now)) + "\n")
	}
	b.WriteString(listFooter(m, st, "No tasks yet. Press n to add one."))
	return b.String()
}

func (m *Model) taskText(t service.Task, now time.Time) string {
	box := "[ ]"
	if t.Status == service.StatusDone {
		box = "[x]"
	}
	prio := string(t.Priority)
	if st, ok := m.st.priority[t.Priority]; ok {
		prio = st.Render(prio)
	}
	text := box + " " + t.Text + "  " + prio
	if t.DueDate != nil {
		due := "due " + t.DueDate.String()
		if t.Overdue(now) {
			due = m.st.warn.Render(due + " (overdue)")
		} else {
			due = m.st.muted.Render(due)
		}
		text += "  " + due
	}
	return text
}

// statusView shows the last action result.
func (m *Model) statusView() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return m.st.err.Render(m.status)
	}
	return m.st.ok.Render(m.status)
}
