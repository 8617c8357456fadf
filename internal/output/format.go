// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"stash/internal/page"
	"stash/internal/service"
)

// FormatNote formats a note line.
// Format: "{ID:>4}  {*| } {TITLE}[  [tag, tag]]\n"
func FormatNote(w io.Writer, n service.Note) {
	pin := " "
	if n.Pinned {
		pin = "*"
	}
	fmt.Fprintf(w, "%4d  %s %s%s\n", n.ID, pin, normalizeTitle(n.Title), tagSuffix(n.Tags))
}

// FormatBookmark formats a bookmark line.
// Format: "{ID:>4}  {TITLE}  <{URL}>[  ({CATEGORY})][  [tags]]\n"
func FormatBookmark(w io.Writer, b service.Bookmark) {
	title := b.Title
	if strings.TrimSpace(title) == "" {
		title = b.URL
	}
	line := fmt.Sprintf("%4d  %s  <%s>", b.ID, normalizeTitle(title), b.URL)
	if c := strings.TrimSpace(b.Category); c != "" {
		line += "  (" + c + ")"
	}
	fmt.Fprintln(w, line+tagSuffix(b.Tags))
}

// FormatTask formats a task line. now decides whether a due date is overdue.
// Format: "{ID:>4}  [x| ] {PRIORITY:<6}  {TEXT}[  due {DATE}[ (overdue)]]\n"
func FormatTask(w io.Writer, t service.Task, now time.Time) {
	box := "[ ]"
	if t.Status == service.StatusDone {
		box = "[x]"
	}
	line := fmt.Sprintf("%4d  %s %-6s  %s", t.ID, box, t.Priority, normalizeTitle(t.Text))
	if t.DueDate != nil {
		line += "  due " + t.DueDate.String()
		if t.Overdue(now) {
			line += " (overdue)"
		}
	}
	fmt.Fprintln(w, line)
}

// FormatPageFooter formats the paging summary printed after a list.
func FormatPageFooter[T any](w io.Writer, p service.Page[T]) {
	pages := p.TotalPages
	if pages < 1 {
		pages = 1
	}
	fmt.Fprintf(w, "page %d/%d, %d total\n", p.Number+1, pages, p.TotalElements)
}

// FormatStats formats the dashboard totals.
func FormatStats(w io.Writer, s page.Stats) {
	fmt.Fprintf(w, "notes:      %d\n", s.Notes)
	fmt.Fprintf(w, "bookmarks:  %d\n", s.Bookmarks)
	fmt.Fprintf(w, "tasks:      %d (%d pending)\n", s.Tasks, s.PendingTasks)
}

func tagSuffix(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return "  [" + page.JoinTags(tags) + "]"
}

// normalizeTitle normalizes a title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
