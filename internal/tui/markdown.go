package tui

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"stash/internal/theme"
)

var (
	mdMu sync.Mutex
	// Renderers are cached by style and width. WithAutoStyle is avoided
	// because it queries the terminal.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

// renderMarkdown renders note content for the preview pane. On any
// renderer error the raw text is returned.
func renderMarkdown(md string, width int, mode theme.Mode) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}
	style := "light"
	if mode == theme.Dark {
		style = "dark"
	}
	key := style + ":" + strconv.Itoa(width)

	mdMu.Lock()
	defer mdMu.Unlock()
	r := mdRenderers[key]
	if r == nil {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRenderers[key] = r
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}
