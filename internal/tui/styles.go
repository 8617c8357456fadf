package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"stash/internal/service"
	"stash/internal/theme"
)

type styles struct {
	mode theme.Mode

	header      lipgloss.Style
	tab         lipgloss.Style
	tabActive   lipgloss.Style
	row         lipgloss.Style
	rowSelected lipgloss.Style
	muted       lipgloss.Style
	accent      lipgloss.Style
	err         lipgloss.Style
	ok          lipgloss.Style
	warn        lipgloss.Style
	modal       lipgloss.Style
	modalTitle  lipgloss.Style
	label       lipgloss.Style
	labelFocus  lipgloss.Style
	button      lipgloss.Style
	buttonFocus lipgloss.Style
	priority    map[service.Priority]lipgloss.Style
}

func newStyles(mode theme.Mode) styles {
	p := theme.PaletteFor(mode)
	base := lipgloss.NewStyle().Foreground(p.Fg)
	btn := lipgloss.NewStyle().Padding(0, 1).Foreground(p.Fg).Background(p.ControlBg)
	return styles{
		mode:        mode,
		header:      base.Bold(true),
		tab:         lipgloss.NewStyle().Padding(0, 1).Foreground(p.Muted),
		tabActive:   lipgloss.NewStyle().Padding(0, 1).Foreground(p.AccentFg).Background(p.Accent).Bold(true),
		row:         base,
		rowSelected: lipgloss.NewStyle().Foreground(p.SelectedFg).Background(p.SelectedBg).Bold(true),
		muted:       lipgloss.NewStyle().Foreground(p.Muted),
		accent:      lipgloss.NewStyle().Foreground(p.Accent),
		err:         lipgloss.NewStyle().Foreground(p.Error),
		ok:          lipgloss.NewStyle().Foreground(p.Success),
		warn:        lipgloss.NewStyle().Foreground(p.Warning),
		modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(1, 2),
		modalTitle:  base.Bold(true).MarginBottom(1),
		label:       lipgloss.NewStyle().Foreground(p.Muted).Width(labelWidth),
		labelFocus:  lipgloss.NewStyle().Foreground(p.Accent).Bold(true).Width(labelWidth),
		button:      btn,
		buttonFocus: btn.Foreground(p.SelectedFg).Background(p.SelectedBg).Bold(true),
		priority: map[service.Priority]lipgloss.Style{
			service.PriorityHigh:   lipgloss.NewStyle().Foreground(p.PriorityHi),
			service.PriorityMedium: lipgloss.NewStyle().Foreground(p.PriorityMd),
			service.PriorityLow:    lipgloss.NewStyle().Foreground(p.PriorityLo),
		},
	}
}

// applyColorProfile honors NO_COLOR and otherwise follows the terminal.
// Background detection follows the stored theme so adaptive colors in
// bubbles components match the palette.
func applyColorProfile(mode theme.Mode) {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
	} else {
		lipgloss.SetColorProfile(termenv.ColorProfile())
	}
	lipgloss.SetHasDarkBackground(mode == theme.Dark)
}
