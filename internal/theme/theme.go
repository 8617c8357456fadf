// Package theme holds the light/dark preference and the palette derived
// from it.
package theme

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"stash/internal/localstore"
)

// Mode is the active color scheme.
type Mode string

const (
	Light Mode = "light"
	Dark  Mode = "dark"
)

const storageKey = "theme"

// ParseMode parses "light" or "dark".
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	}
	return "", fmt.Errorf("invalid theme: %s (want light or dark)", s)
}

// Other returns the opposite mode.
func (m Mode) Other() Mode {
	if m == Dark {
		return Light
	}
	return Dark
}

// Storage persists the preference.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Manager owns the current mode.
type Manager struct {
	store Storage

	mu   sync.RWMutex
	mode Mode
}

// NewManager returns a manager in Light mode. Call Load to read the stored
// preference.
func NewManager(store Storage) *Manager {
	return &Manager{store: store, mode: Light}
}

// Load reads the persisted mode. A missing or unreadable value falls back
// to Light.
func (m *Manager) Load(ctx context.Context) (Mode, error) {
	raw, err := m.store.Get(ctx, storageKey)
	if errors.Is(err, localstore.ErrNotFound) {
		return m.Current(), nil
	}
	if err != nil {
		return m.Current(), fmt.Errorf("load theme: %w", err)
	}
	mode, err := ParseMode(raw)
	if err != nil {
		mode = Light
	}
	m.mu.Lock()
	m.mode = mode
	m.mu.Unlock()
	return mode, nil
}

// Current returns the active mode.
func (m *Manager) Current() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// Set persists and activates mode.
func (m *Manager) Set(ctx context.Context, mode Mode) error {
	if mode != Light && mode != Dark {
		return fmt.Errorf("invalid theme: %s", mode)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Set(ctx, storageKey, string(mode)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	m.mode = mode
	return nil
}

// Toggle flips between light and dark and returns the new mode.
func (m *Manager) Toggle(ctx context.Context) (Mode, error) {
	next := m.Current().Other()
	if err := m.Set(ctx, next); err != nil {
		return m.Current(), err
	}
	return next, nil
}

// Palette is the set of semantic colors for one mode.
type Palette struct {
	Fg         lipgloss.Color
	Muted      lipgloss.Color
	SurfaceBg  lipgloss.Color
	ControlBg  lipgloss.Color
	SelectedBg lipgloss.Color
	SelectedFg lipgloss.Color
	Accent     lipgloss.Color
	AccentFg   lipgloss.Color
	Border     lipgloss.Color
	Error      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	PriorityHi lipgloss.Color
	PriorityMd lipgloss.Color
	PriorityLo lipgloss.Color
}

// PaletteFor returns the palette for mode.
func PaletteFor(mode Mode) Palette {
	if mode == Dark {
		return Palette{
			Fg:         "252",
			Muted:      "243",
			SurfaceBg:  "235",
			ControlBg:  "236",
			SelectedBg: "#262626",
			SelectedFg: "255",
			Accent:     "62",
			AccentFg:   "235",
			Border:     "243",
			Error:      "203",
			Success:    "78",
			Warning:    "221",
			PriorityHi: "203",
			PriorityMd: "221",
			PriorityLo: "78",
		}
	}
	return Palette{
		Fg:         "235",
		Muted:      "240",
		SurfaceBg:  "255",
		ControlBg:  "252",
		SelectedBg: "#e9e9e9",
		SelectedFg: "235",
		Accent:     "27",
		AccentFg:   "255",
		Border:     "250",
		Error:      "160",
		Success:    "28",
		Warning:    "136",
		PriorityHi: "160",
		PriorityMd: "136",
		PriorityLo: "28",
	}
}
