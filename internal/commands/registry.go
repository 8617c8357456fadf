package commands

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Registry maps command names and aliases to commands.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Command
	cmds   []Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Command)}
}

// Register adds c under its name and aliases. Nothing is added when any
// of them is taken.
func (r *Registry) Register(c Command) error {
	names := append([]string{c.Name()}, c.Aliases()...)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range names {
		if n == "" || strings.ContainsAny(n, " \t") || strings.HasPrefix(n, "-") {
			return fmt.Errorf("invalid command name %q", n)
		}
		if prev, ok := r.byName[n]; ok {
			return fmt.Errorf("command name %s already used by %s", n, prev.Name())
		}
	}
	for _, n := range names {
		r.byName[n] = c
	}
	r.cmds = append(r.cmds, c)
	return nil
}

// Find looks up a command by name or alias.
func (r *Registry) Find(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// Suggest returns the command whose name or alias starts with prefix, if
// exactly one does.
func (r *Registry) Suggest(prefix string) (Command, bool) {
	if prefix == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var match Command
	for n, c := range r.byName {
		if !strings.HasPrefix(n, prefix) {
			continue
		}
		if match != nil && match != c {
			return nil, false
		}
		match = c
	}
	return match, match != nil
}

// All returns each command once, sorted by name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	out := slices.Clone(r.cmds)
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b Command) int { return strings.Compare(a.Name(), b.Name()) })
	return out
}

// IsStandalone reports whether c runs without local state.
func IsStandalone(c Command) bool {
	s, ok := c.(Standalone)
	return ok && s.Standalone()
}

// LogsToFile reports whether c wants logs in the log file.
func LogsToFile(c Command) bool {
	f, ok := c.(FileLogger)
	return ok && f.LogsToFile()
}

// DefaultRegistry holds every built-in command.
var DefaultRegistry = NewRegistry()

// Register adds c to DefaultRegistry and panics on a name clash.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}
