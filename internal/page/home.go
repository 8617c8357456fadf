package page

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"stash/internal/service"
)

// Stats are the dashboard totals.
type Stats struct {
	Notes        int64
	Bookmarks    int64
	Tasks        int64
	PendingTasks int64
}

// Home is the dashboard controller.
type Home struct {
	svc service.Service

	mu     sync.Mutex
	stats  Stats
	err    error
	loaded bool
}

// NewHome returns a dashboard controller over svc.
func NewHome(svc service.Service) *Home {
	return &Home{svc: svc}
}

// Load fetches all totals concurrently. On failure the previous stats are
// kept and the error is returned.
func (h *Home) Load(ctx context.Context) (Stats, error) {
	var s Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := h.svc.ListNotes(gctx, service.NoteQuery{Size: 1})
		if err != nil {
			return fmt.Errorf("count notes: %w", err)
		}
		s.Notes = p.TotalElements
		return nil
	})
	g.Go(func() error {
		p, err := h.svc.ListBookmarks(gctx, service.BookmarkQuery{Size: 1})
		if err != nil {
			return fmt.Errorf("count bookmarks: %w", err)
		}
		s.Bookmarks = p.TotalElements
		return nil
	})
	g.Go(func() error {
		p, err := h.svc.ListTasks(gctx, service.TaskQuery{Size: 1})
		if err != nil {
			return fmt.Errorf("count tasks: %w", err)
		}
		s.Tasks = p.TotalElements
		return nil
	})
	g.Go(func() error {
		p, err := h.svc.ListTasks(gctx, service.TaskQuery{Size: 1, Status: service.StatusPending})
		if err != nil {
			return fmt.Errorf("count pending tasks: %w", err)
		}
		s.PendingTasks = p.TotalElements
		return nil
	})

	err := g.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
	if err != nil {
		return h.stats, err
	}
	h.stats = s
	h.loaded = true
	return s, nil
}

// Stats returns the last loaded totals, whether any load succeeded, and
// the last error.
func (h *Home) Stats() (Stats, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats, h.loaded, h.err
}
