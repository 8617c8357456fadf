// Package page implements the per-screen controllers shared by the CLI and
// the TUI: search and filter state, paging, form drafts and validation.
package page

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"stash/internal/debounce"
	"stash/internal/logging"
	"stash/internal/service"
	"stash/internal/store"
)

// DefaultDebounce is the quiet period before a search or filter change
// triggers a fetch.
const DefaultDebounce = 300 * time.Millisecond

// Default page sizes.
const (
	NotesPageSize     = 10
	BookmarksPageSize = 20
	TasksPageSize     = 20
)

// Delete confirmation prompts.
const (
	DeleteNotePrompt     = "Delete this note?"
	DeleteBookmarkPrompt = "Delete this bookmark?"
	DeleteTaskPrompt     = "Delete this task?"
)

// DefaultNoteSort orders notes newest first.
const DefaultNoteSort = "createdAt,desc"

// Options configures a controller. Zero values select the defaults; a
// negative Debounce fetches synchronously on every change.
type Options struct {
	PageSize int
	Debounce time.Duration
	Logger   logging.Logger
}

func (o Options) withDefaults(size int) Options {
	if o.PageSize <= 0 {
		o.PageSize = size
	}
	if o.Debounce == 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	return o
}

// ValidationError is a client-side form error. No request was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// ParseTags splits comma-separated tag text. Tags are trimmed, empties are
// dropped and order is kept.
func ParseTags(s string) []string {
	tags := []string{}
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// JoinTags renders tags for editing.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// listing is the search, paging and modal state shared by every resource
// controller. build is called with mu held.
type listing[T service.Entity, Q store.Query, In any] struct {
	slice *store.Slice[T, Q, In]
	deb   *debounce.Debouncer
	ctx   context.Context
	log   logging.Logger
	name  string

	mu        sync.Mutex
	page      int
	modalOpen bool
	fetched   bool
	build     func(page int) Q
}

func newListing[T service.Entity, Q store.Query, In any](ctx context.Context, name string, slice *store.Slice[T, Q, In], opts Options) *listing[T, Q, In] {
	return &listing[T, Q, In]{
		slice: slice,
		deb:   debounce.New(opts.Debounce),
		ctx:   ctx,
		log:   opts.Logger,
		name:  name,
	}
}

// State returns the current page, loading flag and last error.
func (l *listing[T, Q, In]) State() store.State[T] {
	return l.slice.Snapshot()
}

// Subscribe registers fn to run after every list change.
func (l *listing[T, Q, In]) Subscribe(fn func()) func() {
	return l.slice.Subscribe(fn)
}

// Query returns the filter that the next fetch will use.
func (l *listing[T, Q, In]) Query() Q {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.build(l.page)
}

// PageIndex returns the 0-based page index.
func (l *listing[T, Q, In]) PageIndex() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page
}

// Refresh fetches the current page now, dropping any pending debounced
// fetch.
func (l *listing[T, Q, In]) Refresh(ctx context.Context) (service.Page[T], error) {
	l.deb.Stop()
	return l.fetch(ctx)
}

func (l *listing[T, Q, In]) fetch(ctx context.Context) (service.Page[T], error) {
	q := l.Query()
	page, err := l.slice.Fetch(ctx, q)
	switch {
	case err == nil:
		l.mu.Lock()
		l.fetched = true
		l.mu.Unlock()
	case !errors.Is(err, store.ErrStale):
		l.log.Warnf(ctx, "fetch %s: %v", l.name, err)
	}
	return page, err
}

// schedule issues a debounced fetch with whatever filters are current when
// the timer fires.
func (l *listing[T, Q, In]) schedule() {
	l.deb.Trigger(func() {
		_, _ = l.fetch(l.ctx)
	})
}

// filterChanged resets to the first page and schedules a fetch. mutate runs
// under the lock.
func (l *listing[T, Q, In]) filterChanged(mutate func()) {
	l.mu.Lock()
	mutate()
	l.page = 0
	l.mu.Unlock()
	l.schedule()
}

// SetPage moves to page n, clamped to the known page range. Before the
// first successful fetch only the lower bound applies.
func (l *listing[T, Q, In]) SetPage(n int) {
	l.mu.Lock()
	fetched := l.fetched
	l.mu.Unlock()
	if last := l.lastPage(); fetched && n > last {
		n = last
	}
	if n < 0 {
		n = 0
	}
	l.mu.Lock()
	changed := n != l.page
	l.page = n
	l.mu.Unlock()
	if changed {
		l.schedule()
	}
}

// NextPage, PrevPage, FirstPage and LastPage navigate within totalPages.
func (l *listing[T, Q, In]) NextPage()  { l.SetPage(l.PageIndex() + 1) }
func (l *listing[T, Q, In]) PrevPage()  { l.SetPage(l.PageIndex() - 1) }
func (l *listing[T, Q, In]) FirstPage() { l.SetPage(0) }
func (l *listing[T, Q, In]) LastPage()  { l.SetPage(l.lastPage()) }

func (l *listing[T, Q, In]) lastPage() int {
	total := l.slice.Snapshot().Page.TotalPages
	if total < 1 {
		return 0
	}
	return total - 1
}

// ModalOpen reports whether the form is showing.
func (l *listing[T, Q, In]) ModalOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.modalOpen
}

// Close cancels any pending debounced fetch. A request already in flight
// still completes.
func (l *listing[T, Q, In]) Close() {
	l.deb.Stop()
}

// remove confirms and deletes id, then refetches.
func (l *listing[T, Q, In]) remove(ctx context.Context, id int64, prompt string, c Confirmer) (bool, error) {
	if c == nil || !c.Confirm(prompt) {
		return false, nil
	}
	if err := l.slice.Delete(ctx, id); err != nil {
		return false, err
	}
	l.afterMutation(ctx)
	return true, nil
}

// afterMutation refetches the current page. A failed refetch is recorded
// on the slice, not returned, since the mutation itself succeeded.
func (l *listing[T, Q, In]) afterMutation(ctx context.Context) {
	_, _ = l.Refresh(ctx)
}
