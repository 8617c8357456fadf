// Package store keeps one server-paginated list per resource in sync with
// optimistic local edits.
package store

import (
	"context"
	"errors"
	"sync"

	"stash/internal/service"
)

// ErrStale is returned by Fetch when a newer fetch was issued before this
// one completed. The response was discarded.
var ErrStale = errors.New("stale fetch discarded")

// Query is a list filter that carries its requested page size.
type Query interface {
	PageSize() int
}

// Resource is the backend surface a Slice needs.
type Resource[T service.Entity, Q Query, In any] interface {
	List(ctx context.Context, q Q) (service.Page[T], error)
	Create(ctx context.Context, in In) (T, error)
	Update(ctx context.Context, id int64, in In) (T, error)
	Delete(ctx context.Context, id int64) error
}

// State is a point-in-time copy of a Slice.
type State[T any] struct {
	Page    service.Page[T]
	Loading bool
	Err     error
}

// Slice holds the current page of one resource.
// It is safe for concurrent use.
type Slice[T service.Entity, Q Query, In any] struct {
	res Resource[T, Q, In]

	mu        sync.Mutex
	state     State[T]
	seq       uint64
	listeners map[int]func()
	nextLsn   int
}

// New returns an empty Slice over res.
func New[T service.Entity, Q Query, In any](res Resource[T, Q, In]) *Slice[T, Q, In] {
	return &Slice[T, Q, In]{
		res:       res,
		listeners: make(map[int]func()),
	}
}

// Snapshot returns a copy of the current state. The content slice is
// copied so callers may keep it.
func (s *Slice[T, Q, In]) Snapshot() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Page.Content = append([]T(nil), s.state.Page.Content...)
	return st
}

// Subscribe registers fn to run after every state change. fn runs outside
// the slice lock on whichever goroutine made the change.
func (s *Slice[T, Q, In]) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextLsn
	s.nextLsn++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Fetch replaces the page with the server response for q. Loading is set
// and the previous error cleared for the duration of the request. On
// failure the error is stored and the previous content stays visible.
//
// Only the latest issued fetch is applied; earlier ones that complete
// afterwards return ErrStale and leave loading set.
func (s *Slice[T, Q, In]) Fetch(ctx context.Context, q Q) (service.Page[T], error) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.state.Loading = true
	s.state.Err = nil
	s.mu.Unlock()
	s.notify()

	page, err := s.res.List(ctx, q)

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return service.Page[T]{}, ErrStale
	}
	s.state.Loading = false
	if err != nil {
		s.state.Err = err
		s.mu.Unlock()
		s.notify()
		return service.Page[T]{}, err
	}
	if size := q.PageSize(); size > 0 && len(page.Content) > size {
		page.Content = page.Content[:size]
	}
	if page.Content == nil {
		page.Content = []T{}
	}
	s.state.Page = page
	s.mu.Unlock()
	s.notify()
	return page, nil
}

// Create sends in and prepends the created entity, incrementing the total.
// Order is not re-sorted; callers refetch to reconcile. Any stored error is
// cleared before the request is sent.
func (s *Slice[T, Q, In]) Create(ctx context.Context, in In) (T, error) {
	s.mu.Lock()
	cleared := s.state.Err != nil
	s.state.Err = nil
	s.mu.Unlock()
	if cleared {
		s.notify()
	}

	created, err := s.res.Create(ctx, in)
	if err != nil {
		s.mu.Lock()
		s.state.Err = err
		s.mu.Unlock()
		s.notify()
		var zero T
		return zero, err
	}

	s.mu.Lock()
	content := make([]T, 0, len(s.state.Page.Content)+1)
	content = append(content, created)
	content = append(content, s.state.Page.Content...)
	s.state.Page.Content = content
	s.state.Page.TotalElements++
	s.mu.Unlock()
	s.notify()
	return created, nil
}

// Update sends in for id and replaces the matching entity in the page.
// An id not on the current page leaves the page unchanged.
func (s *Slice[T, Q, In]) Update(ctx context.Context, id int64, in In) (T, error) {
	updated, err := s.res.Update(ctx, id, in)
	if err != nil {
		var zero T
		return zero, err
	}
	s.apply(updated)
	return updated, nil
}

// Replace runs an arbitrary single-entity mutation and applies its result
// like Update.
func (s *Slice[T, Q, In]) Replace(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	updated, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	s.apply(updated)
	return updated, nil
}

// Delete removes id on the server, then from the page, decrementing the
// total without going below zero.
func (s *Slice[T, Q, In]) Delete(ctx context.Context, id int64) error {
	if err := s.res.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	content := s.state.Page.Content[:0:0]
	for _, e := range s.state.Page.Content {
		if e.EntityID() != id {
			content = append(content, e)
		}
	}
	s.state.Page.Content = content
	if s.state.Page.TotalElements > 0 {
		s.state.Page.TotalElements--
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Slice[T, Q, In]) apply(updated T) {
	s.mu.Lock()
	found := false
	for i, e := range s.state.Page.Content {
		if e.EntityID() == updated.EntityID() {
			content := append([]T(nil), s.state.Page.Content...)
			content[i] = updated
			s.state.Page.Content = content
			found = true
			break
		}
	}
	s.mu.Unlock()
	if found {
		s.notify()
	}
}

func (s *Slice[T, Q, In]) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
