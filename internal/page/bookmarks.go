package page

import (
	"context"
	"strings"

	"stash/internal/service"
	"stash/internal/store"
)

// BookmarkDraft is the bookmark form.
type BookmarkDraft struct {
	URL         string
	Title       string
	Description string
	Category    string
	Tags        string
}

// Bookmarks is the bookmarks screen controller.
type Bookmarks struct {
	*listing[service.Bookmark, service.BookmarkQuery, service.BookmarkInput]

	size     int
	search   string
	category string

	editing *service.Bookmark
	draft   BookmarkDraft
}

// NewBookmarks returns a controller over svc. ctx bounds debounced fetches.
func NewBookmarks(ctx context.Context, svc service.Bookmarks, opts Options) *Bookmarks {
	opts = opts.withDefaults(BookmarksPageSize)
	b := &Bookmarks{size: opts.PageSize}
	b.listing = newListing(ctx, "bookmarks", store.NewBookmarks(svc), opts)
	b.build = func(page int) service.BookmarkQuery {
		return service.BookmarkQuery{
			Page:     page,
			Size:     b.size,
			Q:        b.search,
			Category: b.category,
		}
	}
	return b
}

// Search returns the current search text.
func (b *Bookmarks) Search() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.search
}

// SetSearch changes the search text.
func (b *Bookmarks) SetSearch(q string) {
	b.filterChanged(func() { b.search = q })
}

// Category returns the category filter.
func (b *Bookmarks) Category() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.category
}

// SetCategory changes the category filter; empty shows all.
func (b *Bookmarks) SetCategory(c string) {
	b.filterChanged(func() { b.category = strings.TrimSpace(c) })
}

// Open shows the form, seeded from bm when non-nil.
func (b *Bookmarks) Open(bm *service.Bookmark) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modalOpen = true
	if bm == nil {
		b.editing = nil
		b.draft = BookmarkDraft{}
		return
	}
	cp := *bm
	b.editing = &cp
	b.draft = BookmarkDraft{
		URL:         bm.URL,
		Title:       bm.Title,
		Description: bm.Description,
		Category:    bm.Category,
		Tags:        JoinTags(bm.Tags),
	}
}

// Draft returns the form contents.
func (b *Bookmarks) Draft() BookmarkDraft {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.draft
}

// SetDraft replaces the form contents.
func (b *Bookmarks) SetDraft(d BookmarkDraft) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draft = d
}

// Editing returns the bookmark being edited, or nil.
func (b *Bookmarks) Editing() *service.Bookmark {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.editing
}

// CloseModal hides the form and discards the draft.
func (b *Bookmarks) CloseModal() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modalOpen = false
	b.editing = nil
	b.draft = BookmarkDraft{}
}

// ValidateURL checks the bookmark url rule.
func ValidateURL(raw string) error {
	u := strings.TrimSpace(raw)
	if u == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return &ValidationError{Field: "url", Message: "URL must start with http:// or https://"}
	}
	return nil
}

// Submit validates the draft and creates or updates the bookmark.
func (b *Bookmarks) Submit(ctx context.Context) (service.Bookmark, error) {
	b.mu.Lock()
	draft, editing := b.draft, b.editing
	b.mu.Unlock()

	if err := ValidateURL(draft.URL); err != nil {
		return service.Bookmark{}, err
	}
	in := service.BookmarkInput{
		URL:         strings.TrimSpace(draft.URL),
		Title:       strings.TrimSpace(draft.Title),
		Description: draft.Description,
		Category:    strings.TrimSpace(draft.Category),
		Tags:        ParseTags(draft.Tags),
	}

	var (
		saved service.Bookmark
		err   error
	)
	if editing != nil {
		saved, err = b.slice.Update(ctx, editing.ID, in)
	} else {
		saved, err = b.slice.Create(ctx, in)
	}
	if err != nil {
		return service.Bookmark{}, err
	}
	b.CloseModal()
	b.afterMutation(ctx)
	return saved, nil
}

// Delete asks c to confirm, then deletes the bookmark and refetches.
func (b *Bookmarks) Delete(ctx context.Context, id int64, c Confirmer) (bool, error) {
	return b.remove(ctx, id, DeleteBookmarkPrompt, c)
}
