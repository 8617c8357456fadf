package page

import (
	"context"
	"strings"

	"stash/internal/service"
	"stash/internal/store"
)

// NoteDraft is the note form.
type NoteDraft struct {
	Title    string
	Content  string
	Tags     string
	Pinned   bool
	Archived bool
}

// Notes is the notes screen controller.
type Notes struct {
	*listing[service.Note, service.NoteQuery, service.NoteInput]

	size   int
	search string
	tags   []string
	pinned *bool

	editing *service.Note
	draft   NoteDraft
}

// NewNotes returns a controller over svc. ctx bounds debounced fetches.
func NewNotes(ctx context.Context, svc service.Notes, opts Options) *Notes {
	opts = opts.withDefaults(NotesPageSize)
	n := &Notes{size: opts.PageSize}
	n.listing = newListing(ctx, "notes", store.NewNotes(svc), opts)
	n.build = func(page int) service.NoteQuery {
		return service.NoteQuery{
			Page:   page,
			Size:   n.size,
			Sort:   DefaultNoteSort,
			Q:      n.search,
			Tags:   append([]string(nil), n.tags...),
			Pinned: n.pinned,
		}
	}
	return n
}

// Search returns the current search text.
func (n *Notes) Search() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.search
}

// SetSearch changes the search text.
func (n *Notes) SetSearch(q string) {
	n.filterChanged(func() { n.search = q })
}

// SetTagFilter restricts the list to notes carrying every tag in text.
func (n *Notes) SetTagFilter(text string) {
	n.filterChanged(func() { n.tags = ParseTags(text) })
}

// SetPinnedFilter restricts the list by pinned state; nil shows all.
func (n *Notes) SetPinnedFilter(pinned *bool) {
	n.filterChanged(func() { n.pinned = pinned })
}

// PinnedFilter returns the pinned filter.
func (n *Notes) PinnedFilter() *bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pinned
}

// Open shows the form. A nil note starts a blank draft; otherwise the
// draft is seeded from note.
func (n *Notes) Open(note *service.Note) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.modalOpen = true
	if note == nil {
		n.editing = nil
		n.draft = NoteDraft{}
		return
	}
	cp := *note
	n.editing = &cp
	n.draft = NoteDraft{
		Title:    note.Title,
		Content:  note.Content,
		Tags:     JoinTags(note.Tags),
		Pinned:   note.Pinned,
		Archived: note.Archived,
	}
}

// Draft returns the form contents.
func (n *Notes) Draft() NoteDraft {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.draft
}

// SetDraft replaces the form contents.
func (n *Notes) SetDraft(d NoteDraft) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.draft = d
}

// Editing returns the note being edited, or nil for a new note.
func (n *Notes) Editing() *service.Note {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.editing
}

// CloseModal hides the form and discards the draft.
func (n *Notes) CloseModal() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.modalOpen = false
	n.editing = nil
	n.draft = NoteDraft{}
}

// Submit validates the draft and creates or updates the note. On success
// the form closes and the current page is refetched.
func (n *Notes) Submit(ctx context.Context) (service.Note, error) {
	n.mu.Lock()
	draft, editing := n.draft, n.editing
	n.mu.Unlock()

	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return service.Note{}, &ValidationError{Field: "title", Message: "Title is required"}
	}
	in := service.NoteInput{
		Title:    title,
		Content:  draft.Content,
		Tags:     ParseTags(draft.Tags),
		Pinned:   draft.Pinned,
		Archived: draft.Archived,
	}

	var (
		saved service.Note
		err   error
	)
	if editing != nil {
		saved, err = n.slice.Update(ctx, editing.ID, in)
	} else {
		saved, err = n.slice.Create(ctx, in)
	}
	if err != nil {
		return service.Note{}, err
	}
	n.CloseModal()
	n.afterMutation(ctx)
	return saved, nil
}

// Delete asks c to confirm, then deletes the note and refetches.
// It reports whether the note was deleted.
func (n *Notes) Delete(ctx context.Context, id int64, c Confirmer) (bool, error) {
	return n.remove(ctx, id, DeleteNotePrompt, c)
}

// TogglePin flips note's pinned flag by sending the full note back, then
// refetches so the pinned filter applies.
func (n *Notes) TogglePin(ctx context.Context, note service.Note) (service.Note, error) {
	in := note.Input()
	in.Pinned = !note.Pinned
	saved, err := n.slice.Update(ctx, note.ID, in)
	if err != nil {
		return service.Note{}, err
	}
	n.afterMutation(ctx)
	return saved, nil
}
