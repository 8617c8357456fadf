package rest

import (
	"context"
	"net/http"
	"strconv"

	"stash/internal/service"
)

const notesResource = "notes"

func noteParams(q service.NoteQuery) params {
	p := pageParams(q.Page, q.Size).set("sort", q.Sort).set("q", q.Q).setTags(q.Tags)
	if q.Pinned != nil {
		p.set("pinned", strconv.FormatBool(*q.Pinned))
	}
	return p
}

// ListNotes returns one page of notes.
func (c *Client) ListNotes(ctx context.Context, q service.NoteQuery) (service.Page[service.Note], error) {
	var page service.Page[service.Note]
	err := c.do(ctx, call{method: http.MethodGet, path: "/" + notesResource, query: valuesOf(noteParams(q))}, &page)
	return page, err
}

// GetNote returns a single note.
func (c *Client) GetNote(ctx context.Context, id int64) (service.Note, error) {
	return get[service.Note](ctx, c, notesResource, id)
}

// CreateNote creates a note.
func (c *Client) CreateNote(ctx context.Context, in service.NoteInput) (service.Note, error) {
	var note service.Note
	err := c.do(ctx, call{method: http.MethodPost, path: "/" + notesResource, body: in}, &note)
	return note, err
}

// UpdateNote replaces a note.
func (c *Client) UpdateNote(ctx context.Context, id int64, in service.NoteInput) (service.Note, error) {
	defer c.mutating(notesResource, id)()
	var note service.Note
	err := c.do(ctx, call{method: http.MethodPut, path: entityPath(notesResource, id), body: in}, &note)
	return note, err
}

// DeleteNote deletes a note.
func (c *Client) DeleteNote(ctx context.Context, id int64) error {
	defer c.mutating(notesResource, id)()
	return c.do(ctx, call{method: http.MethodDelete, path: entityPath(notesResource, id)}, nil)
}
