package store

import (
	"context"

	"stash/internal/service"
)

type (
	Notes     = Slice[service.Note, service.NoteQuery, service.NoteInput]
	Bookmarks = Slice[service.Bookmark, service.BookmarkQuery, service.BookmarkInput]
	Tasks     = Slice[service.Task, service.TaskQuery, service.TaskInput]
)

// NewNotes returns a notes slice backed by svc.
func NewNotes(svc service.Notes) *Notes {
	return New[service.Note, service.NoteQuery, service.NoteInput](notesResource{svc})
}

// NewBookmarks returns a bookmarks slice backed by svc.
func NewBookmarks(svc service.Bookmarks) *Bookmarks {
	return New[service.Bookmark, service.BookmarkQuery, service.BookmarkInput](bookmarksResource{svc})
}

// NewTasks returns a tasks slice backed by svc.
func NewTasks(svc service.Tasks) *Tasks {
	return New[service.Task, service.TaskQuery, service.TaskInput](tasksResource{svc})
}

type notesResource struct{ svc service.Notes }

func (r notesResource) List(ctx context.Context, q service.NoteQuery) (service.Page[service.Note], error) {
	return r.svc.ListNotes(ctx, q)
}

func (r notesResource) Create(ctx context.Context, in service.NoteInput) (service.Note, error) {
	return r.svc.CreateNote(ctx, in)
}

func (r notesResource) Update(ctx context.Context, id int64, in service.NoteInput) (service.Note, error) {
	return r.svc.UpdateNote(ctx, id, in)
}

func (r notesResource) Delete(ctx context.Context, id int64) error {
	return r.svc.DeleteNote(ctx, id)
}

type bookmarksResource struct{ svc service.Bookmarks }

func (r bookmarksResource) List(ctx context.Context, q service.BookmarkQuery) (service.Page[service.Bookmark], error) {
	return r.svc.ListBookmarks(ctx, q)
}

func (r bookmarksResource) Create(ctx context.Context, in service.BookmarkInput) (service.Bookmark, error) {
	return r.svc.CreateBookmark(ctx, in)
}

func (r bookmarksResource) Update(ctx context.Context, id int64, in service.BookmarkInput) (service.Bookmark, error) {
	return r.svc.UpdateBookmark(ctx, id, in)
}

func (r bookmarksResource) Delete(ctx context.Context, id int64) error {
	return r.svc.DeleteBookmark(ctx, id)
}

type tasksResource struct{ svc service.Tasks }

func (r tasksResource) List(ctx context.Context, q service.TaskQuery) (service.Page[service.Task], error) {
	return r.svc.ListTasks(ctx, q)
}

func (r tasksResource) Create(ctx context.Context, in service.TaskInput) (service.Task, error) {
	return r.svc.CreateTask(ctx, in)
}

func (r tasksResource) Update(ctx context.Context, id int64, in service.TaskInput) (service.Task, error) {
	return r.svc.UpdateTask(ctx, id, in)
}

func (r tasksResource) Delete(ctx context.Context, id int64) error {
	return r.svc.DeleteTask(ctx, id)
}
