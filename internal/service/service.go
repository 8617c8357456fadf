// Package service defines the backend-agnostic interface for notes, bookmarks
// and tasks.
package service

import "context"

// Auth covers the unauthenticated account endpoints.
type Auth interface {
	// Login exchanges credentials for a bearer token.
	Login(ctx context.Context, creds Credentials) (string, error)

	// Register creates an account. It does not log in.
	Register(ctx context.Context, reg Registration) error
}

// Notes covers the /notes endpoints.
type Notes interface {
	ListNotes(ctx context.Context, q NoteQuery) (Page[Note], error)
	GetNote(ctx context.Context, id int64) (Note, error)
	CreateNote(ctx context.Context, in NoteInput) (Note, error)
	// UpdateNote replaces the whole note; there is no partial patch.
	UpdateNote(ctx context.Context, id int64, in NoteInput) (Note, error)
	DeleteNote(ctx context.Context, id int64) error
}

// Bookmarks covers the /bookmarks endpoints.
type Bookmarks interface {
	ListBookmarks(ctx context.Context, q BookmarkQuery) (Page[Bookmark], error)
	GetBookmark(ctx context.Context, id int64) (Bookmark, error)
	CreateBookmark(ctx context.Context, in BookmarkInput) (Bookmark, error)
	UpdateBookmark(ctx context.Context, id int64, in BookmarkInput) (Bookmark, error)
	DeleteBookmark(ctx context.Context, id int64) error
}

// Tasks covers the /tasks endpoints.
type Tasks interface {
	ListTasks(ctx context.Context, q TaskQuery) (Page[Task], error)
	GetTask(ctx context.Context, id int64) (Task, error)
	CreateTask(ctx context.Context, in TaskInput) (Task, error)
	UpdateTask(ctx context.Context, id int64, in TaskInput) (Task, error)
	DeleteTask(ctx context.Context, id int64) error

	// CompleteTask marks a task DONE through the dedicated completion
	// endpoint and returns the updated task.
	CompleteTask(ctx context.Context, id int64) (Task, error)
}

// Service is everything a front-end needs from the backend.
// Commands and the TUI never talk HTTP directly.
type Service interface {
	Auth
	Notes
	Bookmarks
	Tasks
}
