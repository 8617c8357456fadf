// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"stash/internal/service"
)

// Call is one recorded service invocation.
type Call struct {
	Method string
	Arg    any
}

// FakeService is an in-memory implementation of service.Service for testing.
// Lists are returned newest first and filtered the way the server would.
type FakeService struct {
	mu        sync.RWMutex
	nextID    int64
	now       time.Time
	notes     []service.Note
	bookmarks []service.Bookmark
	tasks     []service.Task
	users     map[string]string // username -> password
	calls     []Call

	// Token is returned by a successful Login.
	Token string

	// Error injection for testing
	LoginErr          error
	RegisterErr       error
	ListNotesErr      error
	GetNoteErr        error
	CreateNoteErr     error
	UpdateNoteErr     error
	DeleteNoteErr     error
	ListBookmarksErr  error
	GetBookmarkErr    error
	CreateBookmarkErr error
	UpdateBookmarkErr error
	DeleteBookmarkErr error
	ListTasksErr      error
	GetTaskErr        error
	CreateTaskErr     error
	UpdateTaskErr     error
	DeleteTaskErr     error
	CompleteTaskErr   error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		nextID: 1,
		now:    time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		users:  make(map[string]string),
		Token:  "fake-token",
	}
}

// AddUser registers a username/password pair accepted by Login.
func (f *FakeService) AddUser(username, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[username] = password
}

// AddNote seeds a note and returns it with its assigned id.
func (f *FakeService) AddNote(n service.Note) service.Note {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = f.allocID()
	n.CreatedAt = f.stamp()
	n.UpdatedAt = n.CreatedAt
	f.notes = append(f.notes, n)
	return n
}

// AddBookmark seeds a bookmark and returns it with its assigned id.
func (f *FakeService) AddBookmark(b service.Bookmark) service.Bookmark {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = f.allocID()
	b.CreatedAt = f.stamp()
	f.bookmarks = append(f.bookmarks, b)
	return b
}

// AddTask seeds a task and returns it with its assigned id.
func (f *FakeService) AddTask(t service.Task) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = f.allocID()
	t.CreatedAt = f.stamp()
	if t.Status == "" {
		t.Status = service.StatusPending
	}
	if t.Priority == "" {
		t.Priority = service.PriorityMedium
	}
	f.tasks = append(f.tasks, t)
	return t
}

// Calls returns every recorded call in order.
func (f *FakeService) Calls() []Call {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the recorded calls to method.
func (f *FakeService) CallsTo(method string) []Call {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []Call
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets recorded calls.
func (f *FakeService) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// Note returns the stored note with id.
func (f *FakeService) Note(id int64) (service.Note, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	i := slices.IndexFunc(f.notes, func(n service.Note) bool { return n.ID == id })
	if i < 0 {
		return service.Note{}, false
	}
	return f.notes[i], true
}

// Bookmark returns the stored bookmark with id.
func (f *FakeService) Bookmark(id int64) (service.Bookmark, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	i := slices.IndexFunc(f.bookmarks, func(b service.Bookmark) bool { return b.ID == id })
	if i < 0 {
		return service.Bookmark{}, false
	}
	return f.bookmarks[i], true
}

// Task returns the stored task with id.
func (f *FakeService) Task(id int64) (service.Task, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	i := slices.IndexFunc(f.tasks, func(t service.Task) bool { return t.ID == id })
	if i < 0 {
		return service.Task{}, false
	}
	return f.tasks[i], true
}

func (f *FakeService) record(method string, arg any) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Method: method, Arg: arg})
	f.mu.Unlock()
}

func (f *FakeService) allocID() int64 {
	id := f.nextID
	f.nextID++
	return id
}

// stamp returns strictly increasing creation times so newest-first
// ordering is deterministic.
func (f *FakeService) stamp() service.Timestamp {
	f.now = f.now.Add(time.Minute)
	return service.Timestamp{Time: f.now}
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, creds service.Credentials) (string, error) {
	f.record("Login", creds.Username)
	if f.LoginErr != nil {
		return "", f.LoginErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if pw, ok := f.users[creds.Username]; !ok || pw != creds.Password {
		return "", service.ErrUnauthorized
	}
	return f.Token, nil
}

// Register implements service.Service.
func (f *FakeService) Register(ctx context.Context, reg service.Registration) error {
	f.record("Register", reg.Username)
	if f.RegisterErr != nil {
		return f.RegisterErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[reg.Username]; ok {
		return &service.RequestError{Status: 409, Payload: "username already taken"}
	}
	f.users[reg.Username] = reg.Password
	return nil
}

// ListNotes implements service.Service.
func (f *FakeService) ListNotes(ctx context.Context, q service.NoteQuery) (service.Page[service.Note], error) {
	f.record("ListNotes", q)
	if f.ListNotesErr != nil {
		return service.Page[service.Note]{}, f.ListNotesErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	var matched []service.Note
	for _, n := range newestFirst(f.notes) {
		if !contains(q.Q, n.Title, n.Content) || !hasTags(n.Tags, q.Tags) {
			continue
		}
		if q.Pinned != nil && n.Pinned != *q.Pinned {
			continue
		}
		matched = append(matched, n)
	}
	return paginate(matched, q.Page, q.Size), nil
}

// GetNote implements service.Service.
func (f *FakeService) GetNote(ctx context.Context, id int64) (service.Note, error) {
	f.record("GetNote", id)
	if f.GetNoteErr != nil {
		return service.Note{}, f.GetNoteErr
	}
	if n, ok := f.Note(id); ok {
		return n, nil
	}
	return service.Note{}, service.ErrNotFound
}

// CreateNote implements service.Service.
func (f *FakeService) CreateNote(ctx context.Context, in service.NoteInput) (service.Note, error) {
	f.record("CreateNote", in)
	if f.CreateNoteErr != nil {
		return service.Note{}, f.CreateNoteErr
	}
	return f.AddNote(service.Note{
		Title: in.Title, Content: in.Content, Tags: in.Tags, Pinned: in.Pinned, Archived: in.Archived,
	}), nil
}

// UpdateNote implements service.Service.
func (f *FakeService) UpdateNote(ctx context.Context, id int64, in service.NoteInput) (service.Note, error) {
	f.record("UpdateNote", in)
	if f.UpdateNoteErr != nil {
		return service.Note{}, f.UpdateNoteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.notes {
		if n.ID == id {
			n.Title, n.Content, n.Tags, n.Pinned, n.Archived = in.Title, in.Content, in.Tags, in.Pinned, in.Archived
			n.UpdatedAt = f.stamp()
			f.notes[i] = n
			return n, nil
		}
	}
	return service.Note{}, service.ErrNotFound
}

// DeleteNote implements service.Service.
func (f *FakeService) DeleteNote(ctx context.Context, id int64) error {
	f.record("DeleteNote", id)
	if f.DeleteNoteErr != nil {
		return f.DeleteNoteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return remove(&f.notes, id)
}

// ListBookmarks implements service.Service.
func (f *FakeService) ListBookmarks(ctx context.Context, q service.BookmarkQuery) (service.Page[service.Bookmark], error) {
	f.record("ListBookmarks", q)
	if f.ListBookmarksErr != nil {
		return service.Page[service.Bookmark]{}, f.ListBookmarksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	var matched []service.Bookmark
	for _, b := range newestFirst(f.bookmarks) {
		if !contains(q.Q, b.Title, b.URL, b.Description) || !hasTags(b.Tags, q.Tags) {
			continue
		}
		if q.Category != "" && !strings.EqualFold(q.Category, b.Category) {
			continue
		}
		matched = append(matched, b)
	}
	return paginate(matched, q.Page, q.Size), nil
}

// GetBookmark implements service.Service.
func (f *FakeService) GetBookmark(ctx context.Context, id int64) (service.Bookmark, error) {
	f.record("GetBookmark", id)
	if f.GetBookmarkErr != nil {
		return service.Bookmark{}, f.GetBookmarkErr
	}
	if b, ok := f.Bookmark(id); ok {
		return b, nil
	}
	return service.Bookmark{}, service.ErrNotFound
}

// CreateBookmark implements service.Service.
func (f *FakeService) CreateBookmark(ctx context.Context, in service.BookmarkInput) (service.Bookmark, error) {
	f.record("CreateBookmark", in)
	if f.CreateBookmarkErr != nil {
		return service.Bookmark{}, f.CreateBookmarkErr
	}
	return f.AddBookmark(service.Bookmark{
		URL: in.URL, Title: in.Title, Description: in.Description, Category: in.Category, Tags: in.Tags,
	}), nil
}

// UpdateBookmark implements service.Service.
func (f *FakeService) UpdateBookmark(ctx context.Context, id int64, in service.BookmarkInput) (service.Bookmark, error) {
	f.record("UpdateBookmark", in)
	if f.UpdateBookmarkErr != nil {
		return service.Bookmark{}, f.UpdateBookmarkErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, b := range f.bookmarks {
		if b.ID == id {
			b.URL, b.Title, b.Description, b.Category, b.Tags = in.URL, in.Title, in.Description, in.Category, in.Tags
			f.bookmarks[i] = b
			return b, nil
		}
	}
	return service.Bookmark{}, service.ErrNotFound
}

// DeleteBookmark implements service.Service.
func (f *FakeService) DeleteBookmark(ctx context.Context, id int64) error {
	f.record("DeleteBookmark", id)
	if f.DeleteBookmarkErr != nil {
		return f.DeleteBookmarkErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return remove(&f.bookmarks, id)
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context, q service.TaskQuery) (service.Page[service.Task], error) {
	f.record("ListTasks", q)
	if f.ListTasksErr != nil {
		return service.Page[service.Task]{}, f.ListTasksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	var matched []service.Task
	for _, t := range newestFirst(f.tasks) {
		if !contains(q.Q, t.Text) {
			continue
		}
		if q.Status != "" && t.Status != q.Status {
			continue
		}
		if q.Priority != "" && t.Priority != q.Priority {
			continue
		}
		matched = append(matched, t)
	}
	return paginate(matched, q.Page, q.Size), nil
}

// GetTask implements service.Service.
func (f *FakeService) GetTask(ctx context.Context, id int64) (service.Task, error) {
	f.record("GetTask", id)
	if f.GetTaskErr != nil {
		return service.Task{}, f.GetTaskErr
	}
	if t, ok := f.Task(id); ok {
		return t, nil
	}
	return service.Task{}, service.ErrNotFound
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, in service.TaskInput) (service.Task, error) {
	f.record("CreateTask", in)
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	return f.AddTask(service.Task{Text: in.Text, Status: in.Status, Priority: in.Priority, DueDate: in.DueDate}), nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id int64, in service.TaskInput) (service.Task, error) {
	f.record("UpdateTask", in)
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			t.Text, t.Status, t.Priority, t.DueDate = in.Text, in.Status, in.Priority, in.DueDate
			f.tasks[i] = t
			return t, nil
		}
	}
	return service.Task{}, service.ErrNotFound
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int64) error {
	f.record("DeleteTask", id)
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return remove(&f.tasks, id)
}

// CompleteTask implements service.Service.
func (f *FakeService) CompleteTask(ctx context.Context, id int64) (service.Task, error) {
	f.record("CompleteTask", id)
	if f.CompleteTaskErr != nil {
		return service.Task{}, f.CompleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks[i].Status = service.StatusDone
			return f.tasks[i], nil
		}
	}
	return service.Task{}, service.ErrNotFound
}

func newestFirst[T any](in []T) []T {
	out := slices.Clone(in)
	slices.Reverse(out)
	return out
}

func contains(q string, fields ...string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func hasTags(have, want []string) bool {
	for _, w := range want {
		if !slices.Contains(have, w) {
			return false
		}
	}
	return true
}

func paginate[T any](all []T, page, size int) service.Page[T] {
	if size <= 0 {
		size = 20
	}
	total := len(all)
	start := page * size
	if start > total {
		start = total
	}
	end := min(start+size, total)
	return service.Page[T]{
		Content:       append([]T{}, all[start:end]...),
		TotalElements: int64(total),
		TotalPages:    (total + size - 1) / size,
		Number:        page,
		Size:          size,
	}
}

func remove[T service.Entity](items *[]T, id int64) error {
	i := slices.IndexFunc(*items, func(e T) bool { return e.EntityID() == id })
	if i < 0 {
		return fmt.Errorf("delete %d: %w", id, service.ErrNotFound)
	}
	*items = slices.Delete(*items, i, i+1)
	return nil
}
