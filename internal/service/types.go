package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Entity is anything with a server-assigned id.
type Entity interface {
	EntityID() int64
}

// Page is one server-paginated slice of a collection.
// Number is 0-based.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}

// Note represents a single note.
type Note struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	Pinned    bool      `json:"pinned"`
	Archived  bool      `json:"archived"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

func (n Note) EntityID() int64 { return n.ID }

// Input returns the full write payload for n.
func (n Note) Input() NoteInput {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return NoteInput{
		Title:    n.Title,
		Content:  n.Content,
		Tags:     append([]string(nil), tags...),
		Pinned:   n.Pinned,
		Archived: n.Archived,
	}
}

// NoteInput is the create/update payload for a note.
type NoteInput struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	Pinned   bool     `json:"pinned"`
	Archived bool     `json:"archived"`
}

// NoteQuery holds list filters for notes.
type NoteQuery struct {
	Page   int
	Size   int
	Sort   string
	Q      string
	Tags   []string
	Pinned *bool
}

func (q NoteQuery) PageSize() int { return q.Size }

// Bookmark represents a saved link.
type Bookmark struct {
	ID          int64     `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	CreatedAt   Timestamp `json:"createdAt"`
}

func (b Bookmark) EntityID() int64 { return b.ID }

// Input returns the full write payload for b.
func (b Bookmark) Input() BookmarkInput {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	return BookmarkInput{
		URL:         b.URL,
		Title:       b.Title,
		Description: b.Description,
		Category:    b.Category,
		Tags:        append([]string(nil), tags...),
	}
}

// BookmarkInput is the create/update payload for a bookmark.
type BookmarkInput struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}

// BookmarkQuery holds list filters for bookmarks.
type BookmarkQuery struct {
	Page     int
	Size     int
	Q        string
	Category string
	Tags     []string
}

func (q BookmarkQuery) PageSize() int { return q.Size }

// TaskStatus is PENDING or DONE.
type TaskStatus string

const (
	StatusPending TaskStatus = "PENDING"
	StatusDone    TaskStatus = "DONE"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	return s == StatusPending || s == StatusDone
}

// Priority is LOW, MEDIUM or HIGH.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParseStatus parses a status case-insensitively.
func ParseStatus(s string) (TaskStatus, error) {
	st := TaskStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("invalid status: %s", s)
	}
	return st, nil
}

// ParsePriority parses a priority case-insensitively.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("invalid priority: %s", s)
	}
	return p, nil
}

// Task represents a single to-do item.
type Task struct {
	ID        int64      `json:"id"`
	Text      string     `json:"text"`
	Status    TaskStatus `json:"status"`
	Priority  Priority   `json:"priority"`
	DueDate   *Date      `json:"dueDate"`
	CreatedAt Timestamp  `json:"createdAt"`
}

func (t Task) EntityID() int64 { return t.ID }

// Input returns the full write payload for t.
func (t Task) Input() TaskInput {
	var due *Date
	if t.DueDate != nil {
		d := *t.DueDate
		due = &d
	}
	return TaskInput{
		Text:     t.Text,
		Status:   t.Status,
		Priority: t.Priority,
		DueDate:  due,
	}
}

// Overdue reports whether t has a due date before today and is not done.
func (t Task) Overdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusDone {
		return false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return t.DueDate.Time().Before(today)
}

// TaskInput is the create/update payload for a task.
type TaskInput struct {
	Text     string     `json:"text"`
	Status   TaskStatus `json:"status"`
	Priority Priority   `json:"priority"`
	DueDate  *Date      `json:"dueDate"`
}

// TaskQuery holds list filters for tasks.
type TaskQuery struct {
	Page     int
	Size     int
	Sort     string
	Q        string
	Status   TaskStatus
	Priority Priority
}

func (q TaskQuery) PageSize() int { return q.Size }

// Credentials is the /auth/login payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the /auth/register payload.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	// Some servers send a full timestamp for date columns.
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Timestamp is a server timestamp. It accepts RFC 3339 as well as the
// zone-less ISO form that Java backends commonly emit.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	DateLayout,
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}
