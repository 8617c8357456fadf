package page

import (
	"context"
	"strings"

	"stash/internal/service"
	"stash/internal/store"
)

// TaskDraft is the task form. DueDate is YYYY-MM-DD or empty.
type TaskDraft struct {
	Text     string
	Status   service.TaskStatus
	Priority service.Priority
	DueDate  string
}

func defaultTaskDraft() TaskDraft {
	return TaskDraft{Status: service.StatusPending, Priority: service.PriorityMedium}
}

// Tasks is the tasks screen controller.
type Tasks struct {
	*listing[service.Task, service.TaskQuery, service.TaskInput]

	svc      service.Tasks
	size     int
	search   string
	status   service.TaskStatus
	priority service.Priority

	editing *service.Task
	draft   TaskDraft
}

// NewTasks returns a controller over svc. ctx bounds debounced fetches.
func NewTasks(ctx context.Context, svc service.Tasks, opts Options) *Tasks {
	opts = opts.withDefaults(TasksPageSize)
	t := &Tasks{svc: svc, size: opts.PageSize, draft: defaultTaskDraft()}
	t.listing = newListing(ctx, "tasks", store.NewTasks(svc), opts)
	t.build = func(page int) service.TaskQuery {
		return service.TaskQuery{
			Page:     page,
			Size:     t.size,
			Q:        t.search,
			Status:   t.status,
			Priority: t.priority,
		}
	}
	return t
}

// Search returns the current search text.
func (t *Tasks) Search() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.search
}

// SetSearch changes the search text.
func (t *Tasks) SetSearch(q string) {
	t.filterChanged(func() { t.search = q })
}

// Filters returns the status and priority filters.
func (t *Tasks) Filters() (service.TaskStatus, service.Priority) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status, t.priority
}

// SetStatusFilter changes the status filter; empty shows all.
func (t *Tasks) SetStatusFilter(s service.TaskStatus) {
	t.filterChanged(func() { t.status = s })
}

// SetPriorityFilter changes the priority filter; empty shows all.
func (t *Tasks) SetPriorityFilter(p service.Priority) {
	t.filterChanged(func() { t.priority = p })
}

// Open shows the form, seeded from task when non-nil. A new task defaults
// to PENDING and MEDIUM.
func (t *Tasks) Open(task *service.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.modalOpen = true
	if task == nil {
		t.editing = nil
		t.draft = defaultTaskDraft()
		return
	}
	cp := *task
	t.editing = &cp
	t.draft = TaskDraft{Text: task.Text, Status: task.Status, Priority: task.Priority}
	if task.DueDate != nil {
		t.draft.DueDate = task.DueDate.String()
	}
}

// Draft returns the form contents.
func (t *Tasks) Draft() TaskDraft {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.draft
}

// SetDraft replaces the form contents.
func (t *Tasks) SetDraft(d TaskDraft) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.draft = d
}

// Editing returns the task being edited, or nil.
func (t *Tasks) Editing() *service.Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.editing
}

// CloseModal hides the form and resets the draft.
func (t *Tasks) CloseModal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.modalOpen = false
	t.editing = nil
	t.draft = defaultTaskDraft()
}

// Validate converts a draft into a write payload.
func (d TaskDraft) Validate() (service.TaskInput, error) {
	text := strings.TrimSpace(d.Text)
	if text == "" {
		return service.TaskInput{}, &ValidationError{Field: "text", Message: "Task text is required"}
	}
	status := d.Status
	if status == "" {
		status = service.StatusPending
	}
	if !status.Valid() {
		return service.TaskInput{}, &ValidationError{Field: "status", Message: "Status must be PENDING or DONE"}
	}
	priority := d.Priority
	if priority == "" {
		priority = service.PriorityMedium
	}
	if !priority.Valid() {
		return service.TaskInput{}, &ValidationError{Field: "priority", Message: "Priority must be LOW, MEDIUM or HIGH"}
	}
	in := service.TaskInput{Text: text, Status: status, Priority: priority}
	if due := strings.TrimSpace(d.DueDate); due != "" {
		date, err := service.ParseDate(due)
		if err != nil {
			return service.TaskInput{}, &ValidationError{Field: "dueDate", Message: "Due date must be YYYY-MM-DD"}
		}
		in.DueDate = &date
	}
	return in, nil
}

// Submit validates the draft and creates or updates the task.
func (t *Tasks) Submit(ctx context.Context) (service.Task, error) {
	t.mu.Lock()
	draft, editing := t.draft, t.editing
	t.mu.Unlock()

	in, err := draft.Validate()
	if err != nil {
		return service.Task{}, err
	}

	var saved service.Task
	if editing != nil {
		saved, err = t.slice.Update(ctx, editing.ID, in)
	} else {
		saved, err = t.slice.Create(ctx, in)
	}
	if err != nil {
		return service.Task{}, err
	}
	t.CloseModal()
	t.afterMutation(ctx)
	return saved, nil
}

// Delete asks c to confirm, then deletes the task and refetches.
func (t *Tasks) Delete(ctx context.Context, id int64, c Confirmer) (bool, error) {
	return t.remove(ctx, id, DeleteTaskPrompt, c)
}

// ToggleComplete flips task between PENDING and DONE. Completion goes
// through the dedicated endpoint; reopening sends the full task back with
// status PENDING. Either way the current page is refetched.
func (t *Tasks) ToggleComplete(ctx context.Context, task service.Task) (service.Task, error) {
	var (
		saved service.Task
		err   error
	)
	if task.Status != service.StatusDone {
		saved, err = t.slice.Replace(ctx, func(ctx context.Context) (service.Task, error) {
			return t.svc.CompleteTask(ctx, task.ID)
		})
	} else {
		in := task.Input()
		in.Status = service.StatusPending
		saved, err = t.slice.Update(ctx, task.ID, in)
	}
	if err != nil {
		return service.Task{}, err
	}
	t.afterMutation(ctx)
	return saved, nil
}
