package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"stash/internal/app"
	"stash/internal/exitcode"
	"stash/internal/output"
	"stash/internal/page"
	"stash/internal/service"
)

func init() {
	Register(&TasksCmd{})
	Register(&AddTaskCmd{})
	Register(&EditTaskCmd{})
	Register(&DoneCmd{})
	Register(&RmTaskCmd{})
}

func newTasks(ctx context.Context, a *app.App, size int) *page.Tasks {
	if size <= 0 {
		size = a.Config.Pages.TasksSize
	}
	return page.NewTasks(ctx, a.Service, a.PageOptions(size))
}

// TasksCmd lists tasks.
type TasksCmd struct {
	search   string
	status   string
	priority string
	page     int
	size     int
}

func (c *TasksCmd) Name() string      { return "tasks" }
func (c *TasksCmd) Aliases() []string { return nil }
func (c *TasksCmd) Synopsis() string  { return "List tasks" }
func (c *TasksCmd) Usage() string {
	return "stash tasks [-q <text>] [--status PENDING|DONE] [--priority LOW|MEDIUM|HIGH] [--page <n>]"
}
func (c *TasksCmd) NeedsAuth() bool { return true }

func (c *TasksCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.search, "search", "q", "", "search text")
	fs.StringVar(&c.status, "status", "", "PENDING or DONE")
	fs.StringVar(&c.priority, "priority", "", "LOW, MEDIUM or HIGH")
	fs.IntVar(&c.page, "page", 1, "page number")
	fs.IntVar(&c.size, "size", 0, "page size")
}

func (c *TasksCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return usageError(errOut, "unexpected argument: %s", args[0])
	}
	idx, err := pageIndex(c.page)
	if err != nil {
		return usageError(errOut, "%v", err)
	}
	var (
		status   service.TaskStatus
		priority service.Priority
	)
	if c.status != "" {
		if status, err = service.ParseStatus(c.status); err != nil {
			return usageError(errOut, "%v", err)
		}
	}
	if c.priority != "" {
		if priority, err = service.ParsePriority(c.priority); err != nil {
			return usageError(errOut, "%v", err)
		}
	}

	ctrl := newTasks(ctx, a, c.size)
	defer ctrl.Close()
	ctrl.SetSearch(c.search)
	ctrl.SetStatusFilter(status)
	ctrl.SetPriorityFilter(priority)
	ctrl.SetPage(idx)

	p, err := ctrl.Refresh(ctx)
	if err != nil {
		return fail(errOut, err)
	}
	if len(p.Content) == 0 {
		return ok(a, out, "no tasks")
	}
	now := time.Now()
	for _, t := range p.Content {
		output.FormatTask(out, t, now)
	}
	if !a.Config.Quiet {
		output.FormatPageFooter(out, p)
	}
	return exitcode.Success
}

// AddTaskCmd creates a task.
type AddTaskCmd struct {
	priority string
	status   string
	due      string
}

func (c *AddTaskCmd) Name() string      { return "addtask" }
func (c *AddTaskCmd) Aliases() []string { return []string{"add", "task"} }
func (c *AddTaskCmd) Synopsis() string  { return "Create a task" }
func (c *AddTaskCmd) Usage() string {
	return "stash addtask [--priority LOW|MEDIUM|HIGH] [--due YYYY-MM-DD] [--status PENDING|DONE] <text...>"
}
func (c *AddTaskCmd) NeedsAuth() bool { return true }

func (c *AddTaskCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.priority, "priority", string(service.PriorityMedium), "LOW, MEDIUM or HIGH")
	fs.StringVar(&c.status, "status", string(service.StatusPending), "PENDING or DONE")
	fs.StringVar(&c.due, "due", "", "due date (YYYY-MM-DD)")
}

func (c *AddTaskCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	ctrl := newTasks(ctx, a, 0)
	defer ctrl.Close()
	ctrl.Open(nil)
	ctrl.SetDraft(page.TaskDraft{
		Text:     strings.Join(args, " "),
		Status:   service.TaskStatus(strings.ToUpper(c.status)),
		Priority: service.Priority(strings.ToUpper(c.priority)),
		DueDate:  c.due,
	})
	t, err := ctrl.Submit(ctx)
	if err != nil {
		return fail(errOut, err)
	}
	return ok(a, out, fmt.Sprintf("created task %d", t.ID))
}

// EditTaskCmd updates the fields given as flags and keeps the rest.
type EditTaskCmd struct {
	fs       *pflag.FlagSet
	text     string
	priority string
	status   string
	due      string
	noDue    bool
}

func (c *EditTaskCmd) Name() string      { return "edittask" }
func (c *EditTaskCmd) Aliases() []string { return nil }
func (c *EditTaskCmd) Synopsis() string  { return "Edit a task" }
func (c *EditTaskCmd) Usage() string {
	return "stash edittask [--text <text>] [--priority <p>] [--status <s>] [--due YYYY-MM-DD|--no-due] <id>"
}
func (c *EditTaskCmd) NeedsAuth() bool { return true }

func (c *EditTaskCmd) RegisterFlags(fs *pflag.FlagSet) {
	c.fs = fs
	fs.StringVar(&c.text, "text", "", "task text")
	fs.StringVar(&c.priority, "priority", "", "LOW, MEDIUM or HIGH")
	fs.StringVar(&c.status, "status", "", "PENDING or DONE")
	fs.StringVar(&c.due, "due", "", "due date (YYYY-MM-DD)")
	fs.BoolVar(&c.noDue, "no-due", false, "clear the due date")
}

func (c *EditTaskCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	id, valid := idArg(args, errOut)
	if !valid {
		return exitcode.UserError
	}
	if c.noDue && c.fs.Changed("due") {
		return usageError(errOut, "--due and --no-due are mutually exclusive")
	}
	task, err := a.Service.GetTask(ctx, id)
	if err != nil {
		return fail(errOut, err)
	}

	ctrl := newTasks(ctx, a, 0)
	defer ctrl.Close()
	ctrl.Open(&task)
	d := ctrl.Draft()
	if c.fs.Changed("text") {
		d.Text = c.text
	}
	if c.fs.Changed("priority") {
		d.Priority = service.Priority(strings.ToUpper(c.priority))
	}
	if c.fs.Changed("status") {
		d.Status = service.TaskStatus(strings.ToUpper(c.status))
	}
	switch {
	case c.noDue:
		d.DueDate = ""
	case c.fs.Changed("due"):
		d.DueDate = c.due
	}
	ctrl.SetDraft(d)
	if _, err := ctrl.Submit(ctx); err != nil {
		return fail(errOut, err)
	}
	return ok(a, out, "ok")
}

// DoneCmd toggles a task between PENDING and DONE.
type DoneCmd struct{}

func (c *DoneCmd) Name() string                    { return "done" }
func (c *DoneCmd) Aliases() []string               { return []string{"complete", "toggle"} }
func (c *DoneCmd) Synopsis() string                { return "Toggle a task done or pending" }
func (c *DoneCmd) Usage() string                   { return "stash done <id>" }
func (c *DoneCmd) NeedsAuth() bool                 { return true }
func (c *DoneCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	id, valid := idArg(args, errOut)
	if !valid {
		return exitcode.UserError
	}
	task, err := a.Service.GetTask(ctx, id)
	if err != nil {
		return fail(errOut, err)
	}
	ctrl := newTasks(ctx, a, 0)
	defer ctrl.Close()
	saved, err := ctrl.ToggleComplete(ctx, task)
	if err != nil {
		return fail(errOut, err)
	}
	if saved.Status == service.StatusDone {
		return ok(a, out, "done")
	}
	return ok(a, out, "reopened")
}

// RmTaskCmd deletes a task after confirmation.
type RmTaskCmd struct {
	yes bool
}

func (c *RmTaskCmd) Name() string      { return "rmtask" }
func (c *RmTaskCmd) Aliases() []string { return []string{"rm"} }
func (c *RmTaskCmd) Synopsis() string  { return "Delete a task" }
func (c *RmTaskCmd) Usage() string     { return "stash rmtask [-y] <id>" }
func (c *RmTaskCmd) NeedsAuth() bool   { return true }

func (c *RmTaskCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.yes, "yes", "y", false, "skip confirmation")
}

func (c *RmTaskCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	id, valid := idArg(args, errOut)
	if !valid {
		return exitcode.UserError
	}
	ctrl := newTasks(ctx, a, 0)
	defer ctrl.Close()
	return deleted(a, out, errOut)(ctrl.Delete(ctx, id, a.Confirmer(errOut, c.yes)))
}
