package rest

import (
	"context"
	"net/http"

	"stash/internal/service"
)

const tasksResource = "tasks"

func taskParams(q service.TaskQuery) params {
	return pageParams(q.Page, q.Size).
		set("sort", q.Sort).
		set("q", q.Q).
		set("status", string(q.Status)).
		set("priority", string(q.Priority))
}

// ListTasks returns one page of tasks.
func (c *Client) ListTasks(ctx context.Context, q service.TaskQuery) (service.Page[service.Task], error) {
	var page service.Page[service.Task]
	err := c.do(ctx, call{method: http.MethodGet, path: "/" + tasksResource, query: valuesOf(taskParams(q))}, &page)
	return page, err
}

// GetTask returns a single task.
func (c *Client) GetTask(ctx context.Context, id int64) (service.Task, error) {
	return get[service.Task](ctx, c, tasksResource, id)
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, in service.TaskInput) (service.Task, error) {
	var t service.Task
	err := c.do(ctx, call{method: http.MethodPost, path: "/" + tasksResource, body: in}, &t)
	return t, err
}

// UpdateTask replaces a task.
func (c *Client) UpdateTask(ctx context.Context, id int64, in service.TaskInput) (service.Task, error) {
	defer c.mutating(tasksResource, id)()
	var t service.Task
	err := c.do(ctx, call{method: http.MethodPut, path: entityPath(tasksResource, id), body: in}, &t)
	return t, err
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	defer c.mutating(tasksResource, id)()
	return c.do(ctx, call{method: http.MethodDelete, path: entityPath(tasksResource, id)}, nil)
}

// CompleteTask marks a task DONE via PATCH /tasks/{id}/complete.
func (c *Client) CompleteTask(ctx context.Context, id int64) (service.Task, error) {
	defer c.mutating(tasksResource, id)()
	var t service.Task
	err := c.do(ctx, call{method: http.MethodPatch, path: entityPath(tasksResource, id) + "/complete"}, &t)
	return t, err
}
