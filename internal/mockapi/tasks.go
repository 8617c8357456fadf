package mockapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stash/internal/service"
)

func normalizeTask(in *service.TaskInput) string {
	if strings.TrimSpace(in.Text) == "" {
		return "text is required"
	}
	if in.Status == "" {
		in.Status = service.StatusPending
	}
	if in.Priority == "" {
		in.Priority = service.PriorityMedium
	}
	if !in.Status.Valid() {
		return "invalid status"
	}
	if !in.Priority.Valid() {
		return "invalid priority"
	}
	return ""
}

func (s *Server) listTasks(c *gin.Context) {
	pr := parsePageRequest(c)
	status := service.TaskStatus(strings.ToUpper(c.Query("status")))
	priority := service.Priority(strings.ToUpper(c.Query("priority")))
	user := username(c)

	s.mu.Lock()
	var matched []service.Task
	for _, t := range s.tasks {
		if t.owner != user || !pr.matches(t.Text) {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		if priority != "" && t.Priority != priority {
			continue
		}
		matched = append(matched, t.Task)
	}
	s.mu.Unlock()
	respondPage(c, pr, matched)
}

func (s *Server) createTask(c *gin.Context) {
	var in service.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abort(c, http.StatusBadRequest, "invalid request payload")
		return
	}
	if msg := normalizeTask(&in); msg != "" {
		abort(c, http.StatusBadRequest, msg)
		return
	}
	c.JSON(http.StatusCreated, s.AddTask(username(c), in))
}

// AddTask stores a task for owner and returns it. Empty status and
// priority default to PENDING and MEDIUM.
func (s *Server) AddTask(owner string, in service.TaskInput) service.Task {
	normalizeTask(&in)
	s.mu.Lock()
	defer s.mu.Unlock()
	t := service.Task{
		ID:        s.allocID(),
		Text:      in.Text,
		Status:    in.Status,
		Priority:  in.Priority,
		DueDate:   in.DueDate,
		CreatedAt: s.stamp(),
	}
	s.tasks = append(s.tasks, ownedTask{owner: owner, Task: t})
	return t
}

func (s *Server) findTask(c *gin.Context) (int, bool) {
	id, ok := pathID(c)
	if !ok {
		return 0, false
	}
	user := username(c)
	for i, t := range s.tasks {
		if t.ID == id && t.owner == user {
			return i, true
		}
	}
	abort(c, http.StatusNotFound, "task not found")
	return 0, false
}

func (s *Server) getTask(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.findTask(c); ok {
		c.JSON(http.StatusOK, s.tasks[i].Task)
	}
}

func (s *Server) updateTask(c *gin.Context) {
	var in service.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abort(c, http.StatusBadRequest, "invalid request payload")
		return
	}
	if msg := normalizeTask(&in); msg != "" {
		abort(c, http.StatusBadRequest, msg)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findTask(c)
	if !ok {
		return
	}
	t := &s.tasks[i].Task
	t.Text, t.Status, t.Priority, t.DueDate = in.Text, in.Status, in.Priority, in.DueDate
	c.JSON(http.StatusOK, *t)
}

func (s *Server) completeTask(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findTask(c)
	if !ok {
		return
	}
	s.tasks[i].Status = service.StatusDone
	c.JSON(http.StatusOK, s.tasks[i].Task)
}

func (s *Server) deleteTask(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.findTask(c); ok {
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
		c.Status(http.StatusNoContent)
	}
}
