package mockapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"stash/internal/service"
)

func (s *Server) listNotes(c *gin.Context) {
	pr := parsePageRequest(c)
	var pinned *bool
	if raw := c.Query("pinned"); raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			pinned = &b
		}
	}
	user := username(c)

	s.mu.Lock()
	var matched []service.Note
	for _, n := range s.notes {
		if n.owner != user || !pr.matches(n.Title, n.Content) || !pr.hasTags(n.Tags) {
			continue
		}
		if pinned != nil && n.Pinned != *pinned {
			continue
		}
		matched = append(matched, n.Note)
	}
	s.mu.Unlock()
	respondPage(c, pr, matched)
}

func (s *Server) createNote(c *gin.Context) {
	var in service.NoteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abort(c, http.StatusBadRequest, "invalid request payload")
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		abort(c, http.StatusBadRequest, "title is required")
		return
	}
	c.JSON(http.StatusCreated, s.AddNote(username(c), in))
}

// AddNote stores a note for owner and returns it.
func (s *Server) AddNote(owner string, in service.NoteInput) service.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.stamp()
	n := service.Note{
		ID:        s.allocID(),
		Title:     in.Title,
		Content:   in.Content,
		Tags:      nonNil(in.Tags),
		Pinned:    in.Pinned,
		Archived:  in.Archived,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.notes = append(s.notes, ownedNote{owner: owner, Note: n})
	return n
}

func (s *Server) findNote(c *gin.Context) (int, bool) {
	id, ok := pathID(c)
	if !ok {
		return 0, false
	}
	user := username(c)
	for i, n := range s.notes {
		if n.ID == id && n.owner == user {
			return i, true
		}
	}
	abort(c, http.StatusNotFound, "note not found")
	return 0, false
}

func (s *Server) getNote(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.findNote(c); ok {
		c.JSON(http.StatusOK, s.notes[i].Note)
	}
}

func (s *Server) updateNote(c *gin.Context) {
	var in service.NoteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abort(c, http.StatusBadRequest, "invalid request payload")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findNote(c)
	if !ok {
		return
	}
	n := &s.notes[i].Note
	n.Title, n.Content, n.Tags, n.Pinned, n.Archived = in.Title, in.Content, nonNil(in.Tags), in.Pinned, in.Archived
	n.UpdatedAt = s.stamp()
	c.JSON(http.StatusOK, *n)
}

func (s *Server) deleteNote(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.findNote(c); ok {
		s.notes = append(s.notes[:i], s.notes[i+1:]...)
		c.Status(http.StatusNoContent)
	}
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
