package mockapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stash/internal/service"
)

func validBookmark(in service.BookmarkInput) string {
	u := strings.TrimSpace(in.URL)
	if u == "" {
		return "url is required"
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return "url must be absolute"
	}
	return ""
}

func (s *Server) listBookmarks(c *gin.Context) {
	pr := parsePageRequest(c)
	category := strings.TrimSpace(c.Query("category"))
	user := username(c)

	s.mu.Lock()
	var matched []service.Bookmark
	for _, b := range s.bookmarks {
		if b.owner != user || !pr.matches(b.Title, b.URL, b.Description) || !pr.hasTags(b.Tags) {
			continue
		}
		if category != "" && !strings.EqualFold(b.Category, category) {
			continue
		}
		matched = append(matched, b.Bookmark)
	}
	s.mu.Unlock()
	respondPage(c, pr, matched)
}

func (s *Server) createBookmark(c *gin.Context) {
	var in service.BookmarkInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abort(c, http.StatusBadRequest, "invalid request payload")
		return
	}
	if msg := validBookmark(in); msg != "" {
		abort(c, http.StatusBadRequest, msg)
		return
	}
	c.JSON(http.StatusCreated, s.AddBookmark(username(c), in))
}

// AddBookmark stores a bookmark for owner and returns it.
func (s *Server) AddBookmark(owner string, in service.BookmarkInput) service.Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := service.Bookmark{
		ID:          s.allocID(),
		URL:         in.URL,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Tags:        nonNil(in.Tags),
		CreatedAt:   s.stamp(),
	}
	s.bookmarks = append(s.bookmarks, ownedBookmark{owner: owner, Bookmark: b})
	return b
}

func (s *Server) findBookmark(c *gin.Context) (int, bool) {
	id, ok := pathID(c)
	if !ok {
		return 0, false
	}
	user := username(c)
	for i, b := range s.bookmarks {
		if b.ID == id && b.owner == user {
			return i, true
		}
	}
	abort(c, http.StatusNotFound, "bookmark not found")
	return 0, false
}

func (s *Server) getBookmark(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.findBookmark(c); ok {
		c.JSON(http.StatusOK, s.bookmarks[i].Bookmark)
	}
}

func (s *Server) updateBookmark(c *gin.Context) {
	var in service.BookmarkInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abort(c, http.StatusBadRequest, "invalid request payload")
		return
	}
	if msg := validBookmark(in); msg != "" {
		abort(c, http.StatusBadRequest, msg)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findBookmark(c)
	if !ok {
		return
	}
	b := &s.bookmarks[i].Bookmark
	b.URL, b.Title, b.Description, b.Category, b.Tags = in.URL, in.Title, in.Description, in.Category, nonNil(in.Tags)
	c.JSON(http.StatusOK, *b)
}

func (s *Server) deleteBookmark(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.findBookmark(c); ok {
		s.bookmarks = append(s.bookmarks[:i], s.bookmarks[i+1:]...)
		c.Status(http.StatusNoContent)
	}
}
