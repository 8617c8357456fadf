package mockapi

import (
	"fmt"
	"time"

	"stash/internal/service"
)

// Demo account created by SeedDemo.
const (
	DemoUsername = "demo"
	DemoPassword = "demo1234"
)

// SeedDemo creates the demo account with a handful of entries.
func (s *Server) SeedDemo() error {
	err := s.AddAccount(service.Registration{
		Username: DemoUsername,
		Email:    DemoUsername + "@example.org",
		Password: DemoPassword,
	})
	if err != nil {
		return fmt.Errorf("seed demo account: %w", err)
	}

	s.AddNote(DemoUsername, service.NoteInput{
		Title:   "Welcome",
		Content: "# Welcome to stash\n\nNotes are **markdown**. Press `e` to edit this one.",
		Tags:    []string{"intro"},
		Pinned:  true,
	})
	s.AddNote(DemoUsername, service.NoteInput{
		Title:   "Groceries",
		Content: "- eggs\n- coffee\n- bread",
		Tags:    []string{"home", "lists"},
	})
	s.AddBookmark(DemoUsername, service.BookmarkInput{
		URL:      "https://go.dev/doc/effective_go",
		Title:    "Effective Go",
		Category: "reading",
		Tags:     []string{"go"},
	})
	s.AddBookmark(DemoUsername, service.BookmarkInput{
		URL:      "https://github.com/charmbracelet/bubbletea",
		Title:    "Bubble Tea",
		Category: "tools",
		Tags:     []string{"go", "tui"},
	})

	today := service.DateOf(s.now())
	tomorrow := service.DateOf(s.now().Add(24 * time.Hour))
	s.AddTask(DemoUsername, service.TaskInput{Text: "Try the TUI", Priority: service.PriorityHigh, DueDate: &today})
	s.AddTask(DemoUsername, service.TaskInput{Text: "Write a note", DueDate: &tomorrow})
	s.AddTask(DemoUsername, service.TaskInput{Text: "Log in", Status: service.StatusDone, Priority: service.PriorityLow})
	return nil
}
