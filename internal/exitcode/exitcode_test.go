package exitcode_test

import (
	"errors"
	"fmt"
	"testing"

	"stash/internal/exitcode"
	"stash/internal/page"
	"stash/internal/service"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitcode.Success},
		{"validation", &page.ValidationError{Field: "title", Message: "Title is required"}, exitcode.UserError},
		{"not found", fmt.Errorf("/notes/1: %w", service.ErrNotFound), exitcode.UserError},
		{"unauthorized", service.ErrUnauthorized, exitcode.AuthError},
		{"bad login", fmt.Errorf("login failed: %w", &service.RequestError{Status: 401}), exitcode.AuthError},
		{"conflict", &service.RequestError{Status: 409}, exitcode.UserError},
		{"server", &service.RequestError{Status: 500}, exitcode.BackendError},
		{"timeout", service.ErrTimeout, exitcode.BackendError},
		{"other", errors.New("connection refused"), exitcode.BackendError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitcode.FromError(tt.err); got != tt.want {
				t.Errorf("FromError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
