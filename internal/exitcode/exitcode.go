// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"errors"
	"net/http"

	"stash/internal/page"
	"stash/internal/service"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, validation, not found).
	UserError = 1

	// AuthError indicates a missing, expired or rejected session.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// FromError maps an error onto an exit code.
func FromError(err error) int {
	if err == nil {
		return Success
	}
	if service.IsAuthFailure(err) {
		return AuthError
	}
	var re *service.RequestError
	if errors.As(err, &re) {
		switch re.Status {
		case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
			return UserError
		}
		return BackendError
	}
	if page.IsValidation(err) || errors.Is(err, service.ErrNotFound) {
		return UserError
	}
	return BackendError
}
