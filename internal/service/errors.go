package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the entity does not exist on the server.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned for 401/403 responses and when no session
	// token is available.
	ErrUnauthorized = errors.New("not logged in (run: stash login)")

	// ErrTimeout is returned when a request exceeds its deadline.
	ErrTimeout = errors.New("request timed out")
)

// RequestError is a non-2xx response that is neither auth nor not-found.
// Payload holds the server body verbatim.
type RequestError struct {
	Status  int
	Payload string
}

func (e *RequestError) Error() string {
	p := strings.TrimSpace(e.Payload)
	if p == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, p)
}

// IsAuthFailure reports whether err is ErrUnauthorized or a 401/403
// response. Failed logins surface as the latter since they carry no token.
func IsAuthFailure(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var re *RequestError
	return errors.As(err, &re) && (re.Status == 401 || re.Status == 403)
}
