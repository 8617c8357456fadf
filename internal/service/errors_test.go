package service

import (
	"fmt"
	"testing"
)

func TestIsAuthFailure(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrUnauthorized, true},
		{fmt.Errorf("list notes: %w", ErrUnauthorized), true},
		{fmt.Errorf("login failed: %w", &RequestError{Status: 401, Payload: "bad credentials"}), true},
		{&RequestError{Status: 403}, true},
		{&RequestError{Status: 500}, false},
		{ErrNotFound, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsAuthFailure(tt.err); got != tt.want {
			t.Errorf("IsAuthFailure(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestRequestErrorMessage(t *testing.T) {
	if got := (&RequestError{Status: 502}).Error(); got != "server returned 502" {
		t.Errorf("unexpected message %q", got)
	}
	if got := (&RequestError{Status: 409, Payload: " taken\n"}).Error(); got != "server returned 409: taken" {
		t.Errorf("unexpected message %q", got)
	}
}
