package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"stash/internal/service"
)

type tokenResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds service.Credentials) (string, error) {
	var resp tokenResponse
	err := c.do(ctx, call{method: http.MethodPost, path: "/auth/login", body: creds, anon: true}, &resp)
	if err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	if resp.Token == "" {
		return "", errors.New("login failed: server returned no token")
	}
	return resp.Token, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, reg service.Registration) error {
	if err := c.do(ctx, call{method: http.MethodPost, path: "/auth/register", body: reg, anon: true}, nil); err != nil {
		return fmt.Errorf("register failed: %w", err)
	}
	return nil
}
