// Package main is the entry point for the stash CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"stash/internal/backend/rest"
	"stash/internal/cli"
	"stash/internal/commands"
	"stash/internal/config"
	"stash/internal/logging"
	"stash/internal/service"
	"stash/internal/session"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// The session signs requests and is dropped when the server rejects it.
	factory := func(ctx context.Context, cfg *config.Config, sess *session.Manager, log logging.Logger) (service.Service, error) {
		return rest.New(rest.Options{
			BaseURL:           cfg.API.BaseURL,
			Timeout:           cfg.API.Timeout,
			RequestsPerSecond: cfg.API.RequestsPerSecond,
			CacheTTL:          cfg.API.CacheTTL,
			TokenSource:       sess,
			OnUnauthorized: func(ctx context.Context) {
				if err := sess.Logout(ctx); err != nil {
					log.Warnf(ctx, "clear rejected session: %v", err)
				}
			},
			Logger: log,
		})
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}
