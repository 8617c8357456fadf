// Package app holds the application-scoped values shared by commands and
// the terminal UI.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"stash/internal/config"
	"stash/internal/localstore"
	"stash/internal/logging"
	"stash/internal/page"
	"stash/internal/service"
	"stash/internal/session"
	"stash/internal/theme"
)

// App is constructed once per process and passed down explicitly.
type App struct {
	Config  *config.Config
	Service service.Service
	Session *session.Manager
	Theme   *theme.Manager
	Logger  logging.Logger

	// In is where prompts read answers from.
	In io.Reader

	store  *localstore.Store
	once   sync.Once
	reader *bufio.Reader
}

// ServiceFactory builds the backend. The session is the token source for
// authenticated requests and is cleared when the server rejects it.
type ServiceFactory func(ctx context.Context, cfg *config.Config, sess *session.Manager, log logging.Logger) (service.Service, error)

// Open creates the config directory, opens local storage, restores the
// session and theme, and builds the service.
func Open(ctx context.Context, cfg *config.Config, log logging.Logger, factory ServiceFactory) (*App, error) {
	if log == nil {
		log = logging.NewNop()
	}
	if err := cfg.EnsureDir(); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	store, err := localstore.Open(ctx, cfg.StatePath())
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Session: session.NewManager(store, log),
		Theme:   theme.NewManager(store),
		Logger:  log,
		In:      os.Stdin,
		store:   store,
	}
	if err := a.Session.Restore(ctx); err != nil {
		log.Warnf(ctx, "restore session: %v", err)
	}
	if _, err := a.Theme.Load(ctx); err != nil {
		log.Warnf(ctx, "load theme: %v", err)
	}
	if factory != nil {
		svc, err := factory(ctx, cfg, a.Session, log)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		a.Service = svc
	}
	return a, nil
}

// Close releases local storage and flushes logs.
func (a *App) Close() error {
	_ = a.Logger.Sync()
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// PageOptions returns controller options for the given page size.
func (a *App) PageOptions(size int) page.Options {
	return page.Options{PageSize: size, Debounce: a.Config.Pages.Debounce, Logger: a.Logger}
}

func (a *App) lines() *bufio.Reader {
	a.once.Do(func() {
		in := a.In
		if in == nil {
			in = strings.NewReader("")
		}
		a.reader = bufio.NewReader(in)
	})
	return a.reader
}

// ReadLine prints prompt to w and reads one line from In.
func (a *App) ReadLine(w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	line, err := a.lines().ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", errors.New("no input")
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadSecret reads a line without echo when In is a terminal.
func (a *App) ReadSecret(w io.Writer, prompt string) (string, error) {
	if f, ok := a.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(w, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	return a.ReadLine(w, prompt)
}

// Confirmer returns a page.Confirmer that asks on w and accepts y or yes.
// assumeYes skips the prompt.
func (a *App) Confirmer(w io.Writer, assumeYes bool) page.Confirmer {
	return page.ConfirmFunc(func(prompt string) bool {
		if assumeYes {
			return true
		}
		answer, err := a.ReadLine(w, prompt+" [y/N] ")
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		}
		return false
	})
}
