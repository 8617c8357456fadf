package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/spf13/pflag"

	"stash/internal/app"
	"stash/internal/exitcode"
	"stash/internal/mockapi"
)

func init() {
	Register(&MockServerCmd{})
}

// MockServerCmd serves the in-memory API for local demos.
type MockServerCmd struct {
	addr   string
	noSeed bool
}

func (c *MockServerCmd) Name() string      { return "mockserver" }
func (c *MockServerCmd) Aliases() []string { return nil }
func (c *MockServerCmd) Synopsis() string  { return "Serve an in-memory API" }
func (c *MockServerCmd) Usage() string     { return "stash mockserver [--addr <host:port>] [--no-seed]" }
func (c *MockServerCmd) NeedsAuth() bool   { return false }
func (c *MockServerCmd) Standalone() bool  { return true }

func (c *MockServerCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "127.0.0.1:8080", "listen address")
	fs.BoolVar(&c.noSeed, "no-seed", false, "start without the demo account")
}

// Handler mounts srv under /api.
func (c *MockServerCmd) Handler(srv *mockapi.Server) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", srv.Handler()))
	return mux
}

func (c *MockServerCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return usageError(errOut, "unexpected argument: %s", args[0])
	}

	srv := mockapi.New(mockapi.Options{Logger: a.Logger})
	if !c.noSeed {
		if err := srv.SeedDemo(); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.BackendError
		}
	}

	ln, err := net.Listen("tcp", c.addr)
	if err != nil {
		return usageError(errOut, "listen %s: %v", c.addr, err)
	}
	hs := &http.Server{Handler: c.Handler(srv), ReadHeaderTimeout: 5 * time.Second}

	if !a.Config.Quiet {
		fmt.Fprintf(out, "serving on http://%s/api\n", ln.Addr())
		if !c.noSeed {
			fmt.Fprintf(out, "demo login: %s / %s\n", mockapi.DemoUsername, mockapi.DemoPassword)
		}
	}

	errc := make(chan error, 1)
	go func() { errc <- hs.Serve(ln) }()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.BackendError
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warnf(ctx, "shutdown: %v", err)
		}
	}
	return exitcode.Success
}
