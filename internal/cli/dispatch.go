// Package cli parses the command line and dispatches to commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"stash/internal/app"
	"stash/internal/commands"
	"stash/internal/config"
	"stash/internal/exitcode"
	"stash/internal/logging"
)

// DefaultCommand runs when no arguments are given.
const DefaultCommand = "ui"

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  app.ServiceFactory
	in       io.Reader
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory app.ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
		in:       os.Stdin,
	}
}

// WithInput sets where prompts read answers from.
func (d *Dispatcher) WithInput(r io.Reader) *Dispatcher {
	d.in = r
	return d
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		return d.dispatch(ctx, DefaultCommand, nil, out, errOut)
	}

	cmdName := args[0]

	// Flags require a command.
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		if s, ok := d.registry.Suggest(cmdName); ok {
			fmt.Fprintf(errOut, "did you mean: stash %s\n", s.Name())
		}
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "override config directory")
	fs.BoolVar(&quiet, "quiet", false, "suppress informational output")
	fs.BoolVar(&debug, "debug", false, "print debug logs to stderr")

	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(out, "usage: %s\n\nFlags:\n%s", cmd.Usage(), fs.FlagUsages())
			return exitcode.Success
		}
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	log, closeLog, err := d.logger(cmd, cfg, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.BackendError
	}
	defer closeLog()

	if commands.IsStandalone(cmd) {
		a := &app.App{Config: cfg, Logger: log, In: d.in}
		return cmd.Run(ctx, a, fs.Args(), out, errOut)
	}

	a, err := app.Open(ctx, cfg, log, d.factory)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.BackendError
	}
	defer a.Close()
	a.In = d.in

	if cmd.NeedsAuth() && !a.Session.IsAuthenticated() {
		fmt.Fprintf(errOut, "error: not logged in (run: stash login)\n")
		return exitcode.AuthError
	}

	return cmd.Run(ctx, a, fs.Args(), out, errOut)
}

// logger picks the log sink: the log file for commands that own the
// terminal, stderr with --debug, otherwise nothing.
func (d *Dispatcher) logger(cmd commands.Command, cfg *config.Config, errOut io.Writer) (logging.Logger, func(), error) {
	zcfg := logging.ZapConfig{
		Level:        cfg.Logger.Level,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	}
	if cfg.Debug {
		zcfg.Level = "debug"
	}

	if commands.LogsToFile(cmd) {
		if err := cfg.EnsureDir(); err != nil {
			return nil, nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		f, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		zcfg.ColorEnabled = false
		return logging.New(zcfg, f), func() { _ = f.Close() }, nil
	}
	if cfg.Debug {
		return logging.New(zcfg, errOut), func() {}, nil
	}
	return logging.NewNop(), func() {}, nil
}
