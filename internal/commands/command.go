// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"stash/internal/app"
	"stash/internal/exitcode"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires a logged-in session.
	// Commands like help, version, login, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *pflag.FlagSet)

	// Run executes the command.
	// a is always provided; a.Service and a.Session are nil for
	// Standalone commands.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int
}

// Standalone is implemented by commands that need neither local state
// nor a backend.
type Standalone interface {
	Standalone() bool
}

// FileLogger is implemented by commands that own the terminal and so log
// to the log file instead of stderr.
type FileLogger interface {
	LogsToFile() bool
}

// ErrIDRequired indicates no id argument was provided.
var ErrIDRequired = errors.New("id required")

// ParseID parses the single positional id argument. A leading '#' is
// accepted so ids can be pasted from list output.
func ParseID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, ErrIDRequired
	}
	if len(args) > 1 {
		return 0, fmt.Errorf("unexpected argument: %s", args[1])
	}
	raw := strings.TrimPrefix(strings.TrimSpace(args[0]), "#")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id: %s", args[0])
	}
	return id, nil
}

// pageIndex converts a 1-based --page flag to a 0-based index.
func pageIndex(n int) (int, error) {
	if n < 1 {
		return 0, fmt.Errorf("invalid page number: %d", n)
	}
	return n - 1, nil
}

// fail prints err and returns its exit code.
func fail(errOut io.Writer, err error) int {
	code := exitcode.FromError(err)
	if code == exitcode.BackendError {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	} else {
		fmt.Fprintf(errOut, "error: %v\n", err)
	}
	return code
}

// usageError prints msg and returns exitcode.UserError.
func usageError(errOut io.Writer, format string, args ...any) int {
	fmt.Fprintf(errOut, "error: "+format+"\n", args...)
	return exitcode.UserError
}

// ok prints msg unless quiet.
func ok(a *app.App, out io.Writer, msg string) int {
	if !a.Config.Quiet {
		fmt.Fprintln(out, msg)
	}
	return exitcode.Success
}

// idArg parses the id argument and reports usage errors.
func idArg(args []string, errOut io.Writer) (int64, bool) {
	id, err := ParseID(args)
	if err != nil {
		usageError(errOut, "%v", err)
		return 0, false
	}
	return id, true
}
