package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"stash/internal/app"
	"stash/internal/exitcode"
	"stash/internal/tui"
)

func init() {
	Register(&UICmd{})
}

// UICmd starts the terminal UI.
type UICmd struct{}

func (c *UICmd) Name() string                    { return "ui" }
func (c *UICmd) Aliases() []string               { return []string{"tui"} }
func (c *UICmd) Synopsis() string                { return "Start the terminal UI" }
func (c *UICmd) Usage() string                   { return "stash ui" }
func (c *UICmd) NeedsAuth() bool                 { return false }
func (c *UICmd) LogsToFile() bool                { return true }
func (c *UICmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *UICmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return usageError(errOut, "unexpected argument: %s", args[0])
	}
	if err := tui.Run(ctx, a); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
