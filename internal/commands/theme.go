package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"stash/internal/app"
	"stash/internal/exitcode"
	"stash/internal/theme"
)

func init() {
	Register(&ThemeCmd{})
}

// ThemeCmd prints or changes the stored theme.
type ThemeCmd struct{}

func (c *ThemeCmd) Name() string                    { return "theme" }
func (c *ThemeCmd) Aliases() []string               { return nil }
func (c *ThemeCmd) Synopsis() string                { return "Show or set the theme" }
func (c *ThemeCmd) Usage() string                   { return "stash theme [light|dark|toggle]" }
func (c *ThemeCmd) NeedsAuth() bool                 { return false }
func (c *ThemeCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *ThemeCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	switch len(args) {
	case 0:
		fmt.Fprintln(out, a.Theme.Current())
		return exitcode.Success
	case 1:
	default:
		return usageError(errOut, "unexpected argument: %s", args[1])
	}

	var (
		mode theme.Mode
		err  error
	)
	if args[0] == "toggle" {
		mode, err = a.Theme.Toggle(ctx)
	} else if mode, err = theme.ParseMode(args[0]); err == nil {
		err = a.Theme.Set(ctx, mode)
	} else {
		return usageError(errOut, "%v", err)
	}
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to save theme: %v\n", err)
		return exitcode.BackendError
	}
	return ok(a, out, string(mode))
}
