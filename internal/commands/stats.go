package commands

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"stash/internal/app"
	"stash/internal/exitcode"
	"stash/internal/output"
	"stash/internal/page"
)

func init() {
	Register(&StatsCmd{})
}

// StatsCmd prints the home screen totals.
type StatsCmd struct{}

func (c *StatsCmd) Name() string                    { return "stats" }
func (c *StatsCmd) Aliases() []string               { return []string{"home"} }
func (c *StatsCmd) Synopsis() string                { return "Show totals" }
func (c *StatsCmd) Usage() string                   { return "stash stats" }
func (c *StatsCmd) NeedsAuth() bool                 { return true }
func (c *StatsCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *StatsCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	s, err := page.NewHome(a.Service).Load(ctx)
	if err != nil {
		return fail(errOut, err)
	}
	output.FormatStats(out, s)
	return exitcode.Success
}
