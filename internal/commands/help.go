package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"stash/internal/app"
	"stash/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string                    { return "help" }
func (c *HelpCmd) Aliases() []string               { return nil }
func (c *HelpCmd) Synopsis() string                { return "Print usage" }
func (c *HelpCmd) Usage() string                   { return "stash help [command]" }
func (c *HelpCmd) NeedsAuth() bool                 { return false }
func (c *HelpCmd) Standalone() bool                { return true }
func (c *HelpCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(out, helpText)
		return exitcode.Success
	}
	cmd, found := DefaultRegistry.Find(args[0])
	if !found {
		return usageError(errOut, "unknown command: %s", args[0])
	}
	fmt.Fprintf(out, "%s\n\n  %s\n", cmd.Synopsis(), cmd.Usage())
	if aliases := cmd.Aliases(); len(aliases) > 0 {
		fmt.Fprintf(out, "\nAliases: %s\n", strings.Join(aliases, ", "))
	}
	fs := pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError)
	cmd.RegisterFlags(fs)
	if fs.HasFlags() {
		fmt.Fprintf(out, "\nFlags:\n%s", fs.FlagUsages())
	}
	return exitcode.Success
}

const helpText = `Usage:
  stash                                              Start the terminal UI
  stash ui                                           Start the terminal UI
  stash login [common flags] [-u <user>] [-p <password>]
  stash register [common flags] [-u <user>] [-e <email>] [-p <password>]
  stash logout [common flags]
  stash whoami [common flags]
  stash stats [common flags]

  stash notes [common flags] [-q <text>] [--tags <a,b>] [--pinned|--unpinned] [--page <n>]
  stash addnote [common flags] -t <title> [--tags <a,b>] [--pin] [content...]
  stash editnote [common flags] [-t <title>] [-c <content>] [--tags <a,b>] <id>
  stash pin [common flags] <id>
  stash rmnote [common flags] [-y] <id>

  stash bookmarks [common flags] [-q <text>] [--category <name>] [--page <n>]
  stash addbookmark [common flags] [-t <title>] [--category <name>] [--tags <a,b>] <url>
  stash editbookmark [common flags] [--url <url>] [-t <title>] [--category <name>] <id>
  stash rmbookmark [common flags] [-y] <id>

  stash tasks [common flags] [-q <text>] [--status <s>] [--priority <p>] [--page <n>]
  stash addtask [common flags] [--priority <p>] [--due YYYY-MM-DD] <text...>
  stash edittask [common flags] [--text <text>] [--priority <p>] [--due YYYY-MM-DD|--no-due] <id>
  stash done [common flags] <id>
  stash rmtask [common flags] [-y] <id>

  stash theme [common flags] [light|dark|toggle]
  stash mockserver [common flags] [--addr <host:port>] [--no-seed]
  stash help [command]
  stash version

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
