package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"stash/internal/app"
	"stash/internal/exitcode"
	"stash/internal/output"
	"stash/internal/page"
)

func init() {
	Register(&NotesCmd{})
	Register(&AddNoteCmd{})
	Register(&EditNoteCmd{})
	Register(&PinCmd{})
	Register(&RmNoteCmd{})
}

func newNotes(ctx context.Context, a *app.App, size int) *page.Notes {
	if size <= 0 {
		size = a.Config.Pages.NotesSize
	}
	return page.NewNotes(ctx, a.Service, a.PageOptions(size))
}

// NotesCmd lists notes.
type NotesCmd struct {
	search   string
	tags     string
	pinned   bool
	unpinned bool
	page     int
	size     int
}

func (c *NotesCmd) Name() string      { return "notes" }
func (c *NotesCmd) Aliases() []string { return []string{"ls"} }
func (c *NotesCmd) Synopsis() string  { return "List notes" }
func (c *NotesCmd) Usage() string {
	return "stash notes [-q <text>] [--tags <a,b>] [--pinned|--unpinned] [--page <n>]"
}
func (c *NotesCmd) NeedsAuth() bool { return true }

func (c *NotesCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.search, "search", "q", "", "search text")
	fs.StringVar(&c.tags, "tags", "", "comma-separated tags")
	fs.BoolVar(&c.pinned, "pinned", false, "only pinned notes")
	fs.BoolVar(&c.unpinned, "unpinned", false, "only unpinned notes")
	fs.IntVar(&c.page, "page", 1, "page number")
	fs.IntVar(&c.size, "size", 0, "page size")
}

func (c *NotesCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return usageError(errOut, "unexpected argument: %s", args[0])
	}
	if c.pinned && c.unpinned {
		return usageError(errOut, "--pinned and --unpinned are mutually exclusive")
	}
	idx, err := pageIndex(c.page)
	if err != nil {
		return usageError(errOut, "%v", err)
	}

	ctrl := newNotes(ctx, a, c.size)
	defer ctrl.Close()
	ctrl.SetSearch(c.search)
	ctrl.SetTagFilter(c.tags)
	if c.pinned || c.unpinned {
		pinned := c.pinned
		ctrl.SetPinnedFilter(&pinned)
	}
	ctrl.SetPage(idx)

	p, err := ctrl.Refresh(ctx)
	if err != nil {
		return fail(errOut, err)
	}
	if len(p.Content) == 0 {
		return ok(a, out, "no notes")
	}
	for _, n := range p.Content {
		output.FormatNote(out, n)
	}
	if !a.Config.Quiet {
		output.FormatPageFooter(out, p)
	}
	return exitcode.Success
}

// AddNoteCmd creates a note.
type AddNoteCmd struct {
	title   string
	content string
	tags    string
	pin     bool
}

func (c *AddNoteCmd) Name() string      { return "addnote" }
func (c *AddNoteCmd) Aliases() []string { return []string{"note"} }
func (c *AddNoteCmd) Synopsis() string  { return "Create a note" }
func (c *AddNoteCmd) Usage() string {
	return "stash addnote -t <title> [--tags <a,b>] [--pin] [content...]"
}
func (c *AddNoteCmd) NeedsAuth() bool { return true }

func (c *AddNoteCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.title, "title", "t", "", "note title")
	fs.StringVarP(&c.content, "content", "c", "", "note content (markdown)")
	fs.StringVar(&c.tags, "tags", "", "comma-separated tags")
	fs.BoolVar(&c.pin, "pin", false, "pin the note")
}

func (c *AddNoteCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	content := c.content
	if content == "" {
		content = strings.Join(args, " ")
	} else if len(args) > 0 {
		return usageError(errOut, "unexpected argument: %s", args[0])
	}

	ctrl := newNotes(ctx, a, 0)
	defer ctrl.Close()
	ctrl.Open(nil)
	ctrl.SetDraft(page.NoteDraft{Title: c.title, Content: content, Tags: c.tags, Pinned: c.pin})
	n, err := ctrl.Submit(ctx)
	if err != nil {
		return fail(errOut, err)
	}
	return ok(a, out, fmt.Sprintf("created note %d", n.ID))
}

// EditNoteCmd updates the fields given as flags and keeps the rest.
type EditNoteCmd struct {
	fs      *pflag.FlagSet
	title   string
	content string
	tags    string
	archive bool
}

func (c *EditNoteCmd) Name() string      { return "editnote" }
func (c *EditNoteCmd) Aliases() []string { return nil }
func (c *EditNoteCmd) Synopsis() string  { return "Edit a note" }
func (c *EditNoteCmd) Usage() string {
	return "stash editnote [-t <title>] [-c <content>] [--tags <a,b>] [--archived] <id>"
}
func (c *EditNoteCmd) NeedsAuth() bool { return true }

func (c *EditNoteCmd) RegisterFlags(fs *pflag.FlagSet) {
	c.fs = fs
	fs.StringVarP(&c.title, "title", "t", "", "note title")
	fs.StringVarP(&c.content, "content", "c", "", "note content (markdown)")
	fs.StringVar(&c.tags, "tags", "", "comma-separated tags")
	fs.BoolVar(&c.archive, "archived", false, "archive state")
}

func (c *EditNoteCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	id, valid := idArg(args, errOut)
	if !valid {
		return exitcode.UserError
	}
	note, err := a.Service.GetNote(ctx, id)
	if err != nil {
		return fail(errOut, err)
	}

	ctrl := newNotes(ctx, a, 0)
	defer ctrl.Close()
	ctrl.Open(&note)
	d := ctrl.Draft()
	if c.fs.Changed("title") {
		d.Title = c.title
	}
	if c.fs.Changed("content") {
		d.Content = c.content
	}
	if c.fs.Changed("tags") {
		d.Tags = c.tags
	}
	if c.fs.Changed("archived") {
		d.Archived = c.archive
	}
	ctrl.SetDraft(d)
	if _, err := ctrl.Submit(ctx); err != nil {
		return fail(errOut, err)
	}
	return ok(a, out, "ok")
}

// PinCmd toggles a note's pinned flag.
type PinCmd struct{}

func (c *PinCmd) Name() string                    { return "pin" }
func (c *PinCmd) Aliases() []string               { return []string{"unpin"} }
func (c *PinCmd) Synopsis() string                { return "Toggle a note's pin" }
func (c *PinCmd) Usage() string                   { return "stash pin <id>" }
func (c *PinCmd) NeedsAuth() bool                 { return true }
func (c *PinCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *PinCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	id, valid := idArg(args, errOut)
	if !valid {
		return exitcode.UserError
	}
	note, err := a.Service.GetNote(ctx, id)
	if err != nil {
		return fail(errOut, err)
	}
	ctrl := newNotes(ctx, a, 0)
	defer ctrl.Close()
	saved, err := ctrl.TogglePin(ctx, note)
	if err != nil {
		return fail(errOut, err)
	}
	if saved.Pinned {
		return ok(a, out, "pinned")
	}
	return ok(a, out, "unpinned")
}

// RmNoteCmd deletes a note after confirmation.
type RmNoteCmd struct {
	yes bool
}

func (c *RmNoteCmd) Name() string      { return "rmnote" }
func (c *RmNoteCmd) Aliases() []string { return nil }
func (c *RmNoteCmd) Synopsis() string  { return "Delete a note" }
func (c *RmNoteCmd) Usage() string     { return "stash rmnote [-y] <id>" }
func (c *RmNoteCmd) NeedsAuth() bool   { return true }

func (c *RmNoteCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.yes, "yes", "y", false, "skip confirmation")
}

func (c *RmNoteCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	id, valid := idArg(args, errOut)
	if !valid {
		return exitcode.UserError
	}
	ctrl := newNotes(ctx, a, 0)
	defer ctrl.Close()
	return deleted(a, out, errOut)(ctrl.Delete(ctx, id, a.Confirmer(errOut, c.yes)))
}

// deleted reports the result of a controller Delete.
func deleted(a *app.App, out, errOut io.Writer) func(bool, error) int {
	return func(done bool, err error) int {
		if err != nil {
			return fail(errOut, err)
		}
		if !done {
			return ok(a, out, "cancelled")
		}
		return ok(a, out, "ok")
	}
}
