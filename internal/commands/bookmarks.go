package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"stash/internal/app"
	"stash/internal/exitcode"
	"stash/internal/output"
	"stash/internal/page"
)

func init() {
	Register(&BookmarksCmd{})
	Register(&AddBookmarkCmd{})
	Register(&EditBookmarkCmd{})
	Register(&RmBookmarkCmd{})
}

func newBookmarks(ctx context.Context, a *app.App, size int) *page.Bookmarks {
	if size <= 0 {
		size = a.Config.Pages.BookmarksSize
	}
	return page.NewBookmarks(ctx, a.Service, a.PageOptions(size))
}

// BookmarksCmd lists bookmarks.
type BookmarksCmd struct {
	search   string
	category string
	page     int
	size     int
}

func (c *BookmarksCmd) Name() string      { return "bookmarks" }
func (c *BookmarksCmd) Aliases() []string { return []string{"bm"} }
func (c *BookmarksCmd) Synopsis() string  { return "List bookmarks" }
func (c *BookmarksCmd) Usage() string {
	return "stash bookmarks [-q <text>] [--category <name>] [--page <n>]"
}
func (c *BookmarksCmd) NeedsAuth() bool { return true }

func (c *BookmarksCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.search, "search", "q", "", "search text")
	fs.StringVar(&c.category, "category", "", "category name")
	fs.IntVar(&c.page, "page", 1, "page number")
	fs.IntVar(&c.size, "size", 0, "page size")
}

func (c *BookmarksCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return usageError(errOut, "unexpected argument: %s", args[0])
	}
	idx, err := pageIndex(c.page)
	if err != nil {
		return usageError(errOut, "%v", err)
	}

	ctrl := newBookmarks(ctx, a, c.size)
	defer ctrl.Close()
	ctrl.SetSearch(c.search)
	ctrl.SetCategory(c.category)
	ctrl.SetPage(idx)

	p, err := ctrl.Refresh(ctx)
	if err != nil {
		return fail(errOut, err)
	}
	if len(p.Content) == 0 {
		return ok(a, out, "no bookmarks")
	}
	for _, b := range p.Content {
		output.FormatBookmark(out, b)
	}
	if !a.Config.Quiet {
		output.FormatPageFooter(out, p)
	}
	return exitcode.Success
}

// AddBookmarkCmd creates a bookmark.
type AddBookmarkCmd struct {
	title       string
	description string
	category    string
	tags        string
}

func (c *AddBookmarkCmd) Name() string      { return "addbookmark" }
func (c *AddBookmarkCmd) Aliases() []string { return []string{"bookmark"} }
func (c *AddBookmarkCmd) Synopsis() string  { return "Save a bookmark" }
func (c *AddBookmarkCmd) Usage() string {
	return "stash addbookmark [-t <title>] [-d <text>] [--category <name>] [--tags <a,b>] <url>"
}
func (c *AddBookmarkCmd) NeedsAuth() bool { return true }

func (c *AddBookmarkCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.title, "title", "t", "", "bookmark title")
	fs.StringVarP(&c.description, "description", "d", "", "description")
	fs.StringVar(&c.category, "category", "", "category name")
	fs.StringVar(&c.tags, "tags", "", "comma-separated tags")
}

func (c *AddBookmarkCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) > 1 {
		return usageError(errOut, "unexpected argument: %s", args[1])
	}
	var url string
	if len(args) == 1 {
		url = args[0]
	}

	ctrl := newBookmarks(ctx, a, 0)
	defer ctrl.Close()
	ctrl.Open(nil)
	ctrl.SetDraft(page.BookmarkDraft{
		URL:         url,
		Title:       c.title,
		Description: c.description,
		Category:    c.category,
		Tags:        c.tags,
	})
	b, err := ctrl.Submit(ctx)
	if err != nil {
		return fail(errOut, err)
	}
	return ok(a, out, fmt.Sprintf("created bookmark %d", b.ID))
}

// EditBookmarkCmd updates the fields given as flags and keeps the rest.
type EditBookmarkCmd struct {
	fs          *pflag.FlagSet
	url         string
	title       string
	description string
	category    string
	tags        string
}

func (c *EditBookmarkCmd) Name() string      { return "editbookmark" }
func (c *EditBookmarkCmd) Aliases() []string { return nil }
func (c *EditBookmarkCmd) Synopsis() string  { return "Edit a bookmark" }
func (c *EditBookmarkCmd) Usage() string {
	return "stash editbookmark [--url <url>] [-t <title>] [-d <text>] [--category <name>] [--tags <a,b>] <id>"
}
func (c *EditBookmarkCmd) NeedsAuth() bool { return true }

func (c *EditBookmarkCmd) RegisterFlags(fs *pflag.FlagSet) {
	c.fs = fs
	fs.StringVar(&c.url, "url", "", "bookmark url")
	fs.StringVarP(&c.title, "title", "t", "", "bookmark title")
	fs.StringVarP(&c.description, "description", "d", "", "description")
	fs.StringVar(&c.category, "category", "", "category name")
	fs.StringVar(&c.tags, "tags", "", "comma-separated tags")
}

func (c *EditBookmarkCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	id, valid := idArg(args, errOut)
	if !valid {
		return exitcode.UserError
	}
	b, err := a.Service.GetBookmark(ctx, id)
	if err != nil {
		return fail(errOut, err)
	}

	ctrl := newBookmarks(ctx, a, 0)
	defer ctrl.Close()
	ctrl.Open(&b)
	d := ctrl.Draft()
	for name, dst := range map[string]*string{
		"url":         &d.URL,
		"title":       &d.Title,
		"description": &d.Description,
		"category":    &d.Category,
		"tags":        &d.Tags,
	} {
		if c.fs.Changed(name) {
			*dst = c.fs.Lookup(name).Value.String()
		}
	}
	ctrl.SetDraft(d)
	if _, err := ctrl.Submit(ctx); err != nil {
		return fail(errOut, err)
	}
	return ok(a, out, "ok")
}

// RmBookmarkCmd deletes a bookmark after confirmation.
type RmBookmarkCmd struct {
	yes bool
}

func (c *RmBookmarkCmd) Name() string      { return "rmbookmark" }
func (c *RmBookmarkCmd) Aliases() []string { return nil }
func (c *RmBookmarkCmd) Synopsis() string  { return "Delete a bookmark" }
func (c *RmBookmarkCmd) Usage() string     { return "stash rmbookmark [-y] <id>" }
func (c *RmBookmarkCmd) NeedsAuth() bool   { return true }

func (c *RmBookmarkCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.yes, "yes", "y", false, "skip confirmation")
}

func (c *RmBookmarkCmd) Run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	id, valid := idArg(args, errOut)
	if !valid {
		return exitcode.UserError
	}
	ctrl := newBookmarks(ctx, a, 0)
	defer ctrl.Close()
	return deleted(a, out, errOut)(ctrl.Delete(ctx, id, a.Confirmer(errOut, c.yes)))
}
