package rest

import (
	"context"
	"net/http"

	"stash/internal/service"
)

const bookmarksResource = "bookmarks"

func bookmarkParams(q service.BookmarkQuery) params {
	return pageParams(q.Page, q.Size).set("q", q.Q).set("category", q.Category).setTags(q.Tags)
}

// ListBookmarks returns one page of bookmarks.
func (c *Client) ListBookmarks(ctx context.Context, q service.BookmarkQuery) (service.Page[service.Bookmark], error) {
	var page service.Page[service.Bookmark]
	err := c.do(ctx, call{method: http.MethodGet, path: "/" + bookmarksResource, query: valuesOf(bookmarkParams(q))}, &page)
	return page, err
}

// GetBookmark returns a single bookmark.
func (c *Client) GetBookmark(ctx context.Context, id int64) (service.Bookmark, error) {
	return get[service.Bookmark](ctx, c, bookmarksResource, id)
}

// CreateBookmark creates a bookmark.
func (c *Client) CreateBookmark(ctx context.Context, in service.BookmarkInput) (service.Bookmark, error) {
	var b service.Bookmark
	err := c.do(ctx, call{method: http.MethodPost, path: "/" + bookmarksResource, body: in}, &b)
	return b, err
}

// UpdateBookmark replaces a bookmark.
func (c *Client) UpdateBookmark(ctx context.Context, id int64, in service.BookmarkInput) (service.Bookmark, error) {
	defer c.mutating(bookmarksResource, id)()
	var b service.Bookmark
	err := c.do(ctx, call{method: http.MethodPut, path: entityPath(bookmarksResource, id), body: in}, &b)
	return b, err
}

// DeleteBookmark deletes a bookmark.
func (c *Client) DeleteBookmark(ctx context.Context, id int64) error {
	defer c.mutating(bookmarksResource, id)()
	return c.do(ctx, call{method: http.MethodDelete, path: entityPath(bookmarksResource, id)}, nil)
}
