package rest_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"stash/internal/backend/rest"
	"stash/internal/mockapi"
	"stash/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// recorder captures what reached the server.
type recorder struct {
	mu       sync.Mutex
	requests []*http.Request
}

func (r *recorder) wrap(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		r.requests = append(r.requests, req.Clone(context.Background()))
		r.mu.Unlock()
		h.ServeHTTP(w, req)
	})
}

func (r *recorder) last() *http.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[len(r.requests)-1]
}

func (r *recorder) count(method, path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, req := range r.requests {
		if req.Method == method && req.URL.Path == path {
			n++
		}
	}
	return n
}

type fixture struct {
	api    *mockapi.Server
	server *httptest.Server
	rec    *recorder
	client *rest.Client
	token  string
}

func newFixture(t *testing.T, mutate func(*rest.Options)) *fixture {
	t.Helper()
	api := mockapi.New(mockapi.Options{})
	if err := api.AddAccount(service.Registration{Username: "ada", Password: "pw"}); err != nil {
		t.Fatal(err)
	}
	token, err := api.IssueToken("ada")
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	server := httptest.NewServer(rec.wrap(api.Handler()))
	t.Cleanup(server.Close)

	opts := rest.Options{
		BaseURL:     server.URL,
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
	}
	if mutate != nil {
		mutate(&opts)
	}
	client, err := rest.New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{api: api, server: server, rec: rec, client: client, token: token}
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8080", "ftp://x"} {
		if _, err := rest.New(rest.Options{BaseURL: u}); err == nil {
			t.Errorf("expected error for %q", u)
		}
	}
}

func TestLoginAndRegister(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if err := f.client.Register(ctx, service.Registration{Username: "bob", Email: "b@example.com", Password: "s3cret"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	tok, err := f.client.Login(ctx, service.Credentials{Username: "bob", Password: "s3cret"})
	if err != nil || tok == "" {
		t.Fatalf("Login: %q %v", tok, err)
	}
	if got := f.rec.last().Header.Get("Authorization"); got != "" {
		t.Errorf("login must not carry a bearer token, got %q", got)
	}

	_, err = f.client.Login(ctx, service.Credentials{Username: "bob", Password: "nope"})
	var re *service.RequestError
	if !errors.As(err, &re) || re.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 RequestError, got %v", err)
	}

	err = f.client.Register(ctx, service.Registration{Username: "bob", Password: "again"})
	if !errors.As(err, &re) || re.Status != http.StatusConflict {
		t.Fatalf("expected 409 RequestError, got %v", err)
	}
}

func TestHeadersOnAuthenticatedRequests(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.client.ListNotes(context.Background(), service.NoteQuery{Size: 10}); err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	req := f.rec.last()
	if got := req.Header.Get("Authorization"); got != "Bearer "+f.token {
		t.Errorf("unexpected Authorization %q", got)
	}
	if id := req.Header.Get(rest.RequestIDHeader); len(id) != 36 {
		t.Errorf("expected uuid request id, got %q", id)
	}
}

func TestListQueryParameters(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	pinned := true

	_, err := f.client.ListNotes(ctx, service.NoteQuery{
		Page: 2, Size: 10, Sort: "createdAt,desc", Q: "go lang", Tags: []string{"a", " ", "b"}, Pinned: &pinned,
	})
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	want := url.Values{
		"page": {"2"}, "size": {"10"}, "sort": {"createdAt,desc"},
		"q": {"go lang"}, "tags": {"a,b"}, "pinned": {"true"},
	}
	if got := f.rec.last().URL.Query(); got.Encode() != want.Encode() {
		t.Errorf("query = %s, want %s", got.Encode(), want.Encode())
	}

	if _, err := f.client.ListTasks(ctx, service.TaskQuery{Size: 20}); err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if got := f.rec.last().URL.RawQuery; got != "page=0&size=20" {
		t.Errorf("expected empty filters omitted, got %q", got)
	}

	if _, err := f.client.ListBookmarks(ctx, service.BookmarkQuery{Size: 20, Category: "dev"}); err != nil {
		t.Fatalf("ListBookmarks: %v", err)
	}
	if got := f.rec.last().URL.Query().Get("category"); got != "dev" {
		t.Errorf("expected category=dev, got %q", got)
	}
}

func TestNoteCRUD(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	created, err := f.client.CreateNote(ctx, service.NoteInput{Title: "hello", Content: "# Hi", Tags: []string{"x"}})
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if created.ID == 0 || created.CreatedAt.IsZero() {
		t.Errorf("expected server-assigned id and timestamp, got %+v", created)
	}

	in := created.Input()
	in.Pinned = true
	updated, err := f.client.UpdateNote(ctx, created.ID, in)
	if err != nil || !updated.Pinned {
		t.Fatalf("UpdateNote: %+v %v", updated, err)
	}

	page, err := f.client.ListNotes(ctx, service.NoteQuery{Size: 10})
	if err != nil || page.TotalElements != 1 {
		t.Fatalf("ListNotes: %+v %v", page, err)
	}

	if err := f.client.DeleteNote(ctx, created.ID); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := f.client.GetNote(ctx, created.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCompleteTaskUsesPatch(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	due := service.Date{Year: 2024, Month: 3, Day: 9}

	task, err := f.client.CreateTask(ctx, service.TaskInput{Text: "ship", Priority: service.PriorityHigh, DueDate: &due})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.DueDate == nil || *task.DueDate != due {
		t.Errorf("due date lost: %+v", task.DueDate)
	}
	done, err := f.client.CompleteTask(ctx, task.ID)
	if err != nil || done.Status != service.StatusDone {
		t.Fatalf("CompleteTask: %+v %v", done, err)
	}
	if req := f.rec.last(); req.Method != http.MethodPatch {
		t.Errorf("expected PATCH, got %s", req.Method)
	}
}

func TestBadRequestPayloadIsKept(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.client.CreateBookmark(context.Background(), service.BookmarkInput{URL: "example.com"})
	var re *service.RequestError
	if !errors.As(err, &re) || re.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 RequestError, got %v", err)
	}
	if re.Payload == "" {
		t.Error("expected server payload to be kept")
	}
}

func TestUnauthorizedClearsSession(t *testing.T) {
	var cleared int
	f := newFixture(t, func(o *rest.Options) {
		o.TokenSource = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "revoked"})
		o.OnUnauthorized = func(context.Context) { cleared++ }
	})
	_, err := f.client.ListTasks(context.Background(), service.TaskQuery{Size: 20})
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if cleared != 1 {
		t.Errorf("expected hook called once, got %d", cleared)
	}
}

type failingSource struct{}

func (failingSource) Token() (*oauth2.Token, error) { return nil, service.ErrUnauthorized }

func TestMissingTokenSurfacesUnauthorized(t *testing.T) {
	f := newFixture(t, func(o *rest.Options) { o.TokenSource = failingSource{} })
	if _, err := f.client.ListNotes(context.Background(), service.NoteQuery{}); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	noAuth := newFixture(t, func(o *rest.Options) { o.TokenSource = nil })
	if _, err := noAuth.client.ListNotes(context.Background(), service.NoteQuery{}); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without a token source, got %v", err)
	}
}

func TestEntityCache(t *testing.T) {
	f := newFixture(t, func(o *rest.Options) { o.CacheTTL = time.Minute })
	ctx := context.Background()
	b, err := f.client.CreateBookmark(ctx, service.BookmarkInput{URL: "https://go.dev", Title: "Go"})
	if err != nil {
		t.Fatalf("CreateBookmark: %v", err)
	}
	path := "/bookmarks/" + itoa(b.ID)

	for i := 0; i < 3; i++ {
		if _, err := f.client.GetBookmark(ctx, b.ID); err != nil {
			t.Fatalf("GetBookmark: %v", err)
		}
	}
	if n := f.rec.count(http.MethodGet, path); n != 1 {
		t.Errorf("expected one GET while cached, got %d", n)
	}

	in := b.Input()
	in.Title = "The Go site"
	if _, err := f.client.UpdateBookmark(ctx, b.ID, in); err != nil {
		t.Fatalf("UpdateBookmark: %v", err)
	}
	got, err := f.client.GetBookmark(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBookmark: %v", err)
	}
	if got.Title != "The Go site" {
		t.Errorf("expected fresh read after update, got %q", got.Title)
	}
	if n := f.rec.count(http.MethodGet, path); n != 2 {
		t.Errorf("expected cache invalidated by update, got %d GETs", n)
	}
}

func TestEntityCache_ReadDuringUpdateIsNotKept(t *testing.T) {
	var (
		mu    sync.Mutex
		title = "old"
	)
	inPut := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPut:
			close(inPut)
			<-release
			mu.Lock()
			title = "new"
			mu.Unlock()
		}
		mu.Lock()
		defer mu.Unlock()
		_, _ = w.Write([]byte(`{"id":7,"title":"` + title + `"}`))
	}))
	defer server.Close()

	client, err := rest.New(rest.Options{
		BaseURL:     server.URL,
		CacheTTL:    time.Minute,
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t"}),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := client.UpdateNote(ctx, 7, service.NoteInput{Title: "new"})
		done <- err
	}()
	<-inPut
	if n, err := client.GetNote(ctx, 7); err != nil || n.Title != "old" {
		t.Fatalf("GetNote during update: %+v %v", n, err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}

	n, err := client.GetNote(ctx, 7)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if n.Title != "new" {
		t.Errorf("stale copy survived the update: %q", n.Title)
	}
}

func TestTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer slow.Close()

	client, err := rest.New(rest.Options{
		BaseURL:     slow.URL,
		Timeout:     20 * time.Millisecond,
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t"}),
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.ListNotes(context.Background(), service.NoteQuery{Size: 10})
	if !errors.Is(err, service.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if err.Error() != "request timed out" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, func(o *rest.Options) { o.RequestsPerSecond = 20 })
	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 5; i++ {
		if _, err := f.client.ListTasks(ctx, service.TaskQuery{Size: 1}); err != nil {
			t.Fatalf("ListTasks: %v", err)
		}
	}
	// Burst of 20 covers all five requests.
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("requests throttled unexpectedly: %s", elapsed)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
