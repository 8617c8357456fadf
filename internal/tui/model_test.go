package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"stash/internal/app"
	"stash/internal/config"
	"stash/internal/logging"
	"stash/internal/service"
	"stash/internal/session"
	"stash/internal/testutil"
)

type harness struct {
	t    *testing.T
	svc  *testutil.FakeService
	app  *app.App
	m    *Model
	quit bool
}

func newHarness(t *testing.T, loggedIn bool) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc := testutil.NewFakeService()
	svc.AddUser("ada", "lovelace")
	factory := func(context.Context, *config.Config, *session.Manager, logging.Logger) (service.Service, error) {
		return svc, nil
	}
	cfg := config.Default(t.TempDir())
	cfg.Pages.Debounce = -1
	a, err := app.Open(ctx, cfg, logging.NewNop(), factory)
	if err != nil {
		t.Fatalf("app.Open: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	if loggedIn {
		if _, err := a.Session.SetCredentials(ctx, svc.Token, "ada"); err != nil {
			t.Fatalf("SetCredentials: %v", err)
		}
	}

	h := &harness{t: t, svc: svc, app: a}
	h.m = New(ctx, a)
	h.m.now = func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(h.m.Close)
	h.exec(h.m.enter(h.m.screen))
	return h
}

func keyMsg(s string) tea.KeyMsg {
	special := map[string]tea.KeyType{
		"enter":     tea.KeyEnter,
		"esc":       tea.KeyEsc,
		"tab":       tea.KeyTab,
		"shift+tab": tea.KeyShiftTab,
		"up":        tea.KeyUp,
		"down":      tea.KeyDown,
		"left":      tea.KeyLeft,
		"right":     tea.KeyRight,
		"backspace": tea.KeyBackspace,
		"ctrl+c":    tea.KeyCtrlC,
		"ctrl+r":    tea.KeyCtrlR,
		"ctrl+s":    tea.KeyCtrlS,
	}
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	if k, ok := special[s]; ok {
		return tea.KeyMsg{Type: k}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends each key and runs the resulting commands to completion.
func (h *harness) press(keys ...string) {
	h.t.Helper()
	for _, k := range keys {
		_, cmd := h.m.Update(keyMsg(k))
		h.exec(cmd)
	}
}

func (h *harness) typeText(s string) {
	h.t.Helper()
	for _, r := range s {
		h.press(string(r))
	}
}

// exec runs cmd and feeds its message back into the model. Commands that
// do not return promptly, such as the event wait, are abandoned.
func (h *harness) exec(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(200 * time.Millisecond):
		return
	}
	switch msg := msg.(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			h.exec(c)
		}
	case tea.QuitMsg:
		h.quit = true
	default:
		_, next := h.m.Update(msg)
		h.exec(next)
	}
}

func (h *harness) view() string {
	return ansi.Strip(h.m.View())
}

func TestLogin(t *testing.T) {
	h := newHarness(t, false)
	if h.m.screen != screenLogin {
		t.Fatalf("expected login screen, got %v", h.m.screen)
	}
	h.typeText("ada")
	h.press("tab")
	h.typeText("lovelace")
	h.press("enter")

	if h.m.screen != screenHome {
		t.Fatalf("expected home screen, got %v", h.m.screen)
	}
	if sess, ok := h.app.Session.Current(); !ok || sess.User.Username != "ada" {
		t.Errorf("expected session for ada, got %+v", sess)
	}
	if h.m.status != "Welcome, ada" {
		t.Errorf("unexpected status %q", h.m.status)
	}
	if _, loaded, _ := h.m.home.Stats(); !loaded {
		t.Error("expected totals to be loaded after login")
	}
}

func TestLoginBadPassword(t *testing.T) {
	h := newHarness(t, false)
	h.typeText("ada")
	h.press("tab")
	h.typeText("wrong")
	h.press("enter")

	if h.m.screen != screenLogin {
		t.Fatalf("expected to stay on login, got %v", h.m.screen)
	}
	if h.m.auth.err != "Invalid username or password" {
		t.Errorf("unexpected form error %q", h.m.auth.err)
	}
	if h.app.Session.IsAuthenticated() {
		t.Error("expected no session")
	}
	if !strings.Contains(h.view(), "Invalid username or password") {
		t.Error("expected error in view")
	}
}

func TestLoginRequiresBothFields(t *testing.T) {
	h := newHarness(t, false)
	h.press("tab", "enter")
	if h.m.auth.err != "Username and password are required" {
		t.Errorf("unexpected form error %q", h.m.auth.err)
	}
	if len(h.svc.CallsTo("Login")) != 0 {
		t.Error("expected no login request")
	}
}

func TestRegisterReturnsToLogin(t *testing.T) {
	h := newHarness(t, false)
	h.press("ctrl+r")
	if !h.m.registering {
		t.Fatal("expected register mode")
	}
	h.typeText("bob")
	h.press("tab")
	h.typeText("bob@example.org")
	h.press("tab")
	h.typeText("builder1")
	h.press("enter")

	if h.m.registering {
		t.Error("expected to return to login after registering")
	}
	if got := h.m.auth.value("username"); got != "bob" {
		t.Errorf("expected username prefilled, got %q", got)
	}
	if h.m.auth.focus != 1 {
		t.Errorf("expected password focused, got field %d", h.m.auth.focus)
	}
	if h.app.Session.IsAuthenticated() {
		t.Error("register must not log in")
	}

	h.typeText("builder1")
	h.press("enter")
	if h.m.screen != screenHome {
		t.Errorf("expected home after login, got %v", h.m.screen)
	}
}

func TestRegisterConflict(t *testing.T) {
	h := newHarness(t, false)
	h.press("ctrl+r")
	h.typeText("ada")
	h.press("tab", "tab")
	h.typeText("secret12")
	h.press("enter")
	if !h.m.registering {
		t.Fatal("expected to stay in register mode")
	}
	if !strings.Contains(h.m.auth.err, "username already taken") {
		t.Errorf("unexpected form error %q", h.m.auth.err)
	}
}

func TestSwitchScreens(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddNote(service.Note{Title: "Groceries"})
	h.svc.AddBookmark(service.Bookmark{URL: "https://go.dev", Title: "Go"})
	h.svc.AddTask(service.Task{Text: "Write report"})

	h.press("2")
	if h.m.screen != screenNotes || !strings.Contains(h.view(), "Groceries") {
		t.Errorf("expected notes screen with note, got:\n%s", h.view())
	}
	h.press("3")
	if h.m.screen != screenBookmarks || !strings.Contains(h.view(), "https://go.dev") {
		t.Errorf("expected bookmarks screen with bookmark, got:\n%s", h.view())
	}
	h.press("4")
	if h.m.screen != screenTasks || !strings.Contains(h.view(), "Write report") {
		t.Errorf("expected tasks screen with task, got:\n%s", h.view())
	}
	h.press("1")
	if !strings.Contains(h.view(), "Pending") {
		t.Errorf("expected home totals, got:\n%s", h.view())
	}
}

func TestSearchNotes(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddNote(service.Note{Title: "Buy milk"})
	h.svc.AddNote(service.Note{Title: "Call mom"})
	h.press("2", "/")
	if !h.m.searching {
		t.Fatal("expected search mode")
	}
	h.typeText("milk")

	if got := h.m.notes.Search(); got != "milk" {
		t.Errorf("expected search milk, got %q", got)
	}
	if n := len(h.m.notes.State().Page.Content); n != 1 {
		t.Errorf("expected 1 match, got %d", n)
	}

	// Keys typed while searching do not switch screens.
	h.press("enter")
	if h.m.searching || h.m.notes.Search() != "milk" {
		t.Error("enter should keep the query and leave search mode")
	}

	h.press("/", "esc")
	if h.m.notes.Search() != "" {
		t.Errorf("esc should clear the search, got %q", h.m.notes.Search())
	}
	if n := len(h.m.notes.State().Page.Content); n != 2 {
		t.Errorf("expected 2 notes after clearing, got %d", n)
	}
}

func TestCreateNote(t *testing.T) {
	h := newHarness(t, true)
	h.press("2", "n")
	if h.m.modal == nil {
		t.Fatal("expected form")
	}
	h.typeText("Groceries")
	h.press("tab")
	h.typeText("eggs")
	h.press("enter")
	h.typeText("milk")
	h.press("tab")
	h.typeText("home, food")
	h.press("ctrl+s")

	if h.m.modal != nil {
		t.Fatalf("expected form closed, error %q", h.m.modal.err)
	}
	if h.m.status != "Saved note" {
		t.Errorf("unexpected status %q", h.m.status)
	}
	note, ok := h.svc.Note(1)
	if !ok {
		t.Fatal("expected note 1 to exist")
	}
	if note.Title != "Groceries" || note.Content != "eggs\nmilk" {
		t.Errorf("unexpected note %+v", note)
	}
	if strings.Join(note.Tags, ",") != "home,food" {
		t.Errorf("unexpected tags %v", note.Tags)
	}
	if n := len(h.m.notes.State().Page.Content); n != 1 {
		t.Errorf("expected list refetched with 1 note, got %d", n)
	}
}

func TestCreateNoteValidation(t *testing.T) {
	h := newHarness(t, true)
	h.press("2", "n", "ctrl+s")
	if h.m.modal == nil {
		t.Fatal("expected form to stay open")
	}
	if h.m.modal.err != "Title is required" {
		t.Errorf("unexpected form error %q", h.m.modal.err)
	}
	if len(h.svc.CallsTo("CreateNote")) != 0 {
		t.Error("expected no request")
	}

	h.press("esc")
	if h.m.modal != nil || h.m.notes.ModalOpen() {
		t.Error("expected esc to close the form")
	}
}

func TestEditNote(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddNote(service.Note{Title: "Old", Content: "body", Tags: []string{"a"}})
	h.press("2", "e")
	if h.m.modal == nil || h.m.modal.value("title") != "Old" {
		t.Fatal("expected form seeded from the note")
	}
	for range "Old" {
		h.press("backspace")
	}
	h.typeText("New")
	h.press("ctrl+s")

	note, _ := h.svc.Note(1)
	if note.Title != "New" || note.Content != "body" || len(note.Tags) != 1 {
		t.Errorf("unexpected note %+v", note)
	}
}

func TestDeleteNoteConfirm(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddNote(service.Note{Title: "Keep"})
	h.press("2", "d")
	if h.m.confirm == nil {
		t.Fatal("expected confirm modal")
	}
	if !strings.Contains(h.view(), "Delete this note?") {
		t.Errorf("expected prompt in view, got:\n%s", h.view())
	}
	h.press("n")
	if _, ok := h.svc.Note(1); !ok {
		t.Fatal("expected note kept after cancel")
	}

	h.press("d", "y")
	if _, ok := h.svc.Note(1); ok {
		t.Error("expected note deleted")
	}
	if h.m.status != "Deleted note" {
		t.Errorf("unexpected status %q", h.m.status)
	}
}

func TestPinNote(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddNote(service.Note{Title: "Pin me"})
	h.press("2", "p")
	if note, _ := h.svc.Note(1); !note.Pinned {
		t.Error("expected note pinned")
	}
	if h.m.status != "Pinned" {
		t.Errorf("unexpected status %q", h.m.status)
	}
	h.press("p")
	if note, _ := h.svc.Note(1); note.Pinned {
		t.Error("expected note unpinned")
	}
}

func TestNotesPinnedFilter(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddNote(service.Note{Title: "A", Pinned: true})
	h.svc.AddNote(service.Note{Title: "B"})
	h.press("2", "f")
	if p := h.m.notes.PinnedFilter(); p == nil || !*p {
		t.Fatal("expected pinned filter")
	}
	if n := len(h.m.notes.State().Page.Content); n != 1 {
		t.Errorf("expected 1 pinned note, got %d", n)
	}
	h.press("f")
	if p := h.m.notes.PinnedFilter(); p == nil || *p {
		t.Error("expected unpinned filter")
	}
	h.press("f")
	if h.m.notes.PinnedFilter() != nil {
		t.Error("expected filter cleared")
	}
}

func TestNotePreview(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddNote(service.Note{Title: "Recipe", Content: "# Pancakes\n\nMix **flour** and eggs."})
	h.press("2")
	v := h.view()
	if !strings.Contains(v, "Pancakes") || !strings.Contains(v, "flour") {
		t.Errorf("expected rendered preview, got:\n%s", v)
	}
	if strings.Contains(v, "**flour**") {
		t.Error("expected markdown to be rendered")
	}
}

func TestToggleTask(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddTask(service.Task{Text: "Write report"})
	h.press("4", "x")
	if task, _ := h.svc.Task(1); task.Status != service.StatusDone {
		t.Fatalf("expected DONE, got %s", task.Status)
	}
	if h.m.status != "Marked done" {
		t.Errorf("unexpected status %q", h.m.status)
	}
	h.press(" ")
	if task, _ := h.svc.Task(1); task.Status != service.StatusPending {
		t.Errorf("expected PENDING, got %s", task.Status)
	}
}

func TestCreateTask(t *testing.T) {
	h := newHarness(t, true)
	h.press("4", "n")
	h.typeText("Ship it")
	h.press("tab", "tab", "right", "tab")
	h.typeText("2024-05-01")
	h.press("enter")

	if h.m.modal != nil {
		t.Fatalf("expected form closed, error %q", h.m.modal.err)
	}
	task, ok := h.svc.Task(1)
	if !ok {
		t.Fatal("expected task 1")
	}
	if task.Priority != service.PriorityHigh || task.Status != service.StatusPending {
		t.Errorf("unexpected task %+v", task)
	}
	if task.DueDate == nil || task.DueDate.String() != "2024-05-01" {
		t.Errorf("unexpected due date %v", task.DueDate)
	}
	if !strings.Contains(h.view(), "overdue") {
		t.Errorf("expected overdue marker, got:\n%s", h.view())
	}
}

func TestCreateTaskBadDate(t *testing.T) {
	h := newHarness(t, true)
	h.press("4", "n")
	h.typeText("Ship it")
	h.press("tab", "tab", "tab")
	h.typeText("tomorrow")
	h.press("enter")
	if h.m.modal == nil || h.m.modal.err != "Due date must be YYYY-MM-DD" {
		t.Errorf("expected date error, got %+v", h.m.modal)
	}
}

func TestTaskFilterCycle(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddTask(service.Task{Text: "a"})
	h.svc.AddTask(service.Task{Text: "b", Status: service.StatusDone, Priority: service.PriorityHigh})
	h.press("4", "f")
	if st, _ := h.m.tasks.Filters(); st != service.StatusPending {
		t.Errorf("expected pending filter, got %q", st)
	}
	h.press("f")
	if st, _ := h.m.tasks.Filters(); st != service.StatusDone {
		t.Errorf("expected done filter, got %q", st)
	}
	h.press("f")
	if st, p := h.m.tasks.Filters(); st != "" || p != service.PriorityHigh {
		t.Errorf("expected high priority filter, got %q %q", st, p)
	}
	if n := len(h.m.tasks.State().Page.Content); n != 1 {
		t.Errorf("expected 1 high task, got %d", n)
	}
}

func TestBookmarkURLValidation(t *testing.T) {
	h := newHarness(t, true)
	h.press("3", "n")
	h.typeText("example.com")
	h.press("ctrl+s")
	if h.m.modal == nil || h.m.modal.err != "URL must start with http:// or https://" {
		t.Errorf("expected url error, got %+v", h.m.modal)
	}
	if len(h.svc.CallsTo("CreateBookmark")) != 0 {
		t.Error("expected no request")
	}
}

func TestBookmarkCategoryFilter(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddBookmark(service.Bookmark{URL: "https://go.dev", Category: "dev"})
	h.svc.AddBookmark(service.Bookmark{URL: "https://news.example", Category: "news"})
	h.press("3", "f")
	if got := h.m.bookmarks.Category(); got == "" {
		t.Fatal("expected a category filter")
	}
	if n := len(h.m.bookmarks.State().Page.Content); n != 1 {
		t.Errorf("expected 1 bookmark, got %d", n)
	}
	h.press("f", "f")
	if got := h.m.bookmarks.Category(); got != "" {
		t.Errorf("expected filter to cycle back to all, got %q", got)
	}
}

func TestPaging(t *testing.T) {
	h := newHarness(t, true)
	for i := 0; i < 25; i++ {
		h.svc.AddTask(service.Task{Text: "task"})
	}
	h.press("4")
	h.press("]")
	if h.m.tasks.PageIndex() != 1 {
		t.Fatalf("expected page 1, got %d", h.m.tasks.PageIndex())
	}
	if n := len(h.m.tasks.State().Page.Content); n != 5 {
		t.Errorf("expected 5 tasks on last page, got %d", n)
	}
	if !strings.Contains(h.view(), "page 2/2 · 25 total") {
		t.Errorf("expected footer, got:\n%s", h.view())
	}
	h.press("]")
	if h.m.tasks.PageIndex() != 1 {
		t.Errorf("expected to stay on the last page, got %d", h.m.tasks.PageIndex())
	}
	h.press("g")
	if h.m.tasks.PageIndex() != 0 {
		t.Errorf("expected first page, got %d", h.m.tasks.PageIndex())
	}
	h.press("G")
	if h.m.tasks.PageIndex() != 1 {
		t.Errorf("expected last page, got %d", h.m.tasks.PageIndex())
	}
	h.press("[")
	if h.m.tasks.PageIndex() != 0 {
		t.Errorf("expected first page, got %d", h.m.tasks.PageIndex())
	}
}

func TestCursorMovement(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddTask(service.Task{Text: "a"})
	h.svc.AddTask(service.Task{Text: "b"})
	h.press("4", "j", "j", "j")
	if h.m.cursor[screenTasks] != 1 {
		t.Errorf("expected cursor clamped at 1, got %d", h.m.cursor[screenTasks])
	}
	h.press("k", "k")
	if h.m.cursor[screenTasks] != 0 {
		t.Errorf("expected cursor at 0, got %d", h.m.cursor[screenTasks])
	}
}

func TestToggleTheme(t *testing.T) {
	h := newHarness(t, true)
	start := h.app.Theme.Current()
	h.press("t")
	if got := h.app.Theme.Current(); got != start.Other() {
		t.Errorf("expected %s, got %s", start.Other(), got)
	}
	if h.m.st.mode != start.Other() {
		t.Error("expected styles rebuilt for the new mode")
	}
	if !strings.Contains(h.view(), string(start.Other())) {
		t.Error("expected theme in header")
	}
	h.press("t")
	if h.app.Theme.Current() != start {
		t.Error("expected theme toggled back")
	}
}

func TestLogout(t *testing.T) {
	h := newHarness(t, true)
	h.press("L")
	if h.m.screen != screenLogin {
		t.Fatalf("expected login screen, got %v", h.m.screen)
	}
	if h.app.Session.IsAuthenticated() {
		t.Error("expected session cleared")
	}
}

func TestSessionEndedElsewhere(t *testing.T) {
	h := newHarness(t, true)
	h.press("2", "n")
	h.m.Update(loggedOutMsg{})
	if h.m.screen != screenLogin || h.m.modal != nil {
		t.Fatalf("expected login screen without modal, got %v", h.m.screen)
	}
	if h.m.status != "Session ended. Log in again." {
		t.Errorf("unexpected status %q", h.m.status)
	}
}

func TestLogoutDeliveredWithFullEventBuffer(t *testing.T) {
	h := newHarness(t, true)
	for i := 0; i < cap(h.m.events); i++ {
		h.m.notify(listChangedMsg{})
	}
	if err := h.app.Session.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if msg := h.m.waitForEvent()(); msg != (loggedOutMsg{}) {
		t.Fatalf("expected loggedOutMsg first, got %#v", msg)
	}
}

func TestBackendErrorShownInStatus(t *testing.T) {
	h := newHarness(t, true)
	h.svc.ListNotesErr = &service.RequestError{Status: 500, Payload: "boom"}
	h.press("2")
	if !h.m.statusErr {
		t.Fatal("expected error status")
	}
	if !strings.Contains(h.view(), "boom") {
		t.Errorf("expected error in view, got:\n%s", h.view())
	}
}

func TestQuit(t *testing.T) {
	h := newHarness(t, true)
	h.press("q")
	if !h.quit {
		t.Error("expected quit")
	}

	h = newHarness(t, false)
	h.press("q")
	if h.quit {
		t.Error("q on the login form is text input")
	}
	h.press("ctrl+c")
	if !h.quit {
		t.Error("expected ctrl+c to quit")
	}
}
