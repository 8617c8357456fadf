// Package tui implements the interactive terminal UI.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"stash/internal/app"
	"stash/internal/page"
	"stash/internal/service"
	"stash/internal/store"
)

type screen int

const (
	screenLogin screen = iota
	screenHome
	screenNotes
	screenBookmarks
	screenTasks
)

func (s screen) String() string {
	switch s {
	case screenHome:
		return "Home"
	case screenNotes:
		return "Notes"
	case screenBookmarks:
		return "Bookmarks"
	case screenTasks:
		return "Tasks"
	}
	return "Login"
}

type (
	// listChangedMsg is sent after any resource list changes, including
	// debounced fetches that complete on timer goroutines.
	listChangedMsg struct{}
	loggedOutMsg   struct{}
	statsMsg       struct{ err error }
	fetchedMsg     struct{ err error }
	authMsg        struct {
		register bool
		username string
		err      error
	}
	savedMsg struct {
		status string
		err    error
	}
	actionMsg struct {
		status string
		err    error
	}
)

// lister is the paging and search surface shared by the list screens.
type lister interface {
	Search() string
	SetSearch(q string)
	PageIndex() int
	NextPage()
	PrevPage()
	FirstPage()
	LastPage()
	Close()
}

type taskFilter struct {
	label    string
	status   service.TaskStatus
	priority service.Priority
}

var taskFilters = []taskFilter{
	{label: "all"},
	{label: "pending", status: service.StatusPending},
	{label: "done", status: service.StatusDone},
	{label: "high", priority: service.PriorityHigh},
	{label: "medium", priority: service.PriorityMedium},
	{label: "low", priority: service.PriorityLow},
}

// Model is the root bubbletea model.
type Model struct {
	ctx    context.Context
	app    *app.App
	events chan tea.Msg

	// loggedOut is separate from events so a full buffer cannot drop it.
	loggedOut chan struct{}
	unsubs    []func()
	now       func() time.Time

	screen        screen
	width, height int
	st            styles
	keys          keyMap
	help          help.Model

	home      *page.Home
	notes     *page.Notes
	bookmarks *page.Bookmarks
	tasks     *page.Tasks

	cursor     map[screen]int
	categories []string
	taskFilter int

	search    textinput.Model
	searching bool

	auth        *form
	registering bool
	modal       *form
	confirm     *confirmModal

	status    string
	statusErr bool
}

// New builds the model. Screens needing a session start at the login form.
func New(ctx context.Context, a *app.App) *Model {
	cfg := a.Config.Pages
	m := &Model{
		ctx:       ctx,
		app:       a,
		events:    make(chan tea.Msg, 16),
		loggedOut: make(chan struct{}, 1),
		now:       time.Now,
		width:     80,
		height:    24,
		st:        newStyles(a.Theme.Current()),
		keys:      newKeyMap(),
		help:      help.New(),
		home:      page.NewHome(a.Service),
		notes:     page.NewNotes(ctx, a.Service, a.PageOptions(cfg.NotesSize)),
		bookmarks: page.NewBookmarks(ctx, a.Service, a.PageOptions(cfg.BookmarksSize)),
		tasks:     page.NewTasks(ctx, a.Service, a.PageOptions(cfg.TasksSize)),
		cursor:    map[screen]int{},
	}
	changed := func() { m.notify(listChangedMsg{}) }
	m.unsubs = append(m.unsubs,
		m.notes.Subscribe(changed),
		m.bookmarks.Subscribe(changed),
		m.tasks.Subscribe(changed),
	)
	a.Session.OnLogout(func() {
		select {
		case m.loggedOut <- struct{}{}:
		default:
		}
	})

	m.search = textinput.New()
	m.search.Prompt = "/ "
	m.search.Placeholder = "search"
	m.search.Cursor.SetMode(cursor.CursorStatic)

	if a.Session.IsAuthenticated() {
		m.screen = screenHome
	} else {
		m.screen = screenLogin
		m.auth = m.loginForm("")
	}
	return m
}

// Close stops pending debounced fetches and drops subscriptions.
func (m *Model) Close() {
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil
	m.notes.Close()
	m.bookmarks.Close()
	m.tasks.Close()
}

// notify forwards a list change to the event loop without blocking. When
// the buffer is full a later message carries the same information.
func (m *Model) notify(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.loggedOut:
			return loggedOutMsg{}
		default:
		}
		select {
		case <-m.loggedOut:
			return loggedOutMsg{}
		case msg := <-m.events:
			return msg
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), m.enter(m.screen))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case listChangedMsg:
		m.afterListChange()
		return m, m.waitForEvent()

	case loggedOutMsg:
		if m.screen != screenLogin {
			m.toLogin("Session ended. Log in again.")
		}
		return m, m.waitForEvent()

	case statsMsg:
		if msg.err != nil {
			m.setError(msg.err)
		}
		return m, nil

	case fetchedMsg:
		m.afterListChange()
		if msg.err != nil && !errors.Is(msg.err, store.ErrStale) {
			m.setError(msg.err)
		}
		return m, nil

	case authMsg:
		return m, m.afterAuth(msg)

	case savedMsg:
		if msg.err != nil {
			if m.modal != nil {
				m.modal.busy = false
				m.modal.err = errText(msg.err)
				return m, nil
			}
			m.setError(msg.err)
			return m, nil
		}
		m.modal = nil
		m.afterListChange()
		m.setStatus(msg.status)
		return m, nil

	case actionMsg:
		m.afterListChange()
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus(msg.status)
		}
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *Model) setError(err error) {
	m.status, m.statusErr = errText(err), true
}

func errText(err error) string {
	var ve *page.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	if m.confirm != nil {
		done, cmd := m.confirm.update(msg)
		if done {
			m.confirm = nil
		}
		return cmd
	}
	if m.modal != nil {
		return m.updateModal(msg)
	}
	if m.screen == screenLogin {
		return m.updateAuth(msg)
	}
	if m.searching {
		return m.updateSearch(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Theme):
		m.toggleTheme()
		return nil
	case key.Matches(msg, m.keys.Logout):
		if err := m.app.Session.Logout(m.ctx); err != nil {
			m.setError(err)
			return nil
		}
		m.toLogin("Logged out.")
		return nil
	case key.Matches(msg, m.keys.Home):
		return m.switchTo(screenHome)
	case key.Matches(msg, m.keys.Notes):
		return m.switchTo(screenNotes)
	case key.Matches(msg, m.keys.Bookmarks):
		return m.switchTo(screenBookmarks)
	case key.Matches(msg, m.keys.Tasks):
		return m.switchTo(screenTasks)
	}

	if m.screen == screenHome {
		if key.Matches(msg, m.keys.Refresh) {
			return m.enter(screenHome)
		}
		return nil
	}
	return m.updateList(msg)
}

func (m *Model) switchTo(s screen) tea.Cmd {
	if s == m.screen {
		return nil
	}
	m.screen = s
	m.searching = false
	m.search.Blur()
	m.status = ""
	if l := m.current(); l != nil {
		m.search.SetValue(l.Search())
	}
	return m.enter(s)
}

// enter loads the data a screen shows.
func (m *Model) enter(s screen) tea.Cmd {
	ctx := m.ctx
	switch s {
	case screenHome:
		return func() tea.Msg {
			_, err := m.home.Load(ctx)
			return statsMsg{err: err}
		}
	case screenNotes:
		return func() tea.Msg {
			_, err := m.notes.Refresh(ctx)
			return fetchedMsg{err: err}
		}
	case screenBookmarks:
		return func() tea.Msg {
			_, err := m.bookmarks.Refresh(ctx)
			return fetchedMsg{err: err}
		}
	case screenTasks:
		return func() tea.Msg {
			_, err := m.tasks.Refresh(ctx)
			return fetchedMsg{err: err}
		}
	}
	return nil
}

func (m *Model) current() lister {
	switch m.screen {
	case screenNotes:
		return m.notes
	case screenBookmarks:
		return m.bookmarks
	case screenTasks:
		return m.tasks
	}
	return nil
}

func (m *Model) itemCount() int {
	switch m.screen {
	case screenNotes:
		return len(m.notes.State().Page.Content)
	case screenBookmarks:
		return len(m.bookmarks.State().Page.Content)
	case screenTasks:
		return len(m.tasks.State().Page.Content)
	}
	return 0
}

// afterListChange keeps the cursor in range and remembers bookmark
// categories for the filter cycle.
func (m *Model) afterListChange() {
	for _, s := range []screen{screenNotes, screenBookmarks, screenTasks} {
		n := 0
		switch s {
		case screenNotes:
			n = len(m.notes.State().Page.Content)
		case screenBookmarks:
			n = len(m.bookmarks.State().Page.Content)
		case screenTasks:
			n = len(m.tasks.State().Page.Content)
		}
		if m.cursor[s] >= n {
			m.cursor[s] = max(n-1, 0)
		}
	}
	for _, b := range m.bookmarks.State().Page.Content {
		if b.Category != "" && !containsString(m.categories, b.Category) {
			m.categories = append(m.categories, b.Category)
		}
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (m *Model) toggleTheme() {
	mode, err := m.app.Theme.Toggle(m.ctx)
	if err != nil {
		m.setError(err)
		return
	}
	applyColorProfile(mode)
	m.st = newStyles(mode)
	m.setStatus("Theme: " + string(mode))
}

func (m *Model) toLogin(status string) {
	if m.modal != nil {
		m.closeModal()
	}
	m.screen = screenLogin
	m.confirm = nil
	m.searching = false
	m.registering = false
	m.auth = m.loginForm("")
	m.setStatus(status)
}

func (m *Model) loginForm(username string) *form {
	f := newForm("Log in",
		textField("username", "Username", username, ""),
		secretField("password", "Password"),
	)
	if username != "" {
		f.setFocus(1)
	}
	return f
}

func (m *Model) registerForm() *form {
	return newForm("Create account",
		textField("username", "Username", "", ""),
		textField("email", "Email", "", "you@example.org"),
		secretField("password", "Password"),
	)
}

func (m *Model) updateAuth(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+r" && !m.auth.busy {
		m.registering = !m.registering
		if m.registering {
			m.auth = m.registerForm()
		} else {
			m.auth = m.loginForm("")
		}
		m.status = ""
		return nil
	}
	submit, _, cmd := m.auth.update(msg)
	if !submit {
		return cmd
	}

	ctx, svc, sess := m.ctx, m.app.Service, m.app.Session
	username := m.auth.value("username")
	password := m.auth.value("password")
	if username == "" || password == "" {
		m.auth.err = "Username and password are required"
		return nil
	}
	m.auth.busy = true
	if m.registering {
		reg := service.Registration{Username: username, Email: m.auth.value("email"), Password: password}
		return func() tea.Msg {
			return authMsg{register: true, username: username, err: svc.Register(ctx, reg)}
		}
	}
	return func() tea.Msg {
		token, err := svc.Login(ctx, service.Credentials{Username: username, Password: password})
		if err == nil {
			_, err = sess.SetCredentials(ctx, token, username)
		}
		return authMsg{username: username, err: err}
	}
}

func (m *Model) afterAuth(msg authMsg) tea.Cmd {
	if m.auth == nil {
		return nil
	}
	m.auth.busy = false
	if msg.err != nil {
		if service.IsAuthFailure(msg.err) {
			m.auth.err = "Invalid username or password"
		} else {
			m.auth.err = errText(msg.err)
		}
		return nil
	}
	if msg.register {
		m.registering = false
		m.auth = m.loginForm(msg.username)
		m.setStatus("Account created. Log in to continue.")
		return nil
	}
	m.auth = nil
	m.screen = screenHome
	m.setStatus("Welcome, " + msg.username)
	return m.enter(screenHome)
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	l := m.current()
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		return nil
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		if l.Search() != "" {
			l.SetSearch("")
			m.cursor[m.screen] = 0
		}
		return nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != l.Search() {
		l.SetSearch(v)
		m.cursor[m.screen] = 0
	}
	return cmd
}

func (m *Model) updateList(msg tea.KeyMsg) tea.Cmd {
	l := m.current()
	if l == nil {
		return nil
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor[m.screen] > 0 {
			m.cursor[m.screen]--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor[m.screen] < m.itemCount()-1 {
			m.cursor[m.screen]++
		}
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(l.Search())
		return m.search.Focus()
	case key.Matches(msg, m.keys.Filter):
		m.cycleFilter()
		m.cursor[m.screen] = 0
	case key.Matches(msg, m.keys.PrevPage):
		l.PrevPage()
		m.cursor[m.screen] = 0
	case key.Matches(msg, m.keys.NextPage):
		l.NextPage()
		m.cursor[m.screen] = 0
	case key.Matches(msg, m.keys.FirstPage):
		l.FirstPage()
		m.cursor[m.screen] = 0
	case key.Matches(msg, m.keys.LastPage):
		l.LastPage()
		m.cursor[m.screen] = 0
	case key.Matches(msg, m.keys.Refresh):
		return m.enter(m.screen)
	case key.Matches(msg, m.keys.New):
		return m.openForm(false)
	case key.Matches(msg, m.keys.Edit):
		return m.openForm(true)
	case key.Matches(msg, m.keys.Delete):
		m.askDelete()
	case key.Matches(msg, m.keys.Pin):
		return m.togglePin()
	case key.Matches(msg, m.keys.Toggle):
		return m.toggleDone()
	}
	return nil
}

func selected[T any](items []T, i int) (T, bool) {
	var zero T
	if i < 0 || i >= len(items) {
		return zero, false
	}
	return items[i], true
}

func (m *Model) selectedNote() (service.Note, bool) {
	return selected(m.notes.State().Page.Content, m.cursor[screenNotes])
}

func (m *Model) selectedBookmark() (service.Bookmark, bool) {
	return selected(m.bookmarks.State().Page.Content, m.cursor[screenBookmarks])
}

func (m *Model) selectedTask() (service.Task, bool) {
	return selected(m.tasks.State().Page.Content, m.cursor[screenTasks])
}

func (m *Model) cycleFilter() {
	switch m.screen {
	case screenNotes:
		cur := m.notes.PinnedFilter()
		var next *bool
		label := "all"
		switch {
		case cur == nil:
			v := true
			next, label = &v, "pinned"
		case *cur:
			v := false
			next, label = &v, "unpinned"
		}
		m.notes.SetPinnedFilter(next)
		m.setStatus("Filter: " + label)
	case screenBookmarks:
		cats := append([]string{""}, m.categories...)
		cur := m.bookmarks.Category()
		next := cats[0]
		for i, c := range cats {
			if c == cur {
				next = cats[(i+1)%len(cats)]
			}
		}
		m.bookmarks.SetCategory(next)
		if next == "" {
			next = "all"
		}
		m.setStatus("Category: " + next)
	case screenTasks:
		m.taskFilter = (m.taskFilter + 1) % len(taskFilters)
		f := taskFilters[m.taskFilter]
		m.tasks.SetStatusFilter(f.status)
		m.tasks.SetPriorityFilter(f.priority)
		m.setStatus("Filter: " + f.label)
	}
}

func (m *Model) openForm(edit bool) tea.Cmd {
	switch m.screen {
	case screenNotes:
		var target *service.Note
		if edit {
			n, ok := m.selectedNote()
			if !ok {
				return nil
			}
			target = &n
		}
		m.notes.Open(target)
		d := m.notes.Draft()
		title := "New note"
		if edit {
			title = "Edit note"
		}
		m.modal = newForm(title,
			textField("title", "Title", d.Title, ""),
			areaField("content", "Content", d.Content),
			textField("tags", "Tags", d.Tags, "comma, separated"),
			boolField("pinned", "Pinned", d.Pinned),
			boolField("archived", "Archived", d.Archived),
		)
	case screenBookmarks:
		var target *service.Bookmark
		if edit {
			b, ok := m.selectedBookmark()
			if !ok {
				return nil
			}
			target = &b
		}
		m.bookmarks.Open(target)
		d := m.bookmarks.Draft()
		title := "New bookmark"
		if edit {
			title = "Edit bookmark"
		}
		m.modal = newForm(title,
			textField("url", "URL", d.URL, "https://"),
			textField("title", "Title", d.Title, ""),
			textField("description", "Description", d.Description, ""),
			textField("category", "Category", d.Category, ""),
			textField("tags", "Tags", d.Tags, "comma, separated"),
		)
	case screenTasks:
		var target *service.Task
		if edit {
			t, ok := m.selectedTask()
			if !ok {
				return nil
			}
			target = &t
		}
		m.tasks.Open(target)
		d := m.tasks.Draft()
		title := "New task"
		if edit {
			title = "Edit task"
		}
		m.modal = newForm(title,
			textField("text", "Task", d.Text, ""),
			choiceField("status", "Status", []string{string(service.StatusPending), string(service.StatusDone)}, string(d.Status)),
			choiceField("priority", "Priority", []string{string(service.PriorityLow), string(service.PriorityMedium), string(service.PriorityHigh)}, string(d.Priority)),
			textField("due", "Due", d.DueDate, "YYYY-MM-DD"),
		)
	}
	return nil
}

func (m *Model) updateModal(msg tea.KeyMsg) tea.Cmd {
	submit, cancel, cmd := m.modal.update(msg)
	if cancel {
		m.closeModal()
		return nil
	}
	if !submit {
		return cmd
	}

	ctx, f := m.ctx, m.modal
	var save func() error
	switch m.screen {
	case screenNotes:
		m.notes.SetDraft(page.NoteDraft{
			Title:    f.value("title"),
			Content:  f.value("content"),
			Tags:     f.value("tags"),
			Pinned:   f.checked("pinned"),
			Archived: f.checked("archived"),
		})
		save = func() error { _, err := m.notes.Submit(ctx); return err }
	case screenBookmarks:
		m.bookmarks.SetDraft(page.BookmarkDraft{
			URL:         f.value("url"),
			Title:       f.value("title"),
			Description: f.value("description"),
			Category:    f.value("category"),
			Tags:        f.value("tags"),
		})
		save = func() error { _, err := m.bookmarks.Submit(ctx); return err }
	case screenTasks:
		m.tasks.SetDraft(page.TaskDraft{
			Text:     f.value("text"),
			Status:   service.TaskStatus(f.value("status")),
			Priority: service.Priority(f.value("priority")),
			DueDate:  f.value("due"),
		})
		save = func() error { _, err := m.tasks.Submit(ctx); return err }
	default:
		return nil
	}
	f.busy = true
	f.err = ""
	status := "Saved " + singular(m.screen)
	return func() tea.Msg {
		return savedMsg{status: status, err: save()}
	}
}

func (m *Model) closeModal() {
	switch m.screen {
	case screenNotes:
		m.notes.CloseModal()
	case screenBookmarks:
		m.bookmarks.CloseModal()
	case screenTasks:
		m.tasks.CloseModal()
	}
	m.modal = nil
}

func singular(s screen) string {
	switch s {
	case screenNotes:
		return "note"
	case screenBookmarks:
		return "bookmark"
	case screenTasks:
		return "task"
	}
	return ""
}

// askDelete opens the confirm modal for the selected entry. The modal is
// the confirmation, so the controller's confirmer always agrees.
func (m *Model) askDelete() {
	ctx := m.ctx
	agree := page.ConfirmFunc(func(string) bool { return true })
	var (
		prompt string
		del    func() error
	)
	switch m.screen {
	case screenNotes:
		n, ok := m.selectedNote()
		if !ok {
			return
		}
		prompt = page.DeleteNotePrompt
		del = func() error { _, err := m.notes.Delete(ctx, n.ID, agree); return err }
	case screenBookmarks:
		b, ok := m.selectedBookmark()
		if !ok {
			return
		}
		prompt = page.DeleteBookmarkPrompt
		del = func() error { _, err := m.bookmarks.Delete(ctx, b.ID, agree); return err }
	case screenTasks:
		t, ok := m.selectedTask()
		if !ok {
			return
		}
		prompt = page.DeleteTaskPrompt
		del = func() error { _, err := m.tasks.Delete(ctx, t.ID, agree); return err }
	default:
		return
	}
	status := "Deleted " + singular(m.screen)
	m.confirm = &confirmModal{
		prompt: prompt,
		onYes: func() tea.Cmd {
			return func() tea.Msg {
				return actionMsg{status: status, err: del()}
			}
		},
	}
}

func (m *Model) togglePin() tea.Cmd {
	if m.screen != screenNotes {
		return nil
	}
	n, ok := m.selectedNote()
	if !ok {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		saved, err := m.notes.TogglePin(ctx, n)
		status := "Unpinned"
		if saved.Pinned {
			status = "Pinned"
		}
		return actionMsg{status: status, err: err}
	}
}

func (m *Model) toggleDone() tea.Cmd {
	if m.screen != screenTasks {
		return nil
	}
	t, ok := m.selectedTask()
	if !ok {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		saved, err := m.tasks.ToggleComplete(ctx, t)
		status := "Reopened"
		if saved.Status == service.StatusDone {
			status = "Marked done"
		}
		return actionMsg{status: status, err: err}
	}
}

// Run starts the program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, a *app.App) error {
	applyColorProfile(a.Theme.Current())
	m := New(ctx, a)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
