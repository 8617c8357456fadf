// Package mockapi is an in-memory implementation of the stash REST API.
// It backs transport tests and the mockserver command.
package mockapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"stash/internal/logging"
	"stash/internal/service"
)

const (
	// DefaultTokenTTL is how long issued tokens stay valid.
	DefaultTokenTTL = 24 * time.Hour

	defaultPageSize = 20
	maxPageSize     = 100
)

// Options configures a Server.
type Options struct {
	// Secret signs issued tokens. Empty uses a fixed development key.
	Secret []byte

	TokenTTL time.Duration

	// Now overrides the clock.
	Now func() time.Time

	Logger logging.Logger
}

type account struct {
	id           int64
	username     string
	email        string
	passwordHash []byte
}

type ownedNote struct {
	owner string
	service.Note
}

type ownedBookmark struct {
	owner string
	service.Bookmark
}

type ownedTask struct {
	owner string
	service.Task
}

// Server holds all state in memory. It is safe for concurrent use.
type Server struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	log    logging.Logger
	engine *gin.Engine

	mu        sync.Mutex
	nextID    int64
	accounts  map[string]*account
	notes     []ownedNote
	bookmarks []ownedBookmark
	tasks     []ownedTask
}

// New returns a server with no accounts.
func New(opts Options) *Server {
	s := &Server{
		secret:   opts.Secret,
		ttl:      opts.TokenTTL,
		now:      opts.Now,
		log:      opts.Logger,
		nextID:   1,
		accounts: make(map[string]*account),
	}
	if len(s.secret) == 0 {
		s.secret = []byte("stash-mock-secret")
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTokenTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logging.NewNop()
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler. Routes are mounted at the root; the
// mockserver command mounts it under /api.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	auth.POST("/login", s.login)
	auth.POST("/register", s.register)

	api := r.Group("/", s.requireAuth())
	api.GET("/notes", s.listNotes)
	api.POST("/notes", s.createNote)
	api.GET("/notes/:id", s.getNote)
	api.PUT("/notes/:id", s.updateNote)
	api.DELETE("/notes/:id", s.deleteNote)

	api.GET("/bookmarks", s.listBookmarks)
	api.POST("/bookmarks", s.createBookmark)
	api.GET("/bookmarks/:id", s.getBookmark)
	api.PUT("/bookmarks/:id", s.updateBookmark)
	api.DELETE("/bookmarks/:id", s.deleteBookmark)

	api.GET("/tasks", s.listTasks)
	api.POST("/tasks", s.createTask)
	api.GET("/tasks/:id", s.getTask)
	api.PUT("/tasks/:id", s.updateTask)
	api.DELETE("/tasks/:id", s.deleteTask)
	api.PATCH("/tasks/:id/complete", s.completeTask)
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := logging.WithRequestID(c.Request.Context(), c.GetHeader("X-Request-ID"))
		c.Next()
		s.log.Debugf(ctx, "%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// claims is the token payload.
type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

const userKey = "username"

// IssueToken signs a token for username without checking a password.
func (s *Server) IssueToken(username string) (string, error) {
	s.mu.Lock()
	acct, ok := s.accounts[username]
	s.mu.Unlock()
	if !ok {
		return "", errors.New("unknown user")
	}
	return s.issue(acct)
}

func (s *Server) issue(acct *account) (string, error) {
	now := s.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: acct.username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(acct.id, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	return tok.SignedString(s.secret)
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			abort(c, http.StatusUnauthorized, "authorization header required")
			return
		}
		var cl claims
		_, err := jwt.ParseWithClaims(raw, &cl, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}
		s.mu.Lock()
		_, known := s.accounts[cl.Username]
		s.mu.Unlock()
		if !known {
			abort(c, http.StatusUnauthorized, "unknown user")
			return
		}
		c.Set(userKey, cl.Username)
		c.Next()
	}
}

func (s *Server) login(c *gin.Context) {
	var creds service.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		abort(c, http.StatusBadRequest, "invalid request payload")
		return
	}
	s.mu.Lock()
	acct, ok := s.accounts[creds.Username]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(creds.Password)) != nil {
		abort(c, http.StatusUnauthorized, "invalid username or password")
		return
	}
	token, err := s.issue(acct)
	if err != nil {
		abort(c, http.StatusInternalServerError, "failed to generate token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) register(c *gin.Context) {
	var reg service.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		abort(c, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := s.AddAccount(reg); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errTaken) {
			status = http.StatusConflict
		}
		abort(c, status, err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{"username": reg.Username})
}

var errTaken = errors.New("username already taken")

// AddAccount creates an account directly.
func (s *Server) AddAccount(reg service.Registration) error {
	reg.Username = strings.TrimSpace(reg.Username)
	if reg.Username == "" || reg.Password == "" {
		return errors.New("username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[reg.Username]; ok {
		return errTaken
	}
	s.accounts[reg.Username] = &account{
		id:           s.allocID(),
		username:     reg.Username,
		email:        reg.Email,
		passwordHash: hash,
	}
	return nil
}

func (s *Server) allocID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Server) stamp() service.Timestamp {
	return service.Timestamp{Time: s.now().UTC()}
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"status": status, "message": msg})
}

func username(c *gin.Context) string {
	return c.GetString(userKey)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abort(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// pageRequest is the common list query.
type pageRequest struct {
	page int
	size int
	q    string
	tags []string
	desc bool
}

func parsePageRequest(c *gin.Context) pageRequest {
	pr := pageRequest{size: defaultPageSize, desc: true}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n >= 0 {
		pr.page = n
	}
	if n, err := strconv.Atoi(c.Query("size")); err == nil && n > 0 {
		pr.size = min(n, maxPageSize)
	}
	pr.q = strings.ToLower(strings.TrimSpace(c.Query("q")))
	for _, t := range strings.Split(c.Query("tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			pr.tags = append(pr.tags, t)
		}
	}
	if sort := c.Query("sort"); strings.HasSuffix(sort, ",asc") {
		pr.desc = false
	}
	return pr
}

func (pr pageRequest) matches(fields ...string) bool {
	if pr.q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), pr.q) {
			return true
		}
	}
	return false
}

func (pr pageRequest) hasTags(have []string) bool {
	for _, want := range pr.tags {
		found := false
		for _, h := range have {
			if strings.EqualFold(h, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// respondPage writes matched (in insertion order) as one page.
func respondPage[T any](c *gin.Context, pr pageRequest, matched []T) {
	if pr.desc {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}
	total := len(matched)
	start := min(pr.page*pr.size, total)
	end := min(start+pr.size, total)
	content := append([]T{}, matched[start:end]...)
	c.JSON(http.StatusOK, service.Page[T]{
		Content:       content,
		TotalElements: int64(total),
		TotalPages:    (total + pr.size - 1) / pr.size,
		Number:        pr.page,
		Size:          pr.size,
	})
}
