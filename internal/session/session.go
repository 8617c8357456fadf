// Package session holds the signed-in user's token and identity.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"stash/internal/localstore"
	"stash/internal/logging"
	"stash/internal/service"
)

const (
	tokenKey = "token"
	userKey  = "user"
)

// Storage is the persisted backing for a session.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	SetMany(ctx context.Context, pairs map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// User is the identity carried by the bearer token.
type User struct {
	Username  string    `json:"username"`
	Subject   string    `json:"sub,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Session is a token plus the user it belongs to.
type Session struct {
	Token string
	User  User
}

// Valid reports whether both token and user are present.
func (s Session) Valid() bool {
	return s.Token != "" && s.User.Username != ""
}

// Manager owns the current session. The zero value is not usable; call
// NewManager.
type Manager struct {
	store Storage
	log   logging.Logger
	now   func() time.Time

	mu        sync.RWMutex
	cur       Session
	listeners []func()

	restoreOnce sync.Once
	restoreErr  error
}

// NewManager returns a manager with no session loaded. Call Restore once at
// startup to hydrate it.
func NewManager(store Storage, log logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNop()
	}
	return &Manager{store: store, log: log, now: time.Now}
}

// Restore loads the persisted session. It only touches storage on the first
// call; later calls return the first result.
func (m *Manager) Restore(ctx context.Context) error {
	m.restoreOnce.Do(func() {
		m.restoreErr = m.restore(ctx)
	})
	return m.restoreErr
}

func (m *Manager) restore(ctx context.Context) error {
	rawTok, err := m.store.Get(ctx, tokenKey)
	if errors.Is(err, localstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	rawUser, err := m.store.Get(ctx, userKey)
	if err != nil && !errors.Is(err, localstore.ErrNotFound) {
		return fmt.Errorf("restore session: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal([]byte(rawTok), &tok); err != nil || tok.AccessToken == "" {
		m.log.Warnf(ctx, "session: discarding unreadable token")
		return m.store.Delete(ctx, tokenKey, userKey)
	}
	var user User
	if rawUser != "" {
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			m.log.Warnf(ctx, "session: discarding unreadable user: %v", err)
			return m.store.Delete(ctx, tokenKey, userKey)
		}
	}
	if !user.ExpiresAt.IsZero() && !m.now().Before(user.ExpiresAt) {
		m.log.Infof(ctx, "session: stored token expired at %s", user.ExpiresAt.Format(time.RFC3339))
		return m.store.Delete(ctx, tokenKey, userKey)
	}

	m.mu.Lock()
	m.cur = Session{Token: tok.AccessToken, User: user}
	m.mu.Unlock()
	m.log.Debugf(ctx, "session: restored user %s", user.Username)
	return nil
}

// SetCredentials stores token as the current session. The user identity is
// read from the token's claims when it is a JWT; otherwise username is used.
func (m *Manager) SetCredentials(ctx context.Context, token, username string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, errors.New("empty token")
	}
	user := UserFromToken(token)
	if user.Username == "" {
		user.Username = username
	}
	if user.Username == "" {
		return Session{}, errors.New("token carries no user and no username was given")
	}

	tokJSON, err := json.Marshal(&oauth2.Token{AccessToken: token, TokenType: "Bearer", Expiry: user.ExpiresAt})
	if err != nil {
		return Session{}, err
	}
	userJSON, err := json.Marshal(user)
	if err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.SetMany(ctx, map[string]string{tokenKey: string(tokJSON), userKey: string(userJSON)}); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	m.cur = Session{Token: token, User: user}
	return m.cur, nil
}

// Logout clears the in-memory session and persisted storage together, then
// notifies listeners.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	had := m.cur.Token != ""
	m.cur = Session{}
	err := m.store.Delete(ctx, tokenKey, userKey)
	listeners := append([]func(){}, m.listeners...)
	m.mu.Unlock()

	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if had {
		for _, fn := range listeners {
			fn()
		}
	}
	return nil
}

// OnLogout registers fn to run after a session is cleared.
func (m *Manager) OnLogout(fn func()) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Current returns the session and whether one is active.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur, m.cur.Valid()
}

// IsAuthenticated reports whether both token and user are present.
func (m *Manager) IsAuthenticated() bool {
	_, ok := m.Current()
	return ok
}

// Token implements oauth2.TokenSource for the HTTP transport.
func (m *Manager) Token() (*oauth2.Token, error) {
	s, ok := m.Current()
	if !ok {
		return nil, service.ErrUnauthorized
	}
	if !s.User.ExpiresAt.IsZero() && !m.now().Before(s.User.ExpiresAt) {
		return nil, service.ErrUnauthorized
	}
	return &oauth2.Token{AccessToken: s.Token, TokenType: "Bearer", Expiry: s.User.ExpiresAt}, nil
}

var _ oauth2.TokenSource = (*Manager)(nil)

// UserFromToken reads identity claims from a JWT without verifying its
// signature; the server verifies, the client only displays.
func UserFromToken(token string) User {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return User{}
	}
	var u User
	if sub, err := claims.GetSubject(); err == nil {
		u.Subject = sub
	}
	if name, ok := claims["username"].(string); ok {
		u.Username = name
	} else if name, ok := claims["preferred_username"].(string); ok {
		u.Username = name
	} else {
		u.Username = u.Subject
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		u.ExpiresAt = exp.Time
	}
	return u
}
