package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/armgate-dev/armgate/pkg/gateway/backend"
)

const sessionCookie = "armgate_session"

// Session binds a web session to the bearer token issued by the control
// server. It is owned by this layer; everything below the handlers treats
// it as read-only.
type Session struct {
	ID        string
	Token     string
	UserID    int
	Username  string
	Roles     []backend.Role
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionStore keeps sessions in memory and references them from a signed
// cookie. Nothing but the opaque session id ever reaches the browser.
type SessionStore struct {
	mu       sync.RWMutex
	cookies  *sessions.CookieStore
	sessions map[string]*Session
	ttl      time.Duration
}

// NewSessionStore creates a store signing cookies with secret.
func NewSessionStore(secret string, ttl time.Duration) *SessionStore {
	cookies := sessions.NewCookieStore([]byte(secret))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionStore{
		cookies:  cookies,
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create registers a session for a successful login and sets the cookie.
func (s *SessionStore) Create(w http.ResponseWriter, r *http.Request, login *backend.LoginResult) (*Session, error) {
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		Token:     login.Token,
		UserID:    login.User.ID,
		Username:  login.User.Username,
		Roles:     login.Roles,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	cookie, _ := s.cookies.Get(r, sessionCookie)
	cookie.Values["sid"] = sess.ID
	if err := s.cookies.Save(r, w, cookie); err != nil {
		s.mu.Lock()
		delete(s.sessions, sess.ID)
		s.mu.Unlock()
		return nil, err
	}
	return sess, nil
}

// Get resolves the session referenced by the request cookie. Expired
// sessions are dropped on sight.
func (s *SessionStore) Get(r *http.Request) (*Session, bool) {
	cookie, err := s.cookies.Get(r, sessionCookie)
	if err != nil {
		return nil, false
	}
	sid, ok := cookie.Values["sid"].(string)
	if !ok || sid == "" {
		return nil, false
	}

	s.mu.RLock()
	sess, ok := s.sessions[sid]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(sess.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, sid)
		s.mu.Unlock()
		return nil, false
	}
	return sess, true
}

// Destroy drops the session and clears the cookie.
func (s *SessionStore) Destroy(w http.ResponseWriter, r *http.Request) {
	cookie, err := s.cookies.Get(r, sessionCookie)
	if err == nil {
		if sid, ok := cookie.Values["sid"].(string); ok {
			s.mu.Lock()
			delete(s.sessions, sid)
			s.mu.Unlock()
		}
		cookie.Options.MaxAge = -1
		_ = s.cookies.Save(r, w, cookie)
	}
}

// Count reports the live session count.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
