package web

import (
	"context"
	"sync"
	"time"

	"github.com/etnz/psw/store"
	"github.com/google/uuid"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "psw_session"

// Session is an authenticated user.
type Session struct {
	Token    string    `json:"-"`
	UserID   uint      `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	RoleID   int       `json:"role_id"`
	Format   string    `json:"format_preference"`
	LastSeen time.Time `json:"-"`
}

// IsAdmin reports whether the user has the admin role.
func (s Session) IsAdmin() bool { return s.RoleID == store.RoleAdmin }

// Sessions keeps the sessions in memory. A session expires after Timeout
// without a request.
type Sessions struct {
	Timeout time.Duration
	Now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessions returns an empty session table.
func NewSessions(timeout time.Duration) *Sessions {
	return &Sessions{Timeout: timeout, Now: time.Now, sessions: make(map[string]*Session)}
}

// Start opens a session for u and returns it.
func (s *Sessions) Start(u store.User) Session {
	sess := &Session{
		Token:    uuid.NewString(),
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		RoleID:   u.RoleID,
		Format:   u.Format,
		LastSeen: s.Now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
	return *sess
}

// Get returns the live session of token and extends it.
func (s *Sessions) Get(token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return Session{}, false
	}
	now := s.Now()
	if now.Sub(sess.LastSeen) > s.Timeout {
		delete(s.sessions, token)
		return Session{}, false
	}
	sess.LastSeen = now
	return *sess, true
}

// Update applies f to every session of a user.
func (s *Sessions) Update(userID uint, f func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			f(sess)
		}
	}
}

// End closes a session.
func (s *Sessions) End(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// EndUser closes every session of a user.
func (s *Sessions) EndUser(userID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, token)
		}
	}
}

// Sweep removes the expired sessions and returns how many were removed.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	n := 0
	for token, sess := range s.sessions {
		if now.Sub(sess.LastSeen) > s.Timeout {
			delete(s.sessions, token)
			n++
		}
	}
	return n
}

// LoginWindow is the period over which failed logins are counted.
const LoginWindow = 15 * time.Minute

// Limiter counts failed logins per username.
type Limiter struct {
	Max int
	Now func() time.Time

	mu       sync.Mutex
	failures map[string][]time.Time
}

// NewLimiter allows attempts failed logins per username within LoginWindow.
func NewLimiter(attempts int) *Limiter {
	return &Limiter{Max: attempts, Now: time.Now, failures: make(map[string][]time.Time)}
}

func (l *Limiter) recent(username string) []time.Time {
	cutoff := l.Now().Add(-LoginWindow)
	kept := l.failures[username][:0]
	for _, t := range l.failures[username] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, username)
		return nil
	}
	l.failures[username] = kept
	return kept
}

// Allow reports whether username may try to log in.
func (l *Limiter) Allow(username string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recent(username)) < l.Max
}

// Fail records a failed login.
func (l *Limiter) Fail(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[username] = append(l.recent(username), l.Now())
}

// Reset forgets the failures of username after a successful login.
func (l *Limiter) Reset(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, username)
}

type sessionKey struct{}

func withSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session attached to ctx.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
