// Package session defines the portal session: the cached authentication
// state of both user classes and the per-visitor wizard state.
package session

import (
	"errors"
	"net/http"
	"time"

	"otterpoint/internal/domain/flow"
)

// Class is a user class with its own backend session.
type Class string

// User classes
const (
	ClassAdmin  Class = "admin"
	ClassMember Class = "member"
)

// Classes lists every user class.
var Classes = []Class{ClassAdmin, ClassMember}

// State is the tri-state authentication status of one class.
type State int

// Auth states. The zero value is Checking so a fresh session always probes.
const (
	Checking State = iota
	Authenticated
	Unauthenticated
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "checking"
	}
}

// ErrNotFound is returned by stores for unknown or expired tokens.
var ErrNotFound = errors.New("session not found")

// Flags holds one State per class.
type Flags struct {
	Admin  State `json:"admin"`
	Member State `json:"member"`
}

// Get returns the state of class c.
func (f Flags) Get(c Class) State {
	if c == ClassAdmin {
		return f.Admin
	}
	return f.Member
}

// Set updates the state of class c.
func (f *Flags) Set(c Class, s State) {
	if c == ClassAdmin {
		f.Admin = s
		return
	}
	f.Member = s
}

// Resolved reports whether no class is still Checking.
func (f Flags) Resolved() bool {
	return f.Admin != Checking && f.Member != Checking
}

// LoginPath is where an unauthenticated visitor of class c is sent.
func LoginPath(c Class) string {
	if c == ClassAdmin {
		return "/admin/login"
	}
	return "/"
}

// Notice levels
const (
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
	LevelInfo    = "info"
)

// Notice is a dismissible message shown once on the next rendered page.
type Notice struct {
	Level string `json:"level"`
	Title string `json:"title"`
	Text  string `json:"text,omitempty"`
}

// Cookie is a backend cookie held on behalf of the browser.
type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitzero"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"httpOnly,omitempty"`
}

// FromHTTP converts a jar cookie.
func FromHTTP(c *http.Cookie) Cookie {
	return Cookie{
		Name: c.Name, Value: c.Value, Path: c.Path, Domain: c.Domain,
		Expires: c.Expires, Secure: c.Secure, HttpOnly: c.HttpOnly,
	}
}

// HTTP converts back to a net/http cookie.
func (c Cookie) HTTP() *http.Cookie {
	return &http.Cookie{
		Name: c.Name, Value: c.Value, Path: c.Path, Domain: c.Domain,
		Expires: c.Expires, Secure: c.Secure, HttpOnly: c.HttpOnly,
	}
}

// Identity is the signed-in admin as reported by /admin/me.
type Identity struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Unit string `json:"unit,omitempty"`
}

// Session is the server-side record behind the portal cookie.
type Session struct {
	Token          string          `json:"token"`
	CreatedAt      time.Time       `json:"createdAt"`
	ExpiresAt      time.Time       `json:"expiresAt"`
	Auth           Flags           `json:"auth"`
	BackendCookies []Cookie        `json:"backendCookies,omitempty"`
	Admin          Identity        `json:"admin"`
	MemberName     string          `json:"memberName,omitempty"`
	Reset          flow.Reset      `json:"reset"`
	EmailCheck     flow.EmailCheck `json:"emailCheck"`
	Notices        []Notice        `json:"notices,omitempty"`
}

// New creates a session that expires after ttl.
// PRE: token is non-empty, ttl > 0
// POST: Both classes are Checking
func New(token string, now time.Time, ttl time.Duration) *Session {
	return &Session{Token: token, CreatedAt: now, ExpiresAt: now.Add(ttl)}
}

// Expired reports whether the session has passed its lifetime.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// LoggedIn marks class c authenticated.
func (s *Session) LoggedIn(c Class) {
	s.Auth.Set(c, Authenticated)
}

// LoggedOut marks class c unauthenticated and clears its identity.
func (s *Session) LoggedOut(c Class) {
	s.Auth.Set(c, Unauthenticated)
	if c == ClassAdmin {
		s.Admin = Identity{}
		return
	}
	s.MemberName = ""
	s.EmailCheck = flow.EmailCheck{}
}

// Flash queues a notice for the next rendered page.
func (s *Session) Flash(level, title, text string) {
	s.Notices = append(s.Notices, Notice{Level: level, Title: title, Text: text})
}

// TakeNotices returns and clears the queued notices.
func (s *Session) TakeNotices() []Notice {
	n := s.Notices
	s.Notices = nil
	return n
}
