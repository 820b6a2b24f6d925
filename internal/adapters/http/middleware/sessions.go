package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	sessionStore "otterpoint/internal/adapters/storage/session"
	"otterpoint/internal/domain/session"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionContextKey contextKey = "session"

// CookieName is the portal session cookie.
const CookieName = "otter_session"

// SessionOptions configures Sessions.
type SessionOptions struct {
	TTL    time.Duration
	Secure bool
	Now    func() time.Time
}

// keyedMutex hands out one mutex per token and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

// Lock blocks until token is free and returns its unlock func.
func (k *keyedMutex) Lock(token string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[token]
	if !ok {
		m = &refMutex{}
		k.locks[token] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, token)
		}
		k.mu.Unlock()
	}
}

// Sessions returns middleware that attaches the portal session to every
// request and persists it once the handler returns. Requests carrying the
// same token run one at a time.
// PRE: store is non-nil, opts.TTL > 0
// POST: The request context holds a *session.Session; a new visitor gets a cookie
func Sessions(store sessionStore.Store, opts SessionOptions) func(http.Handler) http.Handler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	locks := &keyedMutex{}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var sess *session.Session

			if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
				unlock := locks.Lock(c.Value)
				defer unlock()
				loaded, lerr := store.Load(ctx, c.Value)
				switch {
				case lerr == nil && !loaded.Expired(now()):
					sess = loaded
				case lerr != nil && !errors.Is(lerr, session.ErrNotFound):
					slog.Warn("session_load_failed", "error", lerr)
				}
			}

			if sess == nil {
				token, err := generateToken()
				if err != nil {
					slog.Error("session_token_failed", "error", err)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				sess = session.New(token, now(), opts.TTL)
				setSessionCookie(w, token, opts)
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSession(ctx, sess)))

			if err := store.Save(context.WithoutCancel(ctx), sess); err != nil {
				slog.Error("session_save_failed", "error", err)
			}
		})
	}
}

// SessionFrom extracts the portal session from the request context.
func SessionFrom(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(*session.Session)
	return s, ok && s != nil
}

// ContextWithSession returns a context with the given session set.
func ContextWithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

func setSessionCookie(w http.ResponseWriter, token string, opts SessionOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(opts.TTL / time.Second),
	})
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
