package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"otterpoint/internal/domain/session"
)

// Prober asks the backend whether each class is signed in.
type Prober interface {
	AdminCheckLogin(ctx context.Context) (bool, error)
	MemberCheckLogin(ctx context.Context) (bool, error)
}

// ProberFunc returns the prober bound to the request's backend cookies.
type ProberFunc func(ctx context.Context) Prober

// Gate resolves the cached authentication flags of a session.
type Gate struct {
	prober ProberFunc
	flight singleflight.Group
}

// NewGate creates a gate probing through prober.
func NewGate(prober ProberFunc) *Gate {
	return &Gate{prober: prober}
}

// Resolve probes every class still Checking and caches the result on sess.
// Both probes run concurrently; concurrent callers for one session share a
// single round.
// PRE: sess is the request's session
// POST: sess.Auth.Resolved() is true
// INVARIANT: A probe error, non-200 status or non-true data yields Unauthenticated
func (g *Gate) Resolve(ctx context.Context, sess *session.Session) session.Flags {
	if sess.Auth.Resolved() {
		return sess.Auth
	}
	v, _, _ := g.flight.Do(sess.Token, func() (any, error) {
		return g.probe(ctx, sess.Auth), nil
	})
	flags := v.(session.Flags)
	for _, c := range session.Classes {
		if sess.Auth.Get(c) == session.Checking {
			sess.Auth.Set(c, flags.Get(c))
		}
	}
	return sess.Auth
}

func (g *Gate) probe(ctx context.Context, current session.Flags) session.Flags {
	p := g.prober(ctx)
	out := current
	results := map[session.Class]func(context.Context) (bool, error){
		session.ClassAdmin:  p.AdminCheckLogin,
		session.ClassMember: p.MemberCheckLogin,
	}
	states := make([]session.State, len(session.Classes))

	var eg errgroup.Group
	for i, c := range session.Classes {
		if current.Get(c) != session.Checking {
			states[i] = current.Get(c)
			continue
		}
		check := results[c]
		eg.Go(func() error {
			ok, err := check(ctx)
			if err != nil {
				slog.Debug("auth_probe_failed", "class", c, "error", err)
			}
			states[i] = session.Unauthenticated
			if err == nil && ok {
				states[i] = session.Authenticated
			}
			return nil
		})
	}
	_ = eg.Wait()

	for i, c := range session.Classes {
		out.Set(c, states[i])
	}
	return out
}

// Resolve returns middleware that resolves the auth flags before any
// handler renders, so navigation always knows both classes.
func Resolve(g *Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess, ok := SessionFrom(r.Context()); ok {
				g.Resolve(r.Context(), sess)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireClass returns middleware that renders next only for an
// authenticated class and redirects everyone else to that class's login entry.
func RequireClass(g *Gate, class session.Class) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFrom(r.Context())
			if !ok || g.Resolve(r.Context(), sess).Get(class) != session.Authenticated {
				if ok {
					sess.Flash(session.LevelInfo, "請先登入", "")
				}
				http.Redirect(w, r, session.LoginPath(class), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IsAuthenticated reports whether class c is signed in on the request's session.
func IsAuthenticated(ctx context.Context, c session.Class) bool {
	sess, ok := SessionFrom(ctx)
	return ok && sess.Auth.Get(c) == session.Authenticated
}
