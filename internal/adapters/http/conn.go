package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"otterpoint/internal/adapters/backend"
	"otterpoint/internal/adapters/http/middleware"
	"otterpoint/internal/application/orchestrators"
	domainAdmin "otterpoint/internal/domain/admin"
	"otterpoint/internal/domain/flow"
	"otterpoint/internal/domain/session"
)

const connContextKey contextKey = "backend_conn"

type contextKey string

// bindBackend attaches a backend connection carrying the session's stored
// backend cookies, and writes the jar back to the session once the handler
// returns.
// PRE: runs inside middleware.Sessions
// POST: connFrom(ctx) is non-nil for the rest of the chain
func bindBackend(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := currentSession(r)
		jar, err := deps.Backend.NewJar(sess.BackendCookies)
		if err != nil {
			internalError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), connContextKey, deps.Backend.Conn(jar))
		next.ServeHTTP(w, r.WithContext(ctx))
		sess.BackendCookies = deps.Backend.StoredCookies(jar)
	})
}

// connFrom returns the request's backend connection.
func connFrom(ctx context.Context) *backend.Conn {
	cn, _ := ctx.Value(connContextKey).(*backend.Conn)
	return cn
}

// actorFrom describes the signed-in user of class c for the audit trail.
func actorFrom(r *http.Request, c session.Class) orchestrators.Actor {
	sess := currentSession(r)
	a := orchestrators.Actor{Class: c, IP: middleware.ClientIP(r), UserAgent: r.UserAgent()}
	if c == session.ClassAdmin {
		a.ID, a.Name = sess.Admin.ID, sess.Admin.Name
	} else {
		a.Name = sess.MemberName
	}
	return a
}

// recording returns the audit settings shared by every orchestrator.
func recording() orchestrators.Recording {
	return orchestrators.Recording{Audit: deps.Audit, Now: timeNow}
}

// failed turns an operation error into a notice. action names what was
// attempted ("新增點數類型"). It returns true when it already wrote a
// redirect because the backend session of class c is gone; the caller must
// then stop.
// INVARIANT: A backend auth failure always marks c unauthenticated
func failed(w http.ResponseWriter, r *http.Request, c session.Class, action string, err error) bool {
	sess := currentSession(r)
	if backend.IsAuth(err) {
		slog.Info("auth_event", "event", "backend_session_lost", "class", c, "action", action)
		sess.LoggedOut(c)
		sess.Flash(session.LevelWarning, "登入已失效，請重新登入", "")
		http.Redirect(w, r, session.LoginPath(c), http.StatusSeeOther)
		return true
	}

	flashError(sess, action, err)
	return false
}

// flashError queues the notice for a failed action without touching the
// authentication state. Login forms use it directly since a rejected login
// is not a lost session.
func flashError(sess *session.Session, action string, err error) {
	var ce *flow.CooldownError
	switch {
	case errors.As(err, &ce):
		sess.Flash(session.LevelInfo, ce.Error(), "")
	case orchestrators.IsValidation(err):
		sess.Flash(session.LevelWarning, err.Error(), "")
	case backend.KindOf(err) == backend.KindTransport:
		slog.Warn("upstream_error", "action", action, "error", err)
		sess.Flash(session.LevelError, action+"失敗", backend.Message(err))
	default:
		sess.Flash(session.LevelError, fmt.Sprintf("%s失敗：%s", action, backend.Message(err)), "")
	}
}

// loadAdmin fills in the admin identity when the session was authenticated
// by probe rather than by a login on this portal.
func loadAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := currentSession(r)
		if sess.Admin.Name == "" {
			me, err := connFrom(r.Context()).AdminMe(r.Context())
			if err != nil {
				if failed(w, r, session.ClassAdmin, "讀取管理者資料", err) {
					return
				}
			} else {
				sess.Admin = session.Identity{ID: me.AdminID, Name: me.AdminName, Unit: me.Unit}
			}
		}
		next(w, r)
	}
}

// requireIT restricts admin management to the information department. The
// backend remains the authority.
func requireIT(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := currentSession(r)
		if !domainAdmin.CanManageAdmins(sess.Admin.Unit) {
			sess.Flash(session.LevelWarning, orchestrators.ErrAdminsForbidden.Error(), "")
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}
