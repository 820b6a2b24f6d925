package web

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"time"

	"otterpoint/internal/adapters/backend"
	"otterpoint/internal/adapters/http/middleware"
	"otterpoint/internal/adapters/http/perf"
	auditStore "otterpoint/internal/adapters/storage/audit"
	sessionStore "otterpoint/internal/adapters/storage/session"
	"otterpoint/internal/domain/session"
)

//go:embed templates/*.html static
var assets embed.FS

// Deps holds everything the web layer talks to.
type Deps struct {
	Backend     *backend.Client
	Sessions    sessionStore.Store
	Audit       auditStore.Store // optional; nil disables the audit trail
	Collector   *perf.Collector
	Limiter     *middleware.RateLimiter
	CSRFKey     []byte
	Secure      bool
	SessionTTL  time.Duration
	SlowRequest time.Duration
	// ImageOrigins are extra origins allowed to serve item images.
	ImageOrigins []string
}

// Global dependencies (set by NewMux)
var (
	deps Deps
	gate *middleware.Gate
)

// timeNow is a variable for testability.
var timeNow = time.Now

// NewMux wires HTTP handlers for the portal.
// PRE: d.Backend, d.Sessions, d.Limiter are non-nil; len(d.CSRFKey) == 32
// POST: Returns the root handler with the full middleware chain applied
func NewMux(d Deps) http.Handler {
	deps = d
	if deps.Collector == nil {
		deps.Collector = perf.NewCollector(perf.DefaultRingSize)
	}
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = 24 * time.Hour
	}
	gate = middleware.NewGate(func(ctx context.Context) middleware.Prober { return connFrom(ctx) })

	app := http.NewServeMux()
	registerRoutes(app)

	// Sessions -> backend jar -> CSRF -> auth resolution -> routes
	portal := middleware.Chain(app,
		middleware.Sessions(deps.Sessions, middleware.SessionOptions{TTL: deps.SessionTTL, Secure: deps.Secure, Now: timeNow}),
		bindBackend,
		middleware.CSRF(deps.CSRFKey, deps.Secure, nil),
		middleware.Resolve(gate),
	)

	static, _ := fs.Sub(assets, "static")
	root := http.NewServeMux()
	root.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	root.HandleFunc("GET /healthz", handleHealthz)
	root.Handle("/", portal)

	return middleware.Chain(root,
		middleware.Timing(deps.Collector, deps.SlowRequest),
		middleware.SecurityHeaders(deps.ImageOrigins...),
		middleware.RateLimit(deps.Limiter),
	)
}

func registerRoutes(mux *http.ServeMux) {
	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireClass(gate, session.ClassAdmin)(loadAdmin(h))
	}
	member := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireClass(gate, session.ClassMember)(h)
	}

	// Public
	mux.HandleFunc("GET /{$}", handleHome)
	mux.HandleFunc("POST /member/login", handleMemberLogin)
	mux.HandleFunc("GET /member/register", handleRegister)
	mux.HandleFunc("POST /member/register", handleRegister)
	mux.HandleFunc("GET /member/reset-password", handleResetPage)
	mux.HandleFunc("POST /member/reset-password/send", handleResetSend)
	mux.HandleFunc("POST /member/reset-password/verify", handleResetVerify)
	mux.HandleFunc("POST /member/reset-password", handleResetSet)
	mux.HandleFunc("GET /admin/login", handleAdminLogin)
	mux.HandleFunc("POST /admin/login", handleAdminLogin)
	mux.HandleFunc("GET /admin/captcha", handleCaptcha)

	// Admin
	mux.Handle("GET /admin", admin(handleDashboard))
	mux.Handle("POST /admin/logout", admin(handleAdminLogout))
	mux.Handle("GET /admin/members", admin(handleMembers))
	mux.Handle("GET /admin/members/export", admin(handleMembersExport))
	mux.Handle("GET /admin/members/{id}/edit", admin(handleMemberEdit))
	mux.Handle("POST /admin/members/{id}/edit", admin(handleMemberEdit))
	mux.Handle("GET /admin/members/{id}/toggle", admin(handleMemberToggle))
	mux.Handle("POST /admin/members/{id}/toggle", admin(handleMemberToggle))
	mux.Handle("GET /admin/members/{id}/delete", admin(handleMemberDelete))
	mux.Handle("POST /admin/members/{id}/delete", admin(handleMemberDelete))
	mux.Handle("GET /admin/members/{id}/points", admin(handlePointManage))
	mux.Handle("POST /admin/members/{id}/points", admin(handlePostPoints))
	mux.Handle("GET /admin/members/{id}/points/export", admin(handlePointManageExport))
	mux.Handle("GET /admin/point-logs", admin(handlePointLogs))
	mux.Handle("GET /admin/point-logs/export", admin(handlePointLogsExport))
	mux.Handle("GET /admin/point-types", admin(handlePointTypes))
	mux.Handle("GET /admin/point-types/export", admin(handlePointTypesExport))
	mux.Handle("GET /admin/point-types/new", admin(handlePointTypeForm))
	mux.Handle("POST /admin/point-types/new", admin(handlePointTypeForm))
	mux.Handle("GET /admin/point-types/{id}/edit", admin(handlePointTypeForm))
	mux.Handle("POST /admin/point-types/{id}/edit", admin(handlePointTypeForm))
	mux.Handle("GET /admin/admins", admin(requireIT(handleAdmins)))
	mux.Handle("GET /admin/admins/new", admin(requireIT(handleAdminForm)))
	mux.Handle("POST /admin/admins/new", admin(requireIT(handleAdminForm)))
	mux.Handle("GET /admin/admins/{id}/edit", admin(requireIT(handleAdminForm)))
	mux.Handle("POST /admin/admins/{id}/edit", admin(requireIT(handleAdminForm)))
	mux.Handle("GET /admin/items", admin(handleItems))
	mux.Handle("GET /admin/items/export", admin(handleItemsExport))
	mux.Handle("GET /admin/items/new", admin(handleItemForm))
	mux.Handle("POST /admin/items/new", admin(handleItemForm))
	mux.Handle("GET /admin/items/{id}/edit", admin(handleItemForm))
	mux.Handle("POST /admin/items/{id}/edit", admin(handleItemForm))
	mux.Handle("GET /admin/items/{id}/delete", admin(handleItemDelete))
	mux.Handle("POST /admin/items/{id}/delete", admin(handleItemDelete))
	mux.Handle("GET /admin/change-password", admin(handleAdminChangePassword))
	mux.Handle("POST /admin/change-password", admin(handleAdminChangePassword))
	mux.Handle("GET /admin/audit", admin(handleAuditLog))
	mux.Handle("GET /admin/system", admin(handleSystem))

	// Member
	mux.Handle("GET /member", member(handleMemberCard))
	mux.Handle("POST /member/logout", member(handleMemberLogout))
	mux.Handle("GET /member/point", member(handleMemberPoints))
	mux.Handle("GET /member/point/export", member(handleMemberPointsExport))
	mux.Handle("GET /member/edit", member(handleProfile))
	mux.Handle("POST /member/edit", member(handleProfile))
	mux.Handle("GET /member/change-password", member(handleMemberChangePassword))
	mux.Handle("POST /member/change-password", member(handleMemberChangePassword))
	mux.Handle("GET /member/items", member(handleMemberCatalog))
}

// handleHealthz reports liveness without touching the backend.
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
