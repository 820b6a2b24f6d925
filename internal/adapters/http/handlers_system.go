package web

import (
	"net/http"
	"time"

	"otterpoint/internal/application/listutil"
	"otterpoint/internal/application/projections"
	domainAudit "otterpoint/internal/domain/audit"
	"otterpoint/internal/domain/session"
)

// snapshotWindow is how far back the system page aggregates timings.
const snapshotWindow = time.Hour

// handleAuditLog renders the portal's own audit trail (GET /admin/audit).
func handleAuditLog(w http.ResponseWriter, r *http.Request) {
	q := projections.AuditSpec.ParseQuery(r.URL.Query())
	var view listutil.View[domainAudit.Event]
	if deps.Audit == nil {
		view = listutil.Derive[domainAudit.Event](nil, projections.AuditSpec, q)
		currentSession(r).Flash(session.LevelInfo, "稽核紀錄未啟用", "")
	} else {
		var err error
		view, err = projections.QueryGetAuditLog(r.Context(), q, deps.Audit)
		if err != nil {
			internalError(w, err)
			return
		}
	}
	page := buildList("稽核紀錄", "/admin/audit", projections.AuditSpec, view, nil)
	renderTemplate(w, r, "list.html", map[string]any{"List": page})
}

// handleSystem renders request and upstream timings (GET /admin/system).
func handleSystem(w http.ResponseWriter, r *http.Request) {
	snap := deps.Collector.Snapshot(timeNow().Add(-snapshotWindow), 10)
	renderTemplate(w, r, "system.html", map[string]any{
		"Snapshot":  snap,
		"Window":    snapshotWindow.String(),
		"Backend":   deps.Backend.BaseURL(),
		"AuditOn":   deps.Audit != nil,
		"StartedAt": startedAt.Format(time.DateTime),
		"Uptime":    timeNow().Sub(startedAt).Truncate(time.Second).String(),
	})
}

var startedAt = time.Now()
