package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	domainAudit "otterpoint/internal/domain/audit"
	"otterpoint/internal/domain/session"
)

// AuditRecorder persists audit events.
type AuditRecorder interface {
	Save(ctx context.Context, e domainAudit.Event) error
}

// Actor identifies who triggered an operation and from where.
type Actor struct {
	Class     session.Class
	ID        string
	Name      string
	IP        string
	UserAgent string
}

// Recording is embedded in deps of operations that reach the backend. Both
// fields are optional: a nil Audit records nothing, a nil Now uses time.Now.
type Recording struct {
	Audit AuditRecorder
	Now   func() time.Time
}

func (r Recording) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// record stores the outcome of one backend call. A failing store is logged
// and never fails the operation.
func (r Recording) record(ctx context.Context, actor Actor, action domainAudit.Action, resourceType, resourceID string, err error) {
	if r.Audit == nil {
		return
	}
	e := domainAudit.NewEvent(string(actor.Class), actor.ID, actor.Name, action, r.now()).
		WithResource(resourceType, resourceID).
		WithRequest(actor.IP, actor.UserAgent)
	if err != nil {
		e = e.WithFailure(err)
	}
	if serr := r.Audit.Save(ctx, e); serr != nil {
		slog.Warn("audit_save_failed", "action", action, "resource", resourceType, "error", serr)
	}
}

// RecordExportInput describes one spreadsheet download.
type RecordExportInput struct {
	Resource string
	Rows     int
	Actor    Actor
}

// ExecuteRecordExport notes a spreadsheet export in the audit trail. Exports
// read data the actor can already see, so nothing is refused here.
func ExecuteRecordExport(ctx context.Context, input RecordExportInput, deps Recording) {
	if deps.Audit == nil {
		return
	}
	e := domainAudit.NewEvent(string(input.Actor.Class), input.Actor.ID, input.Actor.Name, domainAudit.ActionExport, deps.now()).
		WithResource(input.Resource, "").
		WithRequest(input.Actor.IP, input.Actor.UserAgent).
		WithMessage(fmt.Sprintf("%d rows", input.Rows))
	if err := deps.Audit.Save(ctx, e); err != nil {
		slog.Warn("audit_save_failed", "action", domainAudit.ActionExport, "resource", input.Resource, "error", err)
	}
}
