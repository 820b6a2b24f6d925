package projections

import (
	"context"

	storageAudit "otterpoint/internal/adapters/storage/audit"
	"otterpoint/internal/application/listutil"
	domainAudit "otterpoint/internal/domain/audit"
)

// AuditWindow bounds how many recent events the audit page considers.
const AuditWindow = 1000

// QueryGetAuditLog derives a page of the newest portal audit events. The
// date range is pushed down to the store; the pipeline applies it again.
// PRE: q was parsed with AuditSpec
// POST: Returns at most AuditWindow candidate events, newest first by default
func QueryGetAuditLog(ctx context.Context, q listutil.Query, store AuditStore) (listutil.View[domainAudit.Event], error) {
	events, err := store.List(ctx, storageAudit.Filter{From: q.From, To: q.To}, AuditWindow)
	return deriveOrEmpty(events, err, AuditSpec, q)
}
