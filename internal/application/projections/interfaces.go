package projections

import (
	"context"
	"time"

	storageAudit "otterpoint/internal/adapters/storage/audit"
	domainAdmin "otterpoint/internal/domain/admin"
	domainAudit "otterpoint/internal/domain/audit"
	"otterpoint/internal/domain/dashboard"
	domainItem "otterpoint/internal/domain/item"
	domainMember "otterpoint/internal/domain/member"
	"otterpoint/internal/domain/pointlog"
	"otterpoint/internal/domain/pointtype"
)

// The backend reader interfaces below are satisfied by *backend.Conn.

// MemberLister lists every member.
type MemberLister interface {
	ListMembers(ctx context.Context) ([]domainMember.Member, error)
}

// MemberReader reads one member and their ledger.
type MemberReader interface {
	GetMember(ctx context.Context, id string) (domainMember.Member, error)
	MemberPointLogs(ctx context.Context, id string) ([]pointlog.Log, error)
}

// PointLogLister lists the global ledger.
type PointLogLister interface {
	ListPointLogs(ctx context.Context) ([]pointlog.Log, error)
}

// PointTypeLister lists point types.
type PointTypeLister interface {
	ListPointTypes(ctx context.Context, f pointtype.Filter) ([]pointtype.PointType, error)
}

// AdminLister lists admin accounts.
type AdminLister interface {
	ListAdmins(ctx context.Context) ([]domainAdmin.Admin, error)
}

// ItemLister lists every catalog item.
type ItemLister interface {
	ListItems(ctx context.Context) ([]domainItem.Item, error)
}

// DashboardReader fetches the dashboard counters.
type DashboardReader interface {
	Dashboard(ctx context.Context, start, end *time.Time) (dashboard.Summary, error)
}

// CardReader fetches the signed-in member's card.
type CardReader interface {
	MemberInfo(ctx context.Context) (domainMember.Card, error)
}

// SelfPointsReader fetches the signed-in member's ledger.
type SelfPointsReader interface {
	MemberPoints(ctx context.Context) ([]pointlog.Log, error)
}

// CatalogReader fetches the active catalog.
type CatalogReader interface {
	MemberItems(ctx context.Context) ([]domainItem.Item, error)
}

// AuditStore lists portal audit events.
type AuditStore interface {
	List(ctx context.Context, filter storageAudit.Filter, limit int) ([]domainAudit.Event, error)
}
