package projections

import (
	"context"

	"golang.org/x/sync/errgroup"

	"otterpoint/internal/application/listutil"
	domainMember "otterpoint/internal/domain/member"
	"otterpoint/internal/domain/pointlog"
	"otterpoint/internal/domain/pointtype"
)

// GetPointManageDeps holds dependencies for GetPointManage.
type GetPointManageDeps struct {
	Members MemberReader
	Types   PointTypeLister
}

// GetPointManageResult is the admin point page of one member.
type GetPointManageResult struct {
	Member  domainMember.Member
	Summary pointlog.Summary
	Logs    listutil.View[pointlog.Log]
	Types   []pointtype.PointType // active types offered by the posting form
}

// QueryGetPointManage loads a member, their ledger and the active point types
// concurrently.
// PRE: memberID is non-empty; q was parsed with MemberPointLogSpec
// POST: Summary covers the whole ledger, not only the filtered page
func QueryGetPointManage(ctx context.Context, memberID string, q listutil.Query, deps GetPointManageDeps) (GetPointManageResult, error) {
	var (
		m     domainMember.Member
		logs  []pointlog.Log
		types []pointtype.PointType
	)
	active := true
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		m, err = deps.Members.GetMember(gctx, memberID)
		return err
	})
	g.Go(func() (err error) {
		logs, err = deps.Members.MemberPointLogs(gctx, memberID)
		return err
	})
	g.Go(func() (err error) {
		types, err = deps.Types.ListPointTypes(gctx, pointtype.Filter{Active: &active})
		return err
	})
	if err := g.Wait(); err != nil {
		return GetPointManageResult{Logs: listutil.Derive[pointlog.Log](nil, MemberPointLogSpec, q)}, err
	}
	return GetPointManageResult{
		Member:  m,
		Summary: pointlog.Summarize(logs),
		Logs:    listutil.Derive(logs, MemberPointLogSpec, q),
		Types:   types,
	}, nil
}

// FindType returns the offered type with id.
func (r GetPointManageResult) FindType(id string) (pointtype.PointType, bool) {
	for _, t := range r.Types {
		if t.TypeID == id {
			return t, true
		}
	}
	return pointtype.PointType{}, false
}
