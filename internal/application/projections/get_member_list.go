package projections

import (
	"context"

	"otterpoint/internal/application/listutil"
	domainMember "otterpoint/internal/domain/member"
)

// GetMemberListDeps holds dependencies for GetMemberList.
type GetMemberListDeps struct {
	Members MemberLister
}

// QueryGetMemberList fetches every member and derives the requested page.
// PRE: q was parsed with MemberSpec
// POST: Returns the derived view; on error the view is empty with q kept
func QueryGetMemberList(ctx context.Context, q listutil.Query, deps GetMemberListDeps) (listutil.View[domainMember.Member], error) {
	members, err := deps.Members.ListMembers(ctx)
	return deriveOrEmpty(members, err, MemberSpec, q)
}

// deriveOrEmpty runs the pipeline, or returns an empty view when the fetch failed
// so the page still renders its filter controls.
func deriveOrEmpty[T any](rows []T, err error, spec listutil.Spec[T], q listutil.Query) (listutil.View[T], error) {
	if err != nil {
		return listutil.Derive[T](nil, spec, q), err
	}
	return listutil.Derive(rows, spec, q), nil
}
