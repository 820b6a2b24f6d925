package projections

import (
	"context"

	"otterpoint/internal/application/listutil"
	domainAdmin "otterpoint/internal/domain/admin"
	domainItem "otterpoint/internal/domain/item"
	"otterpoint/internal/domain/pointlog"
	"otterpoint/internal/domain/pointtype"
)

// QueryGetPointLogs derives a page of the global ledger.
func QueryGetPointLogs(ctx context.Context, q listutil.Query, logs PointLogLister) (listutil.View[pointlog.Log], error) {
	rows, err := logs.ListPointLogs(ctx)
	return deriveOrEmpty(rows, err, PointLogSpec, q)
}

// QueryGetPointTypes derives a page of point types. The status filter runs
// in the pipeline, so every type is fetched.
func QueryGetPointTypes(ctx context.Context, q listutil.Query, types PointTypeLister) (listutil.View[pointtype.PointType], error) {
	rows, err := types.ListPointTypes(ctx, pointtype.Filter{})
	return deriveOrEmpty(rows, err, PointTypeSpec, q)
}

// QueryGetAdmins derives a page of admin accounts.
func QueryGetAdmins(ctx context.Context, q listutil.Query, admins AdminLister) (listutil.View[domainAdmin.Admin], error) {
	rows, err := admins.ListAdmins(ctx)
	return deriveOrEmpty(rows, err, AdminSpec, q)
}

// QueryGetItems derives a page of catalog items.
func QueryGetItems(ctx context.Context, q listutil.Query, items ItemLister) (listutil.View[domainItem.Item], error) {
	rows, err := items.ListItems(ctx)
	return deriveOrEmpty(rows, err, ItemSpec, q)
}
