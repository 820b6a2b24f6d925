package projections

import (
	"context"
	"time"

	"otterpoint/internal/domain/dashboard"
)

// GetDashboardQuery carries the optional date range.
type GetDashboardQuery struct {
	Start *time.Time
	End   *time.Time
}

// GetDashboardResult carries the counters ready for display.
type GetDashboardResult struct {
	Summary dashboard.Summary
	Tiles   []dashboard.Tile
}

// QueryGetDashboard fetches the admin dashboard counters.
// PRE: Start <= End when both are set
// POST: On error Tiles still lists every counter with the placeholder
func QueryGetDashboard(ctx context.Context, q GetDashboardQuery, reader DashboardReader) (GetDashboardResult, error) {
	s, err := reader.Dashboard(ctx, q.Start, q.End)
	if err != nil {
		return GetDashboardResult{Tiles: dashboard.Summary{}.Tiles()}, err
	}
	return GetDashboardResult{Summary: s, Tiles: s.Tiles()}, nil
}
