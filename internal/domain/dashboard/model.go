package dashboard

import (
	"otterpoint/internal/domain/labels"
)

// Summary holds the admin dashboard counters. A nil counter means the
// backend did not report it and is shown as a placeholder, never as zero.
type Summary struct {
	TotalMembers   *int64 `json:"totalMembers"`
	NewMembers     *int64 `json:"newMembers"`
	FormalMembers  *int64 `json:"formalMembers"`
	PasserMembers  *int64 `json:"passerMembers"`
	IssuedPoints   *int64 `json:"issuedPoints"`
	ConsumedPoints *int64 `json:"consumedPoints"`
	ExpiredPoints  *int64 `json:"expiredPoints"`
	ActiveItems    *int64 `json:"activeItems"`
}

// Tile is one labelled counter.
type Tile struct {
	Label string
	Value string
}

// Tiles lists the counters in display order.
// PRE: none
// POST: Returns one tile per counter; absent counters carry the placeholder
func (s Summary) Tiles() []Tile {
	return []Tile{
		{"會員總數", labels.Int(s.TotalMembers)},
		{"新進會員", labels.Int(s.NewMembers)},
		{"正式會員", labels.Int(s.FormalMembers)},
		{"非正式會員", labels.Int(s.PasserMembers)},
		{"派發點數", labels.Int(s.IssuedPoints)},
		{"消耗點數", labels.Int(s.ConsumedPoints)},
		{"過期點數", labels.Int(s.ExpiredPoints)},
		{"上架商品", labels.Int(s.ActiveItems)},
	}
}
