package pointlog

import (
	"errors"
	"strconv"
	"strings"

	"otterpoint/internal/domain/pointtype"
	"otterpoint/internal/domain/timestamp"
)

// Domain errors
var (
	ErrTypeRequired   = errors.New("請選擇點數類型")
	ErrInvalidPoints  = errors.New("點數必須為正整數")
	ErrMemberRequired = errors.New("缺少會員編號")
)

// Log is an append-only ledger entry. RemainPoints and ExpiredAt are only
// meaningful for ADD; ConsumeFromLogIDs only for CONSUME.
type Log struct {
	LogID             string          `json:"logId"`
	MemberID          string          `json:"memberId"`
	MemberName        string          `json:"memberName"`
	TypeName          string          `json:"typeName"`
	Category          string          `json:"category"`
	OriginalPoints    int64           `json:"originalPoints"`
	RemainPoints      *int64          `json:"remainPoints,omitempty"`
	ConsumeFromLogIDs []string        `json:"consumeFromLogIds,omitempty"`
	Note              string          `json:"note"`
	AdminName         string          `json:"adminName"`
	Unit              string          `json:"unit"`
	CreatedAt         timestamp.Stamp `json:"createdAt"`
	ExpiredAt         timestamp.Stamp `json:"expiredAt,omitempty"`
}

// IsAdd reports whether the log grants points.
func (l Log) IsAdd() bool {
	return l.Category == pointtype.CategoryAdd
}

// Granted returns the originally granted points for ADD logs.
func (l Log) Granted() (int64, bool) {
	if !l.IsAdd() {
		return 0, false
	}
	return l.OriginalPoints, true
}

// Remaining returns the undrawn balance of an ADD log.
func (l Log) Remaining() (int64, bool) {
	if !l.IsAdd() || l.RemainPoints == nil {
		return 0, false
	}
	return *l.RemainPoints, true
}

// Deducted returns the points drawn by a CONSUME log.
func (l Log) Deducted() (int64, bool) {
	if l.IsAdd() {
		return 0, false
	}
	return l.OriginalPoints, true
}

// Sources joins the ADD log ids a CONSUME log drew from.
func (l Log) Sources() string {
	if l.IsAdd() {
		return ""
	}
	return strings.Join(l.ConsumeFromLogIDs, ", ")
}

// Summary is the member-facing balance overview. The zero Summary has a nil
// Total and stands for a ledger that could not be read.
type Summary struct {
	Total         *int64
	NearestExpiry timestamp.Stamp
}

// Summarize totals the remaining points over ADD logs and finds the earliest
// expiry among them. CONSUME logs never contribute.
// PRE: logs belong to a single member
// POST: Total is non-nil, and >= 0 when every RemainPoints is non-negative
func Summarize(logs []Log) Summary {
	var total int64
	s := Summary{Total: &total}
	for _, l := range logs {
		if !l.IsAdd() {
			continue
		}
		if r, ok := l.Remaining(); ok {
			total += r
		}
		if _, ok := l.ExpiredAt.Time(); !ok {
			continue
		}
		if s.NearestExpiry == "" || timestamp.Compare(l.ExpiredAt, s.NearestExpiry) < 0 {
			s.NearestExpiry = l.ExpiredAt
		}
	}
	return s
}

// Posting is the body of POST /admin/member/:id/point.
type Posting struct {
	MemberID string `json:"memberId"`
	TypeID   string `json:"typeId"`
	Points   int64  `json:"points"`
	Note     string `json:"note"`
}

// Validate checks the posting before it is sent.
// PRE: Posting struct is populated from form input
// POST: Returns nil when a member and type are set and points > 0
func (p Posting) Validate() error {
	if strings.TrimSpace(p.MemberID) == "" {
		return ErrMemberRequired
	}
	if strings.TrimSpace(p.TypeID) == "" {
		return ErrTypeRequired
	}
	if p.Points <= 0 {
		return ErrInvalidPoints
	}
	return nil
}

// ParsePoints parses a positive integer point amount.
// PRE: none
// POST: Returns ErrInvalidPoints for empty, non-integer or non-positive input
func ParsePoints(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidPoints
	}
	return n, nil
}
