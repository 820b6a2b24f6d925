package orchestrators

import (
	"context"
	"fmt"
	"strings"

	domainAudit "otterpoint/internal/domain/audit"
	domainMember "otterpoint/internal/domain/member"
	"otterpoint/internal/domain/pointlog"
	"otterpoint/internal/domain/pointtype"
)

// MemberEditor is the backend surface of the admin member edit.
type MemberEditor interface {
	UpdateMember(ctx context.Context, id string, p domainMember.Profile) error
}

// UpdateMemberInput carries input for the member edit orchestrator.
type UpdateMemberInput struct {
	MemberID string
	Profile  domainMember.Profile
	Actor    Actor
}

// UpdateMemberDeps holds dependencies for UpdateMember.
type UpdateMemberDeps struct {
	Backend MemberEditor
	Recording
}

// ExecuteUpdateMember saves an admin edit of a member.
// PRE: Actor is an authenticated admin
// POST: The backend stored the profile
func ExecuteUpdateMember(ctx context.Context, input UpdateMemberInput, deps UpdateMemberDeps) error {
	if strings.TrimSpace(input.MemberID) == "" {
		return invalid(ErrIDRequired)
	}
	if err := input.Profile.ValidateIdentity(); err != nil {
		return invalid(err)
	}
	err := deps.Backend.UpdateMember(ctx, input.MemberID, input.Profile)
	deps.record(ctx, input.Actor, domainAudit.ActionUpdate, domainAudit.ResourceMember, input.MemberID, err)
	return err
}

// MemberModerator toggles and deletes members.
type MemberModerator interface {
	ToggleMemberActive(ctx context.Context, id string) error
	DeleteMember(ctx context.Context, id string) error
}

// ModerateMemberInput carries input for the toggle and delete orchestrators.
type ModerateMemberInput struct {
	MemberID  string
	Confirmed bool
	Actor     Actor
}

// ModerateMemberDeps holds dependencies for ToggleMember and DeleteMember.
type ModerateMemberDeps struct {
	Backend MemberModerator
	Recording
}

// ExecuteToggleMember flips a member's active flag.
// PRE: the admin confirmed the action
// POST: The backend flipped the flag; nothing is sent without confirmation
func ExecuteToggleMember(ctx context.Context, input ModerateMemberInput, deps ModerateMemberDeps) error {
	if err := checkConfirmed(input.MemberID, input.Confirmed); err != nil {
		return err
	}
	err := deps.Backend.ToggleMemberActive(ctx, input.MemberID)
	deps.record(ctx, input.Actor, domainAudit.ActionToggle, domainAudit.ResourceMember, input.MemberID, err)
	return err
}

// ExecuteDeleteMember deletes a member.
// PRE: the admin confirmed the action
// POST: The backend deleted the member; nothing is sent without confirmation
func ExecuteDeleteMember(ctx context.Context, input ModerateMemberInput, deps ModerateMemberDeps) error {
	if err := checkConfirmed(input.MemberID, input.Confirmed); err != nil {
		return err
	}
	err := deps.Backend.DeleteMember(ctx, input.MemberID)
	deps.record(ctx, input.Actor, domainAudit.ActionDelete, domainAudit.ResourceMember, input.MemberID, err)
	return err
}

func checkConfirmed(id string, confirmed bool) error {
	if strings.TrimSpace(id) == "" {
		return invalid(ErrIDRequired)
	}
	if !confirmed {
		return invalid(ErrNotConfirmed)
	}
	return nil
}

// PointPoster posts ledger entries.
type PointPoster interface {
	PostPoints(ctx context.Context, p pointlog.Posting) error
}

// PostPointsInput carries input for the point posting orchestrator.
type PostPointsInput struct {
	Member    domainMember.Member
	Type      pointtype.PointType
	Points    string // raw form value
	Note      string
	Confirmed bool
	Actor     Actor
}

// PostPointsDeps holds dependencies for PostPoints.
type PostPointsDeps struct {
	Backend PointPoster
	Recording
}

// Confirmation texts for a posting
const (
	confirmPasserConsume = "此會員尚未驗證為正式會員，確定要執行扣點嗎？"
	warnPasserConsume    = "建議請客戶完成認證後再執行，如屬回扣或特殊情況請再三確認。"
	confirmPosting       = "請確認本次操作資訊無誤"
)

// ExecutePostPoints grants or deducts points for a member. Every posting is
// confirmed first; CONSUME on a PASSER member carries a stronger warning.
// PRE: Type is one of the active types offered to the form
// POST: Returns *ConfirmationError and sends nothing until Confirmed is set
// INVARIANT: Points is a positive integer before any request
func ExecutePostPoints(ctx context.Context, input PostPointsInput, deps PostPointsDeps) (pointlog.Posting, error) {
	points, err := pointlog.ParsePoints(input.Points)
	if err != nil {
		return pointlog.Posting{}, invalid(err)
	}
	p := pointlog.Posting{
		MemberID: input.Member.MemberID,
		TypeID:   input.Type.TypeID,
		Points:   points,
		Note:     strings.TrimSpace(input.Note),
	}
	if err := p.Validate(); err != nil {
		return p, invalid(err)
	}

	if !input.Confirmed {
		if input.Type.Category == pointtype.CategoryConsume && input.Member.IsPasser() {
			return p, &ConfirmationError{Title: confirmPasserConsume, Text: warnPasserConsume}
		}
		verb := "派發"
		if input.Type.Category == pointtype.CategoryConsume {
			verb = "消耗"
		}
		return p, &ConfirmationError{
			Title: confirmPosting,
			Text:  fmt.Sprintf("操作類別：%s，點數：%d，確定要執行嗎？", verb, points),
		}
	}

	err = deps.Backend.PostPoints(ctx, p)
	deps.record(ctx, input.Actor, domainAudit.ActionPostPoints, domainAudit.ResourceMember, p.MemberID, err)
	return p, err
}
