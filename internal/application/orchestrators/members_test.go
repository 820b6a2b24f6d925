package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"

	domainAudit "otterpoint/internal/domain/audit"
	domainMember "otterpoint/internal/domain/member"
	"otterpoint/internal/domain/pointlog"
	"otterpoint/internal/domain/pointtype"
)

func TestExecuteUpdateMember(t *testing.T) {
	b := &mockBackend{}
	p := domainMember.Profile{LastName: "王", FirstName: "小明", PhoneNumber: "0912", Gender: domainMember.GenderMale}
	if err := ExecuteUpdateMember(context.Background(), UpdateMemberInput{MemberID: "M0001", Profile: p}, UpdateMemberDeps{Backend: b}); err != nil {
		t.Fatalf("email and region are optional for admin edits: %v", err)
	}
	p.FirstName = ""
	err := ExecuteUpdateMember(context.Background(), UpdateMemberInput{MemberID: "M0001", Profile: p}, UpdateMemberDeps{Backend: b})
	if !errors.Is(err, domainMember.ErrFirstNameRequired) || b.count() != 1 {
		t.Errorf("err = %v calls = %v", err, b.calls)
	}
}

func TestModerateMember_RequiresConfirmation(t *testing.T) {
	ops := map[string]func(context.Context, ModerateMemberInput, ModerateMemberDeps) error{
		"toggle": ExecuteToggleMember,
		"delete": ExecuteDeleteMember,
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			b := &mockBackend{}
			a := &mockAudit{}
			deps := ModerateMemberDeps{Backend: b, Recording: recording(a)}
			if err := op(context.Background(), ModerateMemberInput{MemberID: "M0001"}, deps); !errors.Is(err, ErrNotConfirmed) {
				t.Errorf("unconfirmed: %v", err)
			}
			if err := op(context.Background(), ModerateMemberInput{Confirmed: true}, deps); !errors.Is(err, ErrIDRequired) {
				t.Errorf("missing id: %v", err)
			}
			if b.count() != 0 {
				t.Fatalf("sent without confirmation: %v", b.calls)
			}
			if err := op(context.Background(), ModerateMemberInput{MemberID: "M0001", Confirmed: true}, deps); err != nil {
				t.Fatal(err)
			}
			if b.count() != 1 || len(a.events) != 1 || a.events[0].ResourceID != "M0001" {
				t.Errorf("calls = %v events = %+v", b.calls, a.events)
			}
		})
	}
}

func TestExecutePostPoints(t *testing.T) {
	passer := domainMember.Member{MemberID: "M0001", Level: domainMember.LevelPasser}
	formal := domainMember.Member{MemberID: "M0002", Level: domainMember.LevelFormal}
	add := pointtype.PointType{TypeID: "TP00001", Category: pointtype.CategoryAdd}
	consume := pointtype.PointType{TypeID: "TP00002", Category: pointtype.CategoryConsume}

	tests := []struct {
		name        string
		input       PostPointsInput
		wantErr     error
		wantConfirm string
		wantCalls   int
	}{
		{"zero points", PostPointsInput{Member: formal, Type: add, Points: "0", Confirmed: true}, pointlog.ErrInvalidPoints, "", 0},
		{"non-integer points", PostPointsInput{Member: formal, Type: add, Points: "1.5", Confirmed: true}, pointlog.ErrInvalidPoints, "", 0},
		{"missing type", PostPointsInput{Member: formal, Points: "5", Confirmed: true}, pointlog.ErrTypeRequired, "", 0},
		{"add needs confirmation", PostPointsInput{Member: formal, Type: add, Points: "5"}, nil, confirmPosting, 0},
		{"passer consume warns", PostPointsInput{Member: passer, Type: consume, Points: "5"}, nil, confirmPasserConsume, 0},
		{"formal consume plain confirm", PostPointsInput{Member: formal, Type: consume, Points: "5"}, nil, confirmPosting, 0},
		{"confirmed posting", PostPointsInput{Member: passer, Type: consume, Points: " 30 ", Note: " 兌換 ", Confirmed: true}, nil, "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &mockBackend{}
			_, err := ExecutePostPoints(context.Background(), tt.input, PostPointsDeps{Backend: b})
			if b.count() != tt.wantCalls {
				t.Fatalf("calls = %v", b.calls)
			}
			if tt.wantConfirm != "" {
				var ce *ConfirmationError
				if !errors.As(err, &ce) || ce.Title != tt.wantConfirm {
					t.Fatalf("err = %v, want confirmation %q", err, tt.wantConfirm)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantCalls == 1 {
				want := pointlog.Posting{MemberID: "M0001", TypeID: "TP00002", Points: 30, Note: "兌換"}
				if b.lastPosting != want {
					t.Errorf("posting = %+v", b.lastPosting)
				}
			}
		})
	}
}

func TestExecutePostPoints_ConfirmTextNamesCategory(t *testing.T) {
	_, err := ExecutePostPoints(context.Background(),
		PostPointsInput{Member: domainMember.Member{MemberID: "M1"}, Type: pointtype.PointType{TypeID: "T", Category: pointtype.CategoryConsume}, Points: "12"},
		PostPointsDeps{Backend: &mockBackend{}})
	var ce *ConfirmationError
	if !errors.As(err, &ce) || !strings.Contains(ce.Text, "消耗") || !strings.Contains(ce.Text, "12") {
		t.Errorf("confirmation = %+v", ce)
	}
}

func TestExecutePostPoints_LogicalFailureRecorded(t *testing.T) {
	b := &mockBackend{err: errLogical}
	a := &mockAudit{}
	_, err := ExecutePostPoints(context.Background(),
		PostPointsInput{Member: domainMember.Member{MemberID: "M1"}, Type: pointtype.PointType{TypeID: "T"}, Points: "5", Confirmed: true},
		PostPointsDeps{Backend: b, Recording: recording(a)})
	if !errors.Is(err, errLogical) {
		t.Fatalf("err = %v", err)
	}
	if a.events[0].Outcome != domainAudit.OutcomeFailed || a.events[0].Message != errLogical.Error() {
		t.Errorf("event = %+v", a.events[0])
	}
}
