package orchestrators

import (
	"context"
	"errors"
	"testing"

	domainAdmin "otterpoint/internal/domain/admin"
	domainAudit "otterpoint/internal/domain/audit"
	domainMember "otterpoint/internal/domain/member"
	"otterpoint/internal/domain/session"
)

func TestExecuteAdminLogin(t *testing.T) {
	tests := []struct {
		name     string
		creds    domainAdmin.Credentials
		backend  *mockBackend
		wantErr  bool
		wantVal  bool
		wantCall int
		wantID   session.Identity
	}{
		{
			name:     "success resolves identity",
			creds:    domainAdmin.Credentials{Username: " amy ", Password: "pw", Captcha: "AB12"},
			backend:  &mockBackend{me: domainAdmin.Profile{AdminID: "AD00002", AdminName: "Amy", Unit: "資訊部"}},
			wantCall: 2,
			wantID:   session.Identity{ID: "AD00002", Name: "Amy", Unit: "資訊部"},
		},
		{
			name:     "me failure falls back to username",
			creds:    domainAdmin.Credentials{Username: "amy", Password: "pw"},
			backend:  &mockBackend{meErr: errors.New("boom")},
			wantCall: 2,
			wantID:   session.Identity{Name: "amy"},
		},
		{
			name:    "missing password sends nothing",
			creds:   domainAdmin.Credentials{Username: "amy"},
			backend: &mockBackend{},
			wantErr: true,
			wantVal: true,
		},
		{
			name:     "backend rejection",
			creds:    domainAdmin.Credentials{Username: "amy", Password: "bad"},
			backend:  &mockBackend{err: errLogical},
			wantErr:  true,
			wantCall: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &mockAudit{}
			id, err := ExecuteAdminLogin(context.Background(), AdminLoginInput{Credentials: tt.creds}, AdminLoginDeps{Backend: tt.backend, Recording: recording(a)})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if IsValidation(err) != tt.wantVal {
				t.Errorf("IsValidation = %v", IsValidation(err))
			}
			if got := tt.backend.count(); got != tt.wantCall {
				t.Errorf("calls = %v", tt.backend.calls)
			}
			if id != tt.wantID {
				t.Errorf("identity = %+v, want %+v", id, tt.wantID)
			}
			if tt.wantCall > 0 && len(a.events) != 1 {
				t.Errorf("audit events = %d", len(a.events))
			}
		})
	}
}

func TestExecuteAdminLogin_AuditFailureDoesNotFail(t *testing.T) {
	b := &mockBackend{}
	a := &mockAudit{err: errors.New("disk full")}
	_, err := ExecuteAdminLogin(context.Background(), AdminLoginInput{Credentials: domainAdmin.Credentials{Username: "amy", Password: "pw"}}, AdminLoginDeps{Backend: b, Recording: recording(a)})
	if err != nil {
		t.Fatalf("audit store error leaked: %v", err)
	}
}

func TestExecuteMemberLogin(t *testing.T) {
	b := &mockBackend{}
	err := ExecuteMemberLogin(context.Background(), MemberLoginInput{Phone: "", Password: "pw"}, MemberLoginDeps{Backend: b})
	if !errors.Is(err, ErrMemberCredentials) || b.count() != 0 {
		t.Fatalf("empty phone: err=%v calls=%v", err, b.calls)
	}

	a := &mockAudit{}
	err = ExecuteMemberLogin(context.Background(), MemberLoginInput{Phone: " 0912345678 ", Password: "pw", Actor: Actor{IP: "10.0.0.1"}}, MemberLoginDeps{Backend: b, Recording: recording(a)})
	if err != nil {
		t.Fatal(err)
	}
	if b.lastPhone != "0912345678" {
		t.Errorf("phone not trimmed: %q", b.lastPhone)
	}
	e := a.events[0]
	if e.ActorClass != "member" || e.Action != domainAudit.ActionLogin || e.IPAddress != "10.0.0.1" || !e.Timestamp.Equal(fixedTime) {
		t.Errorf("event = %+v", e)
	}
}

func TestExecuteLogout_ReportsBackendError(t *testing.T) {
	b := &mockBackend{err: errors.New("down")}
	a := &mockAudit{}
	err := ExecuteLogout(context.Background(), LogoutInput{Actor: Actor{Class: session.ClassAdmin, ID: "AD00002"}}, LogoutDeps{Backend: b, Recording: recording(a)})
	if err == nil {
		t.Error("expected backend error")
	}
	if a.events[0].Outcome != domainAudit.OutcomeFailed {
		t.Errorf("outcome = %s", a.events[0].Outcome)
	}
}

func TestLogoutFunc(t *testing.T) {
	called := false
	var l Logouter = LogoutFunc(func(context.Context) error { called = true; return nil })
	_ = l.Logout(context.Background())
	if !called {
		t.Error("LogoutFunc did not call through")
	}
}

func TestExecuteRegisterMember(t *testing.T) {
	valid := domainMember.Registration{LastName: "王", FirstName: "小明", PhoneNumber: "0912", BirthDate: "1990-01-01", Gender: domainMember.GenderMale}

	b := &mockBackend{}
	bad := valid
	bad.BirthDate = ""
	if err := ExecuteRegisterMember(context.Background(), RegisterMemberInput{Registration: bad}, RegisterMemberDeps{Backend: b}); !errors.Is(err, domainMember.ErrBirthDateRequired) {
		t.Errorf("got %v", err)
	}
	if b.count() != 0 {
		t.Error("invalid registration reached the backend")
	}

	b.err = errLogical
	err := ExecuteRegisterMember(context.Background(), RegisterMemberInput{Registration: valid}, RegisterMemberDeps{Backend: b})
	if !errors.Is(err, errLogical) || IsValidation(err) {
		t.Errorf("backend message must surface verbatim: %v", err)
	}
}

func TestExecuteChangePassword(t *testing.T) {
	tests := []struct {
		name    string
		change  domainMember.PasswordChange
		wantErr error
		calls   int
	}{
		{"mismatch", domainMember.PasswordChange{OldPassword: "a", NewPassword: "b", ConfirmPassword: "c"}, domainMember.ErrPasswordMismatch, 0},
		{"missing old", domainMember.PasswordChange{NewPassword: "b", ConfirmPassword: "b"}, domainMember.ErrOldPasswordRequired, 0},
		{"ok", domainMember.PasswordChange{OldPassword: "a", NewPassword: "b", ConfirmPassword: "b"}, nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &mockBackend{}
			err := ExecuteChangePassword(context.Background(), ChangePasswordInput{Change: tt.change, Actor: Actor{Class: session.ClassAdmin}}, ChangePasswordDeps{Backend: PasswordChangeFunc(b.ChangePassword)})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if b.count() != tt.calls {
				t.Errorf("calls = %v", b.calls)
			}
		})
	}
}
