package orchestrators

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	domainAdmin "otterpoint/internal/domain/admin"
	domainAudit "otterpoint/internal/domain/audit"
	domainItem "otterpoint/internal/domain/item"
	domainMember "otterpoint/internal/domain/member"
	"otterpoint/internal/domain/pointlog"
	"otterpoint/internal/domain/pointtype"
)

var errLogical = errors.New("會員點數不足")

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

// mockBackend implements every backend interface of this package. It
// records call names in order and fails every call when err is set.
type mockBackend struct {
	mu    sync.Mutex
	calls []string
	err   error

	me      domainAdmin.Profile
	meErr   error
	profile domainMember.Profile
	token   string
	url     string

	lastPosting  pointlog.Posting
	lastType     pointtype.PointType
	lastAdmin    domainAdmin.Admin
	lastItem     domainItem.Item
	lastProfile  domainMember.Profile
	lastPhone    string
	lastEmail    string
	lastToken    string
	lastPassword string
}

// call records name and returns the configured error.
// PRE: none
// POST: name is appended to calls
func (m *mockBackend) call(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
	return m.err
}

func (m *mockBackend) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockBackend) AdminLogin(_ context.Context, c domainAdmin.Credentials) error {
	return m.call("AdminLogin")
}

func (m *mockBackend) AdminMe(context.Context) (domainAdmin.Profile, error) {
	_ = m.call("AdminMe")
	return m.me, m.meErr
}

func (m *mockBackend) MemberLogin(_ context.Context, phone, _ string) error {
	m.lastPhone = phone
	return m.call("MemberLogin")
}

func (m *mockBackend) Register(context.Context, domainMember.Registration) error {
	return m.call("Register")
}

func (m *mockBackend) ChangePassword(context.Context, domainMember.PasswordChange) error {
	return m.call("ChangePassword")
}

func (m *mockBackend) Logout(context.Context) error { return m.call("Logout") }

func (m *mockBackend) UpdateMember(_ context.Context, _ string, p domainMember.Profile) error {
	m.lastProfile = p
	return m.call("UpdateMember")
}

func (m *mockBackend) ToggleMemberActive(context.Context, string) error {
	return m.call("ToggleMemberActive")
}

func (m *mockBackend) DeleteMember(context.Context, string) error { return m.call("DeleteMember") }

func (m *mockBackend) PostPoints(_ context.Context, p pointlog.Posting) error {
	m.lastPosting = p
	return m.call("PostPoints")
}

func (m *mockBackend) CreatePointType(_ context.Context, p pointtype.PointType) error {
	m.lastType = p
	return m.call("CreatePointType")
}

func (m *mockBackend) UpdatePointType(_ context.Context, p pointtype.PointType) error {
	m.lastType = p
	return m.call("UpdatePointType")
}

func (m *mockBackend) CreateAdmin(_ context.Context, a domainAdmin.Admin) error {
	m.lastAdmin = a
	return m.call("CreateAdmin")
}

func (m *mockBackend) UpdateAdmin(_ context.Context, a domainAdmin.Admin) error {
	m.lastAdmin = a
	return m.call("UpdateAdmin")
}

func (m *mockBackend) CreateItem(_ context.Context, i domainItem.Item) error {
	m.lastItem = i
	return m.call("CreateItem")
}

func (m *mockBackend) UpdateItem(_ context.Context, i domainItem.Item) error {
	m.lastItem = i
	return m.call("UpdateItem")
}

func (m *mockBackend) DeleteItem(context.Context, string) error { return m.call("DeleteItem") }

func (m *mockBackend) UploadItemImage(_ context.Context, filename string, r io.Reader) (string, error) {
	_, _ = io.ReadAll(r)
	if err := m.call("UploadItemImage"); err != nil {
		return "", err
	}
	return "/images/" + filename, nil
}

func (m *mockBackend) SendResetCode(_ context.Context, phone string) error {
	m.lastPhone = phone
	return m.call("SendResetCode")
}

func (m *mockBackend) CheckResetCode(_ context.Context, phone, _ string) (string, error) {
	m.lastPhone = phone
	if err := m.call("CheckResetCode"); err != nil {
		return "", err
	}
	return m.token, nil
}

func (m *mockBackend) ResetPassword(_ context.Context, phone, pw, token string) error {
	m.lastPhone, m.lastPassword, m.lastToken = phone, pw, token
	return m.call("ResetPassword")
}

func (m *mockBackend) MemberMe(context.Context) (domainMember.Profile, error) {
	return m.profile, m.call("MemberMe")
}

func (m *mockBackend) EditProfile(_ context.Context, p domainMember.Profile) error {
	m.lastProfile = p
	return m.call("EditProfile")
}

func (m *mockBackend) SendProfileEmailCode(_ context.Context, email string) error {
	m.lastEmail = email
	return m.call("SendProfileEmailCode")
}

func (m *mockBackend) CheckProfileEmailCode(_ context.Context, email, _ string) error {
	m.lastEmail = email
	return m.call("CheckProfileEmailCode")
}

// mockAudit collects saved events.
type mockAudit struct {
	events []domainAudit.Event
	err    error
}

// Save implements AuditRecorder.
// PRE: none
// POST: e is appended even when err is set
func (m *mockAudit) Save(_ context.Context, e domainAudit.Event) error {
	m.events = append(m.events, e)
	return m.err
}

func recording(a *mockAudit) Recording {
	return Recording{Audit: a, Now: fixedNow}
}
