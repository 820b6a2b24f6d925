package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	domainAdmin "otterpoint/internal/domain/admin"
	domainAudit "otterpoint/internal/domain/audit"
	domainMember "otterpoint/internal/domain/member"
	"otterpoint/internal/domain/session"
)

// AdminAuthenticator is the backend surface needed by the admin login.
type AdminAuthenticator interface {
	AdminLogin(ctx context.Context, c domainAdmin.Credentials) error
	AdminMe(ctx context.Context) (domainAdmin.Profile, error)
}

// AdminLoginInput carries input for the admin login orchestrator.
type AdminLoginInput struct {
	Credentials domainAdmin.Credentials
	Actor       Actor
}

// AdminLoginDeps holds dependencies for AdminLogin.
type AdminLoginDeps struct {
	Backend AdminAuthenticator
	Recording
}

// ExecuteAdminLogin signs the admin in and resolves who they are.
// PRE: the backend cookie jar of the session is attached to Backend
// POST: Returns the admin identity; the jar holds the backend session
// INVARIANT: Empty username or password sends nothing
func ExecuteAdminLogin(ctx context.Context, input AdminLoginInput, deps AdminLoginDeps) (session.Identity, error) {
	c := input.Credentials
	c.Username = strings.TrimSpace(c.Username)
	c.Captcha = strings.TrimSpace(c.Captcha)
	if err := c.Validate(); err != nil {
		return session.Identity{}, invalid(err)
	}

	actor := input.Actor
	actor.Class = session.ClassAdmin
	actor.Name = c.Username
	err := deps.Backend.AdminLogin(ctx, c)
	deps.record(ctx, actor, domainAudit.ActionLogin, domainAudit.ResourceSession, "", err)
	if err != nil {
		slog.Info("auth_event", "event", "admin_login_failed", "username", c.Username, "error", err)
		return session.Identity{}, err
	}

	id := session.Identity{Name: c.Username}
	if me, merr := deps.Backend.AdminMe(ctx); merr == nil {
		id = session.Identity{ID: me.AdminID, Name: me.AdminName, Unit: me.Unit}
	} else {
		slog.Warn("admin_me_failed", "username", c.Username, "error", merr)
	}
	slog.Info("auth_event", "event", "admin_login", "admin_id", id.ID, "unit", id.Unit)
	return id, nil
}

// MemberAuthenticator is the backend surface needed by the member login.
type MemberAuthenticator interface {
	MemberLogin(ctx context.Context, phone, password string) error
}

// MemberLoginInput carries input for the member login orchestrator.
type MemberLoginInput struct {
	Phone    string
	Password string
	Actor    Actor
}

// MemberLoginDeps holds dependencies for MemberLogin.
type MemberLoginDeps struct {
	Backend MemberAuthenticator
	Recording
}

// ErrMemberCredentials is returned when phone or password is missing.
var ErrMemberCredentials = errors.New("請輸入手機號碼與密碼")

// ExecuteMemberLogin signs a member in by phone number.
// PRE: the backend cookie jar of the session is attached to Backend
// POST: The jar holds the backend member session on success
func ExecuteMemberLogin(ctx context.Context, input MemberLoginInput, deps MemberLoginDeps) error {
	phone := strings.TrimSpace(input.Phone)
	if phone == "" || input.Password == "" {
		return invalid(ErrMemberCredentials)
	}
	actor := input.Actor
	actor.Class = session.ClassMember
	actor.ID = phone
	err := deps.Backend.MemberLogin(ctx, phone, input.Password)
	deps.record(ctx, actor, domainAudit.ActionLogin, domainAudit.ResourceSession, "", err)
	if err != nil {
		slog.Info("auth_event", "event", "member_login_failed", "error", err)
		return err
	}
	slog.Info("auth_event", "event", "member_login")
	return nil
}

// Logouter ends one class's backend session.
type Logouter interface {
	Logout(ctx context.Context) error
}

// LogoutFunc adapts a method value such as (*backend.Conn).AdminLogout.
type LogoutFunc func(ctx context.Context) error

// Logout implements Logouter.
func (f LogoutFunc) Logout(ctx context.Context) error { return f(ctx) }

// LogoutInput carries input for the logout orchestrator.
type LogoutInput struct {
	Actor Actor
}

// LogoutDeps holds dependencies for Logout.
type LogoutDeps struct {
	Backend Logouter
	Recording
}

// ExecuteLogout ends the backend session of the actor's class. The caller
// clears the portal state whatever the outcome.
// PRE: Actor.Class is set
// POST: Returns the backend error, if any, for logging only
func ExecuteLogout(ctx context.Context, input LogoutInput, deps LogoutDeps) error {
	err := deps.Backend.Logout(ctx)
	deps.record(ctx, input.Actor, domainAudit.ActionLogout, domainAudit.ResourceSession, "", err)
	slog.Info("auth_event", "event", string(input.Actor.Class)+"_logout", "actor_id", input.Actor.ID, "error", err)
	return err
}

// Registrar creates member accounts.
type Registrar interface {
	Register(ctx context.Context, r domainMember.Registration) error
}

// RegisterMemberInput carries input for the registration orchestrator.
type RegisterMemberInput struct {
	Registration domainMember.Registration
	Actor        Actor
}

// RegisterMemberDeps holds dependencies for RegisterMember.
type RegisterMemberDeps struct {
	Backend Registrar
	Recording
}

// ExecuteRegisterMember submits a member registration.
// PRE: none
// POST: The backend created a PASSER member and issued the initial password
// INVARIANT: An incomplete form sends nothing
func ExecuteRegisterMember(ctx context.Context, input RegisterMemberInput, deps RegisterMemberDeps) error {
	r := input.Registration
	r.LastName = strings.TrimSpace(r.LastName)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	if err := r.Validate(); err != nil {
		return invalid(err)
	}
	actor := input.Actor
	actor.Class = session.ClassMember
	actor.ID = r.PhoneNumber
	actor.Name = r.LastName + r.FirstName
	err := deps.Backend.Register(ctx, r)
	deps.record(ctx, actor, domainAudit.ActionCreate, domainAudit.ResourceMember, r.PhoneNumber, err)
	return err
}

// PasswordChanger changes the signed-in user's password.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, c domainMember.PasswordChange) error
}

// PasswordChangeFunc adapts a method value such as (*backend.Conn).ChangeAdminPassword.
type PasswordChangeFunc func(ctx context.Context, c domainMember.PasswordChange) error

// ChangePassword implements PasswordChanger.
func (f PasswordChangeFunc) ChangePassword(ctx context.Context, c domainMember.PasswordChange) error {
	return f(ctx, c)
}

// ChangePasswordInput carries input for the change-password orchestrator.
type ChangePasswordInput struct {
	Change domainMember.PasswordChange
	Actor  Actor
}

// ChangePasswordDeps holds dependencies for ChangePassword.
type ChangePasswordDeps struct {
	Backend PasswordChanger
	Recording
}

// ExecuteChangePassword changes the password of the actor's class. An admin
// whose change succeeded must be signed out by the caller.
// PRE: Actor.Class is authenticated
// POST: The backend accepted the new password
func ExecuteChangePassword(ctx context.Context, input ChangePasswordInput, deps ChangePasswordDeps) error {
	if err := input.Change.Validate(); err != nil {
		return invalid(err)
	}
	err := deps.Backend.ChangePassword(ctx, input.Change)
	deps.record(ctx, input.Actor, domainAudit.ActionChangePassword, resourceOf(input.Actor.Class), input.Actor.ID, err)
	if err != nil {
		return err
	}
	slog.Info("auth_event", "event", "password_changed", "class", input.Actor.Class, "actor_id", input.Actor.ID)
	return nil
}

func resourceOf(c session.Class) string {
	if c == session.ClassAdmin {
		return domainAudit.ResourceAdmin
	}
	return domainAudit.ResourceMember
}
