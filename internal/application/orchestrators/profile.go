package orchestrators

import (
	"context"
	"strings"

	domainAudit "otterpoint/internal/domain/audit"
	"otterpoint/internal/domain/flow"
	domainMember "otterpoint/internal/domain/member"
)

// ProfileBackend is the backend surface of the member profile page.
type ProfileBackend interface {
	MemberMe(ctx context.Context) (domainMember.Profile, error)
	EditProfile(ctx context.Context, p domainMember.Profile) error
	SendProfileEmailCode(ctx context.Context, email string) error
	CheckProfileEmailCode(ctx context.Context, email, code string) error
}

// ProfileDeps holds dependencies for the profile orchestrators.
type ProfileDeps struct {
	Backend ProfileBackend
	Recording
}

// ExecuteLoadProfile fetches the profile and starts the email check from it.
// PRE: the member class is authenticated
// POST: The returned check has the stored email as its baseline
func ExecuteLoadProfile(ctx context.Context, deps ProfileDeps) (domainMember.Profile, flow.EmailCheck, error) {
	p, err := deps.Backend.MemberMe(ctx)
	if err != nil {
		return domainMember.Profile{}, flow.EmailCheck{}, err
	}
	return p, flow.NewEmailCheck(p.Email, p.ConfirmEmail), nil
}

// SendEmailCodeInput carries input for the email code send.
type SendEmailCodeInput struct {
	Check *flow.EmailCheck
	Email string
}

// ExecuteSendEmailCode mails a verification code to Email.
// PRE: Check is the session's email check
// POST: On success the cooldown runs; a blocked send issues no request
func ExecuteSendEmailCode(ctx context.Context, input SendEmailCodeInput, deps ProfileDeps) error {
	email := strings.TrimSpace(input.Email)
	input.Check.Observe(email)
	now := deps.now()
	if err := input.Check.CheckSend(email, now); err != nil {
		return invalid(err)
	}
	if err := deps.Backend.SendProfileEmailCode(ctx, email); err != nil {
		return err
	}
	input.Check.CodeSent(email, now)
	return nil
}

// CheckEmailCodeInput carries input for the email code check.
type CheckEmailCodeInput struct {
	Check *flow.EmailCheck
	Email string
	Code  string
}

// ExecuteCheckEmailCode verifies the code sent to Email.
// PRE: a code was sent to Email
// POST: On success Email is the verified baseline
func ExecuteCheckEmailCode(ctx context.Context, input CheckEmailCodeInput, deps ProfileDeps) error {
	email := strings.TrimSpace(input.Email)
	input.Check.Observe(email)
	if email == "" {
		return invalid(flow.ErrEmailRequired)
	}
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return invalid(flow.ErrCodeRequired)
	}
	if err := deps.Backend.CheckProfileEmailCode(ctx, email, code); err != nil {
		return err
	}
	input.Check.CodeVerified(email)
	return nil
}

// SaveProfileInput carries input for the profile save.
type SaveProfileInput struct {
	Check   *flow.EmailCheck
	Profile domainMember.Profile
	Actor   Actor
}

// ExecuteSaveProfile saves the member's own profile.
// PRE: Check is the session's email check
// POST: The backend stored the profile with a confirmed email
// INVARIANT: Nothing is sent unless the form email is the verified baseline
func ExecuteSaveProfile(ctx context.Context, input SaveProfileInput, deps ProfileDeps) error {
	p := input.Profile
	p.Email = strings.TrimSpace(p.Email)
	input.Check.Observe(p.Email)
	if !input.Check.CanSubmit(p.Email) {
		return invalid(domainMember.ErrEmailNotVerified)
	}
	if err := p.Validate(); err != nil {
		return invalid(err)
	}
	p.ConfirmEmail = true
	err := deps.Backend.EditProfile(ctx, p)
	deps.record(ctx, input.Actor, domainAudit.ActionUpdate, domainAudit.ResourceMember, input.Actor.ID, err)
	return err
}
