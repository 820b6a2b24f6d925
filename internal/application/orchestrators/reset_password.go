package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"otterpoint/internal/domain/flow"
	domainMember "otterpoint/internal/domain/member"
)

// ResetBackend is the backend surface of the password reset wizard.
type ResetBackend interface {
	SendResetCode(ctx context.Context, phone string) error
	CheckResetCode(ctx context.Context, phone, code string) (string, error)
	ResetPassword(ctx context.Context, phone, newPassword, token string) error
}

// ResetDeps holds dependencies for the reset orchestrators.
type ResetDeps struct {
	Backend ResetBackend
	Now     func() time.Time
}

func (d ResetDeps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// SendResetCodeInput carries input for the send step.
type SendResetCodeInput struct {
	Flow  *flow.Reset
	Phone string
}

// ExecuteSendResetCode sends a verification code to the account behind Phone.
// PRE: Flow is the session's reset wizard
// POST: On success Flow is in StepCodeSent with a running cooldown
// INVARIANT: A send blocked by the cooldown issues no request
func ExecuteSendResetCode(ctx context.Context, input SendResetCodeInput, deps ResetDeps) error {
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return invalid(flow.ErrPhoneRequired)
	}
	now := deps.now()
	if err := input.Flow.CheckSend(now); err != nil {
		return invalid(err)
	}
	if err := deps.Backend.SendResetCode(ctx, phone); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "reset_code_sent")
	return input.Flow.CodeSent(phone, now)
}

// VerifyResetCodeInput carries input for the verify step.
type VerifyResetCodeInput struct {
	Flow *flow.Reset
	Code string
}

// ExecuteVerifyResetCode checks the code and keeps the minted token.
// PRE: Flow is in StepCodeSent
// POST: Flow is in StepVerified holding the token exactly as returned
func ExecuteVerifyResetCode(ctx context.Context, input VerifyResetCodeInput, deps ResetDeps) error {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return invalid(flow.ErrCodeRequired)
	}
	if _, err := input.Flow.Next(flow.EventCodeVerified); err != nil {
		return invalid(err)
	}
	token, err := deps.Backend.CheckResetCode(ctx, input.Flow.Phone, code)
	if err != nil {
		return err
	}
	return input.Flow.CodeVerified(token)
}

// SetResetPasswordInput carries input for the final step.
type SetResetPasswordInput struct {
	Flow            *flow.Reset
	NewPassword     string
	ConfirmPassword string
}

// ErrResetNotVerified is returned when the final step is reached without a token.
var ErrResetNotVerified = errors.New("請先完成驗證碼驗證")

// ExecuteSetResetPassword sets the new password with the stored token.
// PRE: Flow is in StepVerified
// POST: Flow is in StepDone and the token is forgotten
func ExecuteSetResetPassword(ctx context.Context, input SetResetPasswordInput, deps ResetDeps) error {
	if input.NewPassword == "" {
		return invalid(domainMember.ErrPasswordRequired)
	}
	if input.NewPassword != input.ConfirmPassword {
		return invalid(domainMember.ErrPasswordMismatch)
	}
	if input.Flow.Current() != flow.StepVerified || input.Flow.Token == "" {
		return invalid(ErrResetNotVerified)
	}
	if err := deps.Backend.ResetPassword(ctx, input.Flow.Phone, input.NewPassword, input.Flow.Token); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "password_reset")
	return input.Flow.PasswordSet()
}
