package backend

import (
	"context"
	"net/http"
	"net/url"

	"otterpoint/internal/domain/item"
	"otterpoint/internal/domain/member"
	"otterpoint/internal/domain/pointlog"
)

// MemberLogin authenticates a member by phone number.
func (cn *Conn) MemberLogin(ctx context.Context, phone, password string) error {
	form := url.Values{"phoneNumber": {phone}, "password": {password}}
	return cn.sendForm(ctx, "member.login", "/member/login", form, nil)
}

// MemberLogout ends the backend member session.
func (cn *Conn) MemberLogout(ctx context.Context) error {
	return cn.getJSON(ctx, "member.logout", "/member/logout", nil, nil)
}

// MemberCheckLogin probes the member session. Only data == true counts.
func (cn *Conn) MemberCheckLogin(ctx context.Context) (bool, error) {
	var ok bool
	err := cn.getJSON(ctx, "member.check_login", "/member/check-login", nil, &ok)
	return err == nil && ok, err
}

// Register creates a member account.
func (cn *Conn) Register(ctx context.Context, r member.Registration) error {
	return cn.sendJSON(ctx, "member.register", http.MethodPost, "/member/register", r, nil)
}

// MemberMe returns the signed-in member's editable profile.
func (cn *Conn) MemberMe(ctx context.Context) (member.Profile, error) {
	var p member.Profile
	err := cn.getJSON(ctx, "member.me", "/member/me", nil, &p)
	return p, err
}

// MemberInfo returns the card summary of the signed-in member.
func (cn *Conn) MemberInfo(ctx context.Context) (member.Card, error) {
	var c member.Card
	err := cn.getJSON(ctx, "member.info", "/member/info", nil, &c)
	return c, err
}

// MemberPoints returns the signed-in member's ledger.
func (cn *Conn) MemberPoints(ctx context.Context) ([]pointlog.Log, error) {
	var out []pointlog.Log
	err := cn.getJSON(ctx, "member.points", "/member/point", nil, &out)
	return out, err
}

// EditProfile saves the signed-in member's profile.
func (cn *Conn) EditProfile(ctx context.Context, p member.Profile) error {
	return cn.sendJSON(ctx, "member.edit", http.MethodPut, "/member/edit", p, nil)
}

type emailCode struct {
	Email string `json:"email"`
	Code  string `json:"code,omitempty"`
}

// SendProfileEmailCode asks the backend to mail a verification code.
func (cn *Conn) SendProfileEmailCode(ctx context.Context, email string) error {
	return cn.sendJSON(ctx, "member.edit.send_email", http.MethodPost, "/member/edit/send-email", emailCode{Email: email}, nil)
}

// CheckProfileEmailCode verifies a code for email.
func (cn *Conn) CheckProfileEmailCode(ctx context.Context, email, code string) error {
	return cn.sendJSON(ctx, "member.edit.check_email", http.MethodPost, "/member/edit/check-email", emailCode{Email: email, Code: code}, nil)
}

// ChangeMemberPassword changes the signed-in member's password.
func (cn *Conn) ChangeMemberPassword(ctx context.Context, c member.PasswordChange) error {
	return cn.sendJSON(ctx, "member.change_password", http.MethodPut, "/member/edit/change-password", c, nil)
}

// MemberItems returns the active catalog.
func (cn *Conn) MemberItems(ctx context.Context) ([]item.Item, error) {
	var out []item.Item
	err := cn.getJSON(ctx, "member.items", "/member/item-list", url.Values{"active": {"true"}}, &out)
	return out, err
}

type resetRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Code        string `json:"code,omitempty"`
	NewPassword string `json:"newPassword,omitempty"`
	Token       string `json:"token,omitempty"`
}

// SendResetCode mails a reset code to the account behind phone.
func (cn *Conn) SendResetCode(ctx context.Context, phone string) error {
	return cn.sendJSON(ctx, "member.reset.send_email", http.MethodPost, "/member/reset-password/send-email", resetRequest{PhoneNumber: phone}, nil)
}

// CheckResetCode verifies the code and returns the opaque reset token.
// PRE: a code was sent for phone
// POST: Returns the token exactly as the backend minted it
func (cn *Conn) CheckResetCode(ctx context.Context, phone, code string) (string, error) {
	var token string
	err := cn.sendJSON(ctx, "member.reset.check_email", http.MethodPost, "/member/reset-password/check-email", resetRequest{PhoneNumber: phone, Code: code}, &token)
	return token, err
}

// ResetPassword sets a new password using the token from CheckResetCode.
func (cn *Conn) ResetPassword(ctx context.Context, phone, newPassword, token string) error {
	return cn.sendJSON(ctx, "member.reset.set_password", http.MethodPut, "/member/reset-password", resetRequest{PhoneNumber: phone, NewPassword: newPassword, Token: token}, nil)
}
