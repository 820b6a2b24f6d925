package web

import (
	"net/http"

	"otterpoint/internal/adapters/http/middleware"
	"otterpoint/internal/application/orchestrators"
	domainAdmin "otterpoint/internal/domain/admin"
	domainMember "otterpoint/internal/domain/member"
	"otterpoint/internal/domain/session"
)

// handleHome renders the member sign-in page (GET /).
func handleHome(w http.ResponseWriter, r *http.Request) {
	if middleware.IsAuthenticated(r.Context(), session.ClassMember) {
		http.Redirect(w, r, "/member", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "home.html", nil)
}

// handleMemberLogin authenticates a member (POST /member/login).
// PRE: none
// POST: On success the member class is Authenticated and the visitor lands on the card
func handleMemberLogin(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	input := orchestrators.MemberLoginInput{
		Phone:    r.PostFormValue("phoneNumber"),
		Password: r.PostFormValue("password"),
		Actor:    actorFrom(r, session.ClassMember),
	}
	err := orchestrators.ExecuteMemberLogin(r.Context(), input, orchestrators.MemberLoginDeps{
		Backend:   connFrom(r.Context()),
		Recording: recording(),
	})
	if err != nil {
		flashError(sess, "登入", err)
		renderTemplate(w, r, "home.html", map[string]any{"Phone": input.Phone})
		return
	}
	sess.LoggedIn(session.ClassMember)
	sess.MemberName = ""
	redirect(w, r, "/member", "登入成功")
}

// handleRegister handles GET (form) and POST (submit) for /member/register.
func handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "register.html", map[string]any{"Form": domainMember.Registration{}})
		return
	}

	reg := domainMember.Registration{
		LastName:    r.PostFormValue("lastName"),
		FirstName:   r.PostFormValue("firstName"),
		PhoneNumber: r.PostFormValue("phoneNumber"),
		BirthDate:   r.PostFormValue("birthDate"),
		Gender:      r.PostFormValue("gender"),
	}
	err := orchestrators.ExecuteRegisterMember(r.Context(), orchestrators.RegisterMemberInput{
		Registration: reg,
		Actor:        actorFrom(r, session.ClassMember),
	}, orchestrators.RegisterMemberDeps{Backend: connFrom(r.Context()), Recording: recording()})
	if err != nil {
		flashError(currentSession(r), "註冊", err)
		renderTemplate(w, r, "register.html", map[string]any{"Form": reg})
		return
	}
	redirect(w, r, "/", "註冊成功，請使用手機號碼登入")
}

func resetDeps(r *http.Request) orchestrators.ResetDeps {
	return orchestrators.ResetDeps{Backend: connFrom(r.Context()), Now: timeNow}
}

// handleResetPage renders the current step of the password reset wizard.
func handleResetPage(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	renderTemplate(w, r, "reset.html", map[string]any{
		"Step":     string(sess.Reset.Current()),
		"Phone":    sess.Reset.Phone,
		"Cooldown": sess.Reset.Cooldown.Seconds(timeNow()),
	})
}

// handleResetSend sends (or resends) the reset code, or restarts the wizard
// when action=restart (POST /member/reset-password/send).
func handleResetSend(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if r.PostFormValue("action") == "restart" {
		sess.Reset.Restart()
		http.Redirect(w, r, "/member/reset-password", http.StatusSeeOther)
		return
	}
	phone := r.PostFormValue("phoneNumber")
	if phone == "" {
		phone = sess.Reset.Phone
	}
	err := orchestrators.ExecuteSendResetCode(r.Context(), orchestrators.SendResetCodeInput{Flow: &sess.Reset, Phone: phone}, resetDeps(r))
	if err != nil {
		flashError(sess, "寄送驗證碼", err)
	} else {
		sess.Flash(session.LevelSuccess, "驗證碼已寄出", "請至註冊信箱收取驗證碼")
	}
	http.Redirect(w, r, "/member/reset-password", http.StatusSeeOther)
}

// handleResetVerify checks the code (POST /member/reset-password/verify).
func handleResetVerify(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	err := orchestrators.ExecuteVerifyResetCode(r.Context(), orchestrators.VerifyResetCodeInput{Flow: &sess.Reset, Code: r.PostFormValue("code")}, resetDeps(r))
	if err != nil {
		flashError(sess, "驗證", err)
	}
	http.Redirect(w, r, "/member/reset-password", http.StatusSeeOther)
}

// handleResetSet sets the new password (POST /member/reset-password).
func handleResetSet(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	err := orchestrators.ExecuteSetResetPassword(r.Context(), orchestrators.SetResetPasswordInput{
		Flow:            &sess.Reset,
		NewPassword:     r.PostFormValue("newPassword"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}, resetDeps(r))
	if err != nil {
		flashError(sess, "重設密碼", err)
		http.Redirect(w, r, "/member/reset-password", http.StatusSeeOther)
		return
	}
	sess.Reset.Restart()
	redirect(w, r, "/", "密碼已重設，請重新登入")
}

// handleAdminLogin handles GET (form) and POST (authenticate) for /admin/login.
func handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if r.Method == http.MethodGet {
		if sess.Auth.Admin == session.Authenticated {
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, "admin_login.html", nil)
		return
	}

	input := orchestrators.AdminLoginInput{
		Credentials: domainAdmin.Credentials{
			Username: r.PostFormValue("username"),
			Password: r.PostFormValue("password"),
			Captcha:  r.PostFormValue("captcha"),
		},
		Actor: actorFrom(r, session.ClassAdmin),
	}
	id, err := orchestrators.ExecuteAdminLogin(r.Context(), input, orchestrators.AdminLoginDeps{
		Backend:   connFrom(r.Context()),
		Recording: recording(),
	})
	if err != nil {
		flashError(sess, "登入", err)
		renderTemplate(w, r, "admin_login.html", map[string]any{"Username": input.Credentials.Username})
		return
	}
	sess.LoggedIn(session.ClassAdmin)
	sess.Admin = id
	redirect(w, r, "/admin", "登入成功")
}

// handleCaptcha proxies the backend CAPTCHA image (GET /admin/captcha). The
// backend ties the code to its own session cookie, which the jar keeps.
func handleCaptcha(w http.ResponseWriter, r *http.Request) {
	img, contentType, err := connFrom(r.Context()).AdminCaptcha(r.Context())
	if err != nil {
		http.Error(w, "captcha unavailable", http.StatusBadGateway)
		return
	}
	if contentType == "" {
		contentType = "image/png"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(img)
}
