package web

import (
	"net/http"

	"otterpoint/internal/adapters/qrcode"
	"otterpoint/internal/application/orchestrators"
	"otterpoint/internal/application/projections"
	domainAudit "otterpoint/internal/domain/audit"
	domainMember "otterpoint/internal/domain/member"
	"otterpoint/internal/domain/session"
)

const classMember = session.ClassMember

// handleMemberCard renders the member home with the QR card (GET /member).
func handleMemberCard(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetMemberCard(r.Context(), projections.GetMemberCardDeps{
		Cards: connFrom(r.Context()),
		QR:    qrcode.DataURI,
	})
	if err != nil && failed(w, r, classMember, "讀取會員卡", err) {
		return
	}
	if err == nil {
		currentSession(r).MemberName = res.Card.FullName()
	}
	renderTemplate(w, r, "member_card.html", map[string]any{"Result": res})
}

// handleMemberLogout ends the member session (POST /member/logout).
func handleMemberLogout(w http.ResponseWriter, r *http.Request) {
	cn := connFrom(r.Context())
	_ = orchestrators.ExecuteLogout(r.Context(), orchestrators.LogoutInput{Actor: actorFrom(r, classMember)},
		orchestrators.LogoutDeps{Backend: orchestrators.LogoutFunc(cn.MemberLogout), Recording: recording()})
	sess := currentSession(r)
	sess.LoggedOut(classMember)
	sess.MemberName = ""
	redirect(w, r, "/", "已登出")
}

// handleMemberPoints renders the member's own ledger (GET /member/point).
func handleMemberPoints(w http.ResponseWriter, r *http.Request) {
	q := projections.SelfPointLogSpec.ParseQuery(r.URL.Query())
	res, err := projections.QueryGetMemberPoints(r.Context(), q, connFrom(r.Context()))
	if err != nil && failed(w, r, classMember, "讀取點數紀錄", err) {
		return
	}
	page := buildList("我的點數", "/member/point", projections.SelfPointLogSpec, res.Logs, nil).
		withExport("/member/point/export")
	renderTemplate(w, r, "member_points.html", map[string]any{"Summary": res.Summary, "List": page})
}

// handleMemberPointsExport downloads the member's filtered ledger.
func handleMemberPointsExport(w http.ResponseWriter, r *http.Request) {
	q := projections.SelfPointLogSpec.ParseQuery(r.URL.Query())
	res, err := projections.QueryGetMemberPoints(r.Context(), q, connFrom(r.Context()))
	if err != nil {
		if !failed(w, r, classMember, "匯出點數紀錄", err) {
			http.Redirect(w, r, "/member/point", http.StatusSeeOther)
		}
		return
	}
	writeExport(w, r, classMember, domainAudit.ResourcePointLog, projections.SelfPointLogSpec, res.Logs.Filtered)
}

func profileDeps(r *http.Request) orchestrators.ProfileDeps {
	return orchestrators.ProfileDeps{Backend: connFrom(r.Context()), Recording: recording()}
}

func renderProfile(w http.ResponseWriter, r *http.Request, form domainMember.Profile) {
	sess := currentSession(r)
	renderTemplate(w, r, "profile.html", map[string]any{
		"Form":     form,
		"Verified": sess.EmailCheck.CanSubmit(form.Email),
		"SentTo":   sess.EmailCheck.SentTo,
		"Cooldown": sess.EmailCheck.Cooldown.Seconds(timeNow()),
	})
}

// handleProfile handles GET (form) and POST for /member/edit. The POST
// action field selects send-code, check-code or save.
// PRE: the member class is authenticated
// POST: A save succeeds only for the verified email
func handleProfile(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if r.Method == http.MethodGet {
		p, check, err := orchestrators.ExecuteLoadProfile(r.Context(), profileDeps(r))
		if err != nil {
			if failed(w, r, classMember, "讀取個人資料", err) {
				return
			}
		} else {
			check.Cooldown = sess.EmailCheck.Cooldown
			sess.EmailCheck = check
		}
		renderProfile(w, r, p)
		return
	}

	form := profileForm(r)
	switch r.PostFormValue("action") {
	case "send-code":
		err := orchestrators.ExecuteSendEmailCode(r.Context(), orchestrators.SendEmailCodeInput{Check: &sess.EmailCheck, Email: form.Email}, profileDeps(r))
		if err != nil {
			if failed(w, r, classMember, "寄送驗證碼", err) {
				return
			}
		} else {
			sess.Flash(session.LevelSuccess, "驗證碼已寄出", form.Email)
		}
		renderProfile(w, r, form)
	case "check-code":
		err := orchestrators.ExecuteCheckEmailCode(r.Context(), orchestrators.CheckEmailCodeInput{
			Check: &sess.EmailCheck,
			Email: form.Email,
			Code:  r.PostFormValue("code"),
		}, profileDeps(r))
		if err != nil {
			if failed(w, r, classMember, "驗證電子信箱", err) {
				return
			}
		} else {
			sess.Flash(session.LevelSuccess, "電子信箱已驗證", "")
		}
		renderProfile(w, r, form)
	default:
		err := orchestrators.ExecuteSaveProfile(r.Context(), orchestrators.SaveProfileInput{
			Check:   &sess.EmailCheck,
			Profile: form,
			Actor:   actorFrom(r, classMember),
		}, profileDeps(r))
		if err != nil {
			if failed(w, r, classMember, "更新個人資料", err) {
				return
			}
			renderProfile(w, r, form)
			return
		}
		sess.MemberName = form.LastName + form.FirstName
		redirect(w, r, "/member", "個人資料已更新")
	}
}

// handleMemberChangePassword handles GET (form) and POST (change) for
// /member/change-password. A successful change signs the member out.
func handleMemberChangePassword(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"Action": "/member/change-password", "Back": "/member"}
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "change_password.html", data)
		return
	}
	cn := connFrom(r.Context())
	actor := actorFrom(r, classMember)
	err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
		Change: passwordChangeForm(r),
		Actor:  actor,
	}, orchestrators.ChangePasswordDeps{Backend: orchestrators.PasswordChangeFunc(cn.ChangeMemberPassword), Recording: recording()})
	if err != nil {
		if failed(w, r, classMember, "變更密碼", err) {
			return
		}
		renderTemplate(w, r, "change_password.html", data)
		return
	}
	_ = orchestrators.ExecuteLogout(r.Context(), orchestrators.LogoutInput{Actor: actor},
		orchestrators.LogoutDeps{Backend: orchestrators.LogoutFunc(cn.MemberLogout), Recording: recording()})
	sess := currentSession(r)
	sess.LoggedOut(classMember)
	sess.MemberName = ""
	redirect(w, r, "/", "密碼已變更，請重新登入")
}

// handleMemberCatalog renders the redeemable items (GET /member/items).
func handleMemberCatalog(w http.ResponseWriter, r *http.Request) {
	cn := connFrom(r.Context())
	res, err := projections.QueryGetMemberCatalog(r.Context(), projections.GetMemberCatalogDeps{Cards: cn, Catalog: cn})
	if err != nil && failed(w, r, classMember, "讀取兌換商品", err) {
		return
	}
	renderTemplate(w, r, "member_items.html", map[string]any{"Result": res})
}
