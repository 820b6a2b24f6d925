package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"otterpoint/internal/application/listutil"
	"otterpoint/internal/application/orchestrators"
	"otterpoint/internal/application/projections"
	domainAdmin "otterpoint/internal/domain/admin"
	domainAudit "otterpoint/internal/domain/audit"
	domainMember "otterpoint/internal/domain/member"
	"otterpoint/internal/domain/pointlog"
	"otterpoint/internal/domain/pointtype"
	"otterpoint/internal/domain/session"
	"otterpoint/internal/domain/timestamp"
)

const classAdmin = session.ClassAdmin

// handleDashboard renders the counters for an optional date range (GET /admin).
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := projections.GetDashboardQuery{
		Start: parseDate(r.URL.Query().Get("start")),
		End:   parseDate(r.URL.Query().Get("end")),
	}
	res, err := projections.QueryGetDashboard(r.Context(), q, connFrom(r.Context()))
	if err != nil && failed(w, r, classAdmin, "讀取儀表板", err) {
		return
	}
	renderTemplate(w, r, "dashboard.html", map[string]any{
		"Tiles": res.Tiles,
		"Start": r.URL.Query().Get("start"),
		"End":   r.URL.Query().Get("end"),
	})
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(timestamp.DateLayout, s, time.Local)
	if err != nil {
		return nil
	}
	return &t
}

// handleAdminLogout ends the admin session (POST /admin/logout). The portal
// state is cleared even when the backend call fails.
func handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	cn := connFrom(r.Context())
	_ = orchestrators.ExecuteLogout(r.Context(), orchestrators.LogoutInput{Actor: actorFrom(r, classAdmin)},
		orchestrators.LogoutDeps{Backend: orchestrators.LogoutFunc(cn.AdminLogout), Recording: recording()})
	currentSession(r).LoggedOut(classAdmin)
	redirect(w, r, "/admin/login", "已登出")
}

// Members

func memberPath(id string, rest string) string {
	return "/admin/members/" + url.PathEscape(id) + rest
}

func memberActions(m domainMember.Member) []rowAction {
	toggle := "停用"
	if !m.Active {
		toggle = "啟用"
	}
	return []rowAction{
		{Label: "編輯", URL: memberPath(m.MemberID, "/edit")},
		{Label: "點數", URL: memberPath(m.MemberID, "/points")},
		{Label: toggle, URL: memberPath(m.MemberID, "/toggle")},
		{Label: "刪除", URL: memberPath(m.MemberID, "/delete")},
	}
}

// handleMembers renders the member list (GET /admin/members).
func handleMembers(w http.ResponseWriter, r *http.Request) {
	q := projections.MemberSpec.ParseQuery(r.URL.Query())
	view, err := projections.QueryGetMemberList(r.Context(), q, projections.GetMemberListDeps{Members: connFrom(r.Context())})
	if err != nil && failed(w, r, classAdmin, "讀取會員列表", err) {
		return
	}
	page := buildList("會員管理", "/admin/members", projections.MemberSpec, view, memberActions).
		withExport("/admin/members/export")
	renderTemplate(w, r, "list.html", map[string]any{"List": page})
}

// handleMembersExport downloads the filtered member list (GET /admin/members/export).
func handleMembersExport(w http.ResponseWriter, r *http.Request) {
	q := projections.MemberSpec.ParseQuery(r.URL.Query())
	view, err := projections.QueryGetMemberList(r.Context(), q, projections.GetMemberListDeps{Members: connFrom(r.Context())})
	if err != nil {
		if !failed(w, r, classAdmin, "匯出會員列表", err) {
			http.Redirect(w, r, "/admin/members", http.StatusSeeOther)
		}
		return
	}
	writeExport(w, r, classAdmin, domainAudit.ResourceMember, projections.MemberSpec, view.Filtered)
}

func profileOf(m domainMember.Member) domainMember.Profile {
	return domainMember.Profile{
		LastName:    m.LastName,
		FirstName:   m.FirstName,
		PhoneNumber: m.PhoneNumber,
		BirthDate:   m.BirthDate,
		Gender:      m.Gender,
		Email:       m.Email,
		Region:      m.Region,
	}
}

func profileForm(r *http.Request) domainMember.Profile {
	return domainMember.Profile{
		LastName:    strings.TrimSpace(r.PostFormValue("lastName")),
		FirstName:   strings.TrimSpace(r.PostFormValue("firstName")),
		PhoneNumber: strings.TrimSpace(r.PostFormValue("phoneNumber")),
		BirthDate:   r.PostFormValue("birthDate"),
		Gender:      r.PostFormValue("gender"),
		Email:       strings.TrimSpace(r.PostFormValue("email")),
		Region:      strings.TrimSpace(r.PostFormValue("region")),
	}
}

// handleMemberEdit handles GET (form) and POST (save) for /admin/members/{id}/edit.
func handleMemberEdit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	cn := connFrom(r.Context())

	if r.Method == http.MethodGet {
		m, err := cn.GetMember(r.Context(), id)
		if err != nil {
			if !failed(w, r, classAdmin, "讀取會員資料", err) {
				http.Redirect(w, r, "/admin/members", http.StatusSeeOther)
			}
			return
		}
		renderTemplate(w, r, "member_edit.html", map[string]any{"MemberID": id, "Form": profileOf(m)})
		return
	}

	p := profileForm(r)
	err := orchestrators.ExecuteUpdateMember(r.Context(), orchestrators.UpdateMemberInput{
		MemberID: id,
		Profile:  p,
		Actor:    actorFrom(r, classAdmin),
	}, orchestrators.UpdateMemberDeps{Backend: cn, Recording: recording()})
	if err != nil {
		if failed(w, r, classAdmin, "更新會員資料", err) {
			return
		}
		renderTemplate(w, r, "member_edit.html", map[string]any{"MemberID": id, "Form": p})
		return
	}
	redirect(w, r, "/admin/members", "會員資料已更新")
}

// handleMemberToggle confirms (GET) and flips (POST) a member's active flag.
func handleMemberToggle(w http.ResponseWriter, r *http.Request) {
	moderateMember(w, r, "toggle")
}

// handleMemberDelete confirms (GET) and performs (POST) a member deletion.
func handleMemberDelete(w http.ResponseWriter, r *http.Request) {
	moderateMember(w, r, "delete")
}

func moderateMember(w http.ResponseWriter, r *http.Request, op string) {
	id := r.PathValue("id")
	cn := connFrom(r.Context())

	if r.Method == http.MethodGet {
		m, err := cn.GetMember(r.Context(), id)
		if err != nil {
			if !failed(w, r, classAdmin, "讀取會員資料", err) {
				http.Redirect(w, r, "/admin/members", http.StatusSeeOther)
			}
			return
		}
		title := "確定要刪除會員「" + m.FullName() + "」嗎？"
		text := "刪除後將無法復原。"
		if op == "toggle" {
			verb := "停用"
			if !m.Active {
				verb = "啟用"
			}
			title = "確定要" + verb + "會員「" + m.FullName() + "」嗎？"
			text = ""
		}
		renderTemplate(w, r, "confirm.html", map[string]any{
			"Title":  title,
			"Text":   text,
			"Action": memberPath(id, "/"+op),
			"Back":   "/admin/members",
		})
		return
	}

	input := orchestrators.ModerateMemberInput{MemberID: id, Confirmed: confirmed(r), Actor: actorFrom(r, classAdmin)}
	mdeps := orchestrators.ModerateMemberDeps{Backend: cn, Recording: recording()}
	action, done := "刪除會員", "會員已刪除"
	var err error
	if op == "toggle" {
		action, done = "變更會員狀態", "會員狀態已更新"
		err = orchestrators.ExecuteToggleMember(r.Context(), input, mdeps)
	} else {
		err = orchestrators.ExecuteDeleteMember(r.Context(), input, mdeps)
	}
	if err != nil {
		if !failed(w, r, classAdmin, action, err) {
			http.Redirect(w, r, "/admin/members", http.StatusSeeOther)
		}
		return
	}
	redirect(w, r, "/admin/members", done)
}

// handlePointManage renders one member's ledger and the posting form
// (GET /admin/members/{id}/points).
func handlePointManage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res, err := pointManage(r, id)
	if err != nil && failed(w, r, classAdmin, "讀取會員點數", err) {
		return
	}
	renderPointManage(w, r, id, res, nil)
}

func pointManage(r *http.Request, id string) (projections.GetPointManageResult, error) {
	cn := connFrom(r.Context())
	q := projections.MemberPointLogSpec.ParseQuery(r.URL.Query())
	return projections.QueryGetPointManage(r.Context(), id, q, projections.GetPointManageDeps{Members: cn, Types: cn})
}

func renderPointManage(w http.ResponseWriter, r *http.Request, id string, res projections.GetPointManageResult, data map[string]any) {
	path := memberPath(id, "/points")
	page := buildList("會員點數紀錄", path, projections.MemberPointLogSpec, res.Logs, nil).
		withExport(memberPath(id, "/points/export"))
	if data == nil {
		data = map[string]any{"TypeID": "", "Points": "", "Note": ""}
	}
	data["MemberID"] = id
	data["Member"] = res.Member
	data["Summary"] = res.Summary
	data["Types"] = res.Types
	data["List"] = page
	renderTemplate(w, r, "points_manage.html", data)
}

// handlePostPoints grants or deducts points (POST /admin/members/{id}/points).
// The first submit renders a confirmation; the confirmed resubmit posts.
func handlePostPoints(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	back := memberPath(id, "/points")
	res, err := pointManage(r, id)
	if err != nil {
		if !failed(w, r, classAdmin, "讀取會員點數", err) {
			http.Redirect(w, r, back, http.StatusSeeOther)
		}
		return
	}

	typeID := r.PostFormValue("typeId")
	pt, ok := res.FindType(typeID)
	if !ok {
		currentSession(r).Flash(session.LevelWarning, pointlog.ErrTypeRequired.Error(), "")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	input := orchestrators.PostPointsInput{
		Member:    res.Member,
		Type:      pt,
		Points:    r.PostFormValue("points"),
		Note:      r.PostFormValue("note"),
		Confirmed: confirmed(r),
		Actor:     actorFrom(r, classAdmin),
	}
	posting, err := orchestrators.ExecutePostPoints(r.Context(), input, orchestrators.PostPointsDeps{
		Backend:   connFrom(r.Context()),
		Recording: recording(),
	})

	var ce *orchestrators.ConfirmationError
	if errors.As(err, &ce) {
		renderTemplate(w, r, "confirm.html", map[string]any{
			"Title":  ce.Title,
			"Text":   ce.Text,
			"Action": back,
			"Back":   back,
			"Hidden": map[string]string{
				"typeId": posting.TypeID,
				"points": strconv.FormatInt(posting.Points, 10),
				"note":   posting.Note,
			},
		})
		return
	}
	action := "派發點數"
	if pt.Category == pointtype.CategoryConsume {
		action = "扣除點數"
	}
	if err != nil {
		if failed(w, r, classAdmin, action, err) {
			return
		}
		renderPointManage(w, r, id, res, map[string]any{"TypeID": typeID, "Points": input.Points, "Note": input.Note})
		return
	}
	redirect(w, r, back, action+"成功")
}

// handlePointManageExport downloads one member's filtered ledger.
func handlePointManageExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	cn := connFrom(r.Context())
	logs, err := cn.MemberPointLogs(r.Context(), id)
	if err != nil {
		if !failed(w, r, classAdmin, "匯出點數紀錄", err) {
			http.Redirect(w, r, memberPath(id, "/points"), http.StatusSeeOther)
		}
		return
	}
	q := projections.MemberPointLogSpec.ParseQuery(r.URL.Query())
	view := listutil.Derive(logs, projections.MemberPointLogSpec, q)
	writeExport(w, r, classAdmin, domainAudit.ResourcePointLog, projections.MemberPointLogSpec, view.Filtered)
}

// Point logs

// handlePointLogs renders the global ledger (GET /admin/point-logs).
func handlePointLogs(w http.ResponseWriter, r *http.Request) {
	q := projections.PointLogSpec.ParseQuery(r.URL.Query())
	view, err := projections.QueryGetPointLogs(r.Context(), q, connFrom(r.Context()))
	if err != nil && failed(w, r, classAdmin, "讀取點數紀錄", err) {
		return
	}
	page := buildList("點數紀錄", "/admin/point-logs", projections.PointLogSpec, view, nil).
		withExport("/admin/point-logs/export")
	renderTemplate(w, r, "list.html", map[string]any{"List": page})
}

// handlePointLogsExport downloads the filtered global ledger.
func handlePointLogsExport(w http.ResponseWriter, r *http.Request) {
	q := projections.PointLogSpec.ParseQuery(r.URL.Query())
	view, err := projections.QueryGetPointLogs(r.Context(), q, connFrom(r.Context()))
	if err != nil {
		if !failed(w, r, classAdmin, "匯出點數紀錄", err) {
			http.Redirect(w, r, "/admin/point-logs", http.StatusSeeOther)
		}
		return
	}
	writeExport(w, r, classAdmin, domainAudit.ResourcePointLog, projections.PointLogSpec, view.Filtered)
}

// Point types

func pointTypeActions(p pointtype.PointType) []rowAction {
	if p.Protected() {
		return nil
	}
	return []rowAction{{Label: "編輯", URL: "/admin/point-types/" + url.PathEscape(p.TypeID) + "/edit"}}
}

// handlePointTypes renders the point type list (GET /admin/point-types).
func handlePointTypes(w http.ResponseWriter, r *http.Request) {
	q := projections.PointTypeSpec.ParseQuery(r.URL.Query())
	view, err := projections.QueryGetPointTypes(r.Context(), q, connFrom(r.Context()))
	if err != nil && failed(w, r, classAdmin, "讀取點數類型", err) {
		return
	}
	page := buildList("點數類型", "/admin/point-types", projections.PointTypeSpec, view, pointTypeActions).
		withExport("/admin/point-types/export").
		withNew("/admin/point-types/new", "新增點數類型")
	renderTemplate(w, r, "list.html", map[string]any{"List": page})
}

// handlePointTypesExport downloads the filtered point types.
func handlePointTypesExport(w http.ResponseWriter, r *http.Request) {
	q := projections.PointTypeSpec.ParseQuery(r.URL.Query())
	view, err := projections.QueryGetPointTypes(r.Context(), q, connFrom(r.Context()))
	if err != nil {
		if !failed(w, r, classAdmin, "匯出點數類型", err) {
			http.Redirect(w, r, "/admin/point-types", http.StatusSeeOther)
		}
		return
	}
	writeExport(w, r, classAdmin, domainAudit.ResourcePointType, projections.PointTypeSpec, view.Filtered)
}

// handlePointTypeForm handles GET (form) and POST (save) for
// /admin/point-types/new and /admin/point-types/{id}/edit.
func handlePointTypeForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	cn := connFrom(r.Context())
	isNew := id == ""
	action := "新增點數類型"
	if !isNew {
		action = "更新點數類型"
	}
	if pointtype.IsProtected(id) {
		redirectWarning(w, r, "/admin/point-types", pointtype.ErrProtected)
		return
	}

	if r.Method == http.MethodGet {
		form := pointtype.PointType{Category: pointtype.CategoryAdd, Active: true}
		if !isNew {
			types, err := cn.ListPointTypes(r.Context(), pointtype.Filter{})
			if err != nil {
				if !failed(w, r, classAdmin, "讀取點數類型", err) {
					http.Redirect(w, r, "/admin/point-types", http.StatusSeeOther)
				}
				return
			}
			found := false
			for _, t := range types {
				if t.TypeID == id {
					form, found = t, true
				}
			}
			if !found {
				redirectWarning(w, r, "/admin/point-types", errNotFound)
				return
			}
		}
		renderTemplate(w, r, "pointtype_form.html", map[string]any{"Form": form, "IsNew": isNew, "Title": action})
		return
	}

	def, perr := pointtype.ParseDefault(r.PostFormValue("defaultValue"))
	form := pointtype.PointType{
		TypeID:       id,
		Name:         r.PostFormValue("name"),
		Category:     r.PostFormValue("category"),
		DefaultValue: def,
		Description:  r.PostFormValue("description"),
		Active:       r.PostFormValue("active") != "",
	}
	if perr != nil {
		currentSession(r).Flash(session.LevelWarning, perr.Error(), "")
		renderTemplate(w, r, "pointtype_form.html", map[string]any{"Form": form, "IsNew": isNew, "Title": action})
		return
	}
	err := orchestrators.ExecuteSavePointType(r.Context(), orchestrators.SavePointTypeInput{
		PointType: form,
		Actor:     actorFrom(r, classAdmin),
	}, orchestrators.SavePointTypeDeps{Backend: cn, Recording: recording()})
	if err != nil {
		if failed(w, r, classAdmin, action, err) {
			return
		}
		renderTemplate(w, r, "pointtype_form.html", map[string]any{"Form": form, "IsNew": isNew, "Title": action})
		return
	}
	redirect(w, r, "/admin/point-types", action+"成功")
}

// Admins

func adminActions(a domainAdmin.Admin) []rowAction {
	if a.Protected() {
		return nil
	}
	return []rowAction{{Label: "編輯", URL: "/admin/admins/" + url.PathEscape(a.AdminID) + "/edit"}}
}

// handleAdmins renders the admin account list (GET /admin/admins).
func handleAdmins(w http.ResponseWriter, r *http.Request) {
	q := projections.AdminSpec.ParseQuery(r.URL.Query())
	view, err := projections.QueryGetAdmins(r.Context(), q, connFrom(r.Context()))
	if err != nil && failed(w, r, classAdmin, "讀取管理者列表", err) {
		return
	}
	page := buildList("管理者帳號", "/admin/admins", projections.AdminSpec, view, adminActions).
		withNew("/admin/admins/new", "新增管理者")
	renderTemplate(w, r, "list.html", map[string]any{"List": page})
}

// handleAdminForm handles GET (form) and POST (save) for /admin/admins/new
// and /admin/admins/{id}/edit.
func handleAdminForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	cn := connFrom(r.Context())
	isNew := id == ""
	action := "新增管理者"
	if !isNew {
		action = "更新管理者"
	}
	if domainAdmin.IsProtected(id) {
		redirectWarning(w, r, "/admin/admins", domainAdmin.ErrProtected)
		return
	}

	current := domainAdmin.Admin{Active: true}
	if !isNew {
		admins, err := cn.ListAdmins(r.Context())
		if err != nil {
			if !failed(w, r, classAdmin, "讀取管理者列表", err) {
				http.Redirect(w, r, "/admin/admins", http.StatusSeeOther)
			}
			return
		}
		found := false
		for _, a := range admins {
			if a.AdminID == id {
				current, found = a, true
			}
		}
		if !found {
			redirectWarning(w, r, "/admin/admins", errNotFound)
			return
		}
	}
	units, err := cn.ListUnits(r.Context())
	if err != nil && failed(w, r, classAdmin, "讀取單位", err) {
		return
	}
	render := func(form domainAdmin.Admin) {
		renderTemplate(w, r, "admin_form.html", map[string]any{
			"Form":  form,
			"IsNew": isNew,
			"Title": action,
			"Units": domainAdmin.UnitChoices(units, current.Unit),
		})
	}

	if r.Method == http.MethodGet {
		render(current)
		return
	}

	form := domainAdmin.Admin{
		AdminID:   id,
		Username:  r.PostFormValue("username"),
		AdminName: r.PostFormValue("adminName"),
		Unit:      r.PostFormValue("unit"),
		Active:    r.PostFormValue("active") != "",
	}
	err = orchestrators.ExecuteSaveAdmin(r.Context(), orchestrators.SaveAdminInput{
		Admin:       form,
		CurrentUnit: current.Unit,
		ActorUnit:   currentSession(r).Admin.Unit,
		Actor:       actorFrom(r, classAdmin),
	}, orchestrators.SaveAdminDeps{Backend: cn, Recording: recording()})
	if err != nil {
		if failed(w, r, classAdmin, action, err) {
			return
		}
		render(form)
		return
	}
	redirect(w, r, "/admin/admins", action+"成功")
}

// handleAdminChangePassword handles GET (form) and POST (change) for
// /admin/change-password. A successful change signs the admin out.
func handleAdminChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "change_password.html", map[string]any{"Action": "/admin/change-password", "Back": "/admin"})
		return
	}
	cn := connFrom(r.Context())
	actor := actorFrom(r, classAdmin)
	err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
		Change: passwordChangeForm(r),
		Actor:  actor,
	}, orchestrators.ChangePasswordDeps{Backend: orchestrators.PasswordChangeFunc(cn.ChangeAdminPassword), Recording: recording()})
	if err != nil {
		if failed(w, r, classAdmin, "變更密碼", err) {
			return
		}
		renderTemplate(w, r, "change_password.html", map[string]any{"Action": "/admin/change-password", "Back": "/admin"})
		return
	}
	_ = orchestrators.ExecuteLogout(r.Context(), orchestrators.LogoutInput{Actor: actor},
		orchestrators.LogoutDeps{Backend: orchestrators.LogoutFunc(cn.AdminLogout), Recording: recording()})
	currentSession(r).LoggedOut(classAdmin)
	redirect(w, r, "/admin/login", "密碼已變更，請重新登入")
}

func passwordChangeForm(r *http.Request) domainMember.PasswordChange {
	return domainMember.PasswordChange{
		OldPassword:     r.PostFormValue("oldPassword"),
		NewPassword:     r.PostFormValue("newPassword"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}
}

var errNotFound = errors.New("找不到指定的資料")

func redirectWarning(w http.ResponseWriter, r *http.Request, to string, err error) {
	currentSession(r).Flash(session.LevelWarning, err.Error(), "")
	http.Redirect(w, r, to, http.StatusSeeOther)
}
