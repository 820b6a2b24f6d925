package web

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"otterpoint/internal/adapters/http/middleware"
	"otterpoint/internal/domain/labels"
	"otterpoint/internal/domain/session"
	"otterpoint/internal/domain/timestamp"
)

// mdRenderer renders item and point type descriptions. Raw HTML in the
// input is escaped (WithUnsafe is not set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// assetURL resolves an image path returned by the backend against its base URL.
func assetURL(u string) string {
	if u == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "data:") {
		return u
	}
	return strings.TrimRight(deps.Backend.BaseURL(), "/") + "/" + strings.TrimLeft(u, "/")
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data map[string]any) {
	sess, ok := middleware.SessionFrom(r.Context())
	var notices []session.Notice
	flags := session.Flags{}
	adminName, memberName := "", ""
	if ok {
		notices = sess.TakeNotices()
		flags = sess.Auth
		adminName = sess.Admin.Name
		memberName = sess.MemberName
	}

	funcMap := template.FuncMap{
		"csrfField":      func() template.HTML { return csrf.TemplateField(r) },
		"isAdmin":        func() bool { return flags.Admin == session.Authenticated },
		"isMember":       func() bool { return flags.Member == session.Authenticated },
		"adminName":      func() string { return adminName },
		"memberName":     func() string { return memberName },
		"notices":        func() []session.Notice { return notices },
		"currentPath":    func() string { return r.URL.Path },
		"renderMarkdown": renderMarkdown,
		"assetURL":       assetURL,
		"category":       labels.Category,
		"level":          labels.Level,
		"gender":         labels.Gender,
		"activeLabel":    labels.Active,
		"statusLabel":    labels.Status,
		"text":           labels.Text,
		"count":          labels.Int,
		"date":           func(s timestamp.Stamp) string { return s.Date() },
		"minute":         func(s timestamp.Stamp) string { return s.Minute() },
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(assets, "templates/layout.html", "templates/partials.html", "templates/"+templateName)
	if err != nil {
		internalError(w, err)
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// currentSession returns the request's portal session. Outside
// middleware.Sessions it returns a detached session that is never stored.
func currentSession(r *http.Request) *session.Session {
	if sess, ok := middleware.SessionFrom(r.Context()); ok {
		return sess
	}
	return session.New("", timeNow(), deps.SessionTTL)
}

// redirect flashes a success notice and redirects (post/redirect/get).
func redirect(w http.ResponseWriter, r *http.Request, to, title string) {
	if title != "" {
		currentSession(r).Flash(session.LevelSuccess, title, "")
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}
