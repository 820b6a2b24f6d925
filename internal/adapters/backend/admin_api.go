package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"otterpoint/internal/domain/admin"
	"otterpoint/internal/domain/dashboard"
	"otterpoint/internal/domain/item"
	"otterpoint/internal/domain/member"
	"otterpoint/internal/domain/pointlog"
	"otterpoint/internal/domain/pointtype"
)

// AdminLogin authenticates an admin. The captcha is sent only when set.
// PRE: credentials validated
// POST: On success the jar holds the backend admin session cookie
func (cn *Conn) AdminLogin(ctx context.Context, c admin.Credentials) error {
	form := url.Values{"username": {c.Username}, "password": {c.Password}}
	if c.Captcha != "" {
		form.Set("captcha", c.Captcha)
	}
	return cn.sendForm(ctx, "admin.login", "/admin/login", form, nil)
}

// AdminLogout ends the backend admin session.
func (cn *Conn) AdminLogout(ctx context.Context) error {
	return cn.getJSON(ctx, "admin.logout", "/admin/logout", nil, nil)
}

// AdminCheckLogin probes the admin session. Only data == true counts.
func (cn *Conn) AdminCheckLogin(ctx context.Context) (bool, error) {
	var ok bool
	err := cn.getJSON(ctx, "admin.check_login", "/admin/check-login", nil, &ok)
	return err == nil && ok, err
}

// AdminMe returns the signed-in admin.
func (cn *Conn) AdminMe(ctx context.Context) (admin.Profile, error) {
	var p admin.Profile
	err := cn.getJSON(ctx, "admin.me", "/admin/me", nil, &p)
	return p, err
}

// AdminCaptcha fetches the CAPTCHA image. The backend ties the answer to
// the session cookie it sets on this response.
func (cn *Conn) AdminCaptcha(ctx context.Context) ([]byte, string, error) {
	return cn.raw(ctx, request{op: "admin.captcha", method: http.MethodGet, path: "/admin/captcha"})
}

// ChangeAdminPassword changes the signed-in admin's password.
func (cn *Conn) ChangeAdminPassword(ctx context.Context, c member.PasswordChange) error {
	return cn.sendJSON(ctx, "admin.change_password", http.MethodPut, "/admin/change-password", c, nil)
}

// Dashboard fetches the aggregate counters, optionally bounded by dates.
func (cn *Conn) Dashboard(ctx context.Context, start, end *time.Time) (dashboard.Summary, error) {
	q := url.Values{}
	if start != nil {
		q.Set("start", start.Format("2006-01-02"))
	}
	if end != nil {
		q.Set("end", end.Format("2006-01-02"))
	}
	var s dashboard.Summary
	err := cn.getJSON(ctx, "admin.dashboard", "/admin/dashboard", q, &s)
	return s, err
}

func memberPath(id string, rest ...string) string {
	return path.Join(append([]string{"/admin/member", id}, rest...)...)
}

// ListMembers returns every member.
func (cn *Conn) ListMembers(ctx context.Context) ([]member.Member, error) {
	var out []member.Member
	err := cn.getJSON(ctx, "admin.members.list", "/admin/member", nil, &out)
	return out, err
}

// GetMember returns one member.
func (cn *Conn) GetMember(ctx context.Context, id string) (member.Member, error) {
	var m member.Member
	err := cn.getJSON(ctx, "admin.members.get", memberPath(id), nil, &m)
	return m, err
}

// UpdateMember saves an admin edit of a member's profile.
func (cn *Conn) UpdateMember(ctx context.Context, id string, p member.Profile) error {
	return cn.sendJSON(ctx, "admin.members.update", http.MethodPut, memberPath(id), p, nil)
}

// DeleteMember removes a member.
func (cn *Conn) DeleteMember(ctx context.Context, id string) error {
	return cn.sendJSON(ctx, "admin.members.delete", http.MethodDelete, memberPath(id), nil, nil)
}

// ToggleMemberActive flips a member's active flag.
func (cn *Conn) ToggleMemberActive(ctx context.Context, id string) error {
	return cn.sendJSON(ctx, "admin.members.toggle", http.MethodPatch, memberPath(id, "toggle-active"), nil, nil)
}

// MemberPointLogs returns one member's ledger.
func (cn *Conn) MemberPointLogs(ctx context.Context, id string) ([]pointlog.Log, error) {
	var out []pointlog.Log
	err := cn.getJSON(ctx, "admin.members.points", memberPath(id, "point"), nil, &out)
	return out, err
}

// PostPoints grants or deducts points for a member.
func (cn *Conn) PostPoints(ctx context.Context, p pointlog.Posting) error {
	return cn.sendJSON(ctx, "admin.members.post_points", http.MethodPost, memberPath(p.MemberID, "point"), p, nil)
}

// ListPointLogs returns the global ledger.
func (cn *Conn) ListPointLogs(ctx context.Context) ([]pointlog.Log, error) {
	var out []pointlog.Log
	err := cn.getJSON(ctx, "admin.point_logs.list", "/admin/point-list", nil, &out)
	return out, err
}

// ListPointTypes returns point types, optionally narrowed.
func (cn *Conn) ListPointTypes(ctx context.Context, f pointtype.Filter) ([]pointtype.PointType, error) {
	q := url.Values{}
	if f.Active != nil {
		q.Set("active", strconv.FormatBool(*f.Active))
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	var out []pointtype.PointType
	err := cn.getJSON(ctx, "admin.point_types.list", "/admin/point-types", q, &out)
	return out, err
}

// CreatePointType adds a point type.
func (cn *Conn) CreatePointType(ctx context.Context, p pointtype.PointType) error {
	return cn.sendJSON(ctx, "admin.point_types.create", http.MethodPost, "/admin/point-types", p, nil)
}

// UpdatePointType saves a point type.
func (cn *Conn) UpdatePointType(ctx context.Context, p pointtype.PointType) error {
	return cn.sendJSON(ctx, "admin.point_types.update", http.MethodPut, path.Join("/admin/point-types", p.TypeID), p, nil)
}

// ListAdmins returns every admin account.
func (cn *Conn) ListAdmins(ctx context.Context) ([]admin.Admin, error) {
	var out []admin.Admin
	err := cn.getJSON(ctx, "admin.admins.list", "/admin/manage-admins", nil, &out)
	return out, err
}

// ListUnits returns the department enum.
func (cn *Conn) ListUnits(ctx context.Context) ([]string, error) {
	var out []string
	err := cn.getJSON(ctx, "admin.admins.units", "/admin/manage-admins/units", nil, &out)
	return out, err
}

// CreateAdmin adds an admin account.
func (cn *Conn) CreateAdmin(ctx context.Context, a admin.Admin) error {
	return cn.sendJSON(ctx, "admin.admins.create", http.MethodPost, "/admin/manage-admins", a, nil)
}

// UpdateAdmin saves an admin account.
func (cn *Conn) UpdateAdmin(ctx context.Context, a admin.Admin) error {
	return cn.sendJSON(ctx, "admin.admins.update", http.MethodPut, path.Join("/admin/manage-admins", a.AdminID), a, nil)
}

// ListItems returns every redeemable item.
func (cn *Conn) ListItems(ctx context.Context) ([]item.Item, error) {
	var out []item.Item
	err := cn.getJSON(ctx, "admin.items.list", "/admin/item-list", nil, &out)
	return out, err
}

// CreateItem adds an item.
func (cn *Conn) CreateItem(ctx context.Context, i item.Item) error {
	return cn.sendJSON(ctx, "admin.items.create", http.MethodPost, "/admin/item-list", i, nil)
}

// UpdateItem saves an item.
func (cn *Conn) UpdateItem(ctx context.Context, i item.Item) error {
	return cn.sendJSON(ctx, "admin.items.update", http.MethodPut, path.Join("/admin/item-list", i.ItemID), i, nil)
}

// DeleteItem removes an item.
func (cn *Conn) DeleteItem(ctx context.Context, id string) error {
	return cn.sendJSON(ctx, "admin.items.delete", http.MethodDelete, path.Join("/admin/item-list", id), nil, nil)
}

// UploadItemImage sends an image as multipart field "file" and returns the
// URL the backend stored it under.
// PRE: filename is non-empty, r yields the image bytes
// POST: Returns the stored image URL
func (cn *Conn) UploadItemImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", &Error{Op: "admin.items.upload", Kind: KindTransport, Err: err}
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", &Error{Op: "admin.items.upload", Kind: KindTransport, Err: fmt.Errorf("read upload: %w", err)}
	}
	if err := mw.Close(); err != nil {
		return "", &Error{Op: "admin.items.upload", Kind: KindTransport, Err: err}
	}
	var imageURL string
	err = cn.do(ctx, request{
		op:          "admin.items.upload",
		method:      http.MethodPost,
		path:        "/admin/item-list/upload-image",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}, &imageURL)
	return imageURL, err
}
