package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"otterpoint/internal/adapters/http/perf"
	"otterpoint/internal/domain/admin"
	"otterpoint/internal/domain/pointlog"
	"otterpoint/internal/domain/pointtype"
)

// writeEnvelope writes a backend-style response.
func writeEnvelope(w http.ResponseWriter, httpStatus, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	env := map[string]any{"status": status}
	if data != nil {
		env["data"] = data
	}
	if message != "" {
		env["message"] = message
	}
	_ = json.NewEncoder(w).Encode(env)
}

func newTestConn(t *testing.T, h http.Handler) (*Conn, *Client) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, WithCollector(perf.NewCollector(100)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	jar, err := c.NewJar(nil)
	if err != nil {
		t.Fatalf("NewJar: %v", err)
	}
	return c.Conn(jar), c
}

func TestNew_RejectsBadURL(t *testing.T) {
	for _, u := range []string{"ftp://x", "://bad", "localhost:8081"} {
		if _, err := New(u); err == nil {
			t.Errorf("New(%q): expected error", u)
		}
	}
}

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		httpStatus int
		body       string
		wantKind   Kind
		wantMsg    string
	}{
		{"success", 200, `{"status":200,"data":true}`, 0, ""},
		{"logical failure on 2xx", 200, `{"status":400,"message":"點數不足"}`, KindLogical, "點數不足"},
		{"non-2xx with envelope", 500, `{"status":500,"message":"boom"}`, KindLogical, "boom"},
		{"non-2xx without envelope", 502, `<html>bad gateway</html>`, KindLogical, ""},
		{"unparseable 2xx", 200, `not json`, KindTransport, ""},
		{"http 401", 401, `{"status":401,"message":"請先登入"}`, KindAuth, "請先登入"},
		{"envelope 403", 200, `{"status":403,"message":"權限不足"}`, KindAuth, "權限不足"},
		{"bare 403", 403, ``, KindAuth, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bool
			err := decodeEnvelope("test.op", tt.httpStatus, []byte(tt.body), &out)
			if tt.wantKind == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !out {
					t.Error("data not decoded")
				}
				return
			}
			if got := KindOf(err); got != tt.wantKind {
				t.Fatalf("kind: got %v, want %v (err=%v)", got, tt.wantKind, err)
			}
			var be *Error
			if !errors.As(err, &be) || be.Message != tt.wantMsg {
				t.Errorf("message: got %q, want %q", be.Message, tt.wantMsg)
			}
		})
	}
}

func TestCheckLogin_FailsClosed(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    bool
	}{
		{"true", func(w http.ResponseWriter, r *http.Request) { writeEnvelope(w, 200, 200, true, "") }, true},
		{"false", func(w http.ResponseWriter, r *http.Request) { writeEnvelope(w, 200, 200, false, "") }, false},
		{"string true", func(w http.ResponseWriter, r *http.Request) { writeEnvelope(w, 200, 200, "true", "") }, false},
		{"status not 200", func(w http.ResponseWriter, r *http.Request) { writeEnvelope(w, 200, 401, true, "") }, false},
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500) }, false},
		{"missing data", func(w http.ResponseWriter, r *http.Request) { writeEnvelope(w, 200, 200, nil, "") }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cn, _ := newTestConn(t, tt.handler)
			got, _ := cn.AdminCheckLogin(context.Background())
			if got != tt.want {
				t.Errorf("AdminCheckLogin: got %v, want %v", got, tt.want)
			}
			got, _ = cn.MemberCheckLogin(context.Background())
			if got != tt.want {
				t.Errorf("MemberCheckLogin: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckLogin_TransportErrorFailsClosed(t *testing.T) {
	c, err := New("http://127.0.0.1:1")
	if err != nil {
		t.Fatal(err)
	}
	jar, _ := c.NewJar(nil)
	ok, err := c.Conn(jar).AdminCheckLogin(context.Background())
	if ok {
		t.Error("unreachable backend must not authenticate")
	}
	if KindOf(err) != KindTransport {
		t.Errorf("kind: got %v, want transport", KindOf(err))
	}
}

func TestAdminLogin_SendsFormAndKeepsCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/login", func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("content type: %q", ct)
		}
		if r.FormValue("username") != "amy" || r.FormValue("password") != "pw" || r.FormValue("captcha") != "AB12" {
			t.Errorf("form: %v", r.Form)
		}
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc", Path: "/"})
		writeEnvelope(w, 200, 200, nil, "")
	})
	mux.HandleFunc("GET /admin/check-login", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("JSESSIONID")
		writeEnvelope(w, 200, 200, err == nil && c.Value == "abc", "")
	})

	cn, client := newTestConn(t, mux)
	if err := cn.AdminLogin(context.Background(), admin.Credentials{Username: "amy", Password: "pw", Captcha: "AB12"}); err != nil {
		t.Fatalf("AdminLogin: %v", err)
	}
	ok, err := cn.AdminCheckLogin(context.Background())
	if err != nil || !ok {
		t.Fatalf("cookie not carried: ok=%v err=%v", ok, err)
	}

	stored := client.StoredCookies(cn.http.Jar)
	if len(stored) != 1 || stored[0].Name != "JSESSIONID" {
		t.Fatalf("StoredCookies: %+v", stored)
	}

	// A fresh jar rebuilt from the stored cookies keeps the session.
	jar, err := client.NewJar(stored)
	if err != nil {
		t.Fatal(err)
	}
	ok, _ = client.Conn(jar).AdminCheckLogin(context.Background())
	if !ok {
		t.Error("restored jar lost the backend session")
	}
}

func TestListPointTypes_Query(t *testing.T) {
	cn, _ := newTestConn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/point-types" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("active") != "true" || r.URL.Query().Get("category") != "CONSUME" {
			t.Errorf("query: %s", r.URL.RawQuery)
		}
		writeEnvelope(w, 200, 200, []map[string]any{{"typeId": "TP00002", "name": "兌換", "category": "CONSUME", "defaultValue": 50, "active": true}}, "")
	}))
	active := true
	got, err := cn.ListPointTypes(context.Background(), pointtype.Filter{Active: &active, Category: "CONSUME"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].DefaultValue != 50 {
		t.Errorf("decoded: %+v", got)
	}
}

func TestPostPoints_SendsJSON(t *testing.T) {
	cn, _ := newTestConn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/admin/member/M0001/point" {
			t.Errorf("request: %s %s", r.Method, r.URL.Path)
		}
		var p pointlog.Posting
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Fatal(err)
		}
		if p.TypeID != "TP00002" || p.Points != 30 || p.MemberID != "M0001" {
			t.Errorf("body: %+v", p)
		}
		writeEnvelope(w, 200, 400, nil, "會員點數不足")
	}))
	err := cn.PostPoints(context.Background(), pointlog.Posting{MemberID: "M0001", TypeID: "TP00002", Points: 30})
	if KindOf(err) != KindLogical || err.Error() != "會員點數不足" {
		t.Errorf("got %v", err)
	}
}

func TestCheckResetCode_ReturnsToken(t *testing.T) {
	cn, _ := newTestConn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, 200, "tok-ä/+=", "")
	}))
	tok, err := cn.CheckResetCode(context.Background(), "0912", "123456")
	if err != nil || tok != "tok-ä/+=" {
		t.Errorf("got %q, %v", tok, err)
	}
}

func TestUploadItemImage_Multipart(t *testing.T) {
	cn, _ := newTestConn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		if hdr.Filename != "cup.png" || string(b) != "PNGDATA" {
			t.Errorf("upload: %s %q", hdr.Filename, b)
		}
		writeEnvelope(w, 200, 200, "/images/cup.png", "")
	}))
	u, err := cn.UploadItemImage(context.Background(), "cup.png", strings.NewReader("PNGDATA"))
	if err != nil || u != "/images/cup.png" {
		t.Errorf("got %q, %v", u, err)
	}
}

func TestAdminCaptcha_Raw(t *testing.T) {
	cn, _ := newTestConn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	b, ct, err := cn.AdminCaptcha(context.Background())
	if err != nil || ct != "image/png" || len(b) != 4 {
		t.Errorf("got %v %q %v", b, ct, err)
	}
}

func TestCollectorRecordsUpstream(t *testing.T) {
	cn, client := newTestConn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 500, 500, nil, "down")
	}))
	_, _ = cn.ListMembers(context.Background())
	if client.collector.TotalRecorded() != 1 || client.collector.TotalFailed() != 1 {
		t.Errorf("recorded=%d failed=%d", client.collector.TotalRecorded(), client.collector.TotalFailed())
	}
}

func TestMessage(t *testing.T) {
	logical := &Error{Op: "x", Kind: KindLogical, Message: "帳號已存在"}
	if got := Message(logical); got != "帳號已存在" {
		t.Errorf("logical: %q", got)
	}
	transport := &Error{Op: "x", Kind: KindTransport, Err: errors.New("connection refused")}
	if got := Message(transport); !strings.Contains(got, "connection refused") {
		t.Errorf("transport: %q", got)
	}
	if !IsAuth(&Error{Kind: KindAuth}) || IsAuth(logical) {
		t.Error("IsAuth misclassified")
	}
}

func TestStoredCookies_NilJar(t *testing.T) {
	c, _ := New("http://localhost:8081")
	if got := c.StoredCookies(nil); got != nil {
		t.Errorf("got %v", got)
	}
}
