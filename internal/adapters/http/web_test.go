package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"

	"otterpoint/internal/adapters/backend"
	"otterpoint/internal/adapters/export"
	"otterpoint/internal/adapters/http/middleware"
	sessionStore "otterpoint/internal/adapters/storage/session"
	domainMember "otterpoint/internal/domain/member"
	"otterpoint/internal/domain/pointlog"
	"otterpoint/internal/domain/pointtype"
)

// fakeBackend is an in-memory loyalty backend. A session cookie named
// after the class marks the backend as signed in.
type fakeBackend struct {
	mu       sync.Mutex
	unit     string
	expired  bool // every admin data call answers 401
	postings []pointlog.Posting
	calls    map[string]int
}

func (f *fakeBackend) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeBackend) posted() []pointlog.Posting {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pointlog.Posting(nil), f.postings...)
}

func envelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"status": status, "data": data, "message": http.StatusText(status)})
}

func signedIn(r *http.Request, class string) bool {
	_, err := r.Cookie(class + "_SESSION")
	return err == nil
}

func (f *fakeBackend) handler() http.Handler {
	remain := int64(120)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/check-login", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, 200, signedIn(r, "ADMIN"))
	})
	mux.HandleFunc("GET /member/check-login", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, 200, signedIn(r, "MEMBER"))
	})
	mux.HandleFunc("POST /admin/login", func(w http.ResponseWriter, r *http.Request) {
		if r.PostFormValue("password") != "secret" {
			envelope(w, 400, nil)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "ADMIN_SESSION", Value: "a1", Path: "/"})
		envelope(w, 200, nil)
	})
	mux.HandleFunc("POST /member/login", func(w http.ResponseWriter, r *http.Request) {
		if r.PostFormValue("phoneNumber") != "0912345678" || r.PostFormValue("password") != "secret" {
			envelope(w, 400, nil)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "MEMBER_SESSION", Value: "m1", Path: "/"})
		envelope(w, 200, nil)
	})
	mux.HandleFunc("GET /admin/captcha", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG"))
	})
	mux.HandleFunc("GET /admin/me", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		unit := f.unit
		f.mu.Unlock()
		envelope(w, 200, map[string]string{"adminId": "AD00002", "adminName": "小華", "unit": unit})
	})
	mux.HandleFunc("GET /admin/member", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		expired := f.expired
		f.mu.Unlock()
		if expired {
			envelope(w, http.StatusUnauthorized, nil)
			return
		}
		envelope(w, 200, []domainMember.Member{
			{MemberID: "M0001", LastName: "王", FirstName: "小明", PhoneNumber: "0912345678", Level: domainMember.LevelFormal, Active: true, RemainPoint: &remain},
			{MemberID: "M0002", LastName: "陳", FirstName: "美麗", PhoneNumber: "0922333444", Level: domainMember.LevelPasser, Active: true},
		})
	})
	mux.HandleFunc("GET /admin/member/{id}", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, 200, domainMember.Member{MemberID: r.PathValue("id"), LastName: "王", FirstName: "小明", Level: domainMember.LevelFormal, Active: true})
	})
	mux.HandleFunc("GET /admin/member/{id}/point", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, 200, []pointlog.Log{{LogID: "L1", MemberID: r.PathValue("id"), Category: pointtype.CategoryAdd, OriginalPoints: 120, RemainPoints: &remain, CreatedAt: "2024-05-01T09:30:00"}})
	})
	mux.HandleFunc("POST /admin/member/{id}/point", func(w http.ResponseWriter, r *http.Request) {
		var p pointlog.Posting
		_ = json.NewDecoder(r.Body).Decode(&p)
		f.mu.Lock()
		f.postings = append(f.postings, p)
		f.mu.Unlock()
		envelope(w, 200, nil)
	})
	mux.HandleFunc("GET /admin/point-types", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, 200, []pointtype.PointType{{TypeID: "TP00002", Name: "消費回饋", Category: pointtype.CategoryAdd, DefaultValue: 10, Active: true}})
	})
	mux.HandleFunc("GET /member/info", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, 200, domainMember.Card{MemberID: "M0001", LastName: "王", FirstName: "小明", Gender: domainMember.GenderMale, TotalPoints: &remain, Level: domainMember.LevelFormal})
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		if f.calls == nil {
			f.calls = map[string]int{}
		}
		f.calls[r.Method+" "+r.URL.Path]++
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

// browser drives the portal like a user agent: it keeps cookies and never
// follows redirects.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
	token  string
}

func newPortal(t *testing.T, f *fakeBackend) *browser {
	t.Helper()
	upstream := httptest.NewServer(f.handler())
	t.Cleanup(upstream.Close)

	bc, err := backend.New(upstream.URL)
	if err != nil {
		t.Fatal(err)
	}
	key, err := sessionStore.RandomKey()
	if err != nil {
		t.Fatal(err)
	}
	sealer, err := sessionStore.NewSealer(key)
	if err != nil {
		t.Fatal(err)
	}
	limiter := middleware.NewRateLimiter(1000, 1000)
	t.Cleanup(limiter.Stop)

	srv := httptest.NewServer(NewMux(Deps{
		Backend:  bc,
		Sessions: sessionStore.NewMemoryStore(sealer),
		Limiter:  limiter,
		CSRFKey:  []byte("0123456789abcdef0123456789abcdef"),
	}))
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	return &browser{t: t, base: srv.URL, client: &http.Client{
		Jar:           jar,
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}}
}

var csrfInput = regexp.MustCompile(`name="gorilla.csrf.Token" value="([^"]+)"`)

func (b *browser) get(path string) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	if err != nil {
		b.t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if m := csrfInput.FindSubmatch(body); m != nil {
		b.token = string(m[1])
	}
	return resp, string(body)
}

func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	b.t.Helper()
	if b.token == "" {
		b.get("/")
	}
	form.Set("gorilla.csrf.Token", b.token)
	resp, err := b.client.PostForm(b.base+path, form)
	if err != nil {
		b.t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func (b *browser) adminLogin() {
	b.t.Helper()
	resp, _ := b.post("/admin/login", url.Values{"username": {"hua"}, "password": {"secret"}, "captcha": {"1234"}})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/admin" {
		b.t.Fatalf("admin login: status %d location %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestHealthz(t *testing.T) {
	b := newPortal(t, &fakeBackend{})
	resp, body := b.get("/healthz")
	if resp.StatusCode != http.StatusOK || body != "ok" {
		t.Errorf("healthz = %d %q", resp.StatusCode, body)
	}
}

func TestHome_RendersLoginForm(t *testing.T) {
	b := newPortal(t, &fakeBackend{})
	resp, body := b.get("/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, `action="/member/login"`) || b.token == "" {
		t.Error("member login form or csrf field missing")
	}
	if resp.Header.Get("Content-Security-Policy") == "" {
		t.Error("security headers missing")
	}
}

func TestProtectedPages_RedirectWhenSignedOut(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/admin", "/admin/login"},
		{"/admin/members", "/admin/login"},
		{"/member", "/"},
		{"/member/point", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			b := newPortal(t, &fakeBackend{})
			resp, _ := b.get(tt.path)
			if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != tt.want {
				t.Errorf("GET %s = %d %q, want redirect to %q", tt.path, resp.StatusCode, resp.Header.Get("Location"), tt.want)
			}
		})
	}
}

func TestPost_RejectsMissingCSRFToken(t *testing.T) {
	b := newPortal(t, &fakeBackend{})
	b.get("/")
	resp, err := b.client.PostForm(b.base+"/member/login", url.Values{"phoneNumber": {"0912345678"}, "password": {"secret"}})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestMemberLogin(t *testing.T) {
	f := &fakeBackend{}
	b := newPortal(t, f)

	// The first visit resolves the session once; nothing after it may probe again.
	b.get("/")
	probes := f.count("GET /member/check-login")
	if probes != 1 {
		t.Fatalf("first visit probed check-login %d times, want 1", probes)
	}

	resp, body := b.post("/member/login", url.Values{"phoneNumber": {"0912345678"}, "password": {"wrong"}})
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "登入失敗") {
		t.Fatalf("bad password: status %d", resp.StatusCode)
	}

	resp, _ = b.post("/member/login", url.Values{"phoneNumber": {"0912345678"}, "password": {"secret"}})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/member" {
		t.Fatalf("login: status %d location %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, body = b.get("/member")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("card status = %d", resp.StatusCode)
	}
	for _, want := range []string{"登入成功", "M0001", "data:image/png;base64,", "120"} {
		if !strings.Contains(body, want) {
			t.Errorf("card page missing %q", want)
		}
	}
	if n := f.count("GET /member/check-login"); n != probes {
		t.Errorf("check-login probed %d more times after the first visit", n-probes)
	}
}

func TestMemberPoints_FailedLedgerShowsPlaceholder(t *testing.T) {
	b := newPortal(t, &fakeBackend{})
	resp, _ := b.post("/member/login", url.Values{"phoneNumber": {"0912345678"}, "password": {"secret"}})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login status = %d", resp.StatusCode)
	}

	// The fake backend serves no /member/point, so the ledger cannot be read.
	resp, body := b.get("/member/point")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, `<dd class="big">-</dd>`) {
		t.Error("unreadable ledger should show the placeholder balance")
	}
	if strings.Contains(body, `<dd class="big">0</dd>`) {
		t.Error("unreadable ledger rendered a zero balance")
	}
}

func TestAdmin_MembersListAndExport(t *testing.T) {
	f := &fakeBackend{unit: "行銷部"}
	b := newPortal(t, f)
	b.adminLogin()

	resp, body := b.get("/admin/members?q=" + url.QueryEscape("王"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "M0001") || strings.Contains(body, "M0002") {
		t.Error("keyword filter not applied")
	}
	if !strings.Contains(body, "小華") {
		t.Error("admin name not loaded into the header")
	}

	resp, _ = b.get("/admin/members/export?q=" + url.QueryEscape("王"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != export.ContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestAdmin_AdminsRequireIT(t *testing.T) {
	tests := []struct {
		unit string
		want int
	}{
		{"行銷部", http.StatusSeeOther},
		{"資訊部", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			b := newPortal(t, &fakeBackend{unit: tt.unit})
			b.adminLogin()
			resp, _ := b.get("/admin/admins")
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestAdmin_PostPointsNeedsConfirmation(t *testing.T) {
	f := &fakeBackend{unit: "門市部"}
	b := newPortal(t, f)
	b.adminLogin()
	b.get("/admin/members/M0001/points")

	form := url.Values{"typeId": {"TP00002"}, "points": {"30"}, "note": {"開幕活動"}}
	resp, body := b.post("/admin/members/M0001/points", form)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `name="confirmed" value="yes"`) {
		t.Fatalf("first submit should render a confirmation, got %d", resp.StatusCode)
	}
	if len(f.posted()) != 0 {
		t.Fatal("posting sent before confirmation")
	}

	form.Set("confirmed", "yes")
	resp, _ = b.post("/admin/members/M0001/points", form)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/admin/members/M0001/points" {
		t.Fatalf("confirmed submit: status %d location %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if got := f.posted(); len(got) != 1 || got[0].Points != 30 || got[0].TypeID != "TP00002" {
		t.Errorf("postings = %+v", got)
	}
}

func TestAdmin_BackendSessionLostSignsOut(t *testing.T) {
	f := &fakeBackend{unit: "門市部"}
	b := newPortal(t, f)
	b.adminLogin()

	f.mu.Lock()
	f.expired = true
	f.mu.Unlock()

	resp, _ := b.get("/admin/members")
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/admin/login" {
		t.Fatalf("status %d location %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	_, body := b.get("/admin/login")
	if !strings.Contains(body, "登入已失效") {
		t.Error("session-lost notice not shown")
	}
}

func TestCaptcha_ProxiesImage(t *testing.T) {
	b := newPortal(t, &fakeBackend{})
	resp, body := b.get("/admin/captcha")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" || body != "\x89PNG" {
		t.Errorf("captcha = %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if resp.Header.Get("Cache-Control") != "no-store" {
		t.Error("captcha must not be cached")
	}
}

func TestAdmin_PointTypeRejectsNonNumericDefault(t *testing.T) {
	f := &fakeBackend{unit: "資訊部"}
	b := newPortal(t, f)
	b.adminLogin()

	b.get("/admin/point-types/new")
	resp, body := b.post("/admin/point-types/new", url.Values{
		"name":         {"生日禮"},
		"category":     {pointtype.CategoryAdd},
		"defaultValue": {"abc"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want the form again", resp.StatusCode)
	}
	if !strings.Contains(body, pointtype.ErrInvalidDefault.Error()) {
		t.Error("form should explain the default value is invalid")
	}
	if n := f.count("POST /admin/point-types"); n != 0 {
		t.Errorf("backend received %d point type writes", n)
	}
}
