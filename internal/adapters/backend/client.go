// Package backend is the HTTP client for the loyalty REST backend. Every
// response uses the envelope {status, data, message}; a call succeeds only
// when the HTTP status is 2xx and the envelope status is 200.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"otterpoint/internal/adapters/http/perf"
	"otterpoint/internal/domain/session"
)

// StatusOK is the envelope status that signals logical success.
const StatusOK = 200

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 10 << 20

// Envelope is the uniform response wrapper.
type Envelope struct {
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Client holds the backend base URL and shared transport. It carries no
// cookies itself; use Conn to bind a portal session's cookie jar.
type Client struct {
	base      *url.URL
	http      *http.Client
	collector *perf.Collector
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport and timeout settings.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithCollector records every call's timing.
func WithCollector(col *perf.Collector) Option {
	return func(c *Client) { c.collector = col }
}

// New creates a client for the backend at baseURL.
// PRE: baseURL is an absolute http(s) URL
// POST: Returns a ready client or an error for malformed URLs
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url must be http or https, got %q", baseURL)
	}
	c := &Client{base: u, http: &http.Client{Timeout: 15 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// NewJar builds a cookie jar preloaded with previously stored backend cookies.
// PRE: none
// POST: Returns a jar scoped with the public suffix list
func (c *Client) NewJar(stored []session.Cookie) (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	if len(stored) > 0 {
		cookies := make([]*http.Cookie, 0, len(stored))
		for _, sc := range stored {
			hc := sc.HTTP()
			hc.Domain = ""
			if hc.Path == "" {
				hc.Path = "/"
			}
			cookies = append(cookies, hc)
		}
		jar.SetCookies(c.rootURL(), cookies)
	}
	return jar, nil
}

// StoredCookies extracts the backend cookies currently held by jar.
func (c *Client) StoredCookies(jar http.CookieJar) []session.Cookie {
	if jar == nil {
		return nil
	}
	var out []session.Cookie
	for _, hc := range jar.Cookies(c.rootURL()) {
		sc := session.FromHTTP(hc)
		sc.Path = "/"
		out = append(out, sc)
	}
	return out
}

func (c *Client) rootURL() *url.URL {
	u := *c.base
	u.Path = "/"
	u.RawQuery = ""
	return &u
}

// Conn binds the client to one portal session's cookie jar.
func (c *Client) Conn(jar http.CookieJar) *Conn {
	hc := *c.http
	hc.Jar = jar
	return &Conn{client: c, http: &hc}
}

// Conn issues backend calls with one session's cookies.
type Conn struct {
	client *Client
	http   *http.Client
}

// request describes one backend call.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func (cn *Conn) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	return cn.do(ctx, request{op: op, method: http.MethodGet, path: path, query: query}, out)
}

func (cn *Conn) sendJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &Error{Op: op, Kind: KindTransport, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return cn.do(ctx, request{op: op, method: method, path: path, body: body, contentType: contentType}, out)
}

func (cn *Conn) sendForm(ctx context.Context, op, path string, form url.Values, out any) error {
	return cn.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        path,
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}, out)
}

// do sends req and decodes the envelope into out.
// PRE: req.op and req.path are set
// POST: Returns nil only for HTTP 2xx with envelope status 200; otherwise *Error
func (cn *Conn) do(ctx context.Context, req request, out any) error {
	resp, body, err := cn.roundTrip(ctx, req, "application/json")
	if err != nil {
		return err
	}
	return decodeEnvelope(req.op, resp.StatusCode, body, out)
}

// raw sends req and returns the body without envelope decoding.
func (cn *Conn) raw(ctx context.Context, req request) ([]byte, string, error) {
	resp, body, err := cn.roundTrip(ctx, req, "*/*")
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := KindLogical
		if isAuthStatus(resp.StatusCode) {
			kind = KindAuth
		}
		return nil, "", &Error{Op: req.op, Kind: kind, HTTPStatus: resp.StatusCode}
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (cn *Conn) roundTrip(ctx context.Context, req request, accept string) (*http.Response, []byte, error) {
	u := cn.client.base.JoinPath(req.path)
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}
	hr, err := http.NewRequestWithContext(ctx, req.method, u.String(), req.body)
	if err != nil {
		return nil, nil, &Error{Op: req.op, Kind: KindTransport, Err: err}
	}
	hr.Header.Set("Accept", accept)
	if req.contentType != "" {
		hr.Header.Set("Content-Type", req.contentType)
	}

	start := time.Now()
	resp, err := cn.http.Do(hr)
	if err != nil {
		cn.record(req.op, 0, true, start)
		slog.Warn("upstream_error", "op", req.op, "error", err.Error())
		return nil, nil, &Error{Op: req.op, Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	failed := err != nil || resp.StatusCode >= 400
	cn.record(req.op, resp.StatusCode, failed, start)
	if err != nil {
		return nil, nil, &Error{Op: req.op, Kind: KindTransport, HTTPStatus: resp.StatusCode, Err: err}
	}
	return resp, body, nil
}

func (cn *Conn) record(op string, status int, failed bool, start time.Time) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	slog.Debug("upstream", "op", op, "status", status, "duration_ms", durationMs)
	if cn.client.collector == nil {
		return
	}
	cn.client.collector.Record(perf.Entry{
		Kind:       perf.KindUpstream,
		Name:       op,
		StatusCode: status,
		Failed:     failed,
		DurationMs: durationMs,
		Timestamp:  start,
	})
}

// decodeEnvelope applies the success rule and unmarshals data into out.
// PRE: body is the full response body
// POST: out is populated only on success
func decodeEnvelope(op string, httpStatus int, body []byte, out any) error {
	var env Envelope
	decodeErr := json.Unmarshal(body, &env)
	ok2xx := httpStatus >= 200 && httpStatus <= 299

	if decodeErr != nil {
		if isAuthStatus(httpStatus) {
			return &Error{Op: op, Kind: KindAuth, HTTPStatus: httpStatus}
		}
		if !ok2xx {
			return &Error{Op: op, Kind: KindLogical, HTTPStatus: httpStatus}
		}
		return &Error{Op: op, Kind: KindTransport, HTTPStatus: httpStatus, Err: fmt.Errorf("unparseable response: %w", decodeErr)}
	}

	if !ok2xx || env.Status != StatusOK {
		kind := KindLogical
		if isAuthStatus(httpStatus) || isAuthStatus(env.Status) {
			kind = KindAuth
		}
		return &Error{Op: op, Kind: kind, HTTPStatus: httpStatus, Status: env.Status, Message: env.Message}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Op: op, Kind: KindTransport, HTTPStatus: httpStatus, Status: env.Status, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}
