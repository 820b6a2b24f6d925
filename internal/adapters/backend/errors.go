package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed backend call.
type Kind int

const (
	// KindTransport: the request failed or the response could not be decoded.
	KindTransport Kind = iota + 1
	// KindLogical: non-2xx HTTP status or envelope status other than 200.
	KindLogical
	// KindAuth: the backend rejected the caller's session (401 or 403).
	KindAuth
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindLogical:
		return "logical"
	case KindAuth:
		return "auth"
	}
	return "unknown"
}

// Error is returned by every failed backend call.
type Error struct {
	Op         string // client operation, e.g. "admin.members.list"
	Kind       Kind
	HTTPStatus int    // 0 when no response was received
	Status     int    // envelope status, 0 when absent
	Message    string // server-supplied message, shown verbatim
	Err        error  // underlying transport or decode error
}

// Error implements error. The server message wins when present.
func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.HTTPStatus != 0:
		return fmt.Sprintf("%s: %s", e.Op, http.StatusText(e.HTTPStatus))
	}
	return e.Op + ": request failed"
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or 0 when err is not a backend error.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return 0
}

// IsAuth reports whether err means the backend session is gone.
func IsAuth(err error) bool {
	return KindOf(err) == KindAuth
}

// Message returns the text to show the user for err.
func Message(err error) string {
	var be *Error
	if errors.As(err, &be) {
		if be.Kind == KindTransport {
			return "無法連線至伺服器：" + be.Error()
		}
		return be.Error()
	}
	return err.Error()
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
