package orchestrators

import "errors"

// ValidationError is returned when input is rejected before any backend
// request is issued. The wrapped error carries the user-facing text.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

// IsValidation reports whether err was raised by input validation.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ConfirmationError asks the caller to show Title and Text and resubmit with
// the confirmation flag set. No request has been sent.
type ConfirmationError struct {
	Title string
	Text  string
}

func (e *ConfirmationError) Error() string { return e.Title }

// Shared validation errors
var (
	ErrIDRequired       = errors.New("缺少編號")
	ErrPasswordRequired = errors.New("請填寫所有欄位")
	ErrNotConfirmed     = errors.New("請確認後再執行")
)
