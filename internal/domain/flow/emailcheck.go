package flow

import (
	"errors"
	"strings"
	"time"
)

// ErrEmailRequired is returned when a code is requested for an empty email.
var ErrEmailRequired = errors.New("請輸入電子信箱")

// EmailCheck tracks whether the email on the profile form has been proven.
// Baseline is the last email the backend confirmed.
// INVARIANT: Verified implies the last observed email equals Baseline
type EmailCheck struct {
	Baseline string   `json:"baseline"`
	Verified bool     `json:"verified"`
	SentTo   string   `json:"sentTo,omitempty"`
	Cooldown Cooldown `json:"cooldown"`
}

// NewEmailCheck starts tracking from the stored profile.
func NewEmailCheck(email string, confirmed bool) EmailCheck {
	return EmailCheck{Baseline: normalizeEmail(email), Verified: confirmed && email != ""}
}

// Observe applies the current form value. Any value other than Baseline
// clears Verified; returning to Baseline afterwards does not restore it.
// PRE: none
// POST: Verified is false if email != Baseline
func (e *EmailCheck) Observe(email string) {
	if normalizeEmail(email) != e.Baseline {
		e.Verified = false
	}
}

// CanSubmit reports whether the profile may be saved with email.
func (e EmailCheck) CanSubmit(email string) bool {
	return e.Verified && normalizeEmail(email) == e.Baseline
}

// CheckSend reports whether a code may be sent to email now.
// PRE: none
// POST: Returns *CooldownError while the countdown runs
func (e EmailCheck) CheckSend(email string, now time.Time) error {
	if normalizeEmail(email) == "" {
		return ErrEmailRequired
	}
	if rem := e.Cooldown.Remaining(now); rem > 0 {
		return &CooldownError{Remaining: rem}
	}
	return nil
}

// CodeSent records a successful send and starts the countdown.
func (e *EmailCheck) CodeSent(email string, now time.Time) {
	e.SentTo = normalizeEmail(email)
	e.Cooldown.Start(now)
}

// CodeVerified marks email as the confirmed baseline.
// PRE: the backend accepted the code for email
// POST: Baseline == email and Verified is true
func (e *EmailCheck) CodeVerified(email string) {
	e.Baseline = normalizeEmail(email)
	e.Verified = true
	e.SentTo = ""
}

func normalizeEmail(s string) string {
	return strings.TrimSpace(s)
}
