package flow

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Step is a password reset wizard state.
type Step string

// Reset steps, in order.
const (
	StepEnterPhone Step = "enter-phone"
	StepCodeSent   Step = "code-sent"
	StepVerified   Step = "verified"
	StepDone       Step = "done"
)

// Event drives a Reset transition.
type Event string

// Reset events
const (
	EventCodeSent     Event = "code-sent"
	EventCodeVerified Event = "code-verified"
	EventPasswordSet  Event = "password-set"
	EventRestart      Event = "restart"
)

// Domain errors
var (
	ErrIllegalTransition = errors.New("illegal reset transition")
	ErrPhoneRequired     = errors.New("請輸入手機號碼")
	ErrCodeRequired      = errors.New("請輸入驗證碼")
	ErrTokenMissing      = errors.New("驗證已失效，請重新驗證")
)

// resetTransitions is the complete transition table. Pairs not listed are illegal.
var resetTransitions = map[Step]map[Event]Step{
	StepEnterPhone: {
		EventCodeSent: StepCodeSent,
	},
	StepCodeSent: {
		EventCodeSent:     StepCodeSent,
		EventCodeVerified: StepVerified,
		EventRestart:      StepEnterPhone,
	},
	StepVerified: {
		EventPasswordSet: StepDone,
		EventRestart:     StepEnterPhone,
	},
	StepDone: {
		EventRestart: StepEnterPhone,
	},
}

// Reset is the unauthenticated password reset wizard:
// enter-phone -> code-sent -> verified -> done.
// INVARIANT: Token is non-empty only in StepVerified
type Reset struct {
	Step     Step     `json:"step,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Token    string   `json:"token,omitempty"`
	Cooldown Cooldown `json:"cooldown"`
}

// Current returns the step, treating the zero value as StepEnterPhone.
func (r Reset) Current() Step {
	if r.Step == "" {
		return StepEnterPhone
	}
	return r.Step
}

// Next returns the step reached by ev, or ErrIllegalTransition.
// PRE: none
// POST: r is not modified
func (r Reset) Next(ev Event) (Step, error) {
	from := r.Current()
	to, ok := resetTransitions[from][ev]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, ev, from)
	}
	return to, nil
}

// CheckSend reports whether a code may be sent now. A blocked send must not
// reach the backend.
// PRE: none
// POST: Returns *CooldownError while the countdown runs, ErrIllegalTransition
// once the code has been verified
func (r Reset) CheckSend(now time.Time) error {
	if _, err := r.Next(EventCodeSent); err != nil {
		return err
	}
	if rem := r.Cooldown.Remaining(now); rem > 0 {
		return &CooldownError{Remaining: rem}
	}
	return nil
}

// CodeSent records a successful send and starts the countdown.
// PRE: CheckSend(now) returned nil and the backend accepted the send
// POST: Step is StepCodeSent, Phone is set, Cooldown runs until now+60s
func (r *Reset) CodeSent(phone string, now time.Time) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ErrPhoneRequired
	}
	to, err := r.Next(EventCodeSent)
	if err != nil {
		return err
	}
	r.Step = to
	r.Phone = phone
	r.Cooldown.Start(now)
	return nil
}

// CodeVerified stores the server-minted token.
// PRE: the backend accepted the code and returned token
// POST: Step is StepVerified and Token is exactly token
func (r *Reset) CodeVerified(token string) error {
	if token == "" {
		return ErrTokenMissing
	}
	to, err := r.Next(EventCodeVerified)
	if err != nil {
		return err
	}
	r.Step = to
	r.Token = token
	return nil
}

// PasswordSet finishes the flow and forgets the token.
// PRE: Step is StepVerified
// POST: Step is StepDone, Token is cleared
func (r *Reset) PasswordSet() error {
	to, err := r.Next(EventPasswordSet)
	if err != nil {
		return err
	}
	r.Step = to
	r.Token = ""
	return nil
}

// Restart returns to the phone entry step. The countdown is kept so a
// restart cannot be used to bypass it.
func (r *Reset) Restart() {
	cd := r.Cooldown
	*r = Reset{Step: StepEnterPhone, Cooldown: cd}
}
