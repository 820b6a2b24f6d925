// Package flow holds the multi-step wizards of the portal as explicit state
// machines: the unauthenticated password reset and the profile email check.
package flow

import (
	"fmt"
	"time"
)

// ResendInterval is how long a verification code send blocks the next one.
const ResendInterval = 60 * time.Second

// Cooldown blocks repeat sends until Until has passed. The zero value is idle.
type Cooldown struct {
	Until time.Time `json:"until,omitzero"`
}

// Remaining returns the time left before the next send is allowed.
// PRE: none
// POST: Returns 0 when idle or expired
func (c Cooldown) Remaining(now time.Time) time.Duration {
	if c.Until.IsZero() || !now.Before(c.Until) {
		return 0
	}
	return c.Until.Sub(now)
}

// Active reports whether sends are currently blocked.
func (c Cooldown) Active(now time.Time) bool {
	return c.Remaining(now) > 0
}

// Start blocks sends for ResendInterval from now.
func (c *Cooldown) Start(now time.Time) {
	c.Until = now.Add(ResendInterval)
}

// Seconds is the countdown shown next to the send button, rounded up.
func (c Cooldown) Seconds(now time.Time) int {
	r := c.Remaining(now)
	if r <= 0 {
		return 0
	}
	return int((r + time.Second - 1) / time.Second)
}

// CooldownError is returned when a send is attempted during the countdown.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	secs := int((e.Remaining + time.Second - 1) / time.Second)
	return fmt.Sprintf("請於 %d 秒後再重新寄送驗證碼", secs)
}
