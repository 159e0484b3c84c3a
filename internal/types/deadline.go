package types

import "time"

// Deadline is a wall-clock budget passed down through harvesting calls and
// checked at loop boundaries. A zero Deadline never expires.
type Deadline struct {
	at time.Time
}

// NewDeadline returns a deadline that expires after d. A non-positive d
// yields an unbounded deadline.
func NewDeadline(d time.Duration) Deadline {
	if d <= 0 {
		return Deadline{}
	}
	return Deadline{at: time.Now().Add(d)}
}

// Exceeded reports whether the budget has been spent.
func (d Deadline) Exceeded() bool {
	return !d.at.IsZero() && time.Now().After(d.at)
}

// Remaining returns the time left, or zero when expired or unbounded.
func (d Deadline) Remaining() time.Duration {
	if d.at.IsZero() {
		return 0
	}
	if r := time.Until(d.at); r > 0 {
		return r
	}
	return 0
}
