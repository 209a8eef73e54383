// Package gesture turns raw button samples into press gestures.
package gesture

import (
	"fmt"
	"time"
)

type Kind int

const (
	PressStart Kind = iota
	HoldFeedback
	SleepTrigger
	Release
)

func (k Kind) String() string {
	switch k {
	case PressStart:
		return "press"
	case HoldFeedback:
		return "hold"
	case SleepTrigger:
		return "sleep"
	case Release:
		return "release"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is one classified gesture. Duration is only set for Release.
type Event struct {
	Kind     Kind
	Duration time.Duration
	At       time.Time
}

// Bucket is the meaning of a completed press.
type Bucket int

const (
	None Bucket = iota
	Quick
	Long
	Sleep
)

func (b Bucket) String() string {
	switch b {
	case Quick:
		return "quick"
	case Long:
		return "long"
	case Sleep:
		return "sleep"
	default:
		return "none"
	}
}

type Thresholds struct {
	Debounce time.Duration
	Quick    time.Duration
	Long     time.Duration
	// VeryLong <= 0 disables the sleep gesture.
	VeryLong time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Debounce: 50 * time.Millisecond,
		Quick:    500 * time.Millisecond,
		Long:     1000 * time.Millisecond,
		VeryLong: 3000 * time.Millisecond,
	}
}

// WithoutSleep returns a copy that never fires SleepTrigger and keeps
// reporting HoldFeedback for as long as the button is held.
func (t Thresholds) WithoutSleep() Thresholds {
	t.VeryLong = 0
	return t
}

// Classify maps a release duration to its bucket.
func (t Thresholds) Classify(d time.Duration) Bucket {
	switch {
	case d < t.Quick:
		return Quick
	case t.VeryLong > 0 && d >= t.VeryLong:
		return Sleep
	case d >= t.Long:
		return Long
	default:
		return None
	}
}

// Classifier debounces one active-low button and emits at most one
// event per Update. Not safe for concurrent use.
type Classifier struct {
	thresholds     Thresholds
	lastRaw        bool
	lastDebounce   time.Time
	pressed        bool
	pressStart     time.Time
	sleepTriggered bool
}

func NewClassifier(thresholds Thresholds) *Classifier {
	return &Classifier{thresholds: thresholds}
}

func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Pressed reports the debounced button state.
func (c *Classifier) Pressed() bool {
	return c.pressed
}

// HeldFor returns how long the current press lasts, zero if released.
func (c *Classifier) HeldFor(now time.Time) time.Duration {
	if !c.pressed {
		return 0
	}
	return now.Sub(c.pressStart)
}

// Reset forgets any press in progress and treats raw as the settled
// level from now on.
func (c *Classifier) Reset(raw bool, now time.Time) {
	c.lastRaw = raw
	c.lastDebounce = now
	c.pressed = raw
	c.pressStart = now
	c.sleepTriggered = raw
}

// Update feeds one raw sample (true = pressed) taken at now.
func (c *Classifier) Update(raw bool, now time.Time) (Event, bool) {
	defer func() { c.lastRaw = raw }()
	if raw != c.lastRaw {
		c.lastDebounce = now
	}
	if now.Sub(c.lastDebounce) <= c.thresholds.Debounce {
		return Event{}, false
	}

	switch {
	case raw && !c.pressed:
		c.pressed = true
		c.pressStart = now
		c.sleepTriggered = false
		return Event{Kind: PressStart, At: now}, true

	case raw && c.pressed:
		held := now.Sub(c.pressStart)
		if c.thresholds.VeryLong > 0 && held > c.thresholds.VeryLong {
			if c.sleepTriggered {
				return Event{}, false
			}
			c.sleepTriggered = true
			return Event{Kind: SleepTrigger, At: now}, true
		}
		if held > c.thresholds.Long {
			return Event{Kind: HoldFeedback, At: now}, true
		}

	case !raw && c.pressed:
		c.pressed = false
		held := now.Sub(c.pressStart)
		if held >= c.thresholds.Debounce && !c.sleepTriggered {
			return Event{Kind: Release, Duration: held, At: now}, true
		}
	}
	return Event{}, false
}
