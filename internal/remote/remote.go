// Package remote classifies decoded infrared remote events.
//
// The decoder delivers raw numeric command codes. This package maps them
// through a fixed keymap to semantic button names and performs press/hold
// classification:
//   - The first detected repeat of a press is delivered once as "<name>_hold".
//   - Every further repeat of the same hold is suppressed until a different
//     button arrives or the repeat threshold lapses.
//
// Repeat detection trusts the hardware repeat flag when the decoder provides
// one; otherwise it falls back to same-button-within-threshold timing.
package remote

import (
	"time"
)

// DefaultHoldThreshold is the timing-based repeat window used when the
// decoder does not report a hardware repeat flag.
const DefaultHoldThreshold = 700 * time.Millisecond

// HoldSuffix is appended to a button name when a press turns into a hold.
const HoldSuffix = "_hold"

// Button is a semantic button name from the fixed keymap.
type Button string

// The closed set of buttons known to the default keymap.
const (
	ButtonOK       Button = "ok"
	ButtonUp       Button = "up"
	ButtonDown     Button = "down"
	ButtonLeft     Button = "left"
	ButtonRight    Button = "right"
	ButtonHome     Button = "home"
	ButtonSettings Button = "settings"
	ButtonBack     Button = "back"
	ButtonTV       Button = "tv"
)

// RawEvent is a decoded infrared command as delivered by the decoder.
// Repeat is the hardware repeat flag; nil means the decoder cannot tell and
// the classifier falls back to timing.
type RawEvent struct {
	Code   uint32
	Repeat *bool
}

// ButtonEvent is a classified press or hold. It is produced and consumed
// within one classification step and never persisted.
type ButtonEvent struct {
	Name string
	Hold bool
	At   time.Time
}

// Classifier turns raw decoder events into button events. It carries the
// last-button state used for timing-based repeat detection and hold
// suppression. Not safe for concurrent use; the daemon loop is the only
// caller.
type Classifier struct {
	keymap        Keymap
	holdThreshold time.Duration

	lastButton Button
	lastAt     time.Time
	holdLogged bool
}

// NewClassifier creates a classifier over the given keymap. A zero threshold
// selects DefaultHoldThreshold.
func NewClassifier(km Keymap, holdThreshold time.Duration) *Classifier {
	if holdThreshold <= 0 {
		holdThreshold = DefaultHoldThreshold
	}
	return &Classifier{keymap: km, holdThreshold: holdThreshold}
}

// Classify maps a raw event to a button event. The second return is false
// when the event produces nothing: an unmapped code, or a suppressed repeat
// of an already-delivered hold.
func (c *Classifier) Classify(raw RawEvent, now time.Time) (ButtonEvent, bool) {
	button, ok := c.keymap.Lookup(raw.Code)
	if !ok {
		// Unmapped codes are dropped without touching state.
		return ButtonEvent{}, false
	}

	var isRepeat bool
	if raw.Repeat != nil {
		isRepeat = *raw.Repeat
	} else {
		isRepeat = button == c.lastButton && now.Sub(c.lastAt) < c.holdThreshold
	}

	name := string(button)
	hold := false
	if isRepeat {
		if c.holdLogged {
			return ButtonEvent{}, false
		}
		name += HoldSuffix
		hold = true
		c.holdLogged = true
	} else {
		c.holdLogged = false
	}

	c.lastButton = button
	c.lastAt = now
	return ButtonEvent{Name: name, Hold: hold, At: now}, true
}
