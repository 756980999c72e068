// Package timeline allocates logged clips to video-editing timeline tracks
// and formats the scripting commands that insert them.
//
// Allocation is purely temporal: a clip landing within the stacking window
// of the previous clip goes one track higher, so near-simultaneous clips
// stack instead of colliding; a longer gap starts a new beat back on track 1.
package timeline

import (
	"fmt"
	"time"
)

// DefaultStackWindow is the gap below which consecutive clips stack on
// successive tracks.
const DefaultStackWindow = 1000 * time.Millisecond

// Placement is the allocation result for one clip: the track it lands on and
// its offset from the session start.
type Placement struct {
	Track  int
	Offset time.Duration
}

// Allocator assigns tracks within one recording session. Reset starts a new
// session clock; Place consumes wall-clock instants in arrival order. Not
// safe for concurrent use.
type Allocator struct {
	stackWindow time.Duration
	maxTracks   int

	start    time.Time
	lastClip time.Duration
	track    int
	placed   bool
}

// NewAllocator creates an allocator. A zero window selects
// DefaultStackWindow. maxTracks clamps track growth during rapid bursts;
// zero means unbounded, matching the original device behavior.
func NewAllocator(stackWindow time.Duration, maxTracks int) *Allocator {
	if stackWindow <= 0 {
		stackWindow = DefaultStackWindow
	}
	return &Allocator{stackWindow: stackWindow, maxTracks: maxTracks}
}

// Reset starts a new session at the given instant. The first clip of every
// session lands on track 1 at its true offset.
func (a *Allocator) Reset(start time.Time) {
	a.start = start
	a.lastClip = 0
	a.track = 1
	a.placed = false
}

// Place allocates the clip occurring at now. The track index increments when
// the gap since the previous clip is inside the stacking window and resets
// to 1 otherwise; it is always >= 1. The recorded last-clip time never
// decreases within a session.
func (a *Allocator) Place(now time.Time) Placement {
	clip := now.Sub(a.start)
	if clip < a.lastClip {
		clip = a.lastClip
	}

	switch {
	case !a.placed:
		// First clip of the session always opens the beat on track 1; the
		// window only compares against a previous clip.
		a.track = 1
	case clip-a.lastClip < a.stackWindow:
		a.track++
		if a.maxTracks > 0 && a.track > a.maxTracks {
			a.track = a.maxTracks
		}
	default:
		a.track = 1
	}

	a.placed = true
	a.lastClip = clip
	return Placement{Track: a.track, Offset: clip}
}

// Command formats the timeline instruction for a logged button. The offset
// is rendered in fractional seconds with millisecond precision, matching the
// editing tool's scripting API.
func Command(button string, p Placement) string {
	return fmt.Sprintf("app.project.activeSequence.videoTracks[%d].insertClip(%q, %.3f);",
		p.Track, button+".mp4", p.Offset.Seconds())
}
