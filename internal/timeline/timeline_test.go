package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceStacksWithinWindow(t *testing.T) {
	// Three clips at 0ms, 400ms and 1500ms: the second stacks on the first,
	// the third starts a new beat.
	a := NewAllocator(0, 0)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a.Reset(start)

	p1 := a.Place(start)
	p2 := a.Place(start.Add(400 * time.Millisecond))
	p3 := a.Place(start.Add(1500 * time.Millisecond))

	assert.Equal(t, Placement{Track: 1, Offset: 0}, p1)
	assert.Equal(t, Placement{Track: 2, Offset: 400 * time.Millisecond}, p2)
	assert.Equal(t, Placement{Track: 1, Offset: 1500 * time.Millisecond}, p3)
}

func TestPlaceFirstClipAlwaysTrackOne(t *testing.T) {
	a := NewAllocator(0, 0)
	start := time.Now()
	a.Reset(start)

	// Even a clip landing immediately after the session opens, well inside
	// the stacking window of the start instant, begins on track 1.
	p := a.Place(start.Add(10 * time.Millisecond))
	assert.Equal(t, 1, p.Track)
}

func TestPlaceUnboundedGrowth(t *testing.T) {
	a := NewAllocator(0, 0)
	start := time.Now()
	a.Reset(start)

	for i := 0; i < 8; i++ {
		p := a.Place(start.Add(time.Duration(i) * 100 * time.Millisecond))
		assert.Equal(t, i+1, p.Track)
	}
}

func TestPlaceMaxTracksClamp(t *testing.T) {
	a := NewAllocator(0, 3)
	start := time.Now()
	a.Reset(start)

	var tracks []int
	for i := 0; i < 5; i++ {
		p := a.Place(start.Add(time.Duration(i) * 100 * time.Millisecond))
		tracks = append(tracks, p.Track)
	}
	assert.Equal(t, []int{1, 2, 3, 3, 3}, tracks)

	// A gap beyond the window still resets to 1.
	p := a.Place(start.Add(5 * time.Second))
	assert.Equal(t, 1, p.Track)
}

func TestPlaceOffsetsNeverDecrease(t *testing.T) {
	a := NewAllocator(0, 0)
	start := time.Now()
	a.Reset(start)

	a.Place(start.Add(time.Second))

	// A clock stepping backwards must not produce a rewinding offset.
	p := a.Place(start.Add(500 * time.Millisecond))
	assert.Equal(t, time.Second, p.Offset)
}

func TestResetClearsSessionState(t *testing.T) {
	a := NewAllocator(0, 0)
	start := time.Now()
	a.Reset(start)
	a.Place(start)
	a.Place(start.Add(100 * time.Millisecond))

	next := start.Add(time.Minute)
	a.Reset(next)
	p := a.Place(next.Add(50 * time.Millisecond))
	require.Equal(t, 1, p.Track)
	assert.Equal(t, 50*time.Millisecond, p.Offset)
}

func TestCommandFormat(t *testing.T) {
	cmd := Command("ok", Placement{Track: 1, Offset: 0})
	assert.Equal(t, `app.project.activeSequence.videoTracks[1].insertClip("ok.mp4", 0.000);`, cmd)

	cmd = Command("up_hold", Placement{Track: 2, Offset: 400 * time.Millisecond})
	assert.Equal(t, `app.project.activeSequence.videoTracks[2].insertClip("up_hold.mp4", 0.400);`, cmd)

	cmd = Command("left", Placement{Track: 12, Offset: 83*time.Second + 219*time.Millisecond})
	assert.Equal(t, `app.project.activeSequence.videoTracks[12].insertClip("left.mp4", 83.219);`, cmd)
}
