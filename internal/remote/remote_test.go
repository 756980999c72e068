package remote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestClassifyUnmappedCodeDropped(t *testing.T) {
	c := NewClassifier(DefaultKeymap(), 0)
	now := time.Now()

	_, ok := c.Classify(RawEvent{Code: 99}, now)
	assert.False(t, ok)

	// Dropped codes must not disturb repeat detection for real buttons.
	ev, ok := c.Classify(RawEvent{Code: 21}, now)
	require.True(t, ok)
	assert.Equal(t, "up", ev.Name)
	assert.False(t, ev.Hold)
}

func TestClassifyMapsDefaultTable(t *testing.T) {
	tests := []struct {
		code uint32
		name string
	}{
		{25, "ok"},
		{24, "right"},
		{22, "down"},
		{23, "left"},
		{21, "up"},
		{71, "home"},
		{16, "settings"},
		{72, "back"},
		{50, "tv"},
	}

	for _, tt := range tests {
		c := NewClassifier(DefaultKeymap(), 0)
		ev, ok := c.Classify(RawEvent{Code: tt.code}, time.Now())
		require.True(t, ok, "code %d", tt.code)
		assert.Equal(t, tt.name, ev.Name)
	}
}

func TestClassifyTimingRepeatBecomesHold(t *testing.T) {
	c := NewClassifier(DefaultKeymap(), 0)
	t0 := time.Now()

	ev, ok := c.Classify(RawEvent{Code: 21}, t0)
	require.True(t, ok)
	assert.Equal(t, "up", ev.Name)

	ev, ok = c.Classify(RawEvent{Code: 21}, t0.Add(300*time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, "up_hold", ev.Name)
	assert.True(t, ev.Hold)
}

func TestClassifyHoldSuppressedExactlyOnce(t *testing.T) {
	// A hardware-flagged stream of N repeats yields one hold and N-1
	// nothing, regardless of N.
	const n = 20

	c := NewClassifier(DefaultKeymap(), 0)
	t0 := time.Now()

	_, ok := c.Classify(RawEvent{Code: 25, Repeat: boolPtr(false)}, t0)
	require.True(t, ok)

	holds := 0
	suppressed := 0
	for i := 1; i <= n; i++ {
		at := t0.Add(time.Duration(i) * 100 * time.Millisecond)
		ev, ok := c.Classify(RawEvent{Code: 25, Repeat: boolPtr(true)}, at)
		if !ok {
			suppressed++
			continue
		}
		holds++
		assert.Equal(t, "ok_hold", ev.Name)
	}

	assert.Equal(t, 1, holds)
	assert.Equal(t, n-1, suppressed)
}

func TestClassifyThresholdLapseResetsHold(t *testing.T) {
	c := NewClassifier(DefaultKeymap(), 0)
	t0 := time.Now()

	_, ok := c.Classify(RawEvent{Code: 21}, t0)
	require.True(t, ok)

	ev, ok := c.Classify(RawEvent{Code: 21}, t0.Add(200*time.Millisecond))
	require.True(t, ok)
	require.Equal(t, "up_hold", ev.Name)

	// Within the threshold of the hold: still suppressed.
	_, ok = c.Classify(RawEvent{Code: 21}, t0.Add(500*time.Millisecond))
	assert.False(t, ok)

	// Past the threshold the same button is a fresh press again.
	ev, ok = c.Classify(RawEvent{Code: 21}, t0.Add(1500*time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, "up", ev.Name)
	assert.False(t, ev.Hold)
}

func TestClassifyDifferentButtonResetsHold(t *testing.T) {
	c := NewClassifier(DefaultKeymap(), 0)
	t0 := time.Now()

	_, ok := c.Classify(RawEvent{Code: 21}, t0)
	require.True(t, ok)
	_, ok = c.Classify(RawEvent{Code: 21}, t0.Add(100*time.Millisecond))
	require.True(t, ok) // up_hold

	ev, ok := c.Classify(RawEvent{Code: 22}, t0.Add(200*time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, "down", ev.Name)

	// And the new button can begin its own hold.
	ev, ok = c.Classify(RawEvent{Code: 22}, t0.Add(300*time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, "down_hold", ev.Name)
}

func TestClassifyHardwareFlagTrusted(t *testing.T) {
	c := NewClassifier(DefaultKeymap(), 0)
	t0 := time.Now()

	_, ok := c.Classify(RawEvent{Code: 21, Repeat: boolPtr(false)}, t0)
	require.True(t, ok)

	// A hardware non-repeat inside the timing window stays a fresh press.
	ev, ok := c.Classify(RawEvent{Code: 21, Repeat: boolPtr(false)}, t0.Add(100*time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, "up", ev.Name)

	// A hardware repeat outside the timing window still holds.
	ev, ok = c.Classify(RawEvent{Code: 21, Repeat: boolPtr(true)}, t0.Add(5*time.Second))
	require.True(t, ok)
	assert.Equal(t, "up_hold", ev.Name)
}
