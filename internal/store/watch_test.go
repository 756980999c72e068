package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchReportsMutations(t *testing.T) {
	s := openTestStore(t)

	w, err := s.Watch()
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, s.Append("/clip1.txt", "x"))

	select {
	case <-w.Changes():
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification after append")
	}

	// Back-to-back mutations coalesce but a later one is still reported.
	s.Remove("/clip1.txt")
	select {
	case <-w.Changes():
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification after remove")
	}
}
