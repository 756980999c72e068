package prefs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringRoundTrip(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, DefaultLogBase, s.GetString(KeyLogBase, DefaultLogBase))

	require.NoError(t, s.PutString(KeyLogBase, "/demo"))
	assert.Equal(t, "/demo", s.GetString(KeyLogBase, DefaultLogBase))

	require.NoError(t, s.PutString(KeyLogBase, "/other"))
	assert.Equal(t, "/other", s.GetString(KeyLogBase, DefaultLogBase))
}

func TestEmptyValueFallsBack(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.PutString(KeyLogBase, ""))
	assert.Equal(t, DefaultLogBase, s.GetString(KeyLogBase, DefaultLogBase))
}

func TestBoolRoundTrip(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	defer s.Close()

	assert.False(t, s.GetBool(KeyPaired, false))
	assert.True(t, s.GetBool(KeyPaired, true))

	require.NoError(t, s.PutBool(KeyPaired, true))
	assert.True(t, s.GetBool(KeyPaired, false))

	// Garbage in the row falls back to the default.
	require.NoError(t, s.PutString(KeyPaired, "maybe"))
	assert.False(t, s.GetBool(KeyPaired, false))
}

func TestValuesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.PutString(KeyLogBase, "/demo"))
	require.NoError(t, s.PutBool(KeyPaired, true))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "/demo", s.GetString(KeyLogBase, DefaultLogBase))
	assert.True(t, s.GetBool(KeyPaired, false))
}

func TestNextCounter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")

	s, err := Open(path)
	require.NoError(t, err)

	for want := 1; want <= 3; want++ {
		n, err := s.NextCounter(KeyCounter)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
	require.NoError(t, s.Close())

	// The counter continues across restarts.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.NextCounter(KeyCounter)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
