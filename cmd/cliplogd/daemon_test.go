package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cliplogd/internal/keyboard"
	"cliplogd/internal/logging"
	"cliplogd/internal/prefs"
	"cliplogd/internal/remote"
	"cliplogd/internal/session"
	"cliplogd/internal/store"
	"cliplogd/internal/timeline"
)

// syncBuffer collects daemon output while the event loop is still writing.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// chanDecoder feeds hand-crafted events through the decoder interface.
type chanDecoder struct {
	events chan remote.RawEvent
}

func newChanDecoder() *chanDecoder {
	return &chanDecoder{events: make(chan remote.RawEvent, 16)}
}

func (d *chanDecoder) Push(ev remote.RawEvent) { d.events <- ev }

func (d *chanDecoder) Poll() (remote.RawEvent, bool) {
	select {
	case ev := <-d.events:
		return ev, true
	default:
		return remote.RawEvent{}, false
	}
}

func (d *chanDecoder) Resume() {}

type daemonFixture struct {
	d     *daemon
	st    *store.Store
	dec   *chanDecoder
	out   *syncBuffer
	input *io.PipeWriter
	done  chan error
}

func startDaemonFixture(t *testing.T) *daemonFixture {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "clips"))
	require.NoError(t, err)

	pf, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { pf.Close() })

	dec := newChanDecoder()
	kb := &keyboard.Nop{}

	newRecorder := func(out io.Writer) *session.Recorder {
		return session.NewRecorder(out, st, pf, kb, dec,
			remote.NewClassifier(remote.DefaultKeymap(), 0),
			timeline.NewAllocator(0, 0),
			nil, session.Config{EndCommand: "end"})
	}

	d := &daemon{
		store:       st,
		prefs:       pf,
		keyboard:    kb,
		decoder:     dec,
		newRecorder: newRecorder,
		log:         logging.Default(),
	}

	pr, pw := io.Pipe()
	out := &syncBuffer{}
	done := make(chan error, 1)

	go func() {
		done <- d.Run(context.Background(), struct {
			io.Reader
			io.Writer
		}{pr, out})
	}()

	f := &daemonFixture{d: d, st: st, dec: dec, out: out, input: pw, done: done}
	t.Cleanup(func() {
		pw.Close()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	})
	return f
}

func (f *daemonFixture) send(t *testing.T, line string) {
	t.Helper()
	_, err := io.WriteString(f.input, line+"\n")
	require.NoError(t, err)
}

func (f *daemonFixture) await(t *testing.T, fragment string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(f.out.String(), fragment)
	}, 2*time.Second, 5*time.Millisecond, "waiting for %q in output", fragment)
}

func TestDaemonRecordingLifecycle(t *testing.T) {
	f := startDaemonFixture(t)
	f.await(t, "Enter your choice:")

	f.send(t, "1")
	f.await(t, "IR Recording Mode selected.")
	f.await(t, "Enter file name for new session")

	f.send(t, "clip1")
	f.await(t, "Session started: /clip1.txt")

	f.dec.Push(remote.RawEvent{Code: 25})
	f.await(t, `insertClip("ok.mp4"`)

	f.send(t, "end")
	f.await(t, "Do you want to save the recorded file?")

	f.send(t, "y")
	f.await(t, "File saved.")

	f.send(t, "menu")
	f.await(t, "Select Mode:")

	data, err := f.st.ReadAll("/clip1.txt")
	require.NoError(t, err)
	assert.Contains(t, string(data), `videoTracks[1].insertClip("ok.mp4"`)
}

func TestDaemonFileMode(t *testing.T) {
	f := startDaemonFixture(t)
	require.NoError(t, f.st.Append("/clip1.txt", "x"))
	f.await(t, "Enter your choice:")

	f.send(t, "2")
	f.await(t, "File Management Mode selected.")
	f.await(t, "[1] /clip1.txt")

	f.send(t, "delete 1")
	f.await(t, "Deleted file: /clip1.txt")

	f.send(t, "menu")
	f.await(t, "Select Mode:")
	assert.False(t, f.st.Exists("/clip1.txt"))
}

func TestDaemonInvalidSelectionDefaultsToRecording(t *testing.T) {
	f := startDaemonFixture(t)
	f.await(t, "Enter your choice:")

	f.send(t, "bogus")
	f.await(t, "Invalid selection. Defaulting to IR Recording Mode.")
	f.await(t, "Enter file name for new session")
}

func TestDaemonEventsDroppedOutsideRecording(t *testing.T) {
	f := startDaemonFixture(t)
	f.await(t, "Enter your choice:")

	// Presses while the menu is up are consumed silently.
	f.dec.Push(remote.RawEvent{Code: 25})
	time.Sleep(50 * time.Millisecond)

	paths, err := f.st.Enumerate()
	require.NoError(t, err)
	assert.Empty(t, paths)

	_, ok := f.dec.Poll()
	assert.False(t, ok, "event should have been drained by the loop")
}

func TestDaemonRunStopsOnContextCancel(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "clips"))
	require.NoError(t, err)
	pf, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	defer pf.Close()

	d := &daemon{
		store:    st,
		prefs:    pf,
		keyboard: &keyboard.Nop{},
		newRecorder: func(out io.Writer) *session.Recorder {
			return session.NewRecorder(out, st, pf, nil, nil,
				remote.NewClassifier(remote.DefaultKeymap(), 0),
				timeline.NewAllocator(0, 0),
				nil, session.Config{EndCommand: "end"})
		},
		log: logging.Default(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	pr, _ := io.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- d.Run(ctx, struct {
			io.Reader
			io.Writer
		}{pr, &syncBuffer{}})
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
