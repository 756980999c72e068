// Package session owns the recording session lifecycle.
//
// A session is the bounded interval during which classified remote events
// are logged as timeline commands into one clip-log file. The lifecycle is
// an explicit state machine driven by the daemon's event loop; every prompt
// is a state with a single await point, never a nested blocking read:
//
//	Idle -> AwaitingName -> Active -> AwaitingSaveDecision
//	     -> AwaitingPostSaveMenu -> Idle
//
// Exactly one session exists at a time.
package session

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"cliplogd/internal/keyboard"
	"cliplogd/internal/logging"
	"cliplogd/internal/prefs"
	"cliplogd/internal/remote"
	"cliplogd/internal/store"
	"cliplogd/internal/timeline"
)

// State identifies a position in the session lifecycle.
type State int

const (
	// StateIdle: no session, not prompting.
	StateIdle State = iota
	// StateAwaitingName: prompted, waiting for a session name.
	StateAwaitingName
	// StateActive: logging classified events.
	StateActive
	// StateAwaitingSaveDecision: session ended, waiting for save/discard.
	StateAwaitingSaveDecision
	// StateAwaitingPostSaveMenu: bounded window for returning to the menu.
	StateAwaitingPostSaveMenu
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingName:
		return "awaiting-name"
	case StateActive:
		return "active"
	case StateAwaitingSaveDecision:
		return "awaiting-save-decision"
	case StateAwaitingPostSaveMenu:
		return "awaiting-post-save-menu"
	default:
		return "unknown"
	}
}

// Outcome tells the daemon loop where control goes after an input.
type Outcome int

const (
	// OutcomeContinue keeps the recorder as the active mode.
	OutcomeContinue Outcome = iota
	// OutcomeMenu returns control to the mode selector.
	OutcomeMenu
)

// The escape word recognized by every prompt.
const escapeWord = "menu"

// FileSuffix is appended to every session file name.
const FileSuffix = ".txt"

// Config holds the state machine's variant selections.
type Config struct {
	// Naming is "prompt" or "counter".
	Naming string

	// EndCommand is the console word ending an active session. Empty
	// disables the textual terminator.
	EndCommand string

	// TerminatorCode is a reserved remote code ending the session. Zero
	// disables the button terminator.
	TerminatorCode uint32

	// SaveGrace is the post-save window for returning to the menu.
	SaveGrace time.Duration

	// SessionKey is sent to the keyboard emulator at session start and
	// end, when the emulator reports itself connected.
	SessionKey keyboard.Key
}

// Session is the active recording session.
type Session struct {
	ID    string
	Path  string
	Start time.Time
}

// Recorder is the session state machine. All methods run on the daemon's
// single logical thread.
type Recorder struct {
	out       io.Writer
	store     *store.Store
	prefs     *prefs.Store
	keyboard  keyboard.Emulator
	decoder   remote.Decoder
	classify  *remote.Classifier
	allocator *timeline.Allocator
	clock     func() time.Time
	cfg       Config
	log       *logging.Logger

	state      State
	session    *Session
	graceUntil time.Time
}

// NewRecorder wires a recorder. decoder and kb may be nil; clock nil selects
// time.Now.
func NewRecorder(out io.Writer, st *store.Store, pf *prefs.Store, kb keyboard.Emulator,
	dec remote.Decoder, cl *remote.Classifier, al *timeline.Allocator,
	clock func() time.Time, cfg Config) *Recorder {

	if clock == nil {
		clock = time.Now
	}
	if cfg.SaveGrace <= 0 {
		cfg.SaveGrace = 3 * time.Second
	}
	return &Recorder{
		out:       out,
		store:     st,
		prefs:     pf,
		keyboard:  kb,
		decoder:   dec,
		classify:  cl,
		allocator: al,
		clock:     clock,
		cfg:       cfg,
		log:       logging.Default().WithComponent("session"),
		state:     StateIdle,
	}
}

// State returns the current lifecycle state.
func (r *Recorder) State() State { return r.state }

// Active reports whether a session is currently logging.
func (r *Recorder) Active() bool { return r.state == StateActive }

// Session returns the active session, or nil.
func (r *Recorder) Session() *Session { return r.session }

// Deadline returns the instant at which Tick must be called, when the
// machine is inside its bounded post-save window.
func (r *Recorder) Deadline() (time.Time, bool) {
	if r.state == StateAwaitingPostSaveMenu {
		return r.graceUntil, true
	}
	return time.Time{}, false
}

// Enter is called when the mode selector hands control to the recorder.
// With no session in flight it prompts for a name, or in counter mode
// starts the next numbered session immediately.
func (r *Recorder) Enter() {
	if r.state != StateIdle {
		return
	}
	if r.cfg.Naming == "counter" {
		r.startCounterSession()
		return
	}
	r.promptName()
}

func (r *Recorder) promptName() {
	fmt.Fprintln(r.out, "Enter file name for new session (or type 'menu' to return to menu):")
	r.state = StateAwaitingName
}

// HandleLine consumes one trimmed console line.
func (r *Recorder) HandleLine(line string) Outcome {
	line = strings.TrimSpace(line)

	switch r.state {
	case StateIdle:
		// Not prompting; the mode selector owns this input.
		return OutcomeContinue

	case StateAwaitingName:
		return r.handleName(line)

	case StateActive:
		if r.cfg.EndCommand != "" && strings.EqualFold(line, r.cfg.EndCommand) {
			r.endSession()
		}
		return OutcomeContinue

	case StateAwaitingSaveDecision:
		return r.handleSaveDecision(line)

	case StateAwaitingPostSaveMenu:
		if strings.EqualFold(line, escapeWord) {
			r.state = StateIdle
			return OutcomeMenu
		}
		// Everything else is ignored inside the grace window.
		return OutcomeContinue
	}
	return OutcomeContinue
}

func (r *Recorder) handleName(name string) Outcome {
	if strings.EqualFold(name, escapeWord) {
		r.state = StateIdle
		return OutcomeMenu
	}
	if name == "" {
		fmt.Fprintln(r.out, "Invalid session name.")
		r.promptName()
		return OutcomeContinue
	}
	r.startSession(store.Normalize(name) + FileSuffix)
	return OutcomeContinue
}

func (r *Recorder) startCounterSession() {
	base := r.prefs.GetString(prefs.KeyLogBase, prefs.DefaultLogBase)
	n, err := r.prefs.NextCounter(prefs.KeyCounter)
	if err != nil {
		fmt.Fprintf(r.out, "Failed to advance session counter: %v\n", err)
		r.state = StateIdle
		return
	}
	r.startSession(store.Normalize(fmt.Sprintf("%s%d", base, n)) + FileSuffix)
}

func (r *Recorder) startSession(path string) {
	now := r.clock()
	r.session = &Session{
		ID:    uuid.NewString(),
		Path:  path,
		Start: now,
	}
	r.allocator.Reset(now)
	r.state = StateActive

	// Stray presses buffered while naming must not become clips.
	if r.decoder != nil {
		remote.Drain(r.decoder)
	}

	fmt.Fprintln(r.out, "Session started: "+path)
	r.log.Info("session started", "id", r.session.ID, "path", path)
	r.notifyKeyboard()
}

// HandleRaw consumes one decoded remote event.
func (r *Recorder) HandleRaw(raw remote.RawEvent) {
	if r.state != StateActive {
		return
	}
	if r.cfg.TerminatorCode != 0 && raw.Code == r.cfg.TerminatorCode {
		r.endSession()
		return
	}

	ev, ok := r.classify.Classify(raw, r.clock())
	if !ok {
		return
	}
	r.logClip(ev)
}

func (r *Recorder) logClip(ev remote.ButtonEvent) {
	placement := r.allocator.Place(ev.At)
	command := timeline.Command(ev.Name, placement)

	fmt.Fprintln(r.out, command)
	if err := r.store.Append(r.session.Path, command); err != nil {
		// The in-memory track state has already advanced; the next clip
		// continues from it regardless.
		fmt.Fprintln(r.out, "Failed to open file for writing: "+r.session.Path)
		r.log.Warn("append failed", "id", r.session.ID, "path", r.session.Path, "error", err)
	}
}

func (r *Recorder) endSession() {
	fmt.Fprintln(r.out, "Session ended: "+r.session.Path)
	r.log.Info("session ended", "id", r.session.ID, "path", r.session.Path)
	r.notifyKeyboard()

	fmt.Fprintln(r.out, "Do you want to save the recorded file? (y/n) or type 'menu' to return to main menu")
	r.state = StateAwaitingSaveDecision
}

func (r *Recorder) handleSaveDecision(line string) Outcome {
	switch {
	case strings.EqualFold(line, "y"):
		fmt.Fprintln(r.out, "File saved.")

	case strings.EqualFold(line, escapeWord):
		r.deleteSessionFile()
		r.session = nil
		r.state = StateIdle
		return OutcomeMenu

	default:
		// Anything but an explicit yes discards the file.
		r.deleteSessionFile()
	}

	r.session = nil
	r.state = StateAwaitingPostSaveMenu
	r.graceUntil = r.clock().Add(r.cfg.SaveGrace)
	fmt.Fprintln(r.out, "Type 'menu' to return to main menu, or press Enter to start a new session.")
	return OutcomeContinue
}

func (r *Recorder) deleteSessionFile() {
	if r.store.Remove(r.session.Path) {
		fmt.Fprintln(r.out, "File deleted.")
	} else {
		fmt.Fprintln(r.out, "Error deleting file.")
	}
}

// Tick advances the machine past its bounded waits. The daemon loop calls it
// when the Deadline instant passes; early calls are no-ops.
func (r *Recorder) Tick(now time.Time) {
	if r.state != StateAwaitingPostSaveMenu || now.Before(r.graceUntil) {
		return
	}
	r.state = StateIdle
	r.Enter()
}

// notifyKeyboard sends the configured session key if a host is connected.
// Fire-and-forget: failures are silent beyond a debug log.
func (r *Recorder) notifyKeyboard() {
	if r.keyboard == nil || r.cfg.SessionKey == "" || !r.keyboard.IsConnected() {
		return
	}
	if err := r.keyboard.PressAndRelease(r.cfg.SessionKey); err != nil {
		r.log.Debug("session key press failed", "key", string(r.cfg.SessionKey), "error", err)
	}
}
