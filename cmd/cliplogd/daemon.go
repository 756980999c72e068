package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cliplogd/internal/console"
	"cliplogd/internal/keyboard"
	"cliplogd/internal/logging"
	"cliplogd/internal/prefs"
	"cliplogd/internal/remote"
	"cliplogd/internal/session"
	"cliplogd/internal/store"
)

// mode is the operating mode selected by the operator. Exactly one mode is
// active at a time, process-wide.
type mode int

const (
	modeMenu mode = iota
	modeRecording
	modeFiles
	modePairing
)

// pollInterval paces decoder polling and bounded-wait expiry checks.
const pollInterval = 10 * time.Millisecond

// daemon composes the recorder, the file manager, and the pairing handler
// behind one mode selector. All state is touched from Run's single
// goroutine; the console reader and the store watcher only feed channels.
type daemon struct {
	store       *store.Store
	prefs       *prefs.Store
	keyboard    keyboard.Emulator
	decoder     remote.Decoder
	newRecorder func(out io.Writer) *session.Recorder
	watcher     *store.Watcher
	log         *logging.Logger

	mode            mode
	recorder        *session.Recorder
	pairingReported bool
}

// Run drives the mode selector and the active mode's handler over one
// console stream until the stream ends or ctx is cancelled.
func (d *daemon) Run(ctx context.Context, rw io.ReadWriter) error {
	lines := readLines(rw)
	fm := console.NewFileManager(rw, d.store, d.prefs)
	d.recorder = d.newRecorder(rw)

	var changes <-chan struct{}
	if d.watcher != nil {
		changes = d.watcher.Changes()
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	d.mode = modeMenu
	d.printMenu(rw)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			d.handleLine(rw, fm, line)

		case <-changes:
			fm.MarkStale()

		case <-ticker.C:
			d.pollDecoder()
			if deadline, ok := d.recorder.Deadline(); ok && !time.Now().Before(deadline) {
				d.recorder.Tick(time.Now())
			}
			d.pollPairing(rw)
		}
	}
}

// handleLine routes one console line to the active mode.
func (d *daemon) handleLine(w io.Writer, fm *console.FileManager, line string) {
	switch d.mode {
	case modeMenu:
		d.selectMode(w, fm, line)

	case modeRecording:
		if d.recorder.HandleLine(line) == session.OutcomeMenu {
			d.toMenu(w)
		}

	case modeFiles:
		if fm.Handle(line) {
			d.toMenu(w)
		}

	case modePairing:
		if strings.EqualFold(strings.TrimSpace(line), "menu") {
			if err := d.keyboard.Stop(); err != nil {
				d.log.Debug("keyboard stop failed", "error", err)
			}
			d.toMenu(w)
		}
	}
}

// selectMode interprets a menu reply. Only the first byte counts; the rest
// of the line is discarded so trailing input is not misread as a command.
func (d *daemon) selectMode(w io.Writer, fm *console.FileManager, line string) {
	line = strings.TrimSpace(line)
	choice := byte(0)
	if line != "" {
		choice = line[0]
	}

	switch choice {
	case '1':
		fmt.Fprintln(w, "IR Recording Mode selected.")
		d.mode = modeRecording
		d.recorder.Enter()
	case '2':
		fmt.Fprintln(w, "File Management Mode selected.")
		d.mode = modeFiles
		fm.Enter()
	case '3':
		fmt.Fprintln(w, "Keyboard Pairing Mode selected.")
		d.mode = modePairing
		d.enterPairing(w)
	default:
		fmt.Fprintln(w, "Invalid selection. Defaulting to IR Recording Mode.")
		d.mode = modeRecording
		d.recorder.Enter()
	}
}

func (d *daemon) toMenu(w io.Writer) {
	d.mode = modeMenu
	d.printMenu(w)
}

func (d *daemon) printMenu(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "========== MENU ==========")
	fmt.Fprintln(w, "Select Mode:")
	fmt.Fprintln(w, "1 - IR Recording Mode (record remote presses)")
	fmt.Fprintln(w, "2 - File Management Mode")
	fmt.Fprintln(w, "3 - Keyboard Pairing Mode")
	fmt.Fprintln(w, "Enter your choice:")
}

func (d *daemon) enterPairing(w io.Writer) {
	d.pairingReported = false
	if err := d.keyboard.Start(); err != nil {
		fmt.Fprintf(w, "Failed to start keyboard emulator: %v\n", err)
		return
	}
	fmt.Fprintln(w, "Keyboard emulator started. Waiting for a host to connect...")
	fmt.Fprintln(w, "Type 'menu' to return to main menu.")
}

// pollPairing reports a new connection once and persists the pairing flag.
func (d *daemon) pollPairing(w io.Writer) {
	if d.mode != modePairing || d.pairingReported {
		return
	}
	if !d.keyboard.IsConnected() {
		return
	}
	d.pairingReported = true
	fmt.Fprintln(w, "Media keyboard connected.")
	if err := d.prefs.PutBool(prefs.KeyPaired, true); err != nil {
		d.log.Warn("persist pairing flag failed", "error", err)
	}
}

// pollDecoder drains every decoded event currently available, in arrival
// order. Events outside recording mode are consumed and dropped.
func (d *daemon) pollDecoder() {
	if d.decoder == nil {
		return
	}
	for {
		raw, ok := d.decoder.Poll()
		if !ok {
			return
		}
		if d.mode == modeRecording {
			d.recorder.HandleRaw(raw)
		}
		d.decoder.Resume()
	}
}

// readLines feeds console lines into a channel so the event loop keeps a
// single suspension point.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}
