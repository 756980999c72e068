// Package console implements the operator console's file-management
// protocol: line-oriented commands for listing, deleting, and transferring
// stored clip logs, and for changing the persisted log-file base.
package console

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"cliplogd/internal/prefs"
	"cliplogd/internal/store"
)

// EnumerationCap bounds how many files one listing holds for indexed
// operations, mirroring the original device's in-memory file table.
const EnumerationCap = 50

// Transfer framing markers. A receiver reconstructs a file as the raw bytes
// between the start marker line and the newline preceding the end marker.
const (
	FileTransferStart    = "START_FILE_TRANSFER:"
	FileTransferEnd      = "END_FILE_TRANSFER"
	AllFileTransferStart = "START_ALL_FILE_TRANSFER"
	AllFileTransferEnd   = "END_ALL_FILE_TRANSFER"
)

// FileManager dispatches file-management console commands. Indexed commands
// (delete <n>, send <n>) resolve against the most recent enumeration; the
// enumeration goes stale on outside mutations and must be refreshed with
// list before indices are honored again.
type FileManager struct {
	out   io.Writer
	store *store.Store
	prefs *prefs.Store

	files []string

	// dirty records a pending change notification. Whether the listing is
	// actually stale is settled by verifyListing on the next indexed
	// command: notifications coalesce, so one can cover both our own
	// mutations and an outside change and cannot be attributed by count.
	dirty bool
}

// NewFileManager creates a file manager writing operator output to out.
func NewFileManager(out io.Writer, st *store.Store, pf *prefs.Store) *FileManager {
	return &FileManager{out: out, store: st, prefs: pf}
}

// Enter announces the mode: current base, usage, and an immediate listing.
func (fm *FileManager) Enter() {
	fmt.Fprintln(fm.out, "Current log file base is: "+fm.prefs.GetString(prefs.KeyLogBase, prefs.DefaultLogBase))
	fmt.Fprintln(fm.out, "Available commands:")
	fmt.Fprintln(fm.out, "  list, delete, delete <num>, send <num>, send all, setbase <new_base>, menu")
	fmt.Fprintln(fm.out, "Type 'menu' to return to main menu.")
	fm.list()
}

// MarkStale records that stored files changed. The change is only a
// suspicion until verified: it may be the echo of this manager's own
// mutations, which re-listed before handing out new indices.
func (fm *FileManager) MarkStale() {
	fm.dirty = true
}

// Handle dispatches one trimmed console line. It returns true when the
// operator asked to leave file management.
func (fm *FileManager) Handle(line string) (done bool) {
	command := strings.TrimSpace(line)

	switch {
	case command == "menu":
		return true

	case strings.HasPrefix(command, "setbase "):
		fm.setBase(strings.TrimSpace(strings.TrimPrefix(command, "setbase ")))

	case command == "delete":
		fm.deleteAll()

	case strings.HasPrefix(command, "delete "):
		fm.deleteOne(strings.TrimSpace(strings.TrimPrefix(command, "delete ")))

	case command == "list":
		fm.list()

	case strings.HasPrefix(command, "send "):
		argument := strings.TrimSpace(strings.TrimPrefix(command, "send "))
		if argument == "all" {
			fm.sendAll()
		} else {
			fm.sendOne(argument)
		}

	default:
		fm.usage()
	}
	return false
}

func (fm *FileManager) list() {
	paths, err := fm.store.Enumerate()
	if err != nil {
		fmt.Fprintf(fm.out, "Failed to list files: %v\n", err)
		return
	}
	if len(paths) > EnumerationCap {
		paths = paths[:EnumerationCap]
	}

	fm.files = paths
	fm.dirty = false

	for i, p := range paths {
		fmt.Fprintf(fm.out, "[%d] %s\n", i+1, p)
	}
	if len(paths) == 0 {
		fmt.Fprintln(fm.out, "No files found.")
	}
}

func (fm *FileManager) deleteAll() {
	if err := fm.store.RemoveAll(); err != nil {
		fmt.Fprintf(fm.out, "Failed to delete all files: %v\n", err)
	} else {
		fmt.Fprintln(fm.out, "All files deleted.")
	}
	fm.files = nil
}

func (fm *FileManager) deleteOne(argument string) {
	path, ok := fm.resolveIndex(argument)
	if !ok {
		return
	}

	if fm.store.Remove(path) {
		fmt.Fprintln(fm.out, "Deleted file: "+path)
	} else {
		fmt.Fprintln(fm.out, "Failed to delete file: "+path)
	}
	fm.list()
}

func (fm *FileManager) sendOne(argument string) {
	path, ok := fm.resolveIndex(argument)
	if !ok {
		return
	}
	fm.sendFile(path)
}

func (fm *FileManager) sendAll() {
	if !fm.verifyListing() {
		fmt.Fprintln(fm.out, "Stored files changed on disk. Run 'list' to refresh.")
		return
	}
	if len(fm.files) == 0 {
		fmt.Fprintln(fm.out, "No files to send.")
		return
	}
	fmt.Fprintln(fm.out, AllFileTransferStart)
	for _, path := range fm.files {
		fm.sendFile(path)
	}
	fmt.Fprintln(fm.out, AllFileTransferEnd)
}

// sendFile frames one file. The file is opened before any marker goes out,
// so an open failure never leaves an unterminated frame on the stream.
func (fm *FileManager) sendFile(path string) {
	f, err := fm.store.Reader(path)
	if err != nil {
		fmt.Fprintf(fm.out, "Failed to open file for reading: %v\n", err)
		return
	}
	defer f.Close()

	fmt.Fprintln(fm.out, "Sending: "+path)
	fmt.Fprintln(fm.out, FileTransferStart+path)
	if _, err := io.Copy(fm.out, f); err != nil {
		fmt.Fprintf(fm.out, "Failed to read file: %v\n", err)
	}
	fmt.Fprintln(fm.out, "\n"+FileTransferEnd)
}

func (fm *FileManager) setBase(newBase string) {
	if newBase == "" {
		fmt.Fprintln(fm.out, "Invalid base name.")
		return
	}
	if err := fm.prefs.PutString(prefs.KeyLogBase, newBase); err != nil {
		fmt.Fprintf(fm.out, "Failed to store new base: %v\n", err)
		return
	}
	fmt.Fprintln(fm.out, "Log file base changed to: "+newBase)
}

// verifyListing settles a pending change notification: it re-enumerates and
// compares against the listing indices were handed out for. Notifications
// raised by this manager's own mutations resolve as current, because those
// operations re-list before indices are reused; a genuine outside change
// leaves the listing mismatched and stale.
func (fm *FileManager) verifyListing() bool {
	if !fm.dirty {
		return true
	}

	paths, err := fm.store.Enumerate()
	if err != nil {
		return false
	}
	if len(paths) > EnumerationCap {
		paths = paths[:EnumerationCap]
	}
	if !slices.Equal(paths, fm.files) {
		return false
	}
	fm.dirty = false
	return true
}

// resolveIndex turns a 1-based index argument into a path from the current
// enumeration. Bad input reports and returns ok=false.
func (fm *FileManager) resolveIndex(argument string) (string, bool) {
	if !fm.verifyListing() {
		fmt.Fprintln(fm.out, "Stored files changed on disk. Run 'list' to refresh.")
		return "", false
	}

	index, err := strconv.Atoi(argument)
	if err != nil {
		index = 0
	}
	if index < 1 || index > len(fm.files) {
		fmt.Fprintln(fm.out, "Invalid file number.")
		return "", false
	}
	return fm.files[index-1], true
}

func (fm *FileManager) usage() {
	fmt.Fprintln(fm.out, "Unknown command. Available commands:")
	fmt.Fprintln(fm.out, "  list                 - List all stored files with numbers")
	fmt.Fprintln(fm.out, "  delete               - Delete all stored files")
	fmt.Fprintln(fm.out, "  delete <num>         - Delete a specific file by number")
	fmt.Fprintln(fm.out, "  send <num>           - Send a specific file over the console by number")
	fmt.Fprintln(fm.out, "  send all             - Send all files over the console")
	fmt.Fprintln(fm.out, "  setbase <new_base>   - Change the log file base")
	fmt.Fprintln(fm.out, "  menu                 - Return to the main menu")
}
