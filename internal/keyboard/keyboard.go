// Package keyboard emulates the wireless media keyboard that accompanies the
// recorder: a connectable device that can press and release a single media
// key at a time.
//
// On Linux the emulator bridges to MPRIS media players over the session bus;
// other platforms get a disconnected stub. Every use by the session machine
// is fire-and-forget: a failed key press is at most a debug log.
package keyboard

// Key is a media key the emulator can press.
type Key string

const (
	KeyVolumeUp   Key = "volume_up"
	KeyVolumeDown Key = "volume_down"
	KeyPlayPause  Key = "play_pause"
	KeyNext       Key = "next"
	KeyPrevious   Key = "previous"
)

// Emulator is the wireless keyboard as seen by the rest of the daemon.
type Emulator interface {
	// Start brings the emulator up. Safe to call when already started.
	Start() error

	// Stop tears the emulator down.
	Stop() error

	// IsConnected reports whether a host is currently accepting key events.
	IsConnected() bool

	// PressAndRelease delivers one key press followed by its release.
	PressAndRelease(key Key) error
}

// New returns the platform emulator.
func New() Emulator {
	return newPlatformEmulator()
}

// Nop is an Emulator that accepts everything and connects to nothing. Used
// where no keyboard is wanted and as a test double.
type Nop struct {
	Connected bool
	Pressed   []Key
}

func (n *Nop) Start() error      { return nil }
func (n *Nop) Stop() error       { return nil }
func (n *Nop) IsConnected() bool { return n.Connected }

func (n *Nop) PressAndRelease(key Key) error {
	n.Pressed = append(n.Pressed, key)
	return nil
}
