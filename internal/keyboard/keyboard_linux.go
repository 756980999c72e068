//go:build linux

package keyboard

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	mprisPrefix     = "org.mpris.MediaPlayer2."
	mprisObjectPath = "/org/mpris/MediaPlayer2"
	playerInterface = "org.mpris.MediaPlayer2.Player"

	// volumeStep is the fraction of full volume one key press moves.
	volumeStep = 0.05
)

var errNotStarted = errors.New("keyboard: not started")

// mprisEmulator delivers media keys to the first MPRIS player found on the
// session bus. "Connected" means such a player is currently registered.
type mprisEmulator struct {
	mu   sync.Mutex
	conn *dbus.Conn
}

func newPlatformEmulator() Emulator {
	return &mprisEmulator{}
}

func (e *mprisEmulator) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.conn != nil {
		return nil
	}
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("keyboard: session bus: %w", err)
	}
	e.conn = conn
	return nil
}

func (e *mprisEmulator) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.conn == nil {
		return nil
	}
	err := e.conn.Close()
	e.conn = nil
	return err
}

func (e *mprisEmulator) IsConnected() bool {
	_, err := e.findPlayer()
	return err == nil
}

func (e *mprisEmulator) PressAndRelease(key Key) error {
	name, err := e.findPlayer()
	if err != nil {
		return err
	}

	e.mu.Lock()
	conn := e.conn
	e.mu.Unlock()
	if conn == nil {
		return errNotStarted
	}
	player := conn.Object(name, mprisObjectPath)

	switch key {
	case KeyPlayPause:
		return player.Call(playerInterface+".PlayPause", 0).Err
	case KeyNext:
		return player.Call(playerInterface+".Next", 0).Err
	case KeyPrevious:
		return player.Call(playerInterface+".Previous", 0).Err
	case KeyVolumeUp:
		return e.nudgeVolume(player, volumeStep)
	case KeyVolumeDown:
		return e.nudgeVolume(player, -volumeStep)
	default:
		return fmt.Errorf("keyboard: unknown key %q", key)
	}
}

func (e *mprisEmulator) nudgeVolume(player dbus.BusObject, delta float64) error {
	variant, err := player.GetProperty(playerInterface + ".Volume")
	if err != nil {
		return fmt.Errorf("keyboard: read volume: %w", err)
	}
	volume, ok := variant.Value().(float64)
	if !ok {
		return fmt.Errorf("keyboard: unexpected volume type %T", variant.Value())
	}

	volume += delta
	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}

	if err := player.SetProperty(playerInterface+".Volume", dbus.MakeVariant(volume)); err != nil {
		return fmt.Errorf("keyboard: set volume: %w", err)
	}
	return nil
}

// findPlayer returns the bus name of the first registered MPRIS player.
func (e *mprisEmulator) findPlayer() (string, error) {
	e.mu.Lock()
	conn := e.conn
	e.mu.Unlock()
	if conn == nil {
		return "", errNotStarted
	}

	var names []string
	err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names)
	if err != nil {
		return "", fmt.Errorf("keyboard: list bus names: %w", err)
	}
	for _, name := range names {
		if strings.HasPrefix(name, mprisPrefix) {
			return name, nil
		}
	}
	return "", errors.New("keyboard: no media player connected")
}
