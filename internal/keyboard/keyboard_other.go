//go:build !linux

package keyboard

import "errors"

// No media-key bridge is wired on this platform; the emulator reports
// disconnected and drops key presses.
type stubEmulator struct{}

func newPlatformEmulator() Emulator {
	return stubEmulator{}
}

func (stubEmulator) Start() error      { return nil }
func (stubEmulator) Stop() error       { return nil }
func (stubEmulator) IsConnected() bool { return false }

func (stubEmulator) PressAndRelease(Key) error {
	return errors.New("keyboard: not supported on this platform")
}
