package chip8

// The machine consumes its environment through three narrow capabilities.
// All of them are called while the machine lock is held; implementations
// must return quickly and must not call back into the machine.

// Keyboard supplies the live state of the 16-key hex pad.
type Keyboard interface {
	// IsPressed reports whether key (0-15) is currently held down.
	IsPressed(key byte) bool
}

// Display is notified once after every instruction that changed the
// screen buffer.
type Display interface {
	DisplayChanged()
}

// Sound is told when the buzzer turns on and off. Notifications fire on
// transitions only, never repeatedly.
type Sound interface {
	StartSound()
	StopSound()
}

type nopKeyboard struct{}

func (nopKeyboard) IsPressed(byte) bool { return false }

type nopDisplay struct{}

func (nopDisplay) DisplayChanged() {}

type nopSound struct{}

func (nopSound) StartSound() {}
func (nopSound) StopSound()  {}
