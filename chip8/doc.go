// Package chip8 implements the CHIP-8 virtual machine: a 4 KB address
// space with a built-in hex font, sixteen 8-bit registers, a 64x32
// monochrome screen, two 60 Hz countdown timers and a 35-instruction set.
//
// The machine is purely reactive. It owns no goroutine and no clock;
// callers drive it by passing elapsed wall-clock time to Run, which
// converts the time into instruction cycles at the configured frequency
// and into 60 Hz timer pulses. Keyboard events arrive through KeyPressed
// and KeyReleased, which may be called from a different goroutine than
// Run: every public operation takes the machine's single lock.
//
// Display output, sound on/off and keyboard state are consumed through
// the narrow Keyboard, Display and Sound interfaces supplied at
// construction. The full machine state can be captured and restored as
// an opaque State snapshot.
package chip8
