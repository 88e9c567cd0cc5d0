package chip8

import (
	"math/rand"
	"sync"
	"time"
)

// Memory layout of the 4 KB address space:
//
//	0x000-0x01F: call stack, 16 return addresses of 2 bytes each
//	0x020-0x06F: built-in hex font, 16 glyphs of 5 bytes each
//	0x200-0xFFF: program region (3584 bytes)
//
// The screen buffer and registers live outside the address space.
const (
	// MemorySize is the size of the address space in bytes.
	MemorySize = 4096

	// ProgramStart is the address where programs are loaded and begin
	// execution.
	ProgramStart = 0x200

	// MaxProgramSize is the largest program LoadProgram accepts.
	MaxProgramSize = MemorySize - ProgramStart

	// ScreenRows and ScreenCols are the dimensions of the monochrome
	// screen. Each row is one uint64 with the most significant bit as
	// the leftmost pixel.
	ScreenRows = 32
	ScreenCols = 64

	// NumKeys is the size of the hex key pad.
	NumKeys = 16

	// DefaultFrequency is the instruction rate in Hz used when Options
	// does not name one.
	DefaultFrequency = 600

	fontOffset  = 0x020
	glyphHeight = 5

	// stackSize bounds the in-memory call stack; it ends where the font
	// begins.
	stackSize = fontOffset

	// timerInterval is the period of the delay and sound timers.
	timerInterval = time.Second / 60
)

// Options configures a machine. The zero value is usable: no keyboard
// (no key ever pressed), discarded display and sound notifications, and
// DefaultFrequency.
type Options struct {
	Keyboard  Keyboard
	Display   Display
	Sound     Sound
	Frequency uint16
}

// Chip8 is a CHIP-8 machine. All exported methods are safe for
// concurrent use; each takes the machine's single lock for its full
// duration.
type Chip8 struct {
	mu sync.Mutex

	mem    [MemorySize]byte
	regs   [16]byte
	screen [ScreenRows]uint64

	pc    uint16
	sp    uint16
	index uint16

	delayTimer byte
	soundTimer byte

	programmed bool
	crashed    bool
	sounding   bool

	keyWait bool
	waitReg byte

	freq     uint16
	budget   time.Duration
	timerAcc time.Duration

	keyboard Keyboard
	display  Display
	sound    Sound

	randByte func() byte
}

// New returns a machine with no program loaded. Running it before
// LoadProgram fails on the first fetched word.
func New(opts Options) *Chip8 {
	c := &Chip8{
		keyboard: opts.Keyboard,
		display:  opts.Display,
		sound:    opts.Sound,
		freq:     opts.Frequency,
	}
	if c.keyboard == nil {
		c.keyboard = nopKeyboard{}
	}
	if c.display == nil {
		c.display = nopDisplay{}
	}
	if c.sound == nil {
		c.sound = nopSound{}
	}
	if c.freq == 0 {
		c.freq = DefaultFrequency
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	c.randByte = func() byte { return byte(rng.Intn(256)) }

	c.reset()
	return c
}

// LoadProgram resets the machine and installs program at ProgramStart.
// A program larger than MaxProgramSize is rejected with a
// ProgramSizeError and the machine keeps its previous state, including a
// latched crash.
func (c *Chip8) LoadProgram(program []byte) error {
	if len(program) > MaxProgramSize {
		return ProgramSizeError{Size: len(program)}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset()
	copy(c.mem[ProgramStart:], program)
	c.programmed = true
	return nil
}

// reset returns every piece of machine state to its post-load value,
// with no program installed and programmed unset. Callers hold mu.
func (c *Chip8) reset() {
	c.mem = [MemorySize]byte{}
	c.regs = [16]byte{}
	c.screen = [ScreenRows]uint64{}
	c.pc = ProgramStart
	c.sp = 0
	c.index = 0
	c.delayTimer = 0
	c.soundTimer = 0
	c.programmed = false
	c.crashed = false
	c.sounding = false
	c.keyWait = false
	c.waitReg = 0
	c.budget = 0
	c.timerAcc = 0
	copy(c.mem[fontOffset:], fontData[:])
}

// KeyPressed delivers a key-down event. If the machine is awaiting a key
// it stores the key into the register recorded by the awaiting
// instruction and completes that instruction's deferred PC advance;
// otherwise the event only validates the key. Keys above 15 fail with a
// KeyError.
func (c *Chip8) KeyPressed(key byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if key >= NumKeys {
		return KeyError{Key: key}
	}
	if !c.keyWait {
		return nil
	}

	c.regs[c.waitReg] = key
	c.keyWait = false
	c.pc += 2
	return nil
}

// KeyReleased delivers a key-up event. The machine tracks no per-key
// state of its own (IsPressed queries the Keyboard capability), so a
// release only validates the key.
func (c *Chip8) KeyReleased(key byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if key >= NumKeys {
		return KeyError{Key: key}
	}
	return nil
}

// Frequency returns the instruction rate in Hz.
func (c *Chip8) Frequency() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.freq
}

// SetFrequency changes the instruction rate in Hz. Zero is ignored.
func (c *Chip8) SetFrequency(hz uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hz == 0 {
		return
	}
	c.freq = hz
}

// Crashed reports whether a fatal error has latched the machine.
func (c *Chip8) Crashed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.crashed
}

// Programmed reports whether a program has been loaded.
func (c *Chip8) Programmed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.programmed
}

// Sounding reports whether the buzzer is currently on.
func (c *Chip8) Sounding() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sounding
}

// Screen returns a copy of the screen buffer for rendering. Each row's
// most significant bit is the leftmost pixel.
func (c *Chip8) Screen() [ScreenRows]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screen
}
