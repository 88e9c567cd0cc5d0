package chip8

import (
	"encoding/binary"
	"time"
)

// State blob layout. Multi-byte fields are big-endian like the machine's
// in-memory stack. The instruction frequency is a machine setting, not
// machine state, and is deliberately not part of the snapshot.
const (
	statePC       = 0  // 2 bytes
	stateSP       = 2  // 2 bytes
	stateIndex    = 4  // 2 bytes
	stateDelay    = 6  // 1 byte
	stateSound    = 7  // 1 byte
	stateFlags    = 8  // 1 byte
	stateWaitReg  = 9  // 1 byte
	stateBudget   = 10 // 8 bytes, nanoseconds
	stateTimerAcc = 18 // 8 bytes, nanoseconds
	stateRegs     = 26 // 16 bytes
	stateMem      = 42 // MemorySize bytes
	stateScreen   = stateMem + MemorySize
	stateSize     = stateScreen + ScreenRows*8
)

// Flag bits within the stateFlags byte.
const (
	flagProgrammed = 1 << iota
	flagCrashed
	flagSounding
	flagKeyWait
)

// State is an opaque snapshot of the complete machine state. Its layout
// is fixed, so snapshots can be persisted verbatim and restored later,
// but callers must treat the contents as a unit.
type State [stateSize]byte

// State captures the machine state. Restoring the returned snapshot
// reproduces the machine bit for bit.
func (c *Chip8) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	var s State
	binary.BigEndian.PutUint16(s[statePC:], c.pc)
	binary.BigEndian.PutUint16(s[stateSP:], c.sp)
	binary.BigEndian.PutUint16(s[stateIndex:], c.index)
	s[stateDelay] = c.delayTimer
	s[stateSound] = c.soundTimer

	var flags byte
	if c.programmed {
		flags |= flagProgrammed
	}
	if c.crashed {
		flags |= flagCrashed
	}
	if c.sounding {
		flags |= flagSounding
	}
	if c.keyWait {
		flags |= flagKeyWait
	}
	s[stateFlags] = flags
	s[stateWaitReg] = c.waitReg

	binary.BigEndian.PutUint64(s[stateBudget:], uint64(c.budget))
	binary.BigEndian.PutUint64(s[stateTimerAcc:], uint64(c.timerAcc))
	copy(s[stateRegs:], c.regs[:])
	copy(s[stateMem:], c.mem[:])
	for i, row := range c.screen {
		binary.BigEndian.PutUint64(s[stateScreen+i*8:], row)
	}
	return s
}

// Restore replaces the machine state with a snapshot taken by State.
// The configured frequency and the attached capabilities are kept.
func (c *Chip8) Restore(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pc = binary.BigEndian.Uint16(s[statePC:])
	c.sp = binary.BigEndian.Uint16(s[stateSP:])
	c.index = binary.BigEndian.Uint16(s[stateIndex:])
	c.delayTimer = s[stateDelay]
	c.soundTimer = s[stateSound]

	flags := s[stateFlags]
	c.programmed = flags&flagProgrammed != 0
	c.crashed = flags&flagCrashed != 0
	c.sounding = flags&flagSounding != 0
	c.keyWait = flags&flagKeyWait != 0
	c.waitReg = s[stateWaitReg] & 0x0F

	c.budget = time.Duration(binary.BigEndian.Uint64(s[stateBudget:]))
	c.timerAcc = time.Duration(binary.BigEndian.Uint64(s[stateTimerAcc:]))
	copy(c.regs[:], s[stateRegs:])
	copy(c.mem[:], s[stateMem:])
	for i := range c.screen {
		c.screen[i] = binary.BigEndian.Uint64(s[stateScreen+i*8:])
	}
}
