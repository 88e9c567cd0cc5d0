package chip8

import (
	"encoding/binary"
	"time"
)

// Run executes as many instruction cycles as elapsed wall-clock time
// affords at the configured frequency. Time that does not fill a whole
// cycle is banked for the next call, so irregular call intervals still
// average out to the configured rate. The 60 Hz delay and sound timers
// advance on their own accumulator, decoupled from the instruction rate.
//
// A fatal error latches the machine as crashed and is returned; every
// later call returns ErrCrashed until a program is loaded again.
func (c *Chip8) Run(elapsed time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.crashed {
		return ErrCrashed
	}

	period := time.Second / time.Duration(c.freq)
	c.budget += elapsed
	for c.budget >= period {
		c.budget -= period
		if err := c.cycle(period); err != nil {
			c.crashed = true
			return err
		}
	}
	return nil
}

// cycle advances the timers by one instruction period and executes a
// single instruction. While a key wait is pending the cycle is consumed
// without a fetch. Callers hold mu.
func (c *Chip8) cycle(period time.Duration) error {
	c.tickTimers(period)

	if c.keyWait {
		c.updateSound()
		return nil
	}

	if c.pc < ProgramStart || c.pc > MemorySize-2 {
		return MemoryError{Addr: c.pc}
	}
	w := word(binary.BigEndian.Uint16(c.mem[c.pc:]))

	op, ok := decode(w)
	if !ok {
		return DecodeError{Addr: c.pc, Word: uint16(w)}
	}
	if err := c.execute(op, w); err != nil {
		return err
	}

	c.updateSound()

	if advancesPC(op) {
		c.pc += 2
	}
	return nil
}

// tickTimers moves the 60 Hz accumulator forward and decrements the
// delay and sound timers once per crossed tick, clamped at zero.
func (c *Chip8) tickTimers(period time.Duration) {
	c.timerAcc += period
	for c.timerAcc >= timerInterval {
		c.timerAcc -= timerInterval
		if c.delayTimer > 0 {
			c.delayTimer--
		}
		if c.soundTimer > 0 {
			c.soundTimer--
		}
	}
}

// updateSound fires the Sound capability on buzzer transitions. A sound
// timer of 1 stays silent: at 60 Hz it cannot produce an audible tone.
func (c *Chip8) updateSound() {
	switch {
	case c.sounding && c.soundTimer == 0:
		c.sounding = false
		c.sound.StopSound()
	case !c.sounding && c.soundTimer >= 2:
		c.sounding = true
		c.sound.StartSound()
	}
}

// execute runs a single decoded instruction. Handlers that can fail
// validate their full memory range before mutating anything, so a fatal
// error leaves no partial effects. Callers hold mu.
func (c *Chip8) execute(op instruction, w word) error {
	x, y := w.x(), w.y()

	switch op {
	case opSys: // no native routines to call

	case opClear: // 00E0
		c.screen = [ScreenRows]uint64{}
		c.display.DisplayChanged()

	case opReturn: // 00EE
		return c.ret()

	case opJump: // 1NNN
		c.pc = w.nnn()

	case opCall: // 2NNN
		return c.call(w.nnn())

	case opSkipEqImm: // 3XNN
		if c.regs[x] == w.nn() {
			c.pc += 2
		}

	case opSkipNeImm: // 4XNN
		if c.regs[x] != w.nn() {
			c.pc += 2
		}

	case opSkipEqReg: // 5XY0
		if c.regs[x] == c.regs[y] {
			c.pc += 2
		}

	case opLoadImm: // 6XNN
		c.regs[x] = w.nn()

	case opAddImm: // 7XNN, no carry flag
		c.regs[x] += w.nn()

	case opMove: // 8XY0
		c.regs[x] = c.regs[y]

	case opOr: // 8XY1, clears VF like the original interpreter
		c.regs[x] |= c.regs[y]
		c.regs[0xF] = 0

	case opAnd: // 8XY2
		c.regs[x] &= c.regs[y]
		c.regs[0xF] = 0

	case opXor: // 8XY3
		c.regs[x] ^= c.regs[y]
		c.regs[0xF] = 0

	case opAddReg: // 8XY4
		sum := uint16(c.regs[x]) + uint16(c.regs[y])
		c.regs[x] = byte(sum)
		c.regs[0xF] = byte(sum >> 8)

	case opSub: // 8XY5, VF = 1 when no borrow
		borrow := byte(1)
		if c.regs[y] > c.regs[x] {
			borrow = 0
		}
		c.regs[x] -= c.regs[y]
		c.regs[0xF] = borrow

	case opShiftRight: // 8XY6, shifts Vy, Vy unchanged
		src := c.regs[y]
		c.regs[x] = src >> 1
		c.regs[0xF] = src & 0x01

	case opSubReverse: // 8XY7, VF = 1 when no borrow
		borrow := byte(1)
		if c.regs[x] > c.regs[y] {
			borrow = 0
		}
		c.regs[x] = c.regs[y] - c.regs[x]
		c.regs[0xF] = borrow

	case opShiftLeft: // 8XYE, shifts Vy, Vy unchanged
		src := c.regs[y]
		c.regs[x] = src << 1
		c.regs[0xF] = src >> 7

	case opSkipNeReg: // 9XY0
		if c.regs[x] != c.regs[y] {
			c.pc += 2
		}

	case opLoadIndex: // ANNN
		c.index = w.nnn()

	case opJumpOffset: // BNNN
		c.pc = uint16(c.regs[0]) + w.nnn()

	case opRandom: // CXNN
		c.regs[x] = c.randByte() & w.nn()

	case opDraw: // DXYN
		return c.draw(w)

	case opSkipKey: // EX9E
		if c.testKey(c.regs[x]) {
			c.pc += 2
		}

	case opSkipNoKey: // EXA1
		if !c.testKey(c.regs[x]) {
			c.pc += 2
		}

	case opReadDelay: // FX07
		c.regs[x] = c.delayTimer

	case opWaitKey: // FX0A, resolved later by KeyPressed
		c.keyWait = true
		c.waitReg = x

	case opSetDelay: // FX15
		c.delayTimer = c.regs[x]

	case opSetSound: // FX18
		c.soundTimer = c.regs[x]

	case opAddIndex: // FX1E, 16-bit wrap, no flag
		c.index += uint16(c.regs[x])

	case opFontChar: // FX29
		c.index = fontOffset + uint16(c.regs[x])*glyphHeight

	case opStoreBCD: // FX33
		return c.storeBCD(x)

	case opStoreRegs: // FX55
		return c.storeRegisters(x)

	case opLoadRegs: // FX65
		return c.loadRegisters(x)
	}
	return nil
}

// testKey consults the Keyboard capability. Register values above the
// pad are never pressed; the capability only ever sees valid keys.
func (c *Chip8) testKey(key byte) bool {
	return key < NumKeys && c.keyboard.IsPressed(key)
}

// ret pops the return address pushed by the matching call.
func (c *Chip8) ret() error {
	if c.sp < 2 {
		return ErrStackUnderflow
	}
	c.sp -= 2
	c.pc = binary.BigEndian.Uint16(c.mem[c.sp:])
	return nil
}

// call pushes the address of the following instruction onto the
// in-memory stack and jumps to addr.
func (c *Chip8) call(addr uint16) error {
	if c.sp+2 > stackSize {
		return ErrStackOverflow
	}
	binary.BigEndian.PutUint16(c.mem[c.sp:], c.pc+2)
	c.sp += 2
	c.pc = addr
	return nil
}

// draw XOR-blits up to w.n() sprite rows from memory at I onto the
// screen. The anchor wraps around both screen edges; rows and columns
// running past the bottom or right edge are clipped. VF reports whether
// any lit pixel was turned off.
func (c *Chip8) draw(w word) error {
	x := int(c.regs[w.x()]) % ScreenCols
	y := int(c.regs[w.y()]) % ScreenRows
	rows := int(w.n())
	if y+rows > ScreenRows {
		rows = ScreenRows - y
	}
	if err := c.checkRange(c.index, rows); err != nil {
		return err
	}

	c.regs[0xF] = 0
	for r := 0; r < rows; r++ {
		line := uint64(c.mem[int(c.index)+r])
		var mask uint64
		if shift := 56 - x; shift >= 0 {
			mask = line << shift
		} else {
			mask = line >> -shift
		}
		if c.screen[y+r]&mask != 0 {
			c.regs[0xF] = 1
		}
		c.screen[y+r] ^= mask
	}
	c.display.DisplayChanged()
	return nil
}

// storeBCD writes the decimal digits of Vx to memory at I, I+1 and I+2
// using the double-dabble shift-and-adjust conversion.
func (c *Chip8) storeBCD(x byte) error {
	if err := c.checkRange(c.index, 3); err != nil {
		return err
	}

	scratch := uint32(c.regs[x])
	for i := 0; i < 7; i++ {
		scratch <<= 1
		if scratch&0xF0000 > 0x40000 {
			scratch += 0x30000
		}
		if scratch&0xF000 > 0x4000 {
			scratch += 0x3000
		}
		if scratch&0xF00 > 0x400 {
			scratch += 0x300
		}
	}
	scratch <<= 1

	c.mem[c.index] = byte(scratch >> 16 & 0xF)
	c.mem[c.index+1] = byte(scratch >> 12 & 0xF)
	c.mem[c.index+2] = byte(scratch >> 8 & 0xF)
	return nil
}

// storeRegisters copies V0..Vx to memory at I and advances I past the
// written range.
func (c *Chip8) storeRegisters(x byte) error {
	n := int(x) + 1
	if err := c.checkRange(c.index, n); err != nil {
		return err
	}
	copy(c.mem[c.index:], c.regs[:n])
	c.index += uint16(n)
	return nil
}

// loadRegisters copies memory at I into V0..Vx and advances I past the
// read range.
func (c *Chip8) loadRegisters(x byte) error {
	n := int(x) + 1
	if err := c.checkRange(c.index, n); err != nil {
		return err
	}
	lo := int(c.index)
	copy(c.regs[:n], c.mem[lo:lo+n])
	c.index += uint16(n)
	return nil
}

// checkRange validates an access of length bytes starting at start
// before any handler mutates state.
func (c *Chip8) checkRange(start uint16, length int) error {
	if length == 0 {
		return nil
	}
	if int(start)+length <= MemorySize {
		return nil
	}
	addr := start
	if int(addr) < MemorySize {
		addr = MemorySize
	}
	return MemoryError{Addr: addr}
}
