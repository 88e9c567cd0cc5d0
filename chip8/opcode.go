package chip8

// instruction identifies one executable operation after decoding.
type instruction uint8

const (
	opInvalid instruction = iota

	opSys // 0NNN: call native routine, accepted but ignored
	opClear
	opReturn
	opJump
	opCall
	opSkipEqImm
	opSkipNeImm
	opSkipEqReg
	opLoadImm
	opAddImm
	opMove
	opOr
	opAnd
	opXor
	opAddReg
	opSub
	opShiftRight
	opSubReverse
	opShiftLeft
	opSkipNeReg
	opLoadIndex
	opJumpOffset
	opRandom
	opDraw
	opSkipKey
	opSkipNoKey
	opReadDelay
	opWaitKey
	opSetDelay
	opSetSound
	opAddIndex
	opFontChar
	opStoreBCD
	opStoreRegs
	opLoadRegs
)

// decode resolves an instruction word to its operation. Resolution is
// tiered: the two zero-operand words match exactly, then the leading
// nibble selects either a complete instruction or a sub-switch on the
// trailing nibble (register pair forms) or the low byte (keyboard, timer
// and memory block forms). The second return is false if no instruction
// matches.
func decode(w word) (instruction, bool) {
	switch w.op() {
	case 0x0:
		switch {
		case w == 0x00E0:
			return opClear, true
		case w == 0x00EE:
			return opReturn, true
		case w.nnn() != 0:
			return opSys, true
		}
	case 0x1:
		return opJump, true
	case 0x2:
		return opCall, true
	case 0x3:
		return opSkipEqImm, true
	case 0x4:
		return opSkipNeImm, true
	case 0x5:
		if w.n() == 0x0 {
			return opSkipEqReg, true
		}
	case 0x6:
		return opLoadImm, true
	case 0x7:
		return opAddImm, true
	case 0x8:
		switch w.n() {
		case 0x0:
			return opMove, true
		case 0x1:
			return opOr, true
		case 0x2:
			return opAnd, true
		case 0x3:
			return opXor, true
		case 0x4:
			return opAddReg, true
		case 0x5:
			return opSub, true
		case 0x6:
			return opShiftRight, true
		case 0x7:
			return opSubReverse, true
		case 0xE:
			return opShiftLeft, true
		}
	case 0x9:
		if w.n() == 0x0 {
			return opSkipNeReg, true
		}
	case 0xA:
		return opLoadIndex, true
	case 0xB:
		return opJumpOffset, true
	case 0xC:
		return opRandom, true
	case 0xD:
		return opDraw, true
	case 0xE:
		switch w.nn() {
		case 0x9E:
			return opSkipKey, true
		case 0xA1:
			return opSkipNoKey, true
		}
	case 0xF:
		switch w.nn() {
		case 0x07:
			return opReadDelay, true
		case 0x0A:
			return opWaitKey, true
		case 0x15:
			return opSetDelay, true
		case 0x18:
			return opSetSound, true
		case 0x1E:
			return opAddIndex, true
		case 0x29:
			return opFontChar, true
		case 0x33:
			return opStoreBCD, true
		case 0x55:
			return opStoreRegs, true
		case 0x65:
			return opLoadRegs, true
		}
	}
	return opInvalid, false
}

// advancesPC reports whether the default increment applies after an
// instruction. Return, the jumps and call set PC themselves; the key wait
// defers its increment until KeyPressed delivers a key.
func advancesPC(op instruction) bool {
	switch op {
	case opReturn, opJump, opCall, opJumpOffset, opWaitKey:
		return false
	}
	return true
}
