package chip8

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

// exec executes a single pre-decoded instruction against the machine.
func exec(t *testing.T, c *Chip8, w word) {
	t.Helper()
	op, ok := decode(w)
	assert.True(t, ok, "word $%04X does not decode", uint16(w))
	assert.NoError(t, c.execute(op, w))
}

func TestExecute_RegisterOps(t *testing.T) {
	tests := []struct {
		name string
		w    word
		pre  map[byte]byte
		want map[byte]byte
	}{
		{"load imm", 0x6512, nil, map[byte]byte{0x5: 0x12}},
		{"add imm", 0x7510, map[byte]byte{0x5: 0x05}, map[byte]byte{0x5: 0x15}},
		{"add imm wraps without flag", 0x75FF,
			map[byte]byte{0x5: 0x02, 0xF: 0x09},
			map[byte]byte{0x5: 0x01, 0xF: 0x09}},
		{"move", 0x8120, map[byte]byte{0x2: 0xAB}, map[byte]byte{0x1: 0xAB, 0x2: 0xAB}},
		{"or clears flag", 0x8121,
			map[byte]byte{0x1: 0xF0, 0x2: 0x0F, 0xF: 0x05},
			map[byte]byte{0x1: 0xFF, 0xF: 0x00}},
		{"and clears flag", 0x8122,
			map[byte]byte{0x1: 0xF6, 0x2: 0x1F, 0xF: 0x05},
			map[byte]byte{0x1: 0x16, 0xF: 0x00}},
		{"xor clears flag", 0x8123,
			map[byte]byte{0x1: 0xFF, 0x2: 0x0F, 0xF: 0x05},
			map[byte]byte{0x1: 0xF0, 0xF: 0x00}},
		{"add reg with carry", 0x8124,
			map[byte]byte{0x1: 200, 0x2: 100},
			map[byte]byte{0x1: 44, 0xF: 1}},
		{"add reg without carry", 0x8124,
			map[byte]byte{0x1: 10, 0x2: 20, 0xF: 1},
			map[byte]byte{0x1: 30, 0xF: 0}},
		{"sub no borrow", 0x8125,
			map[byte]byte{0x1: 30, 0x2: 10},
			map[byte]byte{0x1: 20, 0xF: 1}},
		{"sub with borrow", 0x8125,
			map[byte]byte{0x1: 10, 0x2: 30},
			map[byte]byte{0x1: 236, 0xF: 0}},
		{"sub equal counts as no borrow", 0x8125,
			map[byte]byte{0x1: 7, 0x2: 7},
			map[byte]byte{0x1: 0, 0xF: 1}},
		{"sub reverse no borrow", 0x8127,
			map[byte]byte{0x1: 10, 0x2: 30},
			map[byte]byte{0x1: 20, 0xF: 1}},
		{"sub reverse with borrow", 0x8127,
			map[byte]byte{0x1: 30, 0x2: 10},
			map[byte]byte{0x1: 236, 0xF: 0}},
		{"shift right keeps source", 0x8126,
			map[byte]byte{0x2: 0x03},
			map[byte]byte{0x1: 0x01, 0x2: 0x03, 0xF: 1}},
		{"shift right clear lsb", 0x8126,
			map[byte]byte{0x2: 0x08, 0xF: 1},
			map[byte]byte{0x1: 0x04, 0x2: 0x08, 0xF: 0}},
		{"shift left keeps source", 0x812E,
			map[byte]byte{0x2: 0x81},
			map[byte]byte{0x1: 0x02, 0x2: 0x81, 0xF: 1}},
		{"shift left clear msb", 0x812E,
			map[byte]byte{0x2: 0x41, 0xF: 1},
			map[byte]byte{0x1: 0x82, 0x2: 0x41, 0xF: 0}},
		{"carry wins when flag register is destination", 0x8F24,
			map[byte]byte{0xF: 200, 0x2: 100},
			map[byte]byte{0xF: 1}},
		{"or leaves zero when flag register is destination", 0x8F21,
			map[byte]byte{0xF: 0xF0, 0x2: 0x0F},
			map[byte]byte{0xF: 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(Options{})
			for r, v := range tt.pre {
				c.regs[r] = v
			}
			exec(t, c, tt.w)
			for r, v := range tt.want {
				assert.Equal(t, v, c.regs[r], "register V%X", r)
			}
		})
	}
}

func TestExecute_IndexAndTimers(t *testing.T) {
	c := New(Options{})

	exec(t, c, 0xA123)
	assert.Equal(t, uint16(0x123), c.index)

	c.regs[0x1] = 0x10
	exec(t, c, 0xF11E)
	assert.Equal(t, uint16(0x133), c.index)

	// adding past the address space is legal until the index is used
	c.index = 0xFFF
	c.regs[0x1] = 0x10
	exec(t, c, 0xF11E)
	assert.Equal(t, uint16(0x100F), c.index)

	c.regs[0x3] = 0x0F
	exec(t, c, 0xF329)
	assert.Equal(t, uint16(fontOffset+0xF*glyphHeight), c.index)

	c.regs[0x3] = 0x00
	exec(t, c, 0xF329)
	assert.Equal(t, uint16(fontOffset), c.index)

	c.delayTimer = 42
	exec(t, c, 0xF107)
	assert.Equal(t, byte(42), c.regs[0x1])

	c.regs[0x2] = 99
	exec(t, c, 0xF215)
	assert.Equal(t, byte(99), c.delayTimer)

	c.regs[0x2] = 3
	exec(t, c, 0xF218)
	assert.Equal(t, byte(3), c.soundTimer)
}

func TestExecute_Random(t *testing.T) {
	c := New(Options{})
	c.randByte = func() byte { return 0xAB }

	exec(t, c, 0xC50F)
	assert.Equal(t, byte(0x0B), c.regs[0x5])

	exec(t, c, 0xC5FF)
	assert.Equal(t, byte(0xAB), c.regs[0x5])

	exec(t, c, 0xC500)
	assert.Equal(t, byte(0x00), c.regs[0x5])
}

func TestAddCarry_Exhaustive(t *testing.T) {
	c := New(Options{})
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			c.regs[1] = byte(a)
			c.regs[2] = byte(b)
			if err := c.execute(opAddReg, 0x8124); err != nil {
				t.Fatalf("add %d+%d: %v", a, b, err)
			}
			wantCarry := byte(0)
			if a+b > 255 {
				wantCarry = 1
			}
			if got, want := c.regs[1], byte(a)+byte(b); got != want {
				t.Fatalf("add %d+%d: got %d, want %d", a, b, got, want)
			}
			if got := c.regs[0xF]; got != wantCarry {
				t.Fatalf("add %d+%d: carry %d, want %d", a, b, got, wantCarry)
			}
		}
	}
}

func TestSubBorrow_Exhaustive(t *testing.T) {
	c := New(Options{})
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			c.regs[1] = byte(a)
			c.regs[2] = byte(b)
			if err := c.execute(opSub, 0x8125); err != nil {
				t.Fatalf("sub %d-%d: %v", a, b, err)
			}
			wantFlag := byte(0)
			if a >= b {
				wantFlag = 1
			}
			if got, want := c.regs[1], byte(a)-byte(b); got != want {
				t.Fatalf("sub %d-%d: got %d, want %d", a, b, got, want)
			}
			if got := c.regs[0xF]; got != wantFlag {
				t.Fatalf("sub %d-%d: flag %d, want %d", a, b, got, wantFlag)
			}
		}
	}
}

func TestSubReverseBorrow_Exhaustive(t *testing.T) {
	c := New(Options{})
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			c.regs[1] = byte(a)
			c.regs[2] = byte(b)
			if err := c.execute(opSubReverse, 0x8127); err != nil {
				t.Fatalf("subn %d-%d: %v", b, a, err)
			}
			wantFlag := byte(0)
			if b >= a {
				wantFlag = 1
			}
			if got, want := c.regs[1], byte(b)-byte(a); got != want {
				t.Fatalf("subn %d-%d: got %d, want %d", b, a, got, want)
			}
			if got := c.regs[0xF]; got != wantFlag {
				t.Fatalf("subn %d-%d: flag %d, want %d", b, a, got, wantFlag)
			}
		}
	}
}

func TestStoreBCD_AllValues(t *testing.T) {
	c := New(Options{})
	for v := 0; v < 256; v++ {
		c.index = 0x300
		c.regs[4] = byte(v)
		if err := c.storeBCD(4); err != nil {
			t.Fatalf("bcd of %d: %v", v, err)
		}
		if got := c.mem[0x300]; got != byte(v/100) {
			t.Fatalf("bcd of %d: hundreds %d", v, got)
		}
		if got := c.mem[0x301]; got != byte(v/10%10) {
			t.Fatalf("bcd of %d: tens %d", v, got)
		}
		if got := c.mem[0x302]; got != byte(v%10) {
			t.Fatalf("bcd of %d: ones %d", v, got)
		}
	}
}

func TestStoreBCD_Bounds(t *testing.T) {
	c := New(Options{})
	c.regs[4] = 255

	// last legal position
	c.index = MemorySize - 3
	assert.NoError(t, c.storeBCD(4))
	assert.Equal(t, byte(2), c.mem[MemorySize-3])
	assert.Equal(t, byte(5), c.mem[MemorySize-2])
	assert.Equal(t, byte(5), c.mem[MemorySize-1])

	c2 := New(Options{})
	c2.regs[4] = 255
	c2.index = MemorySize - 2
	err := c2.storeBCD(4)
	var memErr MemoryError
	assert.True(t, errors.As(err, &memErr))
	assert.Equal(t, byte(0), c2.mem[MemorySize-2], "no partial write before the fault")
}

func TestStoreRegisters(t *testing.T) {
	c := New(Options{})
	for i := byte(0); i <= 5; i++ {
		c.regs[i] = 0x10 + i
	}
	c.index = 0x400

	exec(t, c, 0xF355)

	assert.Equal(t, uint16(0x404), c.index, "index advances past the written range")
	for i := 0; i < 4; i++ {
		assert.Equal(t, byte(0x10+i), c.mem[0x400+i])
	}
	assert.Equal(t, byte(0), c.mem[0x404], "V4 is not stored")
}

func TestLoadRegisters(t *testing.T) {
	c := New(Options{})
	copy(c.mem[0x400:], []byte{1, 2, 3})
	c.regs[3] = 0xEE
	c.index = 0x400

	exec(t, c, 0xF265)

	assert.Equal(t, uint16(0x403), c.index, "index advances past the read range")
	assert.Equal(t, byte(1), c.regs[0])
	assert.Equal(t, byte(2), c.regs[1])
	assert.Equal(t, byte(3), c.regs[2])
	assert.Equal(t, byte(0xEE), c.regs[3], "V3 is not loaded")
}

func TestRegisterBlock_Bounds(t *testing.T) {
	c := New(Options{})
	c.index = MemorySize - 3
	err := c.storeRegisters(3)
	var memErr MemoryError
	assert.True(t, errors.As(err, &memErr))
	assert.Equal(t, uint16(MemorySize-3), c.index, "index unchanged after fault")
	assert.Equal(t, byte(0), c.mem[MemorySize-3], "no partial write")

	c.regs[0] = 0x77
	err = c.loadRegisters(3)
	assert.True(t, errors.As(err, &memErr))
	assert.Equal(t, byte(0x77), c.regs[0], "no partial load")

	// exactly filling the remaining memory is legal
	c.index = MemorySize - 4
	assert.NoError(t, c.storeRegisters(3))
	assert.Equal(t, uint16(MemorySize), c.index)
}

func TestDraw_TopLeft(t *testing.T) {
	d := &fakeDisplay{}
	c := New(Options{Display: d})
	c.mem[0x300] = 0xF0
	c.mem[0x301] = 0x90
	c.index = 0x300
	c.regs[0] = 0
	c.regs[1] = 0

	assert.NoError(t, c.draw(0xD012))

	assert.Equal(t, uint64(0xF0)<<56, c.screen[0])
	assert.Equal(t, uint64(0x90)<<56, c.screen[1])
	assert.Equal(t, byte(0), c.regs[0xF])
	assert.Equal(t, 1, d.changes, "one notification per draw")
}

func TestDraw_AnchorWraps(t *testing.T) {
	c := New(Options{})
	c.mem[0x300] = 0xFF
	c.index = 0x300
	c.regs[0] = 68 // column 4 after wrapping
	c.regs[1] = 33 // row 1 after wrapping

	assert.NoError(t, c.draw(0xD011))

	assert.Equal(t, uint64(0xFF)<<52, c.screen[1])
	assert.Equal(t, uint64(0), c.screen[0])
}

func TestDraw_RightEdgeClips(t *testing.T) {
	c := New(Options{})
	c.mem[0x300] = 0xFF
	c.index = 0x300
	c.regs[0] = 60

	assert.NoError(t, c.draw(0xD011))

	assert.Equal(t, uint64(0x0F), c.screen[0], "only the four leftmost sprite bits fit")
}

func TestDraw_BottomEdgeClips(t *testing.T) {
	c := New(Options{})
	// the clipped rows must not even be fetched
	c.mem[MemorySize-2] = 0xAA
	c.mem[MemorySize-1] = 0xBB
	c.index = MemorySize - 2
	c.regs[1] = 30

	assert.NoError(t, c.draw(0xD015))

	assert.Equal(t, uint64(0xAA)<<56, c.screen[30])
	assert.Equal(t, uint64(0xBB)<<56, c.screen[31])
	assert.Equal(t, uint64(0), c.screen[0], "rows do not wrap around")
}

func TestDraw_Collision(t *testing.T) {
	c := New(Options{})
	c.mem[0x300] = 0xF0
	c.mem[0x301] = 0x10
	c.index = 0x300

	assert.NoError(t, c.draw(0xD011)) // draws 0xF0
	assert.Equal(t, byte(0), c.regs[0xF])

	c.index = 0x301
	assert.NoError(t, c.draw(0xD011)) // 0x10 overlaps one lit pixel
	assert.Equal(t, byte(1), c.regs[0xF])
	assert.Equal(t, uint64(0xE0)<<56, c.screen[0])
}

func TestDraw_ZeroRows(t *testing.T) {
	d := &fakeDisplay{}
	c := New(Options{Display: d})
	c.index = 0xFFFF // would be out of range if anything were fetched
	c.regs[0xF] = 7

	assert.NoError(t, c.draw(0xD010))

	assert.Equal(t, byte(0), c.regs[0xF])
	assert.Equal(t, 1, d.changes)
}

func TestDraw_SpriteFetchOutOfRange(t *testing.T) {
	d := &fakeDisplay{}
	c := New(Options{Display: d})
	c.index = 0xFFF
	c.regs[0xF] = 7

	err := c.draw(0xD012)

	var memErr MemoryError
	assert.True(t, errors.As(err, &memErr))
	assert.Equal(t, uint16(MemorySize), memErr.Addr)
	assert.Equal(t, byte(7), c.regs[0xF], "flag untouched on fault")
	assert.Equal(t, uint64(0), c.screen[0])
	assert.Equal(t, 0, d.changes)
}
