// Package disasm implements a CHIP-8 ROM disassembler
package disasm

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	chip8cpu "github.com/retroenv/retrogolib/arch/cpu/chip8"

	"github.com/Luminary099-1/Chip-8/chip8"
)

// Options controls the listing format.
type Options struct {
	HexComments    bool // output the opcode word as hex in a comment
	OffsetComments bool // output the memory address in a comment
}

// Disasm writes a linear assembly listing of a CHIP-8 ROM. Every word
// from the program start on is matched against the opcode table; words
// that encode no instruction are emitted as data bytes.
type Disasm struct {
	program []byte
	opts    Options
}

// New returns a disassembler for the given ROM bytes.
func New(program []byte, opts Options) (*Disasm, error) {
	if len(program) == 0 {
		return nil, errors.New("ROM is empty")
	}
	if len(program) > chip8.MaxProgramSize {
		return nil, fmt.Errorf("ROM size %d exceeds the %d byte program region",
			len(program), chip8.MaxProgramSize)
	}
	return &Disasm{
		program: program,
		opts:    opts,
	}, nil
}

// Process writes the listing to w.
func (d *Disasm) Process(w io.Writer) error {
	buf := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(buf, "Start:"); err != nil {
		return fmt.Errorf("writing listing: %w", err)
	}

	for i := 0; i+1 < len(d.program); i += 2 {
		addr := uint16(chip8.ProgramStart + i)
		word := uint16(d.program[i])<<8 | uint16(d.program[i+1])

		code := fmt.Sprintf(".byte $%02X, $%02X", d.program[i], d.program[i+1])
		if ins, ok := match(word); ok {
			code = ins.Name
			if params := formatInstruction(ins.Name, word); params != "" {
				code = fmt.Sprintf("%s %s", ins.Name, params)
			}
		}
		if err := d.writeLine(buf, code, addr, fmt.Sprintf("%04X", word)); err != nil {
			return err
		}
	}

	// a ROM with an odd size ends on a lone data byte
	if len(d.program)%2 != 0 {
		i := len(d.program) - 1
		code := fmt.Sprintf(".byte $%02X", d.program[i])
		addr := uint16(chip8.ProgramStart + i)
		if err := d.writeLine(buf, code, addr, fmt.Sprintf("%02X", d.program[i])); err != nil {
			return err
		}
	}

	if err := buf.Flush(); err != nil {
		return fmt.Errorf("writing listing: %w", err)
	}
	return nil
}

func (d *Disasm) writeLine(buf *bufio.Writer, code string, addr uint16, hex string) error {
	comment := d.comment(addr, hex)

	var err error
	if comment == "" {
		_, err = fmt.Fprintf(buf, "  %s\n", code)
	} else {
		_, err = fmt.Fprintf(buf, "  %-24s ; %s\n", code, comment)
	}
	if err != nil {
		return fmt.Errorf("writing listing: %w", err)
	}
	return nil
}

// comment builds the per-line comment from the enabled parts.
func (d *Disasm) comment(addr uint16, hex string) string {
	switch {
	case d.opts.OffsetComments && d.opts.HexComments:
		return fmt.Sprintf("$%03X  %s", addr, hex)
	case d.opts.OffsetComments:
		return fmt.Sprintf("$%03X", addr)
	case d.opts.HexComments:
		return hex
	default:
		return ""
	}
}

// match finds the instruction a word encodes. The opcode table is
// indexed by the word's leading nibble.
func match(w uint16) (*chip8cpu.Instruction, bool) {
	for _, op := range chip8cpu.Opcodes[int(w>>12)] {
		if op.Info.Mask&w == op.Info.Value {
			return op.Instruction, true
		}
	}
	return nil, false
}

// formatInstruction formats a CHIP-8 instruction's parameters.
// The same mnemonic covers several encodings, so formatting keys off
// the word itself.
func formatInstruction(name string, opcode uint16) string {
	switch name {
	case chip8cpu.Jp.Name:
		return formatJumpInstruction(opcode)
	case chip8cpu.Call.Name:
		return fmt.Sprintf("$%03X", opcode&0x0FFF)
	case chip8cpu.Se.Name, chip8cpu.Sne.Name:
		return formatCompareInstruction(opcode)
	case chip8cpu.Ld.Name:
		return formatLoadInstruction(opcode)
	case chip8cpu.Add.Name:
		return formatAddInstruction(opcode)
	case chip8cpu.Or.Name, chip8cpu.And.Name, chip8cpu.Xor.Name,
		chip8cpu.Sub.Name, chip8cpu.Subn.Name:
		return fmt.Sprintf("V%X, V%X", registerX(opcode), registerY(opcode))
	case chip8cpu.Shr.Name, chip8cpu.Shl.Name:
		return fmt.Sprintf("V%X", registerX(opcode))
	case chip8cpu.Rnd.Name:
		return fmt.Sprintf("V%X, $%02X", registerX(opcode), opcode&0x00FF)
	case chip8cpu.Drw.Name:
		return fmt.Sprintf("V%X, V%X, $%X", registerX(opcode), registerY(opcode), opcode&0x000F)
	case chip8cpu.Skp.Name, chip8cpu.Sknp.Name:
		return fmt.Sprintf("V%X", registerX(opcode))
	}
	return ""
}

// formatJumpInstruction formats jump instructions (JP addr, JP V0+addr).
func formatJumpInstruction(opcode uint16) string {
	if opcode&0xF000 == 0x1000 {
		return fmt.Sprintf("$%03X", opcode&0x0FFF)
	}
	if opcode&0xF000 == 0xB000 {
		return fmt.Sprintf("V0, $%03X", opcode&0x0FFF)
	}
	return ""
}

// formatCompareInstruction formats comparison instructions (SE, SNE).
func formatCompareInstruction(opcode uint16) string {
	x := registerX(opcode)
	switch opcode & 0xF000 {
	case 0x3000, 0x4000:
		return fmt.Sprintf("V%X, $%02X", x, opcode&0x00FF)
	case 0x5000, 0x9000:
		return fmt.Sprintf("V%X, V%X", x, registerY(opcode))
	}
	return ""
}

// formatLoadInstruction formats the load family. The F group moves
// between a register and the timers, the key wait, the font pointer,
// the BCD writer or the register block at I.
func formatLoadInstruction(opcode uint16) string {
	x := registerX(opcode)
	switch opcode & 0xF000 {
	case 0x6000:
		return fmt.Sprintf("V%X, $%02X", x, opcode&0x00FF)
	case 0x8000:
		return fmt.Sprintf("V%X, V%X", x, registerY(opcode))
	case 0xA000:
		return fmt.Sprintf("I, $%03X", opcode&0x0FFF)
	case 0xF000:
		switch opcode & 0x00FF {
		case 0x07:
			return fmt.Sprintf("V%X, DT", x)
		case 0x0A:
			return fmt.Sprintf("V%X, K", x)
		case 0x15:
			return fmt.Sprintf("DT, V%X", x)
		case 0x18:
			return fmt.Sprintf("ST, V%X", x)
		case 0x29:
			return fmt.Sprintf("F, V%X", x)
		case 0x33:
			return fmt.Sprintf("B, V%X", x)
		case 0x55:
			return fmt.Sprintf("[I], V%X", x)
		case 0x65:
			return fmt.Sprintf("V%X, [I]", x)
		}
	}
	return ""
}

// formatAddInstruction formats add instructions (ADD Vx, byte/Vy; ADD I, Vx).
func formatAddInstruction(opcode uint16) string {
	x := registerX(opcode)
	switch opcode & 0xF000 {
	case 0x7000:
		return fmt.Sprintf("V%X, $%02X", x, opcode&0x00FF)
	case 0x8000:
		return fmt.Sprintf("V%X, V%X", x, registerY(opcode))
	case 0xF000:
		return fmt.Sprintf("I, V%X", x)
	}
	return ""
}

// registerX extracts the X register nibble from a CHIP-8 opcode.
func registerX(opcode uint16) uint16 {
	return (opcode & 0x0F00) >> 8
}

// registerY extracts the Y register nibble from a CHIP-8 opcode.
func registerY(opcode uint16) uint16 {
	return (opcode & 0x00F0) >> 4
}
