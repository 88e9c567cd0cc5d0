package chip8

import (
	"errors"
	"fmt"
)

// ErrCrashed is returned by Run once a fatal error has latched the
// machine. The fatal error itself is returned by the Run call that hit
// it; LoadProgram clears the condition.
var ErrCrashed = errors.New("machine has crashed")

// Call stack faults. Both are fatal.
var (
	ErrStackOverflow  = errors.New("call stack overflow")
	ErrStackUnderflow = errors.New("call stack underflow")
)

// DecodeError reports an instruction word that matches no known opcode.
// Fatal.
type DecodeError struct {
	Addr uint16
	Word uint16
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("illegal instruction $%04X at $%03X", e.Word, e.Addr)
}

// MemoryError reports an access outside the legal range for the
// operation, carrying the first out-of-range address. Fatal.
type MemoryError struct {
	Addr uint16
}

func (e MemoryError) Error() string {
	return fmt.Sprintf("memory access out of bounds at $%03X", e.Addr)
}

// ProgramSizeError reports a program that does not fit into the program
// region. Recoverable: the machine keeps its previous state.
type ProgramSizeError struct {
	Size int
}

func (e ProgramSizeError) Error() string {
	return fmt.Sprintf("program size %d exceeds the maximum of %d bytes", e.Size, MaxProgramSize)
}

// KeyError reports a key value outside the 16-key pad. Recoverable.
type KeyError struct {
	Key byte
}

func (e KeyError) Error() string {
	return fmt.Sprintf("invalid key $%02X", e.Key)
}
