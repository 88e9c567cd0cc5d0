// Package options contains the program options.
package options

import "time"

// Parameters contains file path options.
type Parameters struct {
	Input     string // ROM file to run or disassemble
	Output    string // listing output file, stdout when empty
	Script    string // key event script file
	LoadState string // state file to restore after loading the ROM
	SaveState string // state file to write at exit
}

// Flags contains behavior options.
type Flags struct {
	Disassemble bool
	Watch       bool
	Trace       bool
	Debug       bool
	Quiet       bool
}

// Execution contains run mode tuning options.
type Execution struct {
	Frequency uint          // instruction rate in Hz
	Duration  time.Duration // run time budget, 0 means unbounded
}

// Listing contains output formatting options for the disassembler.
type Listing struct {
	HexComments    bool
	OffsetComments bool
}

// Program options of the emulator.
type Program struct {
	Parameters
	Flags
	Execution
	Listing
}
