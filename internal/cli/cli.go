// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/Luminary099-1/Chip-8/chip8"
	"github.com/Luminary099-1/Chip-8/internal/options"
)

// ParseFlags parses command line flags and returns the program options
func ParseFlags() (options.Program, error) {
	return parseFlags(os.Args[0], os.Args[1:])
}

func parseFlags(name string, args []string) (options.Program, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	var opts options.Program
	var noHexComments, noOffsets bool
	readOptionFlags(flags, &opts, &noHexComments, &noOffsets)

	err := flags.Parse(args)
	rest := flags.Args()
	if err != nil || len(rest) == 0 {
		return opts, &UsageError{flags: flags}
	}

	if err := validateArgs(rest); err != nil {
		return opts, err
	}
	if err := validateOptions(opts); err != nil {
		return opts, err
	}

	opts.Input = rest[0]

	// Inverse logic for hex comments and offsets.
	opts.HexComments = !noHexComments
	opts.OffsetComments = !noOffsets

	return opts, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	fmt.Printf("usage: chip8 [options] <ROM file>\n\n")
	if e.flags != nil {
		e.flags.SetOutput(os.Stdout)
		e.flags.PrintDefaults()
	}
	fmt.Println()
}

// validateArgs checks if arguments are in correct order
func validateArgs(args []string) error {
	for i, arg := range args {
		if i > 0 && arg[0] == '-' {
			return &UsageError{
				msg: fmt.Sprintf("potential flag %s found after the ROM file, please pass the ROM file as last argument", arg),
			}
		}
	}
	return nil
}

// validateOptions checks option values for ranges the flag package
// cannot express
func validateOptions(opts options.Program) error {
	if opts.Frequency == 0 || opts.Frequency > math.MaxUint16 {
		return &UsageError{
			msg: fmt.Sprintf("unsupported frequency %d, must be between 1 and %d Hz", opts.Frequency, math.MaxUint16),
		}
	}
	if opts.Duration < 0 {
		return &UsageError{
			msg: fmt.Sprintf("negative run duration %s", opts.Duration),
		}
	}
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program, noHexComments, noOffsets *bool) {
	flags.StringVar(&opts.Output, "o", "", "name of the output listing file, printed on console if no name given")
	flags.StringVar(&opts.Script, "script", "", "name of a key event script file to play while running")
	flags.StringVar(&opts.LoadState, "load-state", "", "name of a state file to restore after loading the ROM")
	flags.StringVar(&opts.SaveState, "save-state", "", "name of a state file to write when the run ends")
	flags.BoolVar(&opts.Disassemble, "dasm", false, "write a listing of the ROM instead of running it")
	flags.BoolVar(&opts.Watch, "watch", false, "reload the ROM when the file changes")
	flags.BoolVar(&opts.Trace, "trace", false, "log display updates and script steps")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
	flags.UintVar(&opts.Frequency, "hz", chip8.DefaultFrequency, "instruction rate in Hz")
	flags.DurationVar(&opts.Duration, "duration", 0, "stop running after this much time, 0 runs until interrupted")
	flags.BoolVar(noHexComments, "nohexcomments", false, "do not output opcode words as hex values in comments")
	flags.BoolVar(noOffsets, "nooffsets", false, "do not output memory addresses in comments")
}
