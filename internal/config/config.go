// Package config handles application configuration and setup
package config

import (
	"errors"

	"github.com/retroenv/retrogolib/log"

	"github.com/Luminary099-1/Chip-8/internal/options"
)

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// Validate rejects option combinations that mix the run mode with the
// disassembler mode.
func Validate(opts options.Program) error {
	if !opts.Disassemble {
		if opts.Output != "" {
			return errors.New("-o only applies to the -dasm mode")
		}
		return nil
	}

	switch {
	case opts.Script != "":
		return errors.New("-script cannot be combined with -dasm")
	case opts.LoadState != "":
		return errors.New("-load-state cannot be combined with -dasm")
	case opts.SaveState != "":
		return errors.New("-save-state cannot be combined with -dasm")
	case opts.Watch:
		return errors.New("-watch cannot be combined with -dasm")
	case opts.Trace:
		return errors.New("-trace cannot be combined with -dasm")
	case opts.Duration != 0:
		return errors.New("-duration cannot be combined with -dasm")
	}
	return nil
}
