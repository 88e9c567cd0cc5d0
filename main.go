// Package main implements a CHIP-8 virtual machine with a headless runner
// and a ROM disassembler
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"

	"github.com/Luminary099-1/Chip-8/internal/cli"
	"github.com/Luminary099-1/Chip-8/internal/config"
	"github.com/Luminary099-1/Chip-8/internal/disasm"
	"github.com/Luminary099-1/Chip-8/internal/options"
	"github.com/Luminary099-1/Chip-8/internal/runner"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx := app.Context()

	opts, err := cli.ParseFlags()
	if err != nil {
		logger := config.CreateLogger(opts.Debug, opts.Quiet)
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			printBanner(logger, opts)
			usageErr.ShowUsage()
		} else {
			logger.Fatal(err.Error())
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	printBanner(logger, opts)

	if err := config.Validate(opts); err != nil {
		logger.Fatal(err.Error())
	}

	if opts.Disassemble {
		if err := disassemble(logger, opts); err != nil {
			logger.Error("Disassembling failed", log.Err(err))
			os.Exit(1)
		}
		return
	}

	if err := execute(ctx, logger, opts); err != nil {
		// Handle context cancellation (Ctrl+C) gracefully
		if errors.Is(err, context.Canceled) {
			logger.Info("Operation cancelled")
			return
		}
		logger.Error("Running failed", log.Err(err))
		os.Exit(1)
	}
}

// printBanner prints application version information
func printBanner(logger *log.Logger, opts options.Program) {
	if opts.Quiet {
		return
	}
	logger.Info("chip8", log.String("version", buildinfo.Version(version, commit, date)))
}

func disassemble(logger *log.Logger, opts options.Program) error {
	rom, err := os.ReadFile(opts.Input)
	if err != nil {
		return fmt.Errorf("reading ROM: %w", err)
	}

	dis, err := disasm.New(rom, disasm.Options{
		HexComments:    opts.HexComments,
		OffsetComments: opts.OffsetComments,
	})
	if err != nil {
		return fmt.Errorf("initializing disassembler: %w", err)
	}

	output := io.Writer(os.Stdout)
	var file *os.File
	if opts.Output != "" {
		file, err = os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", opts.Output, err)
		}
		output = file
		logger.Info("Writing listing", log.String("file", opts.Output))
	}

	if err := dis.Process(output); err != nil {
		if file != nil {
			_ = file.Close()
		}
		return err
	}
	if file != nil {
		if err := file.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", opts.Output, err)
		}
	}
	return nil
}

func execute(ctx context.Context, logger *log.Logger, opts options.Program) error {
	r, err := runner.New(logger, opts)
	if err != nil {
		return err
	}
	return r.Run(ctx)
}
