// Package runner drives a machine headless: wall-clock time feeds the
// instruction budget, key events come from a script and ROM file changes
// can hot-reload the program.
package runner

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"os"
	"path/filepath"
	"time"

	"github.com/howeyc/fsnotify"
	"github.com/retroenv/retrogolib/log"

	"github.com/Luminary099-1/Chip-8/chip8"
	"github.com/Luminary099-1/Chip-8/internal/options"
	"github.com/Luminary099-1/Chip-8/internal/script"
)

const (
	// tickInterval is the period of the run loop.
	tickInterval = 10 * time.Millisecond

	// debounceDelay is how long the watched ROM file must stay quiet
	// before it is reloaded.
	debounceDelay = 100 * time.Millisecond
)

// keypad holds the live state of the hex key pad. Only the run loop
// mutates it and the machine reads it from within Run on the same
// goroutine, so no locking is needed.
type keypad struct {
	held [chip8.NumKeys]bool
}

func (k *keypad) IsPressed(key byte) bool {
	return key < chip8.NumKeys && k.held[key]
}

// observers receives the machine's display and sound notifications and
// keeps counters for the run summary.
type observers struct {
	logger  *log.Logger
	trace   bool
	redraws int
}

func (o *observers) DisplayChanged() {
	o.redraws++
	if o.trace {
		o.logger.Info("Screen updated", log.Int("redraws", o.redraws))
	}
}

func (o *observers) StartSound() {
	o.logger.Info("Sound on")
}

func (o *observers) StopSound() {
	o.logger.Info("Sound off")
}

// Runner executes a ROM on a machine until the context is cancelled,
// the configured duration is spent or the key script has played out.
type Runner struct {
	logger  *log.Logger
	opts    options.Program
	machine *chip8.Chip8
	keys    *keypad
	obs     *observers
	player  *script.Player

	runTime time.Duration
	halted  bool
}

// New creates a runner with the ROM, script and state files named in
// the options loaded.
func New(logger *log.Logger, opts options.Program) (*Runner, error) {
	keys := &keypad{}
	obs := &observers{
		logger: logger,
		trace:  opts.Trace,
	}

	r := &Runner{
		logger: logger,
		opts:   opts,
		machine: chip8.New(chip8.Options{
			Keyboard:  keys,
			Display:   obs,
			Sound:     obs,
			Frequency: uint16(opts.Frequency),
		}),
		keys: keys,
		obs:  obs,
	}

	if err := r.loadROM(); err != nil {
		return nil, err
	}
	if opts.Script != "" {
		if err := r.loadScript(); err != nil {
			return nil, err
		}
	}
	if opts.LoadState != "" {
		if err := r.loadState(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Runner) loadROM() error {
	rom, err := os.ReadFile(r.opts.Input)
	if err != nil {
		return fmt.Errorf("reading ROM: %w", err)
	}
	if len(rom) == 0 {
		return fmt.Errorf("ROM file %s is empty", r.opts.Input)
	}
	if err := r.machine.LoadProgram(rom); err != nil {
		return fmt.Errorf("loading ROM: %w", err)
	}

	r.logger.Info("Loaded ROM",
		log.String("file", r.opts.Input),
		log.Int("bytes", len(rom)))
	return nil
}

func (r *Runner) loadScript() error {
	f, err := os.Open(r.opts.Script)
	if err != nil {
		return fmt.Errorf("opening script: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	steps, err := script.Parse(f)
	if err != nil {
		return fmt.Errorf("parsing script %s: %w", r.opts.Script, err)
	}
	if len(steps) == 0 {
		return nil
	}

	r.player = script.NewPlayer(steps)
	r.logger.Info("Loaded script",
		log.String("file", r.opts.Script),
		log.Int("steps", len(steps)))
	return nil
}

func (r *Runner) loadState() error {
	data, err := os.ReadFile(r.opts.LoadState)
	if err != nil {
		return fmt.Errorf("reading state file: %w", err)
	}

	var st chip8.State
	if len(data) != len(st) {
		return fmt.Errorf("state file %s holds %d bytes, expected %d",
			r.opts.LoadState, len(data), len(st))
	}
	copy(st[:], data)
	r.machine.Restore(st)

	r.logger.Info("Restored state", log.String("file", r.opts.LoadState))
	return nil
}

func (r *Runner) saveState() error {
	st := r.machine.State()
	if err := os.WriteFile(r.opts.SaveState, st[:], 0o644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}

	r.logger.Info("Saved state", log.String("file", r.opts.SaveState))
	return nil
}

// Run executes the machine until an exit condition is reached and then
// writes the state file if one was requested. A machine fault ends the
// run unless watch mode is active, in which case the runner waits for
// the next ROM change.
func (r *Runner) Run(ctx context.Context) error {
	runErr := r.loop(ctx)

	r.logger.Info("Run finished",
		log.Stringer("machine_time", r.runTime),
		log.Int("redraws", r.obs.redraws))

	if r.opts.SaveState != "" {
		if err := r.saveState(); err != nil {
			if runErr == nil {
				return err
			}
			r.logger.Error("Saving state failed", log.Err(err))
		}
	}
	return runErr
}

func (r *Runner) loop(ctx context.Context) error {
	var (
		watchEvents <-chan *fsnotify.FileEvent
		watchErrors <-chan error
		reload      <-chan time.Time
	)

	input := filepath.Clean(r.opts.Input)
	if r.opts.Watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("creating watcher: %w", err)
		}
		defer func() {
			_ = watcher.Close()
		}()

		dir := filepath.Dir(input)
		if err := watcher.Watch(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		watchEvents = watcher.Event
		watchErrors = watcher.Error
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-watchEvents:
			if filepath.Clean(ev.Name) == input && !ev.IsAttrib() {
				reload = time.After(debounceDelay)
			}

		case err := <-watchErrors:
			r.logger.Error("Watcher error", log.Err(err))

		case <-reload:
			reload = nil
			r.reload()

		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			if r.halted {
				continue
			}

			if err := r.step(elapsed); err != nil {
				if !r.opts.Watch {
					return err
				}
				r.halted = true
				r.logger.Error("Machine halted, waiting for a ROM change", log.Err(err))
				continue
			}
			if r.done() {
				return nil
			}
		}
	}
}

// step applies the script events due after elapsed time and feeds the
// machine the same slice of time.
func (r *Runner) step(elapsed time.Duration) error {
	r.runTime += elapsed

	if r.player != nil {
		for _, st := range r.player.Advance(elapsed) {
			r.apply(st)
		}
	}

	if err := r.machine.Run(elapsed); err != nil {
		return fmt.Errorf("running machine: %w", err)
	}
	return nil
}

func (r *Runner) apply(st script.Step) {
	switch st.Action {
	case script.Press:
		r.keys.held[st.Key] = true
		if err := r.machine.KeyPressed(st.Key); err != nil {
			r.logger.Error("Key press rejected", log.Err(err))
			return
		}
		r.logger.Info("Key pressed", log.Hex("key", st.Key))

	case script.Release:
		r.keys.held[st.Key] = false
		if err := r.machine.KeyReleased(st.Key); err != nil {
			r.logger.Error("Key release rejected", log.Err(err))
			return
		}
		r.logger.Info("Key released", log.Hex("key", st.Key))

	case script.Dump:
		r.dump()
	}
}

// dump logs the observable machine state.
func (r *Runner) dump() {
	lit := 0
	for _, row := range r.machine.Screen() {
		lit += bits.OnesCount64(row)
	}

	buzzer := "off"
	if r.machine.Sounding() {
		buzzer = "on"
	}

	r.logger.Info("Machine state",
		log.Int("lit_pixels", lit),
		log.Int("redraws", r.obs.redraws),
		log.String("buzzer", buzzer),
		log.Uint16("hz", r.machine.Frequency()))
}

// done reports whether the run reached its configured end: the time
// budget when one is set, otherwise the end of the key script.
func (r *Runner) done() bool {
	if r.opts.Duration > 0 {
		return r.runTime >= r.opts.Duration
	}
	return r.player != nil && r.player.Done()
}

// reload replaces the running program with the current content of the
// ROM file. The machine keeps the old program if the new one cannot be
// loaded.
func (r *Runner) reload() {
	rom, err := os.ReadFile(r.opts.Input)
	if err != nil {
		r.logger.Error("Reload failed", log.Err(err))
		return
	}
	if len(rom) == 0 {
		r.logger.Error("Reload failed", log.Err(errors.New("ROM file is empty")))
		return
	}
	if err := r.machine.LoadProgram(rom); err != nil {
		r.logger.Error("Reload failed", log.Err(err))
		return
	}

	r.halted = false
	r.logger.Info("Reloaded ROM",
		log.String("file", r.opts.Input),
		log.Int("bytes", len(rom)))
}
