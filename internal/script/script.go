// Package script parses and plays key event scripts for headless runs.
package script

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Action is the kind of a scripted step.
type Action int

const (
	Press Action = iota
	Release
	Dump
)

func (a Action) String() string {
	switch a {
	case Press:
		return "press"
	case Release:
		return "release"
	case Dump:
		return "dump"
	}
	return "unknown"
}

// Step is a single scripted event, due Delay after the previous step.
type Step struct {
	Delay  time.Duration
	Action Action
	Key    byte
}

// Parse reads a script with one command per line:
//
//	press <key>     hold down a pad key (a hex digit, 0-F)
//	release <key>   release a pad key
//	wait <duration> delay the following command
//	dump            log the machine state
//
// Blank lines and lines starting with # are skipped. Consecutive wait
// lines accumulate into the delay of the next command; a trailing wait
// without a following command is inert.
func Parse(r io.Reader) ([]Step, error) {
	var steps []Step
	var pending time.Duration

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]
		switch cmd {
		case "wait":
			if len(args) != 1 {
				return nil, fmt.Errorf("line %d: wait wants a single duration", lineNo)
			}
			d, err := time.ParseDuration(args[0])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if d < 0 {
				return nil, fmt.Errorf("line %d: negative wait %s", lineNo, d)
			}
			pending += d

		case "press", "release":
			if len(args) != 1 {
				return nil, fmt.Errorf("line %d: %s wants a single key", lineNo, cmd)
			}
			key, err := parseKey(args[0])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			action := Press
			if cmd == "release" {
				action = Release
			}
			steps = append(steps, Step{Delay: pending, Action: action, Key: key})
			pending = 0

		case "dump":
			if len(args) != 0 {
				return nil, fmt.Errorf("line %d: dump takes no arguments", lineNo)
			}
			steps = append(steps, Step{Delay: pending, Action: Dump})
			pending = 0

		default:
			return nil, fmt.Errorf("line %d: unknown command %q", lineNo, cmd)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return steps, nil
}

// parseKey accepts a single hex digit naming a pad key.
func parseKey(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil || v > 15 {
		return 0, fmt.Errorf("invalid key %q, must be a hex digit", s)
	}
	return byte(v), nil
}

// Player hands out steps as the run timeline advances.
type Player struct {
	steps []Step
	acc   time.Duration
}

func NewPlayer(steps []Step) *Player {
	return &Player{steps: steps}
}

// Advance moves the timeline forward and returns the steps that became
// due, in script order.
func (p *Player) Advance(elapsed time.Duration) []Step {
	p.acc += elapsed

	var due []Step
	for len(p.steps) > 0 && p.steps[0].Delay <= p.acc {
		step := p.steps[0]
		p.acc -= step.Delay
		p.steps = p.steps[1:]
		due = append(due, step)
	}
	return due
}

// Done reports whether every step has been handed out.
func (p *Player) Done() bool {
	return len(p.steps) == 0
}
