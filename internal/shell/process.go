// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

// Package shell runs external commands on behalf of pipeline expressions.
//
// A Process is created without starting anything. The command runs, to
// completion, the first time its result is observed: by Wait, by Text
// (coercion to a string) or by Bool (truth testing). Every Process is
// registered as pending with the Registry of its run, and the scheduler
// calls Registry.Checkpoint between stages so that a failed command is
// reported even when nothing looked at its result.
package shell

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Check is the failure policy of a Process.
type Check int

const (
	// CheckDefault reports a failure when the Process is resolved
	// implicitly or coerced to text, unless it was truth-tested first.
	CheckDefault Check = iota
	// CheckAlways reports a failure on every observation, including
	// truth testing.
	CheckAlways
	// CheckNever never reports a nonzero exit.
	CheckNever
)

func (c Check) String() string {
	switch c {
	case CheckAlways:
		return "always"
	case CheckNever:
		return "never"
	default:
		return "default"
	}
}

// ParseCheck converts a config value to a Check.
func ParseCheck(s string) (Check, error) {
	switch s {
	case "", "default":
		return CheckDefault, nil
	case "always":
		return CheckAlways, nil
	case "never":
		return CheckNever, nil
	default:
		return 0, fmt.Errorf("unknown check policy: %q", s)
	}
}

// Result is the outcome of a finished command.
type Result struct {
	ExitCode int
	Stdout   string
	Duration time.Duration
}

// Process is a deferred command invocation.
type Process struct {
	reg  *Registry
	argv []string
	opts Options

	realized bool
	result   Result
	startErr error
	checked  bool
}

// Argv returns the command's argument vector.
func (p *Process) Argv() []string {
	return slices.Clone(p.argv)
}

// Realized reports whether the command has run.
func (p *Process) Realized() bool {
	return p.realized
}

// Result runs the command if needed and returns its outcome without
// applying the failure policy. The error is set only if the command could
// not be run at all.
func (p *Process) Result() (Result, error) {
	p.realize()
	return p.result, p.startErr
}

// Wait runs the command if needed and reports a nonzero exit unless the
// policy is CheckNever. It marks the Process as checked.
func (p *Process) Wait() error {
	p.realize()
	p.checked = true
	return p.failure(p.opts.Check != CheckNever)
}

// Bool runs the command if needed and reports whether it exited zero.
// Under CheckAlways a nonzero exit is returned as an error and the Process
// stays unchecked, so the next checkpoint reports it too.
func (p *Process) Bool() (bool, error) {
	p.realize()
	if p.startErr != nil {
		p.checked = true
		return false, p.failure(false)
	}
	ok := p.result.ExitCode == 0
	if !ok && p.opts.Check == CheckAlways {
		return false, p.failure(true)
	}
	p.checked = true
	return ok, nil
}

// Text runs the command if needed and returns its output with trailing
// line terminators removed. A Process that was not checked before is
// checked now, which reports a nonzero exit unless the policy is
// CheckNever.
func (p *Process) Text() (string, error) {
	p.realize()
	if !p.checked {
		p.checked = true
		if err := p.failure(p.opts.Check != CheckNever); err != nil {
			return "", err
		}
	}
	if p.startErr != nil {
		return "", p.failure(false)
	}
	return strings.TrimRight(p.result.Stdout, "\r\n"), nil
}

// String implements fmt.Stringer. Failures render as empty output.
func (p *Process) String() string {
	if !p.realized {
		return fmt.Sprintf("<pending %s>", formatArgv(p.argv))
	}
	return strings.TrimRight(p.result.Stdout, "\r\n")
}

// resolve is the implicit observation made by a checkpoint.
func (p *Process) resolve() error {
	if p.checked {
		return nil
	}
	return p.Wait()
}

func (p *Process) realize() {
	if p.realized {
		return
	}
	p.realized = true
	p.result, p.startErr = p.reg.run(p.argv, p.opts)
	if p.reg.observe != nil {
		p.reg.observe(p)
	}
}

// failure returns the error for the current outcome. A command that could
// not be started is always an error; a nonzero exit only when raise is set.
func (p *Process) failure(raise bool) error {
	if p.startErr != nil {
		return &FailureError{Argv: p.Argv(), Code: -1, Err: p.startErr}
	}
	if raise && p.result.ExitCode != 0 {
		return &FailureError{Argv: p.Argv(), Code: p.result.ExitCode}
	}
	return nil
}
