// Package runner executes one pipeline run: it wires the input, the
// preludes and the auxiliary files into a pipeline program and prints the
// resulting sequence.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/marcelocantos/piep/internal/builtin"
	"github.com/marcelocantos/piep/internal/pipeline"
	"github.com/marcelocantos/piep/internal/rules"
	"github.com/marcelocantos/piep/internal/shell"
	"github.com/marcelocantos/piep/internal/value"
)

// Options configures a run.
type Options struct {
	Pipeline string
	// Join separates the members of a list or tuple element on output.
	// Escapes are not decoded here; see DecodeJoin.
	Join string
	// Imports names modules to bring into scope (see builtin.Import).
	Imports []string
	// Preludes are files of Starlark code run in the global scope.
	Preludes []string
	// Evals are snippets of Starlark code run in the global scope after
	// the preludes.
	Evals []string
	// Files are auxiliary inputs, available as files and ff.
	Files []string
	// Input is read instead of stdin when set.
	Input   string
	Read0   bool
	NoInput bool
	Print0  bool

	// Shell holds default options for commands.
	Shell   shell.Options
	Rules   *rules.RuleSet
	Trusted bool

	// Builtins defaults to builtin.Default().
	Builtins *builtin.Registry
}

// Command records one command run by a pipeline.
type Command struct {
	Argv     []string      `json:"argv"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
	Err      string        `json:"error,omitempty"`
}

// Report describes a finished run.
type Report struct {
	ID       string        `json:"id"`
	Pipeline string        `json:"pipeline"`
	Exprs    []string      `json:"exprs,omitempty"`
	Modes    []string      `json:"modes,omitempty"`
	Commands []Command     `json:"commands,omitempty"`
	Output   int           `json:"output"`
	Duration time.Duration `json:"duration"`
}

// Run executes opts.Pipeline, reading stdin unless opts.Input or
// opts.NoInput say otherwise, and writes the output to stdout. Commands
// write their stderr to stderr, as does print(). The report is returned
// even when the run fails, as far as it got.
func Run(ctx context.Context, opts Options, stdin io.Reader, stdout, stderr io.Writer) (*Report, error) {
	start := time.Now()
	report := &Report{ID: uuid.NewString(), Pipeline: opts.Pipeline}
	defer func() { report.Duration = time.Since(start) }()

	log := zerolog.Ctx(ctx).With().Str("run", report.ID).Logger()
	ctx = log.WithContext(ctx)

	plan, err := pipeline.Parse(opts.Pipeline, pipeline.Options{NoInput: opts.NoInput})
	if err != nil {
		return report, err
	}
	for _, e := range plan.Exprs {
		report.Exprs = append(report.Exprs, e.Source)
	}
	report.Modes = plan.Modes()
	log.Debug().Strs("exprs", report.Exprs).Strs("modes", report.Modes).Int("stages", len(plan.Stages)).Msg("parsed pipeline")

	defaults := opts.Shell
	if defaults.Stderr == nil {
		defaults.Stderr = stderr
	}
	reg := shell.NewRegistry(ctx,
		shell.WithDefaults(defaults),
		shell.WithRules(opts.Rules, opts.Trusted),
		shell.WithObserver(func(p *shell.Process) {
			res, err := p.Result()
			c := Command{Argv: p.Argv(), ExitCode: res.ExitCode, Duration: res.Duration}
			if err != nil {
				c.Err = err.Error()
			}
			report.Commands = append(report.Commands, c)
			log.Debug().Strs("argv", c.Argv).Int("exit", c.ExitCode).Dur("took", c.Duration).Msg("command")
		}),
	)

	thread := &starlark.Thread{
		Name:  "piep",
		Print: func(_ *starlark.Thread, msg string) { fmt.Fprintln(stderr, msg) },
	}
	value.WithRegistry(thread, reg)
	stop := context.AfterFunc(ctx, func() { thread.Cancel(context.Cause(ctx).Error()) })
	defer stop()

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()
	open := func(path string) (*value.Sequence, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		closers = append(closers, f)
		return value.NewLines(records(f, delimiter(opts.Read0)), nil, reg), nil
	}

	env, err := environment(thread, opts, reg, open)
	if err != nil {
		return report, err
	}
	prog, err := pipeline.Compile(plan, env)
	if err != nil {
		return report, err
	}

	var input *value.Sequence
	switch {
	case opts.NoInput:
		input = value.NewList(nil, reg)
	case opts.Input != "":
		if input, err = open(opts.Input); err != nil {
			return report, err
		}
	default:
		input = value.NewLines(records(stdin, delimiter(opts.Read0)), nil, reg)
	}

	out, err := prog.Run(ctx, thread, input)
	if err != nil {
		return report, err
	}
	defer out.Seq().Close()

	pr := newPrinter(stdout, opts.Join, opts.Print0)
	for v, err := range out.Seq().All() {
		if err != nil {
			pr.flush()
			return report, err
		}
		if err := pr.print(v); err != nil {
			pr.flush()
			return report, err
		}
		report.Output = pr.count
	}
	if err := pr.flush(); err != nil {
		return report, err
	}
	if err := reg.Checkpoint(); err != nil {
		return report, err
	}
	if err := out.Err(); err != nil {
		return report, err
	}
	return report, nil
}

var preludeOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

func delimiter(read0 bool) byte {
	if read0 {
		return 0
	}
	return '\n'
}

// environment builds the global scope of the run: builtins, imported
// modules, preludes, snippets and auxiliary files, in that order.
func environment(thread *starlark.Thread, opts Options, reg *shell.Registry, open func(string) (*value.Sequence, error)) (starlark.StringDict, error) {
	builtins := opts.Builtins
	if builtins == nil {
		builtins = builtin.Default()
	}
	env := builtins.Predeclared()

	for _, name := range opts.Imports {
		m, err := builtin.Import(name)
		if err != nil {
			return nil, err
		}
		env[name] = m
	}

	// Prelude globals are not frozen; expressions may mutate them.
	exec := func(filename string, src any) error {
		_, prog, err := starlark.SourceProgramOptions(preludeOptions, filename, src, env.Has)
		if err != nil {
			return fmt.Errorf("while evaluating %s: %w", filename, err)
		}
		globals, err := prog.Init(thread, env)
		if err != nil {
			return fmt.Errorf("while evaluating %s: %w", filename, err)
		}
		for name, v := range globals {
			env[name] = v
		}
		return reg.Checkpoint()
	}
	for _, path := range opts.Preludes {
		if err := exec(path, nil); err != nil {
			return nil, err
		}
	}
	for i, src := range opts.Evals {
		if err := exec(fmt.Sprintf("<eval %d>", i+1), src); err != nil {
			return nil, err
		}
	}

	files := make([]starlark.Value, len(opts.Files))
	for i, path := range opts.Files {
		f, err := open(path)
		if err != nil {
			return nil, err
		}
		files[i] = f
	}
	env[pipeline.NameFiles] = starlark.NewList(files)
	if len(files) > 0 {
		env[pipeline.NameFirst] = files[0]
	}
	return env, nil
}
