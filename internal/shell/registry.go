package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/marcelocantos/piep/internal/rules"
)

// Options controls a single command.
type Options struct {
	Check Check
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env entries (KEY=VALUE) are added to the inherited environment.
	Env []string
	// Input is fed to the command's stdin. Without it stdin is empty.
	Input string
	// Stderr receives the command's stderr. Nil uses the registry default.
	Stderr io.Writer
	// Timeout kills the command after the given duration. Zero uses the
	// registry default; a negative value disables it.
	Timeout time.Duration
}

// Registry tracks the processes spawned by one pipeline run.
type Registry struct {
	ctx      context.Context
	defaults Options
	rules    *rules.RuleSet
	trusted  bool
	observe  func(*Process)

	pending []*Process
	failed  error
}

// Option configures a Registry.
type Option func(*Registry)

// WithDefaults sets the options applied to fields a spawn leaves unset.
func WithDefaults(opts Options) Option {
	return func(r *Registry) { r.defaults = opts }
}

// WithRules makes Spawn reject commands the rule set blocks. When trusted
// is true only hardcoded rules apply.
func WithRules(rs *rules.RuleSet, trusted bool) Option {
	return func(r *Registry) {
		r.rules = rs
		r.trusted = trusted
	}
}

// WithObserver registers fn to be called after each command runs.
func WithObserver(fn func(*Process)) Option {
	return func(r *Registry) { r.observe = fn }
}

// NewRegistry creates a registry whose commands are bound to ctx.
func NewRegistry(ctx context.Context, opts ...Option) *Registry {
	r := &Registry{ctx: ctx}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Spawn creates a pending Process for argv. Nothing is started until the
// Process is observed. Rules are checked here so a blocked command fails at
// the expression that named it.
func (r *Registry) Spawn(argv []string, opts Options) (*Process, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}
	if err := r.rules.Check(argv, r.trusted); err != nil {
		return nil, err
	}
	if opts.Check == CheckDefault {
		opts.Check = r.defaults.Check
	}
	if opts.Stderr == nil {
		opts.Stderr = r.defaults.Stderr
	}
	if opts.Timeout == 0 {
		opts.Timeout = r.defaults.Timeout
	}
	p := &Process{reg: r, argv: slices.Clone(argv), opts: opts}
	r.pending = append(r.pending, p)
	return p, nil
}

// Fail records an error raised where the caller had no way to return it,
// such as truth testing inside an expression. The next Checkpoint returns
// it. Only the first error is kept.
func (r *Registry) Fail(err error) {
	if r.failed == nil {
		r.failed = err
	}
}

// Checkpoint resolves every pending Process that has not been checked,
// running it if necessary, and returns the first failure. An error
// recorded with Fail takes precedence. The pending set is cleared whether
// or not a failure occurs.
func (r *Registry) Checkpoint() error {
	pending := r.pending
	r.pending = nil
	if err := r.failed; err != nil {
		r.failed = nil
		return err
	}
	for _, p := range pending {
		if err := p.resolve(); err != nil {
			return err
		}
	}
	return nil
}

// Pending returns the number of processes spawned since the last checkpoint.
func (r *Registry) Pending() int {
	return len(r.pending)
}

// run executes argv and waits for it. A nonzero exit is reported in the
// Result; the error is set only if the command could not run.
func (r *Registry) run(argv []string, opts Options) (Result, error) {
	ctx := r.ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	if opts.Input != "" {
		cmd.Stdin = strings.NewReader(opts.Input)
	}
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if opts.Stderr != nil {
		cmd.Stderr = opts.Stderr
	} else {
		cmd.Stderr = os.Stderr
	}

	start := time.Now()
	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Duration: time.Since(start)}
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, fmt.Errorf("%s: %w", argv[0], ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	res.ExitCode = -1
	return res, err
}
