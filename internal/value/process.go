package value

import (
	"slices"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/marcelocantos/piep/internal/shell"
)

// Textual is a value that stands for text computed on demand. Operators
// and string methods applied to a Textual value act on its text.
type Textual interface {
	starlark.Value
	Text() (string, error)
}

// Process is the value of sh(...): a deferred command that behaves like
// the string of its trimmed output.
type Process struct {
	proc *shell.Process
	sink Sink
}

var (
	_ Textual             = (*Process)(nil)
	_ starlark.HasAttrs   = (*Process)(nil)
	_ starlark.HasBinary  = (*Process)(nil)
	_ starlark.Comparable = (*Process)(nil)
	_ starlark.Indexable  = (*Process)(nil)
)

// NewProcess wraps p.
func NewProcess(p *shell.Process, sink Sink) *Process {
	return &Process{proc: p, sink: sink}
}

// Proc returns the wrapped process.
func (p *Process) Proc() *shell.Process {
	return p.proc
}

func (p *Process) Text() (string, error) {
	return p.proc.Text()
}

// text is Text for contexts without an error return.
func (p *Process) text() string {
	s, err := p.proc.Text()
	if err != nil && p.sink != nil {
		p.sink.Fail(err)
	}
	return s
}

func (p *Process) String() string { return p.text() }
func (p *Process) Type() string   { return "command" }
func (p *Process) Freeze()        {}

// Truth runs the command and reports whether it exited zero.
func (p *Process) Truth() starlark.Bool {
	ok, err := p.proc.Bool()
	if err != nil && p.sink != nil {
		p.sink.Fail(err)
	}
	return starlark.Bool(ok)
}

func (p *Process) Hash() (uint32, error) {
	s, err := p.Text()
	if err != nil {
		return 0, err
	}
	return starlark.String(s).Hash()
}

var processAttrs = []string{"argv", "status", "stdout", "succeeded", "wait"}

// Attr exposes the command's own attributes, then the methods of its text.
func (p *Process) Attr(name string) (starlark.Value, error) {
	switch name {
	case "argv":
		argv := p.proc.Argv()
		t := make(starlark.Tuple, len(argv))
		for i, a := range argv {
			t[i] = starlark.String(a)
		}
		return t, nil
	case "status", "stdout", "succeeded":
		res, err := p.proc.Result()
		if err != nil {
			return nil, err
		}
		switch name {
		case "status":
			return starlark.MakeInt(res.ExitCode), nil
		case "stdout":
			return starlark.String(res.Stdout), nil
		}
		return starlark.Bool(res.ExitCode == 0), nil
	case "wait":
		return starlark.NewBuiltin("wait", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
				return nil, err
			}
			return starlark.None, p.proc.Wait()
		}), nil
	}
	s, err := p.Text()
	if err != nil {
		return nil, err
	}
	return starlark.String(s).Attr(name)
}

func (p *Process) AttrNames() []string {
	names := slices.Concat(processAttrs, starlark.String("").AttrNames())
	slices.Sort(names)
	return slices.Compact(names)
}

// Binary applies op to the command's text.
func (p *Process) Binary(op syntax.Token, y starlark.Value, side starlark.Side) (starlark.Value, error) {
	s, err := p.Text()
	if err != nil {
		return nil, err
	}
	if side == starlark.Left {
		return starlark.Binary(op, starlark.String(s), y)
	}
	return starlark.Binary(op, y, starlark.String(s))
}

// CompareSameType compares two commands by their text.
func (p *Process) CompareSameType(op syntax.Token, y starlark.Value, depth int) (bool, error) {
	a, err := p.Text()
	if err != nil {
		return false, err
	}
	b, err := y.(*Process).Text()
	if err != nil {
		return false, err
	}
	return starlark.CompareDepth(op, starlark.String(a), starlark.String(b), depth)
}

func (p *Process) Len() int { return len(p.text()) }

func (p *Process) Index(i int) starlark.Value {
	return starlark.String(p.text()).Index(i)
}
