package builtin

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/shlex"
	"go.starlark.net/starlark"

	"github.com/marcelocantos/piep/internal/shell"
	"github.com/marcelocantos/piep/internal/value"
)

func registerShell(r *Registry) {
	fn(r, KindShell, "sh", "sh(*argv, check=None, cwd=, env=, input=, quiet=False, timeout=): run a command lazily; behaves like its output", builtinSh)
	fn(r, KindShell, "spawn", "like sh, but returns True", builtinSpawn)
	fn(r, KindShell, "shellsplit", "split a string the way a shell would", builtinShellSplit)
}

func builtinSh(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	reg := value.RegistryOf(thread)
	if reg == nil {
		return nil, fmt.Errorf("%s: commands are not available here", b.Name())
	}
	argv, err := argvOf(args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	opts, err := shellOptions(b.Name(), kwargs)
	if err != nil {
		return nil, err
	}
	p, err := reg.Spawn(argv, opts)
	if err != nil {
		return nil, err
	}
	return value.NewProcess(p, reg), nil
}

func builtinSpawn(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if _, err := builtinSh(thread, b, args, kwargs); err != nil {
		return nil, err
	}
	return starlark.True, nil
}

// argvOf flattens the positional arguments of sh into an argument vector.
// A single list or tuple argument supplies the whole vector.
func argvOf(args starlark.Tuple) ([]string, error) {
	if len(args) == 1 {
		switch v := args[0].(type) {
		case *starlark.List:
			args = make(starlark.Tuple, v.Len())
			for i := range args {
				args[i] = v.Index(i)
			}
		case starlark.Tuple:
			args = v
		}
	}
	if len(args) == 0 {
		return nil, errors.New("missing command")
	}
	argv := make([]string, len(args))
	for i, a := range args {
		s, err := value.Str(a)
		if err != nil {
			return nil, err
		}
		argv[i] = s
	}
	return argv, nil
}

func shellOptions(name string, kwargs []starlark.Tuple) (shell.Options, error) {
	var (
		opts    shell.Options
		check   starlark.Value = starlark.None
		cwd     string
		env     *starlark.Dict
		input   starlark.Value = starlark.None
		quiet   bool
		timeout starlark.Value = starlark.None
	)
	if err := starlark.UnpackArgs(name, nil, kwargs,
		"check?", &check,
		"cwd?", &cwd,
		"env?", &env,
		"input?", &input,
		"quiet?", &quiet,
		"timeout?", &timeout,
	); err != nil {
		return opts, err
	}

	switch check := check.(type) {
	case starlark.NoneType:
		opts.Check = shell.CheckDefault
	case starlark.Bool:
		if check {
			opts.Check = shell.CheckAlways
		} else {
			opts.Check = shell.CheckNever
		}
	default:
		return opts, fmt.Errorf("%s: check must be None or bool, got %s", name, check.Type())
	}

	opts.Dir = cwd
	if env != nil {
		for _, kv := range env.Items() {
			k, ok := starlark.AsString(kv[0])
			if !ok {
				return opts, fmt.Errorf("%s: env keys must be strings, got %s", name, kv[0].Type())
			}
			v, err := value.Str(kv[1])
			if err != nil {
				return opts, err
			}
			opts.Env = append(opts.Env, k+"="+v)
		}
	}
	if input != starlark.None {
		s, err := value.Str(input)
		if err != nil {
			return opts, err
		}
		opts.Input = s
	}
	if quiet {
		opts.Stderr = io.Discard
	}
	if timeout != starlark.None {
		secs, ok := starlark.AsFloat(timeout)
		if !ok {
			return opts, fmt.Errorf("%s: timeout must be a number, got %s", name, timeout.Type())
		}
		if secs <= 0 {
			opts.Timeout = -1
		} else {
			opts.Timeout = time.Duration(secs * float64(time.Second))
		}
	}
	return opts, nil
}

func builtinShellSplit(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var s starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &s); err != nil {
		return nil, err
	}
	text, err := value.Str(s)
	if err != nil {
		return nil, err
	}
	words, err := shlex.Split(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	items := make([]starlark.Value, len(words))
	for i, w := range words {
		items[i] = starlark.String(w)
	}
	return value.NewList(items, sinkOf(thread)), nil
}
