package builtin

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/marcelocantos/piep/internal/value"
)

func registerCore(r *Registry) {
	fn(r, KindCore, "len", "like len(), but also counts sequences and commands (consumes a Stream)", builtinLen)
	fn(r, KindCore, "str", "like str(), but returns the output of a command", builtinStr)
	fn(r, KindCore, "ignore", "ignore all arguments and return True", builtinIgnore)
	fn(r, KindCore, "List", "List(x=None): a List sequence of the elements of x", builtinList)
	fn(r, KindCore, "pretty", "pretty(x, color=None): repr(x), coloured when stdout is a terminal", builtinPretty)
}

func sinkOf(thread *starlark.Thread) value.Sink {
	if reg := value.RegistryOf(thread); reg != nil {
		return reg
	}
	return nil
}

func builtinLen(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &x); err != nil {
		return nil, err
	}
	switch x := x.(type) {
	case *value.Sequence:
		n, err := x.Seq().Len()
		if err != nil {
			return nil, err
		}
		return starlark.MakeInt(n), nil
	case value.Textual:
		s, err := x.Text()
		if err != nil {
			return nil, err
		}
		return starlark.MakeInt(len(s)), nil
	}
	if n := starlark.Len(x); n >= 0 {
		return starlark.MakeInt(n), nil
	}
	iter := starlark.Iterate(x)
	if iter == nil {
		return nil, fmt.Errorf("len: value of type %s has no len", x.Type())
	}
	defer iter.Done()
	n := 0
	var elem starlark.Value
	for iter.Next(&elem) {
		n++
	}
	return starlark.MakeInt(n), nil
}

func builtinStr(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &x); err != nil {
		return nil, err
	}
	s, err := value.Str(x)
	if err != nil {
		return nil, err
	}
	return starlark.String(s), nil
}

func builtinIgnore(_ *starlark.Thread, _ *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	return starlark.True, nil
}

func builtinList(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x starlark.Value = starlark.None
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0, &x); err != nil {
		return nil, err
	}
	s, err := value.Coerce(x, sinkOf(thread))
	if err != nil {
		return nil, err
	}
	list, err := s.Seq().Realize()
	if err != nil {
		return nil, err
	}
	return value.NewSequence(list, sinkOf(thread)), nil
}
