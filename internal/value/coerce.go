package value

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/marcelocantos/piep/internal/seq"
)

// Coerce turns the result of a whole-sequence expression into a Sequence:
//   - a Sequence is returned as is;
//   - a string, or a Textual value, becomes a List of its lines;
//   - a list or tuple becomes a List of its elements;
//   - None becomes an empty List;
//   - any other iterable becomes a Stream over it;
//   - any other value becomes a one-element List.
func Coerce(v starlark.Value, sink Sink) (*Sequence, error) {
	switch v := v.(type) {
	case *Sequence:
		return v, nil
	case starlark.NoneType:
		return NewList(nil, sink), nil
	case *starlark.List:
		items := make([]starlark.Value, v.Len())
		for i := range items {
			items[i] = v.Index(i)
		}
		return NewList(items, sink), nil
	case starlark.Tuple:
		return NewList(append([]starlark.Value(nil), v...), sink), nil
	}
	if text, ok, err := Text(v); ok {
		if err != nil {
			return nil, err
		}
		return NewList(stringValues(SplitLines(text)), sink), nil
	}
	if it, ok := v.(starlark.Iterable); ok {
		return NewSequence(seq.NewStream(elements(it), nil), sink), nil
	}
	return NewList([]starlark.Value{v}, sink), nil
}

// Slice implements x[lo:hi:step] for the values a pipeline handles. A
// Sequence slices lazily; a Textual value slices its text; strings, lists
// and tuples slice as usual. Bounds are ints or None, and a zero or None
// step means 1.
func Slice(x, lo, hi, step starlark.Value) (starlark.Value, error) {
	start, err := bound(lo, "start")
	if err != nil {
		return nil, err
	}
	stop, err := bound(hi, "stop")
	if err != nil {
		return nil, err
	}
	by := 1
	if p, err := bound(step, "step"); err != nil {
		return nil, err
	} else if p != nil && *p != 0 {
		by = *p
	}

	switch v := x.(type) {
	case *Sequence:
		return v.derive(v.seq.Slice(start, stop, by))
	case Textual:
		text, err := v.Text()
		if err != nil {
			return nil, err
		}
		x = starlark.String(text)
	}
	sliceable, ok := x.(starlark.Sliceable)
	if !ok {
		return nil, fmt.Errorf("invalid slice operand %s", x.Type())
	}
	i, j := seq.Indices(start, stop, by, sliceable.Len())
	if by > 0 && j < i || by < 0 && j > i {
		j = i
	}
	return sliceable.Slice(i, j, by), nil
}

func bound(v starlark.Value, what string) (*int, error) {
	if v == nil || v == starlark.None {
		return nil, nil
	}
	i, err := starlark.AsInt32(v)
	if err != nil {
		return nil, fmt.Errorf("invalid slice %s: %w", what, err)
	}
	return &i, nil
}
