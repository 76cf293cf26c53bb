package value

import (
	"fmt"
	"slices"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/marcelocantos/piep/internal/seq"
)

var sequenceMethods = map[string]*starlark.Builtin{
	"divide":       starlark.NewBuiltin("divide", seqDivide),
	"filter":       starlark.NewBuiltin("filter", seqFilter),
	"flatten":      starlark.NewBuiltin("flatten", seqFlatten),
	"join":         starlark.NewBuiltin("join", seqJoin),
	"len":          starlark.NewBuiltin("len", seqLen),
	"list":         starlark.NewBuiltin("list", seqList),
	"map":          starlark.NewBuiltin("map", seqMap),
	"merge":        starlark.NewBuiltin("merge", seqMerge),
	"reverse":      starlark.NewBuiltin("reverse", seqReverse),
	"slice":        starlark.NewBuiltin("slice", seqSlice),
	"sort":         starlark.NewBuiltin("sort", seqSort),
	"sortby":       starlark.NewBuiltin("sortby", seqSortBy),
	"uniq":         starlark.NewBuiltin("uniq", seqUniq),
	"zip":          starlark.NewBuiltin("zip", seqZip),
	"zip_shortest": starlark.NewBuiltin("zip_shortest", seqZip),
}

var sequenceMethodNames = func() []string {
	names := make([]string, 0, len(sequenceMethods))
	for name := range sequenceMethods {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}()

func receiver(b *starlark.Builtin) *Sequence {
	return b.Receiver().(*Sequence)
}

// map(fn, index=False): fn(item) or fn(item, i) per element, with the
// filtering rule applied to the result.
func seqMap(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fn starlark.Callable
	var index bool
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "fn", &fn, "index?", &index); err != nil {
		return nil, err
	}
	s := receiver(b)
	return s.derive(s.seq.Map(func(item starlark.Value, i int) (starlark.Value, bool, error) {
		callArgs := starlark.Tuple{item}
		if index {
			callArgs = append(callArgs, starlark.MakeInt(i))
		}
		v, err := starlark.Call(thread, fn, callArgs, nil)
		if err != nil {
			return nil, false, err
		}
		v, keep := Keep(v, item)
		return v, keep, nil
	}))
}

// filter(fn=None): keeps elements for which fn(item) is truthy, or that
// are truthy themselves.
func seqFilter(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fn starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "fn?", &fn); err != nil {
		return nil, err
	}
	s := receiver(b)
	return s.derive(s.seq.Filter(func(item starlark.Value) (bool, error) {
		return predicate(thread, fn, item)
	}))
}

func predicate(thread *starlark.Thread, fn, item starlark.Value) (bool, error) {
	if fn == starlark.None {
		return bool(item.Truth()), nil
	}
	v, err := starlark.Call(thread, fn, starlark.Tuple{item}, nil)
	if err != nil {
		return false, err
	}
	return bool(v.Truth()), nil
}

// flatten(): splits every text element into its lines.
func seqFlatten(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	s := receiver(b)
	return s.derive(s.seq.Flatten(func(item starlark.Value) ([]starlark.Value, error) {
		text, ok, err := Text(item)
		if err != nil {
			return nil, err
		}
		if !ok {
			return []starlark.Value{item}, nil
		}
		return stringValues(SplitLines(text)), nil
	}))
}

// merge(): concatenates the elements of every iterable element, one level
// deep. Strings and other scalars are kept as single elements.
func seqMerge(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	s := receiver(b)
	return s.derive(s.seq.Merge(func(item starlark.Value) (seq.Puller[starlark.Value], error) {
		return elements(item), nil
	}))
}

func elements(v starlark.Value) seq.Puller[starlark.Value] {
	switch v := v.(type) {
	case *Sequence:
		return v.seq.Pull()
	case starlark.String, Textual:
		return seq.NewList([]starlark.Value{v}).Pull()
	case starlark.Iterable:
		it := v.Iterate()
		done := false
		return func() (starlark.Value, bool, error) {
			var x starlark.Value
			if !done && it.Next(&x) {
				return x, true, nil
			}
			if !done {
				done = true
				it.Done()
			}
			return nil, false, nil
		}
	}
	return seq.NewList([]starlark.Value{v}).Pull()
}

// divide(fn, keep_header=True): groups elements, starting a new List each
// time fn(item) is truthy.
func seqDivide(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fn starlark.Callable
	keepHeader := true
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "fn", &fn, "keep_header?", &keepHeader); err != nil {
		return nil, err
	}
	s := receiver(b)
	groups, err := seq.Divide(s.seq, func(item starlark.Value) (bool, error) {
		return predicate(thread, fn, item)
	}, keepHeader)
	if err != nil {
		return nil, err
	}
	return s.derive(seq.Convert(groups, func(g []starlark.Value) (starlark.Value, error) {
		return NewList(g, s.sink), nil
	}))
}

// zip(*others) pads with None to the longest input; zip_shortest(*others)
// stops at the shortest. Elements are tuples.
func seqZip(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	s := receiver(b)
	others := make([]*seq.Sequence[starlark.Value], len(args))
	for i, arg := range args {
		o, err := Coerce(arg, s.sink)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", b.Name(), i+1, err)
		}
		others[i] = o.seq
	}
	var rows *seq.Sequence[[]starlark.Value]
	var err error
	if b.Name() == "zip_shortest" {
		rows, err = seq.ZipShortest(s.seq, others...)
	} else {
		rows, err = seq.Zip(s.seq, starlark.Value(starlark.None), others...)
	}
	if err != nil {
		return nil, err
	}
	return s.derive(seq.Convert(rows, func(row []starlark.Value) (starlark.Value, error) {
		return starlark.Tuple(row), nil
	}))
}

// sort(uniq=False, reverse=False)
func seqSort(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var uniq, reverse bool
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "uniq?", &uniq, "reverse?", &reverse); err != nil {
		return nil, err
	}
	s := receiver(b)
	src := s.seq
	if uniq {
		var err error
		if src, err = seq.Uniq(src, false, uniqKey); err != nil {
			return nil, err
		}
	}
	return s.derive(seq.SortBy(src, textOf, ordering(reverse)))
}

// sortby(fn=None, key=None, attr=None, method=None, reverse=False): exactly
// one selector must be given.
func seqSortBy(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fn, key starlark.Value
	var attr, method string
	var reverse bool
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"fn??", &fn, "key??", &key, "attr??", &attr, "method??", &method, "reverse?", &reverse); err != nil {
		return nil, err
	}
	given := 0
	for _, set := range []bool{fn != nil, key != nil, attr != "", method != ""} {
		if set {
			given++
		}
	}
	if given != 1 {
		return nil, fmt.Errorf("%s: exactly one of fn, key, attr or method is required (got %d)", b.Name(), given)
	}

	var selector func(starlark.Value) (starlark.Value, error)
	switch {
	case fn != nil:
		selector = func(v starlark.Value) (starlark.Value, error) {
			return starlark.Call(thread, fn, starlark.Tuple{v}, nil)
		}
	case key != nil:
		selector = func(v starlark.Value) (starlark.Value, error) { return Index(v, key) }
	case attr != "":
		selector = func(v starlark.Value) (starlark.Value, error) { return attrOf(v, attr) }
	default:
		selector = func(v starlark.Value) (starlark.Value, error) {
			m, err := attrOf(v, method)
			if err != nil {
				return nil, err
			}
			return starlark.Call(thread, m, nil, nil)
		}
	}
	s := receiver(b)
	return s.derive(seq.SortBy(s.seq, func(v starlark.Value) (starlark.Value, error) {
		k, err := selector(v)
		if err != nil {
			return nil, err
		}
		return textOf(k)
	}, ordering(reverse)))
}

// reverse()
func seqReverse(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	s := receiver(b)
	return s.derive(s.seq.Reverse())
}

// uniq(stable=False)
func seqUniq(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var stable bool
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "stable?", &stable); err != nil {
		return nil, err
	}
	s := receiver(b)
	return s.derive(seq.Uniq(s.seq, stable, uniqKey))
}

// len(): counts the elements, consuming a Stream.
func seqLen(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	n, err := receiver(b).seq.Len()
	if err != nil {
		return nil, err
	}
	return starlark.MakeInt(n), nil
}

// join(sep): the elements as text, separated by sep.
func seqJoin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var sep string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &sep); err != nil {
		return nil, err
	}
	items, err := receiver(b).seq.Items()
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(items))
	for i, v := range items {
		if parts[i], err = Str(v); err != nil {
			return nil, err
		}
	}
	return starlark.String(strings.Join(parts, sep)), nil
}

// slice(start=None, stop=None, step=None)
func seqSlice(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	start, stop, step := starlark.Value(starlark.None), starlark.Value(starlark.None), starlark.Value(starlark.None)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "start?", &start, "stop?", &stop, "step?", &step); err != nil {
		return nil, err
	}
	return Slice(receiver(b), start, stop, step)
}

// list(): realizes a Stream into a List.
func seqList(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	s := receiver(b)
	return s.derive(s.seq.Realize())
}

func ordering(reverse bool) func(a, b starlark.Value) (int, error) {
	return func(a, b starlark.Value) (int, error) {
		c, err := Compare(a, b)
		if reverse {
			c = -c
		}
		return c, err
	}
}

// Compare orders two values with Starlark's < operator.
func Compare(a, b starlark.Value) (int, error) {
	if lt, err := starlark.Compare(syntax.LT, a, b); err != nil || lt {
		return -1, err
	}
	if gt, err := starlark.Compare(syntax.LT, b, a); err != nil || gt {
		return 1, err
	}
	return 0, nil
}

// uniqKey identifies a value by type and representation.
func uniqKey(v starlark.Value) (string, error) {
	v, err := textOf(v)
	if err != nil {
		return "", err
	}
	return v.Type() + "\x00" + v.String(), nil
}

func attrOf(x starlark.Value, name string) (starlark.Value, error) {
	if h, ok := x.(starlark.HasAttrs); ok {
		v, err := h.Attr(name)
		if err != nil {
			return nil, err
		}
		if v != nil {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%s has no .%s attribute", x.Type(), name)
}
