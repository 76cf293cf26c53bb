package value

import (
	"fmt"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/marcelocantos/piep/internal/seq"
)

// Sequence is the Starlark face of a seq.Sequence: a List or a Stream of
// values, bound to pp in whole-sequence expressions.
type Sequence struct {
	seq  *seq.Sequence[starlark.Value]
	sink Sink
	err  error
}

var (
	_ starlark.Iterable  = (*Sequence)(nil)
	_ starlark.HasAttrs  = (*Sequence)(nil)
	_ starlark.HasBinary = (*Sequence)(nil)
)

// NewSequence wraps s. Errors that cannot be returned directly are sent
// to sink, which may be nil.
func NewSequence(s *seq.Sequence[starlark.Value], sink Sink) *Sequence {
	return &Sequence{seq: s, sink: sink}
}

// NewList returns a List Sequence of items.
func NewList(items []starlark.Value, sink Sink) *Sequence {
	return NewSequence(seq.NewList(items), sink)
}

// NewLines returns a Stream of the lines produced by next.
func NewLines(next seq.Puller[string], release func(), sink Sink) *Sequence {
	return NewSequence(seq.NewStream(func() (starlark.Value, bool, error) {
		line, ok, err := next()
		if !ok || err != nil {
			return nil, false, err
		}
		return starlark.String(line), true, nil
	}, release), sink)
}

// Seq returns the underlying sequence.
func (s *Sequence) Seq() *seq.Sequence[starlark.Value] {
	return s.seq
}

// Err returns the first error recorded while no Sink was attached.
func (s *Sequence) Err() error {
	return s.err
}

func (s *Sequence) fail(err error) {
	if s.sink != nil {
		s.sink.Fail(err)
		return
	}
	if s.err == nil {
		s.err = err
	}
}

// derive wraps the result of an operation on s.
func (s *Sequence) derive(out *seq.Sequence[starlark.Value], err error) (starlark.Value, error) {
	if err != nil {
		return nil, err
	}
	return NewSequence(out, s.sink), nil
}

func (s *Sequence) String() string {
	if s.seq.IsStream() {
		return "Stream(...)"
	}
	items, _ := s.seq.Items()
	var b strings.Builder
	b.WriteString("List([")
	for i, v := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.String())
	}
	b.WriteString("])")
	return b.String()
}

func (s *Sequence) Type() string {
	if s.seq.IsStream() {
		return "Stream"
	}
	return "List"
}

func (s *Sequence) Freeze() {}

// Truth reports whether the sequence is non-empty without consuming it.
func (s *Sequence) Truth() starlark.Bool {
	ok, err := s.seq.Truth()
	if err != nil {
		s.fail(err)
	}
	return starlark.Bool(ok)
}

func (s *Sequence) Hash() (uint32, error) {
	return 0, fmt.Errorf("unhashable type: %s", s.Type())
}

func (s *Sequence) Iterate() starlark.Iterator {
	return &iterator{owner: s, next: s.seq.Pull()}
}

// Binary implements + by realizing both operands into a List, and "in"
// by scanning the elements, which consumes a Stream up to the first match.
func (s *Sequence) Binary(op syntax.Token, y starlark.Value, side starlark.Side) (starlark.Value, error) {
	switch {
	case op == syntax.IN && side == starlark.Right:
		return s.contains(y)
	case op != syntax.PLUS:
		return nil, nil
	}
	var other *Sequence
	switch y.(type) {
	case *Sequence, *starlark.List, starlark.Tuple:
		var err error
		if other, err = Coerce(y, s.sink); err != nil {
			return nil, err
		}
	default:
		return nil, nil
	}
	left, right := s, other
	if side == starlark.Right {
		left, right = other, s
	}
	a, err := left.seq.Items()
	if err != nil {
		return nil, err
	}
	b, err := right.seq.Items()
	if err != nil {
		return nil, err
	}
	items := make([]starlark.Value, 0, len(a)+len(b))
	items = append(append(items, a...), b...)
	return NewList(items, s.sink), nil
}

func (s *Sequence) contains(x starlark.Value) (starlark.Value, error) {
	for v, err := range s.seq.All() {
		if err != nil {
			return nil, err
		}
		eq, err := CompareOp("==", x, v)
		if err != nil {
			return nil, err
		}
		if eq {
			return starlark.True, nil
		}
	}
	return starlark.False, nil
}

func (s *Sequence) Attr(name string) (starlark.Value, error) {
	b, ok := sequenceMethods[name]
	if !ok {
		return nil, nil
	}
	return b.BindReceiver(s), nil
}

func (s *Sequence) AttrNames() []string {
	return sequenceMethodNames
}

type iterator struct {
	owner *Sequence
	next  seq.Puller[starlark.Value]
}

func (it *iterator) Next(p *starlark.Value) bool {
	v, ok, err := it.next()
	if err != nil {
		it.owner.fail(err)
		return false
	}
	if ok {
		*p = v
	}
	return ok
}

func (it *iterator) Done() {}
