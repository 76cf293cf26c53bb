package value

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/marcelocantos/piep/internal/seq"
)

// Index implements x[k]. A Sequence is indexed without realizing more of
// it than the index needs, and a Textual value is indexed by its text.
// Other values index as usual.
func Index(x, k starlark.Value) (starlark.Value, error) {
	switch v := x.(type) {
	case *Sequence:
		i, err := starlark.AsInt32(k)
		if err != nil {
			return nil, fmt.Errorf("%s index: %w", v.Type(), err)
		}
		return v.seq.Get(i)
	case Textual:
		s, err := v.Text()
		if err != nil {
			return nil, err
		}
		x = starlark.String(s)
	}
	switch v := x.(type) {
	case starlark.Mapping:
		val, found, err := v.Get(k)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("key %s not in %s", k, v.Type())
		}
		return val, nil
	case starlark.Indexable:
		i, err := starlark.AsInt32(k)
		if err != nil {
			return nil, fmt.Errorf("%s index: %w", v.Type(), err)
		}
		j := i
		if j < 0 {
			j += v.Len()
		}
		if j < 0 || j >= v.Len() {
			return nil, &seq.IndexError{Index: i}
		}
		return v.Index(j), nil
	}
	return nil, fmt.Errorf("%s is not indexable", x.Type())
}

// comparisons maps the operators CompareOp accepts to their tokens.
var comparisons = map[string]syntax.Token{
	"==": syntax.EQL,
	"!=": syntax.NEQ,
	"<":  syntax.LT,
	"<=": syntax.LE,
	">":  syntax.GT,
	">=": syntax.GE,
}

// CompareOp applies the comparison op to x and y, comparing Textual
// operands by their text.
func CompareOp(op string, x, y starlark.Value) (bool, error) {
	tok, ok := comparisons[op]
	if !ok {
		return false, fmt.Errorf("unknown comparison %q", op)
	}
	x, err := textOf(x)
	if err != nil {
		return false, err
	}
	if y, err = textOf(y); err != nil {
		return false, err
	}
	return starlark.Compare(tok, x, y)
}

// textOf replaces a Textual value by its text.
func textOf(v starlark.Value) (starlark.Value, error) {
	if t, ok := v.(Textual); ok {
		s, err := t.Text()
		if err != nil {
			return nil, err
		}
		return starlark.String(s), nil
	}
	return v, nil
}
