package builtin

import (
	"fmt"
	"os"
	"strings"

	"go.starlark.net/starlark"
	"golang.org/x/term"

	"github.com/marcelocantos/piep/internal/value"
)

const (
	ansiReset  = "\x1b[0m"
	ansiString = "\x1b[32m"
	ansiNumber = "\x1b[36m"
	ansiConst  = "\x1b[35m"
)

// builtinPretty renders repr(x), coloured by type. color=None colours only
// when stdout is a terminal and NO_COLOR is unset.
func builtinPretty(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		x     starlark.Value
		color starlark.Value = starlark.None
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "x", &x, "color?", &color); err != nil {
		return nil, err
	}
	var on bool
	switch c := color.(type) {
	case starlark.NoneType:
		on = os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(os.Stdout.Fd()))
	case starlark.Bool:
		on = bool(c)
	default:
		return nil, fmt.Errorf("%s: color must be None or bool, got %s", b.Name(), color.Type())
	}
	pw := &prettyWriter{color: on}
	if err := pw.writeValue(x); err != nil {
		return nil, err
	}
	return starlark.String(pw.String()), nil
}

type prettyWriter struct {
	strings.Builder
	color bool
}

func (w *prettyWriter) paint(code, s string) {
	if w.color {
		w.WriteString(code + s + ansiReset)
		return
	}
	w.WriteString(s)
}

func (w *prettyWriter) writeValue(x starlark.Value) error {
	switch v := x.(type) {
	case starlark.String:
		w.paint(ansiString, v.String())
	case value.Textual:
		s, err := v.Text()
		if err != nil {
			return err
		}
		w.paint(ansiString, starlark.String(s).String())
	case starlark.Int, starlark.Float:
		w.paint(ansiNumber, v.String())
	case starlark.Bool, starlark.NoneType:
		w.paint(ansiConst, v.String())
	case *starlark.List:
		items := make([]starlark.Value, v.Len())
		for i := range items {
			items[i] = v.Index(i)
		}
		return w.items("[", items, "]")
	case starlark.Tuple:
		if len(v) == 1 {
			return w.items("(", v, ",)")
		}
		return w.items("(", v, ")")
	case *starlark.Dict:
		w.WriteString("{")
		for i, kv := range v.Items() {
			if i > 0 {
				w.WriteString(", ")
			}
			if err := w.writeValue(kv[0]); err != nil {
				return err
			}
			w.WriteString(": ")
			if err := w.writeValue(kv[1]); err != nil {
				return err
			}
		}
		w.WriteString("}")
	case *value.Sequence:
		if v.Seq().IsStream() {
			w.WriteString(v.String())
			return nil
		}
		items, err := v.Seq().Items()
		if err != nil {
			return err
		}
		return w.items("List([", items, "])")
	default:
		w.WriteString(x.String())
	}
	return nil
}

func (w *prettyWriter) items(open string, items []starlark.Value, end string) error {
	w.WriteString(open)
	for i, item := range items {
		if i > 0 {
			w.WriteString(", ")
		}
		if err := w.writeValue(item); err != nil {
			return err
		}
	}
	w.WriteString(end)
	return nil
}
