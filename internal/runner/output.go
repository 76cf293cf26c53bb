package runner

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"go.starlark.net/starlark"

	"github.com/marcelocantos/piep/internal/value"
)

// DecodeJoin interprets backslash escapes such as \t in a join separator.
// A separator that does not decode is used as written.
func DecodeJoin(sep string) string {
	s, err := strconv.Unquote(`"` + strings.ReplaceAll(sep, `"`, `\"`) + `"`)
	if err != nil {
		return sep
	}
	return s
}

// printer writes output records.
type printer struct {
	w      *bufio.Writer
	join   string
	print0 bool
	count  int
}

func newPrinter(w io.Writer, join string, print0 bool) *printer {
	return &printer{w: bufio.NewWriter(w), join: join, print0: print0}
}

// format renders an output element. None is skipped, and lists, tuples and
// List sequences are joined with the separator.
func (p *printer) format(v starlark.Value) (string, bool, error) {
	var parts []starlark.Value
	switch v := v.(type) {
	case starlark.NoneType:
		return "", false, nil
	case starlark.Tuple:
		parts = v
	case *starlark.List:
		parts = make([]starlark.Value, v.Len())
		for i := range parts {
			parts[i] = v.Index(i)
		}
	case *value.Sequence:
		items, err := v.Seq().Items()
		if err != nil {
			return "", false, err
		}
		parts = items
	default:
		s, err := value.Str(v)
		return s, true, err
	}
	strs := make([]string, len(parts))
	for i, part := range parts {
		s, err := value.Str(part)
		if err != nil {
			return "", false, err
		}
		strs[i] = s
	}
	return strings.Join(strs, p.join), true, nil
}

func (p *printer) print(v starlark.Value) error {
	s, ok, err := p.format(v)
	if err != nil || !ok {
		return err
	}
	if p.print0 {
		if p.count > 0 {
			if err := p.w.WriteByte(0); err != nil {
				return err
			}
		}
	}
	p.count++
	if _, err := p.w.WriteString(s); err != nil {
		return err
	}
	if !p.print0 {
		return p.w.WriteByte('\n')
	}
	return nil
}

func (p *printer) flush() error {
	return p.w.Flush()
}
