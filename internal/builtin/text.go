package builtin

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.starlark.net/starlark"

	"github.com/marcelocantos/piep/internal/value"
)

func registerText(r *Registry) {
	text1(r, "ext", `filename extension, including "."`, func(s string) starlark.Value {
		_, ext := splitext(s)
		return starlark.String(ext)
	})
	text1(r, "extonly", `filename extension without "."; None if there is none`, func(s string) starlark.Value {
		_, ext := splitext(s)
		if ext == "" {
			return starlark.None
		}
		return starlark.String(ext[1:])
	})
	text1(r, "stripext", `remove the filename extension, including "."`, func(s string) starlark.Value {
		root, _ := splitext(s)
		return starlark.String(root)
	})
	text1(r, "dirname", "directory part of a path", func(s string) starlark.Value {
		return starlark.String(dirname(s))
	})
	text1(r, "basename", "final component of a path", func(s string) starlark.Value {
		return starlark.String(basename(s))
	})
	text1(r, "filename", "alias for basename", func(s string) starlark.Value {
		return starlark.String(basename(s))
	})
	text1(r, "reversed", "the string reversed", func(s string) starlark.Value {
		rs := []rune(s)
		for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
			rs[i], rs[j] = rs[j], rs[i]
		}
		return starlark.String(rs)
	})
	textList(r, "splitext", "(root, ext) of a filename as a List", func(s string) []string {
		root, ext := splitext(s)
		return []string{root, ext}
	})
	textList(r, "splitline", "split into lines", value.SplitLines)
	textList(r, "splittab", `split on "\t"`, func(s string) []string { return strings.Split(s, "\t") })
	textList(r, "splitcomma", `split on ","`, func(s string) []string { return strings.Split(s, ",") })

	fn(r, KindText, "matches", "matches(s, pattern): whether pattern occurs in s", builtinMatches)
	fn(r, KindText, "match", "match(s, pattern, group=0): the matched text or group, or None", builtinMatch)
	fn(r, KindText, "splitre", "splitre(s, pattern): split s around matches of pattern", builtinSplitRe)
}

// text1 registers a function of one string argument.
func text1(r *Registry, name, desc string, f func(string) starlark.Value) {
	fn(r, KindText, name, desc, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		s, err := textArg(b.Name(), args, kwargs)
		if err != nil {
			return nil, err
		}
		return f(s), nil
	})
}

// textList registers a function of one string argument returning a List.
func textList(r *Registry, name, desc string, f func(string) []string) {
	fn(r, KindText, name, desc, func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		s, err := textArg(b.Name(), args, kwargs)
		if err != nil {
			return nil, err
		}
		return value.NewList(stringValues(f(s)), sinkOf(thread)), nil
	})
}

func textArg(name string, args starlark.Tuple, kwargs []starlark.Tuple) (string, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(name, args, kwargs, 1, &v); err != nil {
		return "", err
	}
	s, ok, err := value.Text(v)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%s: want string, got %s", name, v.Type())
	}
	return s, nil
}

func stringValues(ss []string) []starlark.Value {
	out := make([]starlark.Value, len(ss))
	for i, s := range ss {
		out[i] = starlark.String(s)
	}
	return out
}

// splitext splits p before its extension. Leading dots of the final
// component do not start an extension, so ".bashrc" has none.
func splitext(p string) (root, ext string) {
	sep := strings.LastIndexByte(p, '/')
	dot := strings.LastIndexByte(p, '.')
	if dot <= sep {
		return p, ""
	}
	for i := sep + 1; i < dot; i++ {
		if p[i] != '.' {
			return p[:dot], p[dot:]
		}
	}
	return p, ""
}

func basename(p string) string {
	return p[strings.LastIndexByte(p, '/')+1:]
}

// dirname returns everything before the final component, without trailing
// slashes unless the result is the root.
func dirname(p string) string {
	head := p[:strings.LastIndexByte(p, '/')+1]
	if trimmed := strings.TrimRight(head, "/"); trimmed != "" {
		return trimmed
	}
	return head
}

var patterns struct {
	sync.Mutex
	cache map[string]*regexp.Regexp
}

// compile returns the compiled form of pattern, caching it since the same
// pattern is usually applied to every element of a sequence.
func compile(pattern string) (*regexp.Regexp, error) {
	patterns.Lock()
	defer patterns.Unlock()
	if re, ok := patterns.cache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	if patterns.cache == nil {
		patterns.cache = make(map[string]*regexp.Regexp)
	}
	patterns.cache[pattern] = re
	return re, nil
}

func subjectAndPattern(b *starlark.Builtin, subject starlark.Value, pattern string) (string, *regexp.Regexp, error) {
	s, ok, err := value.Text(subject)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, fmt.Errorf("%s: want string, got %s", b.Name(), subject.Type())
	}
	re, err := compile(pattern)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return s, re, nil
}

func builtinMatches(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var subject starlark.Value
	var pattern string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "s", &subject, "pattern", &pattern); err != nil {
		return nil, err
	}
	s, re, err := subjectAndPattern(b, subject, pattern)
	if err != nil {
		return nil, err
	}
	return starlark.Bool(re.MatchString(s)), nil
}

func builtinMatch(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var subject starlark.Value
	var pattern string
	var group starlark.Value = starlark.MakeInt(0)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "s", &subject, "pattern", &pattern, "group?", &group); err != nil {
		return nil, err
	}
	s, re, err := subjectAndPattern(b, subject, pattern)
	if err != nil {
		return nil, err
	}
	m := re.FindStringSubmatchIndex(s)
	if m == nil {
		return starlark.None, nil
	}
	return groupOf(b.Name(), re, s, m, group)
}

// groupOf selects a group of match m by number or name. An unmatched
// optional group is None.
func groupOf(name string, re *regexp.Regexp, s string, m []int, group starlark.Value) (starlark.Value, error) {
	var n int
	switch g := group.(type) {
	case starlark.String:
		n = re.SubexpIndex(string(g))
		if n < 0 {
			return nil, fmt.Errorf("%s: no group named %q", name, string(g))
		}
	default:
		i, err := starlark.AsInt32(group)
		if err != nil {
			return nil, fmt.Errorf("%s: group: %w", name, err)
		}
		n = i
	}
	if n < 0 || 2*n+1 >= len(m) {
		return nil, fmt.Errorf("%s: no group %d", name, n)
	}
	if m[2*n] < 0 {
		return starlark.None, nil
	}
	return starlark.String(s[m[2*n]:m[2*n+1]]), nil
}

func builtinSplitRe(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var subject starlark.Value
	var pattern string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "s", &subject, "pattern", &pattern); err != nil {
		return nil, err
	}
	s, re, err := subjectAndPattern(b, subject, pattern)
	if err != nil {
		return nil, err
	}
	return value.NewList(stringValues(re.Split(s, -1)), sinkOf(thread)), nil
}
