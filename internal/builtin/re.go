package builtin

import (
	"fmt"
	"regexp"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

var reModule = &starlarkstruct.Module{
	Name: "re",
	Members: starlark.StringDict{
		"search":    member("re.search", reFind(`%s`)),
		"match":     member("re.match", reFind(`^(?:%s)`)),
		"fullmatch": member("re.fullmatch", reFind(`^(?:%s)$`)),
		"findall":   member("re.findall", reFindAll),
		"sub":       member("re.sub", reSub),
		"split":     member("re.split", reSplit),
		"escape":    member("re.escape", reEscape),
	},
}

// reArgs unpacks the (pattern, string) arguments shared by the re
// functions, compiling pattern through format.
func reArgs(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple, format string, extra ...any) (*regexp.Regexp, string, error) {
	var pattern string
	var subject starlark.Value
	pairs := append([]any{"pattern", &pattern, "string", &subject}, extra...)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, pairs...); err != nil {
		return nil, "", err
	}
	s, re, err := subjectAndPattern(b, subject, fmt.Sprintf(format, pattern))
	return re, s, err
}

func reFind(format string) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		re, s, err := reArgs(b, args, kwargs, format)
		if err != nil {
			return nil, err
		}
		m := re.FindStringSubmatchIndex(s)
		if m == nil {
			return starlark.None, nil
		}
		return newMatch(re, s, m), nil
	}
}

// newMatch builds the value returned by a successful search: a struct with
// group(n=0), groups(), start and end.
func newMatch(re *regexp.Regexp, s string, m []int) starlark.Value {
	groups := make(starlark.Tuple, re.NumSubexp())
	for i := range groups {
		if lo := m[2*(i+1)]; lo >= 0 {
			groups[i] = starlark.String(s[lo:m[2*(i+1)+1]])
		} else {
			groups[i] = starlark.None
		}
	}
	group := starlark.NewBuiltin("group", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var n starlark.Value = starlark.MakeInt(0)
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0, &n); err != nil {
			return nil, err
		}
		return groupOf(b.Name(), re, s, m, n)
	})
	return starlarkstruct.FromStringDict(starlark.String("match"), starlark.StringDict{
		"group":  group,
		"groups": groups,
		"start":  starlark.MakeInt(m[0]),
		"end":    starlark.MakeInt(m[1]),
	})
}

// reFindAll returns every match: the whole match when the pattern has no
// groups, the single group when it has one, and a tuple of groups otherwise.
func reFindAll(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	re, s, err := reArgs(b, args, kwargs, `%s`)
	if err != nil {
		return nil, err
	}
	var out []starlark.Value
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		switch len(m) {
		case 1:
			out = append(out, starlark.String(m[0]))
		case 2:
			out = append(out, starlark.String(m[1]))
		default:
			t := make(starlark.Tuple, len(m)-1)
			for i, g := range m[1:] {
				t[i] = starlark.String(g)
			}
			out = append(out, t)
		}
	}
	return starlark.NewList(out), nil
}

// reSub replaces matches using Go template syntax ($1, ${name}) in repl.
// A positive count limits the number of replacements.
func reSub(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var pattern, repl string
	var subject starlark.Value
	count := 0
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "pattern", &pattern, "repl", &repl, "string", &subject, "count?", &count); err != nil {
		return nil, err
	}
	s, re, err := subjectAndPattern(b, subject, pattern)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return starlark.String(re.ReplaceAllString(s, repl)), nil
	}
	var out []byte
	last := 0
	for _, m := range re.FindAllStringSubmatchIndex(s, count) {
		out = append(out, s[last:m[0]]...)
		out = re.ExpandString(out, repl, s, m)
		last = m[1]
	}
	return starlark.String(string(out) + s[last:]), nil
}

func reSplit(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	maxsplit := 0
	re, s, err := reArgs(b, args, kwargs, `%s`, "maxsplit?", &maxsplit)
	if err != nil {
		return nil, err
	}
	n := -1
	if maxsplit > 0 {
		n = maxsplit + 1
	}
	parts := re.Split(s, n)
	return starlark.NewList(stringValues(parts)), nil
}

func reEscape(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	s, err := textArg(b.Name(), args, kwargs)
	if err != nil {
		return nil, err
	}
	return starlark.String(regexp.QuoteMeta(s)), nil
}
