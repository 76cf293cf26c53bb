// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

// Package value defines the Starlark values a pipeline works with: the
// Sequence threaded between stages, the Process returned by sh(), and the
// rules that turn expression results into sequence elements.
package value

import (
	"strings"

	"go.starlark.net/starlark"

	"github.com/marcelocantos/piep/internal/shell"
)

// Sink receives errors raised where Starlark offers no error return, such
// as truth testing, iteration and string conversion. *shell.Registry is a
// Sink: recorded errors surface at the next checkpoint.
type Sink interface {
	Fail(err error)
}

const registryKey = "piep.registry"

// WithRegistry attaches the run's process registry to thread.
func WithRegistry(thread *starlark.Thread, reg *shell.Registry) {
	thread.SetLocal(registryKey, reg)
}

// RegistryOf returns the registry attached to thread, or nil.
func RegistryOf(thread *starlark.Thread) *shell.Registry {
	reg, _ := thread.Local(registryKey).(*shell.Registry)
	return reg
}

// sinkOf returns the registry of thread as a Sink. A nil registry must not
// become a non-nil interface.
func sinkOf(thread *starlark.Thread) Sink {
	if reg := RegistryOf(thread); reg != nil {
		return reg
	}
	return nil
}

// Keep applies the filtering rule to an expression result v computed for
// item: True keeps item unchanged, False and None drop it, anything else
// replaces it.
func Keep(v, item starlark.Value) (starlark.Value, bool) {
	switch v := v.(type) {
	case starlark.Bool:
		if v {
			return item, true
		}
		return nil, false
	case starlark.NoneType:
		return nil, false
	}
	return v, true
}

// Reify turns the result of a per-element expression into the element's
// new value. A callable result is first called with item, so that a bare
// function name applies it.
func Reify(thread *starlark.Thread, v, item starlark.Value) (starlark.Value, bool, error) {
	if fn, ok := v.(starlark.Callable); ok {
		r, err := starlark.Call(thread, fn, starlark.Tuple{item}, nil)
		if err != nil {
			return nil, false, err
		}
		v = r
	}
	out, keep := Keep(v, item)
	return out, keep, nil
}

// SplitLines splits s into lines. "\n", "\r\n" and "\r" all end a line and
// a final terminator does not start an empty line.
func SplitLines(s string) []string {
	var lines []string
	for len(s) > 0 {
		i := strings.IndexAny(s, "\r\n")
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i])
		if s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n' {
			i++
		}
		s = s[i+1:]
	}
	return lines
}

// Text returns the text of a string or Textual value.
func Text(v starlark.Value) (string, bool, error) {
	switch v := v.(type) {
	case starlark.String:
		return string(v), true, nil
	case Textual:
		s, err := v.Text()
		return s, true, err
	}
	return "", false, nil
}

// Str converts v to a string the way str() does, realizing Textual values.
func Str(v starlark.Value) (string, error) {
	if s, ok, err := Text(v); ok {
		return s, err
	}
	return v.String(), nil
}

func stringValues(ss []string) []starlark.Value {
	out := make([]starlark.Value, len(ss))
	for i, s := range ss {
		out[i] = starlark.String(s)
	}
	return out
}
