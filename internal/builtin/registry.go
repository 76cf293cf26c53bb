// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

// Package builtin holds the predeclared names available to pipeline
// expressions.
package builtin

import (
	"fmt"
	"sort"
	"sync"

	"go.starlark.net/starlark"
)

// Kind classifies a builtin for listing.
type Kind int

const (
	KindCore   Kind = iota // general functions (len, str, List)
	KindText                // per-element text helpers (ext, basename, match)
	KindShell               // external commands (sh, spawn)
	KindModule              // modules (path, re, json)
)

func (k Kind) String() string {
	switch k {
	case KindCore:
		return "core"
	case KindText:
		return "text"
	case KindShell:
		return "shell"
	case KindModule:
		return "module"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "core":
		return KindCore, nil
	case "text":
		return KindText, nil
	case "shell":
		return KindShell, nil
	case "module":
		return KindModule, nil
	default:
		return 0, fmt.Errorf("unknown kind: %q", s)
	}
}

// Builtin is one predeclared name.
type Builtin struct {
	Name        string
	Kind        Kind
	Description string
	Value       starlark.Value
}

// Registry maps names to builtins.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]Builtin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builtins: make(map[string]Builtin)}
}

// Default returns a registry holding every builtin.
func Default() *Registry {
	r := NewRegistry()
	RegisterAll(r)
	return r
}

// Register adds a builtin, replacing any builtin with the same name.
func (r *Registry) Register(b Builtin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins[b.Name] = b
}

// Lookup returns a builtin by name.
func (r *Registry) Lookup(name string) (Builtin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builtins[name]
	if !ok {
		return Builtin{}, fmt.Errorf("unknown builtin: %q", name)
	}
	return b, nil
}

// All returns all registered builtins sorted by name.
func (r *Registry) All() []Builtin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Builtin, 0, len(r.builtins))
	for _, b := range r.builtins {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	})
	return all
}

// Predeclared returns the builtins as a Starlark environment.
func (r *Registry) Predeclared() starlark.StringDict {
	r.mu.RLock()
	defer r.mu.RUnlock()
	env := make(starlark.StringDict, len(r.builtins))
	for name, b := range r.builtins {
		env[name] = b.Value
	}
	return env
}

// RegisterAll adds every builtin to r.
func RegisterAll(r *Registry) {
	registerCore(r)
	registerShell(r)
	registerText(r)
	registerModules(r)
}

func fn(r *Registry, kind Kind, name, desc string, impl func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error)) {
	r.Register(Builtin{Name: name, Kind: kind, Description: desc, Value: starlark.NewBuiltin(name, impl)})
}
