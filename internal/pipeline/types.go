// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

// Package pipeline turns a pipeline string into stages and runs them over a
// sequence.
//
// A pipeline is a list of expressions separated by top-level "|". Each
// expression is GLOBAL, transforming the whole sequence pp, or LINE,
// applied to every element p. Adjacent expressions of the same mode form a
// stage; the expressions of a LINE stage share one scope per element.
package pipeline

import (
	"fmt"

	"go.starlark.net/syntax"
)

// Reserved identifiers.
const (
	NameSeq   = "pp"    // the whole sequence
	NameFiles = "files" // auxiliary input streams
	NameFirst = "ff"    // first auxiliary stream
	NameItem  = "p"     // the current element
	NameIndex = "i"     // zero-based index of the current element
)

// Mode says how an expression applies to the sequence.
type Mode int

const (
	ModeLine Mode = iota
	ModeGlobal
)

func (m Mode) String() string {
	if m == ModeGlobal {
		return "global"
	}
	return "line"
}

var (
	globalNames = []string{NameSeq, NameFiles, NameFirst}
	lineNames   = []string{NameItem, NameIndex}
)

// Expr is one parsed pipeline expression.
type Expr struct {
	// Source is the expression as written.
	Source string
	// Index is the position of the expression in the pipeline.
	Index int
	Mode  Mode
	// Names is the set of identifiers the expression reads or binds,
	// excluding names bound by its own lambdas and comprehensions.
	Names []string
	// Assign reports whether the expression is an assignment, and
	// Targets lists the names it binds.
	Assign  bool
	Targets []string
	// UsesIndex reports whether the expression reads i.
	UsesIndex bool

	file *syntax.File
}

func (e *Expr) String() string {
	return fmt.Sprintf("[%s] %s", e.Mode, e.Source)
}

// Stage is a run of adjacent expressions with the same mode.
type Stage struct {
	Mode  Mode
	Exprs []*Expr
}

// Plan is a parsed pipeline.
type Plan struct {
	Exprs  []*Expr
	Stages []Stage
}

// Modes returns the mode of every expression in order.
func (p *Plan) Modes() []string {
	out := make([]string, len(p.Exprs))
	for i, e := range p.Exprs {
		out[i] = e.Mode.String()
	}
	return out
}

// CompileError reports an expression that cannot be compiled. It is raised
// before any element is processed.
type CompileError struct {
	Expr string
	Err  error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%v (expression: %s)", e.Err, e.Expr)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
