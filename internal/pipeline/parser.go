package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.starlark.net/syntax"
)

// SplitPipes splits a pipeline string on "|" characters that are outside
// quotes and brackets. A backslash escapes the character after it, and a
// doubled backslash escapes nothing. The parts are trimmed.
func SplitPipes(s string) []string {
	closers := map[rune]rune{'}': '{', ')': '(', ']': '['}
	var (
		parts   []string
		cur     strings.Builder
		context []rune
		escape  bool
	)
	for _, c := range s {
		var open rune
		if len(context) > 0 {
			open = context[len(context)-1]
		}
		if !escape {
			switch {
			case open == '"' || open == '\'':
				if c == open {
					context = context[:len(context)-1]
				}
			case c == '"' || c == '\'' || c == '{' || c == '(' || c == '[':
				context = append(context, c)
			default:
				if opener, ok := closers[c]; ok && open == opener {
					context = context[:len(context)-1]
				}
			}
			if c == '|' && open == 0 {
				parts = append(parts, strings.TrimSpace(cur.String()))
				cur.Reset()
				continue
			}
		}
		cur.WriteRune(c)
		escape = c == '\\' && !escape
	}
	return append(parts, strings.TrimSpace(cur.String()))
}

// Options controls parsing.
type Options struct {
	// NoInput means there is no input sequence: the first expression must
	// assign pp, and a plain first expression is treated as "pp = expr".
	NoInput bool
}

// Parse splits pipeline into expressions, classifies them and groups them
// into stages.
func Parse(pipeline string, opts Options) (*Plan, error) {
	sources := SplitPipes(pipeline)
	plan := &Plan{}
	for i, src := range sources {
		if src == "" {
			return nil, &CompileError{Expr: pipeline, Err: fmt.Errorf("empty expression at position %d", i+1)}
		}
		e, err := parse(src, i, opts.NoInput && i == 0)
		if err != nil {
			return nil, err
		}
		plan.Exprs = append(plan.Exprs, e)
	}
	for _, e := range plan.Exprs {
		if n := len(plan.Stages); n > 0 && plan.Stages[n-1].Mode == e.Mode {
			plan.Stages[n-1].Exprs = append(plan.Stages[n-1].Exprs, e)
			continue
		}
		plan.Stages = append(plan.Stages, Stage{Mode: e.Mode, Exprs: []*Expr{e}})
	}
	return plan, nil
}

// ParseExpression parses a single expression or assignment and detects
// its mode.
func ParseExpression(src string, index int) (*Expr, error) {
	return parse(src, index, false)
}

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

func parse(src string, index int, seedsInput bool) (*Expr, error) {
	fail := func(err error) (*Expr, error) {
		return nil, &CompileError{Expr: src, Err: err}
	}
	f, err := fileOptions.Parse(exprFilename(index), src, 0)
	if err != nil {
		return fail(err)
	}
	if len(f.Stmts) != 1 {
		return fail(errors.New("expected an expression or a single assignment"))
	}

	e := &Expr{Source: src, Index: index, file: f}
	switch stmt := f.Stmts[0].(type) {
	case *syntax.ExprStmt:
		if seedsInput {
			f.Stmts[0] = assign(&syntax.Ident{NamePos: syntax.Start(stmt.X), Name: NameSeq}, stmt.X)
			e.Assign = true
		}
	case *syntax.AssignStmt:
		if stmt.Op != syntax.EQ {
			return fail(fmt.Errorf("augmented assignment %s is not supported", stmt.Op))
		}
		e.Assign = true
	default:
		return fail(errors.New("expected an expression or a single assignment"))
	}

	var (
		reads   map[string]bool
		targets []string
	)
	switch stmt := f.Stmts[0].(type) {
	case *syntax.ExprStmt:
		reads = freeNames(stmt.X)
	case *syntax.AssignStmt:
		reads = freeNames(stmt.RHS)
		var err error
		if targets, err = assignTargets(stmt.LHS, reads); err != nil {
			return fail(err)
		}
	}
	if seedsInput && !slices.Contains(targets, NameSeq) {
		return fail(errors.New("the first expression must assign to pp when there is no input"))
	}

	names := make(map[string]bool, len(reads)+len(targets))
	for n := range reads {
		names[n] = true
	}
	for _, t := range targets {
		switch t {
		case NameFiles, NameFirst:
			return fail(fmt.Errorf("can't assign to %q", t))
		}
		names[t] = true
	}
	e.Targets = targets
	e.Names = sortedKeys(names)
	e.UsesIndex = reads[NameIndex]

	global := slices.ContainsFunc(globalNames, func(n string) bool { return names[n] })
	line := slices.ContainsFunc(lineNames, func(n string) bool { return names[n] })
	if global && line {
		return fail(errors.New("can't use whole-sequence and per-element names in the same expression"))
	}
	if global {
		e.Mode = ModeGlobal
	}

	rewriteOps(f.Stmts[0])
	return e, nil
}

func exprFilename(index int) string {
	return fmt.Sprintf("<expr %d>", index+1)
}

func assign(lhs, rhs syntax.Expr) *syntax.AssignStmt {
	return &syntax.AssignStmt{OpPos: syntax.Start(rhs), Op: syntax.EQ, LHS: lhs, RHS: rhs}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
