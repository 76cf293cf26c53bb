package pipeline

import (
	"maps"
	"slices"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/marcelocantos/piep/internal/value"
)

// resultName is the global a plain expression's value is assigned to.
// Assignment targets are renamed with the same prefix so that "p = p + x"
// reads the predeclared p rather than the global it is about to bind.
// Neither can be written in source.
const resultName = "="

func targetName(name string) string {
	return resultName + name
}

// Program is a compiled pipeline.
type Program struct {
	env    starlark.StringDict
	stages []*compiledStage
}

type compiledStage struct {
	Stage
	exprs []*compiledExpr
	// locals are the names assigned by the expressions of a LINE stage.
	locals []string
}

type compiledExpr struct {
	*Expr
	prog *starlark.Program
	// targets maps each renamed assignment target to the name it binds.
	targets map[string]string
}

// Compile compiles the expressions of plan against env, the global
// environment of the run (builtins, preludes, files). Every name an
// expression reads must be predeclared in env, be reserved for its mode,
// or be bound by an earlier expression: by any earlier GLOBAL expression,
// or by an earlier expression in the same LINE stage. A plan can be
// compiled once.
func Compile(plan *Plan, env starlark.StringDict) (*Program, error) {
	env = maps.Clone(env)
	env[sliceFunc] = starlark.NewBuiltin(sliceFunc, builtinSlice)
	env[indexFunc] = starlark.NewBuiltin(indexFunc, builtinIndex)
	env[compareFunc] = starlark.NewBuiltin(compareFunc, builtinCompare)
	if _, ok := env[NameFiles]; !ok {
		env[NameFiles] = starlark.NewList(nil)
	}

	globals := make(map[string]bool, len(env)+1)
	for name := range env {
		globals[name] = true
	}
	globals[NameSeq] = true

	prog := &Program{env: env}
	for _, st := range plan.Stages {
		cs := &compiledStage{Stage: st}
		known := globals
		if st.Mode == ModeLine {
			known = maps.Clone(globals)
			delete(known, NameSeq)
			known[NameItem] = true
			known[NameIndex] = true
		}
		for _, e := range st.Exprs {
			ce, err := compileExpr(e, known)
			if err != nil {
				return nil, err
			}
			for _, t := range e.Targets {
				if st.Mode == ModeLine && t != NameItem && t != NameIndex {
					cs.locals = appendUnique(cs.locals, t)
				}
				known[t] = true
			}
			cs.exprs = append(cs.exprs, ce)
		}
		prog.stages = append(prog.stages, cs)
	}
	return prog, nil
}

func compileExpr(e *Expr, known map[string]bool) (*compiledExpr, error) {
	ce := &compiledExpr{Expr: e}
	f := e.file
	switch stmt := f.Stmts[0].(type) {
	case *syntax.ExprStmt:
		f.Stmts[0] = assign(&syntax.Ident{NamePos: syntax.Start(stmt.X), Name: resultName}, stmt.X)
	case *syntax.AssignStmt:
		ce.targets = map[string]string{}
		renameTargets(stmt.LHS, ce.targets)
	}
	prog, err := starlark.FileProgram(f, func(name string) bool { return known[name] })
	if err != nil {
		return nil, &CompileError{Expr: e.Source, Err: err}
	}
	ce.prog = prog
	return ce, nil
}

func renameTargets(lhs syntax.Expr, targets map[string]string) {
	switch lhs := lhs.(type) {
	case *syntax.Ident:
		renamed := targetName(lhs.Name)
		targets[renamed] = lhs.Name
		lhs.Name = renamed
	case *syntax.ParenExpr:
		renameTargets(lhs.X, targets)
	case *syntax.TupleExpr:
		for _, x := range lhs.List {
			renameTargets(x, targets)
		}
	case *syntax.ListExpr:
		for _, x := range lhs.List {
			renameTargets(x, targets)
		}
	}
}

func appendUnique(list []string, s string) []string {
	if slices.Contains(list, s) {
		return list
	}
	return append(list, s)
}

func builtinSlice(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x, lo, hi, step starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 4, &x, &lo, &hi, &step); err != nil {
		return nil, err
	}
	return value.Slice(x, lo, hi, step)
}

func builtinIndex(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x, k starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &x, &k); err != nil {
		return nil, err
	}
	return value.Index(x, k)
}

func builtinCompare(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		op   string
		x, y starlark.Value
	)
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 3, &op, &x, &y); err != nil {
		return nil, err
	}
	ok, err := value.CompareOp(op, x, y)
	if err != nil {
		return nil, err
	}
	return starlark.Bool(ok), nil
}
