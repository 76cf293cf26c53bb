package pipeline

import (
	"fmt"
	"strconv"

	"go.starlark.net/syntax"
)

// freeNames returns the identifiers e reads from its environment. Keyword
// argument names, attribute names, and names bound by lambdas or
// comprehensions inside e are not included.
func freeNames(e syntax.Expr) map[string]bool {
	names := map[string]bool{}
	collect(e, nil, names)
	return names
}

func collect(n syntax.Node, bound map[string]bool, names map[string]bool) {
	switch n := n.(type) {
	case nil:
	case *syntax.Ident:
		if !bound[n.Name] {
			names[n.Name] = true
		}
	case *syntax.Literal:
	case *syntax.DotExpr:
		collect(n.X, bound, names)
	case *syntax.CallExpr:
		collect(n.Fn, bound, names)
		for _, a := range n.Args {
			if kw, ok := a.(*syntax.BinaryExpr); ok && kw.Op == syntax.EQ {
				collect(kw.Y, bound, names)
				continue
			}
			collect(a, bound, names)
		}
	case *syntax.LambdaExpr:
		inner := extend(bound)
		for _, p := range n.Params {
			switch p := p.(type) {
			case *syntax.Ident:
				inner[p.Name] = true
			case *syntax.BinaryExpr:
				collect(p.Y, bound, names)
				if id, ok := p.X.(*syntax.Ident); ok {
					inner[id.Name] = true
				}
			case *syntax.UnaryExpr:
				if id, ok := p.X.(*syntax.Ident); ok {
					inner[id.Name] = true
				}
			}
		}
		collect(n.Body, inner, names)
	case *syntax.Comprehension:
		inner := extend(bound)
		for _, c := range n.Clauses {
			switch c := c.(type) {
			case *syntax.ForClause:
				collect(c.X, inner, names)
				bind(c.Vars, inner)
			case *syntax.IfClause:
				collect(c.Cond, inner, names)
			}
		}
		collect(n.Body, inner, names)
	case *syntax.BinaryExpr:
		collect(n.X, bound, names)
		collect(n.Y, bound, names)
	case *syntax.UnaryExpr:
		collect(n.X, bound, names)
	case *syntax.ParenExpr:
		collect(n.X, bound, names)
	case *syntax.CondExpr:
		collect(n.Cond, bound, names)
		collect(n.True, bound, names)
		collect(n.False, bound, names)
	case *syntax.IndexExpr:
		collect(n.X, bound, names)
		collect(n.Y, bound, names)
	case *syntax.SliceExpr:
		collect(n.X, bound, names)
		collect(n.Lo, bound, names)
		collect(n.Hi, bound, names)
		collect(n.Step, bound, names)
	case *syntax.ListExpr:
		for _, x := range n.List {
			collect(x, bound, names)
		}
	case *syntax.TupleExpr:
		for _, x := range n.List {
			collect(x, bound, names)
		}
	case *syntax.DictExpr:
		for _, x := range n.List {
			collect(x, bound, names)
		}
	case *syntax.DictEntry:
		collect(n.Key, bound, names)
		collect(n.Value, bound, names)
	}
}

func extend(bound map[string]bool) map[string]bool {
	out := make(map[string]bool, len(bound)+2)
	for k := range bound {
		out[k] = true
	}
	return out
}

func bind(vars syntax.Expr, bound map[string]bool) {
	switch v := vars.(type) {
	case *syntax.Ident:
		bound[v.Name] = true
	case *syntax.ParenExpr:
		bind(v.X, bound)
	case *syntax.TupleExpr:
		for _, x := range v.List {
			bind(x, bound)
		}
	case *syntax.ListExpr:
		for _, x := range v.List {
			bind(x, bound)
		}
	}
}

// assignTargets returns the names bound by an assignment target. Index
// and attribute targets bind nothing but read their operands, which are
// added to reads.
func assignTargets(lhs syntax.Expr, reads map[string]bool) ([]string, error) {
	switch lhs := lhs.(type) {
	case *syntax.Ident:
		return []string{lhs.Name}, nil
	case *syntax.ParenExpr:
		return assignTargets(lhs.X, reads)
	case *syntax.TupleExpr:
		return targetList(lhs.List, reads)
	case *syntax.ListExpr:
		return targetList(lhs.List, reads)
	case *syntax.IndexExpr, *syntax.DotExpr:
		collect(lhs, nil, reads)
		return nil, nil
	}
	start, _ := lhs.Span()
	return nil, fmt.Errorf("%s: can't assign to this expression", start)
}

func targetList(list []syntax.Expr, reads map[string]bool) ([]string, error) {
	var out []string
	for _, x := range list {
		t, err := assignTargets(x, reads)
		if err != nil {
			return nil, err
		}
		out = append(out, t...)
	}
	return out, nil
}

// Predeclared functions that expressions are rewritten to call.
const (
	sliceFunc   = "_slice"
	indexFunc   = "_index"
	compareFunc = "_compare"
)

// rewriteOps replaces x[a:b:c] with _slice(x, a, b, c), x[k] with
// _index(x, k) and a comparison x < y with _compare("<", x, y), so that a
// Stream is sliced and indexed lazily and a Process compares by its text.
// Assignment targets keep their form.
func rewriteOps(stmt syntax.Stmt) {
	switch stmt := stmt.(type) {
	case *syntax.ExprStmt:
		stmt.X = rewrite(stmt.X)
	case *syntax.AssignStmt:
		stmt.LHS = rewriteTarget(stmt.LHS)
		stmt.RHS = rewrite(stmt.RHS)
	}
}

func rewriteTarget(e syntax.Expr) syntax.Expr {
	switch n := e.(type) {
	case *syntax.IndexExpr:
		n.X = rewrite(n.X)
		n.Y = rewrite(n.Y)
	case *syntax.DotExpr:
		n.X = rewrite(n.X)
	case *syntax.ParenExpr:
		n.X = rewriteTarget(n.X)
	case *syntax.TupleExpr:
		for i, x := range n.List {
			n.List[i] = rewriteTarget(x)
		}
	case *syntax.ListExpr:
		for i, x := range n.List {
			n.List[i] = rewriteTarget(x)
		}
	}
	return e
}

func call(name string, pos syntax.Position, args ...syntax.Expr) *syntax.CallExpr {
	return &syntax.CallExpr{
		Fn:     &syntax.Ident{NamePos: pos, Name: name},
		Lparen: pos,
		Args:   args,
		Rparen: pos,
	}
}

func rewrite(e syntax.Expr) syntax.Expr {
	switch n := e.(type) {
	case *syntax.SliceExpr:
		none := func(x syntax.Expr) syntax.Expr {
			if x == nil {
				return &syntax.Ident{NamePos: n.Lbrack, Name: "None"}
			}
			return rewrite(x)
		}
		c := call(sliceFunc, n.Lbrack, rewrite(n.X), none(n.Lo), none(n.Hi), none(n.Step))
		c.Rparen = n.Rbrack
		return c
	case *syntax.IndexExpr:
		c := call(indexFunc, n.Lbrack, rewrite(n.X), rewrite(n.Y))
		c.Rparen = n.Rbrack
		return c
	case *syntax.DotExpr:
		n.X = rewrite(n.X)
	case *syntax.CallExpr:
		n.Fn = rewrite(n.Fn)
		rewriteList(n.Args)
	case *syntax.LambdaExpr:
		rewriteList(n.Params)
		n.Body = rewrite(n.Body)
	case *syntax.Comprehension:
		for _, c := range n.Clauses {
			switch c := c.(type) {
			case *syntax.ForClause:
				c.X = rewrite(c.X)
			case *syntax.IfClause:
				c.Cond = rewrite(c.Cond)
			}
		}
		n.Body = rewrite(n.Body)
	case *syntax.BinaryExpr:
		n.X = rewrite(n.X)
		n.Y = rewrite(n.Y)
		switch n.Op {
		case syntax.EQL, syntax.NEQ, syntax.LT, syntax.LE, syntax.GT, syntax.GE:
			op := n.Op.String()
			lit := &syntax.Literal{Token: syntax.STRING, TokenPos: n.OpPos, Raw: strconv.Quote(op), Value: op}
			return call(compareFunc, n.OpPos, lit, n.X, n.Y)
		}
	case *syntax.UnaryExpr:
		if n.X != nil {
			n.X = rewrite(n.X)
		}
	case *syntax.ParenExpr:
		n.X = rewrite(n.X)
	case *syntax.CondExpr:
		n.Cond = rewrite(n.Cond)
		n.True = rewrite(n.True)
		n.False = rewrite(n.False)
	case *syntax.ListExpr:
		rewriteList(n.List)
	case *syntax.TupleExpr:
		rewriteList(n.List)
	case *syntax.DictExpr:
		rewriteList(n.List)
	case *syntax.DictEntry:
		n.Key = rewrite(n.Key)
		n.Value = rewrite(n.Value)
	}
	return e
}

func rewriteList(list []syntax.Expr) {
	for i, x := range list {
		list[i] = rewrite(x)
	}
}
