package pipeline

import (
	"errors"
	"slices"
	"testing"
)

func TestSplitPipes(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a | b | c", []string{"a", "b", "c"}},
		{`a | (b|'\\') | d`, []string{"a", `(b|'\\')`, "d"}},
		{`a | b'"' | d'"'`, []string{"a", `b'"'`, `d'"'`}},
		{`a | "(b|c" | d`, []string{"a", `"(b|c"`, "d"}},
		{"a[1|2] | b", []string{"a[1|2]", "b"}},
		{`{"x": 1|2} | b`, []string{`{"x": 1|2}`, "b"}},
		{`{"x": (1)|2} | b`, []string{`{"x": (1)|2}`, "b"}},
		{`a.replace("/", "\\") | b`, []string{`a.replace("/", "\\")`, "b"}},
		{`a \| b`, []string{`a \| b`}},
		{`a \\| b`, []string{`a \\`, "b"}},
		{"single", []string{"single"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SplitPipes(tt.in)
			if !slices.Equal(got, tt.want) {
				t.Errorf("SplitPipes(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestModeDetection(t *testing.T) {
	tests := []struct {
		src       string
		mode      Mode
		usesIndex bool
	}{
		{"p.upper()", ModeLine, false},
		{"basename", ModeLine, false},
		{`"%d: %s" % (i, p)`, ModeLine, true},
		{"x = 1", ModeLine, false},
		{"p = p.strip()", ModeLine, false},
		{"i = 0", ModeLine, false},
		{"pp[:2]", ModeGlobal, false},
		{"len(pp)", ModeGlobal, false},
		{"files[0].zip(ff)", ModeGlobal, false},
		{"pp = pp.sort()", ModeGlobal, false},
		{"n = len(pp)", ModeGlobal, false},
		{"[p for p in pp]", ModeGlobal, false},
		{"pp.filter(lambda p: p)", ModeGlobal, false},
		{"pp.map(lambda x, i=1: x)", ModeGlobal, false},
		{"sh('x', p=1)", ModeLine, false},
		{"x.p", ModeLine, false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			e, err := ParseExpression(tt.src, 0)
			if err != nil {
				t.Fatal(err)
			}
			if e.Mode != tt.mode {
				t.Errorf("mode = %s, want %s (names %v)", e.Mode, tt.mode, e.Names)
			}
			if e.UsesIndex != tt.usesIndex {
				t.Errorf("UsesIndex = %v, want %v", e.UsesIndex, tt.usesIndex)
			}
		})
	}
}

func TestAssignTargets(t *testing.T) {
	e, err := ParseExpression("a, (b, c) = p.split()", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !e.Assign {
		t.Error("Assign = false")
	}
	if !slices.Equal(e.Targets, []string{"a", "b", "c"}) {
		t.Errorf("Targets = %v", e.Targets)
	}

	e, err = ParseExpression("d[p] = 1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(e.Targets) != 0 || !slices.Contains(e.Names, "d") {
		t.Errorf("Targets = %v, Names = %v", e.Targets, e.Names)
	}
}

func TestParseExpressionErrors(t *testing.T) {
	for _, src := range []string{
		"p + len(pp)",
		"p = len(pp)",
		"files = 1",
		"ff = p",
		"x += 1",
		"a; b",
		"def f(): pass",
		"p.upper(",
		"1 = p",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := ParseExpression(src, 0)
			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("got %v, want CompileError", err)
			}
			if ce.Expr != src {
				t.Errorf("Expr = %q, want %q", ce.Expr, src)
			}
		})
	}
}

func TestParseGroupsStages(t *testing.T) {
	plan, err := Parse("p.upper() | x = 1 | len(pp) | pp[:2] | p", Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		mode Mode
		n    int
	}{{ModeLine, 2}, {ModeGlobal, 2}, {ModeLine, 1}}
	if len(plan.Stages) != len(want) {
		t.Fatalf("got %d stages, want %d", len(plan.Stages), len(want))
	}
	for i, w := range want {
		if plan.Stages[i].Mode != w.mode || len(plan.Stages[i].Exprs) != w.n {
			t.Errorf("stage %d: %s with %d exprs, want %s with %d", i, plan.Stages[i].Mode, len(plan.Stages[i].Exprs), w.mode, w.n)
		}
	}
	if got := plan.Modes(); !slices.Equal(got, []string{"line", "line", "global", "global", "line"}) {
		t.Errorf("Modes() = %v", got)
	}
}

func TestParseNoInput(t *testing.T) {
	plan, err := Parse("range(3) | p * 2", Options{NoInput: true})
	if err != nil {
		t.Fatal(err)
	}
	first := plan.Exprs[0]
	if !first.Assign || first.Mode != ModeGlobal || !slices.Equal(first.Targets, []string{"pp"}) {
		t.Errorf("first expression = %+v", first)
	}

	if _, err := Parse("pp = range(3)", Options{NoInput: true}); err != nil {
		t.Errorf("explicit pp assignment: %v", err)
	}
	if _, err := Parse("x = range(3)", Options{NoInput: true}); err == nil {
		t.Error("assignment to another name succeeded")
	}
}

func TestParseEmptyExpression(t *testing.T) {
	if _, err := Parse("p || p", Options{}); err == nil {
		t.Error("empty expression accepted")
	}
}
