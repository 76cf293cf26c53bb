package builtin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/marcelocantos/piep/internal/shell"
	"github.com/marcelocantos/piep/internal/value"
)

func eval(t *testing.T, reg *shell.Registry, expr string) starlark.Value {
	t.Helper()
	v, err := evalErr(reg, expr)
	require.NoError(t, err, expr)
	return v
}

func evalErr(reg *shell.Registry, expr string) (starlark.Value, error) {
	thread := &starlark.Thread{Name: "test"}
	if reg != nil {
		value.WithRegistry(thread, reg)
	}
	return starlark.EvalOptions(&syntax.FileOptions{}, thread, "test", expr, Default().Predeclared())
}

func str(t *testing.T, v starlark.Value) string {
	t.Helper()
	s, err := value.Str(v)
	require.NoError(t, err)
	return s
}

func TestPathHelpers(t *testing.T) {
	cases := map[string]string{
		`ext("a/b.tar.gz")`:        ".gz",
		`ext(".bashrc")`:           "",
		`ext("a.d/file")`:          "",
		`extonly("x.py")`:          "py",
		`str(extonly("Makefile"))`: "None",
		`stripext("dir/x.py")`:     "dir/x",
		`dirname("/a/b/c")`:        "/a/b",
		`dirname("/a")`:            "/",
		`dirname("a")`:             "",
		`dirname("a//b")`:          "a",
		`basename("/a/b/c.txt")`:   "c.txt",
		`basename("a/")`:           "",
		`filename("a/b")`:          "b",
		`reversed("abc")`:          "cba",
		`path.join("a", "b", "c")`: "a/b/c",
		`path.join("a/", "/b")`:    "/b",
		`path.splitext("x.y.z")[1]`: ".z",
	}
	for expr, want := range cases {
		t.Run(expr, func(t *testing.T) {
			require.Equal(t, want, str(t, eval(t, nil, expr)))
		})
	}
}

func TestSplitHelpersReturnLists(t *testing.T) {
	v := eval(t, nil, `splitext("a/b.c")`)
	s, ok := v.(*value.Sequence)
	require.True(t, ok, "got %s", v.Type())
	require.Equal(t, "List", s.Type())
	require.Equal(t, `List(["a/b", ".c"])`, s.String())

	require.Equal(t, "3", eval(t, nil, `len(splittab("a\tb\tc"))`).String())
	require.Equal(t, "a|b", str(t, eval(t, nil, `splitcomma("a,b").join("|")`)))
	require.Equal(t, `List(["a", "b", "c"])`, eval(t, nil, `splitre("a1b22c", "[0-9]+")`).String())
	require.Equal(t, `List(["ls", "-l", "my file"])`, eval(t, nil, `shellsplit("ls -l 'my file'")`).String())
}

func TestRegexHelpers(t *testing.T) {
	require.Equal(t, starlark.True, eval(t, nil, `matches("hello", "l+")`))
	require.Equal(t, starlark.False, eval(t, nil, `matches("hello", "^l")`))
	require.Equal(t, "ll", str(t, eval(t, nil, `match("hello", "l+")`)))
	require.Equal(t, "12", str(t, eval(t, nil, `match("v12.3", "v([0-9]+)", 1)`)))
	require.Equal(t, "3", str(t, eval(t, nil, `match("v12.3", "[.](?P<minor>[0-9]+)", group="minor")`)))
	require.Equal(t, starlark.None, eval(t, nil, `match("abc", "x")`))

	_, err := evalErr(nil, `matches("x", "(")`)
	require.Error(t, err)
}

func TestReModule(t *testing.T) {
	require.Equal(t, "b2", str(t, eval(t, nil, `re.search("[a-z][0-9]", "1b2").group()`)))
	require.Equal(t, starlark.None, eval(t, nil, `re.match("[0-9]", "a1")`))
	require.Equal(t, starlark.None, eval(t, nil, `re.fullmatch("a", "ab")`))
	require.Equal(t, `("k", "v")`, eval(t, nil, `re.match("(\\w+)=(\\w+)", "k=v").groups`).String())
	require.Equal(t, `["1", "22"]`, eval(t, nil, `re.findall("[0-9]+", "a1b22")`).String())
	require.Equal(t, `[("a", "1"), ("b", "2")]`, eval(t, nil, `re.findall("(\\w)=(\\d)", "a=1 b=2")`).String())
	require.Equal(t, "X-X-c", str(t, eval(t, nil, `re.sub("[ab]", "X", "a-b-c")`)))
	require.Equal(t, "X-b-c", str(t, eval(t, nil, `re.sub("[ab]", "X", "a-b-c", count=1)`)))
	require.Equal(t, "v=k", str(t, eval(t, nil, `re.sub("(\\w)=(\\w)", "${2}=${1}", "k=v")`)))
	require.Equal(t, `["a", "b,c"]`, eval(t, nil, `re.split(",", "a,b,c", maxsplit=1)`).String())
	require.Equal(t, `a\.b`, str(t, eval(t, nil, `re.escape("a.b")`)))
}

func TestLenAndStr(t *testing.T) {
	require.Equal(t, "3", eval(t, nil, `len("abc")`).String())
	require.Equal(t, "2", eval(t, nil, `len(List([1, 2]))`).String())
	require.Equal(t, "0", eval(t, nil, `len(List())`).String())
	require.Equal(t, starlark.True, eval(t, nil, `ignore(1, 2, x=3)`))
}

func TestShRequiresRegistry(t *testing.T) {
	_, err := evalErr(nil, `sh("true")`)
	require.Error(t, err)
}

func TestSh(t *testing.T) {
	reg := shell.NewRegistry(context.Background())

	require.Equal(t, "hello world", str(t, eval(t, reg, `sh("echo", "hello", "world")`)))
	require.Equal(t, "a b", str(t, eval(t, reg, `sh(["echo", "a", "b"])`)))
	require.Equal(t, "5", eval(t, reg, `len(sh("echo", "hello"))`).String())
	require.Equal(t, "piped", str(t, eval(t, reg, `sh("cat", input="piped")`)))
	require.Equal(t, "yes", str(t, eval(t, reg, `sh("sh", "-c", "echo $PIEP_TEST", env={"PIEP_TEST": "yes"})`)))
	require.Equal(t, "/", str(t, eval(t, reg, `sh("pwd", cwd="/")`)))
	require.Equal(t, "fallback", str(t, eval(t, reg, `sh("false") or "fallback"`)))
	require.NoError(t, reg.Checkpoint())

	require.Equal(t, starlark.True, eval(t, reg, `spawn("false")`))
	err := reg.Checkpoint()
	var fe *shell.FailureError
	require.True(t, errors.As(err, &fe), "got %v", err)
	require.Equal(t, 1, fe.Code)

	eval(t, reg, `spawn("false", check=False)`)
	require.NoError(t, reg.Checkpoint())

	_, err = evalErr(reg, `bool(sh("false", check=True))`)
	require.NoError(t, err)
	require.Error(t, reg.Checkpoint())

	_, err = evalErr(reg, `sh("true", check="yes")`)
	require.Error(t, err)
	_, err = evalErr(reg, `sh()`)
	require.Error(t, err)
}

func TestShTimeout(t *testing.T) {
	reg := shell.NewRegistry(context.Background())
	_, err := evalErr(reg, `str(sh("sleep", "5", timeout=0.1))`)
	require.Error(t, err)
}

func TestPretty(t *testing.T) {
	require.Equal(t, `["a", 1, None, (2,), {"k": True}]`,
		str(t, eval(t, nil, `pretty(["a", 1, None, (2,), {"k": True}], color=False)`)))
	require.Equal(t, `List([1.5, "x"])`, str(t, eval(t, nil, `pretty(List([1.5, "x"]), color=False)`)))
	require.Equal(t, "\x1b[32m\"a\"\x1b[0m", str(t, eval(t, nil, `pretty("a", color=True)`)))
	require.Equal(t, "(\x1b[36m1\x1b[0m, \x1b[35mNone\x1b[0m)", str(t, eval(t, nil, `pretty((1, None), color=True)`)))

	reg := shell.NewRegistry(context.Background())
	require.Equal(t, `"hi"`, str(t, eval(t, reg, `pretty(sh("echo", "hi"), color=False)`)))

	_, err := evalErr(nil, `pretty(1, color="yes")`)
	require.Error(t, err)
}
