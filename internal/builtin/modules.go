package builtin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.starlark.net/lib/json"
	"go.starlark.net/lib/math"
	"go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/marcelocantos/piep/internal/value"
)

// importable lists the library modules a run may bring into scope by name.
var importable = map[string]*starlarkstruct.Module{
	"json": json.Module,
	"math": math.Module,
	"time": time.Module,
}

// Import returns the module registered under name. The predeclared path
// and re modules may also be named.
func Import(name string) (starlark.Value, error) {
	if m, ok := importable[name]; ok {
		return m, nil
	}
	switch name {
	case "path":
		return pathModule, nil
	case "re":
		return reModule, nil
	}
	return nil, fmt.Errorf("unknown module: %q (available: %s)", name, strings.Join(Importable(), ", "))
}

// Importable returns the names Import accepts, sorted.
func Importable() []string {
	names := []string{"path", "re"}
	for name := range importable {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func registerModules(r *Registry) {
	r.Register(Builtin{Name: "path", Kind: KindModule, Description: "path manipulation (join, dirname, basename, splitext, exists, isdir, isfile, abspath)", Value: pathModule})
	r.Register(Builtin{Name: "re", Kind: KindModule, Description: "regular expressions, RE2 syntax (search, match, fullmatch, findall, sub, split)", Value: reModule})
}

func member(name string, impl func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error)) *starlark.Builtin {
	return starlark.NewBuiltin(name, impl)
}

var pathModule = &starlarkstruct.Module{
	Name: "path",
	Members: starlark.StringDict{
		"join":     member("path.join", pathJoin),
		"dirname":  pathString("path.dirname", dirname),
		"basename": pathString("path.basename", basename),
		"splitext": member("path.splitext", pathSplitext),
		"exists":   pathStat("path.exists", func(os.FileInfo) bool { return true }),
		"isdir":    pathStat("path.isdir", os.FileInfo.IsDir),
		"isfile":   pathStat("path.isfile", func(fi os.FileInfo) bool { return fi.Mode().IsRegular() }),
		"abspath":  member("path.abspath", pathAbs),
	},
}

func pathString(name string, f func(string) string) *starlark.Builtin {
	return member(name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		s, err := textArg(b.Name(), args, kwargs)
		if err != nil {
			return nil, err
		}
		return starlark.String(f(s)), nil
	})
}

func pathStat(name string, f func(os.FileInfo) bool) *starlark.Builtin {
	return member(name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		s, err := textArg(b.Name(), args, kwargs)
		if err != nil {
			return nil, err
		}
		fi, err := os.Stat(s)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
				return starlark.False, nil
			}
			return nil, err
		}
		return starlark.Bool(f(fi)), nil
	})
}

// pathJoin joins components like a POSIX shell would: an absolute component
// discards everything before it.
func pathJoin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	var out string
	for i, a := range args {
		s, ok, err := value.Text(a)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%s: argument %d: want string, got %s", b.Name(), i+1, a.Type())
		}
		switch {
		case strings.HasPrefix(s, "/"), i == 0:
			out = s
		case out == "" || strings.HasSuffix(out, "/"):
			out += s
		default:
			out += "/" + s
		}
	}
	return starlark.String(out), nil
}

func pathSplitext(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	s, err := textArg(b.Name(), args, kwargs)
	if err != nil {
		return nil, err
	}
	root, ext := splitext(s)
	return starlark.Tuple{starlark.String(root), starlark.String(ext)}, nil
}

func pathAbs(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	s, err := textArg(b.Name(), args, kwargs)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlark.String(abs), nil
}
