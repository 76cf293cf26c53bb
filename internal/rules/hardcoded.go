package rules

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Hardcoded returns the rules that apply regardless of configuration or
// --trust. A pipeline runs its commands once per element, so a single bad
// expression can repeat a destructive command many times.
func Hardcoded() []CheckFunc {
	return []CheckFunc{
		checkRmCatastrophic,
	}
}

// checkRmCatastrophic blocks recursive removal of root, home, or current directory.
func checkRmCatastrophic(command string, args []string) error {
	if command != "rm" || !hasAnyFlag(args, "-r", "-R", "--recursive") {
		return nil
	}
	for _, arg := range args {
		if arg == "" || arg[0] == '-' {
			continue
		}
		cleaned := filepath.Clean(arg)
		if cleaned == "/" || cleaned == "." || cleaned == ".." ||
			arg == "~" || strings.HasPrefix(arg, "~/") {
			return fmt.Errorf("rm: refusing to recursively remove %q", arg)
		}
	}
	return nil
}
