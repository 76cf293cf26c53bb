package cli

import (
	"fmt"
	"io"

	"github.com/marcelocantos/piep/internal/builtin"
)

// RunList lists the builtins available to expressions, optionally only
// those of one kind.
func RunList(reg *builtin.Registry, w io.Writer, kindFilter string) int {
	var filter *builtin.Kind
	if kindFilter != "" {
		k, err := builtin.ParseKind(kindFilter)
		if err != nil {
			fmt.Fprintf(w, "piep list: %v\n", err)
			return 1
		}
		filter = &k
	}

	for _, b := range reg.All() {
		if filter != nil && b.Kind != *filter {
			continue
		}
		fmt.Fprintf(w, "%-12s %-7s %s\n", b.Name, b.Kind, b.Description)
	}
	if filter == nil {
		fmt.Fprintf(w, "\nimportable with -m: %v\n", builtin.Importable())
	}
	return 0
}
