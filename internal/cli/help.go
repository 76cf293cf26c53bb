package cli

import (
	"fmt"
	"io"

	"github.com/marcelocantos/piep/internal/config"
)

// RunHelp prints usage.
func RunHelp(cfg *config.Config, w io.Writer) int {
	fmt.Fprintln(w, "piep: Python-ish pipelines over lines of text, in Starlark")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "usage:")
	fmt.Fprintln(w, "  piep [OPTIONS] PIPELINE           run a pipeline over stdin")
	fmt.Fprintln(w, "  piep --list [<kind>]              list builtins (core, text, shell, module)")
	fmt.Fprintln(w, "  piep --history <verify|show [n]>  run history operations")
	fmt.Fprintln(w, "  piep --mcp [OPTIONS]              serve run_pipeline over MCP on stdio")
	fmt.Fprintln(w, "  piep --help                       show this help")
	fmt.Fprintln(w, "  piep --version                    show version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "options:")
	var f runFlags
	fmt.Fprint(w, newFlagSet("piep", cfg, &f).FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "A pipeline is a chain of expressions separated by |. An expression")
	fmt.Fprintln(w, "naming p (the line) or i (its index) runs once per element; one naming")
	fmt.Fprintln(w, "pp (the whole sequence), files or ff runs once over the sequence.")
	fmt.Fprintln(w, "A per-element result of False or None drops the element; True keeps it.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "examples:")
	fmt.Fprintln(w, "  ls | piep 'p.endswith(\".go\") | p.upper() | pp[:10]'")
	fmt.Fprintln(w, "  piep -n 'sh(\"ls\") | basename(p)'")
	io.WriteString(w, "  piep -f other.txt 'zip(pp, ff) | \"%s=%s\" % p'\n")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "config: %s\n", config.ConfigPath())
	return 0
}
