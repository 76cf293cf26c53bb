package cli

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/marcelocantos/piep/internal/config"
	"github.com/marcelocantos/piep/internal/runner"
)

// runFlags are the options shared by pipeline runs and the MCP server.
type runFlags struct {
	debug   bool
	join    string
	evals   []string
	imports []string
	files   []string
	input   string
	read0   bool
	noInput bool
	print0  bool
	trust   bool
}

func newFlagSet(name string, cfg *config.Config, f *runFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SortFlags = false
	fs.SetOutput(io.Discard)

	fs.BoolVar(&f.debug, "debug", false, "log debug diagnostics to stderr")
	fs.StringVarP(&f.join, "join", "j", cfg.Join, "separator for list and tuple elements (escapes like \\t are decoded)")
	fs.StringArrayVarP(&f.evals, "eval", "e", nil, "run Starlark code in the global scope first (repeatable)")
	fs.StringArrayVarP(&f.imports, "import", "m", nil, "bring a module into the global scope (repeatable)")
	fs.StringArrayVarP(&f.files, "file", "f", nil, "add another input stream, available as files[n] (repeatable)")
	fs.StringVarP(&f.input, "input", "i", "", "read a named file instead of stdin")
	fs.BoolVarP(&f.read0, "read0", "0", false, "read input as NUL-separated records")
	fs.BoolVarP(&f.noInput, "no-input", "n", false, "don't read stdin; the first expression builds pp")
	fs.BoolVar(&f.print0, "print0", false, "separate output records with NUL")
	fs.BoolVar(&f.trust, "trust", false, "skip configured command rules (hardcoded rules still apply)")
	return fs
}

// options builds the run options the flags and config describe.
func (f *runFlags) options(cfg *config.Config) (runner.Options, error) {
	sh, err := cfg.Shell.Options()
	if err != nil {
		return runner.Options{}, fmt.Errorf("config: %w", err)
	}
	return runner.Options{
		Join:     runner.DecodeJoin(f.join),
		Imports:  append(append([]string(nil), cfg.Imports...), f.imports...),
		Preludes: cfg.Prelude,
		Evals:    f.evals,
		Files:    f.files,
		Input:    f.input,
		Read0:    f.read0,
		NoInput:  f.noInput,
		Print0:   f.print0,
		Shell:    sh,
		Rules:    cfg.RuleSet(),
		Trusted:  f.trust,
	}, nil
}

// parseRun parses a pipeline command line: flags followed by exactly one
// pipeline argument.
func parseRun(args []string, cfg *config.Config) (runner.Options, bool, error) {
	var f runFlags
	fs := newFlagSet("piep", cfg, &f)
	if err := fs.Parse(args); err != nil {
		return runner.Options{}, false, err
	}
	switch fs.NArg() {
	case 0:
		return runner.Options{}, f.debug, fmt.Errorf("missing pipeline")
	case 1:
	default:
		return runner.Options{}, f.debug, fmt.Errorf("too many arguments (quote the pipeline)")
	}
	opts, err := f.options(cfg)
	if err != nil {
		return runner.Options{}, f.debug, err
	}
	opts.Pipeline = fs.Arg(0)
	return opts, f.debug, nil
}
