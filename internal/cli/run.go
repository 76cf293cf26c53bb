package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/marcelocantos/piep/internal/audit"
	"github.com/marcelocantos/piep/internal/config"
	"github.com/marcelocantos/piep/internal/logger"
	"github.com/marcelocantos/piep/internal/runner"
	"github.com/marcelocantos/piep/internal/shell"
)

// RunPipeline parses args and runs the pipeline they name:
// piep [OPTIONS] PIPELINE
func RunPipeline(ctx context.Context, cfg *config.Config, history *audit.Logger, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, debug, err := parseRun(args, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "piep: %v\n", err)
		fmt.Fprintln(stderr, "usage: piep [OPTIONS] PIPELINE (see piep --help)")
		return 1
	}

	log := logger.New(logConfig(cfg, debug), stderr)
	ctx = log.WithContext(ctx)

	report, err := runner.Run(ctx, opts, stdin, stdout, stderr)
	exitCode, errMsg := resolveError(stderr, err)
	record(ctx, history, report, exitCode, errMsg)
	return exitCode
}

func logConfig(cfg *config.Config, debug bool) logger.Config {
	lc := cfg.Log
	if debug {
		lc.Level = "debug"
	}
	return lc
}

// resolveError reports err on stderr and picks the exit status. A failed
// command passes its own exit status through; anything else exits 1.
func resolveError(stderr io.Writer, err error) (exitCode int, errMsg string) {
	if err == nil {
		return 0, ""
	}
	fmt.Fprintf(stderr, "piep: %v\n", err)
	var fail *shell.FailureError
	if errors.As(err, &fail) && fail.Code > 0 {
		return fail.Code, err.Error()
	}
	return 1, err.Error()
}

// record appends a finished run to the history. Failing to record never
// changes the outcome of the run.
func record(ctx context.Context, history *audit.Logger, report *runner.Report, exitCode int, errMsg string) {
	if history == nil || report == nil {
		return
	}
	cwd, _ := os.Getwd()
	e := audit.Entry{
		Run:      report.ID,
		Pipeline: report.Pipeline,
		Modes:    report.Modes,
		ExitCode: exitCode,
		Error:    errMsg,
		Cwd:      cwd,
	}
	for _, c := range report.Commands {
		e.Commands = append(e.Commands, audit.Command{Argv: c.Argv, ExitCode: c.ExitCode, Error: c.Err})
	}
	if err := history.Log(e, report.Duration); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", history.Path()).Msg("history not recorded")
	}
}
