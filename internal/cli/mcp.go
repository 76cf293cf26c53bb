package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/marcelocantos/piep/internal/audit"
	"github.com/marcelocantos/piep/internal/config"
	"github.com/marcelocantos/piep/internal/logger"
	"github.com/marcelocantos/piep/internal/mcpserver"
	"github.com/marcelocantos/piep/internal/runner"
)

// RunMCP serves pipelines to MCP clients on stdio. The run options apply to
// every tool call; the pipeline, input and join come from the call.
func RunMCP(ctx context.Context, cfg *config.Config, history *audit.Logger, version string, args []string, stderr io.Writer) int {
	var f runFlags
	fs := newFlagSet("piep --mcp", cfg, &f)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stderr, "piep --mcp: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "piep --mcp: unexpected arguments")
		return 1
	}
	opts, err := f.options(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "piep --mcp: %v\n", err)
		return 1
	}

	log := logger.New(logConfig(cfg, f.debug), stderr)
	h := &mcpserver.Handler{
		Base: opts,
		Record: func(report *runner.Report, err error) {
			exitCode, errMsg := 0, ""
			if err != nil {
				exitCode, errMsg = resolveError(io.Discard, err)
			}
			record(log.WithContext(ctx), history, report, exitCode, errMsg)
		},
	}
	log.Info().Str("version", version).Msg("serving MCP on stdio")
	if err := mcpserver.Serve(mcpserver.New(h, version), log); err != nil {
		fmt.Fprintf(stderr, "piep --mcp: %v\n", err)
		return 1
	}
	return 0
}
