// Package mcpserver exposes piep to agents as an MCP tool server on stdio.
package mcpserver

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/marcelocantos/piep/internal/builtin"
	"github.com/marcelocantos/piep/internal/runner"
)

// RecordFunc is called after every tool run, successful or not.
type RecordFunc func(report *runner.Report, err error)

// Handler runs pipelines for tool calls. Base supplies everything a call
// does not: shell defaults, rules, preludes and imports.
type Handler struct {
	Base   runner.Options
	Record RecordFunc
}

// New returns an MCP server with the run_pipeline and list_builtins tools.
func New(h *Handler, version string) *server.MCPServer {
	s := server.NewMCPServer("piep", version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("run_pipeline",
		mcp.WithDescription("Run a piep pipeline over text. Expressions are Starlark, separated by |. "+
			"p is the current line and i its index; pp is the whole sequence."),
		mcp.WithString("pipeline", mcp.Required(), mcp.Description("The pipeline, e.g. `p.upper() | pp[:10]`.")),
		mcp.WithString("input", mcp.Description("Input text, split into lines.")),
		mcp.WithString("join", mcp.Description("Separator for list and tuple elements (default: space).")),
		mcp.WithBoolean("no_input", mcp.Description("Ignore input; the pipeline builds pp itself.")),
	), h.runPipeline)

	s.AddTool(mcp.NewTool("list_builtins",
		mcp.WithDescription("List the functions and modules available to piep expressions."),
		mcp.WithString("kind", mcp.Description("Only list one kind: core, text, shell or module.")),
	), h.listBuiltins)

	return s
}

// Serve runs s on stdin/stdout until the client disconnects. Tool calls
// log through log.
func Serve(s *server.MCPServer, log zerolog.Logger) error {
	return server.ServeStdio(s, server.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return log.WithContext(ctx)
	}))
}

func (h *Handler) runPipeline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pipeline, err := req.RequireString("pipeline")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := h.Base
	opts.Pipeline = pipeline
	opts.Input = ""
	opts.NoInput = req.GetBool("no_input", false)
	if join := req.GetString("join", ""); join != "" {
		opts.Join = runner.DecodeJoin(join)
	}

	var stdout, stderr bytes.Buffer
	report, err := runner.Run(ctx, opts, strings.NewReader(req.GetString("input", "")), &stdout, &stderr)
	if h.Record != nil {
		h.Record(report, err)
	}
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("pipeline", pipeline).Msg("tool run failed")
		msg := err.Error()
		if stderr.Len() > 0 {
			msg += "\n" + stderr.String()
		}
		return mcp.NewToolResultError(msg), nil
	}
	return mcp.NewToolResultText(stdout.String()), nil
}

func (h *Handler) listBuiltins(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reg := h.Base.Builtins
	if reg == nil {
		reg = builtin.Default()
	}
	var filter *builtin.Kind
	if k := req.GetString("kind", ""); k != "" {
		kind, err := builtin.ParseKind(k)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filter = &kind
	}

	var b strings.Builder
	for _, bi := range reg.All() {
		if filter != nil && bi.Kind != *filter {
			continue
		}
		fmt.Fprintf(&b, "%s\t%s\t%s\n", bi.Name, bi.Kind, bi.Description)
	}
	return mcp.NewToolResultText(b.String()), nil
}
