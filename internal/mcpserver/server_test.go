package mcpserver

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelocantos/piep/internal/runner"
)

func call(t *testing.T, fn func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := fn(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return text.Text, res.IsError
}

func TestRunPipeline(t *testing.T) {
	var reports []*runner.Report
	h := &Handler{
		Base:   runner.Options{Join: " "},
		Record: func(r *runner.Report, _ error) { reports = append(reports, r) },
	}

	out, isErr := call(t, h.runPipeline, map[string]any{
		"pipeline": "p.upper() | pp[:2]",
		"input":    "a\nb\nc\n",
	})
	assert.False(t, isErr)
	assert.Equal(t, "A\nB\n", out)

	out, isErr = call(t, h.runPipeline, map[string]any{
		"pipeline": "p.split(',')",
		"input":    "a,b\n",
		"join":     `\t`,
	})
	assert.False(t, isErr, out)
	assert.Equal(t, "a\tb\n", out)

	out, isErr = call(t, h.runPipeline, map[string]any{
		"pipeline": "range(3) | str(p)",
		"no_input": true,
	})
	assert.False(t, isErr, out)
	assert.Equal(t, "0\n1\n2\n", out)

	require.Len(t, reports, 3)
	assert.Equal(t, []string{"line", "global"}, reports[0].Modes)
}

func TestRunPipelineErrors(t *testing.T) {
	h := &Handler{Base: runner.Options{Join: " "}}

	_, isErr := call(t, h.runPipeline, map[string]any{})
	assert.True(t, isErr)

	out, isErr := call(t, h.runPipeline, map[string]any{
		"pipeline": "p + pp",
		"input":    "x\n",
	})
	assert.True(t, isErr)
	assert.Contains(t, out, "same expression")
}

func TestListBuiltins(t *testing.T) {
	h := &Handler{}

	out, isErr := call(t, h.listBuiltins, map[string]any{"kind": "shell"})
	assert.False(t, isErr)
	assert.Contains(t, out, "sh\tshell\t")
	assert.NotContains(t, out, "basename")

	_, isErr = call(t, h.listBuiltins, map[string]any{"kind": "bogus"})
	assert.True(t, isErr)
}
