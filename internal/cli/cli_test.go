package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marcelocantos/piep/internal/audit"
	"github.com/marcelocantos/piep/internal/builtin"
	"github.com/marcelocantos/piep/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Audit.Path = filepath.Join(t.TempDir(), "history.jsonl")
	return cfg
}

func runCLI(t *testing.T, cfg *config.Config, history *audit.Logger, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := RunPipeline(context.Background(), cfg, history, args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunPipeline(t *testing.T) {
	cfg := testConfig(t)

	code, out, errOut := runCLI(t, cfg, nil, "b.go\na.txt\nc.go\n", `p.endswith(".go") | stripext(p) | sorted(pp)`)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if out != "b\nc\n" {
		t.Errorf("out = %q", out)
	}
}

func TestRunPipelineFlags(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(input, []byte("x y\nz w\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"join", "a,b\n", []string{"-j", `\t`, "p.split(',')"}, "a\tb\n"},
		{"input file", "", []string{"-i", input, "p.split()[1]"}, "y\nw\n"},
		{"no input", "ignored\n", []string{"-n", "range(2) | str(p)"}, "0\n1\n"},
		{"read0", "a\x00b\x00", []string{"-0", "p + '!'"}, "a!\nb!\n"},
		{"print0", "a\nb\n", []string{"--print0", "p"}, "a\x00b"},
		{"eval", "1\n2\n", []string{"-e", "k = 10", "int(p) * k | str(p)"}, "10\n20\n"},
		{"import", "", []string{"-n", "-m", "json", "[json.encode({'a': 1})]"}, "{\"a\":1}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCLI(t, cfg, nil, tt.stdin, tt.args...)
			if code != 0 {
				t.Fatalf("exit %d: %s", code, errOut)
			}
			if out != tt.want {
				t.Errorf("out = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestRunPipelineUsageErrors(t *testing.T) {
	cfg := testConfig(t)
	for _, args := range [][]string{
		{},
		{"p", "extra"},
		{"--bogus", "p"},
	} {
		code, _, errOut := runCLI(t, cfg, nil, "", args...)
		if code != 1 {
			t.Errorf("%q: exit %d, want 1", args, code)
		}
		if !strings.Contains(errOut, "usage:") {
			t.Errorf("%q: stderr = %q", args, errOut)
		}
	}
}

func TestRunPipelineExitCodes(t *testing.T) {
	cfg := testConfig(t)

	code, _, errOut := runCLI(t, cfg, nil, "", "-n", `sh("sh", "-c", "exit 3")`)
	if code != 3 {
		t.Errorf("failed command: exit %d, want 3 (%s)", code, errOut)
	}
	if !strings.Contains(errOut, "non-zero exit status 3") {
		t.Errorf("stderr = %q", errOut)
	}

	code, _, errOut = runCLI(t, cfg, nil, "a\n", "p +")
	if code != 1 || !strings.Contains(errOut, "piep: ") {
		t.Errorf("compile error: exit %d, stderr %q", code, errOut)
	}

	code, _, _ = runCLI(t, cfg, nil, "a\n", "int(p)")
	if code != 1 {
		t.Errorf("user error: exit %d, want 1", code)
	}
}

func TestRunPipelineRules(t *testing.T) {
	cfg := testConfig(t)
	cfg.Shell.Deny = []string{"echo"}

	code, _, errOut := runCLI(t, cfg, nil, "", "-n", `sh("echo", "hi")`)
	if code != 1 || !strings.Contains(errOut, "denied") {
		t.Errorf("denied command: exit %d, stderr %q", code, errOut)
	}

	code, out, errOut := runCLI(t, cfg, nil, "", "--trust", "-n", `sh("echo", "hi")`)
	if code != 0 || out != "hi\n" {
		t.Errorf("trusted: exit %d, out %q, stderr %q", code, out, errOut)
	}
}

func TestRunPipelineRecordsHistory(t *testing.T) {
	cfg := testConfig(t)
	history, err := audit.NewLogger(cfg.Audit.Path)
	if err != nil {
		t.Fatal(err)
	}

	runCLI(t, cfg, history, "a\n", `sh("echo", p) | str(p)`)
	runCLI(t, cfg, history, "", "-n", `sh("false")`)

	entries, err := audit.Tail(cfg.Audit.Path, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	first := entries[0]
	if first.Pipeline != `sh("echo", p) | str(p)` || first.ExitCode != 0 || first.Run == "" {
		t.Errorf("first = %+v", first)
	}
	if len(first.Modes) != 2 || first.Modes[0] != "line" {
		t.Errorf("modes = %v", first.Modes)
	}
	if len(first.Commands) != 1 || strings.Join(first.Commands[0].Argv, " ") != "echo a" {
		t.Errorf("commands = %+v", first.Commands)
	}
	second := entries[1]
	if second.ExitCode != 1 || second.Error == "" {
		t.Errorf("second = %+v", second)
	}

	var buf bytes.Buffer
	if code := RunHistory(&buf, cfg.Audit.Path, []string{"verify"}); code != 0 {
		t.Fatalf("verify: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "2 entries") {
		t.Errorf("verify output = %q", buf.String())
	}

	buf.Reset()
	if code := RunHistory(&buf, cfg.Audit.Path, []string{"show", "1"}); code != 0 {
		t.Fatalf("show: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"pipeline": "sh(\"false\")"`) || strings.Contains(buf.String(), "echo") {
		t.Errorf("show output = %q", buf.String())
	}
}

func TestRunHistoryUsage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	var buf bytes.Buffer
	for _, args := range [][]string{nil, {"bogus"}, {"show", "0"}} {
		buf.Reset()
		if code := RunHistory(&buf, path, args); code != 1 {
			t.Errorf("%q: exit %d", args, code)
		}
	}
	buf.Reset()
	if code := RunHistory(&buf, path, []string{"show"}); code != 0 || !strings.Contains(buf.String(), "no history") {
		t.Errorf("empty show: %d %q", code, buf.String())
	}
}

func TestRunList(t *testing.T) {
	var buf bytes.Buffer
	if code := RunList(builtin.Default(), &buf, "shell"); code != 0 {
		t.Fatal(buf.String())
	}
	out := buf.String()
	if !strings.Contains(out, "sh ") || !strings.Contains(out, "shellsplit") || strings.Contains(out, "basename") {
		t.Errorf("shell list = %q", out)
	}

	buf.Reset()
	RunList(builtin.Default(), &buf, "")
	if !strings.Contains(buf.String(), "importable with -m") {
		t.Errorf("full list = %q", buf.String())
	}

	buf.Reset()
	if code := RunList(builtin.Default(), &buf, "nope"); code != 1 {
		t.Errorf("bad kind: exit %d", code)
	}
}

func TestRunHelp(t *testing.T) {
	var buf bytes.Buffer
	RunHelp(config.DefaultConfig(), &buf)
	for _, want := range []string{"--join", "--no-input", "--print0", "--trust", "--history"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("help lacks %s", want)
		}
	}
}
