package audit

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func entry(pipeline string, commands ...[]string) Entry {
	e := Entry{Run: "run-" + pipeline, Pipeline: pipeline, Modes: []string{"line"}, Cwd: "/tmp"}
	for _, argv := range commands {
		e.Commands = append(e.Commands, Command{Argv: argv})
	}
	return e
}

func TestLogAndVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history", "history.jsonl")

	logger, err := NewLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := range 5 {
		if err := logger.Log(entry("p.upper()", []string{"ls"}), time.Duration(i)*time.Millisecond); err != nil {
			t.Fatalf("log entry %d: %v", i, err)
		}
	}

	n, err := Verify(path)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if n != 5 {
		t.Errorf("verified %d entries, want 5", n)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")

	logger, err := NewLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	for range 3 {
		_ = logger.Log(entry("sh('rm', p)", []string{"rm", "a"}), time.Millisecond)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"rm","a"`)) {
		t.Fatal("argv not found")
	}
	data = bytes.Replace(data, []byte(`"rm","a"`), []byte(`"ls","a"`), 1)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Verify(path); err == nil {
		t.Fatal("expected verify to detect tampering")
	}
}

func TestVerifyDetectsSequenceGap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")

	logger, err := NewLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	for range 5 {
		_ = logger.Log(entry("pp[:3]"), time.Millisecond)
	}

	lines, err := readLines(path)
	if err != nil {
		t.Fatal(err)
	}
	lines = append(lines[:2], lines[3:]...)
	if err := os.WriteFile(path, append(bytes.Join(lines, []byte("\n")), '\n'), 0o600); err != nil {
		t.Fatal(err)
	}

	n, err := Verify(path)
	if err == nil {
		t.Fatal("expected verify to detect sequence gap")
	}
	if n != 2 {
		t.Errorf("verified %d entries before the gap, want 2", n)
	}
}

func TestVerifyEmptyAndMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.jsonl")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Verify(path); err != nil {
		t.Fatalf("empty history should be valid: %v", err)
	}
	if n, err := Verify(filepath.Join(dir, "missing.jsonl")); err != nil || n != 0 {
		t.Fatalf("missing history: %d, %v", n, err)
	}
}

func TestLoggerResumesChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")

	logger1, err := NewLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = logger1.Log(entry("first"), time.Millisecond)
	_ = logger1.Log(entry("second"), time.Millisecond)

	logger2, err := NewLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = logger2.Log(entry("third", []string{"echo", "hi"}), 1500*time.Microsecond)

	if _, err := Verify(path); err != nil {
		t.Fatalf("chain should be valid after restart: %v", err)
	}

	entries, err := Tail(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	last := entries[2]
	if last.Seq != 3 || last.Pipeline != "third" || last.Duration != 1.5 {
		t.Errorf("last entry = %+v", last)
	}
	if len(last.Commands) != 1 || last.Commands[0].Argv[0] != "echo" {
		t.Errorf("commands = %+v", last.Commands)
	}

	tail, err := Tail(path, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(tail) != 1 || tail[0].Pipeline != "third" {
		t.Errorf("Tail(1) = %+v", tail)
	}
}
