package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/marcelocantos/piep/internal/audit"
	"github.com/marcelocantos/piep/internal/builtin"
	"github.com/marcelocantos/piep/internal/cli"
	"github.com/marcelocantos/piep/internal/config"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "piep: config: %v\n", err)
		return 1
	}

	if len(os.Args) < 2 {
		cli.RunHelp(cfg, os.Stderr)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch os.Args[1] {
	case "--list":
		kind := ""
		if len(os.Args) > 2 {
			kind = os.Args[2]
		}
		return cli.RunList(builtin.Default(), os.Stdout, kind)
	case "--help", "-h":
		return cli.RunHelp(cfg, os.Stdout)
	case "--history":
		return cli.RunHistory(os.Stdout, cfg.Audit.Path, os.Args[2:])
	case "--mcp":
		return cli.RunMCP(ctx, cfg, history(cfg), version, os.Args[2:], os.Stderr)
	case "--version":
		fmt.Printf("piep %s\n", version)
		return 0
	default:
		return cli.RunPipeline(ctx, cfg, history(cfg), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	}
}

// history opens the run history, or returns nil when it is disabled or
// cannot be opened.
func history(cfg *config.Config) *audit.Logger {
	if !cfg.Audit.Enabled {
		return nil
	}
	l, err := audit.NewLogger(cfg.Audit.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "piep: history: %v\n", err)
		return nil
	}
	return l
}
