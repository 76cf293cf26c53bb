package rules

import (
	"fmt"
	"slices"
)

// CommandRuleConfig is one command's rules from YAML config.
type CommandRuleConfig struct {
	RejectFlags []string                 `yaml:"reject_flags"`
	Subcommands map[string]SubRuleConfig `yaml:"subcommands"`
}

// SubRuleConfig represents rules for a specific subcommand.
type SubRuleConfig struct {
	RejectFlags []string `yaml:"reject_flags"`
}

// DenyCommands blocks every command whose base name is listed.
func DenyCommands(names ...string) CheckFunc {
	return func(command string, _ []string) error {
		if slices.Contains(names, command) {
			return fmt.Errorf("%s: command denied by config rule (rerun with --trust to allow)", command)
		}
		return nil
	}
}

// CompileCommandRule turns a single command's config into CheckFuncs.
func CompileCommandRule(name string, cfg CommandRuleConfig) []CheckFunc {
	var fns []CheckFunc
	if len(cfg.RejectFlags) > 0 {
		flags := cfg.RejectFlags
		fns = append(fns, func(command string, args []string) error {
			if command == name && hasAnyFlag(args, flags...) {
				return fmt.Errorf("%s: flag rejected by config rule (rerun with --trust to allow)", name)
			}
			return nil
		})
	}
	for sub, subRule := range cfg.Subcommands {
		if len(subRule.RejectFlags) == 0 {
			continue
		}
		flags := subRule.RejectFlags
		fns = append(fns, func(command string, args []string) error {
			if command != name || len(args) == 0 || args[0] != sub {
				return nil
			}
			if hasAnyFlag(args[1:], flags...) {
				return fmt.Errorf("%s %s: flag rejected by config rule (rerun with --trust to allow)", name, sub)
			}
			return nil
		})
	}
	return fns
}
