// Package rules decides which external commands a pipeline may run.
//
// Every command spawned with sh() or spawn() is checked before it is
// registered. Hardcoded rules always apply; config rules can be skipped
// with --trust.
package rules

import (
	"path/filepath"
	"strings"
)

// CheckFunc validates the argument vector of a command. command is the
// base name of argv[0]. Returns a non-nil error to block the spawn.
type CheckFunc func(command string, args []string) error

// RuleSet holds an ordered list of validation rules. Hardcoded rules run first
// and cannot be removed. Config rules are appended after.
type RuleSet struct {
	hardcoded []CheckFunc
	config    []CheckFunc
}

// NewRuleSet creates a RuleSet with the given hardcoded rules.
func NewRuleSet(hardcoded ...CheckFunc) *RuleSet {
	return &RuleSet{hardcoded: hardcoded}
}

// AddConfig appends a config-driven rule.
func (rs *RuleSet) AddConfig(fn CheckFunc) {
	rs.config = append(rs.config, fn)
}

// Check runs all rules against argv. When trusted is true, config rules
// are skipped.
func (rs *RuleSet) Check(argv []string, trusted bool) error {
	if rs == nil || len(argv) == 0 {
		return nil
	}
	command, args := filepath.Base(argv[0]), argv[1:]
	for _, fn := range rs.hardcoded {
		if err := fn(command, args); err != nil {
			return err
		}
	}
	if trusted {
		return nil
	}
	for _, fn := range rs.config {
		if err := fn(command, args); err != nil {
			return err
		}
	}
	return nil
}

// hasAnyFlag checks whether any element in args matches one of the given flags.
// It handles:
//   - Exact match: "-f" matches "-f"
//   - Combined short flags: "-rf" matches "-r" and "-f"
//   - Short flag with value: "-j4" matches "-j"
//   - Long flag with =: "--flag=value" matches "--flag"
func hasAnyFlag(args []string, flags ...string) bool {
	for _, arg := range args {
		if arg == "" || arg[0] != '-' {
			continue
		}
		for _, flag := range flags {
			if arg == flag {
				return true
			}
			if len(flag) == 2 && flag[0] == '-' && flag[1] != '-' &&
				len(arg) > 2 && arg[1] != '-' &&
				strings.ContainsRune(arg[1:], rune(flag[1])) {
				return true
			}
			if strings.HasPrefix(flag, "--") && strings.HasPrefix(arg, flag+"=") {
				return true
			}
		}
	}
	return false
}
