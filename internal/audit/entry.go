package audit

import "time"

// Entry is one record of the run history.
type Entry struct {
	Seq      uint64    `json:"seq"`
	Time     time.Time `json:"ts"`
	PrevHash string    `json:"prev_hash"`
	Run      string    `json:"run"`             // run id
	Pipeline string    `json:"pipeline"`        // pipeline as given on the command line
	Modes    []string  `json:"modes,omitempty"` // line or global, per expression
	Commands []Command `json:"commands,omitempty"`
	ExitCode int       `json:"exit_code"`
	Error    string    `json:"error,omitempty"`
	Duration float64   `json:"duration_ms"`
	Cwd      string    `json:"cwd"`
	Hash     string    `json:"hash"` // SHA-256 of this entry (with hash field empty)
}

// Command is a command spawned during a run.
type Command struct {
	Argv     []string `json:"argv"`
	ExitCode int      `json:"exit_code"`
	Error    string   `json:"error,omitempty"`
}
