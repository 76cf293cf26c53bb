package shell

import (
	"fmt"
	"strconv"
	"strings"
)

// FailureError reports a command that exited nonzero, or that could not be
// started (Code is -1 and Err is set).
type FailureError struct {
	Argv []string
	Code int
	Err  error
}

func (e *FailureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("error executing %s: %v", formatArgv(e.Argv), e.Err)
	}
	return fmt.Sprintf("command %s returned non-zero exit status %d", formatArgv(e.Argv), e.Code)
}

func (e *FailureError) Unwrap() error {
	return e.Err
}

func formatArgv(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = strconv.Quote(a)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
