package runner

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/marcelocantos/piep/internal/seq"
)

// records returns a Puller over the delim-terminated records of r. A
// missing final terminator is tolerated. Newline-terminated records also
// lose a trailing "\r".
func records(r io.Reader, delim byte) seq.Puller[string] {
	br := bufio.NewReader(r)
	done := false
	return func() (string, bool, error) {
		if done {
			return "", false, nil
		}
		rec, err := br.ReadString(delim)
		if err != nil {
			done = true
			if !errors.Is(err, io.EOF) {
				return "", false, err
			}
			if rec == "" {
				return "", false, nil
			}
		}
		rec = strings.TrimSuffix(rec, string(delim))
		if delim == '\n' {
			rec = strings.TrimSuffix(rec, "\r")
		}
		return rec, true, nil
	}
}
