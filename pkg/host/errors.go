package host

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrToolNotFound is returned when the host tool executable cannot be
	// found.
	ErrToolNotFound = errors.New("host tool not found")
	// ErrUnparseableOutput is returned when the host tool output cannot be
	// decoded.
	ErrUnparseableOutput = errors.New("unparseable host tool output")
	// ErrUnsupportedVersion is returned when the host tool is older than the
	// minimum supported version.
	ErrUnsupportedVersion = errors.New("unsupported host tool version")
)

// ExitError is returned when the host tool exits with a non-zero status.
type ExitError struct {
	Args   []string
	Code   int
	Stderr string
}

// Error implements error. The message is the captured diagnostic output,
// or the exit status when the tool printed nothing.
func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return e.Stderr
	}

	return fmt.Sprintf("%s: exit status %d", strings.Join(e.Args, " "), e.Code)
}
