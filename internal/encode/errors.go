package encode

import (
	"fmt"
	"strings"
)

const stderrTailLines = 8

// ExecError reports a failed ffmpeg run together with its captured stderr.
type ExecError struct {
	Err    error
	Stderr string
}

func (e *ExecError) Error() string {
	tail := e.Tail(stderrTailLines)
	if tail == "" {
		return fmt.Sprintf("ffmpeg encode: %v", e.Err)
	}
	return fmt.Sprintf("ffmpeg encode: %v: %s", e.Err, tail)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Tail returns the last n non-empty stderr lines joined by " | ".
func (e *ExecError) Tail(n int) string {
	var lines []string
	for _, line := range strings.Split(e.Stderr, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
