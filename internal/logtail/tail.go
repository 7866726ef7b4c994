// Package logtail reads and follows sgt's append-only log file.
package logtail

import (
	"os"
	"strings"
)

// DefaultLines is the number of lines Tail returns when asked for none.
const DefaultLines = 100

// Tail returns the last n lines of the file at path. A trailing newline
// does not count as an extra empty line. A missing or unreadable file
// yields an empty list.
func Tail(path string, n int) []string {
	if n <= 0 {
		n = DefaultLines
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return []string{}
	}

	content := strings.TrimSuffix(string(data), "\n")
	if content == "" {
		return []string{}
	}

	lines := strings.Split(content, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	return lines
}

// SplitLines decodes an appended byte range into its non-blank lines.
func SplitLines(chunk []byte) []string {
	lines := []string{}
	for _, line := range strings.Split(string(chunk), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
