// Package statefile reads the flat key=value files sgt keeps per entity.
package statefile

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/narvanalabs/sgt-web/internal/models"
)

// Parse splits content into lines and records key=value pairs. Only the
// first '=' separates key from value, and a line needs a non-empty key.
// Nothing is trimmed or unquoted.
func Parse(content string) map[string]string {
	state := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		eq := strings.IndexByte(line, '=')
		if eq > 0 {
			state[line[:eq]] = line[eq+1:]
		}
	}
	return state
}

// ReadFile reads and parses one state file. The boolean is false when the
// file is missing or unreadable; callers treat that as "no state".
func ReadFile(path string) (map[string]string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return Parse(string(data)), true
}

// ReadDir reads every non-hidden file in dir, sorted by name. A missing or
// unreadable directory yields an empty list, never nil.
func ReadDir(dir string) []models.StateEntry {
	entries := []models.StateEntry{}
	for _, name := range ListNames(dir) {
		state, ok := ReadFile(filepath.Join(dir, name))
		if !ok {
			continue
		}
		entries = append(entries, models.StateEntry{Name: name, State: state})
	}
	return entries
}

// ListNames returns the non-hidden, non-directory entry names of dir.
func ListNames(dir string) []string {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if strings.HasPrefix(de.Name(), ".") || de.IsDir() {
			continue
		}
		names = append(names, de.Name())
	}
	sort.Strings(names)
	return names
}
