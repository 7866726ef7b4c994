// Package town reads the on-disk state sgt keeps under its root directory.
// Nothing here writes or locks those files.
package town

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/narvanalabs/sgt-web/internal/models"
	"github.com/narvanalabs/sgt-web/internal/statefile"
)

// State directory names under <root>/.sgt.
const (
	PolecatsDir   = "polecats"
	DogsDir       = "dogs"
	CrewDir       = "crew"
	MergeQueueDir = "merge-queue"
)

// Town is a read-only view of one sgt root directory.
type Town struct {
	root   string
	logger *slog.Logger
}

// New creates a view of root.
func New(root string, logger *slog.Logger) *Town {
	if logger == nil {
		logger = slog.Default()
	}
	return &Town{root: root, logger: logger}
}

// Root returns the sgt root directory.
func (t *Town) Root() string { return t.root }

// ConfigDir returns <root>/.sgt.
func (t *Town) ConfigDir() string { return filepath.Join(t.root, ".sgt") }

// LogPath returns <root>/sgt.log.
func (t *Town) LogPath() string { return filepath.Join(t.root, "sgt.log") }

// MoleculesDir returns <root>/molecules.
func (t *Town) MoleculesDir() string { return filepath.Join(t.root, "molecules") }

// StateEntries reads every state file of the named directory under .sgt.
func (t *Town) StateEntries(dir string) []models.StateEntry {
	return statefile.ReadDir(filepath.Join(t.ConfigDir(), dir))
}

// Polecats reads .sgt/polecats.
func (t *Town) Polecats() []models.StateEntry { return t.StateEntries(PolecatsDir) }

// Dogs reads .sgt/dogs.
func (t *Town) Dogs() []models.StateEntry { return t.StateEntries(DogsDir) }

// Crew reads .sgt/crew.
func (t *Town) Crew() []models.StateEntry { return t.StateEntries(CrewDir) }

// MergeQueue reads .sgt/merge-queue.
func (t *Town) MergeQueue() []models.StateEntry { return t.StateEntries(MergeQueueDir) }

// Escalation returns .sgt/escalation.json verbatim, or nil when it is
// missing or not valid JSON.
func (t *Town) Escalation() json.RawMessage {
	path := filepath.Join(t.ConfigDir(), "escalation.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	if !json.Valid(data) {
		t.logger.Warn("ignoring invalid escalation policy", "path", path)
		return nil
	}
	return json.RawMessage(data)
}

// Daemon reports whether the pid in .sgt/daemon.pid belongs to a live
// process.
func (t *Town) Daemon() models.DaemonInfo {
	data, err := os.ReadFile(filepath.Join(t.ConfigDir(), "daemon.pid"))
	if err != nil {
		return models.DaemonInfo{}
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return models.DaemonInfo{}
	}
	return models.DaemonInfo{Running: processAlive(pid), PID: pid}
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
