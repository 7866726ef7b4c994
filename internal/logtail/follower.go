package logtail

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is the fallback stat interval of Watch.
const DefaultPollInterval = time.Second

// Event describes what changed in the followed file since the last check.
type Event struct {
	// Reset is set when the file shrank; the offset went back to zero.
	Reset bool
	// Lines are the non-blank lines of the newly appended byte range.
	Lines []string
}

// Empty reports whether the event carries nothing to deliver.
func (e Event) Empty() bool {
	return !e.Reset && len(e.Lines) == 0
}

// Follower tracks the read offset of one log file. It is owned by a single
// live session and must not be shared.
type Follower struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	offset int64
}

// NewFollower creates a follower positioned at the current end of path, or
// at zero when the file does not exist yet.
func NewFollower(path string, logger *slog.Logger) *Follower {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Follower{path: path, logger: logger}
	if info, err := os.Stat(path); err == nil {
		f.offset = info.Size()
	}
	return f
}

// Offset returns the last known size of the file.
func (f *Follower) Offset() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.offset
}

// Check compares the file's size with the last known size. Growth yields
// the appended lines; shrinkage yields a reset followed by whatever the
// file now holds from offset zero. A missing file yields an empty event.
func (f *Follower) Check() (Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	info, err := os.Stat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Event{}, nil
		}
		return Event{}, fmt.Errorf("stat %s: %w", f.path, err)
	}

	var ev Event
	size := info.Size()
	if size < f.offset {
		f.logger.Info("sgt log truncated", "path", f.path,
			"previous_size", humanize.IBytes(uint64(f.offset)),
			"size", humanize.IBytes(uint64(size)))
		f.offset = 0
		ev.Reset = true
	}
	if size == f.offset {
		return ev, nil
	}

	chunk, err := readRange(f.path, f.offset, size)
	if err != nil {
		return ev, err
	}
	f.offset = size
	ev.Lines = SplitLines(chunk)
	return ev, nil
}

func readRange(path string, from, to int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	buf := make([]byte, to-from)
	n, err := file.ReadAt(buf, from)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return buf[:n], nil
}

// Watch calls fn with every non-empty event until ctx ends. Checks are
// triggered by fsnotify events on the file's directory and by a fallback
// ticker every interval. When no watcher can be set up Watch only polls.
// The watcher is closed before Watch returns.
func (f *Follower) Watch(ctx context.Context, interval time.Duration, fn func(Event)) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	check := func() {
		ev, err := f.Check()
		if err != nil {
			f.logger.Warn("failed to check sgt log", "path", f.path, "error", err)
		}
		if !ev.Empty() {
			fn(ev)
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		f.logger.Warn("fsnotify unavailable, polling sgt log", "error", err)
	} else {
		defer watcher.Close()
		// Watch the directory so rotation and late creation are seen too.
		if err := watcher.Add(filepath.Dir(f.path)); err != nil {
			f.logger.Warn("failed to watch sgt log directory, polling", "path", f.path, "error", err)
		} else {
			events = watcher.Events
			errs = watcher.Errors
		}
	}

	name := filepath.Clean(f.path)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) == name {
				check()
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			f.logger.Warn("sgt log watcher error", "error", err)
		case <-ticker.C:
			check()
		}
	}
}
