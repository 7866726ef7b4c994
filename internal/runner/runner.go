// Package runner invokes the external sgt binary.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single sgt invocation.
const DefaultTimeout = 15 * time.Second

// Runner runs sgt with an argument list and returns its standard output.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecError is returned when sgt exits non-zero, cannot be started, or
// times out. Its message is what the dashboard shows to the user.
type ExecError struct {
	Args     []string
	Stderr   string
	TimedOut bool
	Err      error
}

// Error returns the captured stderr when there is any, otherwise the
// timeout or spawn failure message.
func (e *ExecError) Error() string {
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return msg
	}
	return e.Err.Error()
}

// Unwrap returns the underlying exec or context error.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// IsExecError reports whether err is, or wraps, an *ExecError.
func IsExecError(err error) bool {
	var execErr *ExecError
	return errors.As(err, &execErr)
}

// ExecRunner runs the real sgt binary.
type ExecRunner struct {
	bin     string
	root    string
	timeout time.Duration
	logger  *slog.Logger
}

// Config holds the settings of an ExecRunner.
type Config struct {
	// Bin is the path to the sgt binary.
	Bin string
	// Root is exported to sgt as SGT_ROOT.
	Root string
	// Timeout defaults to DefaultTimeout when zero.
	Timeout time.Duration
}

// New creates an ExecRunner.
func New(cfg Config, logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &ExecRunner{
		bin:     cfg.Bin,
		root:    cfg.Root,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Bin returns the configured binary path.
func (r *ExecRunner) Bin() string {
	return r.bin
}

// Run executes sgt with args and returns stdout. Stdin is detached and the
// environment is the server's own plus SGT_ROOT.
func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.bin, args...)
	cmd.Env = append(os.Environ(), "SGT_ROOT="+r.root)
	cmd.Stdin = nil

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		r.logger.Warn("sgt command timed out", "args", args, "timeout", r.timeout)
		return "", &ExecError{
			Args:     args,
			TimedOut: true,
			Err:      fmt.Errorf("sgt timed out after %v", r.timeout),
		}
	}
	if err != nil {
		r.logger.Debug("sgt command failed", "args", args, "duration", duration, "error", err)
		return "", &ExecError{Args: args, Stderr: stderr.String(), Err: err}
	}

	r.logger.Debug("sgt command completed", "args", args, "duration", duration, "stdout_bytes", stdout.Len())
	return stdout.String(), nil
}
