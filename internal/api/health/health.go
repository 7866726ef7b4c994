// Package health provides health check functionality for the dashboard.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"
)

// Status represents the health status of a component.
type Status string

const (
	// StatusHealthy indicates the component is fully operational.
	StatusHealthy Status = "healthy"
	// StatusDegraded indicates the component is operational but with issues.
	StatusDegraded Status = "degraded"
	// StatusUnhealthy indicates the component is not operational.
	StatusUnhealthy Status = "unhealthy"
)

// ComponentStatus represents the health status of a single component.
type ComponentStatus struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Response represents the health check response.
type Response struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentStatus `json:"components"`
	Version    string                     `json:"version"`
	Uptime     string                     `json:"uptime"`
}

// Check reports the status of one component.
type Check func(ctx context.Context) ComponentStatus

type namedCheck struct {
	name  string
	check Check
}

// Checker aggregates registered component checks.
type Checker struct {
	checks    []namedCheck
	startTime time.Time
	version   string
	timeout   time.Duration
	mu        sync.RWMutex
}

// NewChecker creates a new health checker with no components.
func NewChecker(version string) *Checker {
	return &Checker{
		startTime: time.Now(),
		version:   version,
		timeout:   5 * time.Second,
	}
}

// Register adds a named component check.
func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = append(c.checks, namedCheck{name: name, check: check})
}

// Check runs all registered checks and returns the aggregated response.
// The overall status is the worst component status.
func (c *Checker) Check(ctx context.Context) *Response {
	c.mu.RLock()
	timeout := c.timeout
	checks := make([]namedCheck, len(c.checks))
	copy(checks, c.checks)
	c.mu.RUnlock()

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	components := make(map[string]ComponentStatus, len(checks))
	overallStatus := StatusHealthy
	for _, nc := range checks {
		cs := nc.check(checkCtx)
		components[nc.name] = cs
		overallStatus = worst(overallStatus, cs.Status)
	}

	return &Response{
		Status:     overallStatus,
		Components: components,
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
	}
}

func worst(a, b Status) Status {
	if a == StatusUnhealthy || b == StatusUnhealthy {
		return StatusUnhealthy
	}
	if a == StatusDegraded || b == StatusDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}

// Handler returns an HTTP handler for health checks.
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := c.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")

		switch response.Status {
		case StatusHealthy, StatusDegraded:
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		_ = json.NewEncoder(w).Encode(response)
	}
}

// ExecutableCheck reports unhealthy unless path is an executable regular file.
func ExecutableCheck(path string) Check {
	return func(ctx context.Context) ComponentStatus {
		info, err := os.Stat(path)
		if err != nil {
			return ComponentStatus{Status: StatusUnhealthy, Message: "sgt binary not found: " + path}
		}
		if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
			return ComponentStatus{Status: StatusUnhealthy, Message: "sgt binary is not executable: " + path}
		}
		return ComponentStatus{Status: StatusHealthy, Message: path}
	}
}

// DirCheck reports degraded when path is not a directory. Every state
// endpoint still answers with empty data in that case.
func DirCheck(path string) Check {
	return func(ctx context.Context) ComponentStatus {
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			return ComponentStatus{Status: StatusDegraded, Message: "directory not found: " + path}
		}
		return ComponentStatus{Status: StatusHealthy, Message: path}
	}
}

// SessionCounter reports the number of open live sessions.
type SessionCounter interface {
	ActiveSessions() int
}

// SessionsCheck is always healthy and reports the open session count.
func SessionsCheck(counter SessionCounter) Check {
	return func(ctx context.Context) ComponentStatus {
		if counter == nil {
			return ComponentStatus{Status: StatusHealthy, Message: "disabled"}
		}
		return ComponentStatus{
			Status:  StatusHealthy,
			Message: fmt.Sprintf("%d active sessions", counter.ActiveSessions()),
		}
	}
}
