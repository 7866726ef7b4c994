package live

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/narvanalabs/sgt-web/internal/runner"
)

// Config holds the per-session timer settings.
type Config struct {
	// StatusInterval is how often `sgt status` is re-run and pushed.
	StatusInterval time.Duration
	// PingInterval is how often the peer is pinged.
	PingInterval time.Duration
	// PongGrace is how long the peer may stay silent before it is dropped.
	PongGrace time.Duration
	// LogPath is the sgt log file followed by every session.
	LogPath string
	// LogPollInterval is the fallback stat interval of the log follower.
	LogPollInterval time.Duration
	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration
}

// DefaultConfig returns the default live channel configuration for logPath.
func DefaultConfig(logPath string) Config {
	return Config{
		StatusInterval:  3 * time.Second,
		PingInterval:    15 * time.Second,
		PongGrace:       35 * time.Second,
		LogPath:         logPath,
		LogPollInterval: time.Second,
		WriteTimeout:    10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig(c.LogPath)
	if c.StatusInterval <= 0 {
		c.StatusInterval = d.StatusInterval
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.PongGrace <= 0 {
		c.PongGrace = d.PongGrace
	}
	if c.LogPollInterval <= 0 {
		c.LogPollInterval = d.LogPollInterval
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	return c
}

// Hub creates live sessions and keeps track of the open ones.
type Hub struct {
	runner runner.Runner
	cfg    Config
	logger *slog.Logger

	sessionsMu sync.RWMutex
	sessions   map[string]*Session
}

// NewHub creates a hub whose sessions poll status through r.
func NewHub(r runner.Runner, cfg Config, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		runner:   r,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Serve runs a session on an upgraded connection until it ends. The session
// is registered for the duration of the call.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn) error {
	id := "live-" + uuid.NewString()
	logger := h.logger.With("session_id", id)
	session := newSession(id, conn, h.runner, h.cfg, logger)

	h.sessionsMu.Lock()
	h.sessions[id] = session
	h.sessionsMu.Unlock()

	logger.Info("live session opened", "remote_addr", conn.RemoteAddr().String())
	defer func() {
		h.sessionsMu.Lock()
		delete(h.sessions, id)
		h.sessionsMu.Unlock()
		logger.Info("live session closed")
	}()

	return session.Run(ctx)
}

// ActiveSessions returns the number of open sessions.
func (h *Hub) ActiveSessions() int {
	h.sessionsMu.RLock()
	defer h.sessionsMu.RUnlock()
	return len(h.sessions)
}

// Name returns the component name used during graceful shutdown.
func (h *Hub) Name() string {
	return "live-sessions"
}

// Shutdown closes every open session and waits for them to unregister or
// for ctx to end.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.sessionsMu.RLock()
	open := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		open = append(open, s)
	}
	h.sessionsMu.RUnlock()

	for _, s := range open {
		s.Close()
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for h.ActiveSessions() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
