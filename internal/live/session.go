// Package live pushes status, heartbeat and log updates to dashboard
// clients over WebSocket connections.
package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/narvanalabs/sgt-web/internal/logtail"
	"github.com/narvanalabs/sgt-web/internal/models"
	"github.com/narvanalabs/sgt-web/internal/runner"
	"github.com/narvanalabs/sgt-web/internal/status"
)

var (
	// ErrSessionClosed is returned internally when the peer goes away or the
	// session is closed from the server side.
	ErrSessionClosed = errors.New("live session closed")
	// ErrHeartbeatTimeout is returned when the peer stopped answering pings.
	ErrHeartbeatTimeout = errors.New("live session heartbeat timed out")
)

// Session is one live dashboard connection. It owns its timers and its log
// follower; all of them are released before Run returns.
type Session struct {
	ID string

	conn     *websocket.Conn
	runner   runner.Runner
	follower *logtail.Follower
	cfg      Config
	logger   *slog.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}

	lastPong atomic.Int64
}

func newSession(id string, conn *websocket.Conn, r runner.Runner, cfg Config, logger *slog.Logger) *Session {
	s := &Session{
		ID:       id,
		conn:     conn,
		runner:   r,
		follower: logtail.NewFollower(cfg.LogPath, logger),
		cfg:      cfg,
		logger:   logger,
		closeCh:  make(chan struct{}),
	}
	s.lastPong.Store(time.Now().UnixNano())
	conn.SetPongHandler(func(string) error {
		s.lastPong.Store(time.Now().UnixNano())
		return nil
	})
	return s
}

// Run serves the session until the peer disconnects, the heartbeat expires,
// ctx ends, or Close is called. Peer disconnects and server-side closes
// return nil.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.Close()

	s.send(models.NewHelloMessage(time.Now()))
	s.sendStatus(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.readPump)
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-s.closeCh:
		}
		// Unblocks readPump.
		s.Close()
		return ErrSessionClosed
	})
	g.Go(func() error { return s.statusLoop(gctx) })
	g.Go(func() error { return s.heartbeatLoop(gctx) })
	g.Go(func() error {
		s.follower.Watch(gctx, s.cfg.LogPollInterval, s.pushLog)
		return nil
	})

	err := g.Wait()
	if errors.Is(err, ErrSessionClosed) {
		return nil
	}
	return err
}

// Close closes the connection. It is safe to call more than once and from
// any goroutine.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.closeCh)
	s.mu.Unlock()

	deadline := time.Now().Add(s.cfg.WriteTimeout)
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), deadline)
	if err := s.conn.Close(); err != nil {
		s.logger.Debug("closing websocket", "error", err)
	}
}

// IsClosed returns true if the session is closed.
func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// readPump drains client frames so control frames reach the pong handler.
// Clients have nothing to say; their data frames are discarded.
func (s *Session) readPump() error {
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if s.IsClosed() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return ErrSessionClosed
			}
			s.logger.Debug("live connection read failed", "error", err)
			return ErrSessionClosed
		}
	}
}

func (s *Session) statusLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sendStatus(ctx)
		}
	}
}

func (s *Session) heartbeatLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			age := time.Since(time.Unix(0, s.lastPong.Load()))
			if age > s.cfg.PongGrace {
				s.logger.Warn("live client stopped answering pings, closing", "last_pong_age", age.Round(time.Millisecond))
				return ErrHeartbeatTimeout
			}
			deadline := time.Now().Add(s.cfg.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.logger.Debug("ping failed", "error", err)
			}
		}
	}
}

// sendStatus runs `sgt status` and pushes the parsed report. A failed poll
// is logged and skipped; the next tick tries again.
func (s *Session) sendStatus(ctx context.Context) {
	if s.IsClosed() {
		return
	}
	raw, err := s.runner.Run(ctx, runner.StatusArgs()...)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("status poll failed", "error", err)
		}
		return
	}
	s.send(models.NewStatusMessage(raw, status.Parse(raw), time.Now()))
}

func (s *Session) pushLog(ev logtail.Event) {
	if ev.Reset {
		s.send(models.LogResetMessage{Type: models.MessageLogReset})
	}
	if len(ev.Lines) > 0 {
		s.send(models.LogMessage{Type: models.MessageLog, Lines: ev.Lines})
	}
}

// send writes v as JSON. Messages that cannot be delivered are dropped.
func (s *Session) send(v any) {
	if s.IsClosed() {
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		s.logger.Debug("dropping live message", "error", err)
		return
	}
	if err := s.conn.WriteJSON(v); err != nil {
		s.logger.Debug("dropping live message", "error", fmt.Errorf("write: %w", err))
	}
}
