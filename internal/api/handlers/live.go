package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/narvanalabs/sgt-web/internal/live"
)

// LiveHandler upgrades dashboard clients to the live update channel.
type LiveHandler struct {
	hub      *live.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewLiveHandler creates a new live handler.
func NewLiveHandler(hub *live.Hub, logger *slog.Logger) *LiveHandler {
	return &LiveHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeWS handles GET /ws - the connection stays open until the client or
// the server goes away.
func (h *LiveHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("failed to upgrade websocket", "error", err)
		return
	}

	if err := h.hub.Serve(r.Context(), conn); err != nil {
		h.logger.Info("live session ended", "reason", err)
	}
}
