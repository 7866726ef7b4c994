// Package handlers implements the dashboard's HTTP endpoints.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/narvanalabs/sgt-web/internal/models"
	"github.com/narvanalabs/sgt-web/internal/runner"
	"github.com/narvanalabs/sgt-web/internal/status"
)

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Raw    string               `json:"raw"`
	Parsed *models.StatusReport `json:"parsed"`
}

// OutputResponse carries the unparsed output of an sgt command.
type OutputResponse struct {
	Output string `json:"output"`
}

// StatusHandler serves endpoints backed by read-only sgt commands.
type StatusHandler struct {
	runner runner.Runner
	logger *slog.Logger
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(r runner.Runner, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		runner: r,
		logger: logger,
	}
}

// Status handles GET /api/status - runs `sgt status` and returns raw and parsed output.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	raw, err := h.runner.Run(r.Context(), runner.StatusArgs()...)
	if err != nil {
		h.logger.Error("sgt status failed", "error", err)
		WriteCommandError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, StatusResponse{Raw: raw, Parsed: status.Parse(raw)})
}

// Rigs handles GET /api/rigs - runs `sgt rig list`.
func (h *StatusHandler) Rigs(w http.ResponseWriter, r *http.Request) {
	raw, err := h.runner.Run(r.Context(), runner.RigListArgs()...)
	if err != nil {
		h.logger.Error("sgt rig list failed", "error", err)
		WriteCommandError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, status.ParseRigs(raw))
}

// Peek handles GET /api/peek/{target} - runs `sgt peek <target>`.
func (h *StatusHandler) Peek(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "target")
	if target == "" {
		WriteBadRequest(w, r, "target is required")
		return
	}

	output, err := h.runner.Run(r.Context(), runner.PeekArgs(target)...)
	if err != nil {
		h.logger.Error("sgt peek failed", "target", target, "error", err)
		WriteCommandError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, OutputResponse{Output: output})
}
