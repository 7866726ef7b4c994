package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/narvanalabs/sgt-web/internal/runner"
)

// SlingRequest is the body of POST /api/sling.
type SlingRequest struct {
	Rig    string   `json:"rig"`
	Task   string   `json:"task"`
	Labels []string `json:"labels,omitempty"`
	Convoy string   `json:"convoy,omitempty"`
}

// SlingDogRequest is the body of POST /api/sling-dog.
type SlingDogRequest struct {
	Rig   string `json:"rig"`
	Issue string `json:"issue"`
}

// SlingHandler dispatches work through sgt.
type SlingHandler struct {
	runner runner.Runner
	logger *slog.Logger
}

// NewSlingHandler creates a new sling handler.
func NewSlingHandler(r runner.Runner, logger *slog.Logger) *SlingHandler {
	return &SlingHandler{
		runner: r,
		logger: logger,
	}
}

// Sling handles POST /api/sling - dispatches a polecat for a task.
func (h *SlingHandler) Sling(w http.ResponseWriter, r *http.Request) {
	var req SlingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Rig == "" || req.Task == "" {
		WriteBadRequest(w, r, "rig and task are required")
		return
	}

	h.logger.Info("slinging task", "rig", req.Rig, "convoy", req.Convoy, "labels", req.Labels)
	h.dispatch(w, r, runner.SlingArgs(req.Rig, req.Task, req.Convoy, req.Labels))
}

// SlingDog handles POST /api/sling-dog - dispatches a dog against an issue.
func (h *SlingHandler) SlingDog(w http.ResponseWriter, r *http.Request) {
	var req SlingDogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Rig == "" || req.Issue == "" {
		WriteBadRequest(w, r, "rig and issue are required")
		return
	}

	h.logger.Info("slinging dog", "rig", req.Rig, "issue", req.Issue)
	h.dispatch(w, r, runner.DogArgs(req.Rig, req.Issue))
}

// dispatch runs args and returns sgt's output unparsed.
func (h *SlingHandler) dispatch(w http.ResponseWriter, r *http.Request, args []string) {
	output, err := h.runner.Run(r.Context(), args...)
	if err != nil {
		h.logger.Error("sgt dispatch failed", "command", args[0], "error", err)
		WriteCommandError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, OutputResponse{Output: output})
}
