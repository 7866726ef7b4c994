package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/narvanalabs/sgt-web/internal/logtail"
	"github.com/narvanalabs/sgt-web/internal/models"
	"github.com/narvanalabs/sgt-web/internal/town"
)

// LogsResponse is the body of GET /api/logs.
type LogsResponse struct {
	Lines []string `json:"lines"`
}

// AgentsResponse is the body of GET /api/agents.
type AgentsResponse struct {
	Daemon models.DaemonInfo `json:"daemon"`
}

// TownHandler serves endpoints backed by sgt's on-disk state. None of them
// fail: missing files and directories read as empty.
type TownHandler struct {
	town   *town.Town
	logger *slog.Logger
}

// NewTownHandler creates a new town handler.
func NewTownHandler(t *town.Town, logger *slog.Logger) *TownHandler {
	return &TownHandler{
		town:   t,
		logger: logger,
	}
}

// Polecats handles GET /api/polecats.
func (h *TownHandler) Polecats(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.town.Polecats())
}

// Dogs handles GET /api/dogs.
func (h *TownHandler) Dogs(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.town.Dogs())
}

// MergeQueue handles GET /api/merge-queue.
func (h *TownHandler) MergeQueue(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.town.MergeQueue())
}

// Crew handles GET /api/crew.
func (h *TownHandler) Crew(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.town.Crew())
}

// Molecules handles GET /api/molecules.
func (h *TownHandler) Molecules(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.town.Molecules())
}

// Escalation handles GET /api/escalation - returns the policy file verbatim or null.
func (h *TownHandler) Escalation(w http.ResponseWriter, r *http.Request) {
	policy := h.town.Escalation()
	if policy == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("null\n"))
		return
	}
	WriteJSON(w, http.StatusOK, policy)
}

// Agents handles GET /api/agents.
func (h *TownHandler) Agents(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, AgentsResponse{Daemon: h.town.Daemon()})
}

// Logs handles GET /api/logs?lines=N - returns the tail of sgt.log.
func (h *TownHandler) Logs(w http.ResponseWriter, r *http.Request) {
	n := logtail.DefaultLines
	if v, ok := leadingInt(r.URL.Query().Get("lines")); ok && v > 0 {
		n = v
	}
	WriteJSON(w, http.StatusOK, LogsResponse{Lines: logtail.Tail(h.town.LogPath(), n)})
}

// leadingInt parses the optional sign and digit run at the start of s,
// after leading whitespace, so "10abc" is 10.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	return v, err == nil
}
