package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/narvanalabs/sgt-web/internal/models"
	"github.com/narvanalabs/sgt-web/internal/runner"
	"github.com/narvanalabs/sgt-web/internal/status"
	"github.com/narvanalabs/sgt-web/internal/town"
)

// OverviewHandler serves the aggregate dashboard payload.
type OverviewHandler struct {
	runner runner.Runner
	town   *town.Town
	logger *slog.Logger
}

// NewOverviewHandler creates a new overview handler.
func NewOverviewHandler(r runner.Runner, t *town.Town, logger *slog.Logger) *OverviewHandler {
	return &OverviewHandler{
		runner: r,
		town:   t,
		logger: logger,
	}
}

// Get handles GET /api/overview. The two sgt commands run concurrently with
// the state reads; a failed command is reported under "errors" and its
// section is left empty instead of failing the whole request.
func (h *OverviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	out := models.Overview{
		Timestamp: models.ServerTime(time.Now()),
		Status:    models.NewStatusReport(),
		Rigs:      []models.Rig{},
	}

	var mu sync.Mutex
	fail := func(section string, err error) {
		h.logger.Warn("overview section failed", "section", section, "error", err)
		mu.Lock()
		defer mu.Unlock()
		if out.Errors == nil {
			out.Errors = make(map[string]string)
		}
		out.Errors[section] = err.Error()
	}

	var g errgroup.Group
	g.Go(func() error {
		raw, err := h.runner.Run(r.Context(), runner.StatusArgs()...)
		if err != nil {
			fail("status", err)
			return nil
		}
		out.Status = status.Parse(raw)
		return nil
	})
	g.Go(func() error {
		raw, err := h.runner.Run(r.Context(), runner.RigListArgs()...)
		if err != nil {
			fail("rigs", err)
			return nil
		}
		out.Rigs = status.ParseRigs(raw)
		return nil
	})
	g.Go(func() error {
		out.Polecats = h.town.Polecats()
		out.Dogs = h.town.Dogs()
		out.MergeQueue = h.town.MergeQueue()
		return nil
	})
	_ = g.Wait()

	WriteJSON(w, http.StatusOK, out)
}
