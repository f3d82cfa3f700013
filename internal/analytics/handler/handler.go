package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gavel/internal/analytics/models"
	docketmodels "gavel/internal/docket/models"
	id "gavel/pkg/domain"
	"gavel/pkg/platform/httputil"
)

// ProfileReader serves published profiles. Judges with only insufficient
// snapshots read as not found, which is how "no data yet" stays
// distinguishable from a published near-baseline score.
type ProfileReader interface {
	Published(ctx context.Context, judgeID id.JudgeID) (*models.BiasProfile, error)
}

// Recomputer triggers a batch recompute.
type Recomputer interface {
	RecomputeAll(ctx context.Context, window docketmodels.Window) error
}

type Handler struct {
	profiles ProfileReader
	recompute Recomputer
	logger   *slog.Logger
}

func New(profiles ProfileReader, recompute Recomputer, logger *slog.Logger) *Handler {
	return &Handler{profiles: profiles, recompute: recompute, logger: logger}
}

// Register mounts analytics endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/judges/{judgeID}/bias-profile", h.HandleBiasProfile)
	r.Post("/admin/recompute", h.HandleRecompute)
}

func (h *Handler) HandleBiasProfile(w http.ResponseWriter, r *http.Request) {
	judgeID, err := id.ParseJudgeID(chi.URLParam(r, "judgeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	profile, err := h.profiles.Published(r.Context(), judgeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// HandleRecompute recomputes every judge's profile over the whole observed
// window. Synchronous: the batch is bounded by the roster size.
func (h *Handler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	if err := h.recompute.RecomputeAll(r.Context(), docketmodels.Window{}); err != nil {
		h.logger.ErrorContext(r.Context(), "recompute failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "recomputed"})
}
