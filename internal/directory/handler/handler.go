package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gavel/internal/directory/models"
	id "gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
	"gavel/pkg/platform/httputil"
)

// Service is the roster surface the handler needs.
type Service interface {
	CreateJudge(ctx context.Context, name, externalID string, multiCourt bool) (*models.Judge, error)
	GetJudge(ctx context.Context, judgeID id.JudgeID) (*models.Judge, error)
	ListJudges(ctx context.Context) ([]*models.Judge, error)
	CreateCourt(ctx context.Context, name, rawJurisdiction string, level models.CourtLevel, seats int) (*models.Court, error)
	GetCourt(ctx context.Context, courtID id.CourtID) (*models.Court, error)
	ListCourts(ctx context.Context) ([]*models.Court, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts roster endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/judges", h.HandleListJudges)
	r.Get("/judges/{judgeID}", h.HandleGetJudge)
	r.Get("/courts", h.HandleListCourts)
	r.Get("/courts/{courtID}", h.HandleGetCourt)
	r.Post("/admin/judges", h.HandleCreateJudge)
	r.Post("/admin/courts", h.HandleCreateCourt)
}

func (h *Handler) HandleListJudges(w http.ResponseWriter, r *http.Request) {
	judges, err := h.service.ListJudges(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"judges": judges})
}

func (h *Handler) HandleGetJudge(w http.ResponseWriter, r *http.Request) {
	judgeID, err := id.ParseJudgeID(chi.URLParam(r, "judgeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	judge, err := h.service.GetJudge(r.Context(), judgeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, judge)
}

func (h *Handler) HandleListCourts(w http.ResponseWriter, r *http.Request) {
	courts, err := h.service.ListCourts(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"courts": courts})
}

func (h *Handler) HandleGetCourt(w http.ResponseWriter, r *http.Request) {
	courtID, err := id.ParseCourtID(chi.URLParam(r, "courtID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	court, err := h.service.GetCourt(r.Context(), courtID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, court)
}

type createJudgeRequest struct {
	Name       string `json:"name"`
	ExternalID string `json:"external_id,omitempty"`
	MultiCourt bool   `json:"multi_court,omitempty"`
}

func (h *Handler) HandleCreateJudge(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[createJudgeRequest](w, r)
	if !ok {
		return
	}
	judge, err := h.service.CreateJudge(r.Context(), req.Name, req.ExternalID, req.MultiCourt)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "judge creation failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, judge)
}

type createCourtRequest struct {
	Name         string `json:"name"`
	Jurisdiction string `json:"jurisdiction"`
	Level        string `json:"level"`
	Seats        int    `json:"seats,omitempty"`
}

func (h *Handler) HandleCreateCourt(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[createCourtRequest](w, r)
	if !ok {
		return
	}
	if req.Level == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "court level is required"))
		return
	}
	court, err := h.service.CreateCourt(r.Context(), req.Name, req.Jurisdiction,
		models.CourtLevel(req.Level), req.Seats)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "court creation failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, court)
}
