package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gavel/internal/review/models"
	id "gavel/pkg/domain"
	"gavel/pkg/platform/httputil"
)

// Service is the review queue surface the handler needs.
type Service interface {
	Queue(ctx context.Context) ([]*models.Entry, error)
	ConfirmMatch(ctx context.Context, reviewID id.ReviewID, judgeID id.JudgeID, courtID id.CourtID) error
	Dismiss(ctx context.Context, reviewID id.ReviewID, note string) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts review endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/review/queue", h.HandleQueue)
	r.Post("/review/resolve", h.HandleResolve)
	r.Post("/review/dismiss", h.HandleDismiss)
}

func (h *Handler) HandleQueue(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Queue(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type resolveRequest struct {
	ReviewID string `json:"review_id"`
	JudgeID  string `json:"judge_id"`
	CourtID  string `json:"court_id"`
}

func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[resolveRequest](w, r)
	if !ok {
		return
	}
	reviewID, err := id.ParseReviewID(req.ReviewID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	judgeID, err := id.ParseJudgeID(req.JudgeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	courtID, err := id.ParseCourtID(req.CourtID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.ConfirmMatch(r.Context(), reviewID, judgeID, courtID); err != nil {
		h.logger.ErrorContext(r.Context(), "review resolution failed",
			"review_id", req.ReviewID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

type dismissRequest struct {
	ReviewID string `json:"review_id"`
	Note     string `json:"note,omitempty"`
}

func (h *Handler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[dismissRequest](w, r)
	if !ok {
		return
	}
	reviewID, err := id.ParseReviewID(req.ReviewID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Dismiss(r.Context(), reviewID, req.Note); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "dismissed"})
}
