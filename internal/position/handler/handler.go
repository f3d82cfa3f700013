package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"gavel/internal/position/models"
	id "gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
	"gavel/pkg/platform/httputil"
)

// dateLayout is the wire format for position dates. Positions are
// day-granular; timestamps are not accepted.
const dateLayout = "2006-01-02"

// Service is the tracker surface the handler needs.
type Service interface {
	History(ctx context.Context, judgeID id.JudgeID) ([]*models.Position, error)
	ApplyAuthoritative(ctx context.Context, rec models.AuthoritativeRecord) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts position endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/judges/{judgeID}/positions", h.HandleHistory)
	r.Post("/admin/positions", h.HandleAuthoritative)
	r.Post("/admin/retire", h.HandleRetire)
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	judgeID, err := id.ParseJudgeID(chi.URLParam(r, "judgeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	positions, err := h.service.History(r.Context(), judgeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"positions": positions})
}

type authoritativeRequest struct {
	Kind    string `json:"kind"`
	JudgeID string `json:"judge_id"`
	CourtID string `json:"court_id,omitempty"`
	Start   string `json:"start"`
	End     string `json:"end,omitempty"`
}

func (h *Handler) HandleAuthoritative(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[authoritativeRequest](w, r)
	if !ok {
		return
	}
	rec, err := req.toRecord()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.ApplyAuthoritative(r.Context(), rec); err != nil {
		h.logger.ErrorContext(r.Context(), "authoritative record rejected",
			"kind", req.Kind, "judge_id", req.JudgeID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

type retireRequest struct {
	JudgeID     string `json:"judge_id"`
	EffectiveAt string `json:"effective_at"`
}

func (h *Handler) HandleRetire(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[retireRequest](w, r)
	if !ok {
		return
	}
	judgeID, err := id.ParseJudgeID(req.JudgeID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	effective, err := parseDate(req.EffectiveAt, "effective_at")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec := models.AuthoritativeRecord{
		Kind:    models.RecordRetirement,
		JudgeID: judgeID,
		Start:   effective,
	}
	if err := h.service.ApplyAuthoritative(r.Context(), rec); err != nil {
		h.logger.ErrorContext(r.Context(), "retirement rejected",
			"judge_id", req.JudgeID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "retired"})
}

func (r authoritativeRequest) toRecord() (models.AuthoritativeRecord, error) {
	judgeID, err := id.ParseJudgeID(r.JudgeID)
	if err != nil {
		return models.AuthoritativeRecord{}, err
	}
	rec := models.AuthoritativeRecord{
		Kind:    models.RecordKind(r.Kind),
		JudgeID: judgeID,
	}
	if r.CourtID != "" {
		courtID, err := id.ParseCourtID(r.CourtID)
		if err != nil {
			return models.AuthoritativeRecord{}, err
		}
		rec.CourtID = courtID
	}
	if r.Start != "" {
		start, err := parseDate(r.Start, "start")
		if err != nil {
			return models.AuthoritativeRecord{}, err
		}
		rec.Start = start
	}
	if r.End != "" {
		end, err := parseDate(r.End, "end")
		if err != nil {
			return models.AuthoritativeRecord{}, err
		}
		rec.End = &end
	}
	return rec, nil
}

func parseDate(s, field string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeInvalidInput,
			"%s must be a YYYY-MM-DD date", field)
	}
	return t, nil
}
