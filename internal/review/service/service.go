// Package service manages the manual review queue: recording deferrals and
// applying the authoritative resolutions an operator submits.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	docketmodels "gavel/internal/docket/models"
	docketports "gavel/internal/docket/ports"
	"gavel/internal/position/validator"
	"gavel/internal/review/metrics"
	"gavel/internal/review/models"
	"gavel/internal/review/ports"
	id "gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
	"gavel/pkg/platform/sentinel"
	"gavel/pkg/requestcontext"
)

// PositionResolver opens or reuses a position for a confirmed case. It is
// the position tracker; the indirection keeps this package free of the
// tracker's internals.
type PositionResolver interface {
	EnsureForCase(ctx context.Context, judgeID id.JudgeID, courtID id.CourtID, caseDate time.Time, caseJurisdiction string) (id.PositionID, error)
}

type Service struct {
	store     ports.Store
	docket    docketports.Store
	positions PositionResolver

	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store ports.Store, docket docketports.Store, positions PositionResolver, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("review store is required")
	}
	if docket == nil {
		return nil, fmt.Errorf("docket store is required")
	}
	if positions == nil {
		return nil, fmt.Errorf("position resolver is required")
	}

	svc := &Service{store: store, docket: docket, positions: positions}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RecordAmbiguous parks a case whose match produced several comparable
// candidates.
func (s *Service) RecordAmbiguous(ctx context.Context, c *docketmodels.Case, candidates []id.JudgeID) error {
	entry := s.newEntry(ctx, models.KindAmbiguousMatch)
	entry.CaseID = c.ID
	entry.Candidates = candidates
	entry.Detail = fmt.Sprintf("case %s matched %d comparable judges", c.ExternalID, len(candidates))
	return s.add(ctx, entry)
}

// RecordNoMatch parks a case nobody matched and candidate creation was not
// allowed for.
func (s *Service) RecordNoMatch(ctx context.Context, c *docketmodels.Case, judgeName string) error {
	entry := s.newEntry(ctx, models.KindNoMatch)
	entry.CaseID = c.ID
	entry.Detail = fmt.Sprintf("case %s names unknown judge %q", c.ExternalID, judgeName)
	return s.add(ctx, entry)
}

// RecordCourtUnresolved parks a case whose judge matched but whose court
// could not be determined from the record.
func (s *Service) RecordCourtUnresolved(ctx context.Context, c *docketmodels.Case, judgeID id.JudgeID, courtName string) error {
	entry := s.newEntry(ctx, models.KindNoMatch)
	entry.CaseID = c.ID
	entry.JudgeID = judgeID
	entry.Detail = fmt.Sprintf("case %s matched a judge but court %q could not be resolved", c.ExternalID, courtName)
	return s.add(ctx, entry)
}

// ReportViolations records assignment rejections. One entry per violation so
// each can be resolved independently.
func (s *Service) ReportViolations(ctx context.Context, judgeID id.JudgeID, caseRef string, violations []validator.Violation) error {
	for _, v := range violations {
		entry := s.newEntry(ctx, models.KindValidatorRejection)
		entry.JudgeID = judgeID
		entry.ViolationKind = string(v.Kind)
		entry.Detail = v.Detail
		if caseRef != "" {
			entry.Detail = fmt.Sprintf("%s (case %s)", v.Detail, caseRef)
		}
		if err := s.add(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// Queue returns the open entries, oldest first.
func (s *Service) Queue(ctx context.Context) ([]*models.Entry, error) {
	entries, err := s.store.ListOpen(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list review queue")
	}
	return entries, nil
}

// ConfirmMatch resolves a parked case to the operator's chosen judge and
// court. For ambiguous entries the judge must be one of the recorded
// candidates; an operator cannot silently introduce a third option.
func (s *Service) ConfirmMatch(ctx context.Context, reviewID id.ReviewID, judgeID id.JudgeID, courtID id.CourtID) error {
	entry, err := s.store.Get(ctx, reviewID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "review entry not found")
	}
	if !entry.Open() {
		return dErrors.New(dErrors.CodeConflict, "review entry already closed")
	}
	if entry.Kind == models.KindValidatorRejection {
		return dErrors.New(dErrors.CodeInvalidInput, "validator rejections are resolved with an authoritative position record")
	}
	if entry.CaseID.IsNil() {
		return dErrors.New(dErrors.CodeInternal, "review entry has no case")
	}
	if entry.Kind == models.KindAmbiguousMatch && !contains(entry.Candidates, judgeID) {
		return dErrors.New(dErrors.CodeInvalidInput, "judge is not one of the recorded candidates")
	}

	c, err := s.docket.Get(ctx, entry.CaseID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load parked case")
	}

	positionID, err := s.positions.EnsureForCase(ctx, judgeID, courtID, c.DecidedAt, c.JurisdictionKey)
	if err != nil {
		return err
	}
	if err := s.docket.Resolve(ctx, c.ID, judgeID, positionID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "resolve case")
	}

	if err := s.store.Close(ctx, reviewID, models.StatusResolved,
		fmt.Sprintf("matched to judge %s", judgeID)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "close review entry")
	}
	if s.metrics != nil {
		s.metrics.IncrementResolved(string(entry.Kind))
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "review entry resolved",
			"review_id", reviewID, "case_id", c.ID, "judge_id", judgeID)
	}
	return nil
}

// Dismiss closes an entry without acting on it.
func (s *Service) Dismiss(ctx context.Context, reviewID id.ReviewID, note string) error {
	err := s.store.Close(ctx, reviewID, models.StatusDismissed, note)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "review entry not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeConflict, "review entry already closed")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "dismiss review entry")
	}
}

func (s *Service) newEntry(ctx context.Context, kind models.Kind) *models.Entry {
	now := requestcontext.Now(ctx)
	return &models.Entry{
		ID:        id.NewReviewID(),
		Kind:      kind,
		Status:    models.StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Service) add(ctx context.Context, entry *models.Entry) error {
	if err := s.store.Add(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "queue review entry")
	}
	if s.metrics != nil {
		s.metrics.IncrementQueued(string(entry.Kind))
	}
	return nil
}

func contains(candidates []id.JudgeID, judgeID id.JudgeID) bool {
	for _, c := range candidates {
		if c == judgeID {
			return true
		}
	}
	return false
}
