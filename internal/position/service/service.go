package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	dirports "gavel/internal/directory/ports"
	"gavel/internal/position/metrics"
	"gavel/internal/position/models"
	"gavel/internal/position/ports"
	"gavel/internal/position/validator"
	id "gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
	"gavel/pkg/requestcontext"
)

// Service is the position history tracker. Every mutation of one judge's
// history runs under that judge's lock against a freshly loaded aggregate,
// passes the validator, and commits with a generation check, so the overlap
// and seat invariants are always enforced against a consistent view.
type Service struct {
	store      ports.Store
	courts     dirports.CourtStore
	judges     dirports.JudgeStore
	violations ports.ViolationSink
	logger     *slog.Logger
	metrics    *metrics.Metrics

	locks keyedMutex
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithViolationSink(sink ports.ViolationSink) Option {
	return func(s *Service) { s.violations = sink }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store ports.Store, courts dirports.CourtStore, judges dirports.JudgeStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("position store is required")
	}
	if courts == nil {
		return nil, fmt.Errorf("court store is required")
	}
	if judges == nil {
		return nil, fmt.Errorf("judge store is required")
	}

	svc := &Service{store: store, courts: courts, judges: judges}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// EnsureForCase resolves a confirmed case to a position at the given court,
// creating an active position only when no existing one covers the case
// date. Re-running on an already-covered case changes nothing.
func (s *Service) EnsureForCase(ctx context.Context, judgeID id.JudgeID, courtID id.CourtID, caseDate time.Time, caseJurisdiction string) (id.PositionID, error) {
	unlock := s.locks.lock(judgeID)
	defer unlock()

	agg, err := s.store.LoadAggregate(ctx, judgeID)
	if err != nil {
		return id.PositionID{}, dErrors.Wrap(err, dErrors.CodeInternal, "load position aggregate")
	}

	// An existing position covering the case date — active or closed —
	// absorbs the case without any state transition.
	for _, p := range agg.Positions {
		if p.CourtID == courtID && p.Covers(caseDate) {
			return p.ID, s.recordActivity(ctx, judgeID, caseDate)
		}
	}
	if p := agg.ActiveAt(courtID); p != nil {
		// Active position at this court with a later start: the case
		// belongs to it rather than to a new interval.
		return p.ID, s.recordActivity(ctx, judgeID, caseDate)
	}

	// A retired judge never reopens from case data alone. The rejection is
	// queued for review; ApplyAuthoritative is the only reopening path.
	judge, err := s.judges.Get(ctx, judgeID)
	if err != nil {
		return id.PositionID{}, dErrors.Wrap(err, dErrors.CodeNotFound, "judge not found")
	}
	if judge.Retired {
		v := validator.Violation{
			Kind:   validator.KindRetiredJudge,
			Detail: fmt.Sprintf("judge %s is retired; a new position requires an authoritative record", judgeID),
		}
		s.reportViolations(ctx, judgeID, []validator.Violation{v})
		return id.PositionID{}, dErrors.New(dErrors.CodeRetiredJudge, v.Detail)
	}

	pos, err := s.openPosition(ctx, agg, judgeID, courtID, models.Day(caseDate), caseJurisdiction, false)
	if err != nil {
		return id.PositionID{}, err
	}
	if err := s.store.CommitAggregate(ctx, agg); err != nil {
		return id.PositionID{}, dErrors.Wrap(err, dErrors.CodeConflict, "commit position aggregate")
	}
	s.observeTransition("case_opened")
	return pos.ID, s.recordActivity(ctx, judgeID, caseDate)
}

// ApplyAuthoritative executes an explicit admin or trusted-provider record.
// Authoritative appointments supersede conflicting active positions and are
// the only path that reopens a retired judge.
func (s *Service) ApplyAuthoritative(ctx context.Context, rec models.AuthoritativeRecord) error {
	if rec.JudgeID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "judge_id is required")
	}

	unlock := s.locks.lock(rec.JudgeID)
	defer unlock()

	agg, err := s.store.LoadAggregate(ctx, rec.JudgeID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load position aggregate")
	}

	switch rec.Kind {
	case models.RecordAppointment:
		if err := s.applyAppointment(ctx, agg, rec); err != nil {
			return err
		}
	case models.RecordEnd:
		if err := s.applyEnd(ctx, agg, rec); err != nil {
			return err
		}
	case models.RecordRetirement:
		if err := s.applyRetirement(ctx, agg, rec); err != nil {
			return err
		}
	default:
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown record kind %q", rec.Kind)
	}

	if err := s.store.CommitAggregate(ctx, agg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeConflict, "commit position aggregate")
	}
	s.observeTransition(string(rec.Kind))
	return nil
}

func (s *Service) applyAppointment(ctx context.Context, agg *models.Aggregate, rec models.AuthoritativeRecord) error {
	if rec.CourtID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "court_id is required for an appointment")
	}
	if rec.Start.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "start date is required for an appointment")
	}
	if agg.ActiveAt(rec.CourtID) != nil {
		// Already seated at this court; the record is a no-op.
		return nil
	}

	start := models.Day(rec.Start)
	judge, err := s.judges.Get(ctx, rec.JudgeID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "judge not found")
	}

	// Supersession: a newer appointment closes the judge's active tenures
	// at other courts the day before the new start. Multi-court judges
	// keep theirs.
	if !judge.MultiCourt {
		supersededEnd := start.AddDate(0, 0, -1)
		for _, p := range agg.Active() {
			if p.CourtID == rec.CourtID {
				continue
			}
			if !supersededEnd.Before(models.Day(p.Start)) {
				end := supersededEnd
				p.End = &end
				p.EndInferred = false
				p.Status = models.StatusEnded
				p.UpdatedAt = requestcontext.Now(ctx)
				s.observeTransition("superseded")
			}
		}
	}

	if _, err := s.openPosition(ctx, agg, rec.JudgeID, rec.CourtID, start, "", judge.MultiCourt); err != nil {
		return err
	}

	// An authoritative appointment reverses any inferred retirement; the
	// prior inferred interval stays closed in history untouched.
	if judge.Retired {
		judge.Retired = false
		judge.RetirementInferredAt = nil
		judge.UpdatedAt = requestcontext.Now(ctx)
		if err := s.judges.Update(ctx, judge); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "clear retirement flag")
		}
		s.observeTransition("reopened")
	}
	return nil
}

func (s *Service) applyEnd(ctx context.Context, agg *models.Aggregate, rec models.AuthoritativeRecord) error {
	p := agg.ActiveAt(rec.CourtID)
	if p == nil {
		return dErrors.New(dErrors.CodeNotFound, "no active position at this court")
	}
	end := models.Day(rec.Start)
	if rec.End != nil {
		end = models.Day(*rec.End)
	}
	if end.Before(models.Day(p.Start)) {
		return dErrors.New(dErrors.CodeInvalidInput, "end date precedes position start")
	}
	p.End = &end
	p.EndInferred = false
	p.Status = models.StatusEnded
	p.UpdatedAt = requestcontext.Now(ctx)
	return nil
}

func (s *Service) applyRetirement(ctx context.Context, agg *models.Aggregate, rec models.AuthoritativeRecord) error {
	end := models.Day(rec.Start)
	if rec.End != nil {
		end = models.Day(*rec.End)
	}
	for _, p := range agg.Active() {
		posEnd := end
		if posEnd.Before(models.Day(p.Start)) {
			posEnd = models.Day(p.Start)
		}
		e := posEnd
		p.End = &e
		p.EndInferred = false
		p.Status = models.StatusEnded
		p.UpdatedAt = requestcontext.Now(ctx)
	}

	judge, err := s.judges.Get(ctx, rec.JudgeID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "judge not found")
	}
	judge.Retired = true
	judge.RetirementInferredAt = nil
	judge.UpdatedAt = requestcontext.Now(ctx)
	if err := s.judges.Update(ctx, judge); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "set retirement flag")
	}
	return nil
}

// InferRetirement closes all of a judge's active positions as
// retired-inferred when no case activity has been observed within the
// horizon. Called by the sweep; never by request paths.
func (s *Service) InferRetirement(ctx context.Context, judgeID id.JudgeID, now time.Time, horizon time.Duration) (bool, error) {
	unlock := s.locks.lock(judgeID)
	defer unlock()

	agg, err := s.store.LoadAggregate(ctx, judgeID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "load position aggregate")
	}
	active := agg.Active()
	if len(active) == 0 {
		return false, nil
	}
	// No observed activity at all means there is nothing to infer from.
	if agg.LastActivity.IsZero() {
		return false, nil
	}
	if now.Sub(agg.LastActivity) < horizon {
		return false, nil
	}

	last := models.Day(agg.LastActivity)
	for _, p := range active {
		end := last
		if end.Before(models.Day(p.Start)) {
			end = models.Day(p.Start)
		}
		e := end
		p.End = &e
		p.EndInferred = true
		p.Status = models.StatusRetiredInferred
		p.UpdatedAt = now
	}
	if err := s.store.CommitAggregate(ctx, agg); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeConflict, "commit position aggregate")
	}

	judge, err := s.judges.Get(ctx, judgeID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeNotFound, "judge not found")
	}
	judge.Retired = true
	inferredAt := last
	judge.RetirementInferredAt = &inferredAt
	judge.UpdatedAt = now
	if err := s.judges.Update(ctx, judge); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "set inferred retirement")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "retirement inferred",
			"judge_id", judgeID, "last_activity", agg.LastActivity)
	}
	s.observeTransition("retired_inferred")
	if s.metrics != nil {
		s.metrics.IncrementRetirementsInferred()
	}
	return true, nil
}

// History returns the judge's full position history, oldest first.
func (s *Service) History(ctx context.Context, judgeID id.JudgeID) ([]*models.Position, error) {
	agg, err := s.store.LoadAggregate(ctx, judgeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load position aggregate")
	}
	return agg.Positions, nil
}

// Generation exposes the judge's position generation for optimistic readers.
func (s *Service) Generation(ctx context.Context, judgeID id.JudgeID) (uint64, error) {
	return s.store.Generation(ctx, judgeID)
}

// openPosition validates and appends a new active position to the
// aggregate. On violation the aggregate is left untouched and the coded
// error carries the first violation's kind.
func (s *Service) openPosition(ctx context.Context, agg *models.Aggregate, judgeID id.JudgeID, courtID id.CourtID, start time.Time, caseJurisdiction string, multiCourt bool) (*models.Position, error) {
	court, err := s.courts.Get(ctx, courtID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "court not found")
	}
	courtActive, err := s.store.ActiveByCourt(ctx, courtID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load court occupancy")
	}

	now := requestcontext.Now(ctx)
	pos := &models.Position{
		ID:        id.NewPositionID(),
		JudgeID:   judgeID,
		CourtID:   courtID,
		Start:     start,
		Status:    models.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	violations := validator.Validate(validator.Proposal{
		Position:         pos,
		Court:            court,
		CaseJurisdiction: caseJurisdiction,
		MultiCourt:       multiCourt,
		JudgePositions:   agg.Positions,
		CourtActive:      courtActive,
	})
	if len(violations) > 0 {
		s.reportViolations(ctx, judgeID, violations)
		return nil, violationError(violations)
	}

	agg.Positions = append(agg.Positions, pos)
	return pos, nil
}

func (s *Service) recordActivity(ctx context.Context, judgeID id.JudgeID, caseDate time.Time) error {
	if err := s.store.RecordActivity(ctx, judgeID, models.Day(caseDate)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "record activity")
	}
	return nil
}

func (s *Service) reportViolations(ctx context.Context, judgeID id.JudgeID, violations []validator.Violation) {
	if s.metrics != nil {
		for _, v := range violations {
			s.metrics.IncrementViolations(string(v.Kind))
		}
	}
	if s.violations == nil {
		return
	}
	if err := s.violations.ReportViolations(ctx, judgeID, "", violations); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to queue violations", "judge_id", judgeID, "error", err)
	}
}

func (s *Service) observeTransition(kind string) {
	if s.metrics != nil {
		s.metrics.IncrementTransitions(kind)
	}
}

// violationError maps the first (highest-priority) violation onto a coded
// error for callers that demanded the transition.
func violationError(violations []validator.Violation) error {
	v := violations[0]
	var code dErrors.Code
	switch v.Kind {
	case validator.KindSeatConflict:
		code = dErrors.CodeSeatConflict
	case validator.KindJurisdiction:
		code = dErrors.CodeJurisdictionViolation
	case validator.KindRetiredJudge:
		code = dErrors.CodeRetiredJudge
	default:
		code = dErrors.CodeOverlapViolation
	}
	return dErrors.New(code, v.Detail)
}
