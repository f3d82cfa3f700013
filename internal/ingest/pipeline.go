package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	dirmodels "gavel/internal/directory/models"
	dirports "gavel/internal/directory/ports"
	docketmodels "gavel/internal/docket/models"
	docketports "gavel/internal/docket/ports"
	"gavel/internal/identity/jurisdiction"
	"gavel/internal/ingest/metrics"
	matchmodels "gavel/internal/match/models"
	posports "gavel/internal/position/ports"
	id "gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
	"gavel/pkg/requestcontext"
)

const defaultWorkers = 8

// Matcher resolves a raw record to a judge identity.
type Matcher interface {
	Match(ctx context.Context, rec matchmodels.RawCaseRecord) (matchmodels.Result, error)
}

// PositionTracker opens or reuses positions for confirmed cases.
type PositionTracker interface {
	EnsureForCase(ctx context.Context, judgeID id.JudgeID, courtID id.CourtID, caseDate time.Time, caseJurisdiction string) (id.PositionID, error)
}

// CandidateCreator registers a new judge from an unmatched record. The
// matcher never does this implicitly; the pipeline invokes it only when
// candidate creation was explicitly enabled.
type CandidateCreator interface {
	CreateCandidate(ctx context.Context, rec matchmodels.RawCaseRecord) (*dirmodels.Judge, error)
}

// Reviewer records deferrals for cases the pipeline refuses to guess at.
type Reviewer interface {
	RecordAmbiguous(ctx context.Context, c *docketmodels.Case, candidates []id.JudgeID) error
	RecordNoMatch(ctx context.Context, c *docketmodels.Case, judgeName string) error
	RecordCourtUnresolved(ctx context.Context, c *docketmodels.Case, judgeID id.JudgeID, courtName string) error
}

// Pipeline runs raw records through match, position, and docket resolution.
// Records for different judges resolve concurrently; all writes for one
// judge serialize on that judge's aggregate lock inside the tracker.
type Pipeline struct {
	matcher   Matcher
	positions PositionTracker
	posStore  posports.Store
	docket    docketports.Store
	courts    dirports.CourtStore
	review    Reviewer
	hierarchy *jurisdiction.Hierarchy
	creator   CandidateCreator

	workers int
	tracer  trace.Tracer

	logger  *slog.Logger
	metrics *metrics.Metrics
}

type PipelineOption func(*Pipeline)

func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = logger }
}

func WithPipelineMetrics(m *metrics.Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// WithCandidateCreation lets no-match records create candidate judges
// instead of parking for review. Off by default: trusted feeds opt in, noisy
// feeds stay on the review path.
func WithCandidateCreation(creator CandidateCreator) PipelineOption {
	return func(p *Pipeline) { p.creator = creator }
}

func WithWorkers(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

func NewPipeline(matcher Matcher, positions PositionTracker, posStore posports.Store, docket docketports.Store, courts dirports.CourtStore, review Reviewer, hierarchy *jurisdiction.Hierarchy, opts ...PipelineOption) (*Pipeline, error) {
	if matcher == nil {
		return nil, fmt.Errorf("matcher is required")
	}
	if positions == nil {
		return nil, fmt.Errorf("position tracker is required")
	}
	if posStore == nil {
		return nil, fmt.Errorf("position store is required")
	}
	if docket == nil {
		return nil, fmt.Errorf("docket store is required")
	}
	if courts == nil {
		return nil, fmt.Errorf("court store is required")
	}
	if review == nil {
		return nil, fmt.Errorf("reviewer is required")
	}
	if hierarchy == nil {
		return nil, fmt.Errorf("jurisdiction hierarchy is required")
	}

	p := &Pipeline{
		matcher:   matcher,
		positions: positions,
		posStore:  posStore,
		docket:    docket,
		courts:    courts,
		review:    review,
		hierarchy: hierarchy,
		workers:   defaultWorkers,
		tracer:    otel.Tracer("gavel/ingest"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run consumes records from the channel with the configured worker count
// until the channel closes or the context is cancelled. Per-record failures
// are logged and counted, never fatal to the batch.
func (p *Pipeline) Run(ctx context.Context, records <-chan matchmodels.RawCaseRecord) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case rec, ok := <-records:
					if !ok {
						return nil
					}
					if err := p.Process(ctx, rec); err != nil {
						p.observe("failed")
						if p.logger != nil {
							p.logger.ErrorContext(ctx, "record processing failed",
								"external_case_id", rec.ExternalCaseID, "error", err)
						}
					}
				}
			}
		})
	}
	return g.Wait()
}

// Process resolves one raw record end to end. Malformed records are skipped
// with an upstream-data error; reprocessing an already-resolved case is a
// no-op.
func (p *Pipeline) Process(ctx context.Context, rec matchmodels.RawCaseRecord) error {
	ctx, span := p.tracer.Start(ctx, "ingest.process",
		trace.WithAttributes(attribute.String("external_case_id", rec.ExternalCaseID)))
	defer span.End()

	if err := rec.Validate(); err != nil {
		p.observe("malformed")
		if p.logger != nil {
			p.logger.WarnContext(ctx, "malformed record skipped",
				"external_case_id", rec.ExternalCaseID, "error", err)
		}
		return nil
	}
	p.observeLag(rec.DecidedAt)

	c, err := p.upsertCase(ctx, rec)
	if err != nil {
		return err
	}
	if c.Status == docketmodels.StatusResolved {
		p.observe("duplicate")
		return nil
	}

	result, err := p.matcher.Match(ctx, rec)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUpstreamData) {
			p.observe("malformed")
			if p.logger != nil {
				p.logger.WarnContext(ctx, "unmatchable record skipped",
					"external_case_id", rec.ExternalCaseID, "error", err)
			}
			return nil
		}
		return err
	}
	span.SetAttributes(attribute.String("match_kind", string(result.Kind)))

	switch result.Kind {
	case matchmodels.KindMatched:
		return p.resolve(ctx, c, rec, result.JudgeID)
	case matchmodels.KindAmbiguous:
		if err := p.docket.MarkAmbiguous(ctx, c.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "mark case ambiguous")
		}
		if err := p.review.RecordAmbiguous(ctx, c, result.Candidates); err != nil {
			return err
		}
		p.observe("ambiguous")
		return nil
	default:
		if p.creator != nil {
			return p.createAndResolve(ctx, c, rec)
		}
		if err := p.review.RecordNoMatch(ctx, c, rec.JudgeName); err != nil {
			return err
		}
		p.observe("deferred")
		return nil
	}
}

func (p *Pipeline) upsertCase(ctx context.Context, rec matchmodels.RawCaseRecord) (*docketmodels.Case, error) {
	now := requestcontext.Now(ctx)
	c := &docketmodels.Case{
		ID:              id.NewCaseID(),
		ExternalID:      rec.ExternalCaseID,
		JurisdictionKey: p.hierarchy.Resolve(rec.Jurisdiction),
		Outcome:         rec.Outcome,
		CaseType:        rec.CaseType,
		DecidedAt:       rec.DecidedAt,
		Status:          docketmodels.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	existing, found, err := p.docket.Upsert(ctx, c)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "upsert case")
	}
	if found {
		return existing, nil
	}
	return c, nil
}

// resolve links a matched case to a position. A match without a resolvable
// court is parked for review rather than guessed.
func (p *Pipeline) resolve(ctx context.Context, c *docketmodels.Case, rec matchmodels.RawCaseRecord, judgeID id.JudgeID) error {
	courtID, ok, err := p.courtFor(ctx, c, rec, judgeID)
	if err != nil {
		return err
	}
	if !ok {
		if err := p.review.RecordCourtUnresolved(ctx, c, judgeID, rec.CourtName); err != nil {
			return err
		}
		p.observe("deferred")
		return nil
	}

	positionID, err := p.positions.EnsureForCase(ctx, judgeID, courtID, c.DecidedAt, c.JurisdictionKey)
	if err != nil {
		if assignmentRejected(err) {
			// The tracker refused the assignment and its violation sink
			// already queued the rejection; the case stays pending.
			p.observe("deferred")
			return nil
		}
		return err
	}
	if err := p.docket.Resolve(ctx, c.ID, judgeID, positionID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "resolve case")
	}
	p.observe("resolved")
	return nil
}

// createAndResolve registers a candidate judge for a no-match record and
// resolves the case against it. A name the creator cannot normalize parks
// for review like any other no-match.
func (p *Pipeline) createAndResolve(ctx context.Context, c *docketmodels.Case, rec matchmodels.RawCaseRecord) error {
	judge, err := p.creator.CreateCandidate(ctx, rec)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUpstreamData) {
			if err := p.review.RecordNoMatch(ctx, c, rec.JudgeName); err != nil {
				return err
			}
			p.observe("deferred")
			return nil
		}
		return err
	}
	p.observe("candidate_created")
	return p.resolve(ctx, c, rec, judge.ID)
}

// assignmentRejected reports whether the tracker turned the assignment down
// on a position invariant. These rejections land in the review queue through
// the tracker's violation sink, so the pipeline defers instead of failing.
func assignmentRejected(err error) bool {
	for _, code := range []dErrors.Code{
		dErrors.CodeRetiredJudge,
		dErrors.CodeSeatConflict,
		dErrors.CodeJurisdictionViolation,
		dErrors.CodeOverlapViolation,
	} {
		if dErrors.HasCode(err, code) {
			return true
		}
	}
	return false
}

// courtFor determines which court heard the case: an unambiguous court in
// the record's jurisdiction, narrowed by court name if several; otherwise
// the judge's only active court.
func (p *Pipeline) courtFor(ctx context.Context, c *docketmodels.Case, rec matchmodels.RawCaseRecord, judgeID id.JudgeID) (id.CourtID, bool, error) {
	if c.JurisdictionKey != jurisdiction.Unresolved {
		courts, err := p.courts.FindByJurisdiction(ctx, c.JurisdictionKey)
		if err != nil {
			return id.CourtID{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "find courts")
		}
		if len(courts) > 1 && rec.CourtName != "" {
			want := jurisdiction.Slug(rec.CourtName)
			var narrowed []id.CourtID
			for _, court := range courts {
				if jurisdiction.Slug(court.Name) == want {
					narrowed = append(narrowed, court.ID)
				}
			}
			if len(narrowed) == 1 {
				return narrowed[0], true, nil
			}
		}
		if len(courts) == 1 {
			return courts[0].ID, true, nil
		}
	}

	agg, err := p.posStore.LoadAggregate(ctx, judgeID)
	if err != nil {
		return id.CourtID{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "load judge positions")
	}
	if active := agg.Active(); len(active) == 1 {
		return active[0].CourtID, true, nil
	}
	return id.CourtID{}, false, nil
}

// Backfill pages through the provider's case listing and processes every
// record. Resumable: re-running skips already-resolved cases.
func (p *Pipeline) Backfill(ctx context.Context, client *Client) error {
	cursor := ""
	for {
		page, err := client.FetchCases(ctx, cursor)
		if err != nil {
			return err
		}
		for _, rec := range page.Records {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := p.Process(ctx, rec); err != nil {
				p.observe("failed")
				if p.logger != nil {
					p.logger.ErrorContext(ctx, "backfill record failed",
						"external_case_id", rec.ExternalCaseID, "error", err)
				}
			}
		}
		if page.Next == "" {
			return nil
		}
		cursor = page.Next
	}
}

func (p *Pipeline) observe(disposition string) {
	if p.metrics != nil {
		p.metrics.ObserveRecord(disposition)
	}
}

func (p *Pipeline) observeLag(decidedAt time.Time) {
	if p.metrics == nil || decidedAt.IsZero() {
		return
	}
	if lag := time.Since(decidedAt); lag > 0 {
		p.metrics.Lag.Observe(lag.Seconds())
	}
}
