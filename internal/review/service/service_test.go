package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	docketmodels "gavel/internal/docket/models"
	docketstore "gavel/internal/docket/store"
	"gavel/internal/position/validator"
	"gavel/internal/review/models"
	reviewstore "gavel/internal/review/store"
	id "gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
	"gavel/pkg/requestcontext"
)

type ensuredCall struct {
	judgeID id.JudgeID
	courtID id.CourtID
}

// fakeResolver stands in for the position tracker; ConfirmMatch only needs a
// position ID back.
type fakeResolver struct {
	calls []ensuredCall
	err   error
}

func (f *fakeResolver) EnsureForCase(_ context.Context, judgeID id.JudgeID, courtID id.CourtID, _ time.Time, _ string) (id.PositionID, error) {
	if f.err != nil {
		return id.PositionID{}, f.err
	}
	f.calls = append(f.calls, ensuredCall{judgeID: judgeID, courtID: courtID})
	return id.NewPositionID(), nil
}

type ReviewTestSuite struct {
	suite.Suite

	ctx      context.Context
	store    *reviewstore.InMemoryStore
	docket   *docketstore.InMemoryStore
	resolver *fakeResolver
	service  *Service
}

func (s *ReviewTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = reviewstore.NewInMemoryStore()
	s.docket = docketstore.NewInMemoryStore()
	s.resolver = &fakeResolver{}

	svc, err := New(s.store, s.docket, s.resolver)
	s.Require().NoError(err)
	s.service = svc
}

func (s *ReviewTestSuite) newCase(externalID string) *docketmodels.Case {
	c := &docketmodels.Case{
		ID:              id.NewCaseID(),
		ExternalID:      externalID,
		JurisdictionKey: "ca/los-angeles/superior",
		Outcome:         "plaintiff",
		CaseType:        "civil",
		DecidedAt:       time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		Status:          docketmodels.StatusPending,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	_, _, err := s.docket.Upsert(s.ctx, c)
	s.Require().NoError(err)
	return c
}

func (s *ReviewTestSuite) queue() []*models.Entry {
	entries, err := s.service.Queue(s.ctx)
	s.Require().NoError(err)
	return entries
}

// ============================================================
// Recording
// ============================================================

func (s *ReviewTestSuite) TestRecordAmbiguous() {
	c := s.newCase("ext-1")
	candidates := []id.JudgeID{id.NewJudgeID(), id.NewJudgeID()}

	s.Require().NoError(s.service.RecordAmbiguous(s.ctx, c, candidates))

	entries := s.queue()
	s.Require().Len(entries, 1)
	s.Equal(models.KindAmbiguousMatch, entries[0].Kind)
	s.Equal(c.ID, entries[0].CaseID)
	s.Equal(candidates, entries[0].Candidates)
	s.True(entries[0].Open())
}

func (s *ReviewTestSuite) TestRecordNoMatch() {
	c := s.newCase("ext-1")

	s.Require().NoError(s.service.RecordNoMatch(s.ctx, c, "Unknown Judge"))

	entries := s.queue()
	s.Require().Len(entries, 1)
	s.Equal(models.KindNoMatch, entries[0].Kind)
	s.Contains(entries[0].Detail, "Unknown Judge")
}

func (s *ReviewTestSuite) TestReportViolationsOneEntryEach() {
	judgeID := id.NewJudgeID()
	violations := []validator.Violation{
		{Kind: validator.KindSeatConflict, Detail: "court full"},
		{Kind: validator.KindOverlap, Detail: "interval overlap"},
	}

	s.Require().NoError(s.service.ReportViolations(s.ctx, judgeID, "case-7", violations))

	entries := s.queue()
	s.Require().Len(entries, 2)
	var kinds []string
	for _, e := range entries {
		s.Equal(models.KindValidatorRejection, e.Kind)
		s.Equal(judgeID, e.JudgeID)
		s.Contains(e.Detail, "case-7")
		kinds = append(kinds, e.ViolationKind)
	}
	s.ElementsMatch([]string{
		string(validator.KindSeatConflict),
		string(validator.KindOverlap),
	}, kinds)
}

func (s *ReviewTestSuite) TestQueueIsOldestFirst() {
	older := s.newCase("ext-1")
	newer := s.newCase("ext-2")

	pinned := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.service.RecordNoMatch(requestcontext.WithTime(s.ctx, pinned), older, "A"))
	s.Require().NoError(s.service.RecordNoMatch(requestcontext.WithTime(s.ctx, pinned.Add(time.Hour)), newer, "B"))

	entries := s.queue()
	s.Require().Len(entries, 2)
	s.Equal(older.ID, entries[0].CaseID)
	s.Equal(newer.ID, entries[1].CaseID)
}

// ============================================================
// ConfirmMatch
// ============================================================

func (s *ReviewTestSuite) TestConfirmMatchResolvesAmbiguousCase() {
	c := s.newCase("ext-1")
	chosen := id.NewJudgeID()
	other := id.NewJudgeID()
	courtID := id.NewCourtID()

	s.Require().NoError(s.service.RecordAmbiguous(s.ctx, c, []id.JudgeID{chosen, other}))
	entry := s.queue()[0]

	s.Require().NoError(s.service.ConfirmMatch(s.ctx, entry.ID, chosen, courtID))

	// The position tracker ran for the chosen judge.
	s.Require().Len(s.resolver.calls, 1)
	s.Equal(chosen, s.resolver.calls[0].judgeID)
	s.Equal(courtID, s.resolver.calls[0].courtID)

	// The case is resolved and the entry closed.
	resolved, err := s.docket.Get(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(docketmodels.StatusResolved, resolved.Status)
	s.Equal(chosen, resolved.JudgeID)

	s.Empty(s.queue())
	closed, err := s.store.Get(s.ctx, entry.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusResolved, closed.Status)
}

func (s *ReviewTestSuite) TestConfirmMatchRejectsOffListJudge() {
	c := s.newCase("ext-1")
	candidates := []id.JudgeID{id.NewJudgeID(), id.NewJudgeID()}

	s.Require().NoError(s.service.RecordAmbiguous(s.ctx, c, candidates))
	entry := s.queue()[0]

	err := s.service.ConfirmMatch(s.ctx, entry.ID, id.NewJudgeID(), id.NewCourtID())
	s.Require().Error(err)
	s.Equal(dErrors.CodeInvalidInput, dErrors.CodeOf(err))

	// The entry stays open and the case stays parked.
	s.Len(s.queue(), 1)
	s.Empty(s.resolver.calls)
}

func (s *ReviewTestSuite) TestConfirmMatchAllowsAnyJudgeForNoMatch() {
	c := s.newCase("ext-1")
	s.Require().NoError(s.service.RecordNoMatch(s.ctx, c, "Unknown Judge"))
	entry := s.queue()[0]

	judgeID := id.NewJudgeID()
	s.Require().NoError(s.service.ConfirmMatch(s.ctx, entry.ID, judgeID, id.NewCourtID()))

	resolved, err := s.docket.Get(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(judgeID, resolved.JudgeID)
}

func (s *ReviewTestSuite) TestConfirmMatchRejectsValidatorRejectionEntries() {
	judgeID := id.NewJudgeID()
	s.Require().NoError(s.service.ReportViolations(s.ctx, judgeID, "",
		[]validator.Violation{{Kind: validator.KindSeatConflict, Detail: "court full"}}))
	entry := s.queue()[0]

	err := s.service.ConfirmMatch(s.ctx, entry.ID, judgeID, id.NewCourtID())
	s.Require().Error(err)
	s.Equal(dErrors.CodeInvalidInput, dErrors.CodeOf(err))
}

func (s *ReviewTestSuite) TestConfirmMatchOnClosedEntry() {
	c := s.newCase("ext-1")
	s.Require().NoError(s.service.RecordNoMatch(s.ctx, c, "Unknown Judge"))
	entry := s.queue()[0]

	s.Require().NoError(s.service.Dismiss(s.ctx, entry.ID, "duplicate"))

	err := s.service.ConfirmMatch(s.ctx, entry.ID, id.NewJudgeID(), id.NewCourtID())
	s.Require().Error(err)
	s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
}

func (s *ReviewTestSuite) TestConfirmMatchPropagatesTrackerRejection() {
	c := s.newCase("ext-1")
	s.Require().NoError(s.service.RecordNoMatch(s.ctx, c, "Unknown Judge"))
	entry := s.queue()[0]

	s.resolver.err = dErrors.New(dErrors.CodeSeatConflict, "court full")

	err := s.service.ConfirmMatch(s.ctx, entry.ID, id.NewJudgeID(), id.NewCourtID())
	s.Require().Error(err)
	s.Equal(dErrors.CodeSeatConflict, dErrors.CodeOf(err))

	// The entry stays open for another attempt.
	s.Len(s.queue(), 1)
}

// ============================================================
// Dismiss
// ============================================================

func (s *ReviewTestSuite) TestDismiss() {
	c := s.newCase("ext-1")
	s.Require().NoError(s.service.RecordNoMatch(s.ctx, c, "Unknown Judge"))
	entry := s.queue()[0]

	s.Require().NoError(s.service.Dismiss(s.ctx, entry.ID, "provider noise"))

	closed, err := s.store.Get(s.ctx, entry.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusDismissed, closed.Status)
	s.Equal("provider noise", closed.Resolution)
	s.Require().NotNil(closed.ResolvedAt)
}

func (s *ReviewTestSuite) TestDismissUnknownEntry() {
	err := s.service.Dismiss(s.ctx, id.NewReviewID(), "")
	s.Require().Error(err)
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func (s *ReviewTestSuite) TestDismissTwice() {
	c := s.newCase("ext-1")
	s.Require().NoError(s.service.RecordNoMatch(s.ctx, c, "Unknown Judge"))
	entry := s.queue()[0]

	s.Require().NoError(s.service.Dismiss(s.ctx, entry.ID, "first"))
	err := s.service.Dismiss(s.ctx, entry.ID, "second")
	s.Require().Error(err)
	s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
}

func TestReviewTestSuite(t *testing.T) {
	suite.Run(t, new(ReviewTestSuite))
}
