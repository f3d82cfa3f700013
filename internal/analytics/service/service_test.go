package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gavel/internal/analytics/confidence"
	"gavel/internal/analytics/models"
	snapstore "gavel/internal/analytics/store"
	dirmodels "gavel/internal/directory/models"
	judgestore "gavel/internal/directory/store/judge"
	docketmodels "gavel/internal/docket/models"
	docketstore "gavel/internal/docket/store"
	posstore "gavel/internal/position/store"
	id "gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
)

type capturePublisher struct {
	published []*models.BiasProfile
}

func (p *capturePublisher) Publish(_ context.Context, profile *models.BiasProfile) error {
	p.published = append(p.published, profile)
	return nil
}

type AnalyticsTestSuite struct {
	suite.Suite

	ctx       context.Context
	docket    *docketstore.InMemoryStore
	positions *posstore.InMemoryStore
	snapshots *snapstore.InMemoryStore
	judges    *judgestore.InMemoryStore
	publisher *capturePublisher
	service   *Service

	seq int
}

func (s *AnalyticsTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.docket = docketstore.NewInMemoryStore()
	s.positions = posstore.NewInMemoryStore()
	s.snapshots = snapstore.NewInMemoryStore()
	s.judges = judgestore.NewInMemoryStore()
	s.publisher = &capturePublisher{}
	s.seq = 0

	svc, err := New(s.docket, s.positions, s.snapshots, s.judges,
		confidence.NewScorer(5, 10), WithPublisher(s.publisher))
	s.Require().NoError(err)
	s.service = svc
}

func (s *AnalyticsTestSuite) newJudge(name string) *dirmodels.Judge {
	j := &dirmodels.Judge{
		ID:            id.NewJudgeID(),
		CanonicalName: name,
		NameKey:       name,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	s.Require().NoError(s.judges.Create(s.ctx, j))
	return j
}

func (s *AnalyticsTestSuite) seedResolvedCase(judgeID id.JudgeID, jurisdictionKey, caseType, outcome string, decidedAt time.Time) {
	s.seq++
	c := &docketmodels.Case{
		ID:              id.NewCaseID(),
		ExternalID:      fmt.Sprintf("ext-%d", s.seq),
		JurisdictionKey: jurisdictionKey,
		Outcome:         outcome,
		CaseType:        caseType,
		DecidedAt:       decidedAt,
		Status:          docketmodels.StatusPending,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	_, found, err := s.docket.Upsert(s.ctx, c)
	s.Require().NoError(err)
	s.Require().False(found)
	s.Require().NoError(s.docket.Resolve(s.ctx, c.ID, judgeID, id.NewPositionID()))
}

func (s *AnalyticsTestSuite) seedMany(judgeID id.JudgeID, jurisdictionKey, caseType, outcome string, n int) {
	decided := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		s.seedResolvedCase(judgeID, jurisdictionKey, caseType, outcome, decided.AddDate(0, 0, i))
	}
}

// ============================================================
// Analyze
// ============================================================

func (s *AnalyticsTestSuite) TestAnalyzeComputesProfileAgainstBaseline() {
	judge := s.newJudge("jane smith")
	peer := s.newJudge("robert garcia")

	// The judge rules uniformly for plaintiffs; the jurisdiction as a whole
	// splits evenly.
	s.seedMany(judge.ID, "ca/los-angeles/superior", "civil", "plaintiff", 10)
	s.seedMany(peer.ID, "ca/los-angeles/superior", "civil", "plaintiff", 50)
	s.seedMany(peer.ID, "ca/los-angeles/superior", "civil", "defendant", 50)

	profile, err := s.service.Analyze(s.ctx, judge.ID, docketmodels.Window{})
	s.Require().NoError(err)

	s.Equal(10, profile.SampleSize)
	s.Equal(confidence.TierSufficient, profile.SampleTier)
	s.Equal(1, profile.Version)

	s.Require().Len(profile.Buckets, 1)
	b := profile.Buckets[0]
	s.Equal("civil", b.CaseType)
	s.Equal("plaintiff", b.Outcome)
	s.InDelta(1.0, b.Rate, 1e-9)
	// Baseline includes the judge's own cases: 60 of 110.
	s.InDelta(60.0/110.0, b.BaselineRate, 1e-9)
	s.True(b.Significant)

	s.Require().NotNil(profile.PatternScore)
	s.InDelta(1.0-60.0/110.0, *profile.PatternScore, 1e-9)
}

func (s *AnalyticsTestSuite) TestAnalyzeInsufficientSampleWithholdsScore() {
	judge := s.newJudge("jane smith")
	s.seedMany(judge.ID, "ca/los-angeles/superior", "civil", "plaintiff", 3)

	profile, err := s.service.Analyze(s.ctx, judge.ID, docketmodels.Window{})
	s.Require().NoError(err)

	s.Equal(3, profile.SampleSize)
	s.Equal(confidence.TierInsufficient, profile.SampleTier)
	s.Nil(profile.PatternScore)
	s.False(profile.Publishable())
	// The snapshot is still stored for later inspection.
	s.NotEmpty(profile.Buckets)
}

func (s *AnalyticsTestSuite) TestAnalyzeNoCases() {
	judge := s.newJudge("jane smith")

	profile, err := s.service.Analyze(s.ctx, judge.ID, docketmodels.Window{})
	s.Require().NoError(err)
	s.Equal(0, profile.SampleSize)
	s.Equal(confidence.TierInsufficient, profile.SampleTier)
	s.Empty(profile.Buckets)
}

func (s *AnalyticsTestSuite) TestAnalyzeHonorsWindow() {
	judge := s.newJudge("jane smith")
	s.seedResolvedCase(judge.ID, "ca/los-angeles/superior", "civil", "plaintiff",
		time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC))
	s.seedResolvedCase(judge.ID, "ca/los-angeles/superior", "civil", "plaintiff",
		time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))

	profile, err := s.service.Analyze(s.ctx, judge.ID, docketmodels.Window{
		From: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	s.Equal(1, profile.SampleSize)
}

// ============================================================
// Versioning
// ============================================================

func (s *AnalyticsTestSuite) TestSnapshotsAreAppendOnlyVersioned() {
	judge := s.newJudge("jane smith")
	s.seedMany(judge.ID, "ca/los-angeles/superior", "civil", "plaintiff", 6)

	first, err := s.service.Analyze(s.ctx, judge.ID, docketmodels.Window{})
	s.Require().NoError(err)
	s.Equal(1, first.Version)

	s.seedMany(judge.ID, "ca/los-angeles/superior", "civil", "defendant", 6)

	second, err := s.service.Analyze(s.ctx, judge.ID, docketmodels.Window{})
	s.Require().NoError(err)
	s.Equal(2, second.Version)
	s.Equal(12, second.SampleSize)

	// Both snapshots survive.
	all, err := s.snapshots.ListByJudge(s.ctx, judge.ID)
	s.Require().NoError(err)
	s.Len(all, 2)

	latest, err := s.service.Latest(s.ctx, judge.ID)
	s.Require().NoError(err)
	s.Equal(2, latest.Version)
}

func (s *AnalyticsTestSuite) TestLatestWithoutSnapshots() {
	judge := s.newJudge("jane smith")

	_, err := s.service.Latest(s.ctx, judge.ID)
	s.Require().Error(err)
	s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
}

// ============================================================
// Generation pinning
// ============================================================

// shiftingGenerations reports a new position generation on every read, as if
// the judge's history changed mid-analysis every time.
type shiftingGenerations struct {
	*posstore.InMemoryStore
	reads uint64
}

func (s *shiftingGenerations) Generation(_ context.Context, _ id.JudgeID) (uint64, error) {
	s.reads++
	return s.reads, nil
}

func (s *AnalyticsTestSuite) TestAnalyzeGivesUpAfterRepeatedGenerationChanges() {
	judge := s.newJudge("jane smith")

	svc, err := New(s.docket, &shiftingGenerations{InMemoryStore: s.positions},
		s.snapshots, s.judges, confidence.NewScorer(5, 10))
	s.Require().NoError(err)

	_, err = svc.Analyze(s.ctx, judge.ID, docketmodels.Window{})
	s.Require().Error(err)
	s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))

	// Nothing is appended for an abandoned computation.
	_, err = s.snapshots.Latest(s.ctx, judge.ID)
	s.Require().Error(err)
}

func (s *AnalyticsTestSuite) TestAnalyzeRecordsGeneration() {
	judge := s.newJudge("jane smith")

	agg, err := s.positions.LoadAggregate(s.ctx, judge.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.positions.CommitAggregate(s.ctx, agg))

	profile, err := s.service.Analyze(s.ctx, judge.ID, docketmodels.Window{})
	s.Require().NoError(err)
	s.Equal(uint64(1), profile.Generation)
}

// ============================================================
// Publication and recompute
// ============================================================

func (s *AnalyticsTestSuite) TestAnalyzeHandsProfileToPublisher() {
	judge := s.newJudge("jane smith")
	s.seedMany(judge.ID, "ca/los-angeles/superior", "civil", "plaintiff", 6)

	profile, err := s.service.Analyze(s.ctx, judge.ID, docketmodels.Window{})
	s.Require().NoError(err)

	s.Require().Len(s.publisher.published, 1)
	s.Equal(profile.ID, s.publisher.published[0].ID)
}

func (s *AnalyticsTestSuite) TestRecomputeAllCoversRoster() {
	a := s.newJudge("jane smith")
	b := s.newJudge("robert garcia")
	s.seedMany(a.ID, "ca/los-angeles/superior", "civil", "plaintiff", 6)
	s.seedMany(b.ID, "ca/los-angeles/superior", "civil", "defendant", 6)

	s.Require().NoError(s.service.RecomputeAll(s.ctx, docketmodels.Window{}))

	for _, judgeID := range []id.JudgeID{a.ID, b.ID} {
		latest, err := s.snapshots.Latest(s.ctx, judgeID)
		s.Require().NoError(err)
		s.Equal(1, latest.Version)
	}
}

func TestAnalyticsTestSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsTestSuite))
}
