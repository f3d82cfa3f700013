package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dirmodels "gavel/internal/directory/models"
	courtstore "gavel/internal/directory/store/court"
	judgestore "gavel/internal/directory/store/judge"
	"gavel/internal/identity"
	"gavel/internal/identity/jurisdiction"
	"gavel/internal/match/models"
	posmodels "gavel/internal/position/models"
	posstore "gavel/internal/position/store"
	id "gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
)

type MatchTestSuite struct {
	suite.Suite

	ctx       context.Context
	judges    *judgestore.InMemoryStore
	courts    *courtstore.InMemoryStore
	positions *posstore.InMemoryStore
	service   *Service
}

func (s *MatchTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.judges = judgestore.NewInMemoryStore()
	s.courts = courtstore.NewInMemoryStore()
	s.positions = posstore.NewInMemoryStore()

	hierarchy := jurisdiction.New(
		[]string{
			"ca/los-angeles/superior",
			"ca/san-francisco/superior",
			"ny/kings/supreme",
		},
		map[string]string{
			"Los Angeles County Superior Court": "ca/los-angeles/superior",
		},
	)

	svc, err := New(identity.New(hierarchy), s.judges, s.courts, s.positions)
	s.Require().NoError(err)
	s.service = svc
}

func (s *MatchTestSuite) newJudge(name, externalID string) *dirmodels.Judge {
	nameKey, fuzzyKey := identity.NormalizeName(name)
	j := &dirmodels.Judge{
		ID:            id.NewJudgeID(),
		CanonicalName: name,
		NameKey:       nameKey,
		FuzzyKey:      fuzzyKey,
		ExternalID:    externalID,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	s.Require().NoError(s.judges.Create(s.ctx, j))
	return j
}

func (s *MatchTestSuite) newCourt(jurisdictionKey string) *dirmodels.Court {
	c := &dirmodels.Court{
		ID:              id.NewCourtID(),
		Name:            jurisdictionKey,
		JurisdictionKey: jurisdictionKey,
		Level:           dirmodels.LevelTrial,
		Seats:           1,
		CreatedAt:       time.Now(),
	}
	s.Require().NoError(s.courts.Create(s.ctx, c))
	return c
}

// seat gives the judge an active position at the court so the
// jurisdiction-constrained tiers can see them.
func (s *MatchTestSuite) seat(judgeID id.JudgeID, courtID id.CourtID) {
	agg, err := s.positions.LoadAggregate(s.ctx, judgeID)
	s.Require().NoError(err)
	agg.Positions = append(agg.Positions, &posmodels.Position{
		ID:      id.NewPositionID(),
		JudgeID: judgeID,
		CourtID: courtID,
		Start:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:  posmodels.StatusActive,
	})
	s.Require().NoError(s.positions.CommitAggregate(s.ctx, agg))
}

func (s *MatchTestSuite) record(name, jurisdictionText string) models.RawCaseRecord {
	return models.RawCaseRecord{
		ExternalCaseID: "case-1",
		JudgeName:      name,
		Jurisdiction:   jurisdictionText,
		DecidedAt:      time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		Outcome:        "plaintiff",
		CaseType:       "civil",
	}
}

// ============================================================
// Tier pipeline
// ============================================================

func (s *MatchTestSuite) TestExactTierMatch() {
	judge := s.newJudge("Jane Smith", "")
	court := s.newCourt("ca/los-angeles/superior")
	s.seat(judge.ID, court.ID)

	// Honorific, middle initial, and jurisdiction alias all normalize away.
	result, err := s.service.Match(s.ctx, s.record("Hon. Jane A. Smith", "Los Angeles County Superior Court"))
	s.Require().NoError(err)

	s.Equal(models.KindMatched, result.Kind)
	s.Equal(judge.ID, result.JudgeID)
	s.Equal(models.TierExact, result.Tier)
	s.InDelta(0.95, result.Confidence, 1e-9)
}

func (s *MatchTestSuite) TestRelaxedTierMatchesThroughAncestor() {
	judge := s.newJudge("Jane Smith", "")
	court := s.newCourt("ca/los-angeles/superior")
	s.seat(judge.ID, court.ID)

	// The record sits on a sibling branch; relaxation to the state level
	// finds the judge.
	result, err := s.service.Match(s.ctx, s.record("Jane Smith", "ca/san-francisco/superior"))
	s.Require().NoError(err)

	s.Equal(models.KindMatched, result.Kind)
	s.Equal(judge.ID, result.JudgeID)
	s.Equal(models.TierJurisdictionRelaxed, result.Tier)
}

func (s *MatchTestSuite) TestRelaxedTierUnresolvedJurisdictionUniqueName() {
	judge := s.newJudge("Jane Smith", "")
	court := s.newCourt("ca/los-angeles/superior")
	s.seat(judge.ID, court.ID)

	result, err := s.service.Match(s.ctx, s.record("Jane Smith", "somewhere unrecognizable"))
	s.Require().NoError(err)

	s.Equal(models.KindMatched, result.Kind)
	s.Equal(judge.ID, result.JudgeID)
	s.Equal(models.TierJurisdictionRelaxed, result.Tier)
}

func (s *MatchTestSuite) TestFuzzyTierMatchesMisspelling() {
	judge := s.newJudge("Jane Smith", "")
	court := s.newCourt("ca/los-angeles/superior")
	s.seat(judge.ID, court.ID)

	result, err := s.service.Match(s.ctx, s.record("Jane Smyth", "ca/los-angeles/superior"))
	s.Require().NoError(err)

	s.Equal(models.KindMatched, result.Kind)
	s.Equal(judge.ID, result.JudgeID)
	s.Equal(models.TierFuzzy, result.Tier)
	s.InDelta(0.70, result.Confidence, 1e-9)
}

func (s *MatchTestSuite) TestFuzzyTierRespectsJurisdictionBranch() {
	judge := s.newJudge("Jane Smith", "")
	court := s.newCourt("ca/los-angeles/superior")
	s.seat(judge.ID, court.ID)

	// Same phonetic bucket, different state: the fuzzy tier must not reach
	// across branches.
	result, err := s.service.Match(s.ctx, s.record("Jane Smyth", "ny/kings/supreme"))
	s.Require().NoError(err)
	s.Equal(models.KindNoMatch, result.Kind)
}

func (s *MatchTestSuite) TestNoMatchForUnknownName() {
	judge := s.newJudge("Jane Smith", "")
	court := s.newCourt("ca/los-angeles/superior")
	s.seat(judge.ID, court.ID)

	result, err := s.service.Match(s.ctx, s.record("Robert Garcia", "ca/los-angeles/superior"))
	s.Require().NoError(err)
	s.Equal(models.KindNoMatch, result.Kind)

	// Match never creates judges on its own.
	roster, err := s.judges.List(s.ctx)
	s.Require().NoError(err)
	s.Len(roster, 1)
}

// ============================================================
// Ambiguity
// ============================================================

func (s *MatchTestSuite) TestTwoJudgesSameNameSameJurisdictionIsAmbiguous() {
	court := s.newCourt("ca/los-angeles/superior")
	second := s.newCourt("ca/los-angeles/superior")

	a := s.newJudge("John Lee", "")
	b := s.newJudge("John Lee", "")
	s.seat(a.ID, court.ID)
	s.seat(b.ID, second.ID)

	result, err := s.service.Match(s.ctx, s.record("John Lee", "ca/los-angeles/superior"))
	s.Require().NoError(err)

	s.Equal(models.KindAmbiguous, result.Kind)
	s.ElementsMatch([]id.JudgeID{a.ID, b.ID}, result.Candidates)
}

func (s *MatchTestSuite) TestExternalIDDisambiguatesMultipleExactCandidates() {
	court := s.newCourt("ca/los-angeles/superior")
	second := s.newCourt("ca/los-angeles/superior")

	a := s.newJudge("John Lee", "provider-17")
	b := s.newJudge("John Lee", "")
	s.seat(a.ID, court.ID)
	s.seat(b.ID, second.ID)

	rec := s.record("John Lee", "ca/los-angeles/superior")
	rec.ExternalJudgeID = "provider-17"

	result, err := s.service.Match(s.ctx, rec)
	s.Require().NoError(err)

	// The exact tier yields two candidates; the identifier binding settles
	// it instead of surfacing an ambiguity.
	s.Equal(models.KindMatched, result.Kind)
	s.Equal(a.ID, result.JudgeID)
	s.Equal(models.TierExternalID, result.Tier)
	s.InDelta(1.0, result.Confidence, 1e-9)
}

// ============================================================
// Variant learning
// ============================================================

func (s *MatchTestSuite) TestExternalIDMatchLearnsNameVariant() {
	judge := s.newJudge("Jane Smith", "provider-42")
	court := s.newCourt("ca/los-angeles/superior")
	s.seat(judge.ID, court.ID)

	rec := s.record("Jane Smith-Jones", "ca/los-angeles/superior")
	rec.ExternalJudgeID = "provider-42"

	result, err := s.service.Match(s.ctx, rec)
	s.Require().NoError(err)
	s.Equal(models.KindMatched, result.Kind)
	s.Equal(judge.ID, result.JudgeID)
	s.Equal(models.TierExternalID, result.Tier)

	updated, err := s.judges.Get(s.ctx, judge.ID)
	s.Require().NoError(err)
	s.Require().Len(updated.Variants, 1)
	s.Equal("Jane Smith-Jones", updated.Variants[0].Name)
	s.Equal(string(models.TierExternalID), updated.Variants[0].Source)

	// The learned variant now matches exactly without the identifier.
	again, err := s.service.Match(s.ctx, s.record("Jane Smith-Jones", "ca/los-angeles/superior"))
	s.Require().NoError(err)
	s.Equal(models.KindMatched, again.Kind)
	s.Equal(models.TierExact, again.Tier)
}

func (s *MatchTestSuite) TestKnownSpellingDoesNotDuplicateVariant() {
	judge := s.newJudge("Jane Smith", "provider-42")
	court := s.newCourt("ca/los-angeles/superior")
	s.seat(judge.ID, court.ID)

	rec := s.record("Jane Smith", "ny/kings/supreme")
	rec.ExternalJudgeID = "provider-42"

	result, err := s.service.Match(s.ctx, rec)
	s.Require().NoError(err)
	s.Equal(models.TierExternalID, result.Tier)

	updated, err := s.judges.Get(s.ctx, judge.ID)
	s.Require().NoError(err)
	s.Empty(updated.Variants)
}

// ============================================================
// Candidate creation and validation
// ============================================================

func (s *MatchTestSuite) TestCreateCandidate() {
	rec := s.record("Hon. Maria Delgado", "ca/los-angeles/superior")
	rec.ExternalJudgeID = "provider-99"

	judge, err := s.service.CreateCandidate(s.ctx, rec)
	s.Require().NoError(err)
	s.Equal("Hon. Maria Delgado", judge.CanonicalName)
	s.Equal("maria delgado", judge.NameKey)
	s.Equal("provider-99", judge.ExternalID)

	found, err := s.judges.FindByExternalID(s.ctx, "provider-99")
	s.Require().NoError(err)
	s.Equal(judge.ID, found.ID)
}

func (s *MatchTestSuite) TestMalformedRecordRejected() {
	tests := []struct {
		name   string
		mutate func(*models.RawCaseRecord)
	}{
		{"missing case id", func(r *models.RawCaseRecord) { r.ExternalCaseID = "" }},
		{"missing judge name", func(r *models.RawCaseRecord) { r.JudgeName = "" }},
		{"missing decision date", func(r *models.RawCaseRecord) { r.DecidedAt = time.Time{} }},
		{"missing outcome", func(r *models.RawCaseRecord) { r.Outcome = "" }},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.record("Jane Smith", "ca/los-angeles/superior")
			tt.mutate(&rec)
			_, err := s.service.Match(s.ctx, rec)
			s.Require().Error(err)
			s.Equal(dErrors.CodeUpstreamData, dErrors.CodeOf(err))
		})
	}
}

func TestMatchTestSuite(t *testing.T) {
	suite.Run(t, new(MatchTestSuite))
}
