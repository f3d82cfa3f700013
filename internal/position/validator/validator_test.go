package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	dirmodels "gavel/internal/directory/models"
	"gavel/internal/identity/jurisdiction"
	"gavel/internal/position/models"
	id "gavel/pkg/domain"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(s string) *time.Time {
	d := day(s)
	return &d
}

func activePosition(judgeID id.JudgeID, courtID id.CourtID, start string) *models.Position {
	return &models.Position{
		ID:      id.NewPositionID(),
		JudgeID: judgeID,
		CourtID: courtID,
		Start:   day(start),
		Status:  models.StatusActive,
	}
}

func testCourt(seats int) *dirmodels.Court {
	return &dirmodels.Court{
		ID:              id.NewCourtID(),
		Name:            "Los Angeles Superior",
		JurisdictionKey: "ca/los-angeles/superior",
		Level:           dirmodels.LevelTrial,
		Seats:           seats,
	}
}

func kinds(violations []Violation) []Kind {
	out := make([]Kind, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.Kind)
	}
	return out
}

func TestValidateSeats(t *testing.T) {
	judgeID := id.NewJudgeID()
	court := testCourt(1)

	t.Run("empty court admits the position", func(t *testing.T) {
		p := Proposal{
			Position: activePosition(judgeID, court.ID, "2023-01-01"),
			Court:    court,
		}
		assert.Empty(t, Validate(p))
	})

	t.Run("occupied single seat rejects a second judge", func(t *testing.T) {
		incumbent := activePosition(id.NewJudgeID(), court.ID, "2020-01-01")
		p := Proposal{
			Position:    activePosition(judgeID, court.ID, "2023-01-01"),
			Court:       court,
			CourtActive: []*models.Position{incumbent},
		}
		violations := Validate(p)
		assert.Contains(t, kinds(violations), KindSeatConflict)

		for _, v := range violations {
			if v.Kind == KindSeatConflict {
				assert.Equal(t, []id.PositionID{incumbent.ID}, v.PositionIDs)
			}
		}
	})

	t.Run("the judge's own active position does not consume a second seat", func(t *testing.T) {
		own := activePosition(judgeID, court.ID, "2020-01-01")
		p := Proposal{
			Position:    activePosition(judgeID, court.ID, "2023-01-01"),
			Court:       court,
			CourtActive: []*models.Position{own},
		}
		assert.Empty(t, Validate(p))
	})

	t.Run("multi seat court admits up to its cardinality", func(t *testing.T) {
		court := testCourt(3)
		occupied := []*models.Position{
			activePosition(id.NewJudgeID(), court.ID, "2020-01-01"),
			activePosition(id.NewJudgeID(), court.ID, "2021-01-01"),
		}
		p := Proposal{
			Position:    activePosition(judgeID, court.ID, "2023-01-01"),
			Court:       court,
			CourtActive: occupied,
		}
		assert.Empty(t, Validate(p))

		occupied = append(occupied, activePosition(id.NewJudgeID(), court.ID, "2022-01-01"))
		p.CourtActive = occupied
		assert.Contains(t, kinds(Validate(p)), KindSeatConflict)
	})
}

func TestValidateJurisdiction(t *testing.T) {
	judgeID := id.NewJudgeID()
	court := testCourt(1)

	t.Run("case in the court's jurisdiction passes", func(t *testing.T) {
		p := Proposal{
			Position:         activePosition(judgeID, court.ID, "2023-01-01"),
			Court:            court,
			CaseJurisdiction: "ca/los-angeles/superior",
		}
		assert.Empty(t, Validate(p))
	})

	t.Run("ancestor case jurisdiction passes", func(t *testing.T) {
		p := Proposal{
			Position:         activePosition(judgeID, court.ID, "2023-01-01"),
			Court:            court,
			CaseJurisdiction: "ca",
		}
		assert.Empty(t, Validate(p))
	})

	t.Run("sibling branch is rejected", func(t *testing.T) {
		p := Proposal{
			Position:         activePosition(judgeID, court.ID, "2023-01-01"),
			Court:            court,
			CaseJurisdiction: "ny/kings/supreme",
		}
		assert.Equal(t, []Kind{KindJurisdiction}, kinds(Validate(p)))
	})

	t.Run("unresolved case jurisdiction skips the check", func(t *testing.T) {
		p := Proposal{
			Position:         activePosition(judgeID, court.ID, "2023-01-01"),
			Court:            court,
			CaseJurisdiction: jurisdiction.Unresolved,
		}
		assert.Empty(t, Validate(p))
	})

	t.Run("missing case jurisdiction skips the check", func(t *testing.T) {
		p := Proposal{
			Position: activePosition(judgeID, court.ID, "2023-01-01"),
			Court:    court,
		}
		assert.Empty(t, Validate(p))
	})
}

func TestValidateOverlap(t *testing.T) {
	judgeID := id.NewJudgeID()
	court := testCourt(1)
	otherCourtID := id.NewCourtID()

	t.Run("open interval at another court conflicts", func(t *testing.T) {
		other := activePosition(judgeID, otherCourtID, "2020-01-01")
		p := Proposal{
			Position:       activePosition(judgeID, court.ID, "2023-01-01"),
			Court:          court,
			JudgePositions: []*models.Position{other},
		}
		violations := Validate(p)
		assert.Equal(t, []Kind{KindOverlap}, kinds(violations))
		assert.Equal(t, []id.PositionID{other.ID}, violations[0].PositionIDs)
	})

	t.Run("closed interval ending before the new start does not conflict", func(t *testing.T) {
		prior := activePosition(judgeID, otherCourtID, "2020-01-01")
		prior.End = dayPtr("2022-12-31")
		prior.Status = models.StatusEnded
		p := Proposal{
			Position:       activePosition(judgeID, court.ID, "2023-01-01"),
			Court:          court,
			JudgePositions: []*models.Position{prior},
		}
		assert.Empty(t, Validate(p))
	})

	t.Run("inclusive boundary day conflicts", func(t *testing.T) {
		prior := activePosition(judgeID, otherCourtID, "2020-01-01")
		prior.End = dayPtr("2023-01-01")
		prior.Status = models.StatusEnded
		p := Proposal{
			Position:       activePosition(judgeID, court.ID, "2023-01-01"),
			Court:          court,
			JudgePositions: []*models.Position{prior},
		}
		assert.Equal(t, []Kind{KindOverlap}, kinds(Validate(p)))
	})

	t.Run("multi court judges are exempt", func(t *testing.T) {
		other := activePosition(judgeID, otherCourtID, "2020-01-01")
		p := Proposal{
			Position:       activePosition(judgeID, court.ID, "2023-01-01"),
			Court:          court,
			MultiCourt:     true,
			JudgePositions: []*models.Position{other},
		}
		assert.Empty(t, Validate(p))
	})

	t.Run("inferred retirements never conflict", func(t *testing.T) {
		swept := activePosition(judgeID, otherCourtID, "2020-01-01")
		swept.End = dayPtr("2024-06-01")
		swept.EndInferred = true
		swept.Status = models.StatusRetiredInferred
		p := Proposal{
			Position:       activePosition(judgeID, court.ID, "2023-01-01"),
			Court:          court,
			JudgePositions: []*models.Position{swept},
		}
		assert.Empty(t, Validate(p))
	})

	t.Run("same court history is ignored by the overlap rule", func(t *testing.T) {
		prior := activePosition(judgeID, court.ID, "2020-01-01")
		p := Proposal{
			Position:       activePosition(judgeID, court.ID, "2023-01-01"),
			Court:          court,
			JudgePositions: []*models.Position{prior},
		}
		assert.Empty(t, Validate(p))
	})
}

func TestValidateCollectsAllViolations(t *testing.T) {
	judgeID := id.NewJudgeID()
	court := testCourt(1)

	incumbent := activePosition(id.NewJudgeID(), court.ID, "2020-01-01")
	elsewhere := activePosition(judgeID, id.NewCourtID(), "2021-01-01")

	p := Proposal{
		Position:         activePosition(judgeID, court.ID, "2023-01-01"),
		Court:            court,
		CaseJurisdiction: "ny/kings/supreme",
		JudgePositions:   []*models.Position{elsewhere},
		CourtActive:      []*models.Position{incumbent},
	}
	assert.Equal(t, []Kind{KindSeatConflict, KindJurisdiction, KindOverlap}, kinds(Validate(p)))
}
