// Package service exposes the judge and court roster to the read and admin
// APIs. Resolution paths (matcher, tracker) talk to the stores directly;
// this layer adds validation and hierarchy checks for external input.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gavel/internal/directory/models"
	"gavel/internal/directory/ports"
	"gavel/internal/identity"
	"gavel/internal/identity/jurisdiction"
	id "gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
	"gavel/pkg/platform/sentinel"
	"gavel/pkg/requestcontext"
)

type Service struct {
	judges    ports.JudgeStore
	courts    ports.CourtStore
	hierarchy *jurisdiction.Hierarchy

	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(judges ports.JudgeStore, courts ports.CourtStore, hierarchy *jurisdiction.Hierarchy, opts ...Option) (*Service, error) {
	if judges == nil {
		return nil, fmt.Errorf("judge store is required")
	}
	if courts == nil {
		return nil, fmt.Errorf("court store is required")
	}
	if hierarchy == nil {
		return nil, fmt.Errorf("jurisdiction hierarchy is required")
	}

	svc := &Service{judges: judges, courts: courts, hierarchy: hierarchy}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateJudge registers a judge from admin input.
func (s *Service) CreateJudge(ctx context.Context, name, externalID string, multiCourt bool) (*models.Judge, error) {
	nameKey, fuzzyKey := identity.NormalizeName(name)
	if nameKey == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "judge name is required")
	}

	now := requestcontext.Now(ctx)
	judge := &models.Judge{
		ID:            id.NewJudgeID(),
		CanonicalName: name,
		NameKey:       nameKey,
		FuzzyKey:      fuzzyKey,
		ExternalID:    externalID,
		MultiCourt:    multiCourt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.judges.Create(ctx, judge); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "judge already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create judge")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "judge created", "judge_id", judge.ID, "name", name)
	}
	return judge, nil
}

// GetJudge returns one judge.
func (s *Service) GetJudge(ctx context.Context, judgeID id.JudgeID) (*models.Judge, error) {
	judge, err := s.judges.Get(ctx, judgeID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "judge not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get judge")
	}
	return judge, nil
}

// ListJudges returns the full roster.
func (s *Service) ListJudges(ctx context.Context) ([]*models.Judge, error) {
	judges, err := s.judges.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list judges")
	}
	return judges, nil
}

// SetMultiCourt flips a judge's concurrent-positions whitelist flag.
func (s *Service) SetMultiCourt(ctx context.Context, judgeID id.JudgeID, multiCourt bool) error {
	judge, err := s.GetJudge(ctx, judgeID)
	if err != nil {
		return err
	}
	if judge.MultiCourt == multiCourt {
		return nil
	}
	judge.MultiCourt = multiCourt
	judge.UpdatedAt = requestcontext.Now(ctx)
	if err := s.judges.Update(ctx, judge); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update judge")
	}
	return nil
}

// CreateCourt registers a court. The jurisdiction must resolve to a node of
// the configured hierarchy; free text is accepted and canonicalized.
func (s *Service) CreateCourt(ctx context.Context, name, rawJurisdiction string, level models.CourtLevel, seats int) (*models.Court, error) {
	if seats == 0 {
		seats = 1
	}
	key := s.hierarchy.Resolve(rawJurisdiction)
	if key == jurisdiction.Unresolved {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput,
			"jurisdiction %q is not in the hierarchy", rawJurisdiction)
	}

	court := &models.Court{
		ID:              id.NewCourtID(),
		Name:            name,
		JurisdictionKey: key,
		Level:           level,
		Seats:           seats,
		CreatedAt:       requestcontext.Now(ctx),
	}
	if err := court.Validate(); err != nil {
		return nil, err
	}
	if err := s.courts.Create(ctx, court); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create court")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "court created",
			"court_id", court.ID, "jurisdiction", key)
	}
	return court, nil
}

// GetCourt returns one court.
func (s *Service) GetCourt(ctx context.Context, courtID id.CourtID) (*models.Court, error) {
	court, err := s.courts.Get(ctx, courtID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "court not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get court")
	}
	return court, nil
}

// ListCourts returns every court.
func (s *Service) ListCourts(ctx context.Context) ([]*models.Court, error) {
	courts, err := s.courts.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list courts")
	}
	return courts, nil
}
