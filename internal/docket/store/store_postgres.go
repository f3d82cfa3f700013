package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gavel/internal/docket/models"
	id "gavel/pkg/domain"
	"gavel/pkg/platform/sentinel"
)

// PostgresStore persists cases in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const caseColumns = `id, external_id, judge_id, position_id, jurisdiction_key,
	outcome, case_type, decided_at, status, created_at, updated_at`

func (s *PostgresStore) Upsert(ctx context.Context, c *models.Case) (*models.Case, bool, error) {
	existing, err := s.GetByExternalID(ctx, c.ExternalID)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cases (`+caseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (external_id) DO NOTHING`,
		uuid.UUID(c.ID), c.ExternalID, nullUUID(uuid.UUID(c.JudgeID)),
		nullUUID(uuid.UUID(c.PositionID)), c.JurisdictionKey, c.Outcome,
		c.CaseType, c.DecidedAt, string(c.Status), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("insert case: %w", err)
	}
	return nil, false, nil
}

func (s *PostgresStore) Get(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE id = $1`, uuid.UUID(caseID))
	return s.scanOne(row)
}

func (s *PostgresStore) GetByExternalID(ctx context.Context, externalID string) (*models.Case, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE external_id = $1`, externalID)
	return s.scanOne(row)
}

func (s *PostgresStore) Resolve(ctx context.Context, caseID id.CaseID, judgeID id.JudgeID, positionID id.PositionID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cases SET judge_id = $2, position_id = $3, status = 'resolved',
			updated_at = $4
		WHERE id = $1`,
		uuid.UUID(caseID), uuid.UUID(judgeID), uuid.UUID(positionID), time.Now())
	if err != nil {
		return fmt.Errorf("resolve case: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkAmbiguous(ctx context.Context, caseID id.CaseID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cases SET status = 'ambiguous', updated_at = $2
		WHERE id = $1 AND status <> 'resolved'`,
		uuid.UUID(caseID), time.Now())
	if err != nil {
		return fmt.Errorf("mark case ambiguous: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) ListResolvedByJudge(ctx context.Context, judgeID id.JudgeID, window models.Window) ([]*models.Case, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+caseColumns+` FROM cases
		WHERE status = 'resolved' AND judge_id = $1
			AND ($2::timestamptz IS NULL OR decided_at >= $2)
			AND ($3::timestamptz IS NULL OR decided_at < $3)
		ORDER BY decided_at`,
		uuid.UUID(judgeID), nullTimeValue(window.From), nullTimeValue(window.To))
	if err != nil {
		return nil, fmt.Errorf("list cases by judge: %w", err)
	}
	defer rows.Close()
	return scanCases(rows)
}

func (s *PostgresStore) CountResolvedByJudge(ctx context.Context, judgeID id.JudgeID, window models.Window) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM cases
		WHERE status = 'resolved' AND judge_id = $1
			AND ($2::timestamptz IS NULL OR decided_at >= $2)
			AND ($3::timestamptz IS NULL OR decided_at < $3)`,
		uuid.UUID(judgeID), nullTimeValue(window.From), nullTimeValue(window.To)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count cases by judge: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) ListResolvedByJurisdiction(ctx context.Context, jurisdictionKey string, window models.Window) ([]*models.Case, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+caseColumns+` FROM cases
		WHERE status = 'resolved'
			AND (jurisdiction_key = $1 OR jurisdiction_key LIKE $1 || '/%')
			AND ($2::timestamptz IS NULL OR decided_at >= $2)
			AND ($3::timestamptz IS NULL OR decided_at < $3)`,
		jurisdictionKey, nullTimeValue(window.From), nullTimeValue(window.To))
	if err != nil {
		return nil, fmt.Errorf("list cases by jurisdiction: %w", err)
	}
	defer rows.Close()
	return scanCases(rows)
}

func (s *PostgresStore) scanOne(row *sql.Row) (*models.Case, error) {
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*models.Case, error) {
	var (
		c                 models.Case
		caseID            uuid.UUID
		judgeID, posID    uuid.NullUUID
		status            string
	)
	err := row.Scan(&caseID, &c.ExternalID, &judgeID, &posID, &c.JurisdictionKey,
		&c.Outcome, &c.CaseType, &c.DecidedAt, &status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.ID = id.CaseID(caseID)
	if judgeID.Valid {
		c.JudgeID = id.JudgeID(judgeID.UUID)
	}
	if posID.Valid {
		c.PositionID = id.PositionID(posID.UUID)
	}
	c.Status = models.Status(status)
	return &c, nil
}

func scanCases(rows *sql.Rows) ([]*models.Case, error) {
	var out []*models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func nullUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}

func nullTimeValue(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
