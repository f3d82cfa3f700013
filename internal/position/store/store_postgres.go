package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gavel/internal/position/models"
	id "gavel/pkg/domain"
	"gavel/pkg/platform/sentinel"
)

// PostgresStore persists position aggregates. The generation lives in a
// per-judge row locked FOR UPDATE during commit, giving the same
// compare-and-swap semantics as the in-memory store.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const positionColumns = `id, judge_id, court_id, start_date, end_date,
	end_inferred, status, created_at, updated_at`

func (s *PostgresStore) LoadAggregate(ctx context.Context, judgeID id.JudgeID) (*models.Aggregate, error) {
	agg := &models.Aggregate{JudgeID: judgeID}

	row := s.db.QueryRowContext(ctx, `
		SELECT generation, last_activity FROM judge_generations WHERE judge_id = $1`,
		uuid.UUID(judgeID))
	var lastActivity sql.NullTime
	err := row.Scan(&agg.Generation, &lastActivity)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load generation: %w", err)
	}
	if lastActivity.Valid {
		agg.LastActivity = lastActivity.Time
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+positionColumns+` FROM positions
		WHERE judge_id = $1 ORDER BY start_date`, uuid.UUID(judgeID))
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}
	defer rows.Close()

	agg.Positions, err = scanPositions(rows)
	if err != nil {
		return nil, err
	}
	return agg, nil
}

func (s *PostgresStore) CommitAggregate(ctx context.Context, agg *models.Aggregate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	// Ensure the generation row exists, then lock it for the CAS check.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO judge_generations (judge_id, generation)
		VALUES ($1, 0) ON CONFLICT (judge_id) DO NOTHING`,
		uuid.UUID(agg.JudgeID)); err != nil {
		return fmt.Errorf("ensure generation row: %w", err)
	}

	var current uint64
	if err := tx.QueryRowContext(ctx, `
		SELECT generation FROM judge_generations WHERE judge_id = $1 FOR UPDATE`,
		uuid.UUID(agg.JudgeID)).Scan(&current); err != nil {
		return fmt.Errorf("lock generation: %w", err)
	}
	if current != agg.Generation {
		return sentinel.ErrConflict
	}

	for _, p := range agg.Positions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO positions (`+positionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				end_date = EXCLUDED.end_date,
				end_inferred = EXCLUDED.end_inferred,
				status = EXCLUDED.status,
				updated_at = EXCLUDED.updated_at`,
			uuid.UUID(p.ID), uuid.UUID(p.JudgeID), uuid.UUID(p.CourtID),
			p.Start, nullTime(p.End), p.EndInferred, string(p.Status),
			p.CreatedAt, p.UpdatedAt,
		); err != nil {
			return fmt.Errorf("upsert position: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE judge_generations SET generation = generation + 1 WHERE judge_id = $1`,
		uuid.UUID(agg.JudgeID)); err != nil {
		return fmt.Errorf("advance generation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) Generation(ctx context.Context, judgeID id.JudgeID) (uint64, error) {
	var gen uint64
	err := s.db.QueryRowContext(ctx, `
		SELECT generation FROM judge_generations WHERE judge_id = $1`,
		uuid.UUID(judgeID)).Scan(&gen)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get generation: %w", err)
	}
	return gen, nil
}

func (s *PostgresStore) RecordActivity(ctx context.Context, judgeID id.JudgeID, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO judge_generations (judge_id, generation, last_activity)
		VALUES ($1, 0, $2)
		ON CONFLICT (judge_id) DO UPDATE SET
			last_activity = GREATEST(judge_generations.last_activity, EXCLUDED.last_activity)`,
		uuid.UUID(judgeID), t)
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]*models.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+positionColumns+` FROM positions WHERE status = 'active'`)
	if err != nil {
		return nil, fmt.Errorf("list active positions: %w", err)
	}
	defer rows.Close()
	return scanPositions(rows)
}

func (s *PostgresStore) ActiveByCourt(ctx context.Context, courtID id.CourtID) ([]*models.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+positionColumns+` FROM positions
		WHERE status = 'active' AND court_id = $1`, uuid.UUID(courtID))
	if err != nil {
		return nil, fmt.Errorf("active positions by court: %w", err)
	}
	defer rows.Close()
	return scanPositions(rows)
}

func scanPositions(rows *sql.Rows) ([]*models.Position, error) {
	var out []*models.Position
	for rows.Next() {
		var (
			p                           models.Position
			posID, judgeID, courtID     uuid.UUID
			endDate                     sql.NullTime
			status                      string
		)
		if err := rows.Scan(&posID, &judgeID, &courtID, &p.Start, &endDate,
			&p.EndInferred, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		p.ID = id.PositionID(posID)
		p.JudgeID = id.JudgeID(judgeID)
		p.CourtID = id.CourtID(courtID)
		if endDate.Valid {
			end := endDate.Time
			p.End = &end
		}
		p.Status = models.Status(status)
		out = append(out, &p)
	}
	return out, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
