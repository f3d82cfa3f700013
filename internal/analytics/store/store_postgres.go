package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gavel/internal/analytics/confidence"
	"gavel/internal/analytics/models"
	id "gavel/pkg/domain"
	"gavel/pkg/platform/sentinel"
)

// PostgresStore persists snapshots in an append-only table. Buckets are a
// JSONB document: they are read back whole, never queried cell by cell.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const snapshotColumns = `id, judge_id, window_from, window_to, generation,
	version, sample_size, sample_tier, pattern_score, buckets, computed_at`

func (s *PostgresStore) Append(ctx context.Context, p *models.BiasProfile) error {
	buckets, err := json.Marshal(p.Buckets)
	if err != nil {
		return fmt.Errorf("encode buckets: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bias_snapshots (`+snapshotColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(p.ID), uuid.UUID(p.JudgeID),
		nullTime(p.Window.From), nullTime(p.Window.To),
		int64(p.Generation), p.Version, p.SampleSize, string(p.SampleTier),
		p.PatternScore, buckets, p.ComputedAt)
	if err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) Latest(ctx context.Context, judgeID id.JudgeID) (*models.BiasProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+` FROM bias_snapshots
		WHERE judge_id = $1
		ORDER BY version DESC LIMIT 1`, uuid.UUID(judgeID))
	return scanSnapshotRow(row)
}

func (s *PostgresStore) LatestPublishable(ctx context.Context, judgeID id.JudgeID) (*models.BiasProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+` FROM bias_snapshots
		WHERE judge_id = $1 AND sample_tier <> $2
		ORDER BY version DESC LIMIT 1`,
		uuid.UUID(judgeID), string(confidence.TierInsufficient))
	return scanSnapshotRow(row)
}

func (s *PostgresStore) ListByJudge(ctx context.Context, judgeID id.JudgeID) ([]*models.BiasProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+snapshotColumns+` FROM bias_snapshots
		WHERE judge_id = $1
		ORDER BY version DESC`, uuid.UUID(judgeID))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []*models.BiasProfile
	for rows.Next() {
		p, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanSnapshotRow(row *sql.Row) (*models.BiasProfile, error) {
	p, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*models.BiasProfile, error) {
	var (
		p          models.BiasProfile
		snapID     uuid.UUID
		judgeID    uuid.UUID
		from, to   sql.NullTime
		generation int64
		tier       string
		buckets    []byte
	)
	err := row.Scan(&snapID, &judgeID, &from, &to, &generation, &p.Version,
		&p.SampleSize, &tier, &p.PatternScore, &buckets, &p.ComputedAt)
	if err != nil {
		return nil, err
	}
	p.ID = id.SnapshotID(snapID)
	p.JudgeID = id.JudgeID(judgeID)
	if from.Valid {
		p.Window.From = from.Time
	}
	if to.Valid {
		p.Window.To = to.Time
	}
	p.Generation = uint64(generation)
	p.SampleTier = confidence.Tier(tier)
	if err := json.Unmarshal(buckets, &p.Buckets); err != nil {
		return nil, fmt.Errorf("decode buckets: %w", err)
	}
	return &p, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
