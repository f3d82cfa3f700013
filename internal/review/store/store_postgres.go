package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gavel/internal/review/models"
	id "gavel/pkg/domain"
	"gavel/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const entryColumns = `id, kind, status, case_id, judge_id, candidates,
	violation_kind, detail, resolution, resolved_at, created_at, updated_at`

func (s *PostgresStore) Add(ctx context.Context, entry *models.Entry) error {
	candidates, err := json.Marshal(entry.Candidates)
	if err != nil {
		return fmt.Errorf("encode candidates: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO review_queue (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(entry.ID), string(entry.Kind), string(entry.Status),
		nullUUID(uuid.UUID(entry.CaseID)), nullUUID(uuid.UUID(entry.JudgeID)),
		candidates, entry.ViolationKind, entry.Detail, entry.Resolution,
		entry.ResolvedAt, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert review entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, reviewID id.ReviewID) (*models.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM review_queue WHERE id = $1`, uuid.UUID(reviewID))
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get review entry: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) ListOpen(ctx context.Context) ([]*models.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM review_queue
		WHERE status = 'open'
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list open review entries: %w", err)
	}
	defer rows.Close()

	var out []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close(ctx context.Context, reviewID id.ReviewID, status models.Status, resolution string) error {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE review_queue
		SET status = $2, resolution = $3, resolved_at = $4, updated_at = $4
		WHERE id = $1 AND status = 'open'`,
		uuid.UUID(reviewID), string(status), resolution, now)
	if err != nil {
		return fmt.Errorf("close review entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.Get(ctx, reviewID); err != nil {
			return err
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var (
		e              models.Entry
		entryID        uuid.UUID
		kind, status   string
		caseID         uuid.NullUUID
		judgeID        uuid.NullUUID
		candidates     []byte
		resolvedAt     sql.NullTime
	)
	err := row.Scan(&entryID, &kind, &status, &caseID, &judgeID, &candidates,
		&e.ViolationKind, &e.Detail, &e.Resolution, &resolvedAt,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.ID = id.ReviewID(entryID)
	e.Kind = models.Kind(kind)
	e.Status = models.Status(status)
	if caseID.Valid {
		e.CaseID = id.CaseID(caseID.UUID)
	}
	if judgeID.Valid {
		e.JudgeID = id.JudgeID(judgeID.UUID)
	}
	if err := json.Unmarshal(candidates, &e.Candidates); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	if resolvedAt.Valid {
		e.ResolvedAt = &resolvedAt.Time
	}
	return &e, nil
}

func nullUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}
