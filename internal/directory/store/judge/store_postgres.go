package judge

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gavel/internal/directory/models"
	id "gavel/pkg/domain"
	"gavel/pkg/platform/sentinel"
)

// PostgresStore persists judges in PostgreSQL. Name variants ride along as
// JSONB; the exact and fuzzy keys are materialized into a side table so both
// lookups stay index-backed.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const judgeColumns = `id, canonical_name, name_key, fuzzy_key, variants,
	external_id, appointed_at, birth_year, retired, retirement_inferred_at,
	multi_court, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, judge *models.Judge) error {
	variants, err := json.Marshal(judge.Variants)
	if err != nil {
		return fmt.Errorf("marshal variants: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO judges (`+judgeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		uuid.UUID(judge.ID), judge.CanonicalName, judge.NameKey, judge.FuzzyKey,
		variants, nullString(judge.ExternalID), nullTime(judge.AppointedAt),
		nullInt(judge.BirthYear), judge.Retired, nullTime(judge.RetirementInferredAt),
		judge.MultiCourt, judge.CreatedAt, judge.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert judge: %w", err)
	}
	if err := replaceNameKeys(ctx, tx, judge); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, judge *models.Judge) error {
	variants, err := json.Marshal(judge.Variants)
	if err != nil {
		return fmt.Errorf("marshal variants: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE judges SET canonical_name = $2, name_key = $3, fuzzy_key = $4,
			variants = $5, external_id = $6, appointed_at = $7, birth_year = $8,
			retired = $9, retirement_inferred_at = $10, multi_court = $11,
			updated_at = $12
		WHERE id = $1`,
		uuid.UUID(judge.ID), judge.CanonicalName, judge.NameKey, judge.FuzzyKey,
		variants, nullString(judge.ExternalID), nullTime(judge.AppointedAt),
		nullInt(judge.BirthYear), judge.Retired, nullTime(judge.RetirementInferredAt),
		judge.MultiCourt, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("update judge: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	if err := replaceNameKeys(ctx, tx, judge); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, judgeID id.JudgeID) (*models.Judge, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+judgeColumns+` FROM judges WHERE id = $1`, uuid.UUID(judgeID))
	j, err := scanJudge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get judge: %w", err)
	}
	return j, nil
}

func (s *PostgresStore) FindByNameKey(ctx context.Context, nameKey string) ([]*models.Judge, error) {
	return s.findByKey(ctx, "name_key", nameKey)
}

func (s *PostgresStore) FindByFuzzyKey(ctx context.Context, fuzzyKey string) ([]*models.Judge, error) {
	return s.findByKey(ctx, "fuzzy_key", fuzzyKey)
}

func (s *PostgresStore) findByKey(ctx context.Context, column, key string) ([]*models.Judge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT `+prefixColumns("j")+`
		FROM judges j
		JOIN judge_name_keys k ON k.judge_id = j.id
		WHERE k.`+column+` = $1`, key)
	if err != nil {
		return nil, fmt.Errorf("find judges by %s: %w", column, err)
	}
	defer rows.Close()
	return scanJudges(rows)
}

func (s *PostgresStore) FindByExternalID(ctx context.Context, externalID string) (*models.Judge, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+judgeColumns+` FROM judges WHERE external_id = $1`, externalID)
	j, err := scanJudge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find judge by external id: %w", err)
	}
	return j, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Judge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+judgeColumns+` FROM judges ORDER BY canonical_name`)
	if err != nil {
		return nil, fmt.Errorf("list judges: %w", err)
	}
	defer rows.Close()
	return scanJudges(rows)
}

// replaceNameKeys rebuilds the lookup side table from the judge's canonical
// and variant keys.
func replaceNameKeys(ctx context.Context, tx *sql.Tx, judge *models.Judge) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM judge_name_keys WHERE judge_id = $1`, uuid.UUID(judge.ID)); err != nil {
		return fmt.Errorf("clear name keys: %w", err)
	}
	insert := func(nameKey, fuzzyKey string) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO judge_name_keys (judge_id, name_key, fuzzy_key)
			VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			uuid.UUID(judge.ID), nameKey, fuzzyKey)
		return err
	}
	if err := insert(judge.NameKey, judge.FuzzyKey); err != nil {
		return fmt.Errorf("insert name key: %w", err)
	}
	for _, v := range judge.Variants {
		if err := insert(v.NameKey, v.FuzzyKey); err != nil {
			return fmt.Errorf("insert variant key: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJudge(row rowScanner) (*models.Judge, error) {
	var (
		j          models.Judge
		judgeID    uuid.UUID
		variants   []byte
		externalID sql.NullString
		appointed  sql.NullTime
		birthYear  sql.NullInt64
		inferredAt sql.NullTime
	)
	err := row.Scan(&judgeID, &j.CanonicalName, &j.NameKey, &j.FuzzyKey,
		&variants, &externalID, &appointed, &birthYear, &j.Retired,
		&inferredAt, &j.MultiCourt, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.ID = id.JudgeID(judgeID)
	if len(variants) > 0 {
		if err := json.Unmarshal(variants, &j.Variants); err != nil {
			return nil, fmt.Errorf("unmarshal variants: %w", err)
		}
	}
	j.ExternalID = externalID.String
	if appointed.Valid {
		j.AppointedAt = &appointed.Time
	}
	j.BirthYear = int(birthYear.Int64)
	if inferredAt.Valid {
		j.RetirementInferredAt = &inferredAt.Time
	}
	return &j, nil
}

func scanJudges(rows *sql.Rows) ([]*models.Judge, error) {
	var out []*models.Judge
	for rows.Next() {
		j, err := scanJudge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func prefixColumns(alias string) string {
	return alias + `.id, ` + alias + `.canonical_name, ` + alias + `.name_key, ` +
		alias + `.fuzzy_key, ` + alias + `.variants, ` + alias + `.external_id, ` +
		alias + `.appointed_at, ` + alias + `.birth_year, ` + alias + `.retired, ` +
		alias + `.retirement_inferred_at, ` + alias + `.multi_court, ` +
		alias + `.created_at, ` + alias + `.updated_at`
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}
