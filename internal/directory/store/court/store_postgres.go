package court

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"gavel/internal/directory/models"
	id "gavel/pkg/domain"
	"gavel/pkg/platform/sentinel"
)

// PostgresStore persists courts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const courtColumns = `id, name, jurisdiction_key, level, seats, created_at`

func (s *PostgresStore) Create(ctx context.Context, court *models.Court) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO courts (`+courtColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(court.ID), court.Name, court.JurisdictionKey,
		string(court.Level), court.Seats, court.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert court: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, courtID id.CourtID) (*models.Court, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+courtColumns+` FROM courts WHERE id = $1`, uuid.UUID(courtID))
	c, err := scanCourt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get court: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) FindByJurisdiction(ctx context.Context, jurisdictionKey string) ([]*models.Court, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+courtColumns+` FROM courts
		WHERE jurisdiction_key = $1 OR jurisdiction_key LIKE $1 || '/%'`,
		jurisdictionKey)
	if err != nil {
		return nil, fmt.Errorf("find courts by jurisdiction: %w", err)
	}
	defer rows.Close()
	return scanCourts(rows)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Court, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+courtColumns+` FROM courts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list courts: %w", err)
	}
	defer rows.Close()
	return scanCourts(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourt(row rowScanner) (*models.Court, error) {
	var (
		c       models.Court
		courtID uuid.UUID
		level   string
	)
	if err := row.Scan(&courtID, &c.Name, &c.JurisdictionKey, &level, &c.Seats, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.ID = id.CourtID(courtID)
	c.Level = models.CourtLevel(level)
	return &c, nil
}

func scanCourts(rows *sql.Rows) ([]*models.Court, error) {
	var out []*models.Court
	for rows.Next() {
		c, err := scanCourt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
