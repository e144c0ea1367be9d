package leaderboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps entries in leaderboard.entries. The pool is owned by
// the caller; Close does not close it.
type PostgresStore struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool, now: time.Now}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE SCHEMA IF NOT EXISTS leaderboard;
		CREATE TABLE IF NOT EXISTS leaderboard.entries (
			id                    uuid PRIMARY KEY,
			player_name           text             NOT NULL,
			retirement_age_months bigint           NOT NULL CHECK (retirement_age_months >= 0),
			passive_income        double precision NOT NULL CHECK (passive_income >= 0),
			created_at            timestamptz      NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS entries_age_idx ON leaderboard.entries (retirement_age_months, created_at);
		CREATE INDEX IF NOT EXISTS entries_passive_idx ON leaderboard.entries (passive_income DESC, created_at);
	`)
	if err != nil {
		return unavailable("ensure schema", err)
	}
	return nil
}

func (s *PostgresStore) Submit(ctx context.Context, sub Submission) (Entry, error) {
	if err := sub.Validate(); err != nil {
		return Entry{}, err
	}
	e := Entry{
		ID:                        uuid.NewString(),
		PlayerName:                sub.PlayerName,
		RetirementAgeMonths:       sub.RetirementAgeMonths,
		PassiveIncomeAtRetirement: sub.PassiveIncomeAtRetirement,
		CreatedAt:                 s.now().UTC(),
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO leaderboard.entries (id, player_name, retirement_age_months, passive_income, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.PlayerName, e.RetirementAgeMonths, e.PassiveIncomeAtRetirement, e.CreatedAt)
	if err != nil {
		return Entry{}, unavailable("insert entry", err)
	}
	return e, nil
}

func (s *PostgresStore) Top(ctx context.Context, limit int) (Board, error) {
	limit = clampLimit(limit)
	youngest, err := s.query(ctx, `
		SELECT id::text, player_name, retirement_age_months, passive_income, created_at
		FROM leaderboard.entries
		ORDER BY retirement_age_months ASC, created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return Board{}, err
	}
	richest, err := s.query(ctx, `
		SELECT id::text, player_name, retirement_age_months, passive_income, created_at
		FROM leaderboard.entries
		ORDER BY passive_income DESC, created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return Board{}, err
	}
	return Board{Youngest: youngest, Richest: richest}, nil
}

func (s *PostgresStore) query(ctx context.Context, q string, limit int) ([]Entry, error) {
	rows, err := s.db.Query(ctx, q, limit)
	if err != nil {
		return nil, unavailable("query entries", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.PlayerName, &e.RetirementAgeMonths, &e.PassiveIncomeAtRetirement, &e.CreatedAt); err != nil {
			return nil, unavailable("scan entry", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("read entries", err)
	}
	return out, nil
}

func (s *PostgresStore) Close() error { return nil }
