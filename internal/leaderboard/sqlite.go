package leaderboard

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists entries in a single-file database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database and runs migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; WAL keeps readers off its back.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	slog.Info("sqlite leaderboard opened", "path", path)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			id                    TEXT PRIMARY KEY,
			player_name           TEXT    NOT NULL,
			retirement_age_months INTEGER NOT NULL,
			passive_income        REAL    NOT NULL,
			created_at            INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_age ON entries(retirement_age_months, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_passive ON entries(passive_income DESC, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Submit(ctx context.Context, sub Submission) (Entry, error) {
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
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (id, player_name, retirement_age_months, passive_income, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.PlayerName, e.RetirementAgeMonths, e.PassiveIncomeAtRetirement, e.CreatedAt.UnixNano())
	if err != nil {
		return Entry{}, unavailable("insert entry", err)
	}
	return e, nil
}

func (s *SQLiteStore) Top(ctx context.Context, limit int) (Board, error) {
	limit = clampLimit(limit)
	youngest, err := s.query(ctx, `
		SELECT id, player_name, retirement_age_months, passive_income, created_at
		FROM entries
		ORDER BY retirement_age_months ASC, created_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return Board{}, err
	}
	richest, err := s.query(ctx, `
		SELECT id, player_name, retirement_age_months, passive_income, created_at
		FROM entries
		ORDER BY passive_income DESC, created_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return Board{}, err
	}
	return Board{Youngest: youngest, Richest: richest}, nil
}

func (s *SQLiteStore) query(ctx context.Context, q string, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, unavailable("query entries", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e  Entry
			ns int64
		)
		if err := rows.Scan(&e.ID, &e.PlayerName, &e.RetirementAgeMonths, &e.PassiveIncomeAtRetirement, &ns); err != nil {
			return nil, unavailable("scan entry", err)
		}
		e.CreatedAt = time.Unix(0, ns).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("read entries", err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
