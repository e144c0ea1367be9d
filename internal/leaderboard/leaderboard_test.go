package leaderboard

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"finanzstart/internal/db"
)

type tick struct{ t time.Time }

func (c *tick) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func seedBoard(t *testing.T, s Store) {
	t.Helper()
	subs := []Submission{
		{PlayerName: "Ada", RetirementAgeMonths: 420, PassiveIncomeAtRetirement: 2100},
		{PlayerName: "Bo", RetirementAgeMonths: 300, PassiveIncomeAtRetirement: 900},
		{PlayerName: "Cy", RetirementAgeMonths: 300, PassiveIncomeAtRetirement: 2100},
		{PlayerName: "Di", RetirementAgeMonths: 510, PassiveIncomeAtRetirement: 5000},
	}
	for _, sub := range subs {
		if _, err := s.Submit(context.Background(), sub); err != nil {
			t.Fatalf("submit %s: %v", sub.PlayerName, err)
		}
	}
}

func names(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.PlayerName)
	}
	return out
}

func checkOrder(t *testing.T, s Store) {
	t.Helper()
	board, err := s.Top(context.Background(), 0)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	young := names(board.Youngest)
	rich := names(board.Richest)
	wantYoung := []string{"Bo", "Cy", "Ada", "Di"}
	wantRich := []string{"Di", "Ada", "Cy", "Bo"}
	for i := range wantYoung {
		if young[i] != wantYoung[i] {
			t.Fatalf("youngest=%v want %v", young, wantYoung)
		}
		if rich[i] != wantRich[i] {
			t.Fatalf("richest=%v want %v", rich, wantRich)
		}
	}

	board, err = s.Top(context.Background(), 2)
	if err != nil {
		t.Fatalf("top 2: %v", err)
	}
	if len(board.Youngest) != 2 || len(board.Richest) != 2 {
		t.Fatalf("limit not applied: %d %d", len(board.Youngest), len(board.Richest))
	}
}

func TestMemoryStoreOrdering(t *testing.T) {
	s := NewMemoryStore()
	c := &tick{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s.now = c.now
	seedBoard(t, s)
	checkOrder(t, s)
}

func TestMemoryStoreCapsAtDefaultLimit(t *testing.T) {
	s := NewMemoryStore()
	for i := 0; i < DefaultLimit+5; i++ {
		s.Submit(context.Background(), Submission{PlayerName: "p", RetirementAgeMonths: int64(300 + i), PassiveIncomeAtRetirement: float64(i)})
	}
	board, _ := s.Top(context.Background(), 0)
	if len(board.Youngest) != DefaultLimit || len(board.Richest) != DefaultLimit {
		t.Fatalf("youngest=%d richest=%d", len(board.Youngest), len(board.Richest))
	}
	if board.Youngest[0].RetirementAgeMonths != 300 || board.Richest[0].PassiveIncomeAtRetirement != float64(DefaultLimit+4) {
		t.Fatalf("heads: %+v %+v", board.Youngest[0], board.Richest[0])
	}
}

func TestEmptyBoardHasEmptyLists(t *testing.T) {
	board, err := NewMemoryStore().Top(context.Background(), 5)
	if err != nil || board.Youngest == nil || board.Richest == nil {
		t.Fatalf("board=%+v err=%v", board, err)
	}
}

func TestSubmissionValidate(t *testing.T) {
	bad := []Submission{
		{PlayerName: "   ", RetirementAgeMonths: 300},
		{PlayerName: "x\ty", RetirementAgeMonths: 300},
		{PlayerName: "Ada", RetirementAgeMonths: -1},
		{PlayerName: "Ada", RetirementAgeMonths: 300, PassiveIncomeAtRetirement: -1},
		{PlayerName: "Ada", RetirementAgeMonths: 300, PassiveIncomeAtRetirement: math.NaN()},
		{PlayerName: "Ada", RetirementAgeMonths: 300, PassiveIncomeAtRetirement: math.Inf(1)},
		{PlayerName: "this name is definitely longer than forty runes", RetirementAgeMonths: 300},
	}
	for _, sub := range bad {
		if err := sub.Validate(); !errors.Is(err, ErrInvalidSubmission) {
			t.Fatalf("%+v: err=%v", sub, err)
		}
	}
	ok := Submission{PlayerName: "  Ada  ", RetirementAgeMonths: 300}
	if err := ok.Validate(); err != nil || ok.PlayerName != "Ada" {
		t.Fatalf("sub=%+v err=%v", ok, err)
	}

	if _, err := NewMemoryStore().Submit(context.Background(), bad[0]); !errors.Is(err, ErrInvalidSubmission) {
		t.Fatalf("store accepted invalid submission: %v", err)
	}
}

func TestValidateJSON(t *testing.T) {
	sub, err := ValidateJSON([]byte(`{"playerName":"Ada","retirementAgeMonths":300,"passiveIncomeAtRetirement":950.5}`))
	if err != nil {
		t.Fatalf("valid body rejected: %v", err)
	}
	if sub.PlayerName != "Ada" || sub.RetirementAgeMonths != 300 || sub.PassiveIncomeAtRetirement != 950.5 {
		t.Fatalf("sub=%+v", sub)
	}

	bad := []string{
		`not json`,
		`{}`,
		`{"playerName":"","retirementAgeMonths":300,"passiveIncomeAtRetirement":1}`,
		`{"playerName":"Ada","retirementAgeMonths":"300","passiveIncomeAtRetirement":1}`,
		`{"playerName":"Ada","retirementAgeMonths":300,"passiveIncomeAtRetirement":"lots"}`,
		`{"playerName":"Ada","retirementAgeMonths":-4,"passiveIncomeAtRetirement":1}`,
		`{"playerName":42,"retirementAgeMonths":300,"passiveIncomeAtRetirement":1}`,
	}
	for _, body := range bad {
		if _, err := ValidateJSON([]byte(body)); !errors.Is(err, ErrInvalidSubmission) {
			t.Fatalf("%s: err=%v", body, err)
		}
	}

	sub, err = ValidateJSON([]byte(`{"playerName":"Bo","retirementAgeMonths":300.5,"passiveIncomeAtRetirement":1,"client":"web"}`))
	if err != nil {
		t.Fatalf("fractional age or extra field rejected: %v", err)
	}
	if sub.RetirementAgeMonths != 301 {
		t.Fatalf("age=%d want 301", sub.RetirementAgeMonths)
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	c := &tick{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s.now = c.now
	seedBoard(t, s)
	checkOrder(t, s)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Entries survive a reopen and keep their timestamps.
	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	checkOrder(t, s)
	board, _ := s.Top(context.Background(), 1)
	want := time.Date(2026, 1, 1, 0, 0, 2, 0, time.UTC)
	if !board.Youngest[0].CreatedAt.Equal(want) {
		t.Fatalf("created_at=%v want %v", board.Youngest[0].CreatedAt, want)
	}
}

func TestSQLiteStoreFailureIsUnavailable(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "board.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.Close()
	if _, err := s.Submit(context.Background(), Submission{PlayerName: "Ada", RetirementAgeMonths: 1}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err=%v want ErrUnavailable", err)
	}
	if _, err := s.Top(context.Background(), 5); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err=%v want ErrUnavailable", err)
	}
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("FINANZSTART_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FINANZSTART_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	s := NewPostgresStore(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE leaderboard.entries`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	c := &tick{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s.now = c.now
	seedBoard(t, s)
	checkOrder(t, s)
}
