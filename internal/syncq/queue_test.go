package syncq

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"finanzstart/internal/leaderboard"
)

func sub(name string) leaderboard.Submission {
	return leaderboard.Submission{PlayerName: name, RetirementAgeMonths: 400, PassiveIncomeAtRetirement: 1500}
}

func TestLoadMissingQueueIsEmpty(t *testing.T) {
	got, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("got=%v want empty slice", got)
	}
}

func TestPushAppendsInOrder(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, name := range []string{"Ada", "Bo"} {
		if err := Push(dir, sub(name), now); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	got, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].Submission.PlayerName != "Ada" || got[1].Submission.PlayerName != "Bo" {
		t.Fatalf("queue=%+v", got)
	}
	if !got[0].QueuedAt.Equal(now) {
		t.Fatalf("queued_at=%v", got[0].QueuedAt)
	}
	info, err := os.Stat(filepath.Join(dir, "queue.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode=%v", info.Mode().Perm())
	}
}

func TestFlushKeepsRetryableAndDropsRejected(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Ada", "Bo", "Cy"} {
		if err := Push(dir, sub(name), time.Now()); err != nil {
			t.Fatalf("push: %v", err)
		}
	}

	sent, remaining, err := Flush(context.Background(), dir, func(_ context.Context, s leaderboard.Submission) (bool, error) {
		switch s.PlayerName {
		case "Ada":
			return false, nil
		case "Bo":
			return true, errors.New("connection refused")
		default:
			return false, errors.New("api status 400")
		}
	})
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent=%d want 1", sent)
	}
	if len(remaining) != 1 || remaining[0].Submission.PlayerName != "Bo" || remaining[0].Attempts != 1 {
		t.Fatalf("remaining=%+v", remaining)
	}

	onDisk, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(onDisk) != 1 || onDisk[0].Attempts != 1 {
		t.Fatalf("on disk=%+v", onDisk)
	}
}

func TestFlushStopsOnCancelledContext(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Ada", "Bo"} {
		if err := Push(dir, sub(name), time.Now()); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	sent, remaining, err := Flush(ctx, dir, func(context.Context, leaderboard.Submission) (bool, error) {
		calls++
		return false, nil
	})
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if calls != 0 || sent != 0 || len(remaining) != 2 {
		t.Fatalf("calls=%d sent=%d remaining=%d", calls, sent, len(remaining))
	}
}

func TestFlushEmptyQueueSkipsSend(t *testing.T) {
	sent, remaining, err := Flush(context.Background(), t.TempDir(), func(context.Context, leaderboard.Submission) (bool, error) {
		t.Fatalf("send called on empty queue")
		return false, nil
	})
	if err != nil || sent != 0 || len(remaining) != 0 {
		t.Fatalf("sent=%d remaining=%v err=%v", sent, remaining, err)
	}
}
