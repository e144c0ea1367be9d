package janitor

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type countingEvictor struct {
	calls int
	ttl   time.Duration
}

func (c *countingEvictor) EvictIdle(maxIdle time.Duration) int {
	c.calls++
	c.ttl = maxIdle
	return 2
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRunOnce(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	write := func(name string, age time.Duration) {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := os.Chtimes(p, now.Add(-age), now.Add(-age)); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}
	write("old.jsonl.zst", 40*24*time.Hour)
	write("new.jsonl.zst", time.Hour)
	write("notes.txt", 90*24*time.Hour)

	ev := &countingEvictor{}
	j := New(Config{
		Schedule:         "@every 1m",
		SessionIdleTTL:   time.Hour,
		JournalDir:       dir,
		JournalRetention: 30 * 24 * time.Hour,
	}, ev, quiet())
	j.now = func() time.Time { return now }

	got := j.RunOnce()
	if got.Sessions != 2 || got.Journals != 1 || ev.ttl != time.Hour {
		t.Fatalf("sweep=%+v ttl=%v", got, ev.ttl)
	}
	if _, err := os.Stat(filepath.Join(dir, "old.jsonl.zst")); !os.IsNotExist(err) {
		t.Fatalf("old journal kept: %v", err)
	}
	for _, name := range []string{"new.jsonl.zst", "notes.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("%s removed: %v", name, err)
		}
	}
}

func TestRunOnceMissingDir(t *testing.T) {
	j := New(Config{JournalDir: filepath.Join(t.TempDir(), "nope"), JournalRetention: time.Hour}, nil, quiet())
	if got := j.RunOnce(); got != (Sweep{}) {
		t.Fatalf("sweep=%+v", got)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	j := New(Config{Schedule: "whenever"}, &countingEvictor{}, quiet())
	if err := j.Start(); err == nil {
		t.Fatalf("expected schedule error")
	}
}

func TestStartStop(t *testing.T) {
	j := New(Config{Schedule: "@every 1h", SessionIdleTTL: time.Hour}, &countingEvictor{}, quiet())
	if err := j.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	j.Stop()
}
