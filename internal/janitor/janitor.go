// Package janitor runs the API's housekeeping on a cron schedule: dropping
// idle sessions and pruning old journal files.
package janitor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Evictor is the part of game.Service the janitor needs.
type Evictor interface {
	EvictIdle(maxIdle time.Duration) int
}

type Config struct {
	Schedule         string
	SessionIdleTTL   time.Duration
	JournalDir       string
	JournalRetention time.Duration
}

type Janitor struct {
	cfg      Config
	sessions Evictor
	log      *slog.Logger
	cron     *cron.Cron
	now      func() time.Time
}

func New(cfg Config, sessions Evictor, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		cfg:      cfg,
		sessions: sessions,
		log:      logger,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start registers the sweep and starts the scheduler.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc(j.cfg.Schedule, func() { j.RunOnce() }); err != nil {
		return fmt.Errorf("register sweep %q: %w", j.cfg.Schedule, err)
	}
	j.cron.Start()
	j.log.Info("janitor started", "schedule", j.cfg.Schedule, "session_idle_ttl", j.cfg.SessionIdleTTL.String())
	return nil
}

// Stop waits for a running sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
	j.log.Info("janitor stopped")
}

type Sweep struct {
	Sessions int
	Journals int
}

func (j *Janitor) RunOnce() Sweep {
	var out Sweep
	if j.sessions != nil && j.cfg.SessionIdleTTL > 0 {
		out.Sessions = j.sessions.EvictIdle(j.cfg.SessionIdleTTL)
	}
	if j.cfg.JournalDir != "" && j.cfg.JournalRetention > 0 {
		n, err := j.pruneJournals()
		if err != nil {
			j.log.Warn("journal prune failed", "dir", j.cfg.JournalDir, "err", err)
		}
		out.Journals = n
	}
	j.log.Debug("sweep complete", "sessions", out.Sessions, "journals", out.Journals)
	return out
}

func (j *Janitor) pruneJournals() (int, error) {
	entries, err := os.ReadDir(j.cfg.JournalDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := j.now().Add(-j.cfg.JournalRetention)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl.zst") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(j.cfg.JournalDir, e.Name())); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}
