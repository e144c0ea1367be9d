package syncq

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"finanzstart/internal/leaderboard"
)

// Pending is a leaderboard submission that could not reach the API.
type Pending struct {
	Submission leaderboard.Submission `json:"submission"`
	QueuedAt   time.Time              `json:"queued_at"`
	Attempts   int                    `json:"attempts"`
}

func queuePath(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "queue.json"), nil
}

func Load(dir string) ([]Pending, error) {
	path, err := queuePath(dir)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Pending{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []Pending{}, nil
	}
	var out []Pending
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func Save(dir string, pending []Pending) error {
	path, err := queuePath(dir)
	if err != nil {
		return err
	}
	if pending == nil {
		pending = []Pending{}
	}
	raw, err := json.MarshalIndent(pending, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func Push(dir string, sub leaderboard.Submission, now time.Time) error {
	pending, err := Load(dir)
	if err != nil {
		return err
	}
	pending = append(pending, Pending{Submission: sub, QueuedAt: now.UTC()})
	return Save(dir, pending)
}

// Flush sends every queued submission in order. Entries send rejects with
// retry=false are dropped; the rest stay queued with their attempt count
// bumped. The queue file is rewritten once at the end.
func Flush(ctx context.Context, dir string, send func(context.Context, leaderboard.Submission) (retry bool, err error)) (sent int, remaining []Pending, err error) {
	pending, err := Load(dir)
	if err != nil {
		return 0, nil, err
	}
	if len(pending) == 0 {
		return 0, pending, nil
	}
	remaining = make([]Pending, 0, len(pending))
	for i, p := range pending {
		if ctx.Err() != nil {
			remaining = append(remaining, pending[i:]...)
			break
		}
		retry, sendErr := send(ctx, p.Submission)
		if sendErr == nil {
			sent++
			continue
		}
		if retry {
			p.Attempts++
			remaining = append(remaining, p)
		}
	}
	if err := Save(dir, remaining); err != nil {
		return sent, remaining, err
	}
	return sent, remaining, nil
}
