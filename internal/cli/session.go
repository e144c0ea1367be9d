package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"finanzstart/internal/game"
)

// ErrNoGame is returned when no saved game exists under the home dir.
var ErrNoGame = errors.New("no saved game, run `fs new` first")

// Home is the per-user directory holding the saved game, its journals and
// the offline submission queue.
type Home string

func (h Home) ensure() (string, error) {
	dir := string(h)
	if dir == "" {
		return "", fmt.Errorf("home dir is not set")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func (h Home) snapshotPath() (string, error) {
	dir, err := h.ensure()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

func (h Home) JournalDir() string {
	return filepath.Join(string(h), "journal")
}

func (h Home) QueueDir() string {
	return string(h)
}

func (h Home) SaveSnapshot(snap game.Snapshot) error {
	path, err := h.snapshotPath()
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (h Home) LoadSnapshot() (game.Snapshot, error) {
	path, err := h.snapshotPath()
	if err != nil {
		return game.Snapshot{}, err
	}
	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return game.Snapshot{}, ErrNoGame
		}
		return game.Snapshot{}, err
	}
	var snap game.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return game.Snapshot{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if snap.State == nil {
		return game.Snapshot{}, ErrNoGame
	}
	return snap, nil
}

func (h Home) ClearSnapshot() error {
	path, err := h.snapshotPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return os.Remove(path)
}
