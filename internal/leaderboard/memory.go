package leaderboard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps entries for the life of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Submit(ctx context.Context, sub Submission) (Entry, error) {
	if err := sub.Validate(); err != nil {
		return Entry{}, err
	}
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	e := Entry{
		ID:                        uuid.NewString(),
		PlayerName:                sub.PlayerName,
		RetirementAgeMonths:       sub.RetirementAgeMonths,
		PassiveIncomeAtRetirement: sub.PassiveIncomeAtRetirement,
	}
	m.mu.Lock()
	e.CreatedAt = m.now().UTC()
	m.entries = append(m.entries, e)
	m.mu.Unlock()
	return e, nil
}

func (m *MemoryStore) Top(ctx context.Context, limit int) (Board, error) {
	if err := ctx.Err(); err != nil {
		return Board{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return rank(m.entries, limit), nil
}

func (m *MemoryStore) Close() error { return nil }
