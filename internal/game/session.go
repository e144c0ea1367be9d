package game

import (
	"log/slog"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JournalEntry is one line of a session's append-only action log.
type JournalEntry struct {
	SessionID string    `json:"session_id"`
	Seq       int64     `json:"seq"`
	At        time.Time `json:"at"`
	Action    Action    `json:"action"`
	Applied   bool      `json:"applied"`
	Error     string    `json:"error,omitempty"`
	AgeMonths int       `json:"age_months"`
	Cash      float64   `json:"cash"`
}

type Journal interface {
	Append(e JournalEntry) error
}

type nopJournal struct{}

func (nopJournal) Append(JournalEntry) error { return nil }

// Snapshot is everything needed to resume a session in another process.
type Snapshot struct {
	ID    string `json:"id"`
	Seed  int64  `json:"seed"`
	Seq   int64  `json:"seq"`
	State *State `json:"state"`
}

// Session owns one player state. Calls are serialized so a server can host
// many sessions while each one advances one command at a time.
type Session struct {
	id      string
	seed    int64
	seq     int64
	state   *State
	log     *slog.Logger
	journal Journal
	now     func() time.Time

	mu   sync.Mutex
	rand *mathrand.Rand
}

type SessionOption func(*Session)

func WithSeed(seed int64) SessionOption {
	return func(s *Session) { s.seed = seed }
}

func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.log = logger
		}
	}
}

func WithJournal(j Journal) SessionOption {
	return func(s *Session) {
		if j != nil {
			s.journal = j
		}
	}
}

func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// FromSnapshot resumes a saved session. The random source restarts from
// seed+seq so replays stay deterministic.
func FromSnapshot(snap Snapshot) SessionOption {
	return func(s *Session) {
		if snap.ID != "" {
			s.id = snap.ID
		}
		s.seed = snap.Seed
		s.seq = snap.Seq
		if snap.State != nil {
			s.state = snap.State.Clone()
		}
	}
}

func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		id:      uuid.NewString(),
		seed:    time.Now().UnixNano(),
		state:   NewState(),
		log:     slog.Default(),
		journal: nopJournal{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rand = mathrand.New(mathrand.NewSource(s.seed + s.seq))
	s.log = s.log.With("session_id", s.id)
	return s
}

func (s *Session) ID() string { return s.id }

// State returns a copy of the current state.
func (s *Session) State() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{ID: s.id, Seed: s.seed, Seq: s.seq, State: s.state.Clone()}
}

// Apply runs one player command and journals it.
func (s *Session) Apply(a Action) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		res Result
		err error
	)
	wasFI := s.state.AchievedFI
	if ActionKind(strings.ToLower(strings.TrimSpace(string(a.Kind)))) == ActReset {
		s.state.Reset()
		res.Applied = true
	} else {
		res, err = s.state.apply(a, s.rand)
	}
	s.seq++

	entry := JournalEntry{
		SessionID: s.id,
		Seq:       s.seq,
		At:        s.now().UTC(),
		Action:    a,
		Applied:   res.Applied,
		AgeMonths: s.state.AgeMonths,
		Cash:      s.state.Cash,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if jerr := s.journal.Append(entry); jerr != nil {
		s.log.Warn("journal append failed", "seq", s.seq, "err", jerr)
	}

	switch {
	case err != nil:
		s.log.Debug("action rejected", "action", a.Kind, "err", err)
	case !res.Applied:
		s.log.Debug("action not applied", "action", a.Kind, "age_months", s.state.AgeMonths)
	default:
		s.log.Debug("action applied", "action", a.Kind, "age_months", s.state.AgeMonths, "cash", s.state.Cash)
	}
	if !wasFI && s.state.AchievedFI {
		s.log.Info("financial independence reached", "age_months", s.state.AgeMonths)
	}
	return res, err
}

func (s *Session) LeaderboardEntry(playerName string) (LeaderboardSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.LeaderboardEntry(playerName)
}

// SubmitLeaderboard builds the run's entry and hands it to store while the
// session is locked. The submitted flag is set only when store succeeds.
func (s *Session) SubmitLeaderboard(playerName string, store func(LeaderboardSubmission) error) (LeaderboardSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, err := s.state.LeaderboardEntry(playerName)
	if err != nil {
		return sub, err
	}
	if err := store(sub); err != nil {
		return sub, err
	}
	s.state.MarkLeaderboardSubmitted()
	s.log.Info("leaderboard submission stored", "age_months", sub.RetirementAgeMonths, "passive_income", sub.PassiveIncomeAtRetirement)
	return sub, nil
}

func (s *Session) MarkLeaderboardSubmitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.MarkLeaderboardSubmitted()
}
