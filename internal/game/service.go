package game

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	mathrand "math/rand"
	"sync"
	"time"
)

// JournalFactory opens the journal for a new session.
type JournalFactory func(sessionID string) (Journal, error)

// Service hosts the live sessions of a server process.
type Service struct {
	log      *slog.Logger
	catalog  Catalog
	journals JournalFactory

	mu       sync.Mutex
	sessions map[string]*sessionEntry
	rand     *mathrand.Rand
	now      func() time.Time
}

type sessionEntry struct {
	session  *Session
	journal  Journal
	lastUsed time.Time
}

func NewService(catalog Catalog, journals JournalFactory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		log:      logger,
		catalog:  catalog,
		journals: journals,
		sessions: make(map[string]*sessionEntry),
		rand:     mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

func (s *Service) Catalog() Catalog {
	return s.catalog
}

// CreateSession starts a fresh run. A nil seed draws one.
func (s *Service) CreateSession(seed *int64) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sd int64
	if seed != nil {
		sd = *seed
	} else {
		sd = s.rand.Int63()
	}
	sess := NewSession(WithSeed(sd), WithLogger(s.log))

	var j Journal
	if s.journals != nil {
		var err error
		j, err = s.journals(sess.ID())
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		WithJournal(j)(sess)
	}
	s.sessions[sess.ID()] = &sessionEntry{session: sess, journal: j, lastUsed: s.now()}
	s.log.Info("session created", "session_id", sess.ID(), "seed", sd)
	return sess, nil
}

func (s *Service) Session(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastUsed = s.now()
	return e.session, nil
}

func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// EvictIdle ends every session not looked up within maxIdle and returns how
// many were dropped.
func (s *Service) EvictIdle(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	var stale []*sessionEntry
	for id, e := range s.sessions {
		if e.lastUsed.Before(cutoff) {
			stale = append(stale, e)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, e := range stale {
		if err := closeJournal(e.journal); err != nil {
			s.log.Warn("close journal failed", "session_id", e.session.ID(), "err", err)
		}
	}
	if len(stale) > 0 {
		s.log.Info("idle sessions evicted", "count", len(stale))
	}
	return len(stale)
}

// EndSession drops a session and closes its journal.
func (s *Service) EndSession(id string) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	return closeJournal(e.journal)
}

func (s *Service) Close() error {
	s.mu.Lock()
	entries := s.sessions
	s.sessions = make(map[string]*sessionEntry)
	s.mu.Unlock()

	var errs []error
	for _, e := range entries {
		if err := closeJournal(e.journal); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func closeJournal(j Journal) error {
	if c, ok := j.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
