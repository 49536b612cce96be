package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"levelup-gatekeeper/internal/domain"
)

// Store is an in-memory attempt ledger and passed-quiz set.
type Store struct {
	mu       sync.RWMutex
	attempts []domain.AttemptRecord
	passed   map[memberKey]map[string]struct{}
}

type memberKey struct {
	guildID string
	userID  string
}

func NewStore() *Store {
	return &Store{passed: make(map[memberKey]map[string]struct{})}
}

func (s *Store) RecordAttempt(_ context.Context, rec domain.AttemptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, rec)
	return nil
}

func (s *Store) LastAttempt(_ context.Context, guildID, userID, quizName string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		last  time.Time
		found bool
	)
	for _, rec := range s.attempts {
		if rec.GuildID != guildID || rec.UserID != userID || rec.QuizName != quizName {
			continue
		}
		if !found || rec.CreatedAt.After(last) {
			last, found = rec.CreatedAt, true
		}
	}
	return last, found, nil
}

// Attempts returns a copy of every recorded attempt.
func (s *Store) Attempts() []domain.AttemptRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AttemptRecord(nil), s.attempts...)
}

func (s *Store) AddPassed(_ context.Context, guildID, userID, quizName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey{guildID: guildID, userID: userID}
	quizzes, ok := s.passed[key]
	if !ok {
		quizzes = make(map[string]struct{})
		s.passed[key] = quizzes
	}
	if _, exists := quizzes[quizName]; exists {
		return false, nil
	}
	quizzes[quizName] = struct{}{}
	return true, nil
}

func (s *Store) Passed(_ context.Context, guildID, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quizzes := s.passed[memberKey{guildID: guildID, userID: userID}]
	names := make([]string, 0, len(quizzes))
	for name := range quizzes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
