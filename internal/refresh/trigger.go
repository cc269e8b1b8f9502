package refresh

import (
	"sync"
	"time"
)

// triggerStore holds the single "schema needs refresh" entry.
//
// Every mark pushes the deadline to now+window, but never past
// first+maxDelay, where first is the time of the earliest mark still
// pending. A zero maxDelay leaves the deadline unbounded.
type triggerStore struct {
	window   time.Duration
	maxDelay time.Duration

	mu       sync.Mutex
	pending  bool
	reason   string
	first    time.Time
	deadline time.Time
}

func (s *triggerStore) mark(now time.Time, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending {
		s.pending = true
		s.first = now
	}
	s.reason = reason
	s.deadline = now.Add(s.window)
	if s.maxDelay > 0 {
		if limit := s.first.Add(s.maxDelay); s.deadline.After(limit) {
			s.deadline = limit
		}
	}
}

// expire clears the entry and returns its last reason when the deadline
// has passed.
func (s *triggerStore) expire(now time.Time) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending || now.Before(s.deadline) {
		return "", false
	}
	reason := s.reason
	s.pending = false
	s.reason = ""
	return reason, true
}

func (s *triggerStore) snapshot() (pending bool, reason string, deadline time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending, s.reason, s.deadline
}
