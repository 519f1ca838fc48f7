package gapfill

import (
	"context"
	"sync"
)

// CandidateFetcher abstracts the optimizer client for the service.
type CandidateFetcher interface {
	FetchCandidates(ctx context.Context, providerID, targetDate string) (*FetchResult, error)
}

// Service owns the screen's current result set. Refreshes replace results
// wholesale, and a refresh that finishes after a newer one has been issued is
// discarded rather than applied.
type Service struct {
	fetcher CandidateFetcher

	mu      sync.Mutex
	current *FetchResult
	seq     uint64
}

// NewService creates a candidate service backed by the given fetcher.
func NewService(fetcher CandidateFetcher) *Service {
	return &Service{fetcher: fetcher}
}

// Refresh fetches candidates and, if no newer refresh was issued in the
// meantime, installs the result as the current set. A superseded refresh
// returns ErrSuperseded and leaves the newer state untouched.
func (s *Service) Refresh(ctx context.Context, providerID, targetDate string) (*FetchResult, error) {
	s.mu.Lock()
	s.seq++
	issued := s.seq
	s.mu.Unlock()

	result, err := s.fetcher.FetchCandidates(ctx, providerID, targetDate)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if issued != s.seq {
		return nil, ErrSuperseded
	}
	s.current = result
	return result, nil
}

// Current returns the current result set, or nil before the first
// successful refresh.
func (s *Service) Current() *FetchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Invalidate marks any in-flight refresh as stale, used when the user
// navigates away so late results are never applied.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.current = nil
}

// FindCandidate locates a candidate in the current result set by client id.
func (s *Service) FindCandidate(clientID string) (*Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, ErrCandidateNotFound
	}
	for i := range s.current.Candidates {
		if s.current.Candidates[i].ClientID == clientID {
			c := s.current.Candidates[i]
			return &c, nil
		}
	}
	return nil, ErrCandidateNotFound
}
