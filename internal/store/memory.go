package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/city-weather/internal/weather"
)

var (
	// ErrNotFound is returned when no outcome is available for a given city.
	ErrNotFound = errors.New("no weather data for city")
)

// OutcomeHistory holds a time-ordered list of outcomes for a city.
type OutcomeHistory struct {
	Outcomes []weather.Outcome
}

// MemoryStore is a concurrency-safe in-memory implementation of a weather store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: normalized city name, value: history
	data map[string]*OutcomeHistory

	// retention configuration
	maxHistory int           // max number of outcomes per city
	maxAge     time.Duration // optional max age for outcomes

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*OutcomeHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

func key(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// SaveOutcome appends a new outcome for its city and enforces retention.
func (s *MemoryStore) SaveOutcome(o weather.Outcome) {
	k := key(o.City)

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[k]
	if !ok {
		history = &OutcomeHistory{}
		s.data[k] = history
	}

	history.Outcomes = append(history.Outcomes, o)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Outcomes) > s.maxHistory {
		over := len(history.Outcomes) - s.maxHistory
		history.Outcomes = history.Outcomes[over:]
	}

	// Enforce retention by age. The newest outcome is always kept.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Outcomes)-1; i++ {
			if !history.Outcomes[i].FetchedAt.Before(cutoff) {
				break
			}
		}
		history.Outcomes = history.Outcomes[i:]
	}
}

// GetLatest returns the most recent outcome for a city.
func (s *MemoryStore) GetLatest(city string) (weather.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key(city)]
	if !ok || len(history.Outcomes) == 0 {
		return weather.Outcome{}, ErrNotFound
	}
	return history.Outcomes[len(history.Outcomes)-1], nil
}

// GetRange returns all outcomes for a city between from and to (inclusive).
func (s *MemoryStore) GetRange(city string, from, to time.Time) ([]weather.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key(city)]
	if !ok || len(history.Outcomes) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.Outcome
	for _, o := range history.Outcomes {
		if !o.FetchedAt.Before(from) && !o.FetchedAt.After(to) {
			result = append(result, o)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
