package ports

import (
	"sync"
	"time"

	"github.com/freytube/freytube/internal/core/constants"
	"github.com/freytube/freytube/internal/core/domain"
)

// MockStatsCollector records attempts in memory so tests can assert on what
// was reported without pulling in the real collector
type MockStatsCollector struct {
	attempts []RecordedAttempt
	mu       sync.RWMutex
}

type RecordedAttempt struct {
	Provider domain.Provider
	URL      string
	Outcome  string
	Latency  time.Duration
}

func NewMockStatsCollector() *MockStatsCollector {
	return &MockStatsCollector{}
}

func (m *MockStatsCollector) RecordAttempt(provider domain.Provider, url, outcome string, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, RecordedAttempt{Provider: provider, URL: url, Outcome: outcome, Latency: latency})
}

func (m *MockStatsCollector) InstanceStats() map[string]InstanceStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]InstanceStats)
	for _, a := range m.attempts {
		s := stats[a.URL]
		s.Provider = a.Provider
		s.URL = a.URL
		s.Attempts++
		if a.Outcome == constants.OutcomeSuccess {
			s.Successes++
		} else {
			s.Failures++
		}
		stats[a.URL] = s
	}
	return stats
}

func (m *MockStatsCollector) Totals() AttemptTotals {
	var totals AttemptTotals
	for _, s := range m.InstanceStats() {
		totals.Attempts += s.Attempts
		totals.Successes += s.Successes
		totals.Failures += s.Failures
	}
	return totals
}

func (m *MockStatsCollector) Attempts() []RecordedAttempt {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RecordedAttempt(nil), m.attempts...)
}
