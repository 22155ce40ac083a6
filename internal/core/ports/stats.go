package ports

import (
	"time"

	"github.com/freytube/freytube/internal/core/domain"
)

// StatsCollector keeps per-instance attempt counters for status reporting
type StatsCollector interface {
	RecordAttempt(provider domain.Provider, url, outcome string, latency time.Duration)
	InstanceStats() map[string]InstanceStats
	Totals() AttemptTotals
}

type InstanceStats struct {
	LastUsed       time.Time       `json:"last_used"`
	Provider       domain.Provider `json:"provider"`
	URL            string          `json:"url"`
	Attempts       int64           `json:"attempts"`
	Successes      int64           `json:"successes"`
	Failures       int64           `json:"failures"`
	AverageLatency int64           `json:"avg_latency_ms"`
	MinLatency     int64           `json:"min_latency_ms"`
	MaxLatency     int64           `json:"max_latency_ms"`
	SuccessRate    float64         `json:"success_rate_percent"`
}

type AttemptTotals struct {
	Attempts       int64 `json:"attempts"`
	Successes      int64 `json:"successes"`
	Failures       int64 `json:"failures"`
	AverageLatency int64 `json:"avg_latency_ms"`
}
