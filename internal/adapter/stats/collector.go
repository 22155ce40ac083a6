package stats

/*
	Instance stats collector

	Every failover attempt reports here with the instance it hit, the outcome
	and the latency. The registry decides health; this only keeps the numbers
	for the status API and the instances command.

	Instances come and go with discovery, so entries that have not been used
	for an hour are dropped and at most MaxTrackedInstances are kept.
*/

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/freytube/freytube/internal/core/constants"
	"github.com/freytube/freytube/internal/core/domain"
	"github.com/freytube/freytube/internal/core/ports"
	"github.com/freytube/freytube/internal/logger"
)

const (
	MaxTrackedInstances = 64
	InstanceTTL         = 1 * time.Hour
	CleanupInterval     = 5 * time.Minute
)

type Collector struct {
	instances *xsync.Map[string, *instanceData]
	logger    *logger.StyledLogger
	now       func() time.Time

	totalAttempts  atomic.Int64
	totalSuccesses atomic.Int64
	totalFailures  atomic.Int64
	totalLatency   atomic.Int64
	lastCleanup    atomic.Int64

	cleanupMu sync.Mutex
}

type instanceData struct {
	provider     domain.Provider
	url          string
	attempts     atomic.Int64
	successes    atomic.Int64
	failures     atomic.Int64
	totalLatency atomic.Int64
	minLatency   atomic.Int64
	maxLatency   atomic.Int64
	lastUsed     atomic.Int64
}

func NewCollector(log *logger.StyledLogger) *Collector {
	c := &Collector{
		instances: xsync.NewMap[string, *instanceData](),
		logger:    log,
		now:       time.Now,
	}
	c.lastCleanup.Store(c.now().UnixNano())
	return c
}

// RecordAttempt counts one attempt. Cancelled attempts say nothing about the
// instance and are ignored.
func (c *Collector) RecordAttempt(provider domain.Provider, url, outcome string, latency time.Duration) {
	if outcome == constants.OutcomeCancelled {
		return
	}

	now := c.now().UnixNano()
	latencyMs := latency.Milliseconds()

	c.totalAttempts.Add(1)
	data := c.getOrInit(provider, url, now)
	data.attempts.Add(1)
	data.lastUsed.Store(now)

	if outcome == constants.OutcomeSuccess {
		c.totalSuccesses.Add(1)
		c.totalLatency.Add(latencyMs)
		data.successes.Add(1)
		data.totalLatency.Add(latencyMs)
		updateLatencyBounds(data, latencyMs)
	} else {
		c.totalFailures.Add(1)
		data.failures.Add(1)
	}

	c.tryCleanup(now)
}

func (c *Collector) Totals() ports.AttemptTotals {
	successes := c.totalSuccesses.Load()
	var avg int64
	if successes > 0 {
		avg = c.totalLatency.Load() / successes
	}
	return ports.AttemptTotals{
		Attempts:       c.totalAttempts.Load(),
		Successes:      successes,
		Failures:       c.totalFailures.Load(),
		AverageLatency: avg,
	}
}

// InstanceStats is keyed by instance URL
func (c *Collector) InstanceStats() map[string]ports.InstanceStats {
	stats := make(map[string]ports.InstanceStats, c.instances.Size())

	c.instances.Range(func(url string, data *instanceData) bool {
		attempts := data.attempts.Load()
		successes := data.successes.Load()

		var avg int64
		if successes > 0 {
			avg = data.totalLatency.Load() / successes
		}
		successRate := 0.0
		if attempts > 0 {
			successRate = float64(successes) / float64(attempts) * 100
		}
		minLatency := data.minLatency.Load()
		if minLatency == -1 {
			minLatency = 0
		}

		stats[url] = ports.InstanceStats{
			Provider:       data.provider,
			URL:            data.url,
			Attempts:       attempts,
			Successes:      successes,
			Failures:       data.failures.Load(),
			AverageLatency: avg,
			MinLatency:     minLatency,
			MaxLatency:     data.maxLatency.Load(),
			LastUsed:       time.Unix(0, data.lastUsed.Load()),
			SuccessRate:    successRate,
		}
		return true
	})

	return stats
}

func (c *Collector) getOrInit(provider domain.Provider, url string, now int64) *instanceData {
	data, _ := c.instances.LoadOrCompute(url, func() (*instanceData, bool) {
		d := &instanceData{provider: provider, url: url}
		d.minLatency.Store(-1)
		d.lastUsed.Store(now)
		return d, false
	})
	return data
}

func updateLatencyBounds(data *instanceData, latencyMs int64) {
	for {
		current := data.minLatency.Load()
		if current != -1 && latencyMs >= current {
			break
		}
		if data.minLatency.CompareAndSwap(current, latencyMs) {
			break
		}
	}
	for {
		current := data.maxLatency.Load()
		if latencyMs <= current {
			break
		}
		if data.maxLatency.CompareAndSwap(current, latencyMs) {
			break
		}
	}
}

func (c *Collector) tryCleanup(now int64) {
	if now-c.lastCleanup.Load() < int64(CleanupInterval) {
		return
	}

	c.cleanupMu.Lock()
	defer c.cleanupMu.Unlock()

	if now-c.lastCleanup.Load() < int64(CleanupInterval) {
		return
	}
	c.cleanup(now)
	c.lastCleanup.Store(now)
}

func (c *Collector) cleanup(now int64) {
	cutoff := now - int64(InstanceTTL)

	type instanceAge struct {
		url      string
		lastUsed int64
	}
	var ages []instanceAge
	removed := 0

	c.instances.Range(func(url string, data *instanceData) bool {
		lastUsed := data.lastUsed.Load()
		if lastUsed < cutoff {
			c.instances.Delete(url)
			removed++
			return true
		}
		ages = append(ages, instanceAge{url: url, lastUsed: lastUsed})
		return true
	})

	if len(ages) > MaxTrackedInstances {
		sort.Slice(ages, func(i, j int) bool {
			return ages[i].lastUsed < ages[j].lastUsed
		})
		excess := len(ages) - MaxTrackedInstances
		for _, age := range ages[:excess] {
			c.instances.Delete(age.url)
		}
		removed += excess
	}

	if removed > 0 {
		c.logger.Debug("Cleaned up instance stats", "removed", removed, "remaining", c.instances.Size())
	}
}
