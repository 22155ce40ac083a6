package instance

import (
	"slices"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/freytube/freytube/internal/core/constants"
	"github.com/freytube/freytube/internal/core/domain"
	"github.com/freytube/freytube/internal/logger"
	"github.com/freytube/freytube/internal/util"
)

// Config seeds a Registry. Zero values fall back to the package defaults.
type Config struct {
	ResetScope       string
	Piped            []string
	Invidious        []string
	FailureThreshold int
	Cooldown         time.Duration
}

// health is the failure/cooldown record for one URL. A zero cooldownUntil
// means the URL was never put into cooldown.
type health struct {
	cooldownUntil time.Time
	failures      int
}

type instanceList struct {
	urls   []string
	cursor int
}

// Registry holds the ranked instance lists for both providers and tracks the
// health of every URL in them.
//
// The cursor of each list is a logical index into the instances that are
// currently out of cooldown, not into the full list. As instances enter and
// leave cooldown the same cursor value can point at a different URL, so it
// is advisory and never a stable identity.
type Registry struct {
	health     *xsync.Map[string, health]
	lists      map[domain.Provider]*instanceList
	logger     *logger.StyledLogger
	now        func() time.Time
	resetScope string
	cooldown   time.Duration
	threshold  int
	mu         sync.RWMutex
}

type Option func(*Registry)

// WithClock replaces time.Now, tests use it to step through cooldowns
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func NewRegistry(cfg Config, log *logger.StyledLogger, opts ...Option) *Registry {
	r := &Registry{
		health:     xsync.NewMap[string, health](),
		logger:     log,
		now:        time.Now,
		threshold:  cfg.FailureThreshold,
		cooldown:   cfg.Cooldown,
		resetScope: cfg.ResetScope,
		lists: map[domain.Provider]*instanceList{
			domain.ProviderPiped:     {urls: normaliseList(orDefault(cfg.Piped, constants.DefaultPipedInstances))},
			domain.ProviderInvidious: {urls: normaliseList(orDefault(cfg.Invidious, constants.DefaultInvidiousInstances))},
		},
	}
	if r.threshold <= 0 {
		r.threshold = constants.DefaultFailureThreshold
	}
	if r.cooldown <= 0 {
		r.cooldown = constants.DefaultCooldown
	}
	if r.resetScope == "" {
		r.resetScope = constants.ResetScopeProvider
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CurrentBest returns the instance at the cursor within the available subset.
// When every instance is cooling down the cooldowns are wiped and the head of
// the list is returned, so the result is never empty.
func (r *Registry) CurrentBest(provider domain.Provider) string {
	urls, cursor := r.load(provider)

	available := r.available(urls)
	if len(available) == 0 {
		r.resetCooldowns(provider, urls)
		if len(urls) == 0 {
			return defaultInstance(provider)
		}
		return urls[0]
	}
	return available[cursor%len(available)]
}

// ReportFailure counts a failed attempt; reaching the threshold starts a cooldown
func (r *Registry) ReportFailure(provider domain.Provider, url string) {
	key := util.NormaliseBaseURL(url)
	now := r.now()

	updated, _ := r.health.Compute(key, func(old health, _ bool) (health, xsync.ComputeOp) {
		old.failures++
		if old.failures >= r.threshold {
			old.cooldownUntil = now.Add(r.cooldown)
		}
		return old, xsync.UpdateOp
	})

	if updated.failures >= r.threshold {
		r.logger.WarnWithProvider(provider.String(), "Instance in cooldown", key,
			"failures", updated.failures, "until", updated.cooldownUntil.Format(time.TimeOnly))
		return
	}
	r.logger.Debug("Instance failure", "provider", provider, "url", key, "failures", updated.failures)
}

// ReportSuccess clears the failure count and any cooldown for url
func (r *Registry) ReportSuccess(_ domain.Provider, url string) {
	r.health.Delete(util.NormaliseBaseURL(url))
}

// RotateNext advances the cursor within the available subset. It returns false
// when there is no alternative instance to move to.
func (r *Registry) RotateNext(provider domain.Provider) (string, bool) {
	r.mu.Lock()
	list, ok := r.lists[provider]
	if !ok {
		r.mu.Unlock()
		return "", false
	}

	available := r.available(list.urls)
	if len(available) <= 1 {
		r.mu.Unlock()
		return "", false
	}

	list.cursor = (list.cursor + 1) % len(available)
	next := available[list.cursor]
	r.mu.Unlock()

	r.logger.InfoWithProvider(provider.String(), "Rotated to", next)
	return next, true
}

// AllExhausted reports whether every instance of provider is cooling down
func (r *Registry) AllExhausted(provider domain.Provider) bool {
	urls, _ := r.load(provider)
	now := r.now()
	for _, url := range urls {
		if !r.inCooldown(url, now) {
			return false
		}
	}
	return true
}

// SetPreferred moves url to the front of the primary list and resets its cursor
func (r *Registry) SetPreferred(url string) {
	normalised := util.NormaliseBaseURL(url)
	if normalised == "" {
		return
	}

	r.mu.Lock()
	list := r.lists[domain.ProviderPiped]
	urls := make([]string, 0, len(list.urls)+1)
	urls = append(urls, normalised)
	for _, u := range list.urls {
		if u != normalised {
			urls = append(urls, u)
		}
	}
	list.urls = urls
	list.cursor = 0
	r.mu.Unlock()

	r.logger.InfoWithEndpoint("Preferred instance set", normalised)
}

// ReplaceList swaps in a new list for provider and resets its cursor
func (r *Registry) ReplaceList(provider domain.Provider, urls []string) {
	normalised := normaliseList(urls)

	r.mu.Lock()
	list, ok := r.lists[provider]
	if !ok {
		list = &instanceList{}
		r.lists[provider] = list
	}
	list.urls = normalised
	list.cursor = 0
	r.mu.Unlock()

	r.logger.InfoWithCount("Instance list replaced for "+provider.String(), len(normalised))
}

// Count returns the size of provider's full list
func (r *Registry) Count(provider domain.Provider) int {
	urls, _ := r.load(provider)
	return len(urls)
}

// Snapshot reports the health of every instance of provider, in list order
func (r *Registry) Snapshot(provider domain.Provider) domain.ProviderStatus {
	urls, cursor := r.load(provider)
	now := r.now()

	available := r.available(urls)
	current := ""
	if len(available) > 0 {
		current = available[cursor%len(available)]
	}

	status := domain.ProviderStatus{
		Provider:  provider,
		Total:     len(urls),
		Available: len(available),
		Instances: make([]domain.InstanceStatus, 0, len(urls)),
	}
	for _, url := range urls {
		h, _ := r.health.Load(url)
		status.Instances = append(status.Instances, domain.InstanceStatus{
			URL:           url,
			Failures:      h.failures,
			CooldownUntil: h.cooldownUntil,
			Available:     !h.cooldownUntil.After(now),
			Current:       url == current,
		})
	}
	return status
}

// load returns the list and cursor under the read lock. Lists are replaced,
// never mutated in place, so the returned slice is safe to read unlocked.
func (r *Registry) load(provider domain.Provider) ([]string, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list, ok := r.lists[provider]
	if !ok {
		return nil, 0
	}
	return list.urls, list.cursor
}

func (r *Registry) available(urls []string) []string {
	now := r.now()
	available := make([]string, 0, len(urls))
	for _, url := range urls {
		if !r.inCooldown(url, now) {
			available = append(available, url)
		}
	}
	return available
}

func (r *Registry) inCooldown(url string, now time.Time) bool {
	h, ok := r.health.Load(url)
	return ok && h.cooldownUntil.After(now)
}

// resetCooldowns wipes health state after total exhaustion. Concurrent wipes
// are harmless and a report racing a wipe may be lost.
func (r *Registry) resetCooldowns(provider domain.Provider, urls []string) {
	if r.resetScope == constants.ResetScopeGlobal {
		r.health.Clear()
	} else {
		for _, url := range urls {
			r.health.Delete(url)
		}
	}
	r.logger.WarnWithProvider(provider.String(), "All instances cooling down, resetting", r.resetScope)
}

func normaliseList(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, url := range urls {
		normalised := util.NormaliseBaseURL(url)
		if normalised == "" || slices.Contains(out, normalised) {
			continue
		}
		out = append(out, normalised)
	}
	return out
}

func orDefault(urls, defaults []string) []string {
	if len(urls) == 0 {
		return defaults
	}
	return urls
}

func defaultInstance(provider domain.Provider) string {
	if provider == domain.ProviderInvidious {
		return constants.DefaultInvidiousInstances[0]
	}
	return constants.DefaultPipedInstances[0]
}
