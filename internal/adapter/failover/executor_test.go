package failover

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/freytube/freytube/internal/adapter/client"
	"github.com/freytube/freytube/internal/adapter/instance"
	"github.com/freytube/freytube/internal/adapter/mapper"
	"github.com/freytube/freytube/internal/adapter/stats"
	"github.com/freytube/freytube/internal/core/constants"
	"github.com/freytube/freytube/internal/core/domain"
	"github.com/freytube/freytube/internal/core/ports"
	"github.com/freytube/freytube/internal/logger"
)

// fakeInstance answers every request with a fixed status and body
type fakeInstance struct {
	server *httptest.Server
	hits   atomic.Int32
	status int
	body   string
}

func newFakeInstance(t *testing.T, status int, body string) *fakeInstance {
	t.Helper()
	f := &fakeInstance{status: status, body: body}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeInstance) URL() string {
	return f.server.URL
}

type harness struct {
	registry *instance.Registry
	executor *Executor
	metrics  *Metrics
	stats    *stats.Collector
	spans    *tracetest.SpanRecorder
}

func newHarness(t *testing.T, piped, invidious []*fakeInstance) *harness {
	t.Helper()
	log := logger.NewDiscard()

	var pipedURLs, invidiousURLs []string
	for _, f := range piped {
		pipedURLs = append(pipedURLs, f.URL())
	}
	for _, f := range invidious {
		invidiousURLs = append(invidiousURLs, f.URL())
	}

	registry := instance.NewRegistry(instance.Config{Piped: pipedURLs, Invidious: invidiousURLs}, log)
	factory := client.NewFactory(client.Config{ConnectTimeout: time.Second, ReadTimeout: 2 * time.Second}, log)

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSpanProcessor(recorder),
	)
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	metrics := NewMetrics(prometheus.NewRegistry())
	collector := stats.NewCollector(log)

	executor := NewExecutor(Config{}, registry, factory, log,
		WithMetrics(metrics),
		WithStats(collector),
		WithTracerProvider(provider),
	)
	return &harness{registry: registry, executor: executor, metrics: metrics, stats: collector, spans: recorder}
}

func trending(ctx context.Context, c *client.PipedClient) ([]domain.StreamItem, error) {
	return c.Trending(ctx, "US")
}

func trendingFallback(ctx context.Context, c *client.InvidiousClient) ([]domain.StreamItem, error) {
	items, err := c.Trending(ctx, "US")
	if err != nil {
		return nil, err
	}
	return mapper.ToStreamItems(items), nil
}

func failures(r *instance.Registry, provider domain.Provider, url string) int {
	for _, s := range r.Snapshot(provider).Instances {
		if s.URL == url {
			return s.Failures
		}
	}
	return -1
}

func TestRun_RotatesToHealthyPrimary(t *testing.T) {
	sick := newFakeInstance(t, http.StatusServiceUnavailable, "")
	healthy := newFakeInstance(t, http.StatusOK, `[{"url":"/watch?v=p1","title":"from primary"}]`)
	h := newHarness(t, []*fakeInstance{sick, healthy}, nil)

	items, err := Run(context.Background(), h.executor, "trending", trending, trendingFallback)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "from primary", items[0].Title)

	assert.Equal(t, int32(1), sick.hits.Load())
	assert.Equal(t, int32(1), healthy.hits.Load())
	assert.Equal(t, 1, failures(h.registry, domain.ProviderPiped, sick.URL()))
	assert.Equal(t, healthy.URL(), h.registry.CurrentBest(domain.ProviderPiped))

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Attempts.WithLabelValues("piped", constants.OutcomeRetryable)))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Attempts.WithLabelValues("piped", constants.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Rotations.WithLabelValues("piped")))
}

func TestRun_FourthPrimaryInstanceSucceeds(t *testing.T) {
	sick := []*fakeInstance{
		newFakeInstance(t, http.StatusServiceUnavailable, ""),
		newFakeInstance(t, http.StatusServiceUnavailable, ""),
		newFakeInstance(t, http.StatusServiceUnavailable, ""),
	}
	healthy := newFakeInstance(t, http.StatusOK, `[{"url":"/watch?v=p4","title":"fourth"}]`)
	inv := newFakeInstance(t, http.StatusOK, `[]`)
	h := newHarness(t, append(sick, healthy), []*fakeInstance{inv})

	items, err := Run(context.Background(), h.executor, "trending", trending, trendingFallback)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "fourth", items[0].Title)

	for _, f := range sick {
		assert.Equal(t, int32(1), f.hits.Load())
		assert.Equal(t, 1, failures(h.registry, domain.ProviderPiped, f.URL()))
	}
	assert.Equal(t, int32(1), healthy.hits.Load())
	assert.Equal(t, 0, failures(h.registry, domain.ProviderPiped, healthy.URL()))
	assert.Equal(t, healthy.URL(), h.registry.CurrentBest(domain.ProviderPiped))
	assert.Zero(t, inv.hits.Load())
	assert.Equal(t, int64(4), h.stats.Totals().Attempts)
}

func TestRun_FallbackSucceedsOnSecondInstance(t *testing.T) {
	piped := []*fakeInstance{
		newFakeInstance(t, http.StatusServiceUnavailable, ""),
		newFakeInstance(t, http.StatusServiceUnavailable, ""),
		newFakeInstance(t, http.StatusServiceUnavailable, ""),
		newFakeInstance(t, http.StatusServiceUnavailable, ""),
	}
	invSick := newFakeInstance(t, http.StatusServiceUnavailable, "")
	invHealthy := newFakeInstance(t, http.StatusOK, `[{
		"type": "video",
		"videoId": "f2",
		"title": "mapped from fallback",
		"author": "Gopher",
		"lengthSeconds": 42,
		"viewCount": 1500,
		"videoThumbnails": [{"quality": "medium", "url": "https://img/f2.jpg", "width": 320}]
	}]`)
	h := newHarness(t, piped, []*fakeInstance{invSick, invHealthy})

	items, err := Run(context.Background(), h.executor, "trending", trending, trendingFallback)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "/watch?v=f2", item.URL)
	assert.Equal(t, "stream", item.Type)
	assert.Equal(t, "Gopher", item.UploaderName)
	assert.Equal(t, "https://img/f2.jpg", item.Thumbnail)
	assert.Equal(t, int64(42), item.Duration)
	assert.True(t, item.IsShort)

	for _, f := range piped {
		assert.Equal(t, int32(1), f.hits.Load())
	}
	assert.Equal(t, int32(1), invSick.hits.Load())
	assert.Equal(t, int32(1), invHealthy.hits.Load())
	assert.Equal(t, 1, failures(h.registry, domain.ProviderInvidious, invSick.URL()))
	assert.Equal(t, 0, failures(h.registry, domain.ProviderInvidious, invHealthy.URL()))
	assert.Equal(t, int64(6), h.stats.Totals().Attempts)
}

func TestRun_PermanentFailureStopsImmediately(t *testing.T) {
	missing := newFakeInstance(t, http.StatusNotFound, `{"error":"not found"}`)
	other := newFakeInstance(t, http.StatusOK, `[]`)
	fallback := newFakeInstance(t, http.StatusOK, `[]`)
	h := newHarness(t, []*fakeInstance{missing, other}, []*fakeInstance{fallback})

	_, err := Run(context.Background(), h.executor, "trending", trending, trendingFallback)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.False(t, domain.IsExhausted(err))

	assert.Equal(t, int32(1), missing.hits.Load())
	assert.Zero(t, other.hits.Load(), "no rotation on a permanent failure")
	assert.Zero(t, fallback.hits.Load(), "fallback is never consulted")
	assert.Equal(t, 0, failures(h.registry, domain.ProviderPiped, missing.URL()))
	assert.Equal(t, missing.URL(), h.registry.CurrentBest(domain.ProviderPiped))
}

func TestRun_FallsBackWhenPrimaryExhausted(t *testing.T) {
	a := newFakeInstance(t, http.StatusBadGateway, "")
	b := newFakeInstance(t, http.StatusServiceUnavailable, "")
	inv := newFakeInstance(t, http.StatusOK, `[{"videoId":"f1","title":"from fallback"}]`)
	h := newHarness(t, []*fakeInstance{a, b}, []*fakeInstance{inv})

	items, err := Run(context.Background(), h.executor, "trending", trending, trendingFallback)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "from fallback", items[0].Title)
	assert.Equal(t, "f1", items[0].VideoID())

	assert.Equal(t, int32(constants.DefaultPrimaryAttempts), a.hits.Load()+b.hits.Load())
	assert.Equal(t, int32(1), inv.hits.Load())
	assert.Equal(t, 2, failures(h.registry, domain.ProviderPiped, a.URL()))
	assert.Equal(t, 2, failures(h.registry, domain.ProviderPiped, b.URL()))
}

func TestRun_SingleInstanceBreaksEarly(t *testing.T) {
	only := newFakeInstance(t, http.StatusGatewayTimeout, "")
	inv := newFakeInstance(t, http.StatusOK, `[]`)
	h := newHarness(t, []*fakeInstance{only}, []*fakeInstance{inv})

	_, err := Run(context.Background(), h.executor, "trending", trending, trendingFallback)
	require.NoError(t, err)

	assert.Equal(t, int32(1), only.hits.Load(), "no alternative means no further primary attempts")
	assert.Equal(t, int32(1), inv.hits.Load())
}

func TestRun_TotalExhaustion(t *testing.T) {
	piped := []*fakeInstance{
		newFakeInstance(t, http.StatusServiceUnavailable, ""),
		newFakeInstance(t, http.StatusServiceUnavailable, ""),
	}
	invidious := []*fakeInstance{
		newFakeInstance(t, 522, ""),
		newFakeInstance(t, 522, ""),
	}
	h := newHarness(t, piped, invidious)

	_, err := Run(context.Background(), h.executor, "trending", trending, trendingFallback)
	require.Error(t, err)

	var exhausted *domain.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, constants.DefaultPrimaryAttempts+constants.DefaultFallbackAttempts, exhausted.Attempts)

	var statusErr *domain.HTTPStatusError
	require.ErrorAs(t, err, &statusErr, "exhaustion wraps the last error")
	assert.Equal(t, 522, statusErr.StatusCode)
	assert.Equal(t, domain.ProviderInvidious, statusErr.Provider)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Exhaustions))
	assert.Equal(t, int64(7), h.stats.Totals().Failures)
}

func TestRun_NoFallback(t *testing.T) {
	sick := newFakeInstance(t, http.StatusServiceUnavailable, "")
	inv := newFakeInstance(t, http.StatusOK, `[]`)
	h := newHarness(t, []*fakeInstance{sick}, []*fakeInstance{inv})

	_, err := Run[[]domain.StreamItem](context.Background(), h.executor, "trending", trending, nil)
	require.Error(t, err)
	assert.True(t, domain.IsExhausted(err))
	assert.Equal(t, http.StatusServiceUnavailable, domain.StatusCodeOf(err))
	assert.Zero(t, inv.hits.Load())
}

func TestRun_FallbackDisabled(t *testing.T) {
	sick := newFakeInstance(t, http.StatusServiceUnavailable, "")
	inv := newFakeInstance(t, http.StatusOK, `[]`)
	h := newHarness(t, []*fakeInstance{sick}, []*fakeInstance{inv})
	h.executor = NewExecutor(Config{DisableFallback: true}, h.registry,
		client.NewFactory(client.Config{}, logger.NewDiscard()), logger.NewDiscard())

	_, err := Run(context.Background(), h.executor, "trending", trending, trendingFallback)
	require.Error(t, err)
	assert.True(t, domain.IsExhausted(err))
	assert.Zero(t, inv.hits.Load())
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	healthy := newFakeInstance(t, http.StatusOK, `[]`)
	h := newHarness(t, []*fakeInstance{healthy}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, h.executor, "trending", trending, trendingFallback)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, healthy.hits.Load())
	assert.Zero(t, h.stats.Totals().Attempts)
}

func TestRun_CancelledMidAttemptReportsNothing(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	log := logger.NewDiscard()
	registry := instance.NewRegistry(instance.Config{Piped: []string{slow.URL, "https://other.example"}}, log)
	executor := NewExecutor(Config{}, registry, client.NewFactory(client.Config{}, log), log)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Run(ctx, executor, "trending", trending, trendingFallback)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, domain.IsExhausted(err))
	assert.Equal(t, 0, failures(registry, domain.ProviderPiped, slow.URL))
	assert.Equal(t, slow.URL, registry.CurrentBest(domain.ProviderPiped), "no rotation after cancellation")
}

func TestRun_RecordsSpan(t *testing.T) {
	sick := newFakeInstance(t, http.StatusServiceUnavailable, "")
	healthy := newFakeInstance(t, http.StatusOK, `[]`)
	h := newHarness(t, []*fakeInstance{sick, healthy}, nil)

	_, err := Run(context.Background(), h.executor, "trending", trending, trendingFallback)
	require.NoError(t, err)

	spans := h.spans.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "failover.trending", span.Name())

	var attempts int
	for _, event := range span.Events() {
		if event.Name == "attempt" {
			attempts++
		}
	}
	assert.Equal(t, 2, attempts)
	assert.Equal(t, codes.Ok, span.Status().Code)
}

func TestRun_DecodeErrorIsPermanent(t *testing.T) {
	garbage := newFakeInstance(t, http.StatusOK, `<html>`)
	other := newFakeInstance(t, http.StatusOK, `[]`)
	h := newHarness(t, []*fakeInstance{garbage, other}, nil)

	_, err := Run(context.Background(), h.executor, "trending", trending, trendingFallback)
	var decodeErr *client.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Zero(t, other.hits.Load())
}

func TestNewExecutor_Defaults(t *testing.T) {
	log := logger.NewDiscard()
	e := NewExecutor(Config{PrimaryAttempts: -1, FallbackAttempts: -1},
		instance.NewRegistry(instance.Config{}, log), client.NewFactory(client.Config{}, log), log)

	assert.Equal(t, constants.DefaultPrimaryAttempts, e.primaryAttempts)
	assert.Equal(t, constants.DefaultFallbackAttempts, e.fallbackAttempts)
	assert.NotNil(t, e.metrics)

	zero := NewExecutor(Config{}, e.registry, e.clients, log)
	assert.Equal(t, constants.DefaultPrimaryAttempts, zero.primaryAttempts)
	assert.Equal(t, constants.DefaultFallbackAttempts, zero.fallbackAttempts)

	disabled := NewExecutor(Config{FallbackAttempts: 5, DisableFallback: true}, e.registry, e.clients, log)
	assert.Zero(t, disabled.fallbackAttempts)
	assert.NotNil(t, e.Registry())
}

func TestRun_GenericResultTypes(t *testing.T) {
	healthy := newFakeInstance(t, http.StatusOK, `["cats","cars"]`)
	h := newHarness(t, []*fakeInstance{healthy}, nil)

	suggestions, err := Run(context.Background(), h.executor, "suggestions",
		func(ctx context.Context, c *client.PipedClient) ([]string, error) {
			return c.Suggestions(ctx, "ca")
		},
		func(ctx context.Context, c *client.InvidiousClient) ([]string, error) {
			return nil, errors.New("unused")
		},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"cats", "cars"}, suggestions)
}

func TestRun_ReportsEachAttemptInOrder(t *testing.T) {
	log := logger.NewDiscard()
	sick := newFakeInstance(t, http.StatusServiceUnavailable, "")
	inv := newFakeInstance(t, http.StatusOK, `[]`)

	registry := instance.NewRegistry(instance.Config{Piped: []string{sick.URL()}, Invidious: []string{inv.URL()}}, log)
	factory := client.NewFactory(client.Config{ConnectTimeout: time.Second, ReadTimeout: 2 * time.Second}, log)
	recorder := ports.NewMockStatsCollector()
	executor := NewExecutor(Config{}, registry, factory, log, WithStats(recorder))

	_, err := Run(context.Background(), executor, "trending", trending, trendingFallback)
	require.NoError(t, err)

	attempts := recorder.Attempts()
	require.Len(t, attempts, 2)
	assert.Equal(t, domain.ProviderPiped, attempts[0].Provider)
	assert.Equal(t, sick.URL(), attempts[0].URL)
	assert.Equal(t, constants.OutcomeRetryable, attempts[0].Outcome)
	assert.Equal(t, domain.ProviderInvidious, attempts[1].Provider)
	assert.Equal(t, constants.OutcomeSuccess, attempts[1].Outcome)
	assert.Equal(t, int64(1), recorder.Totals().Failures)
}
