package failover

/*
	Failover executor

	Every catalog call goes through Run. The primary provider is tried first,
	rotating through its instances on retryable failures, then the fallback
	provider the same way. A permanent failure (404, bad request, undecodable
	body) ends the call straight away since another instance would answer the
	same.

	Budgets are per call: 4 primary and 3 fallback attempts by default. A tier
	ends early when the registry has no other instance to rotate to.
*/

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/freytube/freytube/internal/adapter/client"
	"github.com/freytube/freytube/internal/core/constants"
	"github.com/freytube/freytube/internal/core/domain"
	"github.com/freytube/freytube/internal/core/ports"
	"github.com/freytube/freytube/internal/logger"
)

const tracerName = "freytube/internal/adapter/failover"

// Config holds the per-tier attempt budgets. Zero budgets take the defaults;
// DisableFallback stops Run after the primary tier.
type Config struct {
	PrimaryAttempts  int
	FallbackAttempts int
	DisableFallback  bool
}

// PrimaryCall performs one request against a primary instance
type PrimaryCall[T any] func(ctx context.Context, c *client.PipedClient) (T, error)

// FallbackCall performs one request against a fallback instance and maps the
// response into the canonical model
type FallbackCall[T any] func(ctx context.Context, c *client.InvidiousClient) (T, error)

type Executor struct {
	registry         ports.InstanceRegistry
	clients          *client.Factory
	stats            ports.StatsCollector
	metrics          *Metrics
	tracer           trace.Tracer
	logger           *logger.StyledLogger
	primaryAttempts  int
	fallbackAttempts int
}

type Option func(*Executor)

func WithMetrics(m *Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

func WithStats(s ports.StatsCollector) Option {
	return func(e *Executor) {
		e.stats = s
	}
}

// WithTracerProvider overrides the global tracer provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Executor) {
		e.tracer = tp.Tracer(tracerName)
	}
}

func NewExecutor(cfg Config, registry ports.InstanceRegistry, clients *client.Factory, log *logger.StyledLogger, opts ...Option) *Executor {
	e := &Executor{
		registry:         registry,
		clients:          clients,
		logger:           log,
		tracer:           otel.Tracer(tracerName),
		primaryAttempts:  cfg.PrimaryAttempts,
		fallbackAttempts: cfg.FallbackAttempts,
	}
	if e.primaryAttempts <= 0 {
		e.primaryAttempts = constants.DefaultPrimaryAttempts
	}
	if e.fallbackAttempts <= 0 {
		e.fallbackAttempts = constants.DefaultFallbackAttempts
	}
	if cfg.DisableFallback {
		e.fallbackAttempts = 0
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	return e
}

func (e *Executor) Registry() ports.InstanceRegistry {
	return e.registry
}

// Run executes one logical call with failover. fallback may be nil for calls
// the fallback provider cannot serve. Cancelling ctx returns ctx.Err() without
// reporting the interrupted attempt against the instance.
func Run[T any](ctx context.Context, e *Executor, operation string, primary PrimaryCall[T], fallback FallbackCall[T]) (T, error) {
	started := time.Now()
	ctx, span := e.tracer.Start(ctx, "failover."+operation,
		trace.WithAttributes(
			attribute.String("failover.operation", operation),
			attribute.Bool("failover.has_fallback", fallback != nil),
		),
	)
	defer span.End()
	defer func() {
		e.metrics.Duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	}()

	state := &runState{executor: e, span: span, operation: operation}

	value, done, err := runTier[*client.PipedClient, T](ctx, state,
		domain.ProviderPiped, e.primaryAttempts, e.clients.Piped, primary)
	if done {
		return value, state.finish(err)
	}

	if fallback != nil {
		value, done, err = runTier[*client.InvidiousClient, T](ctx, state,
			domain.ProviderInvidious, e.fallbackAttempts, e.clients.Invidious, fallback)
		if done {
			return value, state.finish(err)
		}
	}

	var zero T
	exhausted := domain.NewExhaustedError(state.attempts, state.lastErr)
	e.metrics.Exhaustions.Inc()
	e.logger.Error("All instances exhausted",
		"operation", operation,
		"attempts", state.attempts,
		"error", state.lastErr)
	return zero, state.finish(exhausted)
}

// runTier makes up to budget attempts against provider. done is false only
// when the tier ran out of attempts or instances and the next tier should run.
func runTier[C any, T any](
	ctx context.Context,
	state *runState,
	provider domain.Provider,
	budget int,
	clientFor func(baseURL string) C,
	call func(ctx context.Context, c C) (T, error),
) (T, bool, error) {
	e := state.executor
	var zero T

	for attempt := 1; attempt <= budget; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, true, err
		}

		url := e.registry.CurrentBest(provider)
		c := clientFor(url)
		state.attempts++

		attemptStarted := time.Now()
		result, callErr := call(ctx, c)
		latency := time.Since(attemptStarted)

		if callErr == nil {
			e.registry.ReportSuccess(provider, url)
			state.record(provider, url, attempt, constants.OutcomeSuccess, latency, nil)
			return result, true, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			state.record(provider, url, attempt, constants.OutcomeCancelled, latency, ctxErr)
			return zero, true, ctxErr
		}

		if !IsRetryable(callErr) {
			state.record(provider, url, attempt, constants.OutcomePermanent, latency, callErr)
			return zero, true, callErr
		}

		state.record(provider, url, attempt, constants.OutcomeRetryable, latency, callErr)
		state.lastErr = callErr
		e.registry.ReportFailure(provider, url)

		next, ok := e.registry.RotateNext(provider)
		if !ok {
			e.logger.WarnWithProvider(provider.String(), "No alternative instance after", url,
				"operation", state.operation, "attempt", attempt)
			break
		}
		e.metrics.rotation(provider)
		e.clients.Rebuild(provider, next)
	}

	return zero, false, nil
}

type runState struct {
	executor  *Executor
	span      trace.Span
	lastErr   error
	operation string
	attempts  int
}

func (s *runState) record(provider domain.Provider, url string, attempt int, outcome string, latency time.Duration, err error) {
	e := s.executor

	e.metrics.attempt(provider, outcome)
	if e.stats != nil {
		e.stats.RecordAttempt(provider, url, outcome, latency)
	}

	s.span.AddEvent("attempt", trace.WithAttributes(
		attribute.String("failover.provider", provider.String()),
		attribute.String("failover.instance", url),
		attribute.Int("failover.attempt", attempt),
		attribute.String("failover.outcome", outcome),
		attribute.Int64("failover.latency_ms", latency.Milliseconds()),
	))
	if err != nil && outcome != constants.OutcomeCancelled {
		s.span.RecordError(err)
	}

	switch outcome {
	case constants.OutcomeSuccess:
		e.logger.Debug("Attempt succeeded",
			"operation", s.operation, "provider", provider, "url", url,
			"attempt", attempt, "latency_ms", latency.Milliseconds())
	case constants.OutcomeRetryable:
		e.logger.WarnWithProvider(provider.String(), "Attempt failed on", url,
			"operation", s.operation, "attempt", attempt, "error", err)
	case constants.OutcomePermanent:
		e.logger.Info("Request failed, not retrying",
			"operation", s.operation, "provider", provider, "url", url, "error", err)
	case constants.OutcomeCancelled:
		e.logger.Debug("Attempt cancelled",
			"operation", s.operation, "provider", provider, "url", url)
	}
}

func (s *runState) finish(err error) error {
	s.span.SetAttributes(attribute.Int("failover.attempts", s.attempts))
	if err != nil {
		s.span.SetStatus(codes.Error, err.Error())
		return err
	}
	s.span.SetStatus(codes.Ok, "request completed")
	return nil
}
