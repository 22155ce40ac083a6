package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/freytube/freytube/internal/logger"
)

// LogProcessor writes a debug line for every span that ends
type LogProcessor struct {
	logger *logger.StyledLogger
}

var _ sdktrace.SpanProcessor = (*LogProcessor)(nil)

func NewLogProcessor(log *logger.StyledLogger) *LogProcessor {
	return &LogProcessor{logger: log}
}

func (p *LogProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *LogProcessor) OnEnd(span sdktrace.ReadOnlySpan) {
	args := []any{
		"trace_id", span.SpanContext().TraceID().String(),
		"duration", span.EndTime().Sub(span.StartTime()),
		"events", len(span.Events()),
	}
	for _, attr := range span.Attributes() {
		args = append(args, string(attr.Key), attr.Value.Emit())
	}

	if status := span.Status(); status.Code == codes.Error {
		args = append(args, "error", status.Description)
	}
	p.logger.Debug("span "+span.Name(), args...)
}

func (p *LogProcessor) Shutdown(context.Context) error   { return nil }
func (p *LogProcessor) ForceFlush(context.Context) error { return nil }
