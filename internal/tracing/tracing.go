// Package tracing wires a process-local tracer whose spans are mirrored to
// the structured logger. There is no exporter; spans exist so that dispatch
// stages show up in the logs with their timings and attributes.
package tracing

import (
	"context"
	"log/slog"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type loggingSpanProcessor struct {
	verbose bool
	logger  *slog.Logger
}

var _ sdktrace.SpanProcessor = (*loggingSpanProcessor)(nil)

func (l *loggingSpanProcessor) OnStart(ctx context.Context, s sdktrace.ReadWriteSpan) {
	l.logger.Debug("span start", l.buildArgs(s)...)
}

func (l *loggingSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	args := l.buildArgs(s)
	args = append(args, slog.Duration("duration", s.EndTime().Sub(s.StartTime())))
	l.logger.Debug("span end", args...)
}

func (l *loggingSpanProcessor) Shutdown(ctx context.Context) error   { return nil }
func (l *loggingSpanProcessor) ForceFlush(ctx context.Context) error { return nil }

func (l *loggingSpanProcessor) buildArgs(s sdktrace.ReadOnlySpan) []any {
	args := []any{
		slog.String("name", s.Name()),
	}
	for _, attr := range s.Attributes() {
		key := string(attr.Key)
		value := attr.Value.Emit()
		if !l.verbose && len(value) > 256 {
			continue
		}
		args = append(args, slog.String(key, value))
	}

	return args
}

// NewTracer builds a tracer backed by the logging span processor. Shutdown
// of the provider is the caller's responsibility.
func NewTracer(logger *slog.Logger, verbose bool) (trace.Tracer, *sdktrace.TracerProvider) {
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(&loggingSpanProcessor{verbose: verbose, logger: logger}),
	)
	return provider.Tracer("automation-api"), provider
}
