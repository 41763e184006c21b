package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/domsync/pkg/morph"
)

// Default tracer name for domsync passes.
const defaultTracerName = "domsync"

// SpanName is the name of the span started for every pass.
const SpanName = "domsync.reconcile"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "domsync").
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: the global provider from otel.GetTracerProvider.
	TracerProvider trace.TracerProvider

	// Filter determines which passes to trace, by host range.
	// If nil, all passes are traced.
	Filter func(dst morph.Range) bool

	// AttributeExtractor adds custom attributes to each span.
	AttributeExtractor func(ctx context.Context, dst, cand morph.Range) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithRangeFilter sets a filter function for passes.
func WithRangeFilter(filter func(dst morph.Range) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(ctx context.Context, dst, cand morph.Range) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// OpenTelemetry creates middleware that traces every reconciliation pass.
//
// The middleware:
//   - Creates a span per pass carrying the host range kind
//   - Passes the span context down to inner middleware
//   - Records errors, their domsync code, and sets span status
//   - Records the pass statistics as span attributes
//
// The tracer comes from the global OpenTelemetry tracer provider unless
// WithTracerProvider is given. Configure it in main() before reconciling:
//
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) morph.Middleware {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	tracer := config.TracerProvider.Tracer(config.TracerName)

	return func(next morph.PassFunc) morph.PassFunc {
		return func(ctx context.Context, dst, cand morph.Range) (morph.Stats, error) {
			if config.Filter != nil && !config.Filter(dst) {
				return next(ctx, dst, cand)
			}

			attrs := []attribute.KeyValue{
				attribute.String("domsync.range", dst.Kind().String()),
			}
			if config.AttributeExtractor != nil {
				attrs = append(attrs, config.AttributeExtractor(ctx, dst, cand)...)
			}

			ctx, span := tracer.Start(ctx, SpanName,
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			stats, err := next(ctx, dst, cand)

			span.SetAttributes(
				attribute.Int("domsync.inserted", stats.Inserted),
				attribute.Int("domsync.removed", stats.Removed),
				attribute.Int("domsync.text_updated", stats.TextUpdated),
				attribute.Int("domsync.attributes_changed", stats.AttributesChanged),
				attribute.Int("domsync.values_applied", stats.ValuesApplied),
				attribute.Int("domsync.islands_matched", stats.IslandsMatched),
				attribute.Int("domsync.mutations", stats.Mutations()),
			)

			if err != nil {
				span.RecordError(err)
				span.SetAttributes(attribute.String("domsync.error_code", errorCode(err)))
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}

			return stats, err
		}
	}
}
