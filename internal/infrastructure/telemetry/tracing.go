package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/pontos/backend/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names spans started by application services
const TracerName = "github.com/pontos/backend"

// Span attribute keys used by the loyalty services
const (
	SpanAttrCustomerID = "customer_id"
	SpanAttrUserID     = "user_id"
	SpanAttrPoints     = "points"
	SpanAttrCreated    = "customer_created"
	SpanAttrAttempt    = "attempt"
)

// StartServiceSpan starts a span named {service}.{method}.
// keyValues are alternating keys and values.
func StartServiceSpan(ctx context.Context, service, method string, keyValues ...any) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(TracerName).Start(ctx, service+"."+method, trace.WithSpanKind(trace.SpanKindInternal))
	SetAttributes(span, keyValues...)
	return ctx, span
}

// SetAttributes adds alternating key/value pairs to span. A trailing key
// without a value is ignored.
func SetAttributes(span trace.Span, keyValues ...any) {
	if !span.IsRecording() {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, toAttribute(key, keyValues[i+1]))
	}
	span.SetAttributes(attrs...)
}

// RecordError marks span failed. Domain errors are expected outcomes, so
// they are recorded as an event with their code and leave the status unset.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		span.AddEvent("domain_error", trace.WithAttributes(
			attribute.String("error.code", de.Code),
			attribute.String("error.message", de.Message),
		))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
