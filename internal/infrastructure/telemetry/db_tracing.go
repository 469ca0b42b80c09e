package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls gorm span instrumentation
type DBTracingConfig struct {
	Enabled bool
	// IncludeQueryVariables puts bound values into db.statement.
	// They can hold CPFs and emails, so keep it off outside development.
	IncludeQueryVariables bool
	SlowQueryThreshold    time.Duration
	// TracerProvider overrides the global provider
	TracerProvider trace.TracerProvider
}

// DefaultDBTracingConfig returns tracing without query variables and a 200ms slow threshold
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThreshold: 200 * time.Millisecond,
	}
}

type queryStartKey struct{}

// gormRegister is satisfied by gorm's callback processors and callbacks
type gormRegister interface {
	Register(name string, fn func(*gorm.DB)) error
}

// RegisterDBTracing installs otelgorm on db plus callbacks that flag slow
// statements on the otelgorm span
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = DefaultDBTracingConfig().SlowQueryThreshold
	}

	opts := []otelgorm.Option{}
	if !cfg.IncludeQueryVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
	}
	after := slowQueryCallback(cfg.SlowQueryThreshold)

	cb := db.Callback()
	// The after hooks must run while the otelgorm span is still open.
	hooks := []struct {
		reg  gormRegister
		name string
		fn   func(*gorm.DB)
	}{
		{cb.Create().Before("gorm:create"), "pontos:timing_create", before},
		{cb.Query().Before("gorm:query"), "pontos:timing_query", before},
		{cb.Update().Before("gorm:update"), "pontos:timing_update", before},
		{cb.Delete().Before("gorm:delete"), "pontos:timing_delete", before},
		{cb.Row().Before("gorm:row"), "pontos:timing_row", before},
		{cb.Raw().Before("gorm:raw"), "pontos:timing_raw", before},
		{cb.Create().After("gorm:create").Before("otel:after:create"), "pontos:slow_create", after},
		{cb.Query().After("gorm:query").Before("otel:after:select"), "pontos:slow_query", after},
		{cb.Update().After("gorm:update").Before("otel:after:update"), "pontos:slow_update", after},
		{cb.Delete().After("gorm:delete").Before("otel:after:delete"), "pontos:slow_delete", after},
		{cb.Row().After("gorm:row").Before("otel:after:row"), "pontos:slow_row", after},
		{cb.Raw().After("gorm:raw").Before("otel:after:raw"), "pontos:slow_raw", after},
	}
	for _, h := range hooks {
		if err := h.reg.Register(h.name, h.fn); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.Bool("query_variables", cfg.IncludeQueryVariables),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold),
	)
	return nil
}

func slowQueryCallback(threshold time.Duration) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}
		start, ok := ctx.Value(queryStartKey{}).(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(start)
		if elapsed < threshold {
			return
		}
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("threshold_ms", threshold.Milliseconds()),
		))
	}
}
