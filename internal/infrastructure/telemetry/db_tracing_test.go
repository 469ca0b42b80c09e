package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint
	Name string
}

func openTracedDB(t *testing.T, cfg DBTracingConfig) (*gorm.DB, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))

	cfg.TracerProvider = tp
	require.NoError(t, RegisterDBTracing(db, cfg, zap.NewNop()))
	return db, recorder
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db, recorder := openTracedDB(t, DBTracingConfig{Enabled: false})
	require.NoError(t, db.Create(&tracedRow{Name: "a"}).Error)
	assert.Empty(t, recorder.Ended())
}

func TestRegisterDBTracing_SpansAndSlowFlag(t *testing.T) {
	// 1ns makes every statement slow
	db, recorder := openTracedDB(t, DBTracingConfig{Enabled: true, SlowQueryThreshold: 1})
	ctx := context.Background()

	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "secret"}).Error)
	var rows []tracedRow
	require.NoError(t, db.WithContext(ctx).Where("name = ?", "secret").Find(&rows).Error)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "gorm.Create", spans[0].Name())
	assert.Equal(t, "gorm.Query", spans[1].Name())

	attrs := map[string]any{}
	for _, kv := range spans[1].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, true, attrs["db.slow_query"])
	assert.NotContains(t, attrs["db.statement"], "secret", "bound values are masked")
}
