package telemetry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func newTestMetrics(t *testing.T) (*LoyaltyMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewLoyaltyMetrics(provider.Meter("test"), zap.NewNop())
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumValue(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewLoyaltyMetrics_NilMeter(t *testing.T) {
	_, err := NewLoyaltyMetrics(nil, nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestLoyaltyMetrics_Counters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordPointsAdded(ctx, 10)
	m.RecordPointsAdded(ctx, 5)
	m.RecordPointsAdjusted(ctx, -7)
	m.RecordPointsAdjusted(ctx, 2)
	m.RecordCustomerRegistered(ctx)

	data := collect(t, reader)
	assert.Equal(t, int64(15), sumValue(t, data["pontos_points_added_total"]))
	assert.Equal(t, int64(9), sumValue(t, data["pontos_points_adjusted_total"]))
	assert.Equal(t, int64(1), sumValue(t, data["pontos_customers_registered_total"]))

	adjusted := data["pontos_points_adjusted_total"].(metricdata.Sum[int64])
	assert.Len(t, adjusted.DataPoints, 2, "one series per direction")

	hist, ok := data["pontos_points_registration_size"].(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
}

type stubTotals struct {
	calls     atomic.Int32
	customers int64
	points    int64
	err       error
}

func (s *stubTotals) Totals(context.Context) (int64, int64, error) {
	s.calls.Add(1)
	return s.customers, s.points, s.err
}

func TestLoyaltyMetrics_PeriodicCollection(t *testing.T) {
	m, reader := newTestMetrics(t)
	provider := &stubTotals{customers: 3, points: 120}

	m.StartPeriodicCollection(context.Background(), provider, time.Hour)
	m.StartPeriodicCollection(context.Background(), provider, time.Hour)
	require.Eventually(t, func() bool { return provider.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	m.Stop()
	m.Stop()

	assert.Equal(t, int32(1), provider.calls.Load(), "second start is ignored")

	data := collect(t, reader)
	gauge, ok := data["pontos_points_outstanding"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(120), gauge.DataPoints[0].Value)
}

func TestLoyaltyMetrics_CollectionErrorIsLogged(t *testing.T) {
	m, reader := newTestMetrics(t)
	provider := &stubTotals{err: errors.New("db down")}

	m.collect(context.Background(), provider)

	data := collect(t, reader)
	assert.NotContains(t, data, "pontos_customers")
}
