package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// LoyaltyStatsProvider reports program-wide totals for periodic gauges
type LoyaltyStatsProvider interface {
	Totals(ctx context.Context) (customers int64, points int64, err error)
}

// LoyaltyMetrics counts points activity and samples program totals
type LoyaltyMetrics struct {
	logger *zap.Logger

	pointsAdded         *Counter
	pointsAdjusted      *Counter
	registrationSize    *Histogram
	customersRegistered *Counter
	customersTotal      *Gauge
	pointsOutstanding   *Gauge

	stopCh      chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
	wg          sync.WaitGroup
}

// NewLoyaltyMetrics registers the loyalty instruments on meter
func NewLoyaltyMetrics(meter metric.Meter, logger *zap.Logger) (*LoyaltyMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &LoyaltyMetrics{logger: logger, stopCh: make(chan struct{})}

	var err error
	if m.pointsAdded, err = NewCounter(meter, "pontos_points_added_total", "Points credited through registrations", "{points}"); err != nil {
		return nil, err
	}
	if m.pointsAdjusted, err = NewCounter(meter, "pontos_points_adjusted_total", "Absolute points changed by operator edits", "{points}"); err != nil {
		return nil, err
	}
	if m.registrationSize, err = NewHistogram(meter, "pontos_points_registration_size", "Points per registration", "{points}",
		1, 5, 10, 50, 100, 500, 1000, 10000); err != nil {
		return nil, err
	}
	if m.customersRegistered, err = NewCounter(meter, "pontos_customers_registered_total", "Customers created by a first registration", "{customers}"); err != nil {
		return nil, err
	}
	if m.customersTotal, err = NewGauge(meter, "pontos_customers", "Customers on record", "{customers}"); err != nil {
		return nil, err
	}
	if m.pointsOutstanding, err = NewGauge(meter, "pontos_points_outstanding", "Sum of all customer balances", "{points}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordPointsAdded counts a registration
func (m *LoyaltyMetrics) RecordPointsAdded(ctx context.Context, points int64) {
	m.pointsAdded.Add(ctx, points)
	m.registrationSize.Record(ctx, points)
}

// RecordPointsAdjusted counts an operator edit. The sign goes to the
// direction attribute since counters only grow.
func (m *LoyaltyMetrics) RecordPointsAdjusted(ctx context.Context, delta int64) {
	direction := "up"
	if delta < 0 {
		direction = "down"
		delta = -delta
	}
	m.pointsAdjusted.Add(ctx, delta, AttrDirection.String(direction))
}

// RecordCustomerRegistered counts a new customer
func (m *LoyaltyMetrics) RecordCustomerRegistered(ctx context.Context) {
	m.customersRegistered.Inc(ctx)
}

// StartPeriodicCollection samples totals from provider every interval until
// Stop is called or ctx ends. Only the first call starts a collector.
func (m *LoyaltyMetrics) StartPeriodicCollection(ctx context.Context, provider LoyaltyStatsProvider, interval time.Duration) {
	m.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		m.wg.Add(1)
		go m.collectLoop(ctx, provider, interval)
	})
}

func (m *LoyaltyMetrics) collectLoop(ctx context.Context, provider LoyaltyStatsProvider, interval time.Duration) {
	defer m.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.collect(ctx, provider)
	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collect(ctx, provider)
		}
	}
}

func (m *LoyaltyMetrics) collect(ctx context.Context, provider LoyaltyStatsProvider) {
	customers, points, err := provider.Totals(ctx)
	if err != nil {
		m.logger.Warn("Failed to collect loyalty totals", zap.Error(err))
		return
	}
	m.customersTotal.Record(ctx, customers)
	m.pointsOutstanding.Record(ctx, points)
}

// Stop ends periodic collection and waits for the collector to exit
func (m *LoyaltyMetrics) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}
