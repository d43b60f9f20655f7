// Package metrics records collector runs and pushes them to a Prometheus Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/shopspring/decimal"

	"shinacap/internal/model"
)

const (
	namespace = "shinacap"
	// JobName groups pushed series on the gateway.
	JobName = "shinacap"
)

// Metrics holds the gauges of one run. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry
	gateway  string

	MarketCapETH   prometheus.Gauge
	MarketCapUSD   prometheus.Gauge
	BurntAmount    prometheus.Gauge
	ETHUSD         prometheus.Gauge
	ArchiveRecords prometheus.Gauge
	LastSuccess    prometheus.Gauge
	RunDuration    *prometheus.HistogramVec
}

// New creates a Metrics instance on a private registry. An empty gateway
// disables Push.
func New(gateway string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		gateway:  gateway,
		MarketCapETH: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "market_cap_eth",
			Help:      "Market cap of the latest snapshot in quote currency",
		}),
		MarketCapUSD: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "market_cap_usd",
			Help:      "Market cap of the latest snapshot in USD",
		}),
		BurntAmount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "burnt_amount",
			Help:      "Base token balance of the dead wallet",
		}),
		ETHUSD: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "eth_usd",
			Help:      "USD per quote currency reported by the oracle",
		}),
		ArchiveRecords: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "archive_records",
			Help:      "Number of records in the current yearly archive",
		}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of collector runs",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"status"}),
	}
}

// ObserveSnapshot copies the snapshot values into gauges. Unparseable values are skipped.
func (m *Metrics) ObserveSnapshot(data model.MarketData) {
	if m == nil {
		return
	}
	setDecimal(m.MarketCapETH, data.MarketCapInBaseCurrency)
	setDecimal(m.MarketCapUSD, data.USDMarketCap)
	setDecimal(m.BurntAmount, data.BurntAmount)
	setDecimal(m.ETHUSD, data.USDPerQuoteCurrency)
}

// ObserveArchive records the size of the yearly archive after the append.
func (m *Metrics) ObserveArchive(records int) {
	if m == nil {
		return
	}
	m.ArchiveRecords.Set(float64(records))
}

// ObserveRun records the run duration, and the completion time on success.
func (m *Metrics) ObserveRun(started time.Time, runErr error) {
	if m == nil {
		return
	}
	status := "success"
	if runErr != nil {
		status = "failure"
	}
	m.RunDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
	if runErr == nil {
		m.LastSuccess.SetToCurrentTime()
	}
}

// Push sends every series to the gateway, replacing the previous push of the job.
func (m *Metrics) Push(ctx context.Context) error {
	if m == nil || m.gateway == "" {
		return nil
	}
	if err := push.New(m.gateway, JobName).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

func setDecimal(g prometheus.Gauge, value string) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return
	}
	g.Set(d.InexactFloat64())
}
