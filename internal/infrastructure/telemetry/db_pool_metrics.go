package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is a snapshot of the database connection pool
type PoolStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}

// dbPoolCollector reads the pool on every scrape so the gauges never go stale
type dbPoolCollector struct {
	stats        func() (PoolStats, error)
	connections  *prometheus.Desc
	maxOpen      *prometheus.Desc
	waitCount    *prometheus.Desc
	waitDuration *prometheus.Desc
}

// RegisterDBPoolMetrics exposes connection pool gauges on reg. A failing
// stats call skips the pool series for that scrape.
func RegisterDBPoolMetrics(reg prometheus.Registerer, stats func() (PoolStats, error)) error {
	return reg.Register(&dbPoolCollector{
		stats: stats,
		connections: prometheus.NewDesc("salesflow_db_pool_connections",
			"Database connections by state", []string{"state"}, nil),
		maxOpen: prometheus.NewDesc("salesflow_db_pool_connections_max",
			"Maximum number of open database connections", nil, nil),
		waitCount: prometheus.NewDesc("salesflow_db_pool_wait_total",
			"Connections waited for because the pool was exhausted", nil, nil),
		waitDuration: prometheus.NewDesc("salesflow_db_pool_wait_seconds_total",
			"Time spent waiting for a free connection", nil, nil),
	})
}

func (c *dbPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.connections
	ch <- c.maxOpen
	ch <- c.waitCount
	ch <- c.waitDuration
}

func (c *dbPoolCollector) Collect(ch chan<- prometheus.Metric) {
	s, err := c.stats()
	if err != nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.connections, prometheus.GaugeValue, float64(s.InUse), "in_use")
	ch <- prometheus.MustNewConstMetric(c.connections, prometheus.GaugeValue, float64(s.Idle), "idle")
	ch <- prometheus.MustNewConstMetric(c.maxOpen, prometheus.GaugeValue, float64(s.MaxOpenConnections))
	ch <- prometheus.MustNewConstMetric(c.waitCount, prometheus.CounterValue, float64(s.WaitCount))
	ch <- prometheus.MustNewConstMetric(c.waitDuration, prometheus.CounterValue, s.WaitDuration.Seconds())
}
