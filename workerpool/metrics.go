package workerpool

import "github.com/prometheus/client_golang/prometheus"

// Collector exposes a Pool's queue depth and pressure ratio as Prometheus
// gauges, computed on each scrape rather than pushed, so it never goes
// stale between scrapes.
type Collector struct {
	pool *Pool

	queueDepth *prometheus.Desc
	pressure   *prometheus.Desc
}

// NewCollector wraps pool for registration with a prometheus.Registerer.
func NewCollector(pool *Pool) *Collector {
	return &Collector{
		pool: pool,
		queueDepth: prometheus.NewDesc(
			"simcore_workerpool_queue_depth",
			"Number of tasks queued or running in the worker pool.",
			nil, nil,
		),
		pressure: prometheus.NewDesc(
			"simcore_workerpool_pressure_ratio",
			"Queue depth divided by queue capacity.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.queueDepth
	ch <- c.pressure
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.queueDepth, prometheus.GaugeValue, float64(c.pool.QueueDepth()))
	ch <- prometheus.MustNewConstMetric(c.pressure, prometheus.GaugeValue, c.pool.PressureRatio())
}
