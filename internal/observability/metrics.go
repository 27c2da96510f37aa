package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion pipeline and the report engine.
type Metrics struct {
	RawConsumed       prometheus.Counter
	ReadingsStored    prometheus.Counter
	DuplicateReadings prometheus.Counter
	UnknownDevices    prometheus.Counter
	TransformErrors   prometheus.Counter
	ForwardsSent      prometheus.Counter
	ForwardErrors     prometheus.Counter
	PipelineRunning   prometheus.Gauge

	ProcessingDuration prometheus.Histogram

	// Reporting metrics.
	ReportsSent    *prometheus.CounterVec // label: kind={rainfall,waterlevel,arrival}
	DispatchErrors prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus
// registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RawConsumed,
		m.ReadingsStored,
		m.DuplicateReadings,
		m.UnknownDevices,
		m.TransformErrors,
		m.ForwardsSent,
		m.ForwardErrors,
		m.PipelineRunning,
		m.ProcessingDuration,
		m.ReportsSent,
		m.DispatchErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without touching the default registry
// to avoid "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RawConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pbase",
			Name:      "raw_consumed_total",
			Help:      "Total raw payloads taken from the bus or the bulk fetch.",
		}),
		ReadingsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pbase",
			Name:      "readings_stored_total",
			Help:      "Total canonical readings newly persisted.",
		}),
		DuplicateReadings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pbase",
			Name:      "duplicate_readings_total",
			Help:      "Total payloads whose (device, sampling) key already existed.",
		}),
		UnknownDevices: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pbase",
			Name:      "unknown_devices_total",
			Help:      "Total payloads dropped because the serial has no calibration.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pbase",
			Name:      "transform_errors_total",
			Help:      "Total payloads that could not be parsed or transformed.",
		}),
		ForwardsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pbase",
			Name:      "forwards_sent_total",
			Help:      "Total readings successfully pushed downstream.",
		}),
		ForwardErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pbase",
			Name:      "forward_errors_total",
			Help:      "Total best-effort forward attempts that failed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pbase",
			Name:      "pipeline_running",
			Help:      "1 when the listener pipeline is active, 0 when shut down.",
		}),
		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pbase",
			Name:      "processing_duration_seconds",
			Help:      "Duration of one transform-store-forward unit of work.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		ReportsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pbase",
			Name:      "reports_sent_total",
			Help:      "Reports dispatched to tenants by kind.",
		}, []string{"kind"}),
		DispatchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pbase",
			Name:      "dispatch_errors_total",
			Help:      "Report deliveries that failed.",
		}),
	}
}
