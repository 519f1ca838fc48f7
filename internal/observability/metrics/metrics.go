package metrics

import "github.com/prometheus/client_golang/prometheus"

// WorkflowMetrics exposes counters/histograms for the gap-fill workflow.
type WorkflowMetrics struct {
	fetchTotal      *prometheus.CounterVec
	fetchLatency    prometheus.Histogram
	outreachTotal   *prometheus.CounterVec
	resolutionTotal *prometheus.CounterVec
}

func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	m := &WorkflowMetrics{
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routefill",
			Subsystem: "gapfill",
			Name:      "fetch_total",
			Help:      "Total candidate fetch attempts against the optimizer",
		}, []string{"status"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "routefill",
			Subsystem: "gapfill",
			Name:      "fetch_latency_seconds",
			Help:      "Latency of optimizer candidate fetches",
			Buckets:   prometheus.DefBuckets,
		}),
		outreachTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routefill",
			Subsystem: "outreach",
			Name:      "send_total",
			Help:      "Total outreach send attempts",
		}, []string{"status", "override"}),
		resolutionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routefill",
			Subsystem: "schedule",
			Name:      "provider_resolution_total",
			Help:      "Provider id resolutions by cache outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.fetchTotal, m.fetchLatency, m.outreachTotal, m.resolutionTotal)
	return m
}

func (m *WorkflowMetrics) ObserveFetch(status string, seconds float64) {
	if m == nil {
		return
	}
	m.fetchTotal.WithLabelValues(status).Inc()
	m.fetchLatency.Observe(seconds)
}

func (m *WorkflowMetrics) ObserveOutreach(status string, override bool) {
	if m == nil {
		return
	}
	label := "false"
	if override {
		label = "true"
	}
	m.outreachTotal.WithLabelValues(status, label).Inc()
}

func (m *WorkflowMetrics) ObserveResolution(outcome string) {
	if m == nil {
		return
	}
	m.resolutionTotal.WithLabelValues(outcome).Inc()
}
