package scan

import (
	"time"

	"depsweep/internal/deps"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts scan outcomes. A nil *Metrics records nothing.
type Metrics struct {
	modulesScanned         prometheus.Counter
	unusedDependencies     *prometheus.CounterVec
	unresolvedDependencies prometheus.Counter
	unparsableSources      prometheus.Counter
	scanDuration           prometheus.Histogram
}

// NewMetrics creates the scan collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		modulesScanned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "depsweep_modules_scanned_total",
				Help: "Number of modules scanned.",
			},
		),
		unusedDependencies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "depsweep_unused_dependencies_total",
				Help: "Number of unused dependencies found, by build system.",
			},
			[]string{"dependency_type"},
		),
		unresolvedDependencies: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "depsweep_unresolved_dependencies_total",
				Help: "Number of declared dependencies whose symbols could not be resolved.",
			},
		),
		unparsableSources: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "depsweep_unparsable_sources_total",
				Help: "Number of source files skipped because they failed to parse.",
			},
		),
		scanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "depsweep_scan_duration_seconds",
				Help:    "Time taken to scan a project.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.modulesScanned,
			m.unusedDependencies,
			m.unresolvedDependencies,
			m.unparsableSources,
			m.scanDuration,
		)
	}
	return m
}

func (m *Metrics) moduleScanned() {
	if m != nil {
		m.modulesScanned.Inc()
	}
}

func (m *Metrics) unused(t deps.DependencyType) {
	if m != nil {
		m.unusedDependencies.WithLabelValues(string(t)).Inc()
	}
}

func (m *Metrics) unresolved(n int) {
	if m != nil {
		m.unresolvedDependencies.Add(float64(n))
	}
}

func (m *Metrics) unparsable(n int) {
	if m != nil {
		m.unparsableSources.Add(float64(n))
	}
}

func (m *Metrics) observeScan(d time.Duration) {
	if m != nil {
		m.scanDuration.Observe(d.Seconds())
	}
}
