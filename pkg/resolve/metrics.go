package resolve

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the counters and histogram this package emits, mirroring
// the label shape of kubernetes/controller/internal/resolution/cache.go's
// cache-hit/cache-miss/duration block, generalized from "component
// version" labels to this domain's repository/outcome labels. Metrics is
// nil-safe: a *Metrics obtained via NewMetrics(nil) still works, it is
// simply never exposed to a scrape endpoint.
type Metrics struct {
	ResolveRequestsTotal *prometheus.CounterVec
	LocalHitsTotal       *prometheus.CounterVec
	DownloadsTotal       *prometheus.CounterVec
	ResolutionDuration   *prometheus.HistogramVec
}

// NewMetrics builds a Metrics instance and, if reg is non-nil, registers
// it immediately — the same register-at-construction style as the
// teacher's cache.go init().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ResolveRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "artifact_resolver",
			Name:      "resolve_requests_total",
			Help:      "Number of artifact resolution requests processed, by outcome.",
		}, []string{"outcome"}),
		LocalHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "artifact_resolver",
			Name:      "local_hits_total",
			Help:      "Number of artifacts resolved without a remote download, by source.",
		}, []string{"source"}),
		DownloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "artifact_resolver",
			Name:      "downloads_total",
			Help:      "Number of remote downloads attempted, by repository and outcome.",
		}, []string{"repository", "outcome"}),
		ResolutionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "artifact_resolver",
			Name:      "resolution_duration_seconds",
			Help:      "Duration of a full ResolveArtifacts batch call.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.ResolveRequestsTotal, m.LocalHitsTotal, m.DownloadsTotal, m.ResolutionDuration)
	}
	return m
}
