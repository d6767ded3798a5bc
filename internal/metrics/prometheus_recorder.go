package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	buildDuration    prom.Histogram
	buildOutcome     *prom.CounterVec
	pageDispositions *prom.CounterVec
	feedEntries      prom.Gauge
	watchEvents      *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "foliate",
			Name:      "build_duration_seconds",
			Help:      "Total site build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "foliate",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.pageDispositions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "foliate",
			Name:      "page_dispositions_total",
			Help:      "Page counts per build by disposition",
		}, []string{"disposition"})
		pr.feedEntries = prom.NewGauge(prom.GaugeOpts{
			Namespace: "foliate",
			Name:      "feed_entries",
			Help:      "Entries in the Atom feed produced by the last build",
		})
		pr.watchEvents = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "foliate",
			Name:      "watch_events_total",
			Help:      "Filesystem events handled in watch mode by kind",
		}, []string{"kind"})
		reg.MustRegister(pr.buildDuration, pr.buildOutcome, pr.pageDispositions, pr.feedEntries, pr.watchEvents)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddPageDisposition(disposition Disposition, n int) {
	if p == nil || p.pageDispositions == nil || n <= 0 {
		return
	}
	p.pageDispositions.WithLabelValues(string(disposition)).Add(float64(n))
}

func (p *PrometheusRecorder) SetFeedEntries(n int) {
	if p == nil || p.feedEntries == nil {
		return
	}
	p.feedEntries.Set(float64(n))
}

func (p *PrometheusRecorder) IncWatchEvent(kind string) {
	if p == nil || p.watchEvents == nil {
		return
	}
	p.watchEvents.WithLabelValues(kind).Inc()
}
