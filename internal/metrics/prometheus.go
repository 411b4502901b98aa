package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	pageDuration  prom.Histogram
	pageResults   *prom.CounterVec
	warnings      prom.Counter
	buildDuration prom.Histogram
}

// NewPrometheusRecorder creates the metrics and registers them with reg. A nil
// reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		pageDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "pagenerator",
			Name:      "page_duration_seconds",
			Help:      "Time spent rendering a single page",
			Buckets:   prom.DefBuckets,
		}),
		pageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pagenerator",
			Name:      "page_results_total",
			Help:      "Page conversions by outcome",
		}, []string{"result"}),
		warnings: prom.NewCounter(prom.CounterOpts{
			Namespace: "pagenerator",
			Name:      "meta_tag_warnings_total",
			Help:      "Unsupported metadata tag warnings emitted",
		}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "pagenerator",
			Name:      "build_duration_seconds",
			Help:      "Duration of a full tree conversion",
			Buckets:   prom.DefBuckets,
		}),
	}
	reg.MustRegister(pr.pageDuration, pr.pageResults, pr.warnings, pr.buildDuration)
	return pr
}

func (p *PrometheusRecorder) ObservePageDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.pageDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPageResult(result ResultLabel) {
	if p == nil {
		return
	}
	p.pageResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) AddWarnings(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.warnings.Add(float64(n))
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

// HTTPHandler serves the metrics registered in reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
