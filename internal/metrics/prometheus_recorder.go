package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	filterResults *prom.CounterVec
	pageRender    prom.Histogram
	pagesSkipped  prom.Counter
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
}

// NewPrometheusRecorder constructs the collectors and registers them with reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		filterResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "codedoc",
			Name:      "filter_results_total",
			Help:      "Code filter applications by stage, language, filter and result",
		}, []string{"stage", "language", "filter", "result"}),
		pageRender: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "codedoc",
			Name:      "page_render_duration_seconds",
			Help:      "Duration of rendering a single page",
			Buckets:   prom.DefBuckets,
		}),
		pagesSkipped: prom.NewCounter(prom.CounterOpts{
			Namespace: "codedoc",
			Name:      "pages_skipped_total",
			Help:      "Pages skipped because their fingerprint was unchanged",
		}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "codedoc",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "codedoc",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.filterResults, pr.pageRender, pr.pagesSkipped, pr.buildDuration, pr.buildOutcome)
	return pr
}

func (p *PrometheusRecorder) IncFilterResult(stage, language, filter string, result ResultLabel) {
	if p == nil {
		return
	}
	p.filterResults.WithLabelValues(stage, language, filter, string(result)).Inc()
}

func (p *PrometheusRecorder) ObservePageRender(d time.Duration) {
	if p == nil {
		return
	}
	p.pageRender.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPagesSkipped() {
	if p == nil {
		return
	}
	p.pagesSkipped.Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}
