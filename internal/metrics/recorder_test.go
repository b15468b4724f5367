package metrics

import (
	"testing"
	"time"
)

// Compile-time interface checks.
var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncFilterResult("pre", "c++", "strip_doc_macros", ResultSuccess)
	r.ObservePageRender(time.Millisecond)
	r.IncPagesSkipped()
	r.ObserveBuildDuration(time.Second)
	r.IncBuildOutcome(BuildOutcomeSuccess)
}

func TestPrometheusRecorder_NilReceiver(t *testing.T) {
	var p *PrometheusRecorder
	p.IncFilterResult("pre", "c++", "x", ResultFailed)
	p.ObservePageRender(time.Millisecond)
	p.IncPagesSkipped()
	p.ObserveBuildDuration(time.Second)
	p.IncBuildOutcome(BuildOutcomeFailed)
}
