package metrics

import "time"

// ResultLabel enumerates filter result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// BuildOutcomeLabel enumerates final build outcomes.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess BuildOutcomeLabel = "success"
	BuildOutcomeFailed  BuildOutcomeLabel = "failed"
)

// Recorder defines observability hooks for filters and builds.
type Recorder interface {
	IncFilterResult(stage, language, filter string, result ResultLabel)
	ObservePageRender(d time.Duration)
	IncPagesSkipped()
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncFilterResult(string, string, string, ResultLabel) {}
func (NoopRecorder) ObservePageRender(time.Duration)                      {}
func (NoopRecorder) IncPagesSkipped()                                     {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)                   {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)                    {}
