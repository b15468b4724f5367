package site

import (
	"time"

	"git.home.luguber.info/inful/codedoc/internal/metrics"
)

// Report summarizes one build.
type Report struct {
	BuildID        string
	Start          time.Time
	End            time.Time
	Pages          int      // sources discovered and eligible for output
	Rendered       []string // output paths written by this build
	Skipped        []string // output paths left untouched because nothing changed
	Removed        []string // output paths deleted because their source is gone
	SearchEntries  int
	StageDurations map[StageName]time.Duration
	Outcome        metrics.BuildOutcomeLabel
}

func newReport(buildID string) *Report {
	return &Report{
		BuildID:        buildID,
		Start:          time.Now(),
		StageDurations: map[StageName]time.Duration{},
	}
}

// Duration is the wall time of the build, or the time so far while running.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}
