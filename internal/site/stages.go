package site

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/codedoc/internal/frontmatter"
	"git.home.luguber.info/inful/codedoc/internal/logfields"
)

// StageName identifies a build stage.
type StageName string

const (
	StageDiscover StageName = "discover"
	StageRender   StageName = "render"
	StagePrune    StageName = "prune"
	StageSearch   StageName = "search"
	StageManifest StageName = "manifest"
)

// StageError attributes a build failure to the stage it happened in.
type StageError struct {
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

type stage struct {
	name StageName
	fn   func(ctx context.Context, bs *buildState) error
}

// source is one discovered Markdown page.
type source struct {
	rel string // slash separated path below the input directory
	out string // slash separated output path below the output directory
	doc *frontmatter.Document
}

// buildState carries data between stages of one build.
type buildState struct {
	builder    *Builder
	logger     *slog.Logger
	report     *Report
	configHash string
	pageKey    string // recorded with each page; also covers the revision when it is rendered
	revision   string
	sources    []source
	seen       map[string]struct{}
	searchFile string
	searchData []byte
}

// runStages executes stages in order, recording timings and stopping at the
// first error or cancellation.
func runStages(ctx context.Context, bs *buildState, stages []stage) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return &StageError{Stage: st.name, Err: err}
		}
		t0 := time.Now()
		err := st.fn(ctx, bs)
		dur := time.Since(t0)
		bs.report.StageDurations[st.name] = dur
		bs.logger.Debug("Stage finished",
			logfields.Stage(string(st.name)),
			logfields.DurationMS(float64(dur.Microseconds())/1000))
		if err != nil {
			return &StageError{Stage: st.name, Err: err}
		}
	}
	return nil
}
