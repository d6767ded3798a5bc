// Package metrics records build observability data. Components receive a
// Recorder by injection; the zero-cost NoopRecorder is the default so callers
// never need nil checks.
package metrics

import "time"

// BuildOutcomeLabel classifies how a build finished.
type BuildOutcomeLabel string

const (
	OutcomeSuccess BuildOutcomeLabel = "success"
	OutcomeFailed  BuildOutcomeLabel = "failed"
)

// Disposition classifies what happened to a page during a build.
type Disposition string

const (
	PageRebuilt Disposition = "rebuilt"
	PageCached  Disposition = "cached"
	PageSkipped Disposition = "skipped"
)

// Recorder is the metrics sink for the build pipeline.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	AddPageDisposition(disposition Disposition, n int)
	SetFeedEntries(n int)
	IncWatchEvent(kind string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration)    {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)     {}
func (NoopRecorder) AddPageDisposition(Disposition, int)   {}
func (NoopRecorder) SetFeedEntries(int)                    {}
func (NoopRecorder) IncWatchEvent(string)                  {}
