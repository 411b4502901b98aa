// Package metrics provides the hooks the builder reports conversion results
// through. The default recorder discards everything; the preview server
// installs a Prometheus-backed one.
package metrics

import "time"

// ResultLabel enumerates the outcomes of a single page conversion.
type ResultLabel string

const (
	ResultConverted ResultLabel = "converted"
	ResultSkipped   ResultLabel = "skipped"
	ResultFailed    ResultLabel = "failed"
)

// Recorder receives conversion metrics.
type Recorder interface {
	ObservePageDuration(d time.Duration)
	IncPageResult(result ResultLabel)
	AddWarnings(n int)
	ObserveBuildDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObservePageDuration(time.Duration)  {}
func (NoopRecorder) IncPageResult(ResultLabel)          {}
func (NoopRecorder) AddWarnings(int)                    {}
func (NoopRecorder) ObserveBuildDuration(time.Duration) {}
