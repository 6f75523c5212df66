package batch

import (
	"fmt"
	"time"

	"github.com/conneroisu/virsqr/internal/renderer"
)

// Status is a job outcome.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// JobResult is the outcome of one job.
type JobResult struct {
	ID       string          `json:"id" yaml:"id"`
	Index    int             `json:"index" yaml:"index"`
	Name     string          `json:"name" yaml:"name"`
	Output   string          `json:"output" yaml:"output"`
	Format   renderer.Format `json:"format" yaml:"format"`
	Status   Status          `json:"status" yaml:"status"`
	Bytes    int             `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	Duration time.Duration   `json:"duration_ns,omitempty" yaml:"duration,omitempty"`
	Error    string          `json:"error,omitempty" yaml:"error,omitempty"`

	Err error `json:"-" yaml:"-"`
}

// Summary is the outcome of one manifest run. Jobs are in manifest order.
type Summary struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	Manifest  string        `json:"manifest,omitempty" yaml:"manifest,omitempty"`
	Jobs      []JobResult   `json:"jobs" yaml:"jobs"`
	Succeeded int           `json:"succeeded" yaml:"succeeded"`
	Failed    int           `json:"failed" yaml:"failed"`
	Skipped   int           `json:"skipped" yaml:"skipped"`
	Duration  time.Duration `json:"duration_ns" yaml:"duration"`
}

func newSummary(runID, manifest string, results []JobResult, d time.Duration) *Summary {
	s := &Summary{RunID: runID, Manifest: manifest, Jobs: results, Duration: d}
	for _, r := range results {
		switch r.Status {
		case StatusSucceeded:
			s.Succeeded++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		}
	}
	return s
}

// OK reports whether every job succeeded.
func (s *Summary) OK() bool {
	return s.Failed == 0 && s.Skipped == 0
}

// Err returns nil when every job succeeded, and otherwise an error
// counting the failures and wrapping the first one.
func (s *Summary) Err() error {
	if s.OK() {
		return nil
	}
	for _, r := range s.Jobs {
		if r.Err != nil {
			return fmt.Errorf("%d of %d jobs failed, %d skipped: %s: %w",
				s.Failed, len(s.Jobs), s.Skipped, r.Name, r.Err)
		}
	}
	return fmt.Errorf("%d of %d jobs failed, %d skipped", s.Failed, len(s.Jobs), s.Skipped)
}
