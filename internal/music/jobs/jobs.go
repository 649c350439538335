package jobs

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"tunesmith/internal/music/track"
)

// Status is the lifecycle stage of a generation job.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusRunning   Status = "running"
	StatusReady     Status = "ready"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed_out"
)

// ErrGenerationTimeout is returned when a job never reaches a terminal
// state within the configured maximum wait.
var ErrGenerationTimeout = errors.New("generation timed out")

// GenerationError is a terminal failure reported by the generation
// service itself.
type GenerationError struct {
	Reason string
}

func (e *GenerationError) Error() string {
	if e.Reason == "" {
		return "generation failed"
	}
	return fmt.Sprintf("generation failed: %s", e.Reason)
}

// Job tracks one outstanding generation request. The id is set once on
// submission; status transitions are driven only by poll responses.
type Job struct {
	ID     string
	Prompt string

	mu           sync.Mutex
	status       Status
	result       *track.Track
	err          error
	createdAt    time.Time
	lastPolledAt time.Time
}

// Status returns the job's current lifecycle stage.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// CreatedAt returns the submission time.
func (j *Job) CreatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.createdAt
}

// LastPolledAt returns the time of the most recent poll response.
func (j *Job) LastPolledAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastPolledAt
}

func (j *Job) setPolled(now time.Time) {
	j.mu.Lock()
	j.lastPolledAt = now
	if j.status == StatusSubmitted {
		j.status = StatusRunning
	}
	j.mu.Unlock()
}

func (j *Job) finish(status Status, result *track.Track, err error) {
	j.mu.Lock()
	j.status = status
	j.result = result
	j.err = err
	j.mu.Unlock()
}

// terminal returns the job's outcome once it has reached a terminal
// state, or ok=false while it is still in flight.
func (j *Job) terminal() (trk *track.Track, err error, ok bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	switch j.status {
	case StatusReady, StatusFailed, StatusTimedOut:
		return j.result, j.err, true
	}
	return nil, nil, false
}
