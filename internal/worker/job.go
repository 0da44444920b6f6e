package worker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the lifecycle state of a job.
type State string

const (
	StateReady     State = "ready"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Status is a point-in-time snapshot of a job, safe to hand out to
// callers while the job keeps running.
type Status struct {
	ID           string
	Kind         string
	ToolpathName string
	State        State
	Progress     float64
	CurrentLine  int
	TotalLines   int
	StartedAt    time.Time
	FinishedAt   time.Time
	Error        string
}

// Job is a background compile or analyze run with progress tracking.
type Job struct {
	id           string
	kind         string
	toolpathName string

	mu          sync.Mutex
	state       State
	currentLine int
	totalLines  int
	startedAt   time.Time
	finishedAt  time.Time
	err         error

	cancel context.CancelFunc
	done   chan struct{}
}

// ID returns the job identifier.
func (j *Job) ID() string { return j.id }

// Status returns a snapshot of the job.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()

	s := Status{
		ID:           j.id,
		Kind:         j.kind,
		ToolpathName: j.toolpathName,
		State:        j.state,
		CurrentLine:  j.currentLine,
		TotalLines:   j.totalLines,
		StartedAt:    j.startedAt,
		FinishedAt:   j.finishedAt,
	}
	if j.totalLines > 0 {
		s.Progress = float64(j.currentLine) / float64(j.totalLines)
	}
	if j.err != nil {
		s.Error = j.err.Error()
	}
	return s
}

// Wait blocks until the job reaches a terminal state or the context is
// cancelled. The job itself keeps running if only the wait is abandoned.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel requests cancellation. The job stops at the next chunk
// boundary.
func (j *Job) Cancel() {
	j.cancel()
}

func (j *Job) start() {
	j.mu.Lock()
	j.state = StateRunning
	j.startedAt = time.Now()
	j.mu.Unlock()
}

func (j *Job) setTotal(total int) {
	j.mu.Lock()
	j.totalLines = total
	j.mu.Unlock()
}

func (j *Job) setProgress(current int) {
	j.mu.Lock()
	j.currentLine = current
	j.mu.Unlock()
}

func (j *Job) finish(err error) {
	j.mu.Lock()
	j.finishedAt = time.Now()
	switch {
	case err == nil:
		j.state = StateCompleted
		j.currentLine = j.totalLines
	case errors.Is(err, context.Canceled):
		j.state = StateCancelled
		j.err = err
	default:
		j.state = StateFailed
		j.err = err
	}
	j.mu.Unlock()
	close(j.done)
}
