package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusIdle      JobStatus = "idle"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal reports whether the status is final for the job.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// Job captures one submission: the image and settings snapshot taken at
// submit time, and the outcome once the pipeline returns.
type Job struct {
	ID         uuid.UUID
	Image      ImageSource
	Request    AnimationRequest
	Status     JobStatus
	Artifact   *Artifact
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Elapsed returns the running time of the job as of now.
func (j Job) Elapsed(now time.Time) time.Duration {
	if !j.FinishedAt.IsZero() {
		return j.FinishedAt.Sub(j.StartedAt)
	}
	if j.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(j.StartedAt)
}
