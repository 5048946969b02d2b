package studio

import (
	"time"

	"github.com/google/uuid"

	"photoanimator/internal/domain"
)

// Phase is the controller state as seen by the presentation layer.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseAwaitingInput Phase = "awaiting_input"
	PhaseReady         Phase = "ready"
	PhaseRunning       Phase = "running"
	PhaseSucceeded     Phase = "succeeded"
	PhaseFailed        Phase = "failed"
)

// ImageInfo describes the active image without exposing its bytes.
type ImageInfo struct {
	ContentType string             `json:"content_type"`
	Format      domain.ImageFormat `json:"format"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Size        int                `json:"size"`
	SelectedAt  time.Time          `json:"selected_at"`
}

// Snapshot is a consistent copy of the controller state. Artifact is set only
// in PhaseSucceeded and Err only in PhaseFailed.
type Snapshot struct {
	Version         uint64
	Phase           Phase
	Request         domain.AnimationRequest
	Image           *ImageInfo
	JobID           uuid.UUID
	JobStartedAt    time.Time
	JobFinishedAt   time.Time
	Artifact        *domain.Artifact
	Err             error
	Notice          *Notice
	ExpectedLatency time.Duration
}

// Progress approximates completion in percent from elapsed time. It never
// reaches 100 before the job has actually succeeded.
func (s Snapshot) Progress(now time.Time) int {
	switch s.Phase {
	case PhaseSucceeded:
		return 100
	case PhaseRunning:
	default:
		return 0
	}
	expected := s.ExpectedLatency
	if expected <= 0 {
		expected = defaultExpectedLatency
	}
	elapsed := now.Sub(s.JobStartedAt)
	if elapsed <= 0 {
		return 0
	}
	pct := int(elapsed * 100 / expected)
	if pct > 95 {
		pct = 95
	}
	return pct
}

// Reason is the failure text of the last job, empty unless failed.
func (s Snapshot) Reason() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}
