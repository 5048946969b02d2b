package tui

import (
	"time"

	"github.com/google/uuid"

	"photoanimator/internal/studio"
)

// TickMsg drives snapshot polling.
type TickMsg struct {
	Time time.Time
}

// SnapshotMsg carries the latest controller state.
type SnapshotMsg struct {
	Snapshot studio.Snapshot
}

// ImageLoadedMsg reports the outcome of reading and selecting an image file.
type ImageLoadedMsg struct {
	Path string
	Err  error
}

// SubmittedMsg reports the outcome of a generate command.
type SubmittedMsg struct {
	JobID uuid.UUID
	Err   error
}

// SavedMsg reports where the artifact was written.
type SavedMsg struct {
	Location string
	Err      error
}
