package domain

import (
	"strings"
	"time"
)

// Artifact is the encoded output of a successful generation job.
type Artifact struct {
	Data        []byte
	ContentType string
	Format      Format
	CreatedAt   time.Time
}

// Size returns the encoded size in bytes.
func (a Artifact) Size() int {
	return len(a.Data)
}

// Filename joins base with the extension of the artifact format. An empty
// base falls back to "animation".
func (a Artifact) Filename(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "animation"
	}
	return strings.TrimSuffix(base, a.Format.Extension()) + a.Format.Extension()
}
