package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"photoanimator/internal/domain"
)

// ArtifactStore persists rendered artifacts.
type ArtifactStore interface {
	Write(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Location(key string) string
}

// ArtifactKey is the storage key of a job's artifact.
func ArtifactKey(jobID uuid.UUID, format domain.Format) string {
	return "artifacts/" + jobID.String() + format.Extension()
}

// Options selects and configures a driver.
type Options struct {
	Driver string
	Path   string
	S3     S3Config
}

// Open builds the store for the configured driver: "fs" or "s3".
func Open(ctx context.Context, opts Options) (ArtifactStore, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", "fs", "filesystem":
		return NewFileStore(opts.Path)
	case "s3":
		return NewS3Store(ctx, opts.S3)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", opts.Driver)
	}
}

var (
	_ ArtifactStore = (*FileStore)(nil)
	_ ArtifactStore = (*S3Store)(nil)
)
