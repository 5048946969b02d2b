package video

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"photoanimator/internal/domain"
)

// Pipeline turns a source image and a settings snapshot into a rendered
// artifact. Implementations report failures wrapping
// domain.ErrPipelineUnavailable or domain.ErrPipelineRejected and never
// retry on their own.
type Pipeline interface {
	Run(ctx context.Context, img domain.ImageSource, req domain.AnimationRequest) (*domain.Artifact, error)
}

// Kind selects a Pipeline implementation.
type Kind string

const (
	KindMock   Kind = "mock"
	KindRemote Kind = "remote"
	KindFFmpeg Kind = "ffmpeg"
)

// Options configures New.
type Options struct {
	Kind       Kind
	Latency    time.Duration
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	FPS        int
	Width      int
	Height     int
	TempDir    string
	Logger     *zerolog.Logger
}

// New builds the configured pipeline wrapped with metrics.
func New(opts Options) (Pipeline, error) {
	var p Pipeline
	switch Kind(strings.ToLower(string(opts.Kind))) {
	case KindMock, "":
		p = NewMock(opts.Latency)
	case KindRemote:
		remote, err := NewRemote(RemoteOptions{
			BaseURL:    opts.BaseURL,
			APIKey:     opts.APIKey,
			Timeout:    opts.Timeout,
			HTTPClient: opts.HTTPClient,
			Logger:     opts.Logger,
		})
		if err != nil {
			return nil, err
		}
		p = remote
	case KindFFmpeg:
		p = NewStillMotion(StillMotionOptions{
			FPS:     opts.FPS,
			Width:   opts.Width,
			Height:  opts.Height,
			TempDir: opts.TempDir,
			Logger:  opts.Logger,
		})
	default:
		return nil, fmt.Errorf("video: unknown pipeline %q", opts.Kind)
	}
	name := string(opts.Kind)
	if name == "" {
		name = string(KindMock)
	}
	return Instrumented(name, p), nil
}

// ExpectedLatency estimates how long one job of the configured kind takes,
// for progress reporting. Only the mock's latency is known exactly; a remote
// backend is assumed to answer within half its timeout and a local render
// within ffmpegEstimate.
func ExpectedLatency(opts Options) time.Duration {
	switch Kind(strings.ToLower(string(opts.Kind))) {
	case KindRemote:
		if opts.Timeout > 0 {
			return opts.Timeout / 2
		}
		return remoteEstimate
	case KindFFmpeg:
		return ffmpegEstimate
	default:
		return opts.Latency
	}
}

const (
	remoteEstimate = 30 * time.Second
	ffmpegEstimate = 10 * time.Second
)

func loggerOrDiscard(l *zerolog.Logger) *zerolog.Logger {
	if l != nil {
		return l
	}
	discard := zerolog.New(io.Discard)
	return &discard
}
