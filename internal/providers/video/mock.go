package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"time"

	"photoanimator/internal/domain"
)

// DefaultMockLatency is the simulated processing time.
const DefaultMockLatency = 3 * time.Second

// MockPipeline stands in for a real model call. After a fixed latency it
// re-encodes the source image unchanged: JPEG at quality 90 for video
// formats, a single-frame GIF for gif. No motion is applied.
type MockPipeline struct {
	latency time.Duration
	now     func() time.Time
}

func NewMock(latency time.Duration) *MockPipeline {
	if latency < 0 {
		latency = 0
	}
	if latency == 0 {
		latency = DefaultMockLatency
	}
	return &MockPipeline{latency: latency, now: time.Now}
}

// NewInstantMock returns a mock with no simulated latency.
func NewInstantMock() *MockPipeline {
	return &MockPipeline{now: time.Now}
}

func (m *MockPipeline) Run(ctx context.Context, img domain.ImageSource, req domain.AnimationRequest) (*domain.Artifact, error) {
	if m.latency > 0 {
		timer := time.NewTimer(m.latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", domain.ErrPipelineUnavailable, ctx.Err())
		}
	}

	data, err := reencode(img.Data, req.Format())
	if err != nil {
		return nil, err
	}
	return &domain.Artifact{
		Data:        data,
		ContentType: req.Format().ContentType(),
		Format:      req.Format(),
		CreatedAt:   m.now(),
	}, nil
}

func reencode(src []byte, format domain.Format) ([]byte, error) {
	decoded, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: decode source: %v", domain.ErrPipelineRejected, err)
	}
	var buf bytes.Buffer
	if format == domain.FormatGIF {
		err = gif.Encode(&buf, decoded, nil)
	} else {
		err = jpeg.Encode(&buf, decoded, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		return nil, fmt.Errorf("%w: encode placeholder: %v", domain.ErrPipelineRejected, err)
	}
	return buf.Bytes(), nil
}

var _ Pipeline = (*MockPipeline)(nil)
