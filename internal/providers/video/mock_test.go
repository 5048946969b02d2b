package video

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"photoanimator/internal/domain"
)

func testSource(t *testing.T) domain.ImageSource {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for x := 0; x < 8; x++ {
		img.Set(x, x%6, color.RGBA{G: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	src, err := domain.NewImageSource(buf.Bytes(), "image/png", time.Now())
	if err != nil {
		t.Fatalf("NewImageSource: %v", err)
	}
	return *src
}

func testRequest(t *testing.T, format domain.Format) domain.AnimationRequest {
	t.Helper()
	req, err := domain.NewAnimationRequest(3, domain.StyleCinematic, 50, format, "camera slowly zooms in")
	if err != nil {
		t.Fatalf("NewAnimationRequest: %v", err)
	}
	return req
}

func TestMockPipelineContentTypeMatchesFormat(t *testing.T) {
	src := testSource(t)
	p := NewInstantMock()

	for _, format := range domain.Formats() {
		t.Run(string(format), func(t *testing.T) {
			artifact, err := p.Run(context.Background(), src, testRequest(t, format))
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if artifact.ContentType != format.ContentType() {
				t.Fatalf("content type = %q, want %q", artifact.ContentType, format.ContentType())
			}
			if artifact.Format != format || artifact.Size() == 0 {
				t.Fatalf("artifact = %+v", artifact)
			}
			_, name, err := image.DecodeConfig(bytes.NewReader(artifact.Data))
			if err != nil {
				t.Fatalf("placeholder not decodable: %v", err)
			}
			want := "jpeg"
			if format == domain.FormatGIF {
				want = "gif"
			}
			if name != want {
				t.Fatalf("placeholder encoding = %q, want %q", name, want)
			}
		})
	}
}

func TestMockPipelineHonoursCancellation(t *testing.T) {
	p := NewMock(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, testSource(t), testRequest(t, domain.FormatMP4))
	if !errors.Is(err, domain.ErrPipelineUnavailable) {
		t.Fatalf("error = %v, want ErrPipelineUnavailable", err)
	}
}

func TestMockPipelineWaitsLatency(t *testing.T) {
	p := NewMock(20 * time.Millisecond)
	start := time.Now()
	if _, err := p.Run(context.Background(), testSource(t), testRequest(t, domain.FormatWEBM)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("returned after %s, want at least 20ms", elapsed)
	}
}

func TestNewSelectsPipeline(t *testing.T) {
	if _, err := New(Options{Kind: "mock", Latency: time.Millisecond}); err != nil {
		t.Fatalf("mock: %v", err)
	}
	if _, err := New(Options{Kind: "ffmpeg"}); err != nil {
		t.Fatalf("ffmpeg: %v", err)
	}
	if _, err := New(Options{Kind: "remote"}); err == nil {
		t.Fatalf("remote without base url should fail")
	}
	if _, err := New(Options{Kind: "runway"}); err == nil {
		t.Fatalf("unknown kind should fail")
	}
}

func TestExpectedLatencyPerKind(t *testing.T) {
	tests := []struct {
		opts Options
		want time.Duration
	}{
		{opts: Options{Kind: KindMock, Latency: 3 * time.Second, Timeout: 2 * time.Minute}, want: 3 * time.Second},
		{opts: Options{Latency: time.Second}, want: time.Second},
		{opts: Options{Kind: KindRemote, Latency: 3 * time.Second, Timeout: 2 * time.Minute}, want: time.Minute},
		{opts: Options{Kind: KindRemote}, want: remoteEstimate},
		{opts: Options{Kind: "FFMPEG", Latency: 3 * time.Second}, want: ffmpegEstimate},
	}
	for _, tc := range tests {
		if got := ExpectedLatency(tc.opts); got != tc.want {
			t.Errorf("ExpectedLatency(%+v) = %v, want %v", tc.opts, got, tc.want)
		}
	}
}

func TestOutcome(t *testing.T) {
	tests := map[string]error{
		"succeeded":   nil,
		"rejected":    domain.ErrPipelineRejected,
		"unavailable": domain.ErrPipelineUnavailable,
		"canceled":    context.Canceled,
		"error":       errors.New("boom"),
	}
	for want, err := range tests {
		if got := Outcome(err); got != want {
			t.Fatalf("Outcome(%v) = %q, want %q", err, got, want)
		}
	}
}
