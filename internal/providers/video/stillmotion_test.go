package video

import (
	"context"
	"errors"
	"strings"
	"testing"

	"photoanimator/internal/domain"
)

// filterGraph returns the -filter_complex value of the compiled command.
func filterGraph(t *testing.T, args []string) string {
	t.Helper()
	for i, a := range args {
		if a == "-filter_complex" && i+1 < len(args) {
			return args[i+1]
		}
	}
	t.Fatalf("no filter graph in %v", args)
	return ""
}

func motionArgs(format domain.Format, p MotionParams) []string {
	return MotionStream(context.Background(), "in.png", "out"+format.Extension(), format, p).GetArgs()
}

func TestMotionStream(t *testing.T) {
	p := MotionParams{Width: 640, Height: 360, FPS: 25, Duration: 4, Style: domain.StyleDynamic, Intensity: 100}
	args := motionArgs(domain.FormatMP4, p)
	graph := filterGraph(t, args)

	for _, want := range []string{
		"[0]scale=1280:720:force_original_aspect_ratio=decrease",
		"pad=1280:720:(ow-iw)/2:(oh-ih)/2",
		"zoompan=d=100:fps=25:s=640x360:x=iw-(iw/zoom):y=0:z=min(zoom+0.00300\\,1.300)",
		"scale=640:360",
	} {
		if !strings.Contains(graph, want) {
			t.Fatalf("graph %q should contain %q", graph, want)
		}
	}

	joined := strings.Join(args, " ")
	if !strings.HasPrefix(joined, "-loop 1 -i in.png") {
		t.Fatalf("input should loop the still: %s", joined)
	}
	if !strings.Contains(joined, "-c:v libx264") || !strings.Contains(joined, "-t 4") {
		t.Fatalf("unexpected output args: %s", joined)
	}
	if args[len(args)-1] != "-y" || args[len(args)-2] != "out.mp4" {
		t.Fatalf("command should overwrite out.mp4: %s", joined)
	}
}

func TestMotionStreamZeroIntensityIsStatic(t *testing.T) {
	graph := filterGraph(t, motionArgs(domain.FormatMP4, MotionParams{Width: 320, Height: 240, FPS: 10, Duration: 2, Style: domain.StyleSmooth, Intensity: 0}))
	if !strings.Contains(graph, "z=min(zoom+0.00000\\,1.000)") {
		t.Fatalf("zero intensity should not zoom: %s", graph)
	}
}

func TestMotionStreamPeakIsCapped(t *testing.T) {
	graph := filterGraph(t, motionArgs(domain.FormatMP4, MotionParams{Width: 320, Height: 240, FPS: 30, Duration: 10, Style: domain.StyleDramatic, Intensity: 100}))
	if !strings.Contains(graph, "\\,1.500)") {
		t.Fatalf("zoom peak should be capped at 1.5: %s", graph)
	}
}

func TestMotionStreamPerFormat(t *testing.T) {
	p := MotionParams{Width: 320, Height: 240, FPS: 10, Duration: 2, Style: domain.StyleCinematic, Intensity: 50}

	if joined := strings.Join(motionArgs(domain.FormatWEBM, p), " "); !strings.Contains(joined, "-c:v libvpx-vp9") {
		t.Fatalf("webm codec missing: %s", joined)
	}
	gif := motionArgs(domain.FormatGIF, p)
	graph := filterGraph(t, gif)
	if !strings.Contains(graph, "split=2") || !strings.Contains(graph, "palettegen") || !strings.Contains(graph, "paletteuse") {
		t.Fatalf("gif graph should build a palette: %s", graph)
	}
	if strings.Contains(strings.Join(gif, " "), "-c:v") {
		t.Fatalf("gif should not force a video codec: %v", gif)
	}
}

func TestStillMotionMissingBinaryIsUnavailable(t *testing.T) {
	p := NewStillMotion(StillMotionOptions{Binary: "ffmpeg-not-installed-here"})
	_, err := p.Run(context.Background(), testSource(t), testRequest(t, domain.FormatMP4))
	if !errors.Is(err, domain.ErrPipelineUnavailable) {
		t.Fatalf("error = %v, want ErrPipelineUnavailable", err)
	}
}

func TestStillMotionUndecodableSourceIsRejected(t *testing.T) {
	p := NewStillMotion(StillMotionOptions{})
	src := domain.ImageSource{Data: []byte("not an image"), Format: domain.ImageFormatPNG}
	_, err := p.Run(context.Background(), src, testRequest(t, domain.FormatMP4))
	if !errors.Is(err, domain.ErrPipelineRejected) {
		t.Fatalf("error = %v, want ErrPipelineRejected", err)
	}
}
