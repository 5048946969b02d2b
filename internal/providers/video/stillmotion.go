package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"photoanimator/internal/domain"
)

// StillMotionOptions configures a StillMotionPipeline.
type StillMotionOptions struct {
	FPS     int
	Width   int
	Height  int
	TempDir string
	Binary  string
	Logger  *zerolog.Logger
}

// StillMotionPipeline renders a slow pan-and-zoom over the still image with
// ffmpeg. The zoom speed follows the intensity and the anchor follows the
// style.
type StillMotionPipeline struct {
	fps     int
	width   int
	height  int
	tempDir string
	binary  string
	logger  *zerolog.Logger
	now     func() time.Time
}

func NewStillMotion(opts StillMotionOptions) *StillMotionPipeline {
	if opts.FPS <= 0 {
		opts.FPS = 25
	}
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 720
	}
	if opts.Binary == "" {
		opts.Binary = "ffmpeg"
	}
	return &StillMotionPipeline{
		fps:     opts.FPS,
		width:   opts.Width &^ 1,
		height:  opts.Height &^ 1,
		tempDir: opts.TempDir,
		binary:  opts.Binary,
		logger:  loggerOrDiscard(opts.Logger),
		now:     time.Now,
	}
}

func (p *StillMotionPipeline) Run(ctx context.Context, img domain.ImageSource, req domain.AnimationRequest) (*domain.Artifact, error) {
	if _, _, err := image.DecodeConfig(bytes.NewReader(img.Data)); err != nil {
		return nil, fmt.Errorf("%w: decode source: %v", domain.ErrPipelineRejected, err)
	}
	dir, err := os.MkdirTemp(p.tempDir, "still_")
	if err != nil {
		return nil, fmt.Errorf("%w: temp dir: %v", domain.ErrPipelineUnavailable, err)
	}
	defer os.RemoveAll(dir)

	ext := img.Format.Extension()
	if img.Format == "" {
		ext = ".img"
	}
	inPath := filepath.Join(dir, "source"+ext)
	if err := os.WriteFile(inPath, img.Data, 0o600); err != nil {
		return nil, fmt.Errorf("%w: write source: %v", domain.ErrPipelineUnavailable, err)
	}
	outPath := filepath.Join(dir, "render"+req.Format().Extension())

	params := MotionParams{
		Width:     p.width,
		Height:    p.height,
		FPS:       p.fps,
		Duration:  req.Duration(),
		Style:     req.Style(),
		Intensity: req.Intensity(),
	}
	var stderr bytes.Buffer
	render := MotionStream(ctx, inPath, outPath, req.Format(), params).
		SetFfmpegPath(p.binary).
		WithErrorOutput(&stderr).
		Silent(true)
	start := p.now()
	if err := render.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrPipelineUnavailable, ctxErr)
		}
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: ffmpeg exit %d: %s", domain.ErrPipelineUnavailable, exitErr.ExitCode(), lastLine(stderr.String()))
		}
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrPipelineUnavailable, p.binary, err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read render: %v", domain.ErrPipelineUnavailable, err)
	}
	p.logger.Debug().
		Str("format", string(req.Format())).
		Str("style", string(req.Style())).
		Int("bytes", len(data)).
		Dur("elapsed", p.now().Sub(start)).
		Msg("video: still motion render complete")

	return &domain.Artifact{
		Data:        data,
		ContentType: req.Format().ContentType(),
		Format:      req.Format(),
		CreatedAt:   p.now(),
	}, nil
}

// MotionParams describes one still-motion render.
type MotionParams struct {
	Width     int
	Height    int
	FPS       int
	Duration  int
	Style     domain.Style
	Intensity int
}

// styleMotion holds the zoom speed per frame at 100 % intensity and the
// zoom anchor expressions for each style.
var styleMotion = map[domain.Style]struct {
	speed float64
	x, y  string
}{
	domain.StyleCinematic: {speed: 0.0015, x: "iw/2-(iw/zoom/2)", y: "ih/2-(ih/zoom/2)"},
	domain.StyleDynamic:   {speed: 0.0030, x: "iw-(iw/zoom)", y: "0"},
	domain.StyleSmooth:    {speed: 0.0008, x: "iw/2-(iw/zoom/2)", y: "ih/2-(ih/zoom/2)"},
	domain.StyleDramatic:  {speed: 0.0045, x: "iw/2-(iw/zoom/2)", y: "ih/3-(ih/zoom/3)"},
}

// MotionStream builds the ffmpeg graph for one render: letterbox to twice
// the output size, zoompan towards the style anchor, then scale down to the
// output. Intensity 0 yields a static frame. ctx bounds the ffmpeg process.
func MotionStream(ctx context.Context, inPath, outPath string, format domain.Format, p MotionParams) *ffmpeg.Stream {
	motion, ok := styleMotion[p.Style]
	if !ok {
		motion = styleMotion[domain.StyleCinematic]
	}
	frames := p.Duration * p.FPS
	speed := motion.speed * float64(p.Intensity) / 100.0
	peak := 1.0 + speed*float64(frames)
	if peak > 1.5 {
		peak = 1.5
	}

	video := ffmpeg.Input(inPath, ffmpeg.KwArgs{"loop": 1}).
		Filter("scale", ffmpeg.Args{strconv.Itoa(p.Width * 2), strconv.Itoa(p.Height * 2)}, ffmpeg.KwArgs{"force_original_aspect_ratio": "decrease"}).
		Filter("pad", ffmpeg.Args{strconv.Itoa(p.Width * 2), strconv.Itoa(p.Height * 2), "(ow-iw)/2", "(oh-ih)/2"}).
		ZoomPan(ffmpeg.KwArgs{
			"z":   fmt.Sprintf("min(zoom+%.5f,%.3f)", speed, peak),
			"d":   frames,
			"s":   fmt.Sprintf("%dx%d", p.Width, p.Height),
			"x":   motion.x,
			"y":   motion.y,
			"fps": p.FPS,
		}).
		Filter("scale", ffmpeg.Args{strconv.Itoa(p.Width), strconv.Itoa(p.Height)})

	if format == domain.FormatGIF {
		split := video.Split()
		palette := split.Get("0").Filter("palettegen", nil)
		video = ffmpeg.Filter([]*ffmpeg.Stream{split.Get("1"), palette}, "paletteuse", nil)
	}

	return ffmpeg.OutputContext(ctx, []*ffmpeg.Stream{video}, outPath, outputArgs(format, p)).
		OverWriteOutput()
}

func outputArgs(format domain.Format, p MotionParams) ffmpeg.KwArgs {
	args := ffmpeg.KwArgs{
		"t": strconv.Itoa(p.Duration),
		"r": p.FPS,
	}
	switch format {
	case domain.FormatWEBM:
		args["c:v"] = "libvpx-vp9"
		args["b:v"] = "0"
		args["crf"] = 32
		args["pix_fmt"] = "yuv420p"
	case domain.FormatGIF:
		args["loop"] = 0
	default:
		args["c:v"] = "libx264"
		args["preset"] = "medium"
		args["pix_fmt"] = "yuv420p"
		args["movflags"] = "+faststart"
	}
	return args
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

var _ Pipeline = (*StillMotionPipeline)(nil)
