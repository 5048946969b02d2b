package domain

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// MaxImageBytes caps uploads at 10 MiB.
const MaxImageBytes = 10 << 20

// ImageFormat enumerates decodable source image encodings.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "png"
	ImageFormatJPEG ImageFormat = "jpeg"
	ImageFormatGIF  ImageFormat = "gif"
	ImageFormatWEBP ImageFormat = "webp"
	ImageFormatBMP  ImageFormat = "bmp"
)

// ContentType returns the canonical MIME type of the format.
func (f ImageFormat) ContentType() string {
	return "image/" + string(f)
}

// Extension returns the file extension, including the dot.
func (f ImageFormat) Extension() string {
	if f == ImageFormatJPEG {
		return ".jpg"
	}
	return "." + string(f)
}

// ImageSource is the currently selected input image. Data is owned by the
// source and must not be mutated after construction.
type ImageSource struct {
	Data        []byte
	ContentType string
	Format      ImageFormat
	Width       int
	Height      int
	SelectedAt  time.Time
}

// NewImageSource copies data, sniffs the real encoding and canonicalizes the
// content-type hint. Hints that name a non-image type are refused.
func NewImageSource(data []byte, contentType string, now time.Time) (*ImageSource, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrInvalidImage)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrImageTooLarge, len(data), MaxImageBytes)
	}
	if err := checkContentTypeHint(contentType); err != nil {
		return nil, err
	}

	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	format, err := imageFormatFromName(name)
	if err != nil {
		return nil, err
	}

	return &ImageSource{
		Data:        append([]byte(nil), data...),
		ContentType: format.ContentType(),
		Format:      format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		SelectedAt:  now,
	}, nil
}

// Size returns the encoded size in bytes.
func (s ImageSource) Size() int {
	return len(s.Data)
}

func checkContentTypeHint(hint string) error {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(hint)
	if err != nil {
		return fmt.Errorf("%w: content type %q", ErrInvalidImage, hint)
	}
	if mediaType == "application/octet-stream" || strings.HasPrefix(mediaType, "image/") {
		return nil
	}
	return fmt.Errorf("%w: content type %q is not an image", ErrInvalidImage, mediaType)
}

func imageFormatFromName(name string) (ImageFormat, error) {
	switch name {
	case "png":
		return ImageFormatPNG, nil
	case "jpeg":
		return ImageFormatJPEG, nil
	case "gif":
		return ImageFormatGIF, nil
	case "webp":
		return ImageFormatWEBP, nil
	case "bmp":
		return ImageFormatBMP, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %s", ErrInvalidImage, name)
	}
}
