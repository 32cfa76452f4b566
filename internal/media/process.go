package media

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"

	"coaching-site-backend/internal/apperr"
)

// DefaultMaxPixels bounds the decoded size of an image to be resized.
const DefaultMaxPixels = 50_000_000

// Processor downscales oversized images so every stored image fits inside a
// MaxDimension x MaxDimension box. A zero MaxDimension disables resizing.
// Images whose header declares more than MaxPixels pixels are rejected
// before decoding; a zero MaxPixels means DefaultMaxPixels.
type Processor struct {
	MaxDimension int
	MaxPixels    int64
	JPEGQuality  int
}

func NewProcessor(maxDimension int) *Processor {
	return &Processor{MaxDimension: maxDimension, MaxPixels: DefaultMaxPixels, JPEGQuality: 85}
}

// Fit returns the upload unchanged unless it is a JPEG or PNG larger than the
// box, in which case the resized image is re-encoded in the same format. GIFs
// are never resized so their animation frames are kept.
func (p *Processor) Fit(u *Upload) (*Upload, error) {
	if p == nil || p.MaxDimension <= 0 {
		return u, nil
	}

	mimeType, sniffedExt := DetectedType(u.Data)
	format, ok := encodableFormat(mimeType)
	if !ok {
		return u, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(u.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	maxPixels := p.MaxPixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, apperr.Validation("image is %dx%d, more than %d pixels", cfg.Width, cfg.Height, maxPixels)
	}
	if cfg.Width <= p.MaxDimension && cfg.Height <= p.MaxDimension {
		return u, nil
	}

	img, err := imaging.Decode(bytes.NewReader(u.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	resized := imaging.Fit(img, p.MaxDimension, p.MaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	var opts []imaging.EncodeOption
	if format == imaging.JPEG && p.JPEGQuality > 0 {
		opts = append(opts, imaging.JPEGQuality(p.JPEGQuality))
	}
	if err := imaging.Encode(&buf, resized, format, opts...); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	filename := u.Filename
	if filepath.Ext(filename) == "" {
		filename += sniffedExt
	}
	return &Upload{Filename: filename, ContentType: mimeType, Data: buf.Bytes()}, nil
}

func encodableFormat(mimeType string) (imaging.Format, bool) {
	switch mimeType {
	case "image/jpeg":
		return imaging.JPEG, true
	case "image/png":
		return imaging.PNG, true
	default:
		return 0, false
	}
}
