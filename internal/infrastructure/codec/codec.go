// Package codec converts between transport payloads and encoded image bytes.
package codec

import (
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/yokitheyo/bgremover/internal/domain"
)

// Decode strips an optional data-URL header ("data:image/png;base64,") and
// base64-decodes the rest.
func Decode(payload string) (domain.ImageBuffer, error) {
	data := strings.TrimSpace(payload)
	if i := strings.IndexByte(data, ','); i >= 0 {
		data = data[i+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return domain.ImageBuffer{}, fmt.Errorf("%w: %v", domain.ErrInvalidImageData, err)
	}
	return domain.NewImageBuffer(raw), nil
}

// Validate checks that buf is a recognizable image container. Only the header
// is decoded; PNG streams additionally get a chunk and checksum walk. buf stays usable.
func Validate(buf domain.ImageBuffer) (domain.ImageInfo, error) {
	if buf.IsEmpty() {
		return domain.ImageInfo{}, fmt.Errorf("%w: empty image", domain.ErrInvalidFormat)
	}

	cfg, format, err := image.DecodeConfig(buf.Reader())
	if err != nil {
		return domain.ImageInfo{}, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return domain.ImageInfo{}, fmt.Errorf("%w: image has no pixels (%dx%d)", domain.ErrInvalidFormat, cfg.Width, cfg.Height)
	}

	if format == "png" {
		if err := verifyPNG(buf.Bytes()); err != nil {
			return domain.ImageInfo{}, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
		}
	}

	return domain.ImageInfo{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

func Encode(buf domain.ImageBuffer) string {
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
