// Package remover implements background removal backends. Every backend
// returns a PNG with an alpha channel and the input's pixel dimensions.
package remover

import (
	"bytes"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/bgremover/internal/config"
	"github.com/yokitheyo/bgremover/internal/domain"
)

func New(cfg *config.ProcessingConfig) (domain.BackgroundRemover, error) {
	switch cfg.Backend {
	case "local":
		zlog.Logger.Info().
			Float64("tolerance", cfg.LocalTolerance()).
			Float64("softness", cfg.LocalSoftness()).
			Msg("Initializing local background remover")
		return NewLocalRemover(cfg.LocalTolerance(), cfg.LocalSoftness()), nil
	case "rembg":
		zlog.Logger.Info().
			Str("url", cfg.RembgURL).
			Str("model", cfg.RembgModel).
			Msg("Initializing rembg background remover")
		return NewRembgRemover(cfg.RembgURL, cfg.RembgModel, time.Duration(cfg.RembgTimeoutSec)*time.Second), nil
	default:
		zlog.Logger.Error().Str("backend", cfg.Backend).Msg("Unsupported removal backend, use 'local' or 'rembg'")
		return nil, fmt.Errorf("unsupported removal backend: %s", cfg.Backend)
	}
}

func failed(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrProcessingFailed, err)
}

// encodeRGBA writes img as a PNG that always carries an alpha channel.
func encodeRGBA(img *image.NRGBA) (domain.ImageBuffer, error) {
	keepAlphaChannel(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return domain.ImageBuffer{}, fmt.Errorf("encode png: %w", err)
	}
	return domain.NewImageBuffer(buf.Bytes()), nil
}

// keepAlphaChannel marks the first pixel as barely translucent when the whole
// image is opaque: image/png stores opaque images as RGB without alpha.
func keepAlphaChannel(img *image.NRGBA) {
	if len(img.Pix) < 4 || !img.Opaque() {
		return
	}
	img.Pix[3] = 0xfe
}

// normalize decodes any supported image and re-encodes it as an RGBA PNG.
func normalize(data []byte) (domain.ImageBuffer, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return domain.ImageBuffer{}, fmt.Errorf("decode image: %w", err)
	}
	return encodeRGBA(imaging.Clone(src))
}
