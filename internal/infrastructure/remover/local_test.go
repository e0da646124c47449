package remover

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yokitheyo/bgremover/internal/config"
	"github.com/yokitheyo/bgremover/internal/domain"
)

func encodePNG(t *testing.T, img image.Image) domain.ImageBuffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return domain.NewImageBuffer(buf.Bytes())
}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// subjectOnWhite draws a dark square in the middle of a white canvas.
func subjectOnWhite(w, h int) *image.RGBA {
	img := solid(w, h, color.White)
	for y := h / 4; y < 3*h/4; y++ {
		for x := w / 4; x < 3*w/4; x++ {
			img.Set(x, y, color.RGBA{R: 20, G: 40, B: 160, A: 255})
		}
	}
	return img
}

func decodeNRGBA(t *testing.T, buf domain.ImageBuffer) *image.NRGBA {
	t.Helper()
	img, err := png.Decode(buf.Reader())
	require.NoError(t, err)
	nrgba, ok := img.(*image.NRGBA)
	require.Truef(t, ok, "expected an NRGBA png, got %T", img)
	return nrgba
}

func TestLocalRemover_RedSquare(t *testing.T) {
	r := NewLocalRemover(config.DefaultTolerance, config.DefaultSoftness)

	out, err := r.RemoveBackground(context.Background(), encodePNG(t, solid(100, 100, color.RGBA{R: 255, A: 255})))
	require.NoError(t, err)

	img := decodeNRGBA(t, out)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
	assert.Equal(t, uint8(0), img.NRGBAAt(50, 50).A)
}

func TestLocalRemover_KeepsSubject(t *testing.T) {
	r := NewLocalRemover(config.DefaultTolerance, config.DefaultSoftness)

	out, err := r.RemoveBackground(context.Background(), encodePNG(t, subjectOnWhite(64, 48)))
	require.NoError(t, err)

	img := decodeNRGBA(t, out)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
	assert.Equal(t, uint8(0), img.NRGBAAt(0, 0).A, "corner is background")
	assert.Equal(t, uint8(0), img.NRGBAAt(5, 40).A, "edge is background")
	assert.Equal(t, uint8(255), img.NRGBAAt(32, 24).A, "centre is subject")
	assert.Equal(t, color.NRGBA{R: 20, G: 40, B: 160, A: 255}, img.NRGBAAt(30, 20))
}

func TestLocalRemover_EnclosedBackgroundColourSurvives(t *testing.T) {
	// a white hole inside the subject is not connected to the border
	src := subjectOnWhite(40, 40)
	src.Set(20, 20, color.White)

	r := NewLocalRemover(config.DefaultTolerance, 0)
	out, err := r.RemoveBackground(context.Background(), encodePNG(t, src))
	require.NoError(t, err)

	img := decodeNRGBA(t, out)
	assert.Equal(t, uint8(255), img.NRGBAAt(20, 20).A)
}

func TestLocalRemover_OpaqueResultKeepsAlphaChannel(t *testing.T) {
	// noisy border, nothing within tolerance of the median
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x * 36), G: uint8(y * 36), B: uint8((x + y) * 18), A: 255})
		}
	}

	r := NewLocalRemover(0, 0)
	out, err := r.RemoveBackground(context.Background(), encodePNG(t, src))
	require.NoError(t, err)

	img := decodeNRGBA(t, out)
	assert.Equal(t, image.Rect(0, 0, 8, 8), img.Bounds())
}

func TestLocalRemover_JPEGInput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, subjectOnWhite(32, 32), &jpeg.Options{Quality: 95}))

	r := NewLocalRemover(config.DefaultTolerance, config.DefaultSoftness)
	out, err := r.RemoveBackground(context.Background(), domain.NewImageBuffer(buf.Bytes()))
	require.NoError(t, err)

	img := decodeNRGBA(t, out)
	assert.Equal(t, image.Rect(0, 0, 32, 32), img.Bounds())
	assert.Equal(t, uint8(0), img.NRGBAAt(0, 0).A)
}

func TestLocalRemover_CorruptInput(t *testing.T) {
	r := NewLocalRemover(config.DefaultTolerance, config.DefaultSoftness)

	_, err := r.RemoveBackground(context.Background(), domain.NewImageBuffer([]byte("\x89PNG\r\n\x1a\nbroken")))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProcessingFailed)
}

func TestBorderMedian(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 10, 20, 30, 255
	}
	// one odd pixel on the border does not move the median
	img.SetNRGBA(0, 0, color.NRGBA{R: 250, G: 250, B: 250, A: 255})

	assert.Equal(t, [3]uint8{10, 20, 30}, borderMedian(img))
}

func TestNew(t *testing.T) {
	tolerance, softness := 10.0, 0.0
	local, err := New(&config.ProcessingConfig{Backend: "local", Tolerance: &tolerance, Softness: &softness})
	require.NoError(t, err)
	require.IsType(t, &LocalRemover{}, local)
	assert.Equal(t, 10.0, local.(*LocalRemover).tolerance)
	assert.Zero(t, local.(*LocalRemover).softness)

	defaults, err := New(&config.ProcessingConfig{Backend: "local"})
	require.NoError(t, err)
	assert.Equal(t, float64(config.DefaultTolerance), defaults.(*LocalRemover).tolerance)
	assert.Equal(t, float64(config.DefaultSoftness), defaults.(*LocalRemover).softness)

	remote, err := New(&config.ProcessingConfig{Backend: "rembg", RembgURL: "http://rembg:7000"})
	require.NoError(t, err)
	assert.IsType(t, &RembgRemover{}, remote)

	_, err = New(&config.ProcessingConfig{Backend: "gpu"})
	assert.Error(t, err)
}
