package remover

import (
	"context"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/bgremover/internal/domain"
)

// LocalRemover keys out the background in-process. The background colour is
// the per-channel median of the border pixels; every pixel connected to the
// border and within tolerance of that colour becomes transparent, and pixels
// bordering the removed region fade out over the softness band.
type LocalRemover struct {
	tolerance float64
	softness  float64
}

func NewLocalRemover(tolerance, softness float64) *LocalRemover {
	return &LocalRemover{tolerance: tolerance, softness: softness}
}

func (r *LocalRemover) RemoveBackground(ctx context.Context, img domain.ImageBuffer) (domain.ImageBuffer, error) {
	src, err := imaging.Decode(img.Reader(), imaging.AutoOrientation(true))
	if err != nil {
		return domain.ImageBuffer{}, failed(err)
	}

	dst := imaging.Clone(src)
	removed := r.matte(dst)

	out, err := encodeRGBA(dst)
	if err != nil {
		return domain.ImageBuffer{}, failed(err)
	}

	b := dst.Bounds()
	zlog.Logger.Debug().
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Int("removed_pixels", removed).
		Int("output_bytes", out.Len()).
		Msg("local background removal finished")
	return out, nil
}

// matte rewrites the alpha channel of img in place and returns the number of
// pixels classified as background.
func (r *LocalRemover) matte(img *image.NRGBA) int {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == 0 || h == 0 {
		return 0
	}

	bg := borderMedian(img)
	dist := make([]float64, w*h)
	parallelRows(h, func(y int) {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+4]
			if p[3] == 0 {
				continue
			}
			dr := float64(p[0]) - float64(bg[0])
			dg := float64(p[1]) - float64(bg[1])
			db := float64(p[2]) - float64(bg[2])
			dist[y*w+x] = math.Sqrt(dr*dr + dg*dg + db*db)
		}
	})

	background := r.floodFromBorder(dist, w, h)

	removed := 0
	for _, isBg := range background {
		if isBg {
			removed++
		}
	}

	parallelRows(h, func(y int) {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			i := y*w + x
			a := &row[x*4+3]
			if background[i] {
				*a = 0
				continue
			}
			if r.softness <= 0 || !touches(background, x, y, w, h) {
				continue
			}
			if d := dist[i] - r.tolerance; d < r.softness {
				*a = uint8(float64(*a) * d / r.softness)
			}
		}
	})

	return removed
}

func (r *LocalRemover) floodFromBorder(dist []float64, w, h int) []bool {
	background := make([]bool, w*h)
	stack := make([]int, 0, 2*(w+h))
	push := func(x, y int) {
		i := y*w + x
		if !background[i] && dist[i] <= r.tolerance {
			background[i] = true
			stack = append(stack, i)
		}
	}

	for x := 0; x < w; x++ {
		push(x, 0)
		push(x, h-1)
	}
	for y := 0; y < h; y++ {
		push(0, y)
		push(w-1, y)
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		if x > 0 {
			push(x-1, y)
		}
		if x < w-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < h-1 {
			push(x, y+1)
		}
	}
	return background
}

func touches(background []bool, x, y, w, h int) bool {
	return (x > 0 && background[y*w+x-1]) ||
		(x < w-1 && background[y*w+x+1]) ||
		(y > 0 && background[(y-1)*w+x]) ||
		(y < h-1 && background[(y+1)*w+x])
}

// borderMedian returns the per-channel median colour of the visible border pixels.
func borderMedian(img *image.NRGBA) [3]uint8 {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	var hist [3][256]int
	total := 0
	add := func(x, y int) {
		p := img.Pix[y*img.Stride+x*4 : y*img.Stride+x*4+4]
		if p[3] == 0 {
			return
		}
		hist[0][p[0]]++
		hist[1][p[1]]++
		hist[2][p[2]]++
		total++
	}

	for x := 0; x < w; x++ {
		add(x, 0)
		if h > 1 {
			add(x, h-1)
		}
	}
	for y := 1; y < h-1; y++ {
		add(0, y)
		if w > 1 {
			add(w-1, y)
		}
	}

	var out [3]uint8
	if total == 0 {
		return out
	}
	for c := 0; c < 3; c++ {
		seen := 0
		for v := 0; v < 256; v++ {
			seen += hist[c][v]
			if seen*2 >= total {
				out[c] = uint8(v)
				break
			}
		}
	}
	return out
}
