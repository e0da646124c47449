package remover

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yokitheyo/bgremover/internal/domain"
)

func TestRembgRemover_Success(t *testing.T) {
	input := encodePNG(t, subjectOnWhite(30, 20))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/remove", r.URL.Path)

		file, _, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		got, err := io.ReadAll(file)
		assert.NoError(t, err)
		assert.Equal(t, input.Bytes(), got)
		assert.Equal(t, "u2net", r.FormValue("model"))

		// the model server answers with an opaque RGB png
		var buf bytes.Buffer
		assert.NoError(t, png.Encode(&buf, solid(30, 20, color.RGBA{G: 200, A: 255})))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	r := NewRembgRemover(srv.URL+"/", "u2net", 5*time.Second)
	out, err := r.RemoveBackground(context.Background(), input)
	require.NoError(t, err)

	img := decodeNRGBA(t, out)
	assert.Equal(t, image.Rect(0, 0, 30, 20), img.Bounds())
}

func TestRembgRemover_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewRembgRemover(srv.URL, "", time.Second)
	_, err := r.RemoveBackground(context.Background(), encodePNG(t, solid(4, 4, color.White)))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProcessingFailed)
	assert.Contains(t, err.Error(), "500")
}

func TestRembgRemover_GarbageResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not a png"))
	}))
	defer srv.Close()

	r := NewRembgRemover(srv.URL, "", time.Second)
	_, err := r.RemoveBackground(context.Background(), encodePNG(t, solid(4, 4, color.White)))
	assert.ErrorIs(t, err, domain.ErrProcessingFailed)
}

func TestRembgRemover_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r := NewRembgRemover(url, "", time.Second)
	_, err := r.RemoveBackground(context.Background(), encodePNG(t, solid(4, 4, color.White)))
	assert.ErrorIs(t, err, domain.ErrProcessingFailed)
}
