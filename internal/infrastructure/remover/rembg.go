package remover

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/bgremover/internal/domain"
)

const (
	rembgRemovePath = "/api/remove"
	// maxRembgResponse caps the body read from the model server.
	maxRembgResponse = 64 << 20
)

// RembgRemover delegates segmentation to a rembg HTTP server
// (`rembg s`), which answers POST /api/remove with a PNG cut-out.
type RembgRemover struct {
	client  *http.Client
	baseURL string
	model   string
}

func NewRembgRemover(baseURL, model string, timeout time.Duration) *RembgRemover {
	return &RembgRemover{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
	}
}

func (r *RembgRemover) RemoveBackground(ctx context.Context, img domain.ImageBuffer) (domain.ImageBuffer, error) {
	body, contentType, err := r.multipartBody(img)
	if err != nil {
		return domain.ImageBuffer{}, failed(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+rembgRemovePath, body)
	if err != nil {
		return domain.ImageBuffer{}, failed(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "image/png")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("url", req.URL.String()).Msg("rembg request failed")
		return domain.ImageBuffer{}, failed(fmt.Errorf("rembg request: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRembgResponse))
	if err != nil {
		return domain.ImageBuffer{}, failed(fmt.Errorf("read rembg response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		zlog.Logger.Error().
			Int("status", resp.StatusCode).
			Str("body", truncate(string(data), 256)).
			Msg("rembg returned an error")
		return domain.ImageBuffer{}, failed(fmt.Errorf("rembg responded with status %d", resp.StatusCode))
	}

	out, err := normalize(data)
	if err != nil {
		return domain.ImageBuffer{}, failed(err)
	}

	zlog.Logger.Debug().
		Dur("duration", time.Since(start)).
		Int("input_bytes", img.Len()).
		Int("output_bytes", out.Len()).
		Msg("rembg background removal finished")
	return out, nil
}

func (r *RembgRemover) multipartBody(img domain.ImageBuffer) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", "image")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, img.Reader()); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}
	if r.model != "" {
		if err := w.WriteField("model", r.model); err != nil {
			return nil, "", fmt.Errorf("write model field: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
