package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/bgremover/internal/domain"
	"github.com/yokitheyo/bgremover/internal/dto"
	"github.com/yokitheyo/bgremover/internal/infrastructure/codec"
)

type RemovalHandler struct {
	service       domain.RemovalService
	maxUploadSize int64
}

func NewRemovalHandler(service domain.RemovalService, maxUploadSizeMB int) *RemovalHandler {
	return &RemovalHandler{
		service:       service,
		maxUploadSize: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

func (h *RemovalHandler) RegisterRoutes(engine *ginext.Engine, prefix string) {
	engine.POST(prefix+"/remove-background", h.RemoveBackground)
	engine.POST(prefix+"/upload-image", h.UploadImage)
}

// RemoveBackground POST /remove-background
func (h *RemovalHandler) RemoveBackground(c *ginext.Context) {
	// base64 inflates the payload by a third; leave room for the JSON envelope
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize*4/3+64*1024)

	var req dto.RemovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Detail: h.tooLargeDetail()})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Detail: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}
	if missing := req.Missing(); len(missing) > 0 {
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Detail: "Missing required field(s): " + strings.Join(missing, ", "),
		})
		return
	}

	resp, err := h.service.RemoveBackground(c.Request.Context(), req.ToDomain())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidImageData):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Detail: "Invalid image data: " + domain.Reason(err, domain.ErrInvalidImageData),
			})
		case errors.Is(err, domain.ErrInvalidFormat):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Detail: "Invalid image format: " + domain.Reason(err, domain.ErrInvalidFormat),
			})
		default:
			zlog.Logger.Error().Err(err).Msg("unexpected removal error")
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Detail: "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.MapRemovalToResponse(resp))
}

// UploadImage POST /upload-image
func (h *RemovalHandler) UploadImage(c *ginext.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+64*1024)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Detail: h.tooLargeDetail()})
			return
		}
		if errors.Is(err, http.ErrMissingFile) {
			c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Detail: "Missing required form field: file"})
			return
		}
		zlog.Logger.Warn().Err(err).Msg("failed to get file from request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Detail: fmt.Sprintf("Invalid upload: %v", err)})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Detail: "File must be an image"})
		return
	}
	if header.Size > h.maxUploadSize {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Detail: h.tooLargeDetail()})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("filename", header.Filename).Msg("failed to read uploaded file")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Detail: "Failed to read uploaded file"})
		return
	}

	zlog.Logger.Info().
		Str("filename", header.Filename).
		Str("content_type", contentType).
		Int("bytes", len(data)).
		Msg("image uploaded")

	c.JSON(http.StatusOK, dto.UploadResponse{
		Success:     true,
		Filename:    header.Filename,
		ImageData:   codec.Encode(domain.NewImageBuffer(data)),
		ContentType: contentType,
	})
}

func (h *RemovalHandler) tooLargeDetail() string {
	return fmt.Sprintf("File size exceeds maximum allowed (%d MB)", h.maxUploadSize/(1024*1024))
}
