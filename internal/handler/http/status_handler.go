package http

import (
	"fmt"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/bgremover/internal/domain"
	"github.com/yokitheyo/bgremover/internal/dto"
)

type StatusHandler struct {
	service domain.StatusService
}

func NewStatusHandler(service domain.StatusService) *StatusHandler {
	return &StatusHandler{service: service}
}

func (h *StatusHandler) RegisterRoutes(engine *ginext.Engine, prefix string) {
	engine.POST(prefix+"/status", h.CreateStatusCheck)
	engine.GET(prefix+"/status", h.ListStatusChecks)
}

// CreateStatusCheck POST /status
func (h *StatusHandler) CreateStatusCheck(c *ginext.Context) {
	var req dto.StatusCheckCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Detail: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}
	if req.ClientName == nil {
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Detail: "Missing required field(s): client_name"})
		return
	}

	check, err := h.service.Create(c.Request.Context(), *req.ClientName)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to create status check")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Detail: "Failed to create status check"})
		return
	}

	c.JSON(http.StatusOK, dto.MapStatusToResponse(check))
}

// ListStatusChecks GET /status
func (h *StatusHandler) ListStatusChecks(c *ginext.Context) {
	checks, err := h.service.List(c.Request.Context())
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to list status checks")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Detail: "Failed to retrieve status checks"})
		return
	}

	c.JSON(http.StatusOK, dto.MapStatusesToResponse(checks))
}
