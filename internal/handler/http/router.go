package http

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"

	"github.com/yokitheyo/bgremover/internal/domain"
	"github.com/yokitheyo/bgremover/internal/dto"
	"github.com/yokitheyo/bgremover/internal/handler/middleware"
	"github.com/yokitheyo/bgremover/internal/worker"
)

const ReadyMessage = "Background Removal API Ready"

type StatsProvider interface {
	Stats() worker.Stats
}

type RouterConfig struct {
	APIPrefix       string
	MaxUploadSizeMB int
}

// NewRouter builds the engine with middleware and every route.
func NewRouter(cfg RouterConfig, removal domain.RemovalService, status domain.StatusService, pool StatsProvider) *ginext.Engine {
	engine := ginext.New("")
	engine.Use(
		middleware.ErrorHandlerMiddleware(),
		middleware.LoggerMiddleware("/health"),
		middleware.CORSMiddleware(),
	)

	engine.GET("/health", func(c *ginext.Context) {
		c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Stats: pool.Stats()})
	})

	prefix := cfg.APIPrefix
	engine.GET(prefix+"/", func(c *ginext.Context) {
		c.JSON(http.StatusOK, dto.MessageResponse{Message: ReadyMessage})
	})

	NewStatusHandler(status).RegisterRoutes(engine, prefix)
	NewRemovalHandler(removal, cfg.MaxUploadSizeMB).RegisterRoutes(engine, prefix)

	return engine
}
