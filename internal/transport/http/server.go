package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/presence-relay/internal/config"
	"github.com/vovakirdan/presence-relay/internal/core"
)

// NewServer builds the HTTP server: websocket endpoint plus the read-only
// REST API.
func NewServer(router *core.Router, broker *Broker, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery(), LoggerMiddleware(logger))

	engine.GET("/health", healthHandler)
	engine.GET("/ws", gin.WrapH(NewWSHandler(router, broker, cfg.EventRateLimit, logger)))

	api := NewAPIHandlers(router, logger)
	engine.GET("/api/users", api.ListUsers)
	engine.GET("/api/groups", api.ListGroups)
	engine.GET("/api/groups/:name", api.GroupDetails)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
