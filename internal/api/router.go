package api

import (
	"github.com/askweb/askweb/internal/api/chat"
	"github.com/askweb/askweb/internal/api/middleware"
	"github.com/askweb/askweb/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(chatService *service.ChatService, logger *zap.Logger, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Chat API
	chatHandler := chat.NewHandler(chatService, logger)
	apiGroup := r.Group("/api")
	chatHandler.RegisterRoutes(apiGroup)

	return r
}
