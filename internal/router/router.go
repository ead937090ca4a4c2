// Package router wires the gin engine: middleware, API routes and the
// websocket endpoint.
package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docschat/docschat/internal/config"
	"github.com/docschat/docschat/internal/handler"
	"github.com/docschat/docschat/internal/logger"
	"github.com/docschat/docschat/internal/stream/websocket"
)

// requestID tags every request context so log lines correlate.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// NewRouter builds the HTTP router.
func NewRouter(cfg *config.Config, chatHandler *handler.ChatHandler, gateway *websocket.Gateway) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())

	corsCfg := cors.DefaultConfig()
	if len(cfg.Server.AllowOrigins) == 1 && cfg.Server.AllowOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.Server.AllowOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "X-Request-ID")
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/chat", chatHandler.Chat)
		api.GET("/conversations/:user_id", chatHandler.GetConversation)
		api.DELETE("/conversations/:user_id", chatHandler.ClearConversation)
	}

	r.GET("/ws/:user_id", gateway.Handle)
	return r
}
