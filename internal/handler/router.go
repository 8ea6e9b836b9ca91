package handler

import (
	"net/http"
	"time"

	"pagechat-backend/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(cfg *config.Config, pageHandler *PageHandler, chatHandler *ChatHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:           cfg.CORS.AllowedOrigins,
		AllowMethods:           cfg.CORS.AllowedMethods,
		AllowHeaders:           cfg.CORS.AllowedHeaders,
		ExposeHeaders:          cfg.CORS.ExposedHeaders,
		AllowCredentials:       cfg.CORS.AllowCredentials,
		AllowWildcard:          true,
		AllowBrowserExtensions: true,
		MaxAge:                 time.Duration(cfg.CORS.MaxAge) * time.Second,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	api := router.Group("/api")
	{
		page := api.Group("/page")
		{
			page.POST("/open", pageHandler.Open)
			page.GET("/status", pageHandler.Status)
		}

		chat := api.Group("/chat")
		{
			chat.POST("/submit", chatHandler.Submit)
			chat.GET("/messages", chatHandler.Messages)
			chat.GET("/stream", chatHandler.Stream)
			chat.GET("/suggestions", chatHandler.Suggestions)
			chat.POST("/reset", chatHandler.Reset)
		}
	}

	return router
}
