// Package router wires the PropertyAI HTTP routes.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/propertyai/internal/propertyai/handler"
)

// New builds the gin engine with all routes registered. maxUploadMB caps
// multipart ingest bodies.
func New(qa *handler.QAHandler, maxUploadMB int) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.MaxMultipartMemory = int64(maxUploadMB) << 20

	engine.GET("/healthz", qa.Healthz)

	v1 := engine.Group("/v1")
	{
		qaGroup := v1.Group("/qa")
		{
			qaGroup.POST("/ingest", qa.Ingest)
			qaGroup.POST("/query", qa.Query)
			qaGroup.GET("/stats", qa.Stats)
			qaGroup.GET("/suggestions", qa.Suggestions)

			sessions := qaGroup.Group("/sessions")
			{
				sessions.POST("", qa.CreateSession)
				sessions.GET("/:id", qa.GetSession)
				sessions.DELETE("/:id", qa.DeleteSession)
			}
		}
	}

	logger.Info("HTTP routes registered")
	return engine
}
