package server

import (
	"github.com/labstack/echo/v4"

	"github.com/topiclens/backend/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Ingestion routes
	apiRoutes.POST("/ingest", routes.CreateIngestJobHandler)
	apiRoutes.GET("/ingest/:job_id", routes.GetIngestJobHandler)

	// Chat routes
	apiRoutes.POST("/chat", routes.ChatStreamHandler)

	// Utility routes
	apiRoutes.POST("/scrape", routes.ScrapeHandler)
	apiRoutes.POST("/search", routes.SearchHandler)
}
