package routes

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/topiclens/backend/internal/server/middleware"
	"github.com/topiclens/backend/pkg/logger"
	"github.com/topiclens/backend/pkg/search"
)

// SearchHandler exposes the web search provider directly.
func SearchHandler(c echo.Context) error {
	type searchBody struct {
		Query      string `json:"query" validate:"required"`
		NumResults int    `json:"num_results" validate:"required,min=1"`
	}

	type searchResponse struct {
		Message string       `json:"message,omitempty"`
		Hits    []search.Hit `json:"hits,omitempty"`
	}

	data := new(searchBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{Message: "Invalid request body"})
	}
	if strings.TrimSpace(data.Query) == "" {
		return c.JSON(http.StatusBadRequest, searchResponse{Message: "Invalid request body"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	hits, err := app.Search.Search(ctx, data.Query, data.NumResults)
	if err != nil {
		logger.Error("Search request failed", "err", err)
		return c.JSON(http.StatusInternalServerError, searchResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, searchResponse{Hits: hits})
}
