package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/topiclens/backend/internal/server/middleware"
	"github.com/topiclens/backend/pkg/scraper"
)

// ScrapeHandler scrapes a list of URLs and returns the results in the
// same order, per-page failures included.
func ScrapeHandler(c echo.Context) error {
	type scrapeBody struct {
		URLs []string `json:"urls" validate:"required,min=1,dive,url"`
	}

	type scrapeResponse struct {
		Message string           `json:"message,omitempty"`
		Results []scraper.Result `json:"results,omitempty"`
	}

	data := new(scrapeBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, scrapeResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, scrapeResponse{Message: "Invalid request body"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	results := app.Scraper.Scrape(ctx, data.URLs)

	return c.JSON(http.StatusOK, scrapeResponse{Results: results})
}
