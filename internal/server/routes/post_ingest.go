package routes

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/topiclens/backend/internal/queue"
	"github.com/topiclens/backend/internal/server/middleware"
	"github.com/topiclens/backend/internal/util"
	"github.com/topiclens/backend/pkg/logger"
)

// CreateIngestJobHandler accepts an ingestion request, persists the job
// and hands it to the worker. Responds 202 before any work happens.
func CreateIngestJobHandler(c echo.Context) error {
	type createIngestBody struct {
		Query      string `json:"query" validate:"required"`
		NumResults int    `json:"num_results" validate:"required,min=1"`
	}

	type createIngestResponse struct {
		Message string `json:"message,omitempty"`
		JobID   string `json:"job_id,omitempty"`
		Status  string `json:"status,omitempty"`
	}

	data := new(createIngestBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createIngestResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createIngestResponse{Message: "Invalid request body"})
	}

	data.Query = strings.TrimSpace(data.Query)
	if data.Query == "" {
		return c.JSON(http.StatusBadRequest, createIngestResponse{Message: "Invalid request body"})
	}

	jobID, err := util.NewJobID()
	if err != nil {
		logger.Error("Failed to generate job id", "err", err)
		return c.JSON(http.StatusInternalServerError, createIngestResponse{Message: "Internal server error"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	if err := app.Jobs.Insert(ctx, jobID, data.Query, data.NumResults); err != nil {
		logger.Error("Failed to insert job", "err", err)
		return c.JSON(http.StatusInternalServerError, createIngestResponse{Message: "Internal server error"})
	}

	msg := queue.IngestMsg{
		JobID:      jobID,
		Query:      data.Query,
		NumResults: data.NumResults,
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Failed to marshal ingest message", "err", err)
		return c.JSON(http.StatusInternalServerError, createIngestResponse{Message: "Internal server error"})
	}

	if err := queue.PublishFIFO(app.Queue, queue.IngestQueue, raw); err != nil {
		logger.Error("Failed to publish ingest message", "job_id", jobID, "err", err)
		return c.JSON(http.StatusInternalServerError, createIngestResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusAccepted, createIngestResponse{
		JobID:  jobID,
		Status: "queued",
	})
}
