package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/topiclens/backend/internal/db"
	"github.com/topiclens/backend/internal/server/middleware"
	"github.com/topiclens/backend/pkg/logger"
)

// GetIngestJobHandler returns the current state of an ingestion job.
func GetIngestJobHandler(c echo.Context) error {
	type getIngestResponse struct {
		Message  string `json:"message,omitempty"`
		JobID    string `json:"job_id,omitempty"`
		Status   string `json:"status,omitempty"`
		Progress string `json:"progress,omitempty"`
		Result   any    `json:"result"`
	}

	jobID := c.Param("job_id")
	if jobID == "" {
		return c.JSON(http.StatusBadRequest, getIngestResponse{Message: "Missing job id"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	job, err := app.Jobs.Get(ctx, jobID)
	if errors.Is(err, db.ErrJobNotFound) {
		return c.JSON(http.StatusNotFound, getIngestResponse{Message: "Job not found"})
	}
	if err != nil {
		logger.Error("Failed to load job", "job_id", jobID, "err", err)
		return c.JSON(http.StatusInternalServerError, getIngestResponse{Message: "Internal server error"})
	}

	resp := getIngestResponse{
		JobID:    job.PublicID,
		Status:   job.Status,
		Progress: job.Progress,
	}

	switch job.Status {
	case db.JobStatusCompleted:
		var summary json.RawMessage
		if err := json.Unmarshal(job.Result, &summary); err == nil {
			resp.Result = summary
		}
	case db.JobStatusFailed:
		resp.Result = job.FailureReason
	}

	return c.JSON(http.StatusOK, resp)
}
