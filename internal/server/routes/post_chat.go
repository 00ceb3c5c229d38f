package routes

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/topiclens/backend/internal/server/middleware"
	"github.com/topiclens/backend/pkg/logger"
)

// ChatStreamHandler streams an answer as JSON lines. Each line carries
// the accumulated message so far; a mid-stream failure emits one final
// line with the error set and already-delivered text standing.
func ChatStreamHandler(c echo.Context) error {
	type chatRequest struct {
		Message string `json:"message" validate:"required"`
	}

	type streamResponse struct {
		Message string `json:"message"`
		Error   string `json:"error,omitempty"`
	}

	data := new(chatRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, streamResponse{Error: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, streamResponse{Error: "Invalid request body"})
	}
	if strings.TrimSpace(data.Message) == "" {
		return c.JSON(http.StatusBadRequest, streamResponse{Error: "Message must not be empty"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	contentChan, err := app.Chat.StreamAnswer(ctx, data.Message)
	if err != nil {
		logger.Error("Failed to start chat stream", "err", err)
		return c.JSON(http.StatusInternalServerError, streamResponse{Error: "Internal server error"})
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c.Response().WriteHeader(http.StatusOK)

	enc := json.NewEncoder(c.Response())
	var messageBuffer strings.Builder

	for event := range contentChan {
		if event.Type == "error" {
			logger.Error("Chat stream terminated early", "err", event.Err)
			if err := enc.Encode(streamResponse{
				Message: messageBuffer.String(),
				Error:   event.Err,
			}); err != nil {
				return err
			}
			c.Response().Flush()
			return nil
		}

		messageBuffer.WriteString(event.Content)
		if err := enc.Encode(streamResponse{Message: messageBuffer.String()}); err != nil {
			return err
		}
		c.Response().Flush()
	}

	return nil
}
