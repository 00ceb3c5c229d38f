package middleware

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/topiclens/backend/internal/db"
	"github.com/topiclens/backend/pkg/ai"
	"github.com/topiclens/backend/pkg/chat"
	"github.com/topiclens/backend/pkg/scraper"
	"github.com/topiclens/backend/pkg/search"
)

// App carries the shared process dependencies into request handlers.
type App struct {
	DBConn   *pgxpool.Pool
	Queue    *amqp091.Channel
	Jobs     *db.JobStore
	AiClient ai.Client
	Chat     *chat.Engine
	Scraper  *scraper.Scraper
	Search   *search.Client
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
