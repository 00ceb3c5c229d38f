package main

import (
	"github.com/topiclens/backend/internal/server"
	"github.com/topiclens/backend/internal/util"
	"github.com/topiclens/backend/pkg/logger"
	"github.com/topiclens/backend/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
