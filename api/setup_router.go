package api

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/SamuelLeutner/fetch-canvas-grades/api/handlers"
	"github.com/SamuelLeutner/fetch-canvas-grades/config"
	"github.com/SamuelLeutner/fetch-canvas-grades/logger"
)

// HandlerTimeout bounds one pipeline run behind an HTTP request.
const HandlerTimeout = 10 * time.Minute

func SetupRouter(runner handlers.GradesRunner, appConfig *config.Config, log *zap.Logger) *fiber.App {
	if log == nil {
		log = zap.NewNop()
	}
	deps := handlers.Deps{
		Runner:   runner,
		Defaults: appConfig.Grades,
		Timeout:  HandlerTimeout,
		Logger:   log,
	}

	r := fiber.New()
	r.Use(logger.FiberMiddleware(log))
	api := r.Group("/api/v1")

	api.Get("/ping", handlers.CreatePingHandler(time.Now()))
	api.Get("/courses/:id/grades", handlers.CreateFetchGradesHandler(deps))
	api.Get("/courses/:id/chart", handlers.CreateFetchChartHandler(deps))

	return r
}
