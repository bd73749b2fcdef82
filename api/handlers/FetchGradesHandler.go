package handlers

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/SamuelLeutner/fetch-canvas-grades/export"
	"github.com/SamuelLeutner/fetch-canvas-grades/pipeline"
)

// CreateFetchGradesHandler serves the prepared grades of one course as JSON,
// with the export rows laid out in the requested layout.
func CreateFetchGradesHandler(deps Deps) fiber.Handler {
	return func(c fiber.Ctx) error {
		cfg, ok, err := parseRequest(c, deps)
		if !ok {
			return err
		}
		layout, err := export.LayoutByName(cfg.Layout)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid layout",
				"details": err.Error(),
			})
		}

		deps.Logger.Info("fetching grades", zap.Int("course_id", cfg.CourseID))

		var result *pipeline.Result
		done, err := runPipeline(c, deps, func(ctx context.Context) error {
			var runErr error
			result, runErr = deps.Runner.Run(ctx, pipeline.OptionsFromConfig(cfg))
			return runErr
		})
		if !done {
			return err
		}
		if err != nil {
			return writeError(c, deps.Logger, err, result)
		}

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"course":      result.Course,
			"layout":      layout.Name,
			"headers":     layout.Headers(),
			"export":      layout.Dataset(result.Rows).Rows,
			"rows":        result.Rows,
			"removed":     result.Removed,
			"duplicates":  result.Duplicates,
			"diagnostics": result.Diagnostics,
		})
	}
}
