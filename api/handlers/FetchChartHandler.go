package handlers

import (
	"bytes"
	"context"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/SamuelLeutner/fetch-canvas-grades/chart"
	"github.com/SamuelLeutner/fetch-canvas-grades/config"
	"github.com/SamuelLeutner/fetch-canvas-grades/models"
	"github.com/SamuelLeutner/fetch-canvas-grades/pipeline"
)

// CreateFetchChartHandler serves the grade distribution chart of one course
// as a standalone HTML page. Assignment views are added only when
// filter_assignments is given.
func CreateFetchChartHandler(deps Deps) fiber.Handler {
	return func(c fiber.Ctx) error {
		cfg, ok, err := parseRequest(c, deps)
		if !ok {
			return err
		}

		deps.Logger.Info("building chart", zap.Int("course_id", cfg.CourseID))

		var page bytes.Buffer
		done, err := runPipeline(c, deps, func(ctx context.Context) error {
			result, err := deps.Runner.Run(ctx, pipeline.OptionsFromConfig(cfg))
			if err != nil {
				return err
			}

			var scores []models.AssignmentScoreRecord
			if p := cfg.FilterAssignments; p != nil && *p != config.AssignmentsDisabled {
				if scores, err = deps.Runner.LoadAssignmentScores(ctx, result, *p); err != nil {
					return err
				}
			}

			ch := chart.Build(result.Rows, scores, chart.Options{
				Title:   result.Info.Subject + " " + result.Info.Course,
				GroupBy: cfg.GroupBy,
			})
			return ch.Render(&page)
		})
		if !done {
			return err
		}
		if err != nil {
			return writeError(c, deps.Logger, err, nil)
		}

		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Status(fiber.StatusOK).Send(page.Bytes())
	}
}
