package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/SamuelLeutner/fetch-canvas-grades/api/requests"
	"github.com/SamuelLeutner/fetch-canvas-grades/config"
	appErrors "github.com/SamuelLeutner/fetch-canvas-grades/errors"
	"github.com/SamuelLeutner/fetch-canvas-grades/models"
	"github.com/SamuelLeutner/fetch-canvas-grades/pipeline"
)

// GradesRunner is the pipeline capability the handlers need.
type GradesRunner interface {
	Run(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
	LoadAssignmentScores(ctx context.Context, result *pipeline.Result, pattern string) ([]models.AssignmentScoreRecord, error)
}

// Deps is shared by the course handlers.
type Deps struct {
	Runner   GradesRunner
	Defaults config.GradesConfig
	Timeout  time.Duration
	Logger   *zap.Logger
}

var validate = validator.New()

// parseRequest reads the course id and query parameters. On failure the
// error response has already been written and ok is false.
func parseRequest(c fiber.Ctx, deps Deps) (config.GradesConfig, bool, error) {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil || courseID <= 0 {
		return config.GradesConfig{}, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid course id",
			"details": c.Params("id"),
		})
	}

	params := new(requests.GradesRequest)
	if err := c.Bind().Query(params); err != nil {
		deps.Logger.Warn("invalid query params", zap.Error(err))
		return config.GradesConfig{}, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid query params",
			"details": err.Error(),
		})
	}
	if err := validate.Struct(params); err != nil {
		return config.GradesConfig{}, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid query params",
			"details": err.Error(),
		})
	}
	return params.Apply(courseID, deps.Defaults), true, nil
}

// runPipeline runs work in the background and gives up when the request
// times out or the client goes away. work must not touch c. When done is
// false the timeout response has already been written.
func runPipeline(c fiber.Ctx, deps Deps, work func(ctx context.Context) error) (done bool, err error) {
	ctx, cancel := context.WithTimeout(c.Context(), deps.Timeout)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- work(ctx)
	}()

	select {
	case <-ctx.Done():
		deps.Logger.Warn("pipeline cancelled", zap.Error(ctx.Err()))
		return false, c.Status(fiber.StatusRequestTimeout).JSON(fiber.Map{
			"message": "Grade download timed out or was cancelled by client",
			"details": ctx.Err().Error(),
		})
	case err := <-errChan:
		return true, err
	}
}

// writeError maps a run error onto an HTTP response. A partial result, as
// returned with NO_GRADES, keeps its audit in the body.
func writeError(c fiber.Ctx, logger *zap.Logger, err error, partial *pipeline.Result) error {
	e := appErrors.FromError(err)
	logger.Error("grade request failed", zap.String("code", e.Code), zap.Error(err))
	body := fiber.Map{
		"code":    e.Code,
		"message": e.Error(),
		"hint":    e.Hint,
	}
	if partial != nil {
		body["removed"] = partial.Removed
		body["duplicates"] = partial.Duplicates
		body["diagnostics"] = partial.Diagnostics
	}
	return c.Status(statusFor(e.Code)).JSON(body)
}

func statusFor(code string) int {
	switch code {
	case appErrors.CodeInvalidToken:
		return http.StatusUnauthorized
	case appErrors.CodeUnauthorizedCourse, appErrors.CodeMissingGradeFields:
		return http.StatusForbidden
	case appErrors.CodeNotFound:
		return http.StatusNotFound
	case appErrors.CodeValidation, appErrors.CodeCourseCodeFormat, appErrors.CodeNoAssignmentsMatched:
		return http.StatusBadRequest
	case appErrors.CodeNoGrades:
		return http.StatusUnprocessableEntity
	case appErrors.CodeUpstream:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
