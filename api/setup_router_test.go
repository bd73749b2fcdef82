package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SamuelLeutner/fetch-canvas-grades/config"
	appErrors "github.com/SamuelLeutner/fetch-canvas-grades/errors"
	"github.com/SamuelLeutner/fetch-canvas-grades/models"
	"github.com/SamuelLeutner/fetch-canvas-grades/pipeline"
	"github.com/SamuelLeutner/fetch-canvas-grades/utils"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error) {
	args := m.Called(ctx, opts)
	result, _ := args.Get(0).(*pipeline.Result)
	return result, args.Error(1)
}

func (m *MockRunner) LoadAssignmentScores(ctx context.Context, result *pipeline.Result, pattern string) ([]models.AssignmentScoreRecord, error) {
	args := m.Called(ctx, result, pattern)
	scores, _ := args.Get(0).([]models.AssignmentScoreRecord)
	return scores, args.Error(1)
}

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		Course: models.Course{ID: 42, CourseCode: "CPSC 110 101 2023W1"},
		Info:   pipeline.CourseInfo{Subject: "CPSC", Course: "110"},
		Rows: []models.PreparedGradeRow{
			{UserID: 1, StudentNumber: "00012345", Surname: "Doe", PreferredName: "Jane", Section: "101", PercentGrade: 88, ExactPercentGrade: 87.6},
			{UserID: 2, StudentNumber: "00054321", Surname: "Roe", PreferredName: "Rick", Section: "101", PercentGrade: 71, ExactPercentGrade: 71.2},
		},
		Removed: []models.RemovedRecord{{
			Record: models.EnrollmentRecord{UserID: 3, StudentNumber: "1", PercentGrade: utils.FloatPtr(0)},
			Stage:  models.StageThreshold,
		}},
	}
}

func do(t *testing.T, runner *MockRunner, target string) (*http.Response, []byte) {
	t.Helper()
	cfg := config.Default()
	app := SetupRouter(runner, &cfg, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestPing(t *testing.T) {
	resp, body := do(t, new(MockRunner), "/api/v1/ping")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, "pong", payload["message"])
}

func TestFetchGrades(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, mock.MatchedBy(func(opts pipeline.Options) bool {
		return opts.CourseID == 42 &&
			opts.Section == "101" &&
			opts.Filter.Threshold == 5 &&
			!opts.Filter.DropIncomplete &&
			assert.ObjectsAreEqual([]string{"111", "222"}, opts.Filter.Exclude)
	})).Return(sampleResult(), nil)

	resp, body := do(t, runner, "/api/v1/courses/42/grades?section=101&drop_threshold=5&drop_na=false&drop_students=111,222&layout=fsc")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var payload struct {
		Layout  string              `json:"layout"`
		Headers []string            `json:"headers"`
		Export  []map[string]string `json:"export"`
		Rows    []json.RawMessage   `json:"rows"`
		Removed []json.RawMessage   `json:"removed"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, config.LayoutFSC, payload.Layout)
	assert.Equal(t, "Session", payload.Headers[0])
	require.Len(t, payload.Export, 2)
	assert.Equal(t, "00012345", payload.Export[0]["Student Number"])
	assert.Equal(t, "88", payload.Export[0]["Percent Grade"])
	assert.Len(t, payload.Rows, 2)
	assert.Len(t, payload.Removed, 1)
	runner.AssertExpectations(t)
}

func TestFetchGradesRejectsBadInput(t *testing.T) {
	runner := new(MockRunner)

	resp, _ := do(t, runner, "/api/v1/courses/abc/grades")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, runner, "/api/v1/courses/42/grades?group_by=Teacher")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestFetchGradesMapsRunErrors(t *testing.T) {
	cases := map[*appErrors.Error]int{
		appErrors.ErrInvalidToken:       http.StatusUnauthorized,
		appErrors.ErrUnauthorizedCourse: http.StatusForbidden,
		appErrors.ErrNotFound:           http.StatusNotFound,
		appErrors.ErrNoGrades:           http.StatusUnprocessableEntity,
		appErrors.ErrUpstream:           http.StatusBadGateway,
	}
	for appErr, status := range cases {
		runner := new(MockRunner)
		runner.On("Run", mock.Anything, mock.Anything).Return(nil, appErr)

		resp, body := do(t, runner, "/api/v1/courses/42/grades")
		assert.Equal(t, status, resp.StatusCode, appErr.Code)

		var payload map[string]string
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, appErr.Code, payload["code"])
		assert.Equal(t, appErr.Hint, payload["hint"])
	}
}

func TestFetchGradesKeepsAuditWhenNoGradesRemain(t *testing.T) {
	partial := sampleResult()
	partial.Rows = nil
	partial.Diagnostics = []models.Diagnostic{{Severity: models.SeverityWarning, Code: models.DiagDroppedRows}}

	runner := new(MockRunner)
	runner.On("Run", mock.Anything, mock.Anything).Return(partial, appErrors.Clone(appErrors.ErrNoGrades, "no grades"))

	resp, body := do(t, runner, "/api/v1/courses/42/grades")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var payload struct {
		Code        string              `json:"code"`
		Removed     []json.RawMessage   `json:"removed"`
		Diagnostics []models.Diagnostic `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, appErrors.CodeNoGrades, payload.Code)
	assert.Len(t, payload.Removed, 1)
	require.Len(t, payload.Diagnostics, 1)
	assert.Equal(t, models.DiagDroppedRows, payload.Diagnostics[0].Code)
}

func TestFetchChart(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, mock.Anything).Return(sampleResult(), nil)

	resp, body := do(t, runner, "/api/v1/courses/42/chart")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), "vegaEmbed")
	assert.Contains(t, string(body), "Grade Distribution CPSC 110")
	runner.AssertNotCalled(t, "LoadAssignmentScores", mock.Anything, mock.Anything, mock.Anything)
}

func TestFetchChartWithAssignments(t *testing.T) {
	result := sampleResult()
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, mock.Anything).Return(result, nil)
	runner.On("LoadAssignmentScores", mock.Anything, result, "Lab").Return([]models.AssignmentScoreRecord{
		{UserID: 1, Name: "Jane Doe", Assignment: "Lab 1", Score: utils.FloatPtr(90)},
	}, nil)

	resp, body := do(t, runner, "/api/v1/courses/42/chart?filter_assignments=Lab")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), "Lab 1")
	runner.AssertExpectations(t)
}

func TestFetchChartAssignmentsNotMatched(t *testing.T) {
	result := sampleResult()
	runner := new(MockRunner)
	runner.On("Run", mock.Anything, mock.Anything).Return(result, nil)
	runner.On("LoadAssignmentScores", mock.Anything, result, "Quiz").Return(nil, appErrors.ErrNoAssignmentsMatched)

	resp, _ := do(t, runner, "/api/v1/courses/42/chart?filter_assignments=Quiz")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
