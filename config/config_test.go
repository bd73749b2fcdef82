package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("course-id", 0, "")
	fs.String("api-url", DefaultAPIURL, "")
	fs.String("drop-students", "", "")
	fs.Bool("drop-na", true, "")
	fs.String("override-session", "", "")
	fs.String("filter-assignments", "", "")
	fs.Bool("open-chart", false, "")
	fs.String("layout", LayoutSubmission, "")
	return fs
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CANVAS_API_URL", "")
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay)
	assert.Equal(t, DefaultStudentStatus, cfg.Grades.StudentStatus)
	assert.True(t, cfg.Grades.DropNA)
	assert.Nil(t, cfg.Grades.Overrides.Session)
	assert.Nil(t, cfg.Grades.FilterAssignments)
	assert.Nil(t, cfg.Grades.OpenChart)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("CANVAS_API_URL", "https://canvas.example.edu/")
	t.Setenv("CANVAS_PAT", "secret")
	t.Setenv("RETRY_DELAY", "250ms")
	t.Setenv("MAX_RETRIES", "5")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "https://canvas.example.edu", cfg.APIURL)
	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, 5, cfg.MaxRetries)
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	fs := newFlags()
	require.NoError(t, fs.Parse([]string{
		"--course-id=1234",
		"--drop-students", "111 222",
		"--drop-na=false",
		"--override-session=2024W2",
		"--filter-assignments=Quiz",
		"--open-chart",
	}))

	cfg, err := Load(fs)
	require.NoError(t, err)

	assert.Equal(t, 1234, cfg.Grades.CourseID)
	assert.Equal(t, []string{"111", "222"}, cfg.Grades.DropStudents)
	assert.False(t, cfg.Grades.DropNA)
	require.NotNil(t, cfg.Grades.Overrides.Session)
	assert.Equal(t, "2024W2", *cfg.Grades.Overrides.Session)
	require.NotNil(t, cfg.Grades.FilterAssignments)
	assert.Equal(t, "Quiz", *cfg.Grades.FilterAssignments)
	require.NotNil(t, cfg.Grades.OpenChart)
	assert.True(t, *cfg.Grades.OpenChart)
	assert.Nil(t, cfg.Grades.Overrides.Campus)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.APIURL = "not a url"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.SpreadsheetID = "sheet"
	assert.Error(t, cfg.Validate())
}

func TestValidateGrades(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.ValidateGrades(), "course id is required")

	cfg.Grades.CourseID = 42
	require.NoError(t, cfg.ValidateGrades())

	cfg.Grades.GroupBy = "Student"
	assert.Error(t, cfg.ValidateGrades())
}
