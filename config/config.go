package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultAPIURL         = "https://canvas.ubc.ca"
	DefaultStudentStatus  = "active"
	DefaultEnrollmentType = "StudentEnrollment"
	DefaultCampus         = "UBC"

	GroupBySection = "Section"
	GroupByGrader  = "Grader"

	LayoutSubmission = "submission"
	LayoutFSC        = "fsc"

	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"

	// AssignmentsDisabled is the --filter-assignments value that skips
	// assignment downloads entirely.
	AssignmentsDisabled = "False"
)

type Config struct {
	APIURL    string `validate:"required,url"`
	Token     string
	Endpoints map[string]string

	PageSize            int           `validate:"gte=1,lte=100"`
	MaxParallelRequests int           `validate:"gte=1"`
	RequestsPerSecond   float64       `validate:"gt=0"`
	RetryDelay          time.Duration `validate:"gte=0"`
	MaxRetries          int           `validate:"gte=0"`
	RequestTimeout      time.Duration `validate:"gt=0"`

	SpreadsheetID       string
	CredentialsFilePath string `validate:"required_with=SpreadsheetID"`

	Log LogConfig

	Grades GradesConfig
}

type LogConfig struct {
	Level  string
	Format string `validate:"omitempty,oneof=console json"`
}

// GradesConfig holds the options of one prepare-grades run.
type GradesConfig struct {
	CourseID          int `validate:"required,gt=0"`
	Filename          string
	StudentStatus     string `validate:"required"`
	Section           string
	DropThreshold     float64
	DropNA            bool
	DropStudents      []string
	FilterAssignments *string
	GroupBy           string `validate:"omitempty,oneof=Section Grader"`
	OpenChart         *bool
	Layout            string `validate:"oneof=submission fsc"`
	Format            string `validate:"oneof=csv xlsx pdf"`
	Overrides         Overrides
}

// Overrides replace the values derived from the course code when set.
type Overrides struct {
	Campus  *string
	Course  *string
	Section *string
	Session *string
	Subject *string
}

// Default returns the configuration used before env, .env and flags apply.
func Default() Config {
	return Config{
		APIURL: DefaultAPIURL,
		Endpoints: map[string]string{
			"COURSES":     "/api/v1/courses",
			"COURSE":      "/api/v1/courses/%d",
			"ENROLLMENTS": "/api/v1/courses/%d/enrollments",
			"SECTIONS":    "/api/v1/courses/%d/sections",
			"ASSIGNMENTS": "/api/v1/courses/%d/assignments",
			"SUBMISSIONS": "/api/v1/courses/%d/assignments/%d/submissions",
			"USERS":       "/api/v1/courses/%d/users",
		},
		PageSize:            100,
		MaxParallelRequests: 5,
		RequestsPerSecond:   10,
		RetryDelay:          2000 * time.Millisecond,
		MaxRetries:          3,
		RequestTimeout:      60 * time.Second,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Grades: GradesConfig{
			StudentStatus: DefaultStudentStatus,
			DropNA:        true,
			Layout:        LayoutSubmission,
			Format:        FormatCSV,
		},
	}
}

// Load builds the configuration from .env, the environment and the flags
// registered on flags (nil means no flags).
func Load(flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	cfg.APIURL = strings.TrimRight(v.GetString("CANVAS_API_URL"), "/")
	cfg.Token = v.GetString("CANVAS_PAT")
	cfg.PageSize = v.GetInt("PAGE_SIZE")
	cfg.MaxParallelRequests = v.GetInt("MAX_PARALLEL_REQUESTS")
	cfg.RequestsPerSecond = v.GetFloat64("REQUESTS_PER_SECOND")
	cfg.RetryDelay = parseDuration(v.GetString("RETRY_DELAY"), cfg.RetryDelay)
	cfg.MaxRetries = v.GetInt("MAX_RETRIES")
	cfg.RequestTimeout = parseDuration(v.GetString("REQUEST_TIMEOUT"), cfg.RequestTimeout)
	cfg.SpreadsheetID = v.GetString("GOOGLE_SPREADSHEET_ID")
	cfg.CredentialsFilePath = v.GetString("GOOGLE_CREDENTIALS_FILE")
	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Grades = GradesConfig{
		CourseID:      v.GetInt("COURSE_ID"),
		Filename:      v.GetString("FILENAME"),
		StudentStatus: v.GetString("STUDENT_STATUS"),
		Section:       v.GetString("SECTION"),
		DropThreshold: v.GetFloat64("DROP_THRESHOLD"),
		DropNA:        v.GetBool("DROP_NA"),
		DropStudents:  strings.Fields(v.GetString("DROP_STUDENTS")),
		GroupBy:       v.GetString("GROUP_BY"),
		Layout:        strings.ToLower(v.GetString("LAYOUT")),
		Format:        strings.ToLower(v.GetString("FORMAT")),
		Overrides: Overrides{
			Campus:  optionalString(v, "OVERRIDE_CAMPUS"),
			Course:  optionalString(v, "OVERRIDE_COURSE"),
			Section: optionalString(v, "OVERRIDE_SECTION"),
			Session: optionalString(v, "OVERRIDE_SESSION"),
			Subject: optionalString(v, "OVERRIDE_SUBJECT"),
		},
		FilterAssignments: optionalString(v, "FILTER_ASSIGNMENTS"),
	}
	if v.IsSet("OPEN_CHART") {
		open := v.GetBool("OPEN_CHART")
		cfg.Grades.OpenChart = &open
	}

	return &cfg, nil
}

// Validate checks the connection settings. Grade options are validated
// separately by ValidateGrades since show-courses and serve do not use them.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.StructExcept(c, "Grades"); err != nil {
		return describe(err)
	}
	return nil
}

// ValidateGrades checks the prepare-grades options.
func (c *Config) ValidateGrades() error {
	if err := validator.New().Struct(c.Grades); err != nil {
		return describe(err)
	}
	return nil
}

func describe(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s (got %v)", fe.Field(), fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("%s", strings.Join(parts, "; "))
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("CANVAS_API_URL", d.APIURL)
	v.SetDefault("PAGE_SIZE", d.PageSize)
	v.SetDefault("MAX_PARALLEL_REQUESTS", d.MaxParallelRequests)
	v.SetDefault("REQUESTS_PER_SECOND", d.RequestsPerSecond)
	v.SetDefault("RETRY_DELAY", d.RetryDelay.String())
	v.SetDefault("MAX_RETRIES", d.MaxRetries)
	v.SetDefault("REQUEST_TIMEOUT", d.RequestTimeout.String())
	v.SetDefault("LOG_LEVEL", d.Log.Level)
	v.SetDefault("LOG_FORMAT", d.Log.Format)

	v.SetDefault("STUDENT_STATUS", d.Grades.StudentStatus)
	v.SetDefault("DROP_THRESHOLD", 0)
	v.SetDefault("DROP_NA", d.Grades.DropNA)
	v.SetDefault("LAYOUT", d.Grades.Layout)
	v.SetDefault("FORMAT", d.Grades.Format)
}

// flagKeys maps command-line flags onto their viper keys.
var flagKeys = map[string]string{
	"api-url":            "CANVAS_API_URL",
	"course-id":          "COURSE_ID",
	"filename":           "FILENAME",
	"student-status":     "STUDENT_STATUS",
	"section":            "SECTION",
	"drop-threshold":     "DROP_THRESHOLD",
	"drop-na":            "DROP_NA",
	"drop-students":      "DROP_STUDENTS",
	"filter-assignments": "FILTER_ASSIGNMENTS",
	"group-by":           "GROUP_BY",
	"open-chart":         "OPEN_CHART",
	"layout":             "LAYOUT",
	"format":             "FORMAT",
	"spreadsheet-id":     "GOOGLE_SPREADSHEET_ID",
	"credentials-file":   "GOOGLE_CREDENTIALS_FILE",
	"override-campus":    "OVERRIDE_CAMPUS",
	"override-course":    "OVERRIDE_COURSE",
	"override-section":   "OVERRIDE_SECTION",
	"override-session":   "OVERRIDE_SESSION",
	"override-subject":   "OVERRIDE_SUBJECT",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// optionalString distinguishes "not given" from "given as empty".
func optionalString(v *viper.Viper, key string) *string {
	if !v.IsSet(key) {
		return nil
	}
	value := v.GetString(key)
	return &value
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
