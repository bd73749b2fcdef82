package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/SamuelLeutner/fetch-canvas-grades/config"
	appErrors "github.com/SamuelLeutner/fetch-canvas-grades/errors"
	"github.com/SamuelLeutner/fetch-canvas-grades/models"
)

// GradeSource is the LMS capability the pipeline needs.
type GradeSource interface {
	GetCourse(ctx context.Context, courseID int) (*models.Course, error)
	ListEnrollments(ctx context.Context, courseID int, enrollmentType, state string) ([]models.Enrollment, error)
	ListSections(ctx context.Context, courseID int) ([]models.Section, error)
	ListAssignments(ctx context.Context, courseID int) ([]models.Assignment, error)
	ListSubmissions(ctx context.Context, courseID int, assignmentIDs []int) ([]models.Submission, error)
	ListUsers(ctx context.Context, courseID int) ([]models.User, error)
}

type Options struct {
	CourseID      int
	StudentStatus string
	Section       string
	Filter        FilterOptions
	Overrides     CourseOverrides
}

// OptionsFromConfig maps the prepare-grades configuration onto run options.
func OptionsFromConfig(cfg config.GradesConfig) Options {
	return Options{
		CourseID:      cfg.CourseID,
		StudentStatus: cfg.StudentStatus,
		Section:       cfg.Section,
		Filter: FilterOptions{
			Threshold:      cfg.DropThreshold,
			DropIncomplete: cfg.DropNA,
			Exclude:        cfg.DropStudents,
		},
		Overrides: CourseOverrides{
			Campus:  cfg.Overrides.Campus,
			Course:  cfg.Overrides.Course,
			Section: cfg.Overrides.Section,
			Session: cfg.Overrides.Session,
			Subject: cfg.Overrides.Subject,
		},
	}
}

// Result is everything one run produced.
type Result struct {
	Course      models.Course             `json:"course"`
	Info        CourseInfo                `json:"info"`
	Extracted   []models.EnrollmentRecord `json:"-"`
	Unresolved  []UnresolvedSection       `json:"unresolved_sections,omitempty"`
	Filter      FilterResult              `json:"-"`
	Skipped     []models.EnrollmentRecord `json:"skipped,omitempty"`
	Rows        []models.PreparedGradeRow `json:"rows"`
	Removed     []models.RemovedRecord    `json:"removed"`
	Duplicates  []models.EnrollmentRecord `json:"duplicates"`
	Diagnostics []models.Diagnostic       `json:"diagnostics"`
}

type Runner struct {
	source GradeSource
	logger *zap.Logger
}

func NewRunner(source GradeSource, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{source: source, logger: logger}
}

// Run downloads one course and takes it through extraction, section
// resolution, filtering and normalization. Advisory findings are returned in
// Result.Diagnostics; only fatal conditions are returned as errors.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	status := opts.StudentStatus
	if status == "" {
		status = config.DefaultStudentStatus
	}

	course, err := r.source.GetCourse(ctx, opts.CourseID)
	if err != nil {
		return nil, err
	}
	r.logger.Info("course loaded", zap.Int("course_id", course.ID), zap.String("course_code", course.CourseCode))

	info, err := ResolveCourseInfo(course.CourseCode, opts.Overrides)
	if err != nil {
		return nil, err
	}

	enrollments, err := r.source.ListEnrollments(ctx, opts.CourseID, config.DefaultEnrollmentType, status)
	if err != nil {
		return nil, err
	}
	r.logger.Info("enrollments downloaded", zap.Int("count", len(enrollments)))

	extracted, err := Extract(enrollments, ExtractOptions{EnrollmentType: config.DefaultEnrollmentType})
	if err != nil {
		return nil, err
	}

	sections, err := r.source.ListSections(ctx, opts.CourseID)
	if err != nil {
		return nil, err
	}
	records, unresolved := ResolveSections(extracted.Records, sections)
	if label := opts.Overrides.Section; label != nil {
		records = OverrideSection(records, *label)
		unresolved = nil
	}
	records = SelectSection(records, opts.Section)
	unresolved = stillUnresolved(unresolved, records)

	filtered := Filter(records, opts.Filter)
	normalized := Normalize(filtered.Kept, info)

	result := &Result{
		Course:     *course,
		Info:       info,
		Extracted:  records,
		Unresolved: unresolved,
		Filter:     filtered,
		Skipped:    normalized.Skipped,
		Rows:       normalized.Rows,
		Removed:    filtered.Removed,
		Duplicates: filtered.Duplicates,
	}
	result.Diagnostics = Report(ReportInput{
		Extracted:             records,
		MissingStudentNumbers: countMissing(records),
		Unresolved:            unresolved,
		Filter:                filtered,
		Skipped:               normalized.Skipped,
		Threshold:             opts.Filter.Threshold,
		Course:                info,
	})

	for _, d := range result.Diagnostics {
		r.logger.Debug("diagnostic", zap.String("summary", Summary(d)))
	}
	r.logger.Info("grades prepared",
		zap.Int("rows", len(result.Rows)),
		zap.Int("removed", len(result.Removed)),
		zap.Int("diagnostics", len(result.Diagnostics)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if len(result.Rows) == 0 {
		return result, appErrors.Clone(appErrors.ErrNoGrades,
			fmt.Sprintf("did not find any assigned grades in course %d", opts.CourseID))
	}
	return result, nil
}

// LoadAssignmentScores downloads the assignments matching pattern and the
// scores of the students retained by result.
func (r *Runner) LoadAssignmentScores(ctx context.Context, result *Result, pattern string) ([]models.AssignmentScoreRecord, error) {
	courseID := result.Course.ID

	assignments, err := r.source.ListAssignments(ctx, courseID)
	if err != nil {
		return nil, err
	}
	selected, err := SelectAssignments(assignments, pattern)
	if err != nil {
		return nil, err
	}

	ids := make([]int, len(selected))
	names := make([]string, len(selected))
	for i, a := range selected {
		ids[i] = a.ID
		names[i] = a.Name
	}
	r.logger.Info("downloading assignment scores", zap.Int("assignments", len(ids)), zap.String("names", strings.Join(names, ", ")))

	submissions, err := r.source.ListSubmissions(ctx, courseID, ids)
	if err != nil {
		return nil, err
	}
	users, err := r.source.ListUsers(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return ExtractAssignmentScores(selected, submissions, users, result.Filter.Kept), nil
}

func countMissing(records []models.EnrollmentRecord) int {
	n := 0
	for _, r := range records {
		if !r.HasStudentNumber() {
			n++
		}
	}
	return n
}
