package main

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SamuelLeutner/fetch-canvas-grades/chart"
	"github.com/SamuelLeutner/fetch-canvas-grades/config"
	appErrors "github.com/SamuelLeutner/fetch-canvas-grades/errors"
	"github.com/SamuelLeutner/fetch-canvas-grades/export"
	"github.com/SamuelLeutner/fetch-canvas-grades/models"
	"github.com/SamuelLeutner/fetch-canvas-grades/pipeline"
	"github.com/SamuelLeutner/fetch-canvas-grades/report"
	"github.com/SamuelLeutner/fetch-canvas-grades/services"
)

var openBrowser = browser.OpenFile

func newPrepareGradesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare-grades",
		Short: "Download a course's grades and write the submission file and chart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrepareGrades(cmd.Context(), cmd)
		},
	}

	f := cmd.Flags()
	f.Int("course-id", 0, "Canvas course id, found in the course page URL (required)")
	f.String("api-url", config.DefaultAPIURL, "Base URL of the Canvas instance")
	f.String("filename", "", "Output file name without extension (default: grades_<course code>)")
	f.String("student-status", config.DefaultStudentStatus, "Enrollment state to include, e.g. active or completed")
	f.String("section", "", "Only prepare grades of this section label")
	f.Float64("drop-threshold", 0, "Drop students with an unposted grade at or below this value")
	f.Bool("drop-na", true, "Drop students with missing information")
	f.String("drop-students", "", "Space separated student numbers to drop")
	f.String("filter-assignments", "", `Regex selecting assignments to chart; "False" skips assignments (default: ask)`)
	f.String("group-by", "", "Compare groups in the chart: Section or Grader (default: automatic)")
	f.Bool("open-chart", false, "Open the chart in the browser when done (default: ask)")
	f.String("layout", config.LayoutSubmission, "Column layout: submission or fsc")
	f.String("format", config.FormatCSV, "Output format: csv, xlsx or pdf")
	f.String("spreadsheet-id", "", "Also write the grades to this Google spreadsheet")
	f.String("credentials-file", "credentials.json", "Google service account credentials")
	f.String("override-campus", "", "Campus written to every row")
	f.String("override-course", "", "Course number written to every row")
	f.String("override-section", "", "Section written to every row")
	f.String("override-session", "", "Session written to every row, e.g. 2023W; the term number comes from the course code")
	f.String("override-subject", "", "Subject written to every row")

	return cmd
}

func runPrepareGrades(ctx context.Context, cmd *cobra.Command) error {
	s, err := openSession(cmd.Flags())
	if err != nil {
		return err
	}
	defer s.log.Sync() //nolint:errcheck
	cfg := s.cfg

	if err := cfg.ValidateGrades(); err != nil {
		return appErrors.CloneWrap(appErrors.ErrValidation, "", err)
	}
	layout, err := export.LayoutByName(cfg.Grades.Layout)
	if err != nil {
		return appErrors.CloneWrap(appErrors.ErrValidation, "", err)
	}

	out := report.New(os.Stdout)
	runner := pipeline.NewRunner(s.client, s.log)

	result, err := runner.Run(ctx, pipeline.OptionsFromConfig(cfg.Grades))
	if err != nil {
		if result != nil {
			out.Diagnostics(result.Diagnostics)
			out.Removed(result.Removed)
		}
		return err
	}

	var scores []models.AssignmentScoreRecord
	if pattern, ok := assignmentPattern(cfg.Grades.FilterAssignments); ok {
		scores, err = runner.LoadAssignmentScores(ctx, result, pattern)
		if err != nil {
			return err
		}
	}

	filename := cfg.Grades.Filename
	if filename == "" {
		filename = export.DefaultFilename(result.Course.CourseCode)
	}
	title := strings.TrimSpace(result.Info.Subject + " " + result.Info.Course)
	doc := export.NewDocument(title, layout, result.Rows, result.Removed)

	var warnings []string
	for _, issue := range export.ValidateRows(result.Rows) {
		warnings = append(warnings, issue.String())
	}

	gradesPath := export.WithExtension(filename, cfg.Grades.Format)
	if err := export.WriteFile(gradesPath, cfg.Grades.Format, doc); err != nil {
		return err
	}

	if cfg.SpreadsheetID != "" {
		if err := uploadToSheets(ctx, s, result.Course.CourseCode, doc); err != nil {
			return err
		}
	}

	ch := chart.Build(result.Rows, scores, chart.Options{Title: title, GroupBy: cfg.Grades.GroupBy})
	chartPath := filename + ".html"
	if err := ch.WriteFile(chartPath); err != nil {
		return err
	}

	out.Diagnostics(result.Diagnostics)
	out.Removed(result.Removed)
	out.Warnings(warnings)
	out.Saved("Grades", gradesPath)
	if cfg.SpreadsheetID != "" {
		out.Saved("Grades", "spreadsheet "+cfg.SpreadsheetID)
	}
	out.Saved("Grade distribution chart", chartPath)

	if shouldOpenChart(cfg.Grades.OpenChart) {
		if err := openBrowser(chartPath); err != nil {
			s.log.Warn("could not open the chart", zap.Error(err))
		}
	}
	return nil
}

func uploadToSheets(ctx context.Context, s *session, sheetName string, doc export.Document) error {
	credentials, err := resolveCredentialsPath(s.cfg.CredentialsFilePath, s.log)
	if err != nil {
		return err
	}
	writer, err := services.NewGoogleSheetsWriter(ctx, s.cfg.SpreadsheetID, credentials,
		s.cfg.MaxRetries, s.cfg.RetryDelay, s.log)
	if err != nil {
		return err
	}
	return export.NewSheetsExporter(writer, s.log).Export(ctx, sheetName, doc)
}

// assignmentPattern decides whether assignment scores are downloaded. An
// unset filter asks on a terminal and means all assignments when confirmed.
func assignmentPattern(filter *string) (string, bool) {
	if filter != nil {
		if *filter == config.AssignmentsDisabled {
			return "", false
		}
		return *filter, true
	}
	if !interactive() {
		return "", false
	}
	return "", confirm("Download and plot assignment scores?", true)
}

func shouldOpenChart(open *bool) bool {
	if open != nil {
		return *open
	}
	if !interactive() {
		return false
	}
	return confirm("Open the grade distribution chart in your browser?", true)
}
