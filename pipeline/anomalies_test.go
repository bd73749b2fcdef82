package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SamuelLeutner/fetch-canvas-grades/models"
)

func codes(diags []models.Diagnostic) []models.DiagnosticCode {
	out := make([]models.DiagnosticCode, len(diags))
	for i, d := range diags {
		out[i] = d.Code
	}
	return out
}

func find(diags []models.Diagnostic, code models.DiagnosticCode) *models.Diagnostic {
	for i := range diags {
		if diags[i].Code == code {
			return &diags[i]
		}
	}
	return nil
}

func TestReportCleanRunHasNoDiagnostics(t *testing.T) {
	rec := record(1, "1", "101", f(91.6), f(91.6))
	diags := Report(ReportInput{
		Extracted: []models.EnrollmentRecord{rec},
		Filter:    FilterResult{Kept: []models.EnrollmentRecord{rec}},
	})
	assert.Empty(t, diags)
}

func TestReportUnpostedTakesPrecedenceOverCurrent(t *testing.T) {
	a := record(1, "1", "101", f(70), f(80))
	a.DifferentUnpostedScore = true
	b := record(2, "2", "101", f(70), f(80))
	b.DifferentCurrentScore = true

	diags := Report(ReportInput{Extracted: []models.EnrollmentRecord{a, b}})
	assert.Equal(t, []models.DiagnosticCode{models.DiagUnpostedFinalDiffers}, codes(diags))

	diags = Report(ReportInput{Extracted: []models.EnrollmentRecord{b}})
	require.Equal(t, []models.DiagnosticCode{models.DiagCurrentDiffers}, codes(diags))
	assert.Equal(t, []string{models.ColPercentGrade, models.ColCurrentGrade}, diags[0].Columns)
}

func TestReportCapsDisplayedRows(t *testing.T) {
	var extracted []models.EnrollmentRecord
	for i := 1; i <= 7; i++ {
		rec := record(i, "1", "101", f(90), f(90))
		rec.Overridden = true
		rec.PreOverrideGrade = f(80)
		extracted = append(extracted, rec)
	}

	diags := Report(ReportInput{Extracted: extracted})
	d := find(diags, models.DiagGradeOverridden)
	require.NotNil(t, d)
	assert.Equal(t, models.SeverityNote, d.Severity)
	assert.Len(t, d.Rows, models.MaxDiagnosticRows)
	assert.Equal(t, 7, d.Total)
	assert.Equal(t, 1, d.Rows[0].UserID)
}

func TestReportDroppedAndDuplicates(t *testing.T) {
	low := record(1, "1", "101", f(0), f(0))
	dupA := record(42, "42", "A", f(80), f(80))
	dupB := record(42, "42", "B", f(80), f(80))
	noGrade := record(3, "3", "101", nil, f(50))

	diags := Report(ReportInput{
		Extracted: []models.EnrollmentRecord{low, dupA, dupB, noGrade},
		Filter: FilterResult{
			Kept: []models.EnrollmentRecord{dupA, noGrade},
			Removed: []models.RemovedRecord{
				{Record: low, Stage: models.StageThreshold},
				{Record: dupB, Stage: models.StageDuplicate},
			},
			Duplicates: []models.EnrollmentRecord{dupA, dupB},
		},
		Skipped:   []models.EnrollmentRecord{noGrade},
		Threshold: 0,
	})

	dropped := find(diags, models.DiagDroppedRows)
	require.NotNil(t, dropped)
	assert.Equal(t, 2, dropped.Total)
	assert.Equal(t, "1", dropped.Details["removed_threshold"])
	assert.Equal(t, "1", dropped.Details["missing_grade"])
	assert.Equal(t, "0", dropped.Details["threshold"])

	dup := find(diags, models.DiagDuplicateEnrollment)
	require.NotNil(t, dup)
	assert.Equal(t, models.SeverityWarning, dup.Severity)
	assert.Equal(t, []models.EnrollmentRecord{dupA, dupB}, dup.Rows)
	assert.Equal(t, "1", dup.Details["students"])
}

func TestReportMissingNumbersSectionsAndSession(t *testing.T) {
	missing := record(1, models.MissingStudentNumber, "", f(50), f(50))

	diags := Report(ReportInput{
		Extracted:             []models.EnrollmentRecord{missing},
		MissingStudentNumbers: 1,
		Unresolved:            []UnresolvedSection{{SectionID: 9, Name: "Sandbox", Rows: 1}},
		Course:                CourseInfo{SessionToken: "2024X", PeriodErr: errors.New("bad session")},
	})

	assert.Equal(t, []models.DiagnosticCode{
		models.DiagMissingStudentNumber,
		models.DiagUnresolvedSection,
		models.DiagUnparsedSession,
	}, codes(diags))
	assert.Equal(t, "Sandbox", diags[1].Details["section 9"])
	assert.Equal(t, "2024X", diags[2].Details["session"])
}
