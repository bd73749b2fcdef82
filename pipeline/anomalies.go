package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SamuelLeutner/fetch-canvas-grades/models"
)

// ReportInput is the state the anomaly reporter reads. Nothing in it is
// modified.
type ReportInput struct {
	Extracted             []models.EnrollmentRecord
	MissingStudentNumbers int
	Unresolved            []UnresolvedSection
	Filter                FilterResult
	Skipped               []models.EnrollmentRecord
	Threshold             float64
	Course                CourseInfo
}

// Report collects the diagnostics of a run in presentation order.
func Report(in ReportInput) []models.Diagnostic {
	var diags []models.Diagnostic

	if in.MissingStudentNumbers > 0 {
		rows := selectRecords(in.Extracted, func(r models.EnrollmentRecord) bool { return !r.HasStudentNumber() })
		diags = append(diags, diagnostic(models.SeverityWarning, models.DiagMissingStudentNumber, rows,
			[]string{models.ColPercentGrade, models.ColUnpostedPercentGrade}, nil))
	}

	if len(in.Unresolved) > 0 {
		rows := selectRecords(in.Extracted, func(r models.EnrollmentRecord) bool { return r.Section == "" })
		details := make(map[string]string, len(in.Unresolved))
		for _, u := range in.Unresolved {
			name := u.Name
			if name == "" {
				name = "(not listed by Canvas)"
			}
			details["section "+strconv.Itoa(u.SectionID)] = name
		}
		diags = append(diags, diagnostic(models.SeverityWarning, models.DiagUnresolvedSection, rows, nil, details))
	}

	overridden := selectRecords(in.Extracted, func(r models.EnrollmentRecord) bool { return r.Overridden })
	if len(overridden) > 0 {
		diags = append(diags, diagnostic(models.SeverityNote, models.DiagGradeOverridden, overridden,
			[]string{models.ColPercentGrade, models.ColPercentBeforeOverride}, nil))
	}

	// A differing unposted final score implies the current score check is
	// noise, so only one of the two is shown.
	unposted := selectRecords(in.Extracted, func(r models.EnrollmentRecord) bool { return r.DifferentUnpostedScore })
	if len(unposted) > 0 {
		diags = append(diags, diagnostic(models.SeverityWarning, models.DiagUnpostedFinalDiffers, unposted,
			[]string{models.ColPercentGrade, models.ColUnpostedFinalGrade}, nil))
	} else if current := selectRecords(in.Extracted, func(r models.EnrollmentRecord) bool { return r.DifferentCurrentScore }); len(current) > 0 {
		diags = append(diags, diagnostic(models.SeverityWarning, models.DiagCurrentDiffers, current,
			[]string{models.ColPercentGrade, models.ColCurrentGrade}, nil))
	}

	var dropped []models.EnrollmentRecord
	counts := map[models.RemovalStage]int{}
	for _, rm := range in.Filter.Removed {
		if rm.Stage == models.StageDuplicate {
			continue
		}
		dropped = append(dropped, rm.Record)
		counts[rm.Stage]++
	}
	dropped = append(dropped, in.Skipped...)
	if len(dropped) > 0 {
		details := map[string]string{
			"threshold": strconv.FormatFloat(in.Threshold, 'f', -1, 64),
		}
		for _, stage := range []models.RemovalStage{models.StageThreshold, models.StageIncomplete, models.StageExcluded} {
			if counts[stage] > 0 {
				details["removed_"+string(stage)] = strconv.Itoa(counts[stage])
			}
		}
		if len(in.Skipped) > 0 {
			details["missing_grade"] = strconv.Itoa(len(in.Skipped))
		}
		diags = append(diags, diagnostic(models.SeverityNote, models.DiagDroppedRows, dropped,
			[]string{models.ColPercentGrade, models.ColUnpostedPercentGrade}, details))
	}

	if len(in.Filter.Duplicates) > 0 {
		users := map[int]struct{}{}
		for _, r := range in.Filter.Duplicates {
			users[r.UserID] = struct{}{}
		}
		diags = append(diags, diagnostic(models.SeverityWarning, models.DiagDuplicateEnrollment, in.Filter.Duplicates,
			[]string{models.ColPercentGrade}, map[string]string{"students": strconv.Itoa(len(users))}))
	}

	if in.Course.PeriodErr != nil {
		diags = append(diags, models.Diagnostic{
			Severity: models.SeverityWarning,
			Code:     models.DiagUnparsedSession,
			Details: map[string]string{
				"session": in.Course.SessionToken,
				"reason":  in.Course.PeriodErr.Error(),
			},
		})
	}

	return diags
}

func diagnostic(sev models.Severity, code models.DiagnosticCode, rows []models.EnrollmentRecord, columns []string, details map[string]string) models.Diagnostic {
	shown := rows
	if len(shown) > models.MaxDiagnosticRows {
		shown = shown[:models.MaxDiagnosticRows]
	}
	return models.Diagnostic{
		Severity: sev,
		Code:     code,
		Rows:     append([]models.EnrollmentRecord(nil), shown...),
		Total:    len(rows),
		Columns:  columns,
		Details:  details,
	}
}

func selectRecords(records []models.EnrollmentRecord, match func(models.EnrollmentRecord) bool) []models.EnrollmentRecord {
	var out []models.EnrollmentRecord
	for _, r := range records {
		if match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Summary is a one-line description of a diagnostic for logs.
func Summary(d models.Diagnostic) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %d", d.Severity, d.Code, d.Total)
	if d.Total == 1 {
		b.WriteString(" row")
	} else {
		b.WriteString(" rows")
	}
	return b.String()
}
