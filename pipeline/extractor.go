package pipeline

import (
	"fmt"
	"strings"

	appErrors "github.com/SamuelLeutner/fetch-canvas-grades/errors"
	"github.com/SamuelLeutner/fetch-canvas-grades/models"
	"github.com/SamuelLeutner/fetch-canvas-grades/utils"
)

// ExtractOptions narrows the enrollments taken. The enrollment state is left
// to Canvas: aggregate states such as current_and_concluded match several
// enrollment_state values.
type ExtractOptions struct {
	EnrollmentType string
}

type ExtractResult struct {
	Records []models.EnrollmentRecord
}

// Extract maps Canvas enrollments onto enrollment records. A missing
// unposted_current_score or final_score key aborts the whole run: Canvas only
// hides those when the token lacks permission to read grades.
func Extract(enrollments []models.Enrollment, opts ExtractOptions) (ExtractResult, error) {
	var result ExtractResult

	for _, e := range enrollments {
		if opts.EnrollmentType != "" && e.Type != "" && e.Type != opts.EnrollmentType {
			continue
		}

		if !e.Grades.Has(models.KeyUnpostedCurrentScore) || !e.Grades.Has(models.KeyFinalScore) {
			return ExtractResult{}, appErrors.Clone(appErrors.ErrMissingGradeFields,
				fmt.Sprintf("%s (enrollment %d exposes: %s)",
					appErrors.ErrMissingGradeFields.Message, e.ID, describeKeys(e.Grades.Keys())))
		}

		rec := models.EnrollmentRecord{
			UserID:               e.User.ID,
			StudentNumber:        models.MissingStudentNumber,
			SectionID:            e.CourseSectionID,
			UnpostedPercentGrade: e.Grades.UnpostedCurrentScore,
			PercentGrade:         e.Grades.FinalScore,
			Position:             len(result.Records),
		}
		if rec.UserID == 0 {
			rec.UserID = e.UserID
		}

		if sis := e.User.SISUserID; sis != nil && *sis != "" {
			rec.StudentNumber = *sis
		}

		rec.Surname, rec.PreferredName = splitSortableName(e.User.SortableName)

		if e.Grades.OverrideScore != nil {
			rec.PercentGrade = e.Grades.OverrideScore
			rec.PreOverrideGrade = e.Grades.FinalScore
			rec.Overridden = true
		}

		if e.Grades.Has(models.KeyUnpostedFinalScore) {
			rec.UnpostedFinalGrade = e.Grades.UnpostedFinalScore
			rec.DifferentUnpostedScore = !utils.EqualFloat(e.Grades.UnpostedFinalScore, e.Grades.FinalScore)
		}
		if e.Grades.Has(models.KeyCurrentScore) {
			rec.CurrentGrade = e.Grades.CurrentScore
			rec.DifferentCurrentScore = !utils.EqualFloat(e.Grades.CurrentScore, e.Grades.FinalScore)
		}

		result.Records = append(result.Records, rec)
	}

	return result, nil
}

// splitSortableName splits "Surname, Given" at the first separator. A name
// without one is kept whole as the surname.
func splitSortableName(sortable string) (string, string) {
	surname, preferred, found := strings.Cut(sortable, ", ")
	if !found {
		return strings.TrimSpace(sortable), ""
	}
	return strings.TrimSpace(surname), strings.TrimSpace(preferred)
}

func describeKeys(keys []string) string {
	if len(keys) == 0 {
		return "no grade fields"
	}
	return strings.Join(keys, ", ")
}
