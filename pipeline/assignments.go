package pipeline

import (
	"fmt"
	"math"
	"regexp"

	appErrors "github.com/SamuelLeutner/fetch-canvas-grades/errors"
	"github.com/SamuelLeutner/fetch-canvas-grades/models"
)

// SelectAssignments keeps published, gradable, graded assignments whose name
// matches pattern. An empty pattern matches every name.
func SelectAssignments(assignments []models.Assignment, pattern string) ([]models.Assignment, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, appErrors.CloneWrap(appErrors.ErrValidation,
			fmt.Sprintf("invalid assignment filter %q", pattern), err)
	}

	var selected []models.Assignment
	for _, a := range assignments {
		if !a.Published || a.PointsPossible == nil || *a.PointsPossible <= 0 || !a.GradedSubmissionsExist {
			continue
		}
		if !re.MatchString(a.Name) {
			continue
		}
		selected = append(selected, a)
	}

	if len(selected) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoAssignmentsMatched,
			fmt.Sprintf("no assignment names matched the provided regular expression: %q", pattern))
	}
	return selected, nil
}

// ExtractAssignmentScores joins submissions with their assignment, the course
// users and the retained enrollment records. Submissions of students that were
// filtered out are dropped.
func ExtractAssignmentScores(assignments []models.Assignment, submissions []models.Submission, users []models.User, kept []models.EnrollmentRecord) []models.AssignmentScoreRecord {
	byID := make(map[int]models.Assignment, len(assignments))
	for _, a := range assignments {
		byID[a.ID] = a
	}

	userByID := make(map[int]models.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}

	sectionByUser := make(map[int]string, len(kept))
	for _, r := range kept {
		if _, ok := sectionByUser[r.UserID]; !ok {
			sectionByUser[r.UserID] = r.Section
		}
	}

	var scores []models.AssignmentScoreRecord
	for _, s := range submissions {
		section, retained := sectionByUser[s.UserID]
		if !retained {
			continue
		}
		a, ok := byID[s.AssignmentID]
		if !ok {
			continue
		}

		rec := models.AssignmentScoreRecord{
			UserID:        s.UserID,
			Assignment:    a.Name,
			Section:       section,
			StudentNumber: models.MissingStudentNumber,
		}

		// Canvas reports negative grader ids for some external tools.
		if s.GraderID != nil && *s.GraderID >= 0 {
			id := *s.GraderID
			rec.GraderID = &id
			if g, ok := userByID[id]; ok {
				rec.Grader = g.Name
			}
		}

		if u, ok := userByID[s.UserID]; ok {
			rec.Name = u.Name
			if u.SISUserID != nil && *u.SISUserID != "" {
				rec.StudentNumber = *u.SISUserID
			}
		}

		if s.Score != nil && a.PointsPossible != nil && *a.PointsPossible > 0 {
			pct := roundTo(100*(*s.Score)/(*a.PointsPossible), 2)
			rec.Score = &pct
		}

		scores = append(scores, rec)
	}

	return scores
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
