package pipeline

import (
	"github.com/SamuelLeutner/fetch-canvas-grades/models"
	"github.com/SamuelLeutner/fetch-canvas-grades/utils"
)

var f = utils.FloatPtr

func sis(s string) *string { return &s }

func enrollment(userID int, student *string, sortable string, sectionID int, grades models.Grades) models.Enrollment {
	return models.Enrollment{
		ID:              userID * 10,
		UserID:          userID,
		CourseSectionID: sectionID,
		Type:            "StudentEnrollment",
		EnrollmentState: "active",
		Grades:          grades,
		User: models.User{
			ID:           userID,
			SortableName: sortable,
			SISUserID:    student,
		},
	}
}

func record(userID int, student, section string, posted, unposted *float64) models.EnrollmentRecord {
	return models.EnrollmentRecord{
		UserID:               userID,
		StudentNumber:        student,
		Surname:              "Doe",
		PreferredName:        "Jane",
		Section:              section,
		PercentGrade:         posted,
		UnpostedPercentGrade: unposted,
	}
}
