package models

// MissingStudentNumber marks an enrollment whose user carries no SIS id.
// Canvas strips sis_user_id from concluded courses.
const MissingStudentNumber = "N/A"

// Grade column names shared by the audit tables and the exports.
const (
	ColUnpostedPercentGrade  = "Unposted Percent Grade"
	ColPercentGrade          = "Percent Grade"
	ColPercentBeforeOverride = "Percent Grade Before Override"
	ColUnpostedFinalGrade    = "Unposted Final Grade"
	ColCurrentGrade          = "Current Grade"
	ColExactPercentGrade     = "Exact Percent Grade"
	ColUnpostedExactPercent  = "Unposted Exact Percent Grade"
)

// EnrollmentRecord is one student enrollment after extraction.
type EnrollmentRecord struct {
	UserID        int    `json:"user_id"`
	StudentNumber string `json:"student_number"`
	Surname       string `json:"surname"`
	PreferredName string `json:"preferred_name"`
	SectionID     int    `json:"section_id"`
	Section       string `json:"section"`

	UnpostedPercentGrade *float64 `json:"unposted_percent_grade"`
	// PercentGrade is the posted grade: the override when one exists,
	// otherwise final_score.
	PercentGrade       *float64 `json:"percent_grade"`
	PreOverrideGrade   *float64 `json:"percent_grade_before_override,omitempty"`
	Overridden         bool     `json:"overridden"`
	UnpostedFinalGrade *float64 `json:"unposted_final_grade"`
	CurrentGrade       *float64 `json:"current_grade"`

	DifferentUnpostedScore bool `json:"-"`
	DifferentCurrentScore  bool `json:"-"`

	Position int `json:"-"`
}

// HasStudentNumber reports whether the SIS id is known.
func (r EnrollmentRecord) HasStudentNumber() bool {
	return r.StudentNumber != "" && r.StudentNumber != MissingStudentNumber
}

// Grade returns the value of a named grade column.
func (r EnrollmentRecord) Grade(column string) *float64 {
	switch column {
	case ColUnpostedPercentGrade:
		return r.UnpostedPercentGrade
	case ColPercentGrade:
		return r.PercentGrade
	case ColPercentBeforeOverride:
		return r.PreOverrideGrade
	case ColUnpostedFinalGrade:
		return r.UnpostedFinalGrade
	case ColCurrentGrade:
		return r.CurrentGrade
	}
	return nil
}

type RemovalStage string

const (
	StageThreshold  RemovalStage = "threshold"
	StageIncomplete RemovalStage = "incomplete"
	StageExcluded   RemovalStage = "excluded"
	StageDuplicate  RemovalStage = "duplicate"
)

// RemovedRecord is a row dropped by the entry filter, tagged with the stage
// that dropped it.
type RemovedRecord struct {
	Record EnrollmentRecord `json:"record"`
	Stage  RemovalStage     `json:"stage"`
}

// PreparedGradeRow is the final per-student output row.
type PreparedGradeRow struct {
	UserID        int    `json:"user_id" validate:"required"`
	StudentNumber string `json:"student_number" validate:"required,ne=N/A"`
	Surname       string `json:"surname" validate:"required"`
	PreferredName string `json:"preferred_name" validate:"required"`
	Section       string `json:"section" validate:"required"`

	PercentGrade              int      `json:"percent_grade" validate:"gte=0,lte=100"`
	ExactPercentGrade         float64  `json:"exact_percent_grade"`
	UnpostedPercentGrade      int      `json:"unposted_percent_grade"`
	UnpostedExactPercentGrade float64  `json:"unposted_exact_percent_grade"`
	PercentBeforeOverride     *float64 `json:"percent_grade_before_override,omitempty"`

	Campus         string `json:"campus"`
	Subject        string `json:"subject"`
	Course         string `json:"course"`
	Session        string `json:"session"`
	AcademicPeriod string `json:"academic_period"`

	Standing       string `json:"standing"`
	StandingReason string `json:"standing_reason"`
}

// AssignmentScoreRecord is one graded submission of a retained student.
type AssignmentScoreRecord struct {
	UserID        int      `json:"user_id"`
	GraderID      *int     `json:"grader_id"`
	Grader        string   `json:"grader"`
	Name          string   `json:"name"`
	StudentNumber string   `json:"student_number"`
	Assignment    string   `json:"assignment"`
	Score         *float64 `json:"score"`
	Section       string   `json:"section"`
}
