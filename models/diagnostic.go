package models

type Severity string

const (
	SeverityNote    Severity = "note"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type DiagnosticCode string

const (
	DiagMissingStudentNumber DiagnosticCode = "missing_student_number"
	DiagGradeOverridden      DiagnosticCode = "grade_overridden"
	DiagUnpostedFinalDiffers DiagnosticCode = "unposted_final_differs"
	DiagCurrentDiffers       DiagnosticCode = "current_differs_from_final"
	DiagDuplicateEnrollment  DiagnosticCode = "duplicate_enrollment"
	DiagDroppedRows          DiagnosticCode = "dropped_threshold_or_missing"
	DiagUnresolvedSection    DiagnosticCode = "unresolved_section"
	DiagUnparsedSession      DiagnosticCode = "unparsed_session"
)

// MaxDiagnosticRows caps the rows carried for display.
const MaxDiagnosticRows = 5

// Diagnostic is an advisory or recoverable condition found during a run.
// Rows holds at most MaxDiagnosticRows examples; Total is the full count.
type Diagnostic struct {
	Severity Severity           `json:"severity"`
	Code     DiagnosticCode     `json:"code"`
	Rows     []EnrollmentRecord `json:"rows,omitempty"`
	Total    int                `json:"total"`
	Columns  []string           `json:"columns,omitempty"`
	Details  map[string]string  `json:"details,omitempty"`
}
