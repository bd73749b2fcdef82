package errors

import (
	"errors"
	"fmt"
)

// Error is a typed run error. Code identifies the failure class, Hint tells
// the instructor how to fix it.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code, message, hint string) *Error {
	return &Error{Code: code, Message: message, Hint: hint}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code, message, hint string) *Error {
	return &Error{Code: code, Message: message, Hint: hint, Err: err}
}

const (
	CodeInvalidBaseURL       = "INVALID_BASE_URL"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeUnauthorizedCourse   = "UNAUTHORIZED_COURSE"
	CodeNotFound             = "NOT_FOUND"
	CodeMissingGradeFields   = "MISSING_GRADE_FIELDS"
	CodeNoGrades             = "NO_GRADES"
	CodeCourseCodeFormat     = "COURSE_CODE_FORMAT"
	CodeNoAssignmentsMatched = "NO_ASSIGNMENTS_MATCHED"
	CodeUpstream             = "UPSTREAM"
	CodeValidation           = "VALIDATION"
	CodeInternal             = "INTERNAL"
)

// Predefined errors for the fatal classes of a run.
var (
	ErrInvalidBaseURL = New(CodeInvalidBaseURL,
		"the canvas URL you specified is invalid",
		"Supply a URL in the following format: https://canvas.ubc.ca")
	ErrInvalidToken = New(CodeInvalidToken,
		"your API token is invalid",
		"See https://community.canvaslms.com/t5/Instructor-Guide/How-do-I-manage-API-access-tokens-as-an-instructor/ta-p/1177 for how to set up API tokens")
	ErrUnauthorizedCourse = New(CodeUnauthorizedCourse,
		"your API token is not authorized to access this course",
		"Run `show-courses` to see all courses you can access")
	ErrNotFound = New(CodeNotFound,
		"resource not found",
		"Check the course id, it can be found in the course's canvas page URL")
	ErrMissingGradeFields = New(CodeMissingGradeFields,
		"cannot find the grading fields `unposted_current_score` and `final_score`",
		"This usually means that you do not have permission to read student grades. Contact your LMS administrator to upgrade your role (e.g. to \"instructor\" or \"course assistant\")")
	ErrNoGrades = New(CodeNoGrades,
		"did not find any assigned grades",
		"Check --student-status, --drop-threshold and --drop-students")
	ErrCourseCodeFormat = New(CodeCourseCodeFormat,
		"could not split the course code into subject, course number and session",
		"Pass --override-subject, --override-course and --override-session")
	ErrNoAssignmentsMatched = New(CodeNoAssignmentsMatched,
		"no assignment names matched the provided regular expression",
		"Adjust --filter-assignments or pass \"False\" to skip assignment charts")
	ErrUpstream   = New(CodeUpstream, "the LMS request failed", "")
	ErrValidation = New(CodeValidation, "invalid configuration", "Run with --help to see the accepted values")
	ErrInternal   = New(CodeInternal, "internal error", "")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Message, ErrInternal.Hint)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// CloneWrap returns a copy of err wrapping cause.
func CloneWrap(err *Error, message string, cause error) *Error {
	clone := Clone(err, message)
	if clone != nil {
		clone.Err = cause
	}
	return clone
}

// HasCode reports whether any error in err's chain is an *Error with code.
func HasCode(err error, code string) bool {
	var e *Error
	for err != nil {
		if errors.As(err, &e) {
			if e.Code == code {
				return true
			}
			err = e.Err
			continue
		}
		return false
	}
	return false
}
