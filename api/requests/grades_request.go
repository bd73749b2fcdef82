package requests

import (
	"strings"

	"github.com/SamuelLeutner/fetch-canvas-grades/config"
)

// GradesRequest holds the query parameters of the grades and chart
// endpoints. Unset parameters fall back to the server configuration.
type GradesRequest struct {
	StudentStatus     string   `query:"student_status"`
	Section           string   `query:"section"`
	DropThreshold     *float64 `query:"drop_threshold"`
	DropNA            *bool    `query:"drop_na"`
	DropStudents      string   `query:"drop_students"`
	FilterAssignments string   `query:"filter_assignments"`
	GroupBy           string   `query:"group_by" validate:"omitempty,oneof=Section Grader"`
	Layout            string   `query:"layout" validate:"omitempty,oneof=submission fsc"`

	OverrideCampus  *string `query:"override_campus"`
	OverrideCourse  *string `query:"override_course"`
	OverrideSection *string `query:"override_section"`
	OverrideSession *string `query:"override_session"`
	OverrideSubject *string `query:"override_subject"`
}

// Apply merges the request over the configured defaults.
func (r *GradesRequest) Apply(courseID int, defaults config.GradesConfig) config.GradesConfig {
	cfg := defaults
	cfg.CourseID = courseID
	if r.StudentStatus != "" {
		cfg.StudentStatus = r.StudentStatus
	}
	if r.Section != "" {
		cfg.Section = r.Section
	}
	if r.DropThreshold != nil {
		cfg.DropThreshold = *r.DropThreshold
	}
	if r.DropNA != nil {
		cfg.DropNA = *r.DropNA
	}
	if r.DropStudents != "" {
		cfg.DropStudents = strings.FieldsFunc(r.DropStudents, func(c rune) bool { return c == ',' || c == ' ' })
	}
	if r.FilterAssignments != "" {
		pattern := r.FilterAssignments
		cfg.FilterAssignments = &pattern
	}
	if r.GroupBy != "" {
		cfg.GroupBy = r.GroupBy
	}
	if r.Layout != "" {
		cfg.Layout = r.Layout
	}

	override := func(dst **string, v *string) {
		if v != nil {
			*dst = v
		}
	}
	override(&cfg.Overrides.Campus, r.OverrideCampus)
	override(&cfg.Overrides.Course, r.OverrideCourse)
	override(&cfg.Overrides.Section, r.OverrideSection)
	override(&cfg.Overrides.Session, r.OverrideSession)
	override(&cfg.Overrides.Subject, r.OverrideSubject)
	return cfg
}
