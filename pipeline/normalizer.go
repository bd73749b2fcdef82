package pipeline

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/SamuelLeutner/fetch-canvas-grades/config"
	appErrors "github.com/SamuelLeutner/fetch-canvas-grades/errors"
	"github.com/SamuelLeutner/fetch-canvas-grades/models"
)

// MaxPostedGrade is the cap applied to rounded posted grades.
const MaxPostedGrade = 100

type CourseOverrides struct {
	Campus  *string
	Course  *string
	Section *string
	Session *string
	Subject *string
}

// CourseInfo is the course context stamped on every output row.
type CourseInfo struct {
	CourseCode string `json:"course_code"`
	Campus     string `json:"campus"`
	Subject    string `json:"subject"`
	Course     string `json:"course"`
	// Session is the value written to the export. SessionToken is the term
	// token the academic period is derived from.
	Session        string  `json:"session"`
	SessionToken   string  `json:"session_token"`
	Section        *string `json:"section,omitempty"`
	AcademicPeriod string  `json:"academic_period"`
	PeriodErr      error   `json:"-"`
}

// ParseCourseCode splits a course code such as "DSCI 100 101 2024W1" into
// subject, course number and session.
func ParseCourseCode(code string) (subject, course, session string, err error) {
	fields := strings.Fields(code)
	if len(fields) < 3 {
		return "", "", "", appErrors.Clone(appErrors.ErrCourseCodeFormat,
			fmt.Sprintf("could not split the course code %q into subject, course number and session", code))
	}
	return fields[0], fields[1], fields[len(fields)-1], nil
}

// ResolveCourseInfo derives the course context from the course code and
// applies the manual overrides. A code that cannot be split is fatal unless
// subject, course and session are all overridden.
func ResolveCourseInfo(code string, o CourseOverrides) (CourseInfo, error) {
	info := CourseInfo{CourseCode: code, Campus: config.DefaultCampus, Section: o.Section}

	subject, course, session, err := ParseCourseCode(code)
	if err != nil && (o.Subject == nil || o.Course == nil || o.Session == nil) {
		return CourseInfo{}, err
	}
	info.Subject, info.Course = subject, course

	if o.Session != nil {
		info.Session = *o.Session
		info.SessionToken = *o.Session
		// A year-and-season override ("2023W") takes the term number from
		// the course code.
		if !endsInDigit(*o.Session) && endsInDigit(session) {
			info.SessionToken = *o.Session + session[len(session)-1:]
		}
	} else {
		info.SessionToken = session
		// Canvas appends the term number to the session; the submission
		// system only knows the year and season.
		if session != "" {
			info.Session = session[:len(session)-1]
		}
	}
	if o.Campus != nil {
		info.Campus = *o.Campus
	}
	if o.Course != nil {
		info.Course = *o.Course
	}
	if o.Subject != nil {
		info.Subject = *o.Subject
	}

	info.AcademicPeriod, info.PeriodErr = AcademicPeriod(info.SessionToken, info.Subject, info.Campus)
	return info, nil
}

func endsInDigit(s string) bool {
	return s != "" && s[len(s)-1] >= '0' && s[len(s)-1] <= '9'
}

var (
	sessionPattern = regexp.MustCompile(`^(\d{4})([A-Za-z])(\d)$`)
	campusSuffix   = regexp.MustCompile(`_([A-Za-z]+)$`)
)

// AcademicPeriod renders the academic period label of a session token, e.g.
// "2024W1" -> "2024-2025 Winter Term 1" and "2024S1" -> "2024 Summer Session".
// Subjects with a campus suffix ("MATH_O") get " (UBC-O)" appended.
func AcademicPeriod(session, subject, campus string) (string, error) {
	m := sessionPattern.FindStringSubmatch(strings.TrimSpace(session))
	if m == nil {
		return "", fmt.Errorf("session %q is not a 4-digit year followed by a term code", session)
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return "", fmt.Errorf("session %q: %w", session, err)
	}
	term := strings.ToUpper(m[2]) + m[3]

	var period string
	if term == "S1" {
		period = fmt.Sprintf("%d Summer Session", year)
	} else {
		period = fmt.Sprintf("%d-%d Winter Term %s", year, year+1, m[3])
	}

	if sm := campusSuffix.FindStringSubmatch(subject); sm != nil {
		period += fmt.Sprintf(" (%s-%s)", campus, sm[1])
	}
	return period, nil
}

// RoundHalfUp rounds to the nearest integer with ties away from zero,
// operating on the exact binary value.
func RoundHalfUp(x float64) int {
	return int(math.Round(x))
}

// CapPosted clamps a rounded posted grade to MaxPostedGrade.
func CapPosted(rounded int) int {
	if rounded > MaxPostedGrade {
		return MaxPostedGrade
	}
	return rounded
}

type NormalizeResult struct {
	Rows []models.PreparedGradeRow
	// Skipped holds records without a numeric posted or unposted grade.
	Skipped []models.EnrollmentRecord
}

// Normalize turns filtered records into output rows.
func Normalize(records []models.EnrollmentRecord, info CourseInfo) NormalizeResult {
	var result NormalizeResult
	result.Rows = make([]models.PreparedGradeRow, 0, len(records))

	for _, rec := range records {
		if rec.PercentGrade == nil || rec.UnpostedPercentGrade == nil {
			result.Skipped = append(result.Skipped, rec)
			continue
		}

		posted := *rec.PercentGrade
		unposted := *rec.UnpostedPercentGrade

		row := models.PreparedGradeRow{
			UserID:                    rec.UserID,
			StudentNumber:             rec.StudentNumber,
			Surname:                   rec.Surname,
			PreferredName:             rec.PreferredName,
			Section:                   rec.Section,
			PercentGrade:              CapPosted(RoundHalfUp(posted)),
			ExactPercentGrade:         posted,
			UnpostedPercentGrade:      RoundHalfUp(unposted),
			UnpostedExactPercentGrade: unposted,
			PercentBeforeOverride:     rec.PreOverrideGrade,
			Campus:                    info.Campus,
			Subject:                   info.Subject,
			Course:                    info.Course,
			Session:                   info.Session,
			AcademicPeriod:            info.AcademicPeriod,
		}
		if info.Section != nil {
			row.Section = *info.Section
		}

		result.Rows = append(result.Rows, row)
	}

	return result
}
