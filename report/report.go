package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/labstack/gommon/color"

	appErrors "github.com/SamuelLeutner/fetch-canvas-grades/errors"
	"github.com/SamuelLeutner/fetch-canvas-grades/models"
	"github.com/SamuelLeutner/fetch-canvas-grades/utils"
)

// Reporter prints the end-of-run report. Colors are disabled automatically
// when out is not a terminal.
type Reporter struct {
	out io.Writer
	clr *color.Color
}

func New(out io.Writer) *Reporter {
	clr := color.New()
	clr.SetOutput(out)
	return &Reporter{out: out, clr: clr}
}

var headlines = map[models.DiagnosticCode]string{
	models.DiagMissingStudentNumber: "Could not find student numbers for %d %s.\n" +
		"The chart is not affected, but student numbers must be added by hand\n" +
		"before the file is uploaded. Concluded courses and test student accounts\n" +
		"are the usual cause.",
	models.DiagUnresolvedSection: "Could not derive a section label for %d %s.\n" +
		"Section names are expected to look like \"SUBJ 101 001 2023W1\".",
	models.DiagGradeOverridden: "The Canvas \"Override\" column changed the final score of %d %s.",
	models.DiagUnpostedFinalDiffers: "Unposted assignments would change the final score of %d %s.\n" +
		"Post all assignments on Canvas before creating the upload file.",
	models.DiagCurrentDiffers: "Ungraded assignments would change the final score of %d %s.\n" +
		"The Canvas \"Total\" ignores ungraded assignments while the final grade counts them as 0.\n" +
		"No action is needed if these students made no submission.",
	models.DiagDroppedRows: "Dropped %d %s with missing information, a grade at or below the threshold,\n" +
		"or an explicit exclusion by student number.",
	models.DiagDuplicateEnrollment: "%d enrollment %s belong to students enrolled in more than one section.\n" +
		"Only the first occurrence of each student is kept.",
}

// Diagnostics prints every diagnostic in order with a table of example rows.
func (r *Reporter) Diagnostics(diags []models.Diagnostic) {
	for _, d := range diags {
		r.heading(d.Severity)
		fmt.Fprintln(r.out, r.headline(d))
		if len(d.Rows) == 0 {
			r.details(d.Details)
			fmt.Fprintln(r.out)
			continue
		}
		if d.Total > len(d.Rows) {
			fmt.Fprintf(r.out, "Showing the first %d in the table below:\n\n", len(d.Rows))
		} else {
			fmt.Fprint(r.out, "Showing these students in the table below:\n\n")
		}
		r.records(d.Rows, d.Columns)
		r.details(d.Details)
		fmt.Fprintln(r.out)
	}
}

func (r *Reporter) heading(sev models.Severity) {
	label := strings.ToUpper(string(sev))
	switch sev {
	case models.SeverityNote:
		label = r.clr.Yellow(label, color.B)
	default:
		label = r.clr.Red(label, color.B)
	}
	fmt.Fprintf(r.out, "\n%s\n", label)
}

func (r *Reporter) headline(d models.Diagnostic) string {
	noun := "students"
	if d.Total == 1 {
		noun = "student"
	}
	switch d.Code {
	case models.DiagDuplicateEnrollment:
		noun = "rows"
		if d.Total == 1 {
			noun = "row"
		}
	case models.DiagUnparsedSession:
		return fmt.Sprintf("Could not derive the academic period from session %q: %s.\n"+
			"Pass --override-session to set it.", d.Details["session"], d.Details["reason"])
	}
	format, ok := headlines[d.Code]
	if !ok {
		return fmt.Sprintf("%s: %d %s", d.Code, d.Total, noun)
	}
	return fmt.Sprintf(format, d.Total, r.clr.Bold(noun))
}

// details prints structured context except for the keys already in the
// headline.
func (r *Reporter) details(details map[string]string) {
	keys := make([]string, 0, len(details))
	for k := range details {
		if k == "session" || k == "reason" {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return
	}
	sort.Strings(keys)
	fmt.Fprintln(r.out)
	for _, k := range keys {
		fmt.Fprintf(r.out, "  %s: %s\n", k, details[k])
	}
}

func (r *Reporter) records(rows []models.EnrollmentRecord, columns []string) {
	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	header := append([]string{"Student ID", "Name", "Section"}, columns...)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	fmt.Fprintln(tw, strings.Join(rule(header), "\t"))
	for _, rec := range rows {
		cells := []string{rec.StudentNumber, fullName(rec), rec.Section}
		for _, c := range columns {
			cells = append(cells, utils.FormatFloat(rec.Grade(c)))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
}

// Removed prints the full audit of students left out of the export.
func (r *Reporter) Removed(removed []models.RemovedRecord) {
	if len(removed) == 0 {
		return
	}
	fmt.Fprintf(r.out, "\n%s\n", r.clr.Bold("Removed students"))
	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	header := []string{"Student ID", "Name", "Section", "Posted Grade", "Unposted Grade", "Removed By"}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	fmt.Fprintln(tw, strings.Join(rule(header), "\t"))
	for _, rm := range removed {
		rec := rm.Record
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.StudentNumber, fullName(rec), rec.Section,
			utils.FormatFloat(rec.PercentGrade), utils.FormatFloat(rec.UnpostedPercentGrade), rm.Stage)
	}
	tw.Flush()
}

// Courses prints the show-courses table.
func (r *Reporter) Courses(courses []models.Course) {
	if len(courses) == 0 {
		fmt.Fprintln(r.out, "No courses matched.")
		return
	}
	fmt.Fprint(r.out, "Your API token has access to the following courses:\n\n")
	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tName\tCreation Date")
	fmt.Fprintln(tw, "--\t----\t-------------")
	for _, c := range courses {
		created := ""
		if !c.CreatedAt.IsZero() {
			created = c.CreatedAt.Time().Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, created)
	}
	tw.Flush()
}

// Saved confirms a written output file.
func (r *Reporter) Saved(what, path string) {
	fmt.Fprintln(r.out, r.clr.Green(fmt.Sprintf("%s saved to %s.", what, path), color.B))
}

// Warnings prints free-form warnings under one heading.
func (r *Reporter) Warnings(lines []string) {
	if len(lines) == 0 {
		return
	}
	r.heading(models.SeverityWarning)
	for _, l := range lines {
		fmt.Fprintln(r.out, l)
	}
}

// Error prints a fatal run error with its remediation hint.
func (r *Reporter) Error(err error) {
	e := appErrors.FromError(err)
	if e == nil {
		return
	}
	fmt.Fprintf(r.out, "\n%s %s\n", r.clr.Red("ERROR", color.B), e.Error())
	if e.Hint != "" {
		fmt.Fprintln(r.out, e.Hint)
	}
}

func fullName(rec models.EnrollmentRecord) string {
	return strings.TrimSpace(rec.PreferredName + " " + rec.Surname)
}

func rule(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.Repeat("-", len(h))
	}
	return out
}
