package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SamuelLeutner/fetch-canvas-grades/config"
	"github.com/SamuelLeutner/fetch-canvas-grades/models"
	"github.com/SamuelLeutner/fetch-canvas-grades/utils"
)

// Dataset defines tabular export content. Numeric marks the columns that
// spreadsheet formats store as numbers.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	Numeric map[string]bool
}

// Column is one output column of a layout.
type Column struct {
	Header  string
	Numeric bool
	Value   func(models.PreparedGradeRow) string
}

// Layout is the fixed column order expected by a grade submission system.
// The order is an external contract.
type Layout struct {
	Name    string
	Columns []Column
}

func blank(models.PreparedGradeRow) string { return "" }

func grade(r models.PreparedGradeRow) string { return strconv.Itoa(r.PercentGrade) }

// SubmissionLayout is the default layout of the grade submission upload.
var SubmissionLayout = Layout{
	Name: config.LayoutSubmission,
	Columns: []Column{
		{Header: "Student ID", Value: func(r models.PreparedGradeRow) string { return r.StudentNumber }},
		{Header: "Preferred Name", Value: func(r models.PreparedGradeRow) string { return r.PreferredName }},
		{Header: "Surname", Value: func(r models.PreparedGradeRow) string { return r.Surname }},
		{Header: "Grade", Numeric: true, Value: grade},
		{Header: "Grade Note", Value: blank},
		{Header: "Standing", Value: func(r models.PreparedGradeRow) string { return r.Standing }},
		{Header: "Standing Reason", Value: func(r models.PreparedGradeRow) string { return r.StandingReason }},
		{Header: "Academic Period", Value: func(r models.PreparedGradeRow) string { return r.AcademicPeriod }},
		{Header: "Subject", Value: func(r models.PreparedGradeRow) string { return r.Subject }},
		{Header: "Course Number", Value: func(r models.PreparedGradeRow) string { return r.Course }},
		{Header: "Section", Value: func(r models.PreparedGradeRow) string { return r.Section }},
		{Header: "Status", Value: blank},
		{Header: "Updated By", Value: blank},
	},
}

// FSCLayout is the legacy Faculty Service Centre upload.
var FSCLayout = Layout{
	Name: config.LayoutFSC,
	Columns: []Column{
		{Header: "Session", Value: func(r models.PreparedGradeRow) string { return r.Session }},
		{Header: "Campus", Value: func(r models.PreparedGradeRow) string { return r.Campus }},
		{Header: "Student Number", Value: func(r models.PreparedGradeRow) string { return r.StudentNumber }},
		{Header: "Subject", Value: func(r models.PreparedGradeRow) string { return r.Subject }},
		{Header: "Course", Value: func(r models.PreparedGradeRow) string { return r.Course }},
		{Header: "Section", Value: func(r models.PreparedGradeRow) string { return r.Section }},
		{Header: "Surname", Value: func(r models.PreparedGradeRow) string { return r.Surname }},
		{Header: "Preferred Name", Value: func(r models.PreparedGradeRow) string { return r.PreferredName }},
		{Header: "Standing", Value: func(r models.PreparedGradeRow) string { return r.Standing }},
		{Header: "Standing Reason", Value: func(r models.PreparedGradeRow) string { return r.StandingReason }},
		{Header: models.ColPercentGrade, Numeric: true, Value: grade},
	},
}

func LayoutByName(name string) (Layout, error) {
	switch strings.ToLower(name) {
	case "", config.LayoutSubmission:
		return SubmissionLayout, nil
	case config.LayoutFSC:
		return FSCLayout, nil
	}
	return Layout{}, fmt.Errorf("unknown layout %q (expected %s or %s)", name, config.LayoutSubmission, config.LayoutFSC)
}

func (l Layout) Headers() []string {
	headers := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		headers[i] = c.Header
	}
	return headers
}

// Dataset renders rows in the layout's column order.
func (l Layout) Dataset(rows []models.PreparedGradeRow) Dataset {
	data := Dataset{Headers: l.Headers(), Numeric: map[string]bool{}}
	for _, c := range l.Columns {
		if c.Numeric {
			data.Numeric[c.Header] = true
		}
	}
	for _, r := range rows {
		record := make(map[string]string, len(l.Columns))
		for _, c := range l.Columns {
			record[c.Header] = c.Value(r)
		}
		data.Rows = append(data.Rows, record)
	}
	return data
}

// RemovedDataset lists the students left out of the export and why.
func RemovedDataset(removed []models.RemovedRecord) Dataset {
	data := Dataset{
		Headers: []string{"Student ID", "Name", "Section", "Posted Grade", "Unposted Grade", "Removed By"},
		Numeric: map[string]bool{"Posted Grade": true, "Unposted Grade": true},
	}
	for _, rm := range removed {
		r := rm.Record
		data.Rows = append(data.Rows, map[string]string{
			"Student ID":     r.StudentNumber,
			"Name":           strings.TrimSpace(r.PreferredName + " " + r.Surname),
			"Section":        r.Section,
			"Posted Grade":   utils.FormatFloat(r.PercentGrade),
			"Unposted Grade": utils.FormatFloat(r.UnpostedPercentGrade),
			"Removed By":     string(rm.Stage),
		})
	}
	return data
}

// Record returns row i as values in header order.
func (d Dataset) Record(i int) []string {
	record := make([]string, len(d.Headers))
	for j, h := range d.Headers {
		record[j] = d.Rows[i][h]
	}
	return record
}

// Cells returns row i with numeric columns converted to numbers.
func (d Dataset) Cells(i int) []interface{} {
	cells := make([]interface{}, len(d.Headers))
	for j, h := range d.Headers {
		v := d.Rows[i][h]
		if d.Numeric[h] && v != "" {
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				cells[j] = n
				continue
			}
		}
		cells[j] = v
	}
	return cells
}
