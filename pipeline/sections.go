package pipeline

import (
	"strings"

	"github.com/SamuelLeutner/fetch-canvas-grades/models"
)

// sectionLabelToken is the position of the label in a Canvas section name,
// e.g. "DSCI 100 101 2024W1" -> "101".
const sectionLabelToken = 2

// UnresolvedSection is a section whose name does not follow the
// "SUBJECT COURSE LABEL ..." convention, or that Canvas did not list.
type UnresolvedSection struct {
	SectionID int    `json:"section_id"`
	Name      string `json:"name"`
	Rows      int    `json:"rows"`
}

// SectionLabel returns the third whitespace token of a section name.
func SectionLabel(name string) (string, bool) {
	fields := strings.Fields(name)
	if len(fields) <= sectionLabelToken {
		return "", false
	}
	return fields[sectionLabelToken], true
}

// ResolveSections fills in the section label of every record. Records whose
// section cannot be resolved keep an empty label and are reported.
func ResolveSections(records []models.EnrollmentRecord, sections []models.Section) ([]models.EnrollmentRecord, []UnresolvedSection) {
	labels := make(map[int]string, len(sections))
	names := make(map[int]string, len(sections))
	for _, s := range sections {
		names[s.ID] = s.Name
		if label, ok := SectionLabel(s.Name); ok {
			labels[s.ID] = label
		}
	}

	resolved := make([]models.EnrollmentRecord, len(records))
	var unresolved []UnresolvedSection
	index := make(map[int]int)

	for i, rec := range records {
		label, ok := labels[rec.SectionID]
		if ok {
			rec.Section = label
		} else {
			rec.Section = ""
			pos, seen := index[rec.SectionID]
			if !seen {
				pos = len(unresolved)
				index[rec.SectionID] = pos
				unresolved = append(unresolved, UnresolvedSection{SectionID: rec.SectionID, Name: names[rec.SectionID]})
			}
			unresolved[pos].Rows++
		}
		resolved[i] = rec
	}

	return resolved, unresolved
}

// SelectSection keeps the records of one section label. An empty label keeps
// everything.
func SelectSection(records []models.EnrollmentRecord, label string) []models.EnrollmentRecord {
	if label == "" {
		return records
	}
	selected := make([]models.EnrollmentRecord, 0, len(records))
	for _, rec := range records {
		if rec.Section == label {
			selected = append(selected, rec)
		}
	}
	return selected
}

// OverrideSection replaces the section label of every record.
func OverrideSection(records []models.EnrollmentRecord, label string) []models.EnrollmentRecord {
	out := make([]models.EnrollmentRecord, len(records))
	for i, rec := range records {
		rec.Section = label
		out[i] = rec
	}
	return out
}

// stillUnresolved recounts unresolved sections against the records left after
// section selection and drops the ones no record belongs to any more.
func stillUnresolved(unresolved []UnresolvedSection, records []models.EnrollmentRecord) []UnresolvedSection {
	if len(unresolved) == 0 {
		return nil
	}
	rows := make(map[int]int, len(unresolved))
	for _, rec := range records {
		if rec.Section == "" {
			rows[rec.SectionID]++
		}
	}
	var out []UnresolvedSection
	for _, u := range unresolved {
		if n := rows[u.SectionID]; n > 0 {
			u.Rows = n
			out = append(out, u)
		}
	}
	return out
}
