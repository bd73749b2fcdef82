package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SamuelLeutner/fetch-canvas-grades/config"
	"github.com/SamuelLeutner/fetch-canvas-grades/models"
)

// Document is one export: the grade table plus the audit of removed students.
type Document struct {
	Title   string
	Grades  Dataset
	Removed Dataset
}

// NewDocument lays rows out in layout order.
func NewDocument(title string, layout Layout, rows []models.PreparedGradeRow, removed []models.RemovedRecord) Document {
	return Document{
		Title:   title,
		Grades:  layout.Dataset(rows),
		Removed: RemovedDataset(removed),
	}
}

// Renderer turns a document into file bytes.
type Renderer interface {
	Render(doc Document) ([]byte, error)
}

// RendererFor returns the renderer of a file format.
func RendererFor(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", config.FormatCSV:
		return NewCSVExporter(), nil
	case config.FormatXLSX:
		return NewXLSXExporter(), nil
	case config.FormatPDF:
		return NewPDFExporter(), nil
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}

// DefaultFilename derives the output name from the course code.
func DefaultFilename(courseCode string) string {
	name := strings.NewReplacer(" ", "-", "/", "-").Replace(strings.TrimSpace(courseCode))
	return "grades_" + name
}

// WithExtension appends the format extension unless filename already has it.
func WithExtension(filename, format string) string {
	if format == "" {
		format = config.FormatCSV
	}
	ext := "." + strings.ToLower(format)
	if strings.HasSuffix(strings.ToLower(filename), ext) {
		return filename
	}
	return filename + ext
}

// WriteFile renders doc in format and writes it to path.
func WriteFile(path, format string, doc Document) error {
	renderer, err := RendererFor(format)
	if err != nil {
		return err
	}
	data, err := renderer.Render(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RowIssue is a row the submission system would reject.
type RowIssue struct {
	Index         int
	StudentNumber string
	Field         string
	Rule          string
}

func (i RowIssue) String() string {
	return fmt.Sprintf("row %d (student %s): %s fails %s", i.Index+1, i.StudentNumber, i.Field, i.Rule)
}

// ValidateRows reports the rows that would not be accepted on upload. Rows
// are still exported; the caller decides whether to warn.
func ValidateRows(rows []models.PreparedGradeRow) []RowIssue {
	validate := validator.New()
	var issues []RowIssue
	for i, row := range rows {
		err := validate.Struct(row)
		if err == nil {
			continue
		}
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			issues = append(issues, RowIssue{Index: i, StudentNumber: row.StudentNumber, Rule: err.Error()})
			continue
		}
		for _, fe := range fieldErrs {
			rule := fe.Tag()
			if fe.Param() != "" {
				rule += "=" + fe.Param()
			}
			issues = append(issues, RowIssue{Index: i, StudentNumber: row.StudentNumber, Field: fe.Field(), Rule: rule})
		}
	}
	return issues
}
