package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SamuelLeutner/fetch-canvas-grades/models"
	"github.com/SamuelLeutner/fetch-canvas-grades/utils"
)

func preparedRow(student, surname string, grade int) models.PreparedGradeRow {
	return models.PreparedGradeRow{
		UserID:         1,
		StudentNumber:  student,
		Surname:        surname,
		PreferredName:  "Jane",
		Section:        "001",
		PercentGrade:   grade,
		Campus:         "UBC",
		Subject:        "CPSC",
		Course:         "110",
		Session:        "2023W",
		AcademicPeriod: "2023-2024 Winter Term 1",
	}
}

func sampleDocument(layout Layout) Document {
	rows := []models.PreparedGradeRow{
		preparedRow("00123456", "Doe, Jr", 87),
		preparedRow("55555555", "Smith", 100),
	}
	removed := []models.RemovedRecord{{
		Record: models.EnrollmentRecord{
			StudentNumber: "77777777",
			Surname:       "Low",
			PreferredName: "Sam",
			Section:       "002",
			PercentGrade:  utils.FloatPtr(0),
		},
		Stage: models.StageThreshold,
	}}
	return NewDocument("CPSC 110 001 2023W1", layout, rows, removed)
}

func TestLayoutByName(t *testing.T) {
	l, err := LayoutByName("")
	require.NoError(t, err)
	assert.Equal(t, SubmissionLayout.Name, l.Name)

	l, err = LayoutByName("FSC")
	require.NoError(t, err)
	assert.Equal(t, FSCLayout.Headers(), l.Headers())

	_, err = LayoutByName("moodle")
	assert.Error(t, err)
}

func TestSubmissionLayoutColumnOrder(t *testing.T) {
	assert.Equal(t, []string{
		"Student ID", "Preferred Name", "Surname", "Grade", "Grade Note", "Standing",
		"Standing Reason", "Academic Period", "Subject", "Course Number", "Section",
		"Status", "Updated By",
	}, SubmissionLayout.Headers())

	data := SubmissionLayout.Dataset([]models.PreparedGradeRow{preparedRow("00123456", "Doe", 87)})
	require.Len(t, data.Rows, 1)
	assert.Equal(t, []string{
		"00123456", "Jane", "Doe", "87", "", "", "", "2023-2024 Winter Term 1", "CPSC", "110", "001", "", "",
	}, data.Record(0))
}

func TestFSCLayoutColumnOrder(t *testing.T) {
	assert.Equal(t, []string{
		"Session", "Campus", "Student Number", "Subject", "Course", "Section",
		"Surname", "Preferred Name", "Standing", "Standing Reason", "Percent Grade",
	}, FSCLayout.Headers())
}

func TestCellsKeepStudentNumbersAsText(t *testing.T) {
	data := SubmissionLayout.Dataset([]models.PreparedGradeRow{preparedRow("00123456", "Doe", 87)})
	cells := data.Cells(0)
	assert.Equal(t, "00123456", cells[0])
	assert.Equal(t, float64(87), cells[3])
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDocument(FSCLayout))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Session,Campus,Student Number,Subject,Course,Section,Surname,Preferred Name,Standing,Standing Reason,Percent Grade", lines[0])
	assert.Equal(t, `2023W,UBC,00123456,CPSC,110,001,"Doe, Jr",Jane,,,87`, lines[1])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Document{})
	assert.Error(t, err)
}

func TestXLSXExporterWritesAuditSheet(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDocument(SubmissionLayout))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{GradesSheet, RemovedSheet}, f.GetSheetList())

	rows, err := f.GetRows(GradesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Student ID", rows[0][0])
	assert.Equal(t, "00123456", rows[1][0])
	assert.Equal(t, "87", rows[1][3])

	removed, err := f.GetRows(RemovedSheet)
	require.NoError(t, err)
	require.Len(t, removed, 2)
	assert.Equal(t, []string{"77777777", "Sam Low", "002", "0", "", "threshold"}, removed[1])
}

func TestXLSXExporterSkipsEmptyAuditSheet(t *testing.T) {
	doc := NewDocument("", FSCLayout, []models.PreparedGradeRow{preparedRow("1", "Doe", 50)}, nil)
	out, err := NewXLSXExporter().Render(doc)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{GradesSheet}, f.GetSheetList())
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDocument(SubmissionLayout))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRendererFor(t *testing.T) {
	for format, want := range map[string]Renderer{
		"":     &CSVExporter{},
		"csv":  &CSVExporter{},
		"XLSX": &XLSXExporter{},
		"pdf":  &PDFExporter{},
	} {
		got, err := RendererFor(format)
		require.NoError(t, err, format)
		assert.IsType(t, want, got, format)
	}
	_, err := RendererFor("ods")
	assert.Error(t, err)
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "grades_CPSC-110-001-2023W1", DefaultFilename("CPSC 110 001 2023W1"))
	assert.Equal(t, "grades_MATH-100-A-B", DefaultFilename("MATH 100/A B"))
	assert.Equal(t, "out.csv", WithExtension("out", ""))
	assert.Equal(t, "out.XLSX", WithExtension("out.XLSX", "xlsx"))
	assert.Equal(t, "out.pdf", WithExtension("out", "pdf"))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grades.csv")
	require.NoError(t, WriteFile(path, "csv", sampleDocument(FSCLayout)))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "00123456")
}

func TestValidateRows(t *testing.T) {
	rows := []models.PreparedGradeRow{
		preparedRow("00123456", "Doe", 87),
		preparedRow(models.MissingStudentNumber, "Roe", 40),
	}
	issues := ValidateRows(rows)
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Index)
	assert.Equal(t, "StudentNumber", issues[0].Field)
	assert.Equal(t, "ne=N/A", issues[0].Rule)
	assert.Contains(t, issues[0].String(), "row 2")
}

type MockSheetWriter struct {
	mock.Mock
}

func (m *MockSheetWriter) EnsureSheetExists(ctx context.Context, sheetName string) error {
	return m.Called(ctx, sheetName).Error(0)
}

func (m *MockSheetWriter) Clear(ctx context.Context, sheetName string) error {
	return m.Called(ctx, sheetName).Error(0)
}

func (m *MockSheetWriter) SetHeaders(ctx context.Context, sheetName string, headers []string) error {
	return m.Called(ctx, sheetName, headers).Error(0)
}

func (m *MockSheetWriter) AppendRows(ctx context.Context, sheetName string, rows [][]interface{}) error {
	return m.Called(ctx, sheetName, rows).Error(0)
}

func TestSheetsExporterReplacesBothSheets(t *testing.T) {
	ctx := context.Background()
	doc := sampleDocument(FSCLayout)
	auditSheet := "Grades - " + RemovedSheet

	writer := new(MockSheetWriter)
	for _, sheet := range []string{"Grades", auditSheet} {
		writer.On("EnsureSheetExists", ctx, sheet).Return(nil).Once()
		writer.On("Clear", ctx, sheet).Return(nil).Once()
	}
	writer.On("SetHeaders", ctx, "Grades", doc.Grades.Headers).Return(nil).Once()
	writer.On("SetHeaders", ctx, auditSheet, doc.Removed.Headers).Return(nil).Once()
	writer.On("AppendRows", ctx, "Grades", mock.MatchedBy(func(rows [][]interface{}) bool {
		return len(rows) == 2 && rows[0][2] == "00123456"
	})).Return(nil).Once()
	writer.On("AppendRows", ctx, auditSheet, mock.Anything).Return(nil).Once()

	require.NoError(t, NewSheetsExporter(writer, nil).Export(ctx, "Grades", doc))
	writer.AssertExpectations(t)
}

func TestSheetsExporterBatchesRows(t *testing.T) {
	ctx := context.Background()
	var rows []models.PreparedGradeRow
	for i := 0; i < 5; i++ {
		rows = append(rows, preparedRow("1", "Doe", i))
	}
	doc := NewDocument("", FSCLayout, rows, nil)

	writer := new(MockSheetWriter)
	writer.On("EnsureSheetExists", ctx, "S").Return(nil)
	writer.On("Clear", ctx, "S").Return(nil)
	writer.On("SetHeaders", ctx, "S", mock.Anything).Return(nil)
	writer.On("AppendRows", ctx, "S", mock.Anything).Return(nil)

	exporter := NewSheetsExporter(writer, nil)
	exporter.batchSize = 2
	require.NoError(t, exporter.Export(ctx, "S", doc))
	writer.AssertNumberOfCalls(t, "AppendRows", 3)
}

func TestSheetsExporterStopsOnError(t *testing.T) {
	ctx := context.Background()
	writer := new(MockSheetWriter)
	writer.On("EnsureSheetExists", ctx, "S").Return(errors.New("quota exceeded"))

	err := NewSheetsExporter(writer, nil).Export(ctx, "S", sampleDocument(FSCLayout))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	writer.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}
