package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	GradesSheet  = "Grades"
	RemovedSheet = "Removed Students"
)

// XLSXExporter writes the grades and, when present, the removed students
// to separate worksheets of one workbook.
type XLSXExporter struct{}

func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

func (e *XLSXExporter) Render(doc Document) ([]byte, error) {
	if len(doc.Grades.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), GradesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeSheet(f, GradesSheet, doc.Grades, bold); err != nil {
		return nil, err
	}

	if len(doc.Removed.Rows) > 0 {
		if _, err := f.NewSheet(RemovedSheet); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", RemovedSheet, err)
		}
		if err := writeSheet(f, RemovedSheet, doc.Removed, bold); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, data Dataset, headerStyle int) error {
	for j, header := range data.Headers {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("write %s header: %w", sheet, err)
		}
	}

	last, err := excelize.ColumnNumberToName(len(data.Headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for i := range data.Rows {
		for j, value := range data.Cells(i) {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
			}
		}
	}
	return nil
}
