package export

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// SheetWriter is the spreadsheet capability the Sheets export needs.
type SheetWriter interface {
	EnsureSheetExists(ctx context.Context, sheetName string) error
	Clear(ctx context.Context, sheetName string) error
	SetHeaders(ctx context.Context, sheetName string, headers []string) error
	AppendRows(ctx context.Context, sheetName string, rows [][]interface{}) error
}

// DefaultBatchSize bounds the rows sent per append call.
const DefaultBatchSize = 500

// SheetsExporter replaces the content of named sheets with a document.
type SheetsExporter struct {
	writer    SheetWriter
	batchSize int
	logger    *zap.Logger
}

func NewSheetsExporter(writer SheetWriter, logger *zap.Logger) *SheetsExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SheetsExporter{writer: writer, batchSize: DefaultBatchSize, logger: logger}
}

// Export writes the grades to sheetName and, when any students were
// removed, the audit table to "<sheetName> - Removed Students".
func (e *SheetsExporter) Export(ctx context.Context, sheetName string, doc Document) error {
	if err := e.replace(ctx, sheetName, doc.Grades); err != nil {
		return err
	}
	if len(doc.Removed.Rows) == 0 {
		return nil
	}
	return e.replace(ctx, sheetName+" - "+RemovedSheet, doc.Removed)
}

func (e *SheetsExporter) replace(ctx context.Context, sheetName string, data Dataset) error {
	if err := e.writer.EnsureSheetExists(ctx, sheetName); err != nil {
		return fmt.Errorf("prepare sheet %q: %w", sheetName, err)
	}
	if err := e.writer.Clear(ctx, sheetName); err != nil {
		return fmt.Errorf("clear sheet %q: %w", sheetName, err)
	}
	if err := e.writer.SetHeaders(ctx, sheetName, data.Headers); err != nil {
		return fmt.Errorf("write headers to %q: %w", sheetName, err)
	}

	for start := 0; start < len(data.Rows); start += e.batchSize {
		end := min(start+e.batchSize, len(data.Rows))
		batch := make([][]interface{}, 0, end-start)
		for i := start; i < end; i++ {
			batch = append(batch, data.Cells(i))
		}
		if err := e.writer.AppendRows(ctx, sheetName, batch); err != nil {
			return fmt.Errorf("append rows %d-%d to %q: %w", start+1, end, sheetName, err)
		}
	}

	e.logger.Info("sheet updated",
		zap.String("sheet", sheetName),
		zap.Int("rows", len(data.Rows)))
	return nil
}
