package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	appErrors "github.com/SamuelLeutner/fetch-canvas-grades/errors"
)

// Values are sent RAW so student numbers keep their leading zeros.
const rawInput = "RAW"

// GoogleSheetsWriter is the export.SheetWriter backed by the Sheets API.
type GoogleSheetsWriter struct {
	book    *sheets.SpreadsheetsService
	id      string
	retries int
	backoff time.Duration
	log     *zap.Logger
}

// NewGoogleSheetsWriter authenticates with the service account key at
// keyPath.
func NewGoogleSheetsWriter(ctx context.Context, spreadsheetID, keyPath string, retries int, backoff time.Duration, logger *zap.Logger) (*GoogleSheetsWriter, error) {
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, appErrors.CloneWrap(appErrors.ErrValidation,
			fmt.Sprintf("cannot read Google credentials at %s", keyPath), err)
	}
	jwt, err := google.JWTConfigFromJSON(key, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, appErrors.CloneWrap(appErrors.ErrValidation, "Google credentials are not a service account key", err)
	}
	return newGoogleSheetsWriter(ctx, spreadsheetID, retries, backoff, logger, option.WithHTTPClient(jwt.Client(ctx)))
}

func newGoogleSheetsWriter(ctx context.Context, spreadsheetID string, retries int, backoff time.Duration, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetsWriter, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, appErrors.CloneWrap(appErrors.ErrInternal, "cannot create the Google Sheets client", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleSheetsWriter{
		book:    svc.Spreadsheets,
		id:      spreadsheetID,
		retries: retries,
		backoff: backoff,
		log:     logger.With(zap.String("spreadsheet_id", spreadsheetID)),
	}, nil
}

func quoted(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

// Clear blanks every cell of the sheet while keeping the sheet itself.
func (w *GoogleSheetsWriter) Clear(ctx context.Context, sheetName string) error {
	rng := quoted(sheetName) + "!A1:ZZ"
	return w.call(ctx, "clear "+rng, func() error {
		_, err := w.book.Values.Clear(w.id, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do()
		return err
	})
}

func (w *GoogleSheetsWriter) SetHeaders(ctx context.Context, sheetName string, headers []string) error {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	rng := quoted(sheetName) + "!A1"
	return w.call(ctx, "write headers to "+rng, func() error {
		_, err := w.book.Values.Update(w.id, rng, &sheets.ValueRange{Values: [][]interface{}{row}}).
			ValueInputOption(rawInput).Context(ctx).Do()
		return err
	})
}

// AppendRows inserts rows under the last non-empty row.
func (w *GoogleSheetsWriter) AppendRows(ctx context.Context, sheetName string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	err := w.call(ctx, fmt.Sprintf("append %d rows to %s", len(rows), sheetName), func() error {
		_, err := w.book.Values.Append(w.id, quoted(sheetName), &sheets.ValueRange{Values: rows}).
			ValueInputOption(rawInput).InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		return err
	})
	if err == nil {
		w.log.Info("rows uploaded", zap.String("sheet", sheetName), zap.Int("rows", len(rows)))
	}
	return err
}

func (w *GoogleSheetsWriter) EnsureSheetExists(ctx context.Context, sheetName string) error {
	var titles []string
	err := w.call(ctx, "list sheets", func() error {
		book, err := w.book.Get(w.id).Fields("sheets.properties.title").Context(ctx).Do()
		if err != nil {
			return err
		}
		titles = titles[:0]
		for _, s := range book.Sheets {
			if s.Properties != nil {
				titles = append(titles, s.Properties.Title)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, t := range titles {
		if t == sheetName {
			return nil
		}
	}

	w.log.Info("adding sheet", zap.String("sheet", sheetName))
	add := &sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{{
		AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: sheetName}},
	}}}
	return w.call(ctx, "add sheet "+sheetName, func() error {
		_, err := w.book.BatchUpdate(w.id, add).Context(ctx).Do()
		return err
	})
}

// isRetryableSheetsError reports quota and server-side failures. Sheets
// signals a per-user quota hit with 403 rateLimitExceeded.
func isRetryableSheetsError(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500 {
		return true
	}
	return apiErr.Code == http.StatusForbidden &&
		strings.Contains(strings.ToLower(apiErr.Message), "ratelimitexceeded")
}

// call runs fn until it succeeds, fails permanently or runs out of retries.
// The wait doubles after every attempt.
func (w *GoogleSheetsWriter) call(ctx context.Context, what string, fn func() error) error {
	wait := w.backoff
	for attempt := 1; ; attempt++ {
		err := ctx.Err()
		if err == nil {
			err = fn()
			if err == nil {
				return nil
			}
		}
		if ctx.Err() != nil {
			return fmt.Errorf("sheets: %s: %w", what, ctx.Err())
		}
		if !isRetryableSheetsError(err) || attempt > w.retries {
			return appErrors.CloneWrap(appErrors.ErrUpstream,
				fmt.Sprintf("Google Sheets could not %s (attempt %d)", what, attempt), err)
		}

		w.log.Warn("sheets call failed, retrying",
			zap.String("call", what),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))

		select {
		case <-time.After(wait):
			wait *= 2
		case <-ctx.Done():
			return fmt.Errorf("sheets: %s: %w", what, ctx.Err())
		}
	}
}
