package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"energi/internal/core"
	"energi/internal/dataset"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client mirrors the flat event table onto one tab of a Google spreadsheet.
// The sheet carries the same fifteen columns as the local stores, header row
// included, so the remote copy stays readable as a plain table.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ dataset.Store = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_NAME (default "EnergyBalance").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "EnergyBalance"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// newSheetsService initializes a Sheets Service using service account
// credentials from the environment.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// Load implements dataset.Loader by reading the whole tab. The header row
// is recognised by its first cell and skipped, so a hand-created sheet with
// or without a header both work.
func (c *Client) Load(ctx context.Context, name string) ([]core.Event, error) {
	rng := fmt.Sprintf("%s!A:O", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, &dataset.StoreError{Op: "load", Dataset: name, Err: fmt.Errorf("read %s: %w", rng, err)}
	}

	var events []core.Event
	for i, row := range resp.Values {
		cells := cellsToStrings(row)
		if len(cells) == 0 || (i == 0 && strings.EqualFold(cells[0], dataset.Columns[0])) {
			continue
		}
		e, err := dataset.DecodeRow(cells)
		if err != nil {
			return nil, &dataset.StoreError{Op: "load", Dataset: name, Err: fmt.Errorf("row %d: %w", i+1, err)}
		}
		events = append(events, e)
	}
	return events, nil
}

// Save implements dataset.Saver: clear the tab and rewrite header plus all
// rows. Last write wins, same as the local stores.
func (c *Client) Save(ctx context.Context, name string, events []core.Event) error {
	rng := fmt.Sprintf("%s!A:O", c.sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return &dataset.StoreError{Op: "save", Dataset: name, Err: fmt.Errorf("clear %s: %w", rng, err)}
	}

	values := make([][]any, 0, len(events)+1)
	values = append(values, headerRow())
	for _, e := range events {
		values = append(values, rowToCells(dataset.EncodeRow(e)))
	}

	vr := &gsheet.ValueRange{Values: values}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, fmt.Sprintf("%s!A1", c.sheetName), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return &dataset.StoreError{Op: "save", Dataset: name, Err: fmt.Errorf("write %s: %w", c.sheetName, err)}
	}
	return nil
}

// ReplaceDay swaps out a single date's rows, keeping every other day as is.
// The replication worker uses this to push one rebuilt day at a time.
func (c *Client) ReplaceDay(ctx context.Context, name string, date core.Date, events []core.Event) error {
	existing, err := c.Load(ctx, name)
	if err != nil {
		return err
	}

	merged := make([]core.Event, 0, len(existing)+len(events))
	for _, e := range existing {
		if e.Date != date {
			merged = append(merged, e)
		}
	}
	merged = append(merged, events...)
	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].Date.Equal(merged[j].Date.Time) {
			return merged[i].Date.Before(merged[j].Date.Time)
		}
		return merged[i].Time < merged[j].Time
	})
	return c.Save(ctx, name, merged)
}

func headerRow() []any {
	row := make([]any, len(dataset.Columns))
	for i, col := range dataset.Columns {
		row[i] = col
	}
	return row
}

func rowToCells(cells []string) []any {
	row := make([]any, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

func cellsToStrings(row []any) []string {
	cells := make([]string, 0, len(row))
	empty := true
	for _, v := range row {
		s := strings.TrimSpace(fmt.Sprint(v))
		if s != "" {
			empty = false
		}
		cells = append(cells, s)
	}
	if empty {
		return nil
	}
	return cells
}
