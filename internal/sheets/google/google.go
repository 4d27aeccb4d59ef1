package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"budgetsync/internal/core"
	"budgetsync/internal/log"
	ports "budgetsync/internal/sheets"

	"golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	minNewTabRows   = 100
	extraNewTabRows = 20
)

var ErrMissingCredentials = errors.New("missing service account credentials")

// Config selects the spreadsheet and the service account used to write it.
// Exactly one of CredentialsFile and CredentialsJSON is expected.
type Config struct {
	SpreadsheetID   string
	CredentialsFile string
	CredentialsJSON string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
}

// Ensure interface conformance
var _ ports.TabWriter = (*Client)(nil)

// New creates a Sheets client authenticated as a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	credentialsJSON, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := newSheetsService(ctx, credentialsJSON, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, logger), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, spreadsheetID string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, ErrMissingCredentials
	}
}

// newSheetsService parses service account credentials and builds the API client.
func newSheetsService(ctx context.Context, credentialsJSON []byte, opts ...goption.ClientOption) (*gsheet.Service, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}

	opts = append([]goption.ClientOption{goption.WithCredentials(creds)}, opts...)
	service, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// tab is the part of a sheet's properties ReplaceTab needs.
type tab struct {
	id      int64
	rows    int64
	columns int64
}

// ReplaceTab overwrites the named tab with grid. Header and total rows are
// styled afterwards; a styling failure is only logged.
func (c *Client) ReplaceTab(ctx context.Context, name string, grid core.Grid) error {
	if strings.TrimSpace(name) == "" {
		return core.ErrEmptyTabName
	}
	if err := grid.Validate(); err != nil {
		return err
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	start := time.Now()
	t, err := c.ensureTab(ctx, name, grid)
	if err != nil {
		return err
	}

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, quoteTab(name), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear tab %s: %w", name, err)
	}

	if len(grid.Rows) > 0 {
		vr := &gsheet.ValueRange{Values: toValues(grid.Rows)}
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, quoteTab(name)+"!A1", vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to write tab %s: %w", name, err)
		}
	}

	if reqs := formatRequests(t.id, grid); len(reqs) > 0 {
		_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).
			Context(ctx).Do()
		if err != nil {
			c.logger.WarnContext(ctx, "Failed to apply formatting",
				log.FieldTab, name,
				log.FieldError, err)
		}
	}

	c.logger.InfoContext(ctx, "Tab replaced",
		log.FieldTab, name,
		log.FieldRows, len(grid.Rows),
		log.FieldSpreadsheet, c.spreadsheetID,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// ensureTab returns the named tab, creating it or growing its grid so that
// grid fits.
func (c *Client) ensureTab(ctx context.Context, name string, grid core.Grid) (tab, error) {
	t, found, err := c.findTab(ctx, name)
	if err != nil {
		return tab{}, err
	}
	if !found {
		return c.addTab(ctx, name, grid)
	}

	needRows, needCols := int64(len(grid.Rows)), int64(grid.Width())
	if needRows <= t.rows && needCols <= t.columns {
		return t, nil
	}

	t.rows, t.columns = max(t.rows, needRows), max(t.columns, needCols)
	req := &gsheet.Request{
		UpdateSheetProperties: &gsheet.UpdateSheetPropertiesRequest{
			Properties: &gsheet.SheetProperties{
				SheetId: t.id,
				GridProperties: &gsheet.GridProperties{
					RowCount:    t.rows,
					ColumnCount: t.columns,
				},
				ForceSendFields: []string{"SheetId"},
			},
			Fields: "gridProperties.rowCount,gridProperties.columnCount",
		},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{req},
	}).Context(ctx).Do(); err != nil {
		return tab{}, fmt.Errorf("failed to resize tab %s: %w", name, err)
	}
	c.logger.DebugContext(ctx, "Tab resized", log.FieldTab, name, "rows", t.rows, "columns", t.columns)
	return t, nil
}

func (c *Client) findTab(ctx context.Context, name string) (tab, bool, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return tab{}, false, fmt.Errorf("failed to read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	for _, sh := range ss.Sheets {
		p := sh.Properties
		if p == nil || p.Title != name {
			continue
		}
		t := tab{id: p.SheetId}
		if p.GridProperties != nil {
			t.rows, t.columns = p.GridProperties.RowCount, p.GridProperties.ColumnCount
		}
		return t, true, nil
	}
	return tab{}, false, nil
}

func (c *Client) addTab(ctx context.Context, name string, grid core.Grid) (tab, error) {
	t := tab{
		rows:    max(minNewTabRows, int64(len(grid.Rows))+extraNewTabRows),
		columns: max(1, int64(grid.Width())),
	}
	req := &gsheet.Request{
		AddSheet: &gsheet.AddSheetRequest{
			Properties: &gsheet.SheetProperties{
				Title: name,
				GridProperties: &gsheet.GridProperties{
					RowCount:    t.rows,
					ColumnCount: t.columns,
				},
			},
		},
	}
	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{req},
	}).Context(ctx).Do()
	if err != nil {
		return tab{}, fmt.Errorf("failed to create tab %s: %w", name, err)
	}
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		t.id = resp.Replies[0].AddSheet.Properties.SheetId
	}
	c.logger.InfoContext(ctx, "Tab created", log.FieldTab, name)
	return t, nil
}

// formatRequests bolds and centers the header rows, bolds the total rows
// and auto-sizes the used columns.
func formatRequests(sheetID int64, grid core.Grid) []*gsheet.Request {
	width := int64(grid.Width())
	if width == 0 {
		return nil
	}

	var reqs []*gsheet.Request
	if grid.HeaderRows > 0 {
		reqs = append(reqs, &gsheet.Request{
			RepeatCell: &gsheet.RepeatCellRequest{
				Range: rowRange(sheetID, 0, int64(grid.HeaderRows), width),
				Cell: &gsheet.CellData{
					UserEnteredFormat: &gsheet.CellFormat{
						TextFormat:          &gsheet.TextFormat{Bold: true},
						HorizontalAlignment: "CENTER",
					},
				},
				Fields: "userEnteredFormat(textFormat,horizontalAlignment)",
			},
		})
	}
	for _, row := range grid.TotalRows {
		reqs = append(reqs, &gsheet.Request{
			RepeatCell: &gsheet.RepeatCellRequest{
				Range: rowRange(sheetID, int64(row), int64(row)+1, width),
				Cell: &gsheet.CellData{
					UserEnteredFormat: &gsheet.CellFormat{
						TextFormat: &gsheet.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat.bold",
			},
		})
	}
	reqs = append(reqs, &gsheet.Request{
		AutoResizeDimensions: &gsheet.AutoResizeDimensionsRequest{
			Dimensions: &gsheet.DimensionRange{
				SheetId:         sheetID,
				Dimension:       "COLUMNS",
				StartIndex:      0,
				EndIndex:        width,
				ForceSendFields: []string{"SheetId", "StartIndex"},
			},
		},
	})
	return reqs
}

func rowRange(sheetID, start, end, width int64) *gsheet.GridRange {
	return &gsheet.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    start,
		EndRowIndex:      end,
		StartColumnIndex: 0,
		EndColumnIndex:   width,
		ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
	}
}

// quoteTab returns name in A1 notation, e.g. 'Account Balances'.
func quoteTab(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func toValues(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = v
		}
		out[i] = vals
	}
	return out
}
