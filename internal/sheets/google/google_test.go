package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"budgetsync/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const testSpreadsheet = "sheet-1"

// fakeSheets implements the handful of Sheets API endpoints ReplaceTab uses.
type fakeSheets struct {
	mu         sync.Mutex
	sheets     []*gsheet.SheetProperties
	nextID     int64
	calls      []string
	values     map[string][][]any
	cleared    []string
	formats    []*gsheet.Request
	resizes    []*gsheet.UpdateSheetPropertiesRequest
	inputOpts  []string
	failFormat bool
	failClear  bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/spreadsheets/"+testSpreadsheet):
		f.calls = append(f.calls, "get")
		ss := &gsheet.Spreadsheet{SpreadsheetId: testSpreadsheet}
		for _, p := range f.sheets {
			ss.Sheets = append(ss.Sheets, &gsheet.Sheet{Properties: p})
		}
		writeJSON(w, http.StatusOK, ss)

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := &gsheet.BatchUpdateSpreadsheetResponse{SpreadsheetId: testSpreadsheet}
		formatted := false
		for _, q := range req.Requests {
			switch {
			case q.AddSheet != nil:
				f.calls = append(f.calls, "add")
				f.nextID++
				p := q.AddSheet.Properties
				p.SheetId = f.nextID
				f.sheets = append(f.sheets, p)
				resp.Replies = append(resp.Replies, &gsheet.Response{AddSheet: &gsheet.AddSheetResponse{Properties: p}})
			case q.UpdateSheetProperties != nil:
				f.calls = append(f.calls, "resize")
				f.resizes = append(f.resizes, q.UpdateSheetProperties)
			default:
				if f.failFormat {
					writeError(w, http.StatusBadRequest, "formatting rejected")
					return
				}
				f.formats = append(f.formats, q)
				formatted = true
			}
		}
		if formatted {
			f.calls = append(f.calls, "format")
		}
		writeJSON(w, http.StatusOK, resp)

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		if f.failClear {
			writeError(w, http.StatusForbidden, "caller does not have permission")
			return
		}
		f.calls = append(f.calls, "clear")
		rng := path[strings.Index(path, "/values/")+len("/values/"):]
		f.cleared = append(f.cleared, strings.TrimSuffix(rng, ":clear"))
		writeJSON(w, http.StatusOK, &gsheet.ClearValuesResponse{})

	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		f.calls = append(f.calls, "update")
		f.inputOpts = append(f.inputOpts, r.URL.Query().Get("valueInputOption"))
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		rng := path[strings.Index(path, "/values/")+len("/values/"):]
		f.values[rng] = vr.Values
		writeJSON(w, http.StatusOK, &gsheet.UpdateValuesResponse{})

	default:
		writeError(w, http.StatusNotFound, "unexpected "+r.Method+" "+path)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": map[string]any{"code": status, "message": msg}})
}

func newTestClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	if f.values == nil {
		f.values = map[string][][]any{}
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	require.NoError(t, err)
	return NewWithService(svc, testSpreadsheet, nil)
}

func budgetGrid() core.Grid {
	return core.Grid{
		Rows: [][]string{
			{"January 2024", "", ""},
			{"Category", "Budgeted", "Actual"},
			{"Rent", "$1,500.00", "$1,500.00"},
			{"TOTAL", "$1,500.00", "$1,500.00"},
		},
		HeaderRows: 2,
		TotalRows:  []int{3},
	}
}

func TestReplaceTab_CreatesMissingTab(t *testing.T) {
	f := &fakeSheets{}
	c := newTestClient(t, f)

	require.NoError(t, c.ReplaceTab(context.Background(), "Current Month Budget", budgetGrid()))

	assert.Equal(t, []string{"get", "add", "clear", "update", "format"}, f.calls)
	require.Len(t, f.sheets, 1)
	assert.Equal(t, "Current Month Budget", f.sheets[0].Title)
	assert.Equal(t, int64(100), f.sheets[0].GridProperties.RowCount)
	assert.Equal(t, int64(3), f.sheets[0].GridProperties.ColumnCount)

	assert.Equal(t, []string{"'Current Month Budget'"}, f.cleared)
	assert.Equal(t, []string{"USER_ENTERED"}, f.inputOpts)
	written := f.values["'Current Month Budget'!A1"]
	require.Len(t, written, 4)
	assert.Equal(t, []any{"Rent", "$1,500.00", "$1,500.00"}, written[2])

	// header, one total row, auto-resize
	require.Len(t, f.formats, 3)
	assert.Equal(t, f.sheets[0].SheetId, f.formats[0].RepeatCell.Range.SheetId)
	assert.Equal(t, int64(2), f.formats[0].RepeatCell.Range.EndRowIndex)
	assert.Equal(t, int64(3), f.formats[1].RepeatCell.Range.StartRowIndex)
	assert.NotNil(t, f.formats[2].AutoResizeDimensions)
}

func TestReplaceTab_GrowsSmallTab(t *testing.T) {
	f := &fakeSheets{sheets: []*gsheet.SheetProperties{
		{SheetId: 7, Title: "Transactions", GridProperties: &gsheet.GridProperties{RowCount: 2, ColumnCount: 2}},
	}}
	c := newTestClient(t, f)

	require.NoError(t, c.ReplaceTab(context.Background(), "Transactions", budgetGrid()))

	assert.Equal(t, []string{"get", "resize", "clear", "update", "format"}, f.calls)
	require.Len(t, f.resizes, 1)
	assert.Equal(t, int64(7), f.resizes[0].Properties.SheetId)
	assert.Equal(t, int64(4), f.resizes[0].Properties.GridProperties.RowCount)
	assert.Equal(t, int64(3), f.resizes[0].Properties.GridProperties.ColumnCount)
}

func TestReplaceTab_ExistingTabLargeEnough(t *testing.T) {
	f := &fakeSheets{sheets: []*gsheet.SheetProperties{
		{SheetId: 3, Title: "Account Balances", GridProperties: &gsheet.GridProperties{RowCount: 1000, ColumnCount: 26}},
	}}
	c := newTestClient(t, f)

	require.NoError(t, c.ReplaceTab(context.Background(), "Account Balances", budgetGrid()))
	assert.Equal(t, []string{"get", "clear", "update", "format"}, f.calls)
}

func TestReplaceTab_FormattingFailureIsNotFatal(t *testing.T) {
	f := &fakeSheets{failFormat: true}
	c := newTestClient(t, f)

	require.NoError(t, c.ReplaceTab(context.Background(), "Budget", budgetGrid()))
	assert.Contains(t, f.calls, "update")
}

func TestReplaceTab_ClearFailure(t *testing.T) {
	f := &fakeSheets{failClear: true}
	c := newTestClient(t, f)

	err := c.ReplaceTab(context.Background(), "Budget", budgetGrid())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to clear tab Budget")
	assert.NotContains(t, f.calls, "update")
}

func TestReplaceTab_RejectsBadInput(t *testing.T) {
	c := &Client{}
	ctx := context.Background()

	assert.ErrorIs(t, c.ReplaceTab(ctx, "", budgetGrid()), core.ErrEmptyTabName)
	assert.ErrorIs(t, c.ReplaceTab(ctx, "T", core.Grid{Rows: [][]string{{"a"}, {}}}), core.ErrRaggedGrid)
	assert.EqualError(t, c.ReplaceTab(ctx, "T", core.Grid{}), "sheets service not initialized")
}

func TestFormatRequests(t *testing.T) {
	assert.Nil(t, formatRequests(1, core.Grid{}))

	reqs := formatRequests(5, core.Grid{Rows: [][]string{{"a", "b"}, {"c", "d"}}})
	require.Len(t, reqs, 1, "no header or totals leaves only the resize")
	assert.Equal(t, int64(2), reqs[0].AutoResizeDimensions.Dimensions.EndIndex)

	g := core.Grid{Rows: make([][]string, 9), HeaderRows: 2, TotalRows: []int{6, 7, 8}}
	for i := range g.Rows {
		g.Rows[i] = []string{"", "", "", ""}
	}
	reqs = formatRequests(5, g)
	require.Len(t, reqs, 5)
	assert.Equal(t, "CENTER", reqs[0].RepeatCell.Cell.UserEnteredFormat.HorizontalAlignment)
	for i, row := range []int64{6, 7, 8} {
		rng := reqs[i+1].RepeatCell.Range
		assert.Equal(t, row, rng.StartRowIndex)
		assert.Equal(t, row+1, rng.EndRowIndex)
		assert.Equal(t, int64(4), rng.EndColumnIndex)
		assert.True(t, reqs[i+1].RepeatCell.Cell.UserEnteredFormat.TextFormat.Bold)
	}
}

func TestQuoteTab(t *testing.T) {
	assert.Equal(t, "'Transactions'", quoteTab("Transactions"))
	assert.Equal(t, "'Bob''s Budget'", quoteTab("Bob's Budget"))
}

func TestLoadCredentials(t *testing.T) {
	file := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"from":"file"}`), 0o600))

	got, err := loadCredentials(Config{CredentialsFile: file})
	require.NoError(t, err)
	assert.Equal(t, `{"from":"file"}`, string(got))

	got, err = loadCredentials(Config{CredentialsJSON: `{"from":"env"}`})
	require.NoError(t, err)
	assert.Equal(t, `{"from":"env"}`, string(got))

	_, err = loadCredentials(Config{CredentialsFile: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)

	_, err = loadCredentials(Config{})
	assert.True(t, errors.Is(err, ErrMissingCredentials))
}

func TestNew_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, Config{CredentialsJSON: "{}"}, nil)
	assert.EqualError(t, err, "missing spreadsheet id")

	_, err = New(ctx, Config{SpreadsheetID: "s", CredentialsJSON: "not json"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse service account credentials")
}
