package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"salesheet/internal/core"
	ports "salesheet/internal/sheets"
)

// DefaultWriteInterval spaces API calls so a full rewrite stays under the
// per-user Sheets quota of 60 requests per minute.
const DefaultWriteInterval = time.Second

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	limiter       *rate.Limiter
}

// Ensure interface conformance
var _ ports.Workbook = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, spreadsheetID, DefaultWriteInterval), nil
}

// New wraps an existing service. interval <= 0 disables pacing.
func New(svc *gsheet.Service, spreadsheetID string, interval time.Duration) *Client {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		limiter:       rate.NewLimiter(limit, 5),
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
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
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
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
	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

func (c *Client) WriteTransactions(ctx context.Context, txs []core.Transaction) error {
	rows := make([][]any, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, ports.EncodeTransaction(tx))
	}
	if err := c.ensureSheets(ctx, ports.SalesEntrySheet); err != nil {
		return err
	}
	return c.replace(ctx, ports.SalesEntrySheet, ports.SalesEntryHeaders, rows)
}

func (c *Client) WriteSummaries(ctx context.Context, daily []core.DailySummary, products []core.ProductSummary) error {
	dr := make([][]any, 0, len(daily))
	for _, d := range daily {
		dr = append(dr, ports.EncodeDaily(d))
	}
	pr := make([][]any, 0, len(products))
	for _, p := range products {
		pr = append(pr, ports.EncodeProduct(p))
	}
	if err := c.ensureSheets(ctx, ports.DailySummarySheet, ports.ProductAnalysisSheet); err != nil {
		return err
	}
	if err := c.replace(ctx, ports.DailySummarySheet, ports.DailySummaryHeaders, dr); err != nil {
		return err
	}
	return c.replace(ctx, ports.ProductAnalysisSheet, ports.ProductAnalysisHeaders, pr)
}

func (c *Client) ReadTransactions(ctx context.Context) (ports.Import, error) {
	if err := c.ready(ctx); err != nil {
		return ports.Import{}, err
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, columnsRange(ports.SalesEntrySheet, len(ports.SalesEntryHeaders))).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return ports.Import{}, fmt.Errorf("read %s: %w", ports.SalesEntrySheet, err)
	}
	rows := make([][]string, len(resp.Values))
	for i, r := range resp.Values {
		rows[i] = ports.ToStrings(r)
	}
	imp, err := ports.DecodeSalesEntry(rows)
	if err != nil {
		return imp, fmt.Errorf("decode %s: %w", ports.SalesEntrySheet, err)
	}
	slog.InfoContext(ctx, "Read transactions from Google Sheets",
		"spreadsheet_id", c.spreadsheetID,
		"transactions", len(imp.Transactions),
		"dropped", imp.Dropped)
	return imp, nil
}

// ready checks the client and waits for the rate limiter.
func (c *Client) ready(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}

// ensureSheets adds the named tabs that the spreadsheet does not have yet.
func (c *Client) ensureSheets(ctx context.Context, names ...string) error {
	if err := c.ready(ctx); err != nil {
		return err
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	existing := make(map[string]bool, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			existing[s.Properties.Title] = true
		}
	}
	var reqs []*gsheet.Request
	for _, name := range names {
		if !existing[name] {
			reqs = append(reqs, &gsheet.Request{
				AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: name}},
			})
		}
	}
	if len(reqs) == 0 {
		return nil
	}
	if err := c.ready(ctx); err != nil {
		return err
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("add sheets: %w", err)
	}
	slog.InfoContext(ctx, "Added missing sheets", "count", len(reqs))
	return nil
}

// replace clears the table columns of sheet and writes headers plus rows from A1.
func (c *Client) replace(ctx context.Context, sheet string, headers []string, rows [][]any) error {
	if err := c.ready(ctx); err != nil {
		return err
	}
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, columnsRange(sheet, len(headers)), &gsheet.ClearValuesRequest{}).
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("clear %s: %w", sheet, err)
	}

	if err := c.ready(ctx); err != nil {
		return err
	}
	vr := &gsheet.ValueRange{Values: tableValues(headers, rows)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, quoteSheet(sheet)+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("write %s: %w", sheet, err)
	}
	slog.InfoContext(ctx, "Wrote sheet", "sheet", sheet, "rows", len(rows))
	return nil
}

func tableValues(headers []string, rows [][]any) [][]any {
	out := make([][]any, 0, len(rows)+1)
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	out = append(out, header)
	return append(out, rows...)
}

// columnsRange returns an A1 range covering the first n columns, e.g. 'Sales Entry'!A:H.
func columnsRange(sheet string, n int) string {
	if n < 1 {
		n = 1
	}
	return fmt.Sprintf("%s!A:%s", quoteSheet(sheet), columnName(n))
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func columnName(n int) string {
	var s string
	for n > 0 {
		n--
		s = string(rune('A'+n%26)) + s
		n /= 26
	}
	return s
}
