package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"xpenso/internal/core"
	"xpenso/internal/log"
	ports "xpenso/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheetName is the base transactions sheet name; the year is prefixed per row.
const DefaultSheetName = "Transactions"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year (e.g. "Transactions"); each export targets "<year> <base>".
	sheetBase string
	logger    *log.Logger
	now       func() time.Time
}

// Ensure interface conformance
var (
	_ ports.TransactionExporter = (*Client)(nil)
	_ ports.TransactionReader   = (*Client)(nil)
)

type Options struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
	Logger             *log.Logger
}

// New creates a Sheets client authenticated with a service account.
// Credentials come from opts, falling back to GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	base := strings.TrimSpace(opts.SheetName)
	if base == "" {
		base = DefaultSheetName
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, logger, opts.ServiceAccountJSON, opts.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     base,
		logger:        logger,
		now:           time.Now,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, logger *log.Logger, serviceAccountJSON, serviceAccountFile string) (*gsheet.Service, error) {
	serviceAccountJSON = strings.TrimSpace(serviceAccountJSON)
	serviceAccountFile = strings.TrimSpace(serviceAccountFile)

	// Also check the standard Google Cloud environment variable
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		logger.DebugContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		logger.DebugContext(ctx, "Reading service account credentials from file", "path", serviceAccountFile)
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

	logger.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// ExportTransaction writes tx to the "<year> <base>" sheet of its effective
// date. The sheet is scanned first so that a redelivered message does not
// produce a duplicate row; in that case the existing row reference is returned.
func (c *Client) ExportTransaction(ctx context.Context, userID string, tx core.Transaction) (string, error) {
	if strings.TrimSpace(tx.ID) == "" {
		return "", errors.New("transaction id is required for export")
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet := yearPrefixedName(c.sheetBase, tx.EffectiveDate(c.now()).Year())
	values, err := c.readAll(ctx, sheet)
	if err != nil {
		return "", err
	}
	for _, r := range parseRows(values) {
		if r.tx.ID == tx.ID {
			c.logger.DebugContext(ctx, "Transaction already exported",
				log.FieldTransactionID, tx.ID, log.FieldSheetsRef, rowRef(sheet, r.row))
			return rowRef(sheet, r.row), nil
		}
	}

	rows := [][]any{}
	nextRow := len(values) + 1
	if len(values) == 0 {
		hdr := make([]any, len(header))
		for i, h := range header {
			hdr[i] = h
		}
		rows = append(rows, hdr)
		nextRow++
	}
	rows = append(rows, formatRow(userID, tx, c.now()))

	firstRow := nextRow - len(rows) + 1
	rng := fmt.Sprintf("%s!A%d:H%d", sheet, firstRow, nextRow)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to write row in sheet %s: %w", sheet, err)
	}

	ref := rowRef(sheet, nextRow)
	c.logger.InfoContext(ctx, "Transaction exported",
		log.FieldUserID, userID, log.FieldTransactionID, tx.ID, log.FieldSheetsRef, ref)
	return ref, nil
}

// ListExported returns the rows exported for userID in the given year's sheet.
func (c *Client) ListExported(ctx context.Context, userID string, year int) ([]core.Transaction, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	values, err := c.readAll(ctx, yearPrefixedName(c.sheetBase, year))
	if err != nil {
		return nil, err
	}
	var out []core.Transaction
	for _, r := range parseRows(values) {
		if r.userID == userID {
			out = append(out, r.tx)
		}
	}
	return out, nil
}

func (c *Client) readAll(ctx context.Context, sheet string) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:H", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func rowRef(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:H%d", sheet, row, row)
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
