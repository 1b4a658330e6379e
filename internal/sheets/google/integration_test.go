//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"xpenso/internal/core"
)

// Integration tests require a real spreadsheet shared with the service account.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_ExportAndReadBack(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	saJSON := os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")
	saFile := os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")
	if saJSON == "" && saFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := New(ctx, Options{
		SpreadsheetID:      spreadsheetID,
		SheetName:          os.Getenv("GOOGLE_SHEET_NAME"),
		ServiceAccountJSON: saJSON,
		ServiceAccountFile: saFile,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	user := "it-" + uuid.NewString()
	tx := core.Transaction{
		ID:          uuid.NewString(),
		Amount:      decimal.RequireFromString("3.50"),
		Description: "integration test",
		Category:    "Test",
		Type:        core.Expense,
		Wallet:      core.DefaultWallet,
		Date:        time.Now().UTC(),
	}

	ref, err := client.ExportTransaction(ctx, user, tx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	t.Logf("exported to %s", ref)

	again, err := client.ExportTransaction(ctx, user, tx)
	if err != nil || again != ref {
		t.Fatalf("re-export should be a no-op: ref=%q err=%v", again, err)
	}

	rows, err := client.ListExported(ctx, user, tx.Date.Year())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != tx.ID {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}
