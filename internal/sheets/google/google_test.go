package google

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"xpenso/internal/core"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewSheetsService_MissingCredentials(t *testing.T) {
	old := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	defer os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", old)
	os.Unsetenv("GOOGLE_APPLICATION_CREDENTIALS")

	_, err := New(context.Background(), Options{SpreadsheetID: "test-id"})
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("expected credentials error, got: %v", err)
	}
}

func TestNewSheetsService_UnreadableFile(t *testing.T) {
	_, err := New(context.Background(), Options{
		SpreadsheetID:      "test-id",
		ServiceAccountFile: "/non/existent/file.json",
	})
	if err == nil {
		t.Fatal("expected error for unreadable file")
	}
	if !strings.Contains(err.Error(), "read service account file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExportTransaction_Validation(t *testing.T) {
	c := &Client{spreadsheetID: "test"} // svc is nil

	tests := []struct {
		name        string
		tx          core.Transaction
		expectedErr string
	}{
		{
			name:        "MissingID",
			tx:          core.Transaction{Description: "Lunch", Amount: decimal.NewFromInt(5)},
			expectedErr: "transaction id is required",
		},
		{
			name:        "NoService",
			tx:          core.Transaction{ID: "t1", Description: "Lunch", Amount: decimal.NewFromInt(5)},
			expectedErr: "sheets service not initialized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ExportTransaction(context.Background(), "u1", tt.tx)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.expectedErr) {
				t.Errorf("expected error containing %q, got %q", tt.expectedErr, err.Error())
			}
		})
	}
}

func TestListExported_NoService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.ListExported(context.Background(), "u1", 2026); err == nil {
		t.Fatal("expected error")
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		baseName string
		year     int
		expected string
	}{
		{"Transactions", 2026, "2026 Transactions"},
		{"  Ledger ", 2024, "2024 Ledger"},
		{"", 2023, ""},
		{"Test Sheet", 2022, "2022 Test Sheet"},
		{"2025 Already Prefixed", 2024, "2025 Already Prefixed"},
		{"12345", 2024, "2024 12345"},
	}

	for _, tt := range tests {
		got := yearPrefixedName(tt.baseName, tt.year)
		if got != tt.expected {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q",
				tt.baseName, tt.year, got, tt.expected)
		}
	}
}

func TestRowRef(t *testing.T) {
	if got := rowRef("2026 Transactions", 7); got != "2026 Transactions!A7:H7" {
		t.Errorf("rowRef = %q", got)
	}
}
