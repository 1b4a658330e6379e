package sheets

import (
	"context"

	"xpenso/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// TransactionExporter mirrors a recorded transaction into a spreadsheet.
	// Exporting the same transaction ID twice must not add a second row.
	TransactionExporter interface {
		ExportTransaction(ctx context.Context, userID string, tx core.Transaction) (rowRef string, err error)
	}

	// TransactionReader reads back the transactions mirrored for a user in a given year.
	TransactionReader interface {
		ListExported(ctx context.Context, userID string, year int) ([]core.Transaction, error)
	}
)
