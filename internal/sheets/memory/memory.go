// Package memory is an in-process spreadsheet used when no Google Sheet is
// configured and by tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"xpenso/internal/core"
	ports "xpenso/internal/sheets"
)

type row struct {
	userID string
	tx     core.Transaction
}

type Store struct {
	mu     sync.Mutex
	sheets map[int][]row // by year
	now    func() time.Time
}

var (
	_ ports.TransactionExporter = (*Store)(nil)
	_ ports.TransactionReader   = (*Store)(nil)
)

func New() *Store {
	return &Store{sheets: make(map[int][]row), now: time.Now}
}

// ExportTransaction appends the transaction to its year's sheet and returns a
// synthetic row reference. A transaction already present keeps its row.
func (s *Store) ExportTransaction(_ context.Context, userID string, tx core.Transaction) (string, error) {
	if tx.ID == "" {
		return "", errors.New("transaction id is required for export")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	year := tx.EffectiveDate(s.now()).Year()
	rows := s.sheets[year]
	for i, r := range rows {
		if r.tx.ID == tx.ID {
			return ref(year, i), nil
		}
	}
	s.sheets[year] = append(rows, row{userID: userID, tx: tx})
	return ref(year, len(rows)), nil
}

func (s *Store) ListExported(_ context.Context, userID string, year int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, r := range s.sheets[year] {
		if r.userID == userID {
			out = append(out, r.tx)
		}
	}
	return out, nil
}

// Len reports the number of rows across all years.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, rows := range s.sheets {
		n += len(rows)
	}
	return n
}

// Header row occupies row 1.
func ref(year, idx int) string {
	return fmt.Sprintf("mem:%d:%d", year, idx+2)
}
