package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"xpenso/internal/core"
	"xpenso/internal/store"
)

type account struct {
	txs      []core.Transaction
	cats     []core.BudgetCategory
	alerts   []core.Alert
	insights []core.Insight
	settings *core.Settings
}

// Store keeps every user's data in process memory.
type Store struct {
	mu    sync.Mutex
	seeds []core.BudgetCategory
	users map[string]*account
	now   func() time.Time
}

// New returns an empty store. Seed categories are copied into each user's
// definitions the first time that user is seen.
func New(seeds []core.BudgetCategory) *Store {
	return &Store{seeds: dedupe(seeds), users: map[string]*account{}, now: time.Now}
}

// NewFromFiles reads seed_categories.txt from base. Each line is a category
// name, optionally followed by a comma and a monthly budget.
func NewFromFiles(base string) *Store {
	return New(readSeeds(filepath.Join(base, "seed_categories.txt")))
}

func (s *Store) user(id string) *account {
	a, ok := s.users[id]
	if !ok {
		a = &account{}
		for _, c := range s.seeds {
			c.ID = uuid.NewString()
			a.cats = append(a.cats, c)
		}
		s.users[id] = a
	}
	return a
}

func (s *Store) AddTransaction(_ context.Context, userID string, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = uuid.NewString()
	tx.CreatedAt = s.now()
	a := s.user(userID)
	a.txs = append(a.txs, tx)
	return tx, nil
}

// ListTransactions orders by date, then creation time, newest first.
func (s *Store) ListTransactions(_ context.Context, userID string, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Transaction(nil), s.user(userID).txs...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return capped(out, limit), nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.user(userID).txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, store.ErrNotFound
}

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.BudgetCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.BudgetCategory(nil), s.user(userID).cats...), nil
}

func (s *Store) AddCategory(_ context.Context, userID string, c core.BudgetCategory) (core.BudgetCategory, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.BudgetCategory{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.user(userID)
	for _, existing := range a.cats {
		if existing.Name == c.Name {
			return core.BudgetCategory{}, fmt.Errorf("category %q: %w", c.Name, core.ErrDuplicateCategory)
		}
	}
	c.ID = uuid.NewString()
	c.Spent = decimal.Zero
	a.cats = append(a.cats, c)
	return c, nil
}

func (s *Store) ListAlerts(_ context.Context, userID string, limit int) ([]core.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.user(userID).alerts
	out := make([]core.Alert, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i])
	}
	return capped(out, limit), nil
}

func (s *Store) AppendAlert(_ context.Context, userID string, al core.Alert) (string, error) {
	if err := al.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	al.ID = uuid.NewString()
	if al.CreatedAt.IsZero() {
		al.CreatedAt = s.now()
	}
	a := s.user(userID)
	a.alerts = append(a.alerts, al)
	return al.ID, nil
}

func (s *Store) MarkAlertRead(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.user(userID)
	for i := range a.alerts {
		if a.alerts[i].ID == id {
			a.alerts[i].Read = true
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) GetSettings(_ context.Context, userID string) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.user(userID)
	if a.settings == nil {
		return core.Settings{}, store.ErrNotFound
	}
	return *a.settings, nil
}

func (s *Store) SaveSettings(_ context.Context, userID string, st core.Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(userID).settings = &st
	return nil
}

func (s *Store) SaveInsight(_ context.Context, userID string, in core.Insight) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.ID = uuid.NewString()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = s.now()
	}
	a := s.user(userID)
	a.insights = append(a.insights, in)
	return in.ID, nil
}

func (s *Store) LatestInsight(_ context.Context, userID string) (core.Insight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.user(userID)
	if len(a.insights) == 0 {
		return core.Insight{}, store.ErrNotFound
	}
	return a.insights[len(a.insights)-1], nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func capped[T any](in []T, limit int) []T {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}

func readSeeds(path string) []core.BudgetCategory {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.BudgetCategory
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, rawBudget, _ := strings.Cut(line, ",")
		c := core.BudgetCategory{Name: strings.TrimSpace(name), Budget: decimal.Zero}
		if b, err := core.ParseAmount(rawBudget); err == nil {
			c.Budget = b
		}
		out = append(out, c)
	}
	return out
}

func dedupe(in []core.BudgetCategory) []core.BudgetCategory {
	seen := map[string]struct{}{}
	out := make([]core.BudgetCategory, 0, len(in))
	for _, c := range in {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		out = append(out, c)
	}
	// Input order is kept; it is the order definitions are merged in.
	return out
}
