// Package insights produces short spending advice for a user, either from an
// LLM or from fixed rules.
package insights

import (
	"context"
	"errors"
	"time"

	"xpenso/internal/core"
	"xpenso/internal/log"
	"xpenso/internal/period"
	"xpenso/internal/stats"
	"xpenso/internal/store"
)

// FallbackInsight is returned whenever the model cannot be reached.
const FallbackInsight = "Great job tracking your expenses! Keep monitoring your spending to stay within budget."

const (
	CategoryGeneral      = "general"
	TypeSpendingAnalysis = "spending_analysis"
	defaultFetchLimit    = 500
)

var ErrGeneratorDisabled = errors.New("insight generator not configured")

// Result is what a generation attempt reports back. Insight is always set;
// on failure it holds FallbackInsight and Error explains why.
type Result struct {
	Success bool   `json:"success"`
	Insight string `json:"insight"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Service struct {
	gen        Generator
	txs        store.TransactionStore
	insights   store.InsightStore
	fetchLimit int
	now        func() time.Time
	logger     *log.Logger
}

type Option func(*Service)

func WithFetchLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchLimit = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentInsights)
		}
	}
}

// NewService wires the insight flow. gen may be nil, in which case every
// generation returns the fallback.
func NewService(gen Generator, txs store.TransactionStore, insights store.InsightStore, opts ...Option) *Service {
	s := &Service{
		gen:        gen,
		txs:        txs,
		insights:   insights,
		fetchLimit: defaultFetchLimit,
		now:        time.Now,
		logger:     log.Discard(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Generate asks the model about userID's current month. The fallback text is
// returned with Success=false when anything on the way fails; a successful
// insight is persisted before it is returned.
func (s *Service) Generate(ctx context.Context, userID string) Result {
	if s.gen == nil {
		return fallback(ErrGeneratorDisabled)
	}

	txs, err := s.txs.ListTransactions(ctx, userID, s.fetchLimit)
	if err != nil {
		s.logger.WarnContext(ctx, "Transactions unavailable for insight",
			log.FieldUserID, userID, log.FieldError, err)
		return fallback(err)
	}
	snapshot := stats.ComputeWindow(txs, period.Month(), s.now())
	prompt := BuildPrompt(snapshot, txs)

	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		s.logger.WarnContext(ctx, "AI insight generation failed",
			log.FieldUserID, userID, log.FieldError, err)
		return fallback(err)
	}

	id, err := s.insights.SaveInsight(ctx, userID, core.Insight{
		Message:   text,
		Category:  CategoryGeneral,
		Type:      TypeSpendingAnalysis,
		CreatedAt: s.now(),
	})
	if err != nil {
		// The advice is still worth showing.
		s.logger.WarnContext(ctx, "Failed to save insight",
			log.FieldUserID, userID, log.FieldError, err)
	}
	s.logger.InfoContext(ctx, "AI insight generated",
		log.FieldUserID, userID, log.FieldOperation, log.OpGenerate)
	return Result{Success: true, Insight: text, ID: id}
}

// Latest returns the most recent stored insight, or store.ErrNotFound.
func (s *Service) Latest(ctx context.Context, userID string) (core.Insight, error) {
	return s.insights.LatestInsight(ctx, userID)
}

func fallback(err error) Result {
	return Result{Success: false, Insight: FallbackInsight, Error: err.Error()}
}
