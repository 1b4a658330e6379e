package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"xpenso/internal/cache"
	"xpenso/internal/core"
	"xpenso/internal/insights"
	"xpenso/internal/store"
)

// SettingsView is the stored settings plus what the dashboard derives from them.
type SettingsView struct {
	Settings        core.Settings           `json:"settings"`
	EffectiveBudget decimal.Decimal         `json:"effectiveBudget"`
	Recommendation  insights.Recommendation `json:"recommendation"`
}

type SettingsService struct {
	store   store.SettingsStore
	budgets BudgetSource
	cache   Invalidator
}

func NewSettingsService(st store.SettingsStore, budgets BudgetSource, c Invalidator) *SettingsService {
	return &SettingsService{store: st, budgets: budgets, cache: c}
}

// Get never fails for a user without settings: the view then carries the
// default budget.
func (s *SettingsService) Get(ctx context.Context, userID string) (SettingsView, error) {
	st, err := s.store.GetSettings(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return SettingsView{}, fmt.Errorf("get settings: %w", err)
	}
	effective := s.budgets.MonthlyBudget(ctx, userID)
	return SettingsView{
		Settings:        st,
		EffectiveBudget: effective,
		Recommendation:  insights.BudgetRecommendation(effective),
	}, nil
}

func (s *SettingsService) Save(ctx context.Context, userID string, st core.Settings) (SettingsView, error) {
	if err := s.store.SaveSettings(ctx, userID, st); err != nil {
		return SettingsView{}, err
	}
	if s.cache != nil {
		s.cache.DeletePrefix(cache.UserPrefix(userID))
	}
	return s.Get(ctx, userID)
}
