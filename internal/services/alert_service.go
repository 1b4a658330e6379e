package services

import (
	"context"
	"fmt"

	"xpenso/internal/alerts"
	"xpenso/internal/cache"
	"xpenso/internal/core"
	"xpenso/internal/store"
)

const (
	AlertFetchLimit = 50
	AlertListCap    = 20
)

// AlertService serves the alert feed and lets the API trigger the rules.
type AlertService struct {
	store     store.AlertStore
	evaluator AlertEvaluator
	cache     Invalidator
}

func NewAlertService(st store.AlertStore, evaluator AlertEvaluator, c Invalidator) *AlertService {
	return &AlertService{store: st, evaluator: evaluator, cache: c}
}

// List returns up to AlertListCap alerts, newest first, drawn from the
// AlertFetchLimit most recent.
func (s *AlertService) List(ctx context.Context, userID string, unreadOnly bool) ([]core.Alert, error) {
	all, err := s.store.ListAlerts(ctx, userID, AlertFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	out := make([]core.Alert, 0, min(len(all), AlertListCap))
	for _, a := range all {
		if unreadOnly && a.Read {
			continue
		}
		out = append(out, a)
		if len(out) == AlertListCap {
			break
		}
	}
	return out, nil
}

func (s *AlertService) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.store.MarkAlertRead(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *AlertService) Evaluate(ctx context.Context, userID string) []alerts.AppendResult {
	results := s.evaluator.Evaluate(ctx, userID)
	if len(results) > 0 {
		s.invalidate(userID)
	}
	return results
}

func (s *AlertService) invalidate(userID string) {
	if s.cache != nil {
		s.cache.DeletePrefix(cache.UserPrefix(userID))
	}
}
