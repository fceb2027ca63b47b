package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/krishisahai/sahai/internal/assist"
	"github.com/krishisahai/sahai/internal/model"
	"github.com/krishisahai/sahai/internal/store"
)

// Advisor produces log-driven advice. *assist.Service satisfies this.
type Advisor interface {
	LogSuggestion(ctx context.Context, activity, crop string, date time.Time, notes string) (string, error)
	GrowthPlan(ctx context.Context, logs []*model.FarmLogEntry) ([]assist.PlanRecommendation, error)
}

// suggestionTimeout bounds the best-effort advice call on entry creation so
// a slow model never blocks the write.
const suggestionTimeout = 15 * time.Second

// FarmLogService manages the per-user activity log. Entries are private to
// their owner; every operation is scoped by the acting user's email.
type FarmLogService struct {
	store   store.FarmLogs
	advisor Advisor
	logger  zerolog.Logger
}

// NewFarmLogService creates the service. advisor may be nil; entries are then
// stored without suggestions.
func NewFarmLogService(st store.FarmLogs, advisor Advisor, logger zerolog.Logger) *FarmLogService {
	return &FarmLogService{
		store:   st,
		advisor: advisor,
		logger:  logger.With().Str("component", "farmlog").Logger(),
	}
}

// CreateEntry validates and stores an activity. A next-step suggestion is
// attached when the model answers in time; failures only drop the suggestion.
func (s *FarmLogService) CreateEntry(ctx context.Context, actor *model.User, e *model.FarmLogEntry) (*model.FarmLogEntry, error) {
	if e.Activity == "" || e.Crop == "" {
		return nil, fmt.Errorf("%w: activity and crop are required", model.ErrValidation)
	}
	if e.Date.IsZero() {
		e.Date = time.Now().UTC()
	}
	e.UserEmail = actor.Email

	if s.advisor != nil {
		sctx, cancel := context.WithTimeout(ctx, suggestionTimeout)
		suggestion, err := s.advisor.LogSuggestion(sctx, e.Activity, e.Crop, e.Date, e.Notes)
		cancel()
		if err != nil {
			s.logger.Warn().Err(err).Str("user", actor.Email).Msg("log suggestion unavailable")
		} else {
			e.Suggestion = suggestion
		}
	}
	return s.store.Create(ctx, e)
}

func (s *FarmLogService) ListEntries(ctx context.Context, actor *model.User) ([]*model.FarmLogEntry, error) {
	return s.store.List(ctx, actor.Email)
}

func (s *FarmLogService) DeleteEntry(ctx context.Context, actor *model.User, entryID string) error {
	return s.store.Delete(ctx, actor.Email, entryID)
}

// GrowthPlan analyzes the actor's full log history.
func (s *FarmLogService) GrowthPlan(ctx context.Context, actor *model.User) ([]assist.PlanRecommendation, error) {
	if s.advisor == nil {
		return nil, fmt.Errorf("advisor is not configured")
	}
	logs, err := s.store.List(ctx, actor.Email)
	if err != nil {
		return nil, err
	}
	return s.advisor.GrowthPlan(ctx, logs)
}
