package factory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/krishisahai/sahai/internal/assist"
	"github.com/krishisahai/sahai/internal/config"
)

// NewAssistModel returns the hosted model provider, or nil when no API key is
// configured. The service runs with assist routes disabled in that case.
func NewAssistModel(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*assist.GenAIModel, error) {
	if cfg.GenAIAPIKey == "" {
		log.Warn().Msg("no GenAI API key configured; assist flows disabled")
		return nil, nil
	}
	m, err := assist.NewGenAIModel(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
	if err != nil {
		return nil, err
	}
	log.Info().Str("model", cfg.GenAIModel).Msg("assist model ready")
	return m, nil
}
