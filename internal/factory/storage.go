// Package factory constructs configured dependencies for service wiring.
package factory

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/krishisahai/sahai/internal/config"
	"github.com/krishisahai/sahai/internal/events"
	storepkg "github.com/krishisahai/sahai/internal/store"
	storepg "github.com/krishisahai/sahai/internal/store/postgres"
	storesqlite "github.com/krishisahai/sahai/internal/store/sqlite"
)

// NewStore returns the store.Store for the configured driver. Mutation events
// are published on bus.
func NewStore(cfg *config.Config, log zerolog.Logger, bus *events.Bus) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		st, err := storesqlite.New(cfg.SQLitePath, bus)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("sqlite store ready")
		return st, nil
	case "postgres":
		st, err := storepg.New(cfg.PostgresDSN, bus)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		log.Info().Msg("postgres store ready")
		return st, nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
