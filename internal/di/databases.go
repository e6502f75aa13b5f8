package di

import (
	"fmt"

	"github.com/aristath/bankmirror/internal/config"
	"github.com/aristath/bankmirror/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabase opens the cache database and applies its schema.
func InitializeDatabase(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	db, err := database.New(database.Config{
		Driver:  cfg.Database.Driver,
		DSN:     cfg.Database.DSN,
		Profile: database.ProfileCache, // The upstream API is the source of truth
		Name:    "cache",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema to %s: %w", db.Name(), err)
	}

	log.Info().Str("driver", db.Driver()).Msg("Cache database initialized and schema applied")
	return &Container{DB: db}, nil
}
