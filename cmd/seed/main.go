// Command seed creates the super admin account when no administrator exists yet.
package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/inkwell-be/internal/config"
	"github.com/isdelr/inkwell-be/internal/database"
	"github.com/isdelr/inkwell-be/internal/logger"
	"github.com/isdelr/inkwell-be/internal/services"
)

func main() {
	cfg := config.LoadForTools()
	logger.Init(cfg.LogLevel, !cfg.IsProduction())

	if cfg.SuperAdmin.Password == "" {
		log.Fatal().Msg("SUPERADMIN_PASSWORD must be set to seed the super admin")
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := services.NewUserService(db, nil, nil, services.NewEventService(db, nil))
	created, err := users.EnsureSuperAdmin(ctx, cfg.SuperAdmin.Username, cfg.SuperAdmin.Email, cfg.SuperAdmin.Password)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed super admin")
	}
	if !created {
		log.Info().Msg("An admin account already exists, nothing to do")
		return
	}
	log.Info().Str("username", cfg.SuperAdmin.Username).Str("email", cfg.SuperAdmin.Email).Msg("Super admin seeded successfully")
}
