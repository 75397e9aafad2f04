package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/inkwell-be/internal/api"
	"github.com/isdelr/inkwell-be/internal/auth"
	"github.com/isdelr/inkwell-be/internal/config"
	"github.com/isdelr/inkwell-be/internal/database"
	"github.com/isdelr/inkwell-be/internal/logger"
	"github.com/isdelr/inkwell-be/internal/monitoring"
	"github.com/isdelr/inkwell-be/internal/services"
	"github.com/isdelr/inkwell-be/internal/storage"
	"github.com/isdelr/inkwell-be/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, !cfg.IsProduction())

	// Set up database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up upload storage
	uploads, err := storage.NewLocal(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize upload storage")
	}

	// Set up token handling
	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize token issuer")
	}
	revoker, closeRevoker := newRevoker(cfg.RedisURL)
	defer closeRevoker()
	authenticator := auth.NewAuthenticator(db, issuer, revoker)

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	eventService := services.NewEventService(db, hub)
	userService := services.NewUserService(db, authenticator, uploads, eventService)
	postService := services.NewPostService(db, uploads, eventService)
	commentService := services.NewCommentService(db, eventService)
	imageService := services.NewImageService(db, uploads, eventService)

	if cfg.SuperAdmin.Password != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		created, err := userService.EnsureSuperAdmin(ctx, cfg.SuperAdmin.Username, cfg.SuperAdmin.Email, cfg.SuperAdmin.Password)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to seed super admin")
		}
		if created {
			log.Info().Str("username", cfg.SuperAdmin.Username).Msg("Super admin account created")
		}
	}

	// Set up and run the background janitor
	janitor, err := monitoring.NewJanitor(db, uploads, eventService, monitoring.Options{
		Schedule:       cfg.JanitorSchedule,
		EventRetention: cfg.EventRetention,
		DiskAlertPct:   cfg.DiskAlertPct,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize janitor")
	}
	janitor.Run()

	// Set up router
	router := api.NewRouter(api.Dependencies{
		Verifier:       authenticator,
		Users:          userService,
		Posts:          postService,
		Comments:       commentService,
		Images:         imageService,
		Events:         eventService,
		Uploads:        uploads,
		Hub:            hub,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		SecureCookies:  cfg.IsProduction(),
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	janitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Stop()

	log.Info().Msg("Server exiting")
}

// newRevoker returns the Redis denylist when REDIS_URL is set and an in-memory one otherwise.
func newRevoker(redisURL string) (auth.Revoker, func()) {
	if redisURL == "" {
		log.Info().Msg("REDIS_URL not set, keeping revoked tokens in memory")
		return auth.NewMemoryRevoker(), func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	revoker, err := auth.NewRedisRevoker(ctx, redisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	return revoker, func() {
		if err := revoker.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Redis client")
		}
	}
}
