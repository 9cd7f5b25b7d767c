package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"presence/internal/api"
	"presence/internal/attendance"
	"presence/internal/config"
	"presence/internal/httpmiddleware"
	"presence/internal/identity"
	"presence/internal/store"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg config.App) error {
	db, err := store.New(cfg.DatabaseURL, cfg.AutoMigrate)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	repo := attendance.NewRepository(db)
	service := attendance.NewService(repo)
	provider := identity.NewService(db, cfg.JWTIssuer, cfg.SecretKey, cfg.TokenTTL)

	var limiter httpmiddleware.Limiter
	if redisClient.Healthy(context.Background()) {
		limiter = httpmiddleware.NewRedisWindow(redisClient.Client, "presence:ratelimit", cfg.RateLimitPerMin, time.Minute)
		log.Info().Msg("redis rate limiter enabled")
	} else {
		limiter = httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
		log.Warn().Msg("redis unreachable, using in-memory rate limiter")
	}

	server := api.NewServer(api.Options{
		Store:        repo,
		Service:      service,
		Provider:     provider,
		DeviceAPIKey: cfg.DeviceAPIKey,
		RateLimiter:  limiter,
		HealthCheck: func(c *gin.Context) (bool, bool) {
			return db.PingContext(c.Request.Context()) == nil, redisClient.Healthy(c.Request.Context())
		},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	// Give outstanding requests 10 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server exited")
	return nil
}
