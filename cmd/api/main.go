// main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Marga-Ghale/teamhub-backend/internal/api/handlers"
	"github.com/Marga-Ghale/teamhub-backend/internal/api/middleware"
	"github.com/Marga-Ghale/teamhub-backend/internal/config"
	"github.com/Marga-Ghale/teamhub-backend/internal/cron"
	"github.com/Marga-Ghale/teamhub-backend/internal/db"
	"github.com/Marga-Ghale/teamhub-backend/internal/notification"
	"github.com/Marga-Ghale/teamhub-backend/internal/repository"
	"github.com/Marga-Ghale/teamhub-backend/internal/seed"
	"github.com/Marga-Ghale/teamhub-backend/internal/service"
	"github.com/Marga-Ghale/teamhub-backend/internal/socket"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using environment variables")
	}

	cfg := config.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	// ============================================
	// Database
	// ============================================
	if err := db.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	ctx := context.Background()

	poolOpts := db.DefaultPoolOptions()
	poolOpts.MaxConns = int32(cfg.DBMaxConns)
	poolOpts.MinConns = int32(cfg.DBMinConns)

	pg, err := db.NewPostgresDB(ctx, cfg.DatabaseURL, poolOpts)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pg.Close()

	var redisDB *db.RedisDB
	if cfg.RedisURL != "" {
		redisDB, err = db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis, sessions fall back to PostgreSQL")
			redisDB = nil
		} else {
			defer redisDB.Close()
		}
	}

	repos := repository.NewRepositories(pg.Pool, redisDB)

	// ============================================
	// Realtime + notifications
	// ============================================
	hub := socket.NewHub(socket.NewRegistry())
	notifier := notification.NewService(notification.NewWriter(repos.NotificationRepo, hub), repos.UserRepo)

	services := service.NewServices(&service.ServiceDeps{
		Config:   cfg,
		Repos:    repos,
		Notifier: notifier,
		Pusher:   hub,
	})

	if cfg.SeedData {
		if err := seed.SeedData(ctx, repos); err != nil {
			log.Error().Err(err).Msg("Seeding failed")
		}
	}

	scheduler := cron.NewScheduler(
		services.Notification,
		services.Auth,
		time.Duration(cfg.NotificationRetentionDays)*24*time.Hour,
	)
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	wsHandler := socket.NewHandler(hub, func(token string) (string, error) {
		claims, err := services.Auth.ParseToken(token)
		if err != nil {
			return "", err
		}
		return claims.Subject, nil
	}, services.Permission.CanMessage)

	// ============================================
	// HTTP
	// ============================================
	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit, 5)

	r := handlers.NewRouter(handlers.RouterConfig{
		Handlers:    handlers.NewHandlers(services),
		Auth:        services.Auth,
		WebSocket:   wsHandler.HandleWebSocket,
		AuthLimiter: limiter,
		CORSOrigins: cfg.CORSOrigins,
		Health: func() gin.H {
			return gin.H{
				"database":    pg.Status(context.Background()),
				"cache":       cacheStatus(redisDB),
				"connections": hub.ConnectionCount(),
				"online":      len(hub.OnlineUsers()),
			}
		},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("environment", cfg.Environment).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	hub.Shutdown()
	limiter.Stop()
	scheduler.Stop()

	log.Info().Msg("Server exited")
}

func cacheStatus(redisDB *db.RedisDB) string {
	if redisDB != nil {
		return "connected"
	}
	return "disabled"
}
