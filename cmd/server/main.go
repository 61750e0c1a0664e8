package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/pesona-id/pesona-backend/internal/domain"
	"github.com/pesona-id/pesona-backend/internal/featureflags"
	"github.com/pesona-id/pesona-backend/internal/handler"
	"github.com/pesona-id/pesona-backend/internal/infrastructure/logger"
	"github.com/pesona-id/pesona-backend/internal/infrastructure/redis"
	"github.com/pesona-id/pesona-backend/internal/observability/metrics"
	"github.com/pesona-id/pesona-backend/internal/observability/tracing"
	"github.com/pesona-id/pesona-backend/internal/reliability/retry"
	"github.com/pesona-id/pesona-backend/internal/security/audit"
	"github.com/pesona-id/pesona-backend/internal/security/auth"
	"github.com/pesona-id/pesona-backend/internal/security/middleware"
	"github.com/pesona-id/pesona-backend/internal/security/ratelimit"
	"github.com/pesona-id/pesona-backend/internal/service"
	"github.com/pesona-id/pesona-backend/pkg/config"
	"github.com/pesona-id/pesona-backend/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting pesona backend", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op unless an OTLP endpoint is configured)
	shutdownTracing, err := tracing.Init(ctx, log, "pesona-backend", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Connect Redis with retry
	redisClient, err := retry.Do(ctx, retry.DefaultConfig(), log, "redis connect",
		func(ctx context.Context) (*redis.Client, error) {
			return redis.NewClient(cfg.RedisURL)
		})
	if err != nil {
		log.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	// 5. Connect PostgreSQL with retry
	db, err := retry.Do(ctx, retry.DefaultConfig(), log, "database connect",
		func(ctx context.Context) (*gorm.DB, error) {
			return database.Connect(ctx, &database.Config{URL: cfg.DatabaseURL}, log)
		})
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close(db)

	// 6. Migrate schema. Always on outside production; behind a flag there.
	if cfg.Environment != "production" || featureflags.Enabled("auto_migrate") {
		if err := db.AutoMigrate(domain.AllModels()...); err != nil {
			log.Error("schema migration failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		log.Info("schema migration complete")
	}

	// 7. Initialize security components
	tokenManager := auth.NewTokenManager(cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
		cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	rateLimiter := ratelimit.NewLimiter(redisClient, cfg.RateLimitPerMinute, time.Minute, log)
	auditLogger := audit.NewLogger(log)

	// 8. Initialize services
	svcs := handler.Services{
		Auth:         service.NewAuthService(db, tokenManager, auditLogger, log),
		Users:        service.NewUserService(db, log),
		Categories:   service.NewCategoryService(db, log),
		Districts:    service.NewDistrictService(db, log),
		Tags:         service.NewTagService(db, log),
		Destinations: service.NewDestinationService(db, log),
		Traditions:   service.NewTraditionService(db, log),
		Stories:      service.NewStoryService(db, log),
		Comments:     service.NewCommentService(db, log),
		Likes:        service.NewLikeService(db, log),
		Bookmarks:    service.NewBookmarkService(db, log),
	}

	// 9. Build routes
	mux := handler.NewRouter(svcs, handler.Deps{
		Config:       cfg,
		Logger:       log,
		TokenManager: tokenManager,
		Health:       handler.NewHealthHandler(db, redisClient, log),
	})

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> metrics -> rate limit -> CORS -> routes
	rootHandler := middleware.RequestID(log)(
		metrics.HTTPMetricsMiddleware(
			middleware.RateLimit(rateLimiter, log)(handlerWithCORS),
		),
	)

	// 10. Start HTTP server with graceful shutdown
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.String("rate_limit_window", "1m"),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
