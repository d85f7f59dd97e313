package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/citymarket/marketplace/config"
	"github.com/citymarket/marketplace/internal/email"
	"github.com/citymarket/marketplace/internal/health"
	"github.com/citymarket/marketplace/internal/infrastructure/postgres"
	"github.com/citymarket/marketplace/internal/infrastructure/redis"
	ctxlog "github.com/citymarket/marketplace/internal/log"
	"github.com/citymarket/marketplace/internal/media"
	"github.com/citymarket/marketplace/internal/metrics"
	"github.com/citymarket/marketplace/internal/password"
	"github.com/citymarket/marketplace/internal/session"
	httptransport "github.com/citymarket/marketplace/internal/transport/http"
	"github.com/citymarket/marketplace/internal/transport/http/handler"
	"github.com/citymarket/marketplace/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{MaxConns: cfg.DBMaxConns})
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, pool, logger); err != nil {
			stop()
			log.Fatalf("migrate: %v", err)
		}
	}

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	routerCfg := httptransport.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
		HSTS:           cfg.IsProduction(),
	}

	// Rate limiting is optional; without Redis the auth routes are unlimited.
	if cfg.RedisURL != "" {
		rdb, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			stop()
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		checker.Add("redis", redis.Pinger{Client: rdb})
		routerCfg.LoginLimiter = redis.NewRateLimiter(rdb, cfg.LoginRateLimit, time.Duration(cfg.LoginRateWindowSec)*time.Second)
	} else {
		logger.Warn("REDIS_URL not set, auth rate limiting disabled")
	}

	uploader, err := media.NewUploader(cfg.CloudinaryURL, logger)
	if err != nil {
		stop()
		log.Fatalf("media: %v", err)
	}

	// Sessions
	codec := session.NewCodec([]byte(cfg.SessionSecret), nil)
	sessions := session.NewStore(codec, session.DefaultPolicy(cfg.IsProduction(), cfg.CookieDomain))

	// Users
	userRepo := postgres.NewUserRepository(pool)
	cityRepo := postgres.NewCityRepository(pool)
	authUsecase := usecase.NewAuthUsecase(
		userRepo,
		cityRepo,
		password.NewHasher(cfg.BcryptCost),
		email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger),
		logger,
	)
	authHandler := handler.NewAuthHandler(authUsecase, sessions, logger)

	// Cities & categories
	cityUsecase := usecase.NewCityUsecase(cityRepo, postgres.NewCategoryRepository(pool))
	cityHandler := handler.NewCityHandler(cityUsecase, logger)

	// Listings
	listingRepo := postgres.NewListingRepository(pool)
	listingUsecase := usecase.NewListingUsecase(listingRepo, userRepo, uploader, logger)
	listingHandler := handler.NewListingHandler(listingUsecase, logger)

	router, err := httptransport.NewRouter(logger, routerCfg, sessions, authHandler, cityHandler, listingHandler)
	if err != nil {
		stop()
		log.Fatalf("router: %v", err)
	}

	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
