package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/pulseo/internal/config"
	"github.com/Skotchmaster/pulseo/internal/db"
	"github.com/Skotchmaster/pulseo/internal/events"
	"github.com/Skotchmaster/pulseo/internal/hash"
	"github.com/Skotchmaster/pulseo/internal/httpserver"
	"github.com/Skotchmaster/pulseo/internal/logging"
	"github.com/Skotchmaster/pulseo/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/pulseo/internal/middleware/logging"
	"github.com/Skotchmaster/pulseo/internal/middleware/ratelimit"
	"github.com/Skotchmaster/pulseo/internal/repo"
	"github.com/Skotchmaster/pulseo/internal/search"
	"github.com/Skotchmaster/pulseo/internal/service"
	"github.com/Skotchmaster/pulseo/internal/tokens"
	"github.com/Skotchmaster/pulseo/internal/transport"
	"github.com/Skotchmaster/pulseo/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName, "env", cfg.AppEnv)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		logger.Error("db_init_failed", "error", err)
		os.Exit(1)
	}

	publisher := events.New(cfg.KafkaBrokers)
	index := openIndex(cfg, logger)

	gormRepo := repo.New(gdb)
	issuer := tokens.NewIssuer(cfg.JWTSecret)

	taskSvc := &service.TaskService{Repo: gormRepo, Events: publisher}
	columnSvc := &service.ColumnService{Repo: gormRepo}
	sweeper := &worker.Sweeper{
		Store:    gormRepo,
		Grace:    cfg.SoftDeleteGrace,
		Interval: cfg.SweepInterval,
		Log:      logger,
	}
	if index != nil {
		taskSvc.Index = index
		columnSvc.Index = index
		sweeper.Index = index
	}

	limiter := ratelimit.New(cfg.AuthRateLimit, cfg.AuthRateBurst)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		loggingmw.RequestLogger(logger),
		middleware.Secure(),
		middleware.BodyLimit("1M"),
	)

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{
			Svc: &service.AuthService{
				Users:    gormRepo,
				Sessions: gormRepo,
				Hasher:   hash.New(cfg.HashConcurrency, hash.DefaultParams),
				Tokens:   issuer,
				Events:   publisher,
			},
			Cookies: transport.Cookies{
				Secure:     cfg.IsProduction(),
				AccessTTL:  issuer.AccessTTL,
				RefreshTTL: issuer.RefreshTTL,
			},
		},
		TaskHandler:   &httpserver.TaskHTTP{Svc: taskSvc},
		ColumnHandler: &httpserver.ColumnHTTP{Svc: columnSvc},
		Auth:          auth.NewSimpleAuth(issuer),
		RateLimit:     limiter,
		Ready: func() error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return sqlDB.PingContext(ctx)
		},
	})

	bgCtx, stopBackground := context.WithCancel(context.Background())
	go sweeper.Run(bgCtx)
	go limiter.Run(bgCtx, time.Minute)

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	go func() {
		logger.Info("http_server_started", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	go func() {
		<-quit
		logger.Warn("force_exit")
		os.Exit(1)
	}()

	logger.Info("shutting_down")
	stopBackground()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("publisher_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}

// openIndex connects to Elasticsearch when ES_URL is set. Search falls back to
// the database when it is not configured or unreachable.
func openIndex(cfg config.Config, logger *slog.Logger) search.Index {
	if cfg.ESURL == "" {
		logger.Info("search_index_disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	es, err := search.NewClient(ctx, search.Config{
		URL:      cfg.ESURL,
		Username: cfg.ESUser,
		Password: cfg.ESPassword,
		Index:    cfg.ESIndex,
	})
	if err != nil {
		logger.Warn("search_index_unavailable", "error", err)
		return nil
	}

	idx := search.NewESIndex(es, cfg.ESIndex)
	if err := idx.EnsureIndex(ctx); err != nil {
		logger.Warn("search_index_unavailable", "error", err)
		return nil
	}
	return idx
}
