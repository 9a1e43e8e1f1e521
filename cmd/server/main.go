// Command server runs the Tour Flow API together with the invitation
// consumer and the maintenance scheduler.
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

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tourflow/tourflow/internal/assistant"
	"github.com/tourflow/tourflow/internal/config"
	"github.com/tourflow/tourflow/internal/database"
	"github.com/tourflow/tourflow/internal/handler"
	"github.com/tourflow/tourflow/internal/jobs"
	"github.com/tourflow/tourflow/internal/logging"
	"github.com/tourflow/tourflow/internal/metrics"
	"github.com/tourflow/tourflow/internal/middleware"
	"github.com/tourflow/tourflow/internal/queue"
	"github.com/tourflow/tourflow/internal/repository"
	"github.com/tourflow/tourflow/internal/router"
	"github.com/tourflow/tourflow/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(db, cfg.DBName, log); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// Redis is optional: without it caching and rate limiting are off and the
	// assistant transcript lives in process memory.
	asstCfg := config.LoadAssistantConfig()
	rdb, err := config.NewRedisClient(config.LoadRedisConfig())
	var transcript assistant.Transcript
	if err != nil {
		log.Warn("redis unavailable, running without cache and rate limit", zap.Error(err))
		rdb = nil
		transcript = assistant.NewMemoryTranscript(asstCfg.HistoryLimit * 5)
	} else {
		defer rdb.Close()
		transcript = repository.NewChatRepo(rdb, asstCfg.TranscriptTTL, asstCfg.HistoryLimit*5)
	}

	var (
		users   = repository.NewUserRepo(db)
		tokens  = repository.NewTokenRepo(db)
		tours   = repository.NewTourRepo(db)
		shows   = repository.NewShowRepo(db)
		members = repository.NewMemberRepo(db)
		gear    = repository.NewGearRepo(db)
		inputs  = repository.NewInputListRepo(db)
		crews   = repository.NewCrewRepo(db)
		docs    = repository.NewDocumentRepo(db)
		tasks   = repository.NewTaskRepo(db)
	)

	var publisher service.InvitationPublisher = service.NopPublisher{}
	if cfg.QueueEnabled {
		publisher = service.NewAMQPPublisher(cfg.AMQPURL, log)
	}

	runner, err := jobs.New(config.LoadJobsConfig(), tours, members, tokens, log)
	if err != nil {
		return err
	}

	llm := assistant.NewClient(asstCfg, log)
	h := router.Handlers{
		Health:    handler.Health{DB: db, Redis: rdb},
		Auth:      handler.NewAuthHandler(cfg, users, tokens, log),
		Tours:     handler.NewTourHandler(tours, shows, log),
		Members:   handler.NewMemberHandler(tours, members, users, publisher, time.Duration(cfg.InviteTTLHours)*time.Hour, log),
		Gear:      handler.NewGearHandler(gear, inputs, tours, log),
		Crews:     handler.NewCrewHandler(crews, docs, log),
		Documents: handler.NewDocumentHandler(docs, gear, inputs, tours, log),
		Tasks:     handler.NewTaskHandler(tasks, tours, shows, log),
		Assistant: handler.NewAssistantHandler(assistant.New(llm, transcript, asstCfg.HistoryLimit, log), tours, log),
		Admin:     &handler.AdminHandler{Jobs: runner},
	}
	opt := router.Options{
		JWTSecret: cfg.JWTSecret,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(metrics.Middleware())
	router.RegisterRoutes(e, h)
	router.RegisterAuth(e, h.Auth, opt)
	router.RegisterAPI(e, h, opt)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return runner.Start(gctx) })
	if cfg.QueueEnabled {
		consumer := queue.NewConsumer(cfg.AMQPURL, cfg.OutboxDir, log)
		g.Go(func() error {
			if err := consumer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	err = g.Wait()
	log.Info("server stopped")
	return err
}
