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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/iliyamo/swing-festival-finder/internal/auth"
	"github.com/iliyamo/swing-festival-finder/internal/config"
	"github.com/iliyamo/swing-festival-finder/internal/database"
	"github.com/iliyamo/swing-festival-finder/internal/handler"
	"github.com/iliyamo/swing-festival-finder/internal/logger"
	"github.com/iliyamo/swing-festival-finder/internal/metrics"
	"github.com/iliyamo/swing-festival-finder/internal/queue"
	"github.com/iliyamo/swing-festival-finder/internal/repository"
	"github.com/iliyamo/swing-festival-finder/internal/router"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.IsProd(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("schema applied")
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable, response cache and rate limit disabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		defer rdb.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var (
		events        = repository.NewEventRepo(db)
		teachers      = repository.NewTeacherRepo(db)
		musicians     = repository.NewMusicianRepo(db)
		users         = repository.NewUserRepo(db)
		tokens        = repository.NewTokenRepo(db)
		follows       = repository.NewFollowRepo(db)
		notifications = repository.NewNotificationRepo(db)
		issuer        = auth.NewIssuer(cfg.JWTSecret, cfg.AccessTTL)
		publisher     = queue.NewPublisher(cfg.RabbitURL, log, m)
	)

	if cfg.ConsumeQueue {
		notifier := queue.NewNotifier(follows, notifications, log, m)
		consumer := queue.NewConsumer(cfg.RabbitURL, log, notifier)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("queue consumer stopped", zap.Error(err))
			}
		}()
	}

	e := router.New(router.Deps{
		Log:            log,
		Metrics:        m,
		Gatherer:       reg,
		Redis:          rdb,
		Cache:          cfg.Cache,
		RateLimit:      cfg.RateLimit,
		RequestTimeout: cfg.RequestTimeout,
		Sessions:       issuer,
		Events: &handler.EventHandler{
			Events:  events,
			Queue:   publisher,
			Metrics: m,
			SiteURL: cfg.SiteURL,
		},
		Teachers:  &handler.PerformerHandler{Performers: teachers, Events: events, Metrics: m, Resource: "teachers"},
		Musicians: &handler.PerformerHandler{Performers: musicians, Events: events, Metrics: m, Resource: "musicians"},
		Search:    &handler.SearchHandler{Events: events, Teachers: teachers, Musicians: musicians},
		Auth: &handler.AuthHandler{
			Users:      users,
			Tokens:     tokens,
			Access:     issuer,
			Queue:      publisher,
			Log:        log,
			BcryptCost: cfg.BcryptCost,
			RefreshTTL: cfg.RefreshTTL,
			VerifyTTL:  cfg.VerifyTTL,
		},
		Follows:       &handler.FollowHandler{Follows: follows},
		Notifications: &handler.NotificationHandler{Notifications: notifications},
	})

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
