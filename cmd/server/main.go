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
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/mamadbah2/logidash/internal/config"
	"github.com/mamadbah2/logidash/internal/notify"
	"github.com/mamadbah2/logidash/internal/realtime"
	"github.com/mamadbah2/logidash/internal/repository"
	"github.com/mamadbah2/logidash/internal/repository/memory"
	"github.com/mamadbah2/logidash/internal/repository/mongodb"
	"github.com/mamadbah2/logidash/internal/repository/postgres"
	"github.com/mamadbah2/logidash/internal/repository/sheets"
	"github.com/mamadbah2/logidash/internal/scheduler"
	"github.com/mamadbah2/logidash/internal/server/handlers"
	"github.com/mamadbah2/logidash/internal/server/router"
	"github.com/mamadbah2/logidash/internal/service/activity"
	dashboardsvc "github.com/mamadbah2/logidash/internal/service/dashboard"
	"github.com/mamadbah2/logidash/internal/service/forms"
	"github.com/mamadbah2/logidash/internal/service/records"
	reportingsvc "github.com/mamadbah2/logidash/internal/service/reporting"
	"github.com/mamadbah2/logidash/internal/service/view"
	"github.com/mamadbah2/logidash/pkg/clients/webhook"
	"github.com/mamadbah2/logidash/pkg/events"
	"github.com/mamadbah2/logidash/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(logger.Options{Level: cfg.Log.Level, Development: cfg.Log.Development}))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close store", zap.Error(err))
		}
	}()

	hub := realtime.NewHub(baseLogger.Named("realtime"))
	defer func() { _ = hub.Close() }()

	broker, err := openPublisher(cfg.Events, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init event publisher", zap.String("driver", cfg.Events.Driver), zap.Error(err))
	}
	publisher := events.Fanout{hub, broker}
	defer func() {
		if err := broker.Close(); err != nil {
			baseLogger.Error("failed to close event publisher", zap.Error(err))
		}
	}()

	opts := records.Options{
		Notifier:        notify.Multi{notify.NewLogNotifier(baseLogger.Named("notify")), hub},
		Publisher:       publisher,
		Logger:          baseLogger,
		StrictLifecycle: cfg.Records.StrictLifecycle,
	}
	shipments := records.NewShipments(store, store, opts)
	customers := records.NewCustomers(store, store, opts)
	customers.OnDelete(func(id string) { shipments.ForgetCustomer(id) })

	feed := activity.NewFeed(store, cfg.Records.ActivityFeedSize, baseLogger)
	feed.OnActivity(hub.PushActivity)
	if err := feed.Start(ctx); err != nil {
		baseLogger.Error("activity feed unavailable", zap.Error(err))
	}
	defer func() { _ = feed.Close() }()

	dashboard := dashboardsvc.NewService(shipments, customers, feed, baseLogger)
	if err := dashboard.Refresh(ctx); err != nil {
		baseLogger.Warn("initial load incomplete", zap.Error(err))
	}

	var reportLog reportingsvc.ReportLog
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		reportLog = sheets.NewReportLog(sheetsRepo)
	}

	var poster webhook.Poster
	if cfg.Webhook.URL != "" {
		poster = webhook.NewClient(webhook.Config{URL: cfg.Webhook.URL, Token: cfg.Webhook.Token, Channel: cfg.Webhook.Channel})
	}

	reportingSvc := reportingsvc.NewService(dashboard, store, reportLog, poster, baseLogger)

	if cfg.Reporting.Enabled {
		sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, baseLogger.Named("scheduler"))
		if err != nil {
			baseLogger.Fatal("failed to init scheduler", zap.Error(err))
		}
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	validator := forms.NewValidator()
	engine := router.New(router.Handlers{
		Shipments: handlers.NewShipmentHandler(shipments, validator, baseLogger.Named("handlers.shipments")),
		Customers: handlers.NewCustomerHandler(customers, validator, baseLogger.Named("handlers.customers")),
		Dashboard: handlers.NewDashboardHandler(dashboard, feed, view.NewShell(), baseLogger.Named("handlers.dashboard")),
		WS:        handlers.NewWSHandler(hub, baseLogger.Named("handlers.ws")),
	}, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreMongoDB:
		return mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, logger.Named("repo.mongodb"))
	case config.StorePostgres:
		return postgres.NewPostgresStore(ctx, cfg.Postgres.DSN, logger.Named("repo.postgres"))
	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func openPublisher(cfg config.EventsConfig, logger *zap.Logger) (events.Publisher, error) {
	switch cfg.Driver {
	case config.EventsKafka:
		return events.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger.Named("events.kafka")), nil
	case config.EventsRabbitMQ:
		return events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitQueue)
	default:
		return events.Nop{}, nil
	}
}
