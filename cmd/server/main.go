package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/barberia/internal/config"
	"github.com/mamadbah2/barberia/internal/domain/models"
	"github.com/mamadbah2/barberia/internal/metrics"
	"github.com/mamadbah2/barberia/internal/repository/mongodb"
	"github.com/mamadbah2/barberia/internal/repository/scheduling"
	"github.com/mamadbah2/barberia/internal/repository/sheets"
	"github.com/mamadbah2/barberia/internal/scheduler"
	"github.com/mamadbah2/barberia/internal/server/handlers"
	"github.com/mamadbah2/barberia/internal/server/router"
	bookingsvc "github.com/mamadbah2/barberia/internal/service/booking"
	calendarsvc "github.com/mamadbah2/barberia/internal/service/calendar"
	"github.com/mamadbah2/barberia/internal/service/conversation"
	reportingsvc "github.com/mamadbah2/barberia/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/barberia/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/barberia/pkg/clients/whatsapp"
	"github.com/mamadbah2/barberia/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)
	metrics.Register()

	loc := cfg.Location()
	catalog := models.DefaultCatalog(cfg.Shop.Name)

	backend := newBackend(cfg, catalog, loc, baseLogger)

	var journal mongodb.Journal = mongodb.NopJournal{}
	if cfg.MongoDB.JournalEnabled() {
		connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mongoRepo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		cancel()
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		journal = mongoRepo
		baseLogger.Info("booking journal enabled", zap.String("db", cfg.MongoDB.DBName))
	} else {
		baseLogger.Warn("MONGODB_URI missing, booking journal disabled")
	}

	calendar := calendarsvc.New(backend, catalog.Schedule, loc, cfg.Scheduling.Timeout, logger.Named(baseLogger, "svc.calendar"))
	committer := bookingsvc.NewCommitter(backend, journal, cfg.Scheduling.Timeout, logger.Named(baseLogger, "svc.booking"))

	whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
	sender := whatsappsvc.NewSender(whatsClient, logger.Named(baseLogger, "svc.sender"))
	conv := conversation.NewEngine(catalog, calendar, committer, sender, cfg.Session.InactivityTimeout, logger.Named(baseLogger, "svc.conversation"))
	defer conv.Close()

	messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, sender, conv, logger.Named(baseLogger, "svc.whatsapp"))
	webhookHandler := handlers.NewWebhookHandler(messagingSvc, logger.Named(baseLogger, "handlers.whatsapp"))
	engine := router.New(webhookHandler, logger.Named(baseLogger, "router"))

	if cfg.Digest.Enabled() && cfg.MongoDB.JournalEnabled() {
		reportingSvc := reportingsvc.NewService(journal, loc, logger.Named(baseLogger, "svc.reporting"))
		sched := scheduler.NewScheduler(cfg.Digest, loc, reportingSvc, messagingSvc, logger.Named(baseLogger, "scheduler"))
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	} else if cfg.Digest.Enabled() {
		baseLogger.Warn("daily digest needs the booking journal, skipping")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("scheduling_backend", cfg.Scheduling.Backend),
			zap.String("timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newBackend(cfg *config.Config, catalog models.Catalog, loc *time.Location, baseLogger *zap.Logger) scheduling.Backend {
	if cfg.Scheduling.Backend == config.BackendSheets {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		return scheduling.NewSheetsBackend(sheetsRepo, catalog.Staff, loc, logger.Named(baseLogger, "repo.scheduling"))
	}
	return scheduling.NewHTTPBackend(cfg.Scheduling, logger.Named(baseLogger, "repo.scheduling"))
}
