package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/amuvet/internal/config"
	"github.com/mamadbah2/amuvet/internal/repository/mongodb"
	"github.com/mamadbah2/amuvet/internal/repository/sheets"
	"github.com/mamadbah2/amuvet/internal/scheduler"
	"github.com/mamadbah2/amuvet/internal/server/handlers"
	"github.com/mamadbah2/amuvet/internal/server/router"
	cascadesvc "github.com/mamadbah2/amuvet/internal/service/cascade"
	decisionsvc "github.com/mamadbah2/amuvet/internal/service/decision"
	reportingsvc "github.com/mamadbah2/amuvet/internal/service/reporting"
	treatmentsvc "github.com/mamadbah2/amuvet/internal/service/treatments"
	"github.com/mamadbah2/amuvet/internal/session"
	"github.com/mamadbah2/amuvet/pkg/clients/amu"
	"github.com/mamadbah2/amuvet/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(os.Getenv("LOG_LEVEL")))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	sessions := session.NewManager(baseLogger.Named("session"))

	apiClient := amu.NewClient(cfg.AMUAPI.BaseURL, cfg.AMUAPI.Timeout,
		amu.WithTokenSource(sessions),
		amu.WithExpiryHandler(sessions.Clear))

	var audit decisionsvc.AuditSink
	var auditRepo mongodb.Repository
	if cfg.AuditEnabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		audit = mongoRepo
		auditRepo = mongoRepo
		baseLogger.Info("decision audit trail enabled")
	} else {
		baseLogger.Warn("mongodb uri missing, decision audit trail disabled")
	}

	var sheetsRepo sheets.Repository
	if cfg.SheetsEnabled() {
		sheetsRepo, err = sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		baseLogger.Info("weekly report export enabled")
	} else {
		baseLogger.Warn("sheets credentials missing, weekly report export disabled")
	}

	store := treatmentsvc.NewStore(apiClient, sessions, baseLogger.Named("svc.treatments"))
	resolver := cascadesvc.NewResolver(apiClient, sessions, baseLogger.Named("svc.cascade"))
	workflow := decisionsvc.NewWorkflow(store, apiClient, sessions, audit, baseLogger.Named("svc.decision"))
	reportingSvc := reportingsvc.NewService(store, sheetsRepo, baseLogger.Named("svc.reporting"))

	authHandler := handlers.NewAuthHandler(apiClient, sessions, baseLogger.Named("handlers.auth"))
	cascadeHandler := handlers.NewCascadeHandler(resolver, baseLogger.Named("handlers.cascade"))
	treatmentHandler := handlers.NewTreatmentHandler(store, workflow, resolver, baseLogger.Named("handlers.treatments"))
	auditHandler := handlers.NewAuditHandler(auditRepo, baseLogger.Named("handlers.audit"))
	engine := router.New(authHandler, cascadeHandler, treatmentHandler, auditHandler, sessions, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Polling, store, reportingSvc, sessions, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
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
