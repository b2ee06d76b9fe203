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

	"github.com/mamadbah2/assetdesk/internal/config"
	"github.com/mamadbah2/assetdesk/internal/repository/mongodb"
	"github.com/mamadbah2/assetdesk/internal/repository/postgres"
	"github.com/mamadbah2/assetdesk/internal/repository/postgrest"
	"github.com/mamadbah2/assetdesk/internal/repository/sheets"
	"github.com/mamadbah2/assetdesk/internal/scheduler"
	"github.com/mamadbah2/assetdesk/internal/server/handlers"
	"github.com/mamadbah2/assetdesk/internal/server/middleware"
	"github.com/mamadbah2/assetdesk/internal/server/router"
	assetsvc "github.com/mamadbah2/assetdesk/internal/service/assets"
	authsvc "github.com/mamadbah2/assetdesk/internal/service/auth"
	reportingsvc "github.com/mamadbah2/assetdesk/internal/service/reporting"
	"github.com/mamadbah2/assetdesk/internal/view"
	"github.com/mamadbah2/assetdesk/pkg/clients/supabase"
	"github.com/mamadbah2/assetdesk/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	supabaseClient := supabase.NewClient(cfg.Supabase)

	// The asset store and, when the sheet sync is on, a store that can read
	// every asset without a user session.
	var (
		store     assetsvc.Store
		syncStore assetsvc.AssetStore
		pinger    handlers.Pinger
	)
	switch cfg.Database.Backend {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			baseLogger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				baseLogger.Error("failed to close postgres connection", zap.Error(err))
			}
		}()
		// User routes run under the caller's claims; only the sync job bypasses RLS.
		store = postgres.NewRepository(db, baseLogger.Named("repo.postgres"))
		syncStore = postgres.NewServiceRepository(db, baseLogger.Named("repo.postgres.service"))
		pinger = db
	default:
		store = postgrest.NewRepository(supabaseClient, baseLogger.Named("repo.postgrest"))
		if cfg.SheetsEnabled() {
			serviceClient, err := supabase.NewServiceClient(cfg.Supabase)
			if err != nil {
				baseLogger.Warn("inventory sync disabled", zap.Error(err))
			} else {
				syncStore = postgrest.NewRepository(serviceClient, baseLogger.Named("repo.postgrest.service"))
			}
		}
	}
	baseLogger.Info("asset store ready", zap.String("backend", cfg.Database.Backend))

	var (
		journal        assetsvc.Journal
		changesHandler *handlers.ChangesHandler
	)
	if cfg.JournalEnabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		journal = mongoRepo
		changesHandler = handlers.NewChangesHandler(mongoRepo, baseLogger.Named("handlers.changes"))
		baseLogger.Info("change journal enabled", zap.String("db", cfg.MongoDB.DBName))
	} else {
		baseLogger.Warn("mongodb uri missing, change journal disabled")
	}

	if cfg.SheetsEnabled() && syncStore != nil {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		reportingSvc := reportingsvc.NewService(syncStore, sheetsRepo, baseLogger.Named("svc.reporting"))

		sched, err := scheduler.NewScheduler(cfg.Inventory, reportingSvc, baseLogger.Named("scheduler"))
		if err != nil {
			baseLogger.Fatal("failed to init scheduler", zap.Error(err))
		}
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	templates, err := view.Templates()
	if err != nil {
		baseLogger.Fatal("failed to parse templates", zap.Error(err))
	}

	authService := authsvc.NewService(supabaseClient, baseLogger.Named("svc.auth"))
	assetService := assetsvc.NewService(store, journal, cfg.Cache.ListTTL, baseLogger.Named("svc.assets"))
	cookies := middleware.NewCookies(cfg.Server.CookieSecure)

	engine := router.New(router.Dependencies{
		Templates: templates,
		Auth:      handlers.NewAuthHandler(authService, cookies, baseLogger.Named("handlers.auth")),
		Assets:    handlers.NewAssetsHandler(assetService, baseLogger.Named("handlers.assets")),
		Changes:   changesHandler,
		Sessions:  authService,
		Cookies:   cookies,
		Health:    handlers.Health(pinger),
	}, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

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
