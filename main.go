package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	config "github.com/GalaDe/finance-link-service/internal/config"
	"github.com/GalaDe/finance-link-service/internal/domain"
	handler "github.com/GalaDe/finance-link-service/internal/handlers"
	"github.com/GalaDe/finance-link-service/internal/log"
	"github.com/GalaDe/finance-link-service/internal/metrics"
	"github.com/GalaDe/finance-link-service/internal/services/banks"
	"github.com/GalaDe/finance-link-service/internal/services/customers"
	dwolla "github.com/GalaDe/finance-link-service/internal/services/dwolla"
	"github.com/GalaDe/finance-link-service/internal/services/linking"
	plaid "github.com/GalaDe/finance-link-service/internal/services/plaid"
	"github.com/GalaDe/finance-link-service/internal/services/temporal"
	"github.com/GalaDe/finance-link-service/internal/services/temporal/activity"
	"github.com/GalaDe/finance-link-service/internal/services/temporal/workflow"
	"github.com/GalaDe/finance-link-service/internal/services/transfer"
	repository "github.com/GalaDe/finance-link-service/internal/storage/postgres"
)

const appName = "finance-link-service"

func main() {

	// Load configuration (env, optionally .env)
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	lg := log.New(appName, cfg.LogLevel)
	defer lg.Sync() // flush logs before exiting
	logger := lg.Logger()

	if missing := cfg.Missing(); len(missing) > 0 {
		logger.Warn("running with missing configuration", zap.Strings("missing", missing))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Backing store; without DATABASE_URL reads degrade to empty results
	var (
		repo       domain.Repository
		transactor domain.Transactor
		store      handler.Pinger
	)
	if cfg.HasDatabase() {
		db, err := repository.NewPostgresDB(ctx, &repository.PostgresSecret{DBConnString: cfg.DatabaseURL}, logger)
		if err != nil {
			logger.Fatal("failed to connect to DB", zap.Error(err))
		}
		defer db.Close()
		store = db

		if err := db.Migrate(ctx); err != nil {
			logger.Fatal("failed to migrate DB", zap.Error(err))
		}
		pgTransactor := repository.NewPostgresTransactor(db)
		transactor = pgTransactor
		repo = repository.NewPostgresRepo(pgTransactor)
	} else {
		repo = repository.NewUnconfiguredRepo(logger)
		transactor = repository.NoopTransactor{}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// External clients
	plaidSvc := plaid.New(&plaid.PlaidOpts{
		ClientID:     cfg.PlaidClientID,
		ClientSecret: cfg.PlaidSecret,
		Environment:  cfg.PlaidEnv,
	}, logger)
	dwollaSvc := dwolla.New(&dwolla.DwollaOpts{
		Key:         cfg.DwollaKey,
		Secret:      cfg.DwollaSecret,
		Environment: cfg.DwollaEnv,
	}, logger)

	// Services
	bankSvc, err := banks.New(repo, cfg.BankCacheSize, logger)
	if err != nil {
		logger.Fatal("failed to build bank service", zap.Error(err))
	}
	linkSvc := linking.New(plaidSvc, dwollaSvc, repo, bankSvc, []byte(cfg.ShareableIDKey), m, logger)
	transferSvc := transfer.New(dwollaSvc, repo, m, logger)
	customerSvc := customers.New(dwollaSvc, repo, transactor, m, logger)

	var (
		linker      handler.Linker      = linkSvc
		transferrer handler.Transferrer = transferSvc
	)

	if cfg.TemporalEnabled {
		temporalClient, err := client.Dial(client.Options{
			HostPort: cfg.TemporalHostPort,
			Logger:   temporal.NewZapAdapter(logger),
		})
		if err != nil {
			logger.Fatal("unable to create Temporal client", zap.Error(err))
		}
		defer temporalClient.Close()

		w := workflow.NewWorker(temporalClient)
		workflow.RegisterWorkflows(w)
		activity.NewTemporalActivityPort(linkSvc, transferSvc).RegisterActivities(w)
		if err := w.Start(); err != nil {
			logger.Fatal("unable to start Temporal worker", zap.Error(err))
		}
		defer w.Stop()

		dispatcher := temporal.NewDispatcher(temporalClient, logger)
		linker, transferrer = dispatcher, dispatcher
	}

	httpHandler := handler.NewHttpServer(logger, handler.Services{
		Linker:        linker,
		LinkTokens:    linkSvc,
		Transfers:     transferrer,
		Customers:     customerSvc,
		Banks:         bankSvc,
		Webhooks:      plaidSvc,
		Store:         store,
		ClientName:    cfg.PlaidClientName,
		Metrics:       m.Handler(),
		MissingConfig: cfg.Missing(),
	})

	r := handler.RegisterRoutes(httpHandler)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{"*"}, // Change for production
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsMiddleware.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("port", cfg.Port), zap.Bool("temporal", cfg.TemporalEnabled))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}
}
