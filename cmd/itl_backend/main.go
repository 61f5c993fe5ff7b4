package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	adapterevents "github.com/InstiTrack/institute_ledger/internal/adapters/events"
	"github.com/InstiTrack/institute_ledger/internal/adapters/events/rabbitmq"
	"github.com/InstiTrack/institute_ledger/internal/core/services"
	"github.com/InstiTrack/institute_ledger/internal/handlers"
	"github.com/InstiTrack/institute_ledger/internal/middleware"
	"github.com/InstiTrack/institute_ledger/internal/repositories/database/pgsql"
	"github.com/InstiTrack/institute_ledger/internal/workers"
	"github.com/InstiTrack/institute_ledger/pkg/config"
	"github.com/InstiTrack/institute_ledger/pkg/database"
	portssvc "github.com/InstiTrack/institute_ledger/internal/core/ports/services"
	"github.com/gin-gonic/gin"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// @title Institute Ledger API
// @version 1.0
// @description Event-driven double-entry ledger for the training institute back office.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Outbound events go to RabbitMQ when a broker is configured,
	// otherwise to the log.
	var publisher portssvc.EventPublisher
	if cfg.AMQPURL != "" {
		publisher, err = rabbitmq.NewPublisher(cfg.AMQPURL)
		if err != nil {
			logger.Error("Failed to connect to rabbitmq", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("RabbitMQ publisher connected.")
	} else {
		publisher = adapterevents.NewSlogPublisher(logger)
		logger.Info("No AMQP_URL configured; outbound events are logged only.")
	}
	defer publisher.Close()

	repos := pgsql.NewRepositoryProvider(dbPool, pgsql.SequenceScope(cfg.SequenceScope))
	container := services.NewServiceContainer(cfg, repos, publisher)

	// Background reconciliation of failed or stale event dispatches
	reconcilerCtx, stopReconciler := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopReconciler()
	reconciler := workers.NewReconciler(
		repos.EventLogRepo,
		container.Dispatcher,
		logger.With(slog.String("component", "reconciler")),
		cfg.ReconcileInterval,
		cfg.ReconcileStaleAfter,
		cfg.ReconcileBatchSize,
		cfg.ReconcileWorkers,
	)
	go reconciler.Start(reconcilerCtx)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, container)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies all pending "up" migrations using a temporary
// database/sql connection compatible with the main pgx pool.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}
	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
