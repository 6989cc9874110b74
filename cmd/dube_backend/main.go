package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	portsrepo "github.com/DubeTracker/dube_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/DubeTracker/dube_ledger_app/internal/core/ports/services"
	"github.com/DubeTracker/dube_ledger_app/internal/core/services"
	"github.com/DubeTracker/dube_ledger_app/internal/handlers"
	"github.com/DubeTracker/dube_ledger_app/internal/middleware"
	"github.com/DubeTracker/dube_ledger_app/internal/platform/config"
	"github.com/DubeTracker/dube_ledger_app/internal/platform/email"
	"github.com/DubeTracker/dube_ledger_app/internal/repositories/database/pgsql"
	"github.com/DubeTracker/dube_ledger_app/internal/repositories/database/sqlite"
	"github.com/DubeTracker/dube_ledger_app/pkg/database"
	"github.com/DubeTracker/dube_ledger_app/pkg/logging"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// @title Dube Ledger API
// @version 1.0
// @description Credit ledger tracking for small shops: customers, credits and payments.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.Setup(cfg.IsProduction)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	serviceContainer := services.NewServiceContainer(cfg, repos)

	startReminders(ctx, cfg, serviceContainer.Reporting, logger)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
	logger.Info("Server stopped")
}

// openStore opens the configured ledger store and returns its repository
// provider together with a close function.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.DBDriver == "sqlite" {
		store, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return portsrepo.RepositoryProvider{}, nil, err
		}
		logger.Info("SQLite store opened", slog.String("path", cfg.SQLitePath))
		return store.NewRepositoryProvider(), func() {
			if cerr := store.Close(); cerr != nil {
				logger.Error("Error closing SQLite store", slog.String("error", cerr.Error()))
			}
		}, nil
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}
	logger.Info("Database connection pool established")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		dbPool.Close()
		return portsrepo.RepositoryProvider{}, nil, err
	}

	return pgsql.NewRepositoryProvider(dbPool), dbPool.Close, nil
}

// runMigrations applies pending "up" migrations from the migrations directory.
// It opens its own database/sql connection via the pgx stdlib driver so the
// main pool stays untouched.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply")
	} else {
		logger.Info("Database migrations applied")
	}
	return nil
}

// startReminders wires the overdue-credit reminder sweep. Without SMTP
// settings the reminders fall back to log output.
func startReminders(ctx context.Context, cfg *config.Config, reporting portssvc.ReportingSvcFacade, logger *slog.Logger) {
	var notifier portssvc.Notifier
	if cfg.SMTPHost != "" {
		notifier = email.NewMailer(cfg)
		logger.Info("Overdue reminders will be sent via SMTP", slog.String("host", cfg.SMTPHost))
	} else {
		notifier = &email.LogNotifier{Logger: logger}
		logger.Info("SMTP not configured, overdue reminders will only be logged")
	}

	reminder := services.NewReminderService(reporting, notifier, cfg.ReminderInterval, cfg.ReminderOverdueAge, logger)
	reminder.Start(ctx)
}
