// Package server initializes and runs the Parley server: it opens the
// database, applies migrations, wires repositories, services, the realtime
// hub and the HTTP surface, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/parley/internal/logging"
	"github.com/dmitrijs2005/parley/internal/server/config"
	"github.com/dmitrijs2005/parley/internal/server/httpapi"
	"github.com/dmitrijs2005/parley/internal/server/realtime"
	"github.com/dmitrijs2005/parley/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/parley/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {

	logger := logging.NewJSON(os.Stdout, slog.LevelInfo)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	hub := realtime.NewHub(logger)

	userService := services.NewUserService(db, rm, cfg)
	profileService := services.NewProfileService(db, rm, hub, cfg)
	conversationService := services.NewConversationService(db, rm)
	messageService := services.NewMessageService(db, rm, hub, profileService)
	storageService := services.NewStorageService(db, rm, cfg)
	callService := services.NewCallService(db, rm, hub, messageService, logger, cfg)

	srv := httpapi.NewServer(logger, cfg,
		userService, profileService, conversationService,
		messageService, storageService, callService, hub)

	return &App{config: cfg, logger: logger, db: db, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	httpServer := &http.Server{
		Addr:              app.config.EndpointAddr,
		Handler:           app.server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "Starting HTTP server", "address", app.config.EndpointAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		<-errCh
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			app.logger.Error(ctx, err.Error())
		}
	}

	_ = app.db.Close()
}
