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

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/Dan9191/payments-tracker/internal/bootstrap"
	"github.com/Dan9191/payments-tracker/internal/config"
	"github.com/Dan9191/payments-tracker/internal/handler"
	"github.com/Dan9191/payments-tracker/internal/middleware"
	"github.com/Dan9191/payments-tracker/internal/scheduler"
)

func main() {
	// Load configuration
	cfg, err := config.NewConfig()
	logger := bootstrap.NewLogger(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize store
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	store, err := bootstrap.OpenStore(connectCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatalf("Failed to open store: %v", err)
	}

	// Initialize layers
	svc, err := bootstrap.NewService(ctx, cfg, store, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize service: %v", err)
	}
	h := handler.NewHandler(svc, store, logger, cfg.MaxUploadBytes)

	sched, err := scheduler.New(cfg.SweepSchedule, svc, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize scheduler: %v", err)
	}
	sched.Start()

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	h.Register(r)

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", middleware.RequestIDHeader}),
		handlers.ExposedHeaders([]string{"Content-Disposition", middleware.RequestIDHeader}),
		handlers.AllowCredentials(),
	)
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(logger), handlers.PrintRecoveryStack(true))

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      recovery(cors(r)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	sched.Stop(shutdownCtx)
	if err := store.Close(shutdownCtx); err != nil {
		logger.Errorf("Failed to close store: %v", err)
	}
}
