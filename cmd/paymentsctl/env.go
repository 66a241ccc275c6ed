package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/payments-tracker/internal/bootstrap"
	"github.com/Dan9191/payments-tracker/internal/config"
	"github.com/Dan9191/payments-tracker/internal/repository"
	"github.com/Dan9191/payments-tracker/internal/service"
)

// env is what every command needs: config, logger, an open store and the service
type env struct {
	cfg   *config.Config
	log   *logrus.Logger
	store repository.Store
	svc   *service.Service
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := bootstrap.NewLogger(cfg.LogLevel)

	store, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	svc, err := bootstrap.NewService(ctx, cfg, store, log)
	if err != nil {
		_ = store.Close(ctx)
		return nil, err
	}
	return &env{cfg: cfg, log: log, store: store, svc: svc}, nil
}

func (e *env) close(ctx context.Context) {
	if err := e.store.Close(ctx); err != nil {
		e.log.Errorf("Failed to close store: %v", err)
	}
}
