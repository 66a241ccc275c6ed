// Package bootstrap builds the logger, stores and service shared by the API server and the CLI.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/payments-tracker/internal/config"
	"github.com/Dan9191/payments-tracker/internal/repository"
	"github.com/Dan9191/payments-tracker/internal/service"
	"github.com/Dan9191/payments-tracker/internal/utils/email"
)

// NewLogger returns a JSON logger at the given level, falling back to info
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	return logger
}

// OpenStore connects to the store selected by STORE_DRIVER
func OpenStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if cfg.AutoMigrate {
			if err := repository.Migrate(cfg.DBConn, logger); err != nil {
				return nil, err
			}
		}
		db, err := sql.Open("postgres", cfg.DBConn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		logger.Info("Connected to PostgreSQL")
		return repository.NewPostgresRepository(db), nil

	case config.DriverMongo:
		repo, err := repository.NewMongoRepository(ctx, cfg.MongoURL, cfg.DatabaseName)
		if err != nil {
			return nil, err
		}
		if err := repo.Ping(ctx); err != nil {
			_ = repo.Close(ctx)
			return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
		}
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Warnf("Continuing without indexes: %v", err)
		}
		logger.WithField("database", cfg.DatabaseName).Info("Connected to MongoDB")
		return repo, nil

	case config.DriverMemory:
		logger.Warn("Using in-memory store; data is lost on exit")
		return repository.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// EvidenceStore returns the backend for evidence artifacts
func EvidenceStore(ctx context.Context, cfg *config.Config, store repository.Store) (repository.EvidenceStore, error) {
	if cfg.EvidenceBackend != config.EvidenceS3 {
		return store, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return repository.NewS3EvidenceStore(s3.NewFromConfig(awsCfg), cfg.S3EvidenceBucket), nil
}

// NewService wires the service with its stores and, when SMTP is configured, email reminders
func NewService(ctx context.Context, cfg *config.Config, store repository.Store, logger *logrus.Logger) (*service.Service, error) {
	evidence, err := EvidenceStore(ctx, cfg, store)
	if err != nil {
		return nil, err
	}
	var opts []service.Option
	if cfg.EmailEnabled() {
		opts = append(opts, service.WithNotifier(email.NewSender(cfg, logger)))
	}
	return service.NewService(store, evidence, logger, opts...), nil
}
