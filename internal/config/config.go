package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Evidence backends
const (
	EvidenceInStore = "store"
	EvidenceS3      = "s3"
)

// Config holds application configuration
type Config struct {
	Port     string
	LogLevel string

	StoreDriver  string
	DBConn       string
	AutoMigrate  bool
	MongoURL     string
	DatabaseName string

	EvidenceBackend  string
	S3EvidenceBucket string
	AWSRegion        string
	MaxUploadBytes   int64

	CORSOrigins   []string
	SweepSchedule string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
}

// NewConfig loads configuration from a .env file, if present, and environment variables
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	maxUpload, err := strconv.ParseInt(getEnv("MAX_UPLOAD_BYTES", "10485760"), 10, 64)
	if err != nil || maxUpload <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be a positive integer")
	}
	autoMigrate, err := strconv.ParseBool(getEnv("AUTO_MIGRATE", "true"))
	if err != nil {
		return nil, fmt.Errorf("AUTO_MIGRATE must be a boolean: %w", err)
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		StoreDriver:      strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DBConn:           getEnv("DB_CONN", "host=localhost port=5432 user=test password=test dbname=payments sslmode=disable"),
		AutoMigrate:      autoMigrate,
		MongoURL:         getEnv("MONGODB_URL", "mongodb://localhost:27017"),
		DatabaseName:     getEnv("DATABASE_NAME", "payments"),
		EvidenceBackend:  strings.ToLower(getEnv("EVIDENCE_BACKEND", EvidenceInStore)),
		S3EvidenceBucket: getEnv("S3_EVIDENCE_BUCKET", ""),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		MaxUploadBytes:   maxUpload,
		CORSOrigins:      splitList(getEnv("CORS_ORIGINS", "http://localhost:4200")),
		SweepSchedule:    getEnv("SWEEP_SCHEDULE", "@daily"),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getEnv("SMTP_PORT", "587"),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SenderEmail:      getEnv("SENDER_EMAIL", "payments@localhost"),
	}

	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DBConn == "" {
			return nil, fmt.Errorf("DB_CONN is required")
		}
	case DriverMongo:
		if cfg.MongoURL == "" {
			return nil, fmt.Errorf("MONGODB_URL is required")
		}
		if cfg.DatabaseName == "" {
			return nil, fmt.Errorf("DATABASE_NAME is required")
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	switch cfg.EvidenceBackend {
	case EvidenceInStore:
	case EvidenceS3:
		if cfg.S3EvidenceBucket == "" {
			return nil, fmt.Errorf("S3_EVIDENCE_BUCKET is required")
		}
	default:
		return nil, fmt.Errorf("unknown EVIDENCE_BACKEND %q", cfg.EvidenceBackend)
	}

	return cfg, nil
}

// EmailEnabled reports whether payment reminders can be delivered
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
