package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("CORS_ORIGINS", "http://localhost:4200, https://app.example.com,")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, EvidenceInStore, cfg.EvidenceBackend)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"http://localhost:4200", "https://app.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "@daily", cfg.SweepSchedule)
}

func TestNewConfigEmail(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SMTP_HOST", "")
	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.False(t, cfg.EmailEnabled())

	t.Setenv("SMTP_HOST", "smtp.example.com")
	cfg, err = NewConfig()
	require.NoError(t, err)
	assert.True(t, cfg.EmailEnabled())
}

func TestNewConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"STORE_DRIVER": "sqlite"}},
		{"empty postgres dsn", map[string]string{"STORE_DRIVER": "postgres", "DB_CONN": ""}},
		{"empty mongo database", map[string]string{"STORE_DRIVER": "mongo", "DATABASE_NAME": ""}},
		{"s3 without bucket", map[string]string{"STORE_DRIVER": "memory", "EVIDENCE_BACKEND": "s3", "S3_EVIDENCE_BUCKET": ""}},
		{"unknown evidence backend", map[string]string{"STORE_DRIVER": "memory", "EVIDENCE_BACKEND": "ftp"}},
		{"bad upload limit", map[string]string{"STORE_DRIVER": "memory", "MAX_UPLOAD_BYTES": "-1"}},
		{"bad auto migrate", map[string]string{"STORE_DRIVER": "memory", "AUTO_MIGRATE": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := NewConfig()
			assert.Error(t, err)
		})
	}
}
