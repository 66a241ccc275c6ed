package bootstrap

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/payments-tracker/internal/config"
	"github.com/Dan9191/payments-tracker/internal/repository"
)

func TestNewLogger(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("nonsense").GetLevel())
}

func TestOpenMemoryStore(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{StoreDriver: config.DriverMemory, EvidenceBackend: config.EvidenceInStore}
	log := NewLogger("error")

	store, err := OpenStore(ctx, cfg, log)
	require.NoError(t, err)
	assert.IsType(t, &repository.MemoryStore{}, store)

	svc, err := NewService(ctx, cfg, store, log)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), &config.Config{StoreDriver: "sqlite"}, NewLogger("error"))
	assert.Error(t, err)
}
