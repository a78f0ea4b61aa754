package infra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	// Файла config.yaml в тестовом окружении нет — работаем на дефолтах
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 5*time.Second, cfg.Vault.Cooldown)
	assert.Equal(t, int64(1e18), cfg.Vault.DailyLimit)
}

func TestLoadSecretFromEnv(t *testing.T) {
	t.Setenv("VAULT_SECRET", "super-secret")
	assert.Equal(t, []byte("super-secret"), LoadSecret(""))
}

func TestLoadSecretFallback(t *testing.T) {
	t.Setenv("VAULT_SECRET", "")
	assert.Equal(t, []byte(DefaultSecret), LoadSecret(""))
}
