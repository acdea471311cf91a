package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "stock-ledger", cfg.App.Name)
	assert.Equal(t, "postgres", cfg.Ledger.StoreDriver)
	assert.Equal(t, 3, cfg.Ledger.MaxRetries)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.False(t, cfg.Redis.Enabled())
	assert.True(t, cfg.Scheduler.Enabled)
}

func TestFromViper_Sobrescritura(t *testing.T) {
	v := viper.New()
	v.Set("LEDGER_STORE_DRIVER", "MEMORY")
	v.Set("LEDGER_MAX_RETRIES", "5")
	v.Set("SCHEDULER_ENABLED", "false")
	v.Set("REDIS_ADDR", "localhost:6379")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Ledger.StoreDriver)
	assert.Equal(t, 5, cfg.Ledger.MaxRetries)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.True(t, cfg.Redis.Enabled())
}

func TestFromViper_DriverInvalido(t *testing.T) {
	v := viper.New()
	v.Set("LEDGER_STORE_DRIVER", "sqlite")
	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss/word", DBName: "ledger", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss%2Fword@db:5432/ledger?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
