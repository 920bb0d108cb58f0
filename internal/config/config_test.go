package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg := FromViper(v)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, StoreMemory, cfg.App.StoreBackend)
	assert.True(t, cfg.App.SeedDemo)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 30, cfg.Cache.RequirementsTTLSeconds)
	assert.Equal(t, int64(10), cfg.Database.MaxConcurrentTx)
	assert.Equal(t, "mrp-runs", cfg.Archive.Bucket)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("STORE_BACKEND", "Postgres")
	v.Set("LOG_LEVEL", "warn")
	v.Set("CACHE_ENABLED", true)

	cfg := FromViper(v)

	assert.Equal(t, StorePostgres, cfg.App.StoreBackend)
	assert.Equal(t, "warn", cfg.Server.LogLevel)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLocation(t *testing.T) {
	assert.Equal(t, time.Local, AppConfig{}.Location())
	assert.Equal(t, time.Local, AppConfig{Timezone: "Nowhere/Invalid"}.Location())
	assert.Equal(t, "UTC", AppConfig{Timezone: "UTC"}.Location().String())
}

func TestDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: "5432", User: "scm", Password: "pw", DBName: "scm", SSLMode: "disable"}

	assert.Equal(t, "host=db port=5432 user=scm password=pw dbname=scm sslmode=disable", cfg.DSN())
}
