package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Addr)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, "/tmp/uploads", cfg.Storage.UploadDir)
	assert.Equal(t, "/tmp/outputs", cfg.Storage.OutputDir)
	assert.Equal(t, 1.0, cfg.Pipeline.Threshold)
	assert.Equal(t, ".nii.gz", cfg.Pipeline.Suffix)
	assert.Equal(t, 2, cfg.Worker.Concurrency)
	assert.Equal(t, map[string]int{"convert": 6, "uploads": 1}, cfg.Worker.Queues)
	assert.Empty(t, cfg.Blob.ConnectionString)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("AZURE_STORAGE_CONNECTION_STRING", "UseDevelopmentStorage=true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "redis.internal:6380", cfg.Redis.Address)
	assert.Equal(t, "UseDevelopmentStorage=true", cfg.Blob.ConnectionString)
}
