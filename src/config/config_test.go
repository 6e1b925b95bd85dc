package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/polaris/src/events"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "1.0", config.Version)
	assert.Equal(t, "openrouter", config.API.Provider)
	assert.Equal(t, DefaultModel, config.Agent.Model)
	assert.Equal(t, "memory", config.Bus.Driver)
	assert.Equal(t, "afero", config.Blob.Driver)
	assert.Nil(t, config.Redis)
	assert.Equal(t, "polaris.db", filepath.Base(config.Storage.DatabasePath))

	require.NoError(t, NewValidator().Validate(config))
}

func TestConfigValidation(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown bus driver",
			mutate:  func(c *Config) { c.Bus.Driver = "nats" },
			wantErr: "Config.Bus.Driver",
		},
		{
			name:    "kafka without settings",
			mutate:  func(c *Config) { c.Bus.Driver = "kafka" },
			wantErr: "Config.Bus.Kafka",
		},
		{
			name: "kafka without topic",
			mutate: func(c *Config) {
				c.Bus.Driver = "kafka"
				c.Bus.Kafka = &events.KafkaConfig{Brokers: []string{"localhost:9092"}, GroupID: "g"}
			},
			wantErr: "Topic",
		},
		{
			name:    "minio without settings",
			mutate:  func(c *Config) { c.Blob.Driver = "minio" },
			wantErr: "Config.Blob.Minio",
		},
		{
			name:    "afero without root",
			mutate:  func(c *Config) { c.Blob.Root = "" },
			wantErr: "Config.Blob.Root",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "Config.Logging.Level",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "Config.Logging.Format",
		},
		{
			name:    "missing model",
			mutate:  func(c *Config) { c.Agent.Model = "" },
			wantErr: "Config.Agent.Model",
		},
		{
			name:    "bad server address",
			mutate:  func(c *Config) { c.Server.Addr = "localhost" },
			wantErr: "Config.Server.Addr",
		},
		{
			name:    "negative sync delay",
			mutate:  func(c *Config) { c.Agent.SyncDelay = -time.Second },
			wantErr: "Config.Agent.SyncDelay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := validator.Validate(c)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoaderLayersFiles(t *testing.T) {
	dir := t.TempDir()

	system := filepath.Join(dir, "system.json")
	require.NoError(t, os.WriteFile(system, []byte(`{
		"agent": {"model": "openai/gpt-4o", "history_limit": 5},
		"server": {"addr": "0.0.0.0:9000"}
	}`), 0644))

	user := filepath.Join(dir, "user.yaml")
	require.NoError(t, os.WriteFile(user, []byte(`
agent:
  model: anthropic/claude-3.5-haiku
  sync_delay: 250ms
bus:
  driver: kafka
  kafka:
    brokers: ["localhost:9092"]
    topic: polaris.events
    group_id: polaris
`), 0644))

	loader := NewLoader(ConfigPrecedence{
		SystemConfig:  system,
		UserConfig:    user,
		ProjectConfig: filepath.Join(dir, "missing.yaml"),
	})
	config, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "anthropic/claude-3.5-haiku", config.Agent.Model)
	assert.Equal(t, 5, config.Agent.HistoryLimit)
	assert.Equal(t, 250*time.Millisecond, config.Agent.SyncDelay)
	assert.Equal(t, "0.0.0.0:9000", config.Server.Addr)
	// untouched defaults survive
	assert.Equal(t, 20, config.Agent.MaxIter)
	require.NotNil(t, config.Bus.Kafka)
	assert.Equal(t, []string{"localhost:9092"}, config.Bus.Kafka.Brokers)
}

func TestLoaderRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "polaris.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"agent": `), 0644))

	_, err := NewLoader(ConfigPrecedence{ProjectConfig: path}).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse JSON")
}

func TestEnvironmentOverrides(t *testing.T) {
	env := map[string]string{
		"POLARIS_MODEL":         "openai/gpt-4o-mini",
		"POLARIS_INTERNAL_KEY":  "secret",
		"POLARIS_SYNC_DELAY":    "0s",
		"POLARIS_BUS_DRIVER":    "kafka",
		"POLARIS_KAFKA_BROKERS": "k1:9092,k2:9092",
		"POLARIS_REDIS_ADDR":    "localhost:6379",
		"POLARIS_LOG_LEVEL":     "debug",
		"OPENROUTER_API_KEY":    "sk-or-test",
	}

	loader := NewLoader(ConfigPrecedence{EnvironmentPrefix: "POLARIS"})
	loader.getenv = func(k string) string { return env[k] }

	config, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "openai/gpt-4o-mini", config.Agent.Model)
	assert.Equal(t, "secret", config.Agent.InternalKey)
	assert.Equal(t, time.Duration(0), config.Agent.SyncDelay)
	assert.Equal(t, "sk-or-test", config.API.APIKey)
	require.NotNil(t, config.Bus.Kafka)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, config.Bus.Kafka.Brokers)
	assert.Equal(t, DefaultKafkaTopic, config.Bus.Kafka.Topic)
	require.NotNil(t, config.Redis)
	assert.Equal(t, "localhost:6379", config.Redis.Address)
	assert.Equal(t, "debug", config.Logging.Level)

	env["POLARIS_MAX_ITER"] = "lots"
	_, err = loader.Load()
	assert.ErrorContains(t, err, "POLARIS_MAX_ITER")
}

func TestSaveFileRoundTrip(t *testing.T) {
	loader := NewLoader(ConfigPrecedence{})
	dir := t.TempDir()

	for _, name := range []string{"config.yaml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			config := DefaultConfig()
			config.Agent.Model = "openai/gpt-4o"
			config.Agent.SyncDelay = 3 * time.Second

			path := filepath.Join(dir, "nested", name)
			require.NoError(t, loader.SaveFile(config, path))

			loaded, err := NewLoader(ConfigPrecedence{ProjectConfig: path}).Load()
			require.NoError(t, err)
			assert.Equal(t, "openai/gpt-4o", loaded.Agent.Model)
			assert.Equal(t, 3*time.Second, loaded.Agent.SyncDelay)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "error"} {
		_, err := ParseLogLevel(level)
		assert.NoError(t, err, level)
	}
	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}
