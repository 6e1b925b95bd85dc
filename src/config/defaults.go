package config

import (
	"time"
)

const (
	DefaultModel = "anthropic/claude-sonnet-4"
	DefaultAddr  = "127.0.0.1:8080"

	DefaultKafkaTopic  = "polaris.events"
	DefaultKafkaGroup  = "polaris"
	DefaultMinioBucket = "polaris"
)

// DefaultConfig returns a default configuration with sensible defaults
func DefaultConfig() *Config {
	paths := GetDefaultStoragePaths()
	return &Config{
		Version: "1.0",
		API: APIConfig{
			Provider:     "openrouter",
			APIKeyEnvVar: "OPENROUTER_API_KEY",
			Timeout:      2 * time.Minute,
			Retries:      3,
			RetryDelay:   time.Second,
		},
		Agent: AgentConfig{
			Model:        DefaultModel,
			MaxIter:      20,
			HistoryLimit: 10,
			SyncDelay:    time.Second,
		},
		Workflow: WorkflowConfig{
			Retries:       3,
			RetryDelay:    time.Second,
			MaxRetryDelay: 30 * time.Second,
		},
		Server: ServerConfig{
			Addr: DefaultAddr,
			Mode: "release",
		},
		Storage: StorageConfig{
			DatabasePath: paths.DatabasePath,
		},
		Blob: BlobConfig{
			Driver: "afero",
			Root:   paths.BlobPath,
		},
		Bus: BusConfig{
			Driver: "memory",
			Buffer: 64,
		},
		Fetch: FetchConfig{
			Timeout:     30 * time.Second,
			Concurrency: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
