package config

import (
	"time"

	"github.com/elee1766/polaris/src/blob"
	"github.com/elee1766/polaris/src/events"
	"github.com/elee1766/polaris/src/signal"
)

// Config represents the complete configuration for polaris
type Config struct {
	// Version of the configuration format
	Version string `json:"version" yaml:"version"`

	// API configuration for the model provider
	API APIConfig `json:"api" yaml:"api"`

	// Agent configuration
	Agent AgentConfig `json:"agent" yaml:"agent"`

	// Workflow engine configuration
	Workflow WorkflowConfig `json:"workflow" yaml:"workflow"`

	// HTTP server configuration
	Server ServerConfig `json:"server" yaml:"server"`

	// Storage configuration
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Blob storage configuration
	Blob BlobConfig `json:"blob" yaml:"blob"`

	// Event bus configuration
	Bus BusConfig `json:"bus" yaml:"bus"`

	// Redis enables cross-process cancellation when set
	Redis *signal.RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`

	// Fetch configuration for the scrape tool
	Fetch FetchConfig `json:"fetch" yaml:"fetch"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// APIConfig holds API-related configuration
type APIConfig struct {
	// Provider specifies the AI provider
	Provider string `json:"provider" yaml:"provider" validate:"provider"`

	// BaseURL overrides the default API endpoint
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`

	// APIKey for authentication (can be omitted if using env vars)
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// APIKeyEnvVar specifies the environment variable to read the API key from
	APIKeyEnvVar string `json:"api_key_env_var,omitempty" yaml:"api_key_env_var,omitempty"`

	// Timeout for API requests
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" validate:"min=0"`

	// Retries per request, including the first attempt
	Retries    int           `json:"retries,omitempty" yaml:"retries,omitempty" validate:"min=0,max=10"`
	RetryDelay time.Duration `json:"retry_delay,omitempty" yaml:"retry_delay,omitempty" validate:"min=0"`

	// Attribution headers sent to OpenRouter
	SiteURL  string `json:"site_url,omitempty" yaml:"site_url,omitempty" validate:"omitempty,url"`
	SiteName string `json:"site_name,omitempty" yaml:"site_name,omitempty"`
}

// AgentConfig holds the coding agent settings
type AgentConfig struct {
	// Model drives the tool-calling agent
	Model string `json:"model" yaml:"model" validate:"required"`

	// TitleModel generates conversation titles; defaults to Model
	TitleModel string `json:"title_model,omitempty" yaml:"title_model,omitempty"`

	// MaxIter caps the router loop
	MaxIter int `json:"max_iter,omitempty" yaml:"max_iter,omitempty" validate:"min=0,max=100"`

	// HistoryLimit is how many recent messages are shown to the model
	HistoryLimit int `json:"history_limit,omitempty" yaml:"history_limit,omitempty" validate:"min=0,max=100"`

	// SyncDelay is the pause before a run reads the conversation
	SyncDelay time.Duration `json:"sync_delay,omitempty" yaml:"sync_delay,omitempty" validate:"min=0"`

	// InternalKey must be set for runs to proceed
	InternalKey string `json:"internal_key,omitempty" yaml:"internal_key,omitempty"`
}

// WorkflowConfig holds the durable engine retry budget
type WorkflowConfig struct {
	Retries       int           `json:"retries,omitempty" yaml:"retries,omitempty" validate:"min=-1,max=20"`
	RetryDelay    time.Duration `json:"retry_delay,omitempty" yaml:"retry_delay,omitempty" validate:"min=0"`
	MaxRetryDelay time.Duration `json:"max_retry_delay,omitempty" yaml:"max_retry_delay,omitempty" validate:"min=0"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" validate:"required,hostname_port"`

	// Mode is the gin mode: debug, release or test
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty" validate:"omitempty,oneof=debug release test"`
}

// StorageConfig holds the SQLite settings
type StorageConfig struct {
	DatabasePath string `json:"database_path" yaml:"database_path" validate:"required"`
}

// BlobConfig selects the blob backend
type BlobConfig struct {
	// Driver is "afero" or "minio"
	Driver string `json:"driver" yaml:"driver" validate:"blob_driver"`

	// Root is the directory of the afero backend
	Root string `json:"root,omitempty" yaml:"root,omitempty" validate:"required_if=Driver afero"`

	Minio *blob.MinioConfig `json:"minio,omitempty" yaml:"minio,omitempty"`
}

// BusConfig selects the event transport
type BusConfig struct {
	// Driver is "memory" or "kafka"
	Driver string `json:"driver" yaml:"driver" validate:"bus_driver"`

	// Buffer is the channel size of the memory bus
	Buffer int `json:"buffer,omitempty" yaml:"buffer,omitempty" validate:"min=0"`

	Kafka *events.KafkaConfig `json:"kafka,omitempty" yaml:"kafka,omitempty"`
}

// FetchConfig controls the URL scraper
type FetchConfig struct {
	Timeout     time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" validate:"min=0"`
	Concurrency int           `json:"concurrency,omitempty" yaml:"concurrency,omitempty" validate:"min=0,max=32"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `json:"level,omitempty" yaml:"level,omitempty" validate:"log_level"`

	// Format is the output format (text, json)
	Format string `json:"format,omitempty" yaml:"format,omitempty" validate:"log_format"`
}

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"
	SourceUser        ConfigSource = "user"
	SourceProject     ConfigSource = "project"
	SourceEnvironment ConfigSource = "environment"
)

// ConfigPrecedence lists the files merged by a Loader, lowest precedence first
type ConfigPrecedence struct {
	SystemConfig      string
	UserConfig        string
	ProjectConfig     string
	EnvironmentPrefix string
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	return "validation error in field " + e.Field + ": " + e.Message
}
