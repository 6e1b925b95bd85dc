package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/elee1766/polaris/src/blob"
	"github.com/elee1766/polaris/src/events"
	"github.com/elee1766/polaris/src/signal"
)

// Loader handles loading and layering configurations from multiple sources
type Loader struct {
	precedence ConfigPrecedence
	validator  *Validator
	getenv     func(string) string
}

// NewLoader creates a new configuration loader
func NewLoader(precedence ConfigPrecedence) *Loader {
	return &Loader{
		precedence: precedence,
		validator:  NewValidator(),
		getenv:     os.Getenv,
	}
}

// Load reads every configured file on top of the defaults, applies
// environment overrides and validates the result. Missing files are skipped.
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	sources := []struct {
		path   string
		source ConfigSource
	}{
		{l.precedence.SystemConfig, SourceSystem},
		{l.precedence.UserConfig, SourceUser},
		{l.precedence.ProjectConfig, SourceProject},
	}

	for _, src := range sources {
		if src.path == "" {
			continue
		}
		err := l.loadFile(src.path, config)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load %s config from %s: %w", src.source, src.path, err)
		}
	}

	if l.precedence.EnvironmentPrefix != "" {
		if err := l.applyEnvironmentOverrides(config); err != nil {
			return nil, err
		}
	}

	if err := l.validator.Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFile decodes path onto config. Fields absent from the file keep
// their current value, which is how later sources override earlier ones.
func (l *Loader) loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if isYAML(path) {
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
		return nil
	}
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// SaveFile saves configuration to a file, YAML or JSON by extension
func (l *Loader) SaveFile(config *Config, path string) error {
	if err := l.validator.Validate(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// applyEnvironmentOverrides applies environment variable overrides to config
func (l *Loader) applyEnvironmentOverrides(config *Config) error {
	env := func(name string) string {
		return l.getenv(l.precedence.EnvironmentPrefix + "_" + name)
	}

	if apiKey := env("API_KEY"); apiKey != "" {
		config.API.APIKey = apiKey
	}
	if config.API.APIKey == "" && config.API.APIKeyEnvVar != "" {
		config.API.APIKey = l.getenv(config.API.APIKeyEnvVar)
	}
	if baseURL := env("BASE_URL"); baseURL != "" {
		config.API.BaseURL = baseURL
	}
	if model := env("MODEL"); model != "" {
		config.Agent.Model = model
	}
	if model := env("TITLE_MODEL"); model != "" {
		config.Agent.TitleModel = model
	}
	if key := env("INTERNAL_KEY"); key != "" {
		config.Agent.InternalKey = key
	}
	if raw := env("SYNC_DELAY"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid %s_SYNC_DELAY: %w", l.precedence.EnvironmentPrefix, err)
		}
		config.Agent.SyncDelay = d
	}
	if raw := env("MAX_ITER"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s_MAX_ITER: %w", l.precedence.EnvironmentPrefix, err)
		}
		config.Agent.MaxIter = n
	}
	if addr := env("ADDR"); addr != "" {
		config.Server.Addr = addr
	}
	if path := env("DATABASE"); path != "" {
		config.Storage.DatabasePath = path
	}

	if driver := env("BUS_DRIVER"); driver != "" {
		config.Bus.Driver = driver
	}
	if brokers := env("KAFKA_BROKERS"); brokers != "" {
		if config.Bus.Kafka == nil {
			config.Bus.Kafka = &events.KafkaConfig{Topic: DefaultKafkaTopic, GroupID: DefaultKafkaGroup}
		}
		config.Bus.Kafka.Brokers = strings.Split(brokers, ",")
	}

	if driver := env("BLOB_DRIVER"); driver != "" {
		config.Blob.Driver = driver
	}
	if endpoint := env("MINIO_ENDPOINT"); endpoint != "" {
		if config.Blob.Minio == nil {
			config.Blob.Minio = &blob.MinioConfig{Bucket: DefaultMinioBucket}
		}
		config.Blob.Minio.Endpoint = endpoint
		config.Blob.Minio.AccessKey = env("MINIO_ACCESS_KEY")
		config.Blob.Minio.SecretKey = env("MINIO_SECRET_KEY")
	}

	if addr := env("REDIS_ADDR"); addr != "" {
		if config.Redis == nil {
			config.Redis = &signal.RedisConfig{}
		}
		config.Redis.Address = addr
	}

	if level := env("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := env("LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	return nil
}

// GetConfigPaths returns the configuration file paths to check
func GetConfigPaths() ConfigPrecedence {
	systemConfigPath := "/etc/polaris/config.yaml"
	if runtime.GOOS == "windows" {
		systemConfigPath = filepath.Join(os.Getenv("PROGRAMDATA"), "polaris", "config.yaml")
	}

	return ConfigPrecedence{
		SystemConfig:      systemConfigPath,
		UserConfig:        filepath.Join(xdg.ConfigHome, "polaris", "config.yaml"),
		ProjectConfig:     "polaris.yaml",
		EnvironmentPrefix: "POLARIS",
	}
}

// Load loads configuration from the standard locations, with path
// replacing the project file when set.
func Load(path string) (*Config, error) {
	precedence := GetConfigPaths()
	if path != "" {
		precedence.ProjectConfig = path
	}
	return NewLoader(precedence).Load()
}
