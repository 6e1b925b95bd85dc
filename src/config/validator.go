package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator validates configuration values using go-playground/validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	v := validator.New()

	// Register custom validation functions
	v.RegisterValidation("provider", oneOf("openrouter"))
	v.RegisterValidation("log_level", validateLogLevel)
	v.RegisterValidation("log_format", oneOf("text", "json"))
	v.RegisterValidation("bus_driver", oneOf("memory", "kafka"))
	v.RegisterValidation("blob_driver", oneOf("afero", "minio"))

	return &Validator{
		validate: v,
	}
}

// Validate validates a complete configuration
func (v *Validator) Validate(config *Config) error {
	// Set default version if empty
	if config.Version == "" {
		config.Version = "1.0"
	}

	if err := v.validate.Struct(config); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			// Only the first failure is reported
			e := validationErrors[0]
			return ValidationError{
				Field:   e.Namespace(),
				Message: fmt.Sprintf("validation failed on tag '%s' with value '%v'", e.Tag(), e.Value()),
				Value:   e.Value(),
			}
		}
		return err
	}

	// Driver sections are pointers so the unused ones can be omitted
	if config.Blob.Driver == "minio" && config.Blob.Minio == nil {
		return ValidationError{Field: "Config.Blob.Minio", Message: "minio settings are required when driver is minio"}
	}
	if config.Bus.Driver == "kafka" && config.Bus.Kafka == nil {
		return ValidationError{Field: "Config.Bus.Kafka", Message: "kafka settings are required when driver is kafka"}
	}

	return nil
}

// oneOf accepts the empty string, which is filled by defaults, or one of values.
func oneOf(values ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return value == "" || slices.Contains(values, value)
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := ParseLogLevel(value)
	return err == nil
}

// ParseLogLevel maps a configured level name to a slog level
func ParseLogLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", level)
	}
	return l, nil
}
