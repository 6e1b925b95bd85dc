package orclient

import (
	"log/slog"
	"time"
)

// Config holds configuration for the OpenRouter client
type Config struct {
	APIKey     string        // OpenRouter API key
	BaseURL    string        // Base URL for OpenRouter API
	Logger     *slog.Logger  // Logger for debugging
	Timeout    time.Duration // HTTP timeout
	RetryCount int           // Attempts per request, including the first
	RetryDelay time.Duration // Base delay between attempts
	ModelTTL   time.Duration // How long the model list is cached
	SiteURL    string        // Site URL for ranking
	SiteName   string        // Site name for ranking
}
