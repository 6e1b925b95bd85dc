package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// StoragePaths contains paths for application storage
type StoragePaths struct {
	DatabasePath string
	BlobPath     string
}

// GetDefaultStoragePaths returns default storage paths using XDG base directories
func GetDefaultStoragePaths() StoragePaths {
	return StoragePaths{
		// XDG_STATE_HOME holds the database, XDG_DATA_HOME the uploaded blobs
		DatabasePath: filepath.Join(xdg.StateHome, "polaris", "polaris.db"),
		BlobPath:     filepath.Join(xdg.DataHome, "polaris", "blobs"),
	}
}

// GetDefaultConfigPath returns the user config file location
func GetDefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "polaris", "config.yaml")
}
