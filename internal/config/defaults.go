package config

import (
	"os"
	"path/filepath"

	"autocaption/internal/domain"
)

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return domain.Settings{
		DataDir:          filepath.Join(homeDir, ".autocaption", "projects"),
		ModelPath:        filepath.Join(homeDir, ".autocaption", "models"),
		Language:         "auto",
		ListenAddr:       "127.0.0.1:8000",
		TranslateBaseURL: "http://127.0.0.1:8080/v1",
		TranslateModel:   "default",
	}
}

// DefaultSettingsPath is where the settings file lives unless overridden.
func DefaultSettingsPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".autocaption", "settings.json")
}
