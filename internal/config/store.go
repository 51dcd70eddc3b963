package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"autocaption/internal/domain"
)

// Store defines persistence operations for app settings.
type Store interface {
	Load() (domain.Settings, error)
	Save(domain.Settings) error
}

// JSONStore persists settings in a single JSON file on disk.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSON-backed settings store.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load reads settings from disk or returns defaults when missing.
func (s *JSONStore) Load() (domain.Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}

		return domain.Settings{}, err
	}

	var cfg domain.Settings
	if err := json.Unmarshal(data, &cfg); err != nil {
		return domain.Settings{}, err
	}

	return cfg, nil
}

// Save writes settings as indented JSON and creates parent directories.
func (s *JSONStore) Save(cfg domain.Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o644)
}

// LoadEnvFile reads a .env file into the process environment when one
// exists next to the working directory. Missing files are not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// ApplyEnv overlays AUTOCAPTION_* environment variables onto cfg.
// Environment wins over the settings file so containerized and scripted
// runs can reconfigure without editing JSON.
func ApplyEnv(cfg domain.Settings) domain.Settings {
	overlay := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	overlay("AUTOCAPTION_DATA_DIR", &cfg.DataDir)
	overlay("AUTOCAPTION_MODEL_PATH", &cfg.ModelPath)
	overlay("AUTOCAPTION_LANGUAGE", &cfg.Language)
	overlay("AUTOCAPTION_LISTEN_ADDR", &cfg.ListenAddr)
	overlay("AUTOCAPTION_TRANSLATE_BASE_URL", &cfg.TranslateBaseURL)
	overlay("AUTOCAPTION_TRANSLATE_MODEL", &cfg.TranslateModel)
	overlay("AUTOCAPTION_TRANSLATE_API_KEY", &cfg.TranslateAPIKey)
	return cfg
}
