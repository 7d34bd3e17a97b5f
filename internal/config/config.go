package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Settings is the persisted application configuration document. Known
// keys merge over built-in defaults; unknown keys are preserved across
// a load/save round trip so older and newer versions can share a file.
type Settings struct {
	DataDir          string `json:"data_dir"`
	ModelFilePattern string `json:"model_file"`
	HistoryFile      string `json:"history_file"`
	ConfigFile       string `json:"config_file"`
	AutoPredict      bool   `json:"auto_predict"`
	PredictionDays   int    `json:"prediction_days"`
	MinForecastDays  int    `json:"min_forecast_days"`
	MaxForecastDays  int    `json:"max_forecast_days"`
	PolynomialDegree int    `json:"polynomial_degree"`
	Theme            string `json:"theme"`

	extra map[string]json.RawMessage
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		DataDir:          "./temp_data",
		ModelFilePattern: "%s_model.json",
		HistoryFile:      "temp_history.csv",
		ConfigFile:       "app_config.json",
		AutoPredict:      true,
		PredictionDays:   7,
		MinForecastDays:  1,
		MaxForecastDays:  30,
		PolynomialDegree: 2,
		Theme:            "light",
	}
}

// settingsAlias avoids recursion in the custom JSON methods.
type settingsAlias Settings

var knownKeys = map[string]struct{}{
	"data_dir": {}, "model_file": {}, "history_file": {}, "config_file": {},
	"auto_predict": {}, "prediction_days": {}, "min_forecast_days": {},
	"max_forecast_days": {}, "polynomial_degree": {}, "theme": {},
}

// UnmarshalJSON merges the document over the receiver's current values
// and stashes unknown keys.
func (s *Settings) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(data, (*settingsAlias)(s)); err != nil {
		return err
	}
	for k, v := range raw {
		if _, known := knownKeys[k]; known {
			continue
		}
		if s.extra == nil {
			s.extra = make(map[string]json.RawMessage)
		}
		s.extra[k] = v
	}
	return nil
}

// MarshalJSON emits known keys plus any preserved unknown keys.
func (s Settings) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(settingsAlias(s))
	if err != nil {
		return nil, err
	}
	if len(s.extra) == 0 {
		return base, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range s.extra {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// LoadSettings reads the settings document from the data directory,
// merging it over defaults. A missing file yields plain defaults.
func LoadSettings(dataDir string) (Settings, error) {
	s := Defaults()
	s.DataDir = dataDir

	path := filepath.Join(dataDir, s.ConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("reading settings: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return Defaults(), fmt.Errorf("parsing settings: %w", err)
	}
	return s, nil
}

// Save writes the settings document into the data directory.
func (s Settings) Save() error {
	if err := os.MkdirAll(s.DataDir, 0o755); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	path := filepath.Join(s.DataDir, s.ConfigFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

// AppConfig bundles process-level configuration from the environment
// with the persisted settings document.
type AppConfig struct {
	Port            string
	RefreshInterval time.Duration
	Settings        Settings
}

// Load reads environment configuration (with .env support) and then the
// settings document from the resolved data directory.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}
	cfg.Port = getenvDefault("PORT", "8080")

	intervalStr := getenvDefault("REFRESH_INTERVAL", "15m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	cfg.RefreshInterval = interval

	dataDir := getenvDefault("DATA_DIR", Defaults().DataDir)
	settings, err := LoadSettings(dataDir)
	if err != nil {
		return nil, err
	}
	if settings.PredictionDays <= 0 {
		settings.PredictionDays = getenvInt("PREDICTION_DAYS", Defaults().PredictionDays)
	}
	cfg.Settings = settings

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
