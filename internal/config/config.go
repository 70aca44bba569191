// Package config loads parcelscout settings. Layers, later winning:
// DefaultConfig, the JSON prefs file in the data directory, a .env file,
// then the process environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abelbrown/parcelscout/internal/logging"
	"github.com/abelbrown/parcelscout/internal/validate"
)

// Environment variable names.
const (
	EnvHome            = "PARCELSCOUT_HOME"
	EnvBaseURL         = "PARCELSCOUT_API_BASE_URL"
	EnvTimeout         = "PARCELSCOUT_API_TIMEOUT"
	EnvBearerToken     = "PARCELSCOUT_API_BEARER_TOKEN"
	EnvAPIKey          = "PARCELSCOUT_API_KEY"
	EnvRateLimit       = "PARCELSCOUT_API_RATE_LIMIT"
	EnvMinSearchLength = "PARCELSCOUT_MIN_SEARCH_LENGTH"
	EnvDebounceDelay   = "PARCELSCOUT_DEBOUNCE_DELAY"
	EnvMaxResults      = "PARCELSCOUT_MAX_RESULTS"
	EnvDebug           = "PARCELSCOUT_DEBUG"
	EnvEnvironment     = "PARCELSCOUT_ENVIRONMENT"
)

// DefaultBaseURL is the production API.
const DefaultBaseURL = "http://api.propertyforgeai.com:3000"

// Config is the full application configuration.
type Config struct {
	API          APIConfig          `json:"api"`
	Autocomplete AutocompleteConfig `json:"autocomplete"`
	UI           UIConfig           `json:"ui"`
	App          AppConfig          `json:"app"`
	Debug        bool               `json:"debug"`

	// DataDir holds config.json, the database, logs and the event log.
	DataDir string `json:"-"`
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL     string  `json:"base_url" validate:"required,url"`
	TimeoutMs   int     `json:"timeout_ms" validate:"gt=0"`
	BearerToken string  `json:"bearer_token,omitempty"`
	APIKey      string  `json:"api_key,omitempty"`
	RateLimit   float64 `json:"rate_limit" validate:"gte=0"` // requests per second, 0 = unlimited
}

// Timeout returns the per-request timeout.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutMs) * time.Millisecond
}

// AutocompleteConfig tunes suggestion lookup.
type AutocompleteConfig struct {
	MinSearchLength int `json:"min_search_length" validate:"gte=1"`
	DebounceDelayMs int `json:"debounce_delay_ms" validate:"gte=0"`
	MaxResults      int `json:"max_results" validate:"gte=1,lte=50"`
}

// DebounceDelay returns the debounce window.
func (a AutocompleteConfig) DebounceDelay() time.Duration {
	return time.Duration(a.DebounceDelayMs) * time.Millisecond
}

// UIConfig holds terminal UI preferences.
type UIConfig struct {
	RecentLimit int  `json:"recent_limit" validate:"gte=0,lte=50"`
	AltScreen   bool `json:"alt_screen"`
	Mouse       bool `json:"mouse"`
}

// AppConfig identifies the running build.
type AppConfig struct {
	Name        string `json:"name" validate:"required"`
	Version     string `json:"version"`
	Environment string `json:"environment" validate:"oneof=development staging production test"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   DefaultBaseURL,
			TimeoutMs: 5000,
			RateLimit: 10,
		},
		Autocomplete: AutocompleteConfig{
			MinSearchLength: 2,
			DebounceDelayMs: 300,
			MaxResults:      8,
		},
		UI: UIConfig{
			RecentLimit: 5,
			AltScreen:   true,
			Mouse:       true,
		},
		App: AppConfig{
			Name:        "PropertyForge AI",
			Version:     "1.0.0",
			Environment: "development",
		},
		DataDir: DefaultDataDir(),
	}
}

// DefaultDataDir returns $PARCELSCOUT_HOME or ~/.parcelscout.
func DefaultDataDir() string {
	if dir := strings.TrimSpace(os.Getenv(EnvHome)); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".parcelscout")
}

// Path returns the JSON prefs file path.
func (c *Config) Path() string { return filepath.Join(c.DataDir, "config.json") }

// DBPath returns the SQLite database path.
func (c *Config) DBPath() string { return filepath.Join(c.DataDir, "parcelscout.db") }

// EventLogPath returns the JSONL event log path.
func (c *Config) EventLogPath() string { return filepath.Join(c.DataDir, "events.jsonl") }

// LogDir returns the directory for the human-readable log.
func (c *Config) LogDir() string { return filepath.Join(c.DataDir, "logs") }

// Load builds the configuration for dataDir (DefaultDataDir when empty)
// and validates it.
func Load(dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	data, err := os.ReadFile(cfg.Path())
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			logging.Warn("ignoring unreadable config file", "path", cfg.Path(), "err", err)
			dir := cfg.DataDir
			cfg = DefaultConfig()
			cfg.DataDir = dir
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read config: %w", err)
	}

	// .env in the working directory, then in the data directory. Neither
	// overrides variables already set in the environment.
	for _, p := range []string{".env", filepath.Join(cfg.DataDir, ".env")} {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from PARCELSCOUT_* variables.
func (c *Config) ApplyEnv() error {
	c.API.BaseURL = strings.TrimRight(getEnv(EnvBaseURL, c.API.BaseURL), "/")
	c.API.BearerToken = getEnv(EnvBearerToken, c.API.BearerToken)
	c.API.APIKey = getEnv(EnvAPIKey, c.API.APIKey)
	c.App.Environment = getEnv(EnvEnvironment, c.App.Environment)

	var err error
	if c.API.TimeoutMs, err = envMillis(EnvTimeout, c.API.TimeoutMs); err != nil {
		return err
	}
	if c.Autocomplete.DebounceDelayMs, err = envMillis(EnvDebounceDelay, c.Autocomplete.DebounceDelayMs); err != nil {
		return err
	}
	if c.Autocomplete.MinSearchLength, err = envInt(EnvMinSearchLength, c.Autocomplete.MinSearchLength); err != nil {
		return err
	}
	if c.Autocomplete.MaxResults, err = envInt(EnvMaxResults, c.Autocomplete.MaxResults); err != nil {
		return err
	}
	if v, ok := os.LookupEnv(EnvRateLimit); ok {
		f, perr := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if perr != nil {
			return fmt.Errorf("%s: %w", EnvRateLimit, perr)
		}
		c.API.RateLimit = f
	}
	if v, ok := os.LookupEnv(EnvDebug); ok {
		c.Debug = v == "1" || strings.EqualFold(v, "true")
	}
	return nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Default.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Warnings lists non-fatal problems, such as missing credentials.
func (c *Config) Warnings() []string {
	var missing []string
	if c.API.BearerToken == "" {
		missing = append(missing, EnvBearerToken)
	}
	if c.API.APIKey == "" {
		missing = append(missing, EnvAPIKey)
	}
	if len(missing) == 0 {
		return nil
	}
	return []string{"missing credentials: " + strings.Join(missing, ", ")}
}

// Save writes the prefs file with owner-only permissions since it may hold
// credentials.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.Path(), data, 0o600)
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(val)
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// envMillis accepts a bare millisecond count ("5000") or a Go duration ("5s").
func envMillis(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return int(d / time.Millisecond), nil
}
