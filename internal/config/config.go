// Package config loads settings from an optional config file and
// SLIDES_CHECKER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override; nested keys use "_" for ".".
const EnvPrefix = "SLIDES_CHECKER"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Supported backends and sources.
const (
	ClientSourceFile          = "file"
	ClientSourceSecretManager = "secretmanager"
	StoreBackendFile          = "file"
	StoreBackendFirestore     = "firestore"
)

// Config holds all application configuration.
type Config struct {
	CredentialsFile   string      `mapstructure:"credentials_file"`
	TokenFile         string      `mapstructure:"token_file"`
	OutputDir         string      `mapstructure:"output_dir"`
	NotesPlaceholders []string    `mapstructure:"notes_placeholders"`
	Auth              AuthConfig  `mapstructure:"auth"`
	Store             StoreConfig `mapstructure:"store"`
	Fetch             FetchConfig `mapstructure:"fetch"`
	Log               LogConfig   `mapstructure:"log"`
}

// AuthConfig holds OAuth client and consent flow settings.
type AuthConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	OpenBrowser  bool          `mapstructure:"open_browser"`
	ClientSource string        `mapstructure:"client_source"`
	// ProjectID and ClientSecretID locate the client descriptor in Secret
	// Manager when ClientSource is "secretmanager".
	ProjectID      string `mapstructure:"project_id"`
	ClientSecretID string `mapstructure:"client_secret_id"`
}

// StoreConfig selects where the credential is persisted.
type StoreConfig struct {
	Backend   string          `mapstructure:"backend"`
	Firestore FirestoreConfig `mapstructure:"firestore"`
}

// FirestoreConfig locates the credential document.
type FirestoreConfig struct {
	ProjectID  string `mapstructure:"project_id"`
	Collection string `mapstructure:"collection"`
	Document   string `mapstructure:"document"`
}

// FetchConfig holds Slides API transport settings.
type FetchConfig struct {
	MaxRetries        int           `mapstructure:"max_retries"`
	InitialDelay      time.Duration `mapstructure:"initial_delay"`
	MaxDelay          time.Duration `mapstructure:"max_delay"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("credentials_file", "credentials.json")
	v.SetDefault("token_file", "token.json")
	v.SetDefault("output_dir", ".")
	v.SetDefault("notes_placeholders", []string{"Click to add speaker notes"})

	v.SetDefault("auth.timeout", "5m")
	v.SetDefault("auth.open_browser", true)
	v.SetDefault("auth.client_source", ClientSourceFile)
	v.SetDefault("auth.project_id", "")
	v.SetDefault("auth.client_secret_id", "")

	v.SetDefault("store.backend", StoreBackendFile)
	v.SetDefault("store.firestore.project_id", "")
	v.SetDefault("store.firestore.collection", "slides_checker_credentials")
	v.SetDefault("store.firestore.document", "default")

	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.initial_delay", "1s")
	v.SetDefault("fetch.max_delay", "16s")
	v.SetDefault("fetch.requests_per_second", 5.0)
	v.SetDefault("fetch.burst", 5)
	v.SetDefault("fetch.timeout", "1m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration. configFile is optional; its format follows its
// extension (yaml, toml, json). Environment variables override both the
// file and the defaults.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Auth.ClientSource {
	case ClientSourceFile:
		if c.CredentialsFile == "" {
			errs = append(errs, errors.New("credentials_file is required"))
		}
	case ClientSourceSecretManager:
		if c.Auth.ProjectID == "" {
			errs = append(errs, errors.New("auth.project_id is required for secretmanager"))
		}
		if c.Auth.ClientSecretID == "" {
			errs = append(errs, errors.New("auth.client_secret_id is required for secretmanager"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown auth.client_source %q", c.Auth.ClientSource))
	}

	switch c.Store.Backend {
	case StoreBackendFile:
		if c.TokenFile == "" {
			errs = append(errs, errors.New("token_file is required"))
		}
	case StoreBackendFirestore:
		if c.Store.Firestore.ProjectID == "" {
			errs = append(errs, errors.New("store.firestore.project_id is required for firestore"))
		}
		if c.Store.Firestore.Collection == "" || c.Store.Firestore.Document == "" {
			errs = append(errs, errors.New("store.firestore.collection and store.firestore.document are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}

	if c.Auth.Timeout <= 0 {
		errs = append(errs, errors.New("auth.timeout must be positive"))
	}
	if c.Fetch.MaxRetries < 0 {
		errs = append(errs, errors.New("fetch.max_retries must not be negative"))
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Log.Level)) {
		errs = append(errs, fmt.Errorf("unknown log.level %q", c.Log.Level))
	}
	if !slices.Contains([]string{"text", "json"}, strings.ToLower(c.Log.Format)) {
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
