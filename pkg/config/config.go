// Package config resolves CLI settings from defaults, an optional config
// file, FILES_TO_PROMPT_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"filestoprompt/pkg/llm/providers"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "FILES_TO_PROMPT"

// ConfigName is the base name of the config file looked up in $HOME.
const ConfigName = ".files-to-prompt"

// Keys used in config files and environment variables.
const (
	KeyProvider      = "provider"
	KeyModel         = "model"
	KeyAPIKey        = "api_key"
	KeyBaseURL       = "base_url"
	KeyMaxRetries    = "max_retries"
	KeyWorkers       = "workers"
	KeyDebug         = "debug"
	KeyLogFile       = "log_file"
	KeyCacheDir      = "cache.dir"
	KeyCacheDisabled = "cache.disabled"
)

// Config is the resolved configuration.
type Config struct {
	Provider   string      `mapstructure:"provider"`
	Model      string      `mapstructure:"model"`
	APIKey     string      `mapstructure:"api_key"`
	BaseURL    string      `mapstructure:"base_url"`
	MaxRetries int         `mapstructure:"max_retries"`
	Workers    int         `mapstructure:"workers"`
	Debug      bool        `mapstructure:"debug"`
	LogFile    string      `mapstructure:"log_file"`
	Cache      CacheConfig `mapstructure:"cache"`
}

// CacheConfig controls the completion cache.
type CacheConfig struct {
	Dir      string `mapstructure:"dir"` // Empty selects the user cache directory.
	Disabled bool   `mapstructure:"disabled"`
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyProvider, providers.ProviderOpenAI)
	v.SetDefault(KeyModel, "")
	v.SetDefault(KeyAPIKey, "")
	v.SetDefault(KeyBaseURL, "")
	v.SetDefault(KeyMaxRetries, 0)
	v.SetDefault(KeyWorkers, 1)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyCacheDir, "")
	v.SetDefault(KeyCacheDisabled, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds command-line flags to config keys. flagNames maps a key to
// the flag that overrides it; flags missing from fs are ignored.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, flagNames map[string]string) error {
	for key, name := range flagNames {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Load reads configFile, or $HOME/.files-to-prompt.{yaml,toml,json} when
// configFile is empty, and resolves the final Config. An explicit file that
// cannot be read is an error; a missing default file is not.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(home)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Model == "" {
		cfg.Model = providers.DefaultModel(cfg.Provider)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = providers.APIKeyFromEnv(cfg.Provider)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must not be negative, got %d", cfg.MaxRetries)
	}
	return &cfg, nil
}

// ProviderConfig returns the backend settings.
func (c *Config) ProviderConfig() providers.Config {
	return providers.Config{
		Provider:   c.Provider,
		APIKey:     c.APIKey,
		BaseURL:    c.BaseURL,
		MaxRetries: c.MaxRetries,
	}
}
