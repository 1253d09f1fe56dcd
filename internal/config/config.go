package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the top-level settings for cliweather. User data (locations and
// activities) lives in its own JSON document, not here.
type Config struct {
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Timezone string `mapstructure:"timezone"`

	DataFile string `mapstructure:"data_file"`

	DefaultLocation string `mapstructure:"default_location"`

	Fetch FetchConfig `mapstructure:"fetch"`
	Cache CacheConfig `mapstructure:"cache"`
}

// FetchConfig controls the upstream API client.
type FetchConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend string `mapstructure:"backend"` // "file" or "memcached"
	Dir     string `mapstructure:"dir"`

	MemcachedAddrs        string        `mapstructure:"memcached_addrs"`
	MemcachedTimeout      time.Duration `mapstructure:"memcached_timeout"`
	MemcachedMaxIdleConns int           `mapstructure:"memcached_max_idle_conns"`
}

// Load reads settings with precedence: explicit path flag → CLIWEATHER_* env
// → ~/.config/cliweather/config.yaml. A .env file in the working directory is
// loaded first so OWM_API_KEY, TZ, and LOG_LEVEL work the same way they do
// for the other tools in this family.
func Load(configPath string) (*Config, error) {
	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("base_url", "https://api.openweathermap.org")
	v.SetDefault("timezone", "")
	v.SetDefault("default_location", "")
	v.SetDefault("fetch.timeout", "10s")
	v.SetDefault("fetch.retry_attempts", 3)
	v.SetDefault("fetch.retry_base_delay", "100ms")
	v.SetDefault("fetch.retry_max_delay", "2s")
	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.memcached_addrs", "localhost:11211")
	v.SetDefault("cache.memcached_timeout", "500ms")
	v.SetDefault("cache.memcached_max_idle_conns", 2)

	v.SetEnvPrefix("CLIWEATHER")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		if home, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, "cliweather"))
		}
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// An explicitly named file must exist and parse.
			if configPath != "" || !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// The API key historically comes from OWM_API_KEY; keep honoring it
	// over the settings file.
	if key := os.Getenv("OWM_API_KEY"); key != "" {
		cfg.APIKey = key
	}
	if cfg.Timezone == "" {
		cfg.Timezone = os.Getenv("TZ")
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.DataFile == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			cfg.DataFile = filepath.Join(dir, "cliweather", "data.json")
		} else {
			cfg.DataFile = "data.json"
		}
	}
	if cfg.Cache.Dir == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			cfg.Cache.Dir = filepath.Join(dir, "cliweather")
		} else {
			cfg.Cache.Dir = ".cliweather-cache"
		}
	}
	if cfg.Fetch.Timeout <= 0 {
		cfg.Fetch.Timeout = 10 * time.Second
	}
	if cfg.Fetch.RetryAttempts <= 0 {
		cfg.Fetch.RetryAttempts = 3
	}
	if cfg.Fetch.RetryBaseDelay <= 0 {
		cfg.Fetch.RetryBaseDelay = 100 * time.Millisecond
	}
	if cfg.Fetch.RetryMaxDelay <= 0 {
		cfg.Fetch.RetryMaxDelay = 2 * time.Second
	}
}

// Validate checks the loaded settings. The API key is deliberately not
// required here; commands that never hit the weather API (cache maintenance,
// location/activity management) must work without one.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "file", "memcached":
	default:
		return fmt.Errorf("cache.backend must be file or memcached, got %q", c.Cache.Backend)
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
		}
	}
	return nil
}

// Location returns the configured *time.Location, defaulting to local time.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
