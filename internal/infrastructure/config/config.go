package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	Match     MatchConfig     `mapstructure:"match"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	LogLevel  string          `mapstructure:"log_level"`
}

// AppConfig holds application metadata.
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// RemoteConfig holds settings for the two remote nutrition APIs.
type RemoteConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Timeout    time.Duration `mapstructure:"timeout"`
	OFFBaseURL string        `mapstructure:"off_base_url"`
	FDCBaseURL string        `mapstructure:"fdc_base_url"`
	FDCAPIKey  string        `mapstructure:"fdc_api_key"`
	PageSize   int           `mapstructure:"page_size"`
}

// DatasetConfig holds locations of the bundled offline datasets. Missing or
// corrupt files degrade to empty sources, so none of these are validated as
// required.
type DatasetConfig struct {
	Dir         string `mapstructure:"dir"`
	OFFFile     string `mapstructure:"off_file"`
	FDCFile     string `mapstructure:"fdc_file"`
	SynonymFile string `mapstructure:"synonym_file"`
	CuratedFile string `mapstructure:"curated_file"`
}

// MatchConfig holds matching and merging tunables. The thresholds were tuned
// empirically; they are configuration, not invariants.
type MatchConfig struct {
	FuzzyThreshold      float64  `mapstructure:"fuzzy_threshold"`
	SweepThreshold      float64  `mapstructure:"sweep_threshold"`
	SimilarityThreshold float64  `mapstructure:"similarity_threshold"`
	MaxResults          int      `mapstructure:"max_results"`
	MinResults          int      `mapstructure:"min_results"`
	SourcePriority      []string `mapstructure:"source_priority"`
}

// CacheConfig holds result-cache settings.
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Backend    string        `mapstructure:"backend"`
	MaxEntries int           `mapstructure:"max_entries"`
	TTL        time.Duration `mapstructure:"ttl"`
	Namespace  string        `mapstructure:"namespace"`
	BadgerPath string        `mapstructure:"badger_path"`
	RedisAddr  string        `mapstructure:"redis_addr"`
}

// RateLimitConfig holds rate limit settings.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig loads the configuration from .env and environment variables.
func LoadConfig() (*Config, error) {
	// .env is optional; environment variables alone are fine.
	_ = godotenv.Load()

	setDefaults()

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.BindEnv("remote.fdc_api_key", "FDC_API_KEY")
	viper.BindEnv("remote.enabled", "REMOTE_ENABLED")
	viper.BindEnv("dataset.dir", "DATA_DIR")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.backend", "CACHE_BACKEND")
	viper.BindEnv("cache.redis_addr", "REDIS_ADDR")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// logger is not initialized yet, so plain printing here
	fmt.Println("Loading configuration",
		"fdc_api_key:", maskAPIKey(viper.GetString("remote.fdc_api_key")),
		"cache_backend:", viper.GetString("cache.backend"))

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey masks an API key, keeping the first and last 4 characters.
func maskAPIKey(key string) string {
	if key == "" {
		return "(unset)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "nutrition-resolver")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	viper.SetDefault("remote.enabled", true)
	viper.SetDefault("remote.timeout", "4s")
	viper.SetDefault("remote.off_base_url", "https://world.openfoodfacts.org")
	viper.SetDefault("remote.fdc_base_url", "https://api.nal.usda.gov")
	viper.SetDefault("remote.page_size", 25)

	viper.SetDefault("dataset.dir", "data")
	viper.SetDefault("dataset.off_file", "off_products.json")
	viper.SetDefault("dataset.fdc_file", "fdc_foundation.json")

	viper.SetDefault("match.fuzzy_threshold", 0.55)
	viper.SetDefault("match.sweep_threshold", 0.3)
	viper.SetDefault("match.similarity_threshold", 0.7)
	viper.SetDefault("match.max_results", 20)
	viper.SetDefault("match.min_results", 5)
	viper.SetDefault("match.source_priority", []string{"fdc", "local", "off"})

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.backend", "badger")
	viper.SetDefault("cache.max_entries", 150)
	viper.SetDefault("cache.ttl", "24h")
	viper.SetDefault("cache.namespace", "foodsearch")
	viper.SetDefault("cache.badger_path", "cache.db")

	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")
}

func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	if config.Remote.Timeout <= 0 {
		return fmt.Errorf("invalid remote timeout")
	}

	if config.Cache.Enabled {
		if config.Cache.MaxEntries <= 0 {
			return fmt.Errorf("invalid cache max entries")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		switch config.Cache.Backend {
		case "badger", "redis", "memory":
		default:
			return fmt.Errorf("unknown cache backend %q", config.Cache.Backend)
		}
	}

	if config.Match.FuzzyThreshold <= 0 || config.Match.FuzzyThreshold > 1 {
		return fmt.Errorf("invalid fuzzy threshold")
	}
	if config.Match.SimilarityThreshold <= 0 || config.Match.SimilarityThreshold > 1 {
		return fmt.Errorf("invalid similarity threshold")
	}
	if config.Match.MaxResults <= 0 {
		return fmt.Errorf("invalid max results")
	}

	return nil
}
